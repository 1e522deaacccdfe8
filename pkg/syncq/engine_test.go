package syncq

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// mockRemote records applied entries and fails on demand. When block is
// set, Apply signals started and parks until block is closed, letting
// tests observe an in-flight pass.
type mockRemote struct {
	mu        sync.Mutex
	applied   []int64
	failIDs   map[int64]error
	block     chan struct{}
	started   chan struct{}
	startOnce sync.Once
}

func (m *mockRemote) Ping(ctx context.Context) error { return nil }

func (m *mockRemote) Apply(ctx context.Context, e Entry) error {
	if m.started != nil {
		m.startOnce.Do(func() { close(m.started) })
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.applied = append(m.applied, e.ID)
	err := m.failIDs[e.ID]
	m.mu.Unlock()
	return err
}

func (m *mockRemote) appliedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.applied...)
}

type fixedOnline bool

func (o fixedOnline) Online() bool { return bool(o) }

func TestSync_OfflineIsNoop(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, "vehicles", OpInsert, "id", map[string]string{"id": "v1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	remote := &mockRemote{}
	engine := NewEngine(q, remote, fixedOnline(false), 3)

	report, err := engine.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report != (Report{}) {
		t.Errorf("report = %+v, want zero", report)
	}
	if len(remote.appliedIDs()) != 0 {
		t.Error("offline sync must not dispatch entries")
	}

	n, _ := q.Count(ctx)
	if n != 1 {
		t.Errorf("count = %d, want 1 (entry retained)", n)
	}
}

func TestSync_FIFOAndRemoveOnSuccess(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	var ids []int64
	for _, table := range []string{"vehicles", "clients", "contracts"} {
		id, err := q.Enqueue(ctx, table, OpInsert, "id", map[string]string{"id": "x"})
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		ids = append(ids, id)
	}

	remote := &mockRemote{}
	engine := NewEngine(q, remote, fixedOnline(true), 3)

	report, err := engine.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Succeeded != 3 || report.Failed != 0 || report.Abandoned != 0 {
		t.Errorf("report = %+v", report)
	}

	applied := remote.appliedIDs()
	if len(applied) != 3 {
		t.Fatalf("applied %d entries, want 3", len(applied))
	}
	for i, id := range ids {
		if applied[i] != id {
			t.Errorf("dispatch order[%d] = %d, want %d", i, applied[i], id)
		}
	}

	n, _ := q.Count(ctx)
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestSync_FailedEntryRetainedAndRetried(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	failing, err := q.Enqueue(ctx, "vehicles", OpInsert, "id", map[string]string{"id": "v1"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	ok, err := q.Enqueue(ctx, "clients", OpInsert, "id", map[string]string{"id": "c1"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	remote := &mockRemote{failIDs: map[int64]error{failing: errors.New("boom")}}
	engine := NewEngine(q, remote, fixedOnline(true), 3)

	report, err := engine.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Errorf("report = %+v, want 1 succeeded 1 failed", report)
	}

	// Failure must not short-circuit: the later entry was dispatched.
	applied := remote.appliedIDs()
	if len(applied) != 2 || applied[1] != ok {
		t.Errorf("applied = %v", applied)
	}

	// The failed entry survives with its attempt recorded and is
	// retried on the next pass.
	entries, err := q.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != failing || entries[0].Attempts != 1 {
		t.Fatalf("entries = %+v", entries)
	}

	remote.mu.Lock()
	remote.failIDs = nil
	remote.mu.Unlock()

	report, err = engine.Sync(ctx)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if report.Succeeded != 1 {
		t.Errorf("second report = %+v", report)
	}
	n, _ := q.Count(ctx)
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestSync_AbandonsAfterMaxAttempts(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, "vehicles", OpInsert, "id", map[string]string{"id": "v1"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	remote := &mockRemote{failIDs: map[int64]error{id: errors.New("rejected")}}
	engine := NewEngine(q, remote, fixedOnline(true), 2)

	report, err := engine.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Failed != 1 || report.Abandoned != 0 {
		t.Errorf("first report = %+v", report)
	}

	report, err = engine.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Abandoned != 1 {
		t.Errorf("second report = %+v, want 1 abandoned", report)
	}

	entries, _ := q.All(ctx)
	if len(entries) != 0 {
		t.Errorf("abandoned entry still pending: %+v", entries)
	}
	dead, _ := q.Abandoned(ctx)
	if len(dead) != 1 {
		t.Errorf("dead letters = %+v", dead)
	}
}

func TestSync_SingleInFlight(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, "vehicles", OpInsert, "id", map[string]string{"id": "v1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	block := make(chan struct{})
	remote := &mockRemote{block: block, started: make(chan struct{})}
	engine := NewEngine(q, remote, fixedOnline(true), 3)

	firstDone := make(chan Report)
	go func() {
		report, _ := engine.Sync(ctx)
		firstDone <- report
	}()

	// Second trigger while the first pass is blocked inside Apply:
	// must return immediately without dispatching anything.
	<-remote.started
	second, err := engine.Sync(ctx)
	if err != nil {
		t.Fatalf("concurrent sync: %v", err)
	}
	if second != (Report{}) {
		t.Errorf("concurrent report = %+v, want zero", second)
	}

	close(block)
	first := <-firstDone
	if first.Succeeded != 1 {
		t.Errorf("first report = %+v", first)
	}
	if got := len(remote.appliedIDs()); got != 1 {
		t.Errorf("entry dispatched %d times, want exactly once", got)
	}
}

func TestSync_SnapshotExcludesMidRunEnqueues(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, "vehicles", OpInsert, "id", map[string]string{"id": "v1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	block := make(chan struct{})
	remote := &mockRemote{block: block, started: make(chan struct{})}
	engine := NewEngine(q, remote, fixedOnline(true), 3)

	done := make(chan Report)
	go func() {
		report, _ := engine.Sync(ctx)
		done <- report
	}()

	// Apply is only reached after the pass has taken its snapshot,
	// so an entry enqueued now must wait for the next pass.
	<-remote.started
	if _, err := q.Enqueue(ctx, "clients", OpInsert, "id", map[string]string{"id": "c1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	close(block)
	report := <-done
	if report.Succeeded != 1 {
		t.Errorf("report = %+v, want 1 succeeded (mid-run entry excluded)", report)
	}

	n, _ := q.Count(ctx)
	if n != 1 {
		t.Errorf("count = %d, want 1 (mid-run entry waits for next pass)", n)
	}
}
