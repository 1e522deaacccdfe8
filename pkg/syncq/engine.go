package syncq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultMaxAttempts is the replay budget before an entry is abandoned.
const DefaultMaxAttempts = 5

// Remote replays queued writes against the server.
type Remote interface {
	Prober
	Apply(ctx context.Context, e Entry) error
}

// Onliner reports connectivity; satisfied by *Monitor.
type Onliner interface {
	Online() bool
}

// Report summarizes one sync pass.
type Report struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Abandoned int `json:"abandoned"`
}

// Engine replays the pending queue against a remote, strictly in order.
type Engine struct {
	queue       *Queue
	remote      Remote
	monitor     Onliner
	maxAttempts int

	mu      sync.Mutex
	syncing bool
}

// NewEngine creates a sync engine. maxAttempts <= 0 uses the default.
func NewEngine(queue *Queue, remote Remote, monitor Onliner, maxAttempts int) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Engine{
		queue:       queue,
		remote:      remote,
		monitor:     monitor,
		maxAttempts: maxAttempts,
	}
}

// Sync replays the queue once. It is a no-op returning a zero report when
// offline or when another sync is already in flight; concurrent triggers
// are safe and never dispatch an entry twice. The entry set is snapshotted
// at call time, so writes enqueued mid-run wait for the next pass. A
// failed entry is recorded and left in place; replay continues with the
// rest of the queue.
func (e *Engine) Sync(ctx context.Context) (Report, error) {
	if !e.monitor.Online() {
		return Report{}, nil
	}

	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return Report{}, nil
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	entries, err := e.queue.All(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load queue: %w", err)
	}

	var report Report
	for _, entry := range entries {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		if applyErr := e.remote.Apply(ctx, entry); applyErr != nil {
			attempts, markErr := e.queue.MarkFailed(ctx, entry.ID, applyErr.Error())
			if markErr != nil {
				return report, markErr
			}
			if attempts >= e.maxAttempts {
				if err := e.queue.Abandon(ctx, entry.ID); err != nil {
					return report, err
				}
				report.Abandoned++
				slog.Warn("queue entry abandoned",
					"component", "syncq",
					"entry_id", entry.ID,
					"table", entry.Table,
					"operation", entry.Operation,
					"attempts", attempts,
					"error", applyErr,
				)
			} else {
				report.Failed++
			}
			continue
		}

		if err := e.queue.Remove(ctx, entry.ID); err != nil {
			return report, err
		}
		report.Succeeded++
	}

	return report, nil
}
