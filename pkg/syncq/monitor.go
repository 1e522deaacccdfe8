package syncq

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober checks whether the server is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor polls the server health endpoint and tracks connectivity.
// Subscribers receive one notification per transition; a transition to
// online never triggers a sync by itself, that stays a caller decision.
type Monitor struct {
	probe    Prober
	interval time.Duration

	mu     sync.Mutex
	online bool
	subs   []chan bool
}

// NewMonitor creates a monitor over the given probe. The monitor starts
// offline until the first successful probe.
func NewMonitor(probe Prober, interval time.Duration) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
	}
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe returns a channel receiving the new state on every
// transition. Slow subscribers miss notifications rather than block the
// monitor.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Run probes immediately, then on every interval tick, until the context
// is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

// check performs one probe and publishes a transition if the state changed.
func (m *Monitor) check(ctx context.Context) {
	err := m.probe.Ping(ctx)
	online := err == nil

	m.mu.Lock()
	changed := online != m.online
	m.online = online
	var subs []chan bool
	if changed {
		subs = append(subs, m.subs...)
	}
	m.mu.Unlock()

	if !changed {
		return
	}

	slog.Info("connectivity changed", "component", "syncq", "online", online)
	for _, ch := range subs {
		select {
		case ch <- online:
		default:
		}
	}
}
