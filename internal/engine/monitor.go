// Package engine contains the offline-first synchronization engine: the
// connectivity monitor, the outbox drain scheduler with its per-kind
// remote appliers, and the cache warmer. The engine is an internal
// library consumed by the read/write facade, not a network-facing service.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/smartcook/syncengine/internal/logging"
)

// Pinger is the subset of the remote store driver the monitor needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks whether the remote canonical store is reachable and
// exposes that as a single boolean predicate.
//
// State is updated by the result of the most recent connection attempt:
// the periodic probe, the bounded initial connect, and MarkDown calls
// from components that hit a network failure mid-operation. Transitions
// are idempotent; only a genuine down→up edge fires the registered hooks.
type Monitor struct {
	pinger   Pinger
	logger   logging.Logger
	interval time.Duration

	up atomic.Bool

	mu   sync.Mutex
	onUp []func(ctx context.Context)
}

// NewMonitor creates a monitor probing pinger every interval.
func NewMonitor(pinger Pinger, interval time.Duration, logger logging.Logger) *Monitor {
	return &Monitor{
		pinger:   pinger,
		logger:   logger,
		interval: interval,
	}
}

// IsUp reports the last observed reachability of the remote store.
func (m *Monitor) IsUp() bool {
	return m.up.Load()
}

// OnUp registers a hook fired once per down→up edge. Hooks run
// synchronously in the goroutine that observed the edge.
func (m *Monitor) OnUp(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUp = append(m.onUp, fn)
}

// MarkDown records that an operation just found the remote unreachable.
func (m *Monitor) MarkDown() {
	m.setUp(context.Background(), false)
}

// Connect performs the initial connection attempt with a short bounded
// constant-backoff retry. Failure is not fatal: the process continues in
// degraded local-only mode and the periodic probe keeps trying.
func (m *Monitor) Connect(ctx context.Context) error {
	backoff := retry.WithMaxRetries(2, retry.NewConstant(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := m.pinger.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})

	m.setUp(ctx, err == nil)
	return err
}

// Probe performs one reachability check and updates the state.
func (m *Monitor) Probe(ctx context.Context) bool {
	err := m.pinger.Ping(ctx)
	m.setUp(ctx, err == nil)
	return err == nil
}

// Run probes on the configured interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

func (m *Monitor) setUp(ctx context.Context, up bool) {
	if m.up.Swap(up) == up {
		return // no transition
	}

	if !up {
		m.logger.Warn(ctx, "remote store unreachable, running local-only")
		return
	}

	m.logger.Info(ctx, "remote store reachable")

	m.mu.Lock()
	hooks := make([]func(ctx context.Context), len(m.onUp))
	copy(hooks, m.onUp)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx)
	}
}
