package engine

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/outbox"
)

// DrainResult summarizes one drain cycle.
type DrainResult struct {
	Synced int
	Failed int
	Dead   int
}

// Scheduler drains the outbox against the remote store: on every tick it
// fetches all unsynced entries in FIFO order and applies them one by one.
//
// A single drain may be in flight at a time, guarded by an atomic
// compare-and-set; a tick arriving while a drain runs is a no-op, so a
// slow drain under a fast timer can never double-apply an entry.
type Scheduler struct {
	db          *sql.DB
	registry    Registry
	monitor     *Monitor
	logger      logging.Logger
	interval    time.Duration
	maxAttempts int

	draining atomic.Bool
}

// NewScheduler creates a scheduler. maxAttempts caps retries per entry;
// zero means retry forever.
func NewScheduler(db *sql.DB, registry Registry, monitor *Monitor, interval time.Duration, maxAttempts int, logger logging.Logger) *Scheduler {
	return &Scheduler{
		db:          db,
		registry:    registry,
		monitor:     monitor,
		logger:      logger,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Drain runs one drain cycle. It is a no-op while the remote is down or
// another drain is in flight.
//
// A failing entry is left unsynced and the cycle continues with the next
// one: an isolated bad entry must not block other mutations. Remote-side
// errors are logged, never propagated; the returned error covers local
// store failures only.
func (s *Scheduler) Drain(ctx context.Context) (DrainResult, error) {
	var res DrainResult

	if !s.monitor.IsUp() {
		return res, nil
	}
	if !s.draining.CompareAndSwap(false, true) {
		return res, nil
	}
	defer s.draining.Store(false)

	repo := outbox.NewSQLiteRepository(s.db)

	entries, err := repo.ListUnsynced(ctx)
	if err != nil {
		return res, err
	}
	if len(entries) == 0 {
		return res, nil
	}

	var syncedIDs, failedIDs, deadIDs []int64
	for _, entry := range entries {
		applier, ok := s.registry[entry.Kind]
		if !ok {
			s.logger.Error(ctx, "no applier for entity kind", "kind", entry.Kind, "entry", entry.ID)
			failedIDs = append(failedIDs, entry.ID)
			continue
		}

		if _, err := applier.Apply(ctx, entry); err != nil {
			s.logger.Error(ctx, "failed to apply outbox entry",
				"entry", entry.ID, "kind", entry.Kind, "action", entry.Action, "error", err)
			failedIDs = append(failedIDs, entry.ID)
			if s.maxAttempts > 0 && entry.Attempts+1 >= s.maxAttempts {
				deadIDs = append(deadIDs, entry.ID)
			}
			if errors.Is(err, remote.ErrUnavailable) {
				s.monitor.MarkDown()
			}
			continue
		}
		syncedIDs = append(syncedIDs, entry.ID)
	}

	if err := repo.MarkSynced(ctx, syncedIDs); err != nil {
		return res, err
	}
	if err := repo.MarkFailed(ctx, failedIDs); err != nil {
		return res, err
	}
	if err := repo.MarkDead(ctx, deadIDs); err != nil {
		return res, err
	}
	if _, err := repo.PurgeSynced(ctx); err != nil {
		return res, err
	}

	res.Synced = len(syncedIDs)
	res.Failed = len(failedIDs)
	res.Dead = len(deadIDs)

	s.logger.Info(ctx, "drain complete",
		"synced", res.Synced, "pending", res.Failed, "total", len(entries))
	if res.Dead > 0 {
		s.logger.Warn(ctx, "entries retired after repeated failures", "count", res.Dead)
	}

	return res, nil
}

// Run drains on the configured interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Drain(ctx); err != nil {
				s.logger.Error(ctx, "drain failed", "error", err)
			}
		}
	}
}

// Pending returns the number of live outbox entries awaiting drain.
func (s *Scheduler) Pending(ctx context.Context) (int, error) {
	return outbox.NewSQLiteRepository(s.db).CountUnsynced(ctx)
}
