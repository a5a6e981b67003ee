package engine

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/remote"
)

// Config holds the engine tunables.
type Config struct {
	// DrainInterval is the outbox drain period.
	DrainInterval time.Duration
	// ProbeInterval is the connectivity probe period.
	ProbeInterval time.Duration
	// PullInterval is the cache warming period.
	PullInterval time.Duration
	// CatalogPageSize bounds catalog documents pulled per warm cycle.
	CatalogPageSize int
	// MaxAttempts retires an outbox entry after that many failed applies.
	// Zero retries forever.
	MaxAttempts int
	// OwnerID scopes owner-bound warming. Empty skips owner warming.
	OwnerID string
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		DrainInterval:   30 * time.Second,
		ProbeInterval:   60 * time.Second,
		PullInterval:    5 * time.Minute,
		CatalogPageSize: 200,
	}
}

// Engine ties the monitor, the drain scheduler and the cache warmer
// together over one local store and one remote store.
//
// On every down→up connectivity edge the engine immediately drains the
// outbox and re-warms the caches, so a reconnect converges without
// waiting for the next timer tick.
type Engine struct {
	cfg    Config
	logger logging.Logger

	Monitor   *Monitor
	Scheduler *Scheduler
	Warmer    *Warmer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires an engine over the local database and the remote store.
func New(cfg Config, db *sql.DB, store remote.Store, logger logging.Logger) *Engine {
	monitor := NewMonitor(store, cfg.ProbeInterval, logger.With("module", "monitor"))
	scheduler := NewScheduler(db, NewRegistry(db, store), monitor, cfg.DrainInterval, cfg.MaxAttempts, logger.With("module", "scheduler"))
	warmer := NewWarmer(db, store, cfg.CatalogPageSize, logger.With("module", "warmer"))

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		Monitor:   monitor,
		Scheduler: scheduler,
		Warmer:    warmer,
	}

	monitor.OnUp(func(ctx context.Context) {
		if _, err := scheduler.Drain(ctx); err != nil {
			logger.Error(ctx, "drain after reconnect failed", "error", err)
		}
		e.warm(ctx)
	})

	return e
}

// Start performs the initial connect and launches the background loops.
// A failed initial connect is logged, not returned: the engine starts in
// local-only mode and recovers when a probe succeeds.
func (e *Engine) Start(ctx context.Context) {
	if e.cancel != nil {
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)

	if err := e.Monitor.Connect(ctx); err != nil {
		e.logger.Warn(ctx, "initial remote connect failed", "error", err)
	}

	e.wg.Add(3)
	go func() {
		defer e.wg.Done()
		e.Monitor.Run(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.Scheduler.Run(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.runPull(ctx)
	}()
}

// Stop cancels the background loops and waits for them to exit.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	e.wg.Wait()
	e.cancel = nil
}

func (e *Engine) runPull(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.PullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.Monitor.IsUp() {
				e.warm(ctx)
			}
		}
	}
}

func (e *Engine) warm(ctx context.Context) {
	if err := e.Warmer.WarmCatalog(ctx); err != nil {
		e.logger.Error(ctx, "catalog warming failed", "error", err)
	}
	if e.cfg.OwnerID != "" {
		if err := e.Warmer.WarmOwner(ctx, e.cfg.OwnerID); err != nil {
			e.logger.Error(ctx, "owner warming failed", "error", err)
		}
	}
}
