package services

import (
	"context"

	"github.com/smartcook/syncengine/internal/engine"
	"github.com/smartcook/syncengine/internal/logging"
)

// SyncStatus is a point-in-time snapshot of the sync state.
type SyncStatus struct {
	Online  bool `json:"online"`
	Pending int  `json:"pending"`
}

// SyncService exposes manual control over the background sync loops:
// inspecting state, pushing the outbox and pulling fresh cache data.
type SyncService struct {
	eng    *engine.Engine
	logger logging.Logger
}

func NewSyncService(eng *engine.Engine, logger logging.Logger) *SyncService {
	return &SyncService{eng: eng, logger: logger}
}

// Status reports connectivity and the number of queued mutations.
func (s *SyncService) Status(ctx context.Context) (SyncStatus, error) {
	pending, err := s.eng.Scheduler.Pending(ctx)
	if err != nil {
		return SyncStatus{}, err
	}
	return SyncStatus{Online: s.eng.Monitor.IsUp(), Pending: pending}, nil
}

// Push probes connectivity and drains the outbox immediately.
func (s *SyncService) Push(ctx context.Context) (engine.DrainResult, error) {
	s.eng.Monitor.Probe(ctx)
	return s.eng.Scheduler.Drain(ctx)
}

// Pull probes connectivity and refreshes the caches immediately. ownerID
// scopes the owner-bound pull; empty refreshes the catalog only.
func (s *SyncService) Pull(ctx context.Context, ownerID string) error {
	if !s.eng.Monitor.Probe(ctx) {
		return nil
	}
	if err := s.eng.Warmer.WarmCatalog(ctx); err != nil {
		return err
	}
	if ownerID == "" {
		return nil
	}
	return s.eng.Warmer.WarmOwner(ctx, ownerID)
}
