package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/dbx"
	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/repositories/fridge"
)

// FridgeService manages a user's pantry. Every mutation commits the local
// change and its outbox entry in one transaction, so the write is durable
// and queued for sync or not recorded at all.
type FridgeService struct {
	db     *sql.DB
	logger logging.Logger
}

func NewFridgeService(db *sql.DB, logger logging.Logger) *FridgeService {
	return &FridgeService{db: db, logger: logger}
}

// Add stores a pantry item. An item colliding on (owner, name, category)
// is merged by accumulating quantity; merged reports which path was taken.
func (s *FridgeService) Add(ctx context.Context, ownerID, name, category string, quantity float64, unit string, expiredAt *time.Time) (*models.FridgeItem, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, common.ErrEmptyName
	}
	if !models.ValidCategory(category) {
		return nil, false, common.ErrInvalidCategory
	}

	now := time.Now().UTC()
	item := &models.FridgeItem{
		OwnerID:        ownerID,
		IngredientName: name,
		Category:       category,
		Quantity:       quantity,
		Unit:           unit,
		ExpiredAt:      expiredAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var stored *models.FridgeItem
	var merged bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		stored, merged, err = fridge.NewSQLiteRepository(tx).UpsertByNaturalKey(ctx, item)
		if err != nil {
			return err
		}
		action := models.ActionCreate
		if merged {
			action = models.ActionUpdate
		}
		return enqueue(ctx, tx, action, models.KindFridgeItem, stored.RemoteID, ownerID, stored)
	})
	if err != nil {
		return nil, false, err
	}
	return stored, merged, nil
}

// Update overwrites quantity, unit or expiry of an item. Nil fields keep
// their current value.
func (s *FridgeService) Update(ctx context.Context, localID int64, ownerID string, quantity *float64, unit *string, expiredAt *time.Time) (*models.FridgeItem, error) {
	var updated *models.FridgeItem
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		updated, err = fridge.NewSQLiteRepository(tx).Update(ctx, localID, ownerID, quantity, unit, expiredAt)
		if err != nil {
			return err
		}
		return enqueue(ctx, tx, models.ActionUpdate, models.KindFridgeItem, updated.RemoteID, ownerID, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an item. The outbox payload carries the removed row so
// the delete can still be replayed when the item never reached the remote
// store.
func (s *FridgeService) Delete(ctx context.Context, localID int64, ownerID string) (*models.FridgeItem, error) {
	var removed *models.FridgeItem
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		removed, err = fridge.NewSQLiteRepository(tx).DeleteByID(ctx, localID, ownerID)
		if err != nil {
			return err
		}
		return enqueue(ctx, tx, models.ActionDelete, models.KindFridgeItem, removed.RemoteID, ownerID, removed)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Get returns one of the owner's items.
func (s *FridgeService) Get(ctx context.Context, localID int64, ownerID string) (*models.FridgeItem, error) {
	return fridge.NewSQLiteRepository(s.db).GetByID(ctx, localID, ownerID)
}

// List returns the owner's items, optionally filtered by category.
func (s *FridgeService) List(ctx context.Context, ownerID, category string) ([]*models.FridgeItem, error) {
	if category != "" && !models.ValidCategory(category) {
		return nil, common.ErrInvalidCategory
	}
	return fridge.NewSQLiteRepository(s.db).List(ctx, ownerID, category)
}
