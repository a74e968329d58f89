package repository

import (
	"context"
	"fmt"

	"github.com/eventine/ticketing-api/internal/repository/dao"
)

var (
	ErrInsufficientInventory = dao.ErrInsufficientInventory
	ErrReleaseOverflow       = dao.ErrReleaseOverflow
)

type InventoryDAO interface {
	Reserve(ctx context.Context, ticketTypeID uint, qty int) error
	Release(ctx context.Context, ticketTypeID uint, qty int) error
}

// InventoryRepository is the only path to the available counters.
// A successful reservation doubles as the committed sale; issuing
// tickets never touches inventory again, and only failure paths
// release.
type InventoryRepository struct {
	dao InventoryDAO
}

func NewInventoryRepository(dao InventoryDAO) *InventoryRepository {
	return &InventoryRepository{
		dao: dao,
	}
}

func (r *InventoryRepository) Reserve(ctx context.Context, ticketTypeID uint, qty int) error {
	if err := r.dao.Reserve(ctx, ticketTypeID, qty); err != nil {
		if err == dao.ErrInsufficientInventory {
			return ErrInsufficientInventory
		}

		return fmt.Errorf("r.dao.Reserve -> %w", err)
	}

	return nil
}

func (r *InventoryRepository) Release(ctx context.Context, ticketTypeID uint, qty int) error {
	if err := r.dao.Release(ctx, ticketTypeID, qty); err != nil {
		if err == dao.ErrReleaseOverflow {
			return ErrReleaseOverflow
		}

		return fmt.Errorf("r.dao.Release -> %w", err)
	}

	return nil
}
