package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrReleaseOverflow       = errors.New("release exceeds total quantity")
)

// InventoryDAO owns the available counter on ticket_types. Reserve and
// Release are single conditional UPDATEs so they stay correct under
// concurrent callers and across multiple instances; nothing else in the
// codebase is allowed to write available.
type InventoryDAO struct {
	db *gorm.DB
}

func NewInventoryDAO(db *gorm.DB) *InventoryDAO {
	return &InventoryDAO{
		db: db,
	}
}

// Reserve takes qty units off sale, failing without side effects when
// fewer than qty are available.
func (d *InventoryDAO) Reserve(ctx context.Context, ticketTypeID uint, qty int) error {
	result := d.db.WithContext(ctx).
		Model(&TicketType{}).
		Where("id = ? AND available >= ?", ticketTypeID, qty).
		UpdateColumn("available", gorm.Expr("available - ?", qty))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrInsufficientInventory
	}

	return nil
}

// Release returns qty units to sale. The guard keeps available from
// ever exceeding total, which would signal a double release.
func (d *InventoryDAO) Release(ctx context.Context, ticketTypeID uint, qty int) error {
	result := d.db.WithContext(ctx).
		Model(&TicketType{}).
		Where("id = ? AND available + ? <= total", ticketTypeID, qty).
		UpdateColumn("available", gorm.Expr("available + ?", qty))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrReleaseOverflow
	}

	return nil
}
