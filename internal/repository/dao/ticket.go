package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Ticket struct {
	ID           uint   `gorm:"primaryKey"`
	OrderID      string `gorm:"not null;index"`
	SessionID    string `gorm:"not null;index"`
	EventID      uint   `gorm:"not null"`
	TicketTypeID uint   `gorm:"not null"`
	Quantity     int    `gorm:"not null"`
	TotalPrice   int64  `gorm:"not null"` // cents
	Attendees    []byte `gorm:"type:jsonb"`
	IssuedAt     time.Time
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

func (d *TicketDAO) FindBySessionID(ctx context.Context, sessionID string) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).Where("session_id = ?", sessionID).Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *TicketDAO) FindByOrderID(ctx context.Context, orderID string) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}
