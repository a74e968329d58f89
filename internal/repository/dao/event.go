package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
)

type Event struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"not null"`
	Date        time.Time `gorm:"not null"`
	Venue       string    `gorm:"not null"`
	Description string

	TicketTypes []TicketType `gorm:"foreignKey:EventID"`
	AddOns      []EventAddOn `gorm:"foreignKey:EventID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TicketType struct {
	ID        uint   `gorm:"primaryKey"`
	EventID   uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	UnitPrice int64  `gorm:"not null"` // cents
	Total     int    `gorm:"not null"`
	// Available is decremented by reservations and restored by
	// releases; both go through InventoryDAO's conditional updates.
	Available         int  `gorm:"not null"`
	OnSale            bool `gorm:"not null;default:true"`
	RequiresAttendees bool `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type AddOn struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	UnitPrice   int64 `gorm:"not null"` // cents
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventAddOn struct {
	EventID        uint  `gorm:"primaryKey"`
	AddOnID        uint  `gorm:"primaryKey"`
	AddOn          AddOn `gorm:"foreignKey:AddOnID"`
	Required       bool  `gorm:"not null;default:false"`
	MaxPerAttendee int   `gorm:"not null;default:0"` // 0 means no cap
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) FindAll(ctx context.Context) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).
		Preload("TicketTypes").
		Preload("AddOns.AddOn").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).
		Preload("TicketTypes").
		Preload("AddOns.AddOn").
		First(&event, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindTicketType(ctx context.Context, id uint) (TicketType, error) {
	var tt TicketType

	result := d.db.WithContext(ctx).First(&tt, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return TicketType{}, ErrTicketTypeNotFound
		}

		return TicketType{}, result.Error
	}

	return tt, nil
}
