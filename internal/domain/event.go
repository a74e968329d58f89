package domain

import "time"

type Event struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Venue       string    `json:"venue"`
	Description string    `json:"description"`

	TicketTypes []TicketType `json:"ticket_types,omitempty"`
	AddOns      []EventAddOn `json:"add_ons,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TicketType is one sellable category of admission for an event.
// Available is owned by the inventory ledger and only ever changes
// through its conditional updates.
type TicketType struct {
	ID        uint   `json:"id"`
	EventID   uint   `json:"event_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // cents
	Total     int    `json:"total"`
	Available int    `json:"available"`
	OnSale    bool   `json:"on_sale"`

	// RequiresAttendees marks ticket types where each unit names one
	// attendee, so the attendee list must match the quantity.
	RequiresAttendees bool `json:"requires_attendees"`
}

type AddOn struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnitPrice   int64  `json:"unit_price"` // cents
}

// EventAddOn attaches a catalog add-on to an event with its purchase rules.
type EventAddOn struct {
	EventID        uint  `json:"event_id"`
	AddOnID        uint  `json:"add_on_id"`
	AddOn          AddOn `json:"add_on"`
	Required       bool  `json:"required"`
	MaxPerAttendee int   `json:"max_per_attendee"`
}
