package domain

import "time"

// Ticket is the issued proof of purchase, one row per ticket-type line
// of the originating selection. Immutable once written; rows sharing an
// OrderID were issued together from one intent.
type Ticket struct {
	ID           uint             `json:"id"`
	OrderID      string           `json:"order_id"`
	SessionID    string           `json:"-"`
	EventID      uint             `json:"event_id"`
	TicketTypeID uint             `json:"ticket_type_id"`
	Quantity     int              `json:"quantity"`
	TotalPrice   int64            `json:"total_price"` // cents
	Attendees    []AttendeeDetail `json:"attendees,omitempty"`
	IssuedAt     time.Time        `json:"issued_at"`
}
