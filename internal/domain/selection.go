package domain

type AttendeeDetail struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

type TicketSelection struct {
	TicketTypeID uint             `json:"ticket_type_id"`
	Quantity     int              `json:"quantity"`
	UnitPrice    int64            `json:"unit_price"` // cents, snapshotted at validation time
	Attendees    []AttendeeDetail `json:"attendees,omitempty"`
}

// AddOnSelection is the uniform shape both catalog and buyer-authored
// add-ons are resolved into at validation time. AddOnID is nil for a
// buyer-authored ("custom") add-on; such an add-on has no life outside
// the selection that carries it.
type AddOnSelection struct {
	AddOnID     *uint  `json:"add_on_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitPrice   int64  `json:"unit_price"` // cents
	Quantity    int    `json:"quantity"`
	Note        string `json:"note,omitempty"`
}

// Selection is a validated, not-yet-committed choice of tickets and
// add-ons. It is never persisted on its own; it travels inside a
// purchase intent.
type Selection struct {
	EventID uint              `json:"event_id"`
	Tickets []TicketSelection `json:"tickets"`
	AddOns  []AddOnSelection  `json:"add_ons,omitempty"`
}

// TotalAmount is the gateway charge for the whole selection, in cents.
func (s Selection) TotalAmount() int64 {
	var total int64
	for _, t := range s.Tickets {
		total += t.UnitPrice * int64(t.Quantity)
	}
	for _, a := range s.AddOns {
		total += a.UnitPrice * int64(a.Quantity)
	}
	return total
}

// TicketQuantity is the number of admissions across all lines.
func (s Selection) TicketQuantity() int {
	var n int
	for _, t := range s.Tickets {
		n += t.Quantity
	}
	return n
}
