package service

import (
	"fmt"

	"github.com/eventine/ticketing-api/internal/domain"
)

// ValidationError reports which part of a raw selection is malformed.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid selection: %s: %s", e.Field, e.Reason)
}

// RawAddOnSelection is the wire shape before resolution: either a
// reference to a catalog add-on or a fully described custom one.
type RawAddOnSelection struct {
	AddOnID     *uint
	Name        string
	Description string
	UnitPrice   int64
	Quantity    int
	Note        string
}

type RawSelection struct {
	EventID uint
	Tickets []domain.TicketSelection
	AddOns  []RawAddOnSelection
}

// SelectionValidator turns a raw selection into a validated one against
// the event's catalog rules. Pure transform; it performs no I/O and
// leaves no side effects.
type SelectionValidator struct{}

func NewSelectionValidator() *SelectionValidator {
	return &SelectionValidator{}
}

// Validate checks, in order: ticket types belong to the event and are
// on sale, add-on quantities respect their per-attendee maxima,
// required add-ons are present (synthesized at quantity 1 when the
// buyer omitted them), and attendee details line up with quantities for
// ticket types that name their attendees.
func (v *SelectionValidator) Validate(event domain.Event, raw RawSelection) (domain.Selection, error) {
	if raw.EventID != event.ID {
		return domain.Selection{}, &ValidationError{Field: "event_id", Reason: "selection does not target this event"}
	}
	if len(raw.Tickets) == 0 {
		return domain.Selection{}, &ValidationError{Field: "tickets", Reason: "at least one ticket is required"}
	}

	ticketTypes := make(map[uint]domain.TicketType, len(event.TicketTypes))
	for _, tt := range event.TicketTypes {
		ticketTypes[tt.ID] = tt
	}

	selection := domain.Selection{EventID: event.ID}
	attendeeCount := 0

	for i, t := range raw.Tickets {
		tt, ok := ticketTypes[t.TicketTypeID]
		if !ok {
			return domain.Selection{}, &ValidationError{
				Field:  fmt.Sprintf("tickets[%d].ticket_type_id", i),
				Reason: "ticket type does not belong to this event",
			}
		}
		if !tt.OnSale {
			return domain.Selection{}, &ValidationError{
				Field:  fmt.Sprintf("tickets[%d].ticket_type_id", i),
				Reason: "ticket type is not on sale",
			}
		}
		if t.Quantity < 1 {
			return domain.Selection{}, &ValidationError{
				Field:  fmt.Sprintf("tickets[%d].quantity", i),
				Reason: "quantity must be at least 1",
			}
		}
		if tt.RequiresAttendees && len(t.Attendees) != t.Quantity {
			return domain.Selection{}, &ValidationError{
				Field:  fmt.Sprintf("tickets[%d].attendees", i),
				Reason: fmt.Sprintf("ticket type %q needs %d attendee(s), got %d", tt.Name, t.Quantity, len(t.Attendees)),
			}
		}

		attendeeCount += t.Quantity
		selection.Tickets = append(selection.Tickets, domain.TicketSelection{
			TicketTypeID: tt.ID,
			Quantity:     t.Quantity,
			UnitPrice:    tt.UnitPrice,
			Attendees:    t.Attendees,
		})
	}

	links := make(map[uint]domain.EventAddOn, len(event.AddOns))
	for _, link := range event.AddOns {
		links[link.AddOnID] = link
	}

	seen := make(map[uint]bool)
	for i, a := range raw.AddOns {
		if a.Quantity < 1 {
			return domain.Selection{}, &ValidationError{
				Field:  fmt.Sprintf("add_ons[%d].quantity", i),
				Reason: "quantity must be at least 1",
			}
		}

		if a.AddOnID == nil {
			// Buyer-authored add-on: lives only inside this selection.
			if a.Name == "" {
				return domain.Selection{}, &ValidationError{
					Field:  fmt.Sprintf("add_ons[%d].name", i),
					Reason: "custom add-on needs a name",
				}
			}
			if a.UnitPrice < 0 {
				return domain.Selection{}, &ValidationError{
					Field:  fmt.Sprintf("add_ons[%d].unit_price", i),
					Reason: "custom add-on price cannot be negative",
				}
			}
			selection.AddOns = append(selection.AddOns, domain.AddOnSelection{
				Name:        a.Name,
				Description: a.Description,
				UnitPrice:   a.UnitPrice,
				Quantity:    a.Quantity,
				Note:        a.Note,
			})
			continue
		}

		link, ok := links[*a.AddOnID]
		if !ok {
			return domain.Selection{}, &ValidationError{
				Field:  fmt.Sprintf("add_ons[%d].add_on_id", i),
				Reason: "add-on is not offered for this event",
			}
		}
		if seen[*a.AddOnID] {
			return domain.Selection{}, &ValidationError{
				Field:  fmt.Sprintf("add_ons[%d].add_on_id", i),
				Reason: "add-on selected more than once",
			}
		}
		seen[*a.AddOnID] = true

		if link.MaxPerAttendee > 0 && a.Quantity > link.MaxPerAttendee*attendeeCount {
			return domain.Selection{}, &ValidationError{
				Field:  fmt.Sprintf("add_ons[%d].quantity", i),
				Reason: fmt.Sprintf("at most %d per attendee", link.MaxPerAttendee),
			}
		}

		id := link.AddOnID
		selection.AddOns = append(selection.AddOns, domain.AddOnSelection{
			AddOnID:     &id,
			Name:        link.AddOn.Name,
			Description: link.AddOn.Description,
			UnitPrice:   link.AddOn.UnitPrice,
			Quantity:    a.Quantity,
			Note:        a.Note,
		})
	}

	// Required means always included: a missing required add-on is
	// added at quantity 1 rather than rejected.
	for _, link := range event.AddOns {
		if !link.Required || seen[link.AddOnID] {
			continue
		}

		id := link.AddOnID
		selection.AddOns = append(selection.AddOns, domain.AddOnSelection{
			AddOnID:   &id,
			Name:      link.AddOn.Name,
			UnitPrice: link.AddOn.UnitPrice,
			Quantity:  1,
		})
	}

	return selection, nil
}
