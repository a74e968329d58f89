package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/eventine/ticketing-api/internal/domain"
	"github.com/eventine/ticketing-api/internal/service"
)

type AttendeeDetail struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

func (a AttendeeDetail) Validate() error {
	return validation.ValidateStruct(
		&a,
		validation.Field(&a.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&a.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&a.Email, is.Email),
	)
}

type TicketSelection struct {
	TicketTypeID uint             `json:"ticket_type_id"`
	Quantity     int              `json:"quantity"`
	Attendees    []AttendeeDetail `json:"attendees,omitempty"`
}

func (t TicketSelection) Validate() error {
	return validation.ValidateStruct(
		&t,
		validation.Field(&t.TicketTypeID, validation.Required),
		validation.Field(&t.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&t.Attendees),
	)
}

// AddOnSelection references a catalog add-on by id, or describes a
// custom one inline when add_on_id is absent.
type AddOnSelection struct {
	AddOnID     *uint  `json:"add_on_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	UnitPrice   int64  `json:"unit_price,omitempty"`
	Quantity    int    `json:"quantity"`
	Note        string `json:"note,omitempty"`
}

func (a AddOnSelection) Validate() error {
	return validation.ValidateStruct(
		&a,
		validation.Field(&a.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&a.Name, validation.Length(0, 100)),
		validation.Field(&a.Description, validation.Length(0, 500)),
		validation.Field(&a.Note, validation.Length(0, 500)),
	)
}

type CreatePurchaseIntentRequest struct {
	EventID uint              `json:"event_id"`
	Tickets []TicketSelection `json:"tickets"`
	AddOns  []AddOnSelection  `json:"add_ons,omitempty"`
}

func (req *CreatePurchaseIntentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.Tickets, validation.Required),
		validation.Field(&req.AddOns),
	)
}

// ToRawSelection maps the wire shape onto the service-level selection.
// Catalog membership, sale state and pricing are checked downstream.
func (req *CreatePurchaseIntentRequest) ToRawSelection() service.RawSelection {
	raw := service.RawSelection{EventID: req.EventID}

	for _, t := range req.Tickets {
		attendees := make([]domain.AttendeeDetail, 0, len(t.Attendees))
		for _, a := range t.Attendees {
			attendees = append(attendees, domain.AttendeeDetail{
				FirstName: a.FirstName,
				LastName:  a.LastName,
				Email:     a.Email,
			})
		}
		raw.Tickets = append(raw.Tickets, domain.TicketSelection{
			TicketTypeID: t.TicketTypeID,
			Quantity:     t.Quantity,
			Attendees:    attendees,
		})
	}

	for _, a := range req.AddOns {
		raw.AddOns = append(raw.AddOns, service.RawAddOnSelection{
			AddOnID:     a.AddOnID,
			Name:        a.Name,
			Description: a.Description,
			UnitPrice:   a.UnitPrice,
			Quantity:    a.Quantity,
			Note:        a.Note,
		})
	}

	return raw
}
