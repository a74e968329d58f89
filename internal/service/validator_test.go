package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventine/ticketing-api/internal/domain"
)

func testEvent() domain.Event {
	return domain.Event{
		ID:   1,
		Name: "Summer Festival",
		TicketTypes: []domain.TicketType{
			{ID: 10, EventID: 1, Name: "General", UnitPrice: 5000, Total: 100, Available: 100, OnSale: true},
			{ID: 11, EventID: 1, Name: "VIP", UnitPrice: 15000, Total: 20, Available: 20, OnSale: true, RequiresAttendees: true},
			{ID: 12, EventID: 1, Name: "Early Bird", UnitPrice: 3000, Total: 50, Available: 0, OnSale: false},
		},
		AddOns: []domain.EventAddOn{
			{
				EventID: 1, AddOnID: 20, Required: false, MaxPerAttendee: 2,
				AddOn: domain.AddOn{ID: 20, Name: "Parking", UnitPrice: 1000},
			},
			{
				EventID: 1, AddOnID: 21, Required: true,
				AddOn: domain.AddOn{ID: 21, Name: "Booking Fee", UnitPrice: 250},
			},
		},
	}
}

func TestValidate_SnapshotsCatalogPrices(t *testing.T) {
	v := NewSelectionValidator()

	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{
			{TicketTypeID: 10, Quantity: 2},
		},
	}

	selection, err := v.Validate(testEvent(), raw)

	require.NoError(t, err)
	require.Len(t, selection.Tickets, 1)
	assert.Equal(t, int64(5000), selection.Tickets[0].UnitPrice)
}

func TestValidate_RejectsWrongEvent(t *testing.T) {
	v := NewSelectionValidator()

	_, err := v.Validate(testEvent(), RawSelection{EventID: 99})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "event_id", vErr.Field)
}

func TestValidate_RejectsEmptySelection(t *testing.T) {
	v := NewSelectionValidator()

	_, err := v.Validate(testEvent(), RawSelection{EventID: 1})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "tickets", vErr.Field)
}

func TestValidate_RejectsForeignTicketType(t *testing.T) {
	v := NewSelectionValidator()

	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{{TicketTypeID: 999, Quantity: 1}},
	}

	_, err := v.Validate(testEvent(), raw)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "tickets[0].ticket_type_id", vErr.Field)
}

func TestValidate_RejectsOffSaleTicketType(t *testing.T) {
	v := NewSelectionValidator()

	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{{TicketTypeID: 12, Quantity: 1}},
	}

	_, err := v.Validate(testEvent(), raw)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "not on sale")
}

func TestValidate_RejectsZeroQuantity(t *testing.T) {
	v := NewSelectionValidator()

	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{{TicketTypeID: 10, Quantity: 0}},
	}

	_, err := v.Validate(testEvent(), raw)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "tickets[0].quantity", vErr.Field)
}

func TestValidate_RequiresAttendeesToMatchQuantity(t *testing.T) {
	v := NewSelectionValidator()

	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{
			{
				TicketTypeID: 11,
				Quantity:     2,
				Attendees:    []domain.AttendeeDetail{{FirstName: "Ada", LastName: "Lovelace"}},
			},
		},
	}

	_, err := v.Validate(testEvent(), raw)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "tickets[0].attendees", vErr.Field)

	raw.Tickets[0].Attendees = append(raw.Tickets[0].Attendees, domain.AttendeeDetail{FirstName: "Grace", LastName: "Hopper"})
	_, err = v.Validate(testEvent(), raw)
	assert.NoError(t, err)
}

func TestValidate_CustomAddOnNeedsNameAndPrice(t *testing.T) {
	v := NewSelectionValidator()

	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{{TicketTypeID: 10, Quantity: 1}},
		AddOns:  []RawAddOnSelection{{Quantity: 1}},
	}

	_, err := v.Validate(testEvent(), raw)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "add_ons[0].name", vErr.Field)

	raw.AddOns[0].Name = "Gift Wrap"
	raw.AddOns[0].UnitPrice = -1
	_, err = v.Validate(testEvent(), raw)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "add_ons[0].unit_price", vErr.Field)

	raw.AddOns[0].UnitPrice = 500
	selection, err := v.Validate(testEvent(), raw)
	require.NoError(t, err)

	var custom *domain.AddOnSelection
	for i := range selection.AddOns {
		if selection.AddOns[i].Name == "Gift Wrap" {
			custom = &selection.AddOns[i]
		}
	}
	require.NotNil(t, custom)
	assert.Nil(t, custom.AddOnID)
}

func TestValidate_RejectsUnknownCatalogAddOn(t *testing.T) {
	v := NewSelectionValidator()

	unknownID := uint(999)
	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{{TicketTypeID: 10, Quantity: 1}},
		AddOns:  []RawAddOnSelection{{AddOnID: &unknownID, Quantity: 1}},
	}

	_, err := v.Validate(testEvent(), raw)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "not offered")
}

func TestValidate_RejectsDuplicateCatalogAddOn(t *testing.T) {
	v := NewSelectionValidator()

	parkingID := uint(20)
	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{{TicketTypeID: 10, Quantity: 1}},
		AddOns: []RawAddOnSelection{
			{AddOnID: &parkingID, Quantity: 1},
			{AddOnID: &parkingID, Quantity: 1},
		},
	}

	_, err := v.Validate(testEvent(), raw)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "more than once")
}

func TestValidate_EnforcesMaxPerAttendee(t *testing.T) {
	v := NewSelectionValidator()

	parkingID := uint(20)
	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{{TicketTypeID: 10, Quantity: 2}},
		AddOns:  []RawAddOnSelection{{AddOnID: &parkingID, Quantity: 5}},
	}

	// 2 attendees x max 2 = 4, so 5 is over.
	_, err := v.Validate(testEvent(), raw)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "add_ons[0].quantity", vErr.Field)

	raw.AddOns[0].Quantity = 4
	_, err = v.Validate(testEvent(), raw)
	assert.NoError(t, err)
}

func TestValidate_SynthesizesRequiredAddOns(t *testing.T) {
	v := NewSelectionValidator()

	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{{TicketTypeID: 10, Quantity: 1}},
	}

	selection, err := v.Validate(testEvent(), raw)

	require.NoError(t, err)
	require.Len(t, selection.AddOns, 1)
	assert.Equal(t, "Booking Fee", selection.AddOns[0].Name)
	assert.Equal(t, 1, selection.AddOns[0].Quantity)

	// 1 ticket at 5000 plus the required fee at 250.
	assert.Equal(t, int64(5250), selection.TotalAmount())
}
