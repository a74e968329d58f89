package repository

import (
	"context"
	"fmt"

	"github.com/eventine/ticketing-api/internal/domain"
	"github.com/eventine/ticketing-api/internal/repository/dao"
)

var (
	ErrEventNotFound      = dao.ErrEventNotFound
	ErrTicketTypeNotFound = dao.ErrTicketTypeNotFound
)

type CatalogDAO interface {
	FindAll(ctx context.Context) ([]dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindTicketType(ctx context.Context, id uint) (dao.TicketType, error)
}

// CatalogRepository serves read-only event/ticket-type/add-on data.
// Catalog maintenance happens outside this service.
type CatalogRepository struct {
	dao CatalogDAO
}

func NewCatalogRepository(dao CatalogDAO) *CatalogRepository {
	return &CatalogRepository{
		dao: dao,
	}
}

func (r *CatalogRepository) eventDaoToDomain(e dao.Event) domain.Event {
	event := domain.Event{
		ID:          e.ID,
		Name:        e.Name,
		Date:        e.Date,
		Venue:       e.Venue,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}

	for _, tt := range e.TicketTypes {
		event.TicketTypes = append(event.TicketTypes, r.ticketTypeDaoToDomain(tt))
	}
	for _, link := range e.AddOns {
		event.AddOns = append(event.AddOns, domain.EventAddOn{
			EventID: link.EventID,
			AddOnID: link.AddOnID,
			AddOn: domain.AddOn{
				ID:          link.AddOn.ID,
				Name:        link.AddOn.Name,
				Description: link.AddOn.Description,
				UnitPrice:   link.AddOn.UnitPrice,
			},
			Required:       link.Required,
			MaxPerAttendee: link.MaxPerAttendee,
		})
	}

	return event
}

func (r *CatalogRepository) ticketTypeDaoToDomain(tt dao.TicketType) domain.TicketType {
	return domain.TicketType{
		ID:                tt.ID,
		EventID:           tt.EventID,
		Name:              tt.Name,
		UnitPrice:         tt.UnitPrice,
		Total:             tt.Total,
		Available:         tt.Available,
		OnSale:            tt.OnSale,
		RequiresAttendees: tt.RequiresAttendees,
	}
}

func (r *CatalogRepository) FindAllEvents(ctx context.Context) ([]domain.Event, error) {
	eventsDAO, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	events := make([]domain.Event, len(eventsDAO))
	for i, e := range eventsDAO {
		events[i] = r.eventDaoToDomain(e)
	}

	return events, nil
}

func (r *CatalogRepository) FindEventByID(ctx context.Context, id uint) (domain.Event, error) {
	event, err := r.dao.FindByID(ctx, id)
	if err != nil {
		if err == dao.ErrEventNotFound {
			return domain.Event{}, ErrEventNotFound
		}

		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.eventDaoToDomain(event), nil
}

func (r *CatalogRepository) FindTicketType(ctx context.Context, id uint) (domain.TicketType, error) {
	tt, err := r.dao.FindTicketType(ctx, id)
	if err != nil {
		if err == dao.ErrTicketTypeNotFound {
			return domain.TicketType{}, ErrTicketTypeNotFound
		}

		return domain.TicketType{}, fmt.Errorf("r.dao.FindTicketType -> %w", err)
	}

	return r.ticketTypeDaoToDomain(tt), nil
}
