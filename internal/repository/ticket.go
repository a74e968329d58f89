package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eventine/ticketing-api/internal/domain"
	"github.com/eventine/ticketing-api/internal/repository/dao"
)

type TicketDAO interface {
	FindBySessionID(ctx context.Context, sessionID string) ([]dao.Ticket, error)
	FindByOrderID(ctx context.Context, orderID string) ([]dao.Ticket, error)
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) daoToDomain(t dao.Ticket) (domain.Ticket, error) {
	var attendees []domain.AttendeeDetail
	if len(t.Attendees) > 0 {
		if err := json.Unmarshal(t.Attendees, &attendees); err != nil {
			return domain.Ticket{}, fmt.Errorf("json.Unmarshal attendees -> %w", err)
		}
	}

	return domain.Ticket{
		ID:           t.ID,
		OrderID:      t.OrderID,
		SessionID:    t.SessionID,
		EventID:      t.EventID,
		TicketTypeID: t.TicketTypeID,
		Quantity:     t.Quantity,
		TotalPrice:   t.TotalPrice,
		Attendees:    attendees,
		IssuedAt:     t.IssuedAt,
	}, nil
}

func (r *TicketRepository) daosToDomain(ticketsDAO []dao.Ticket) ([]domain.Ticket, error) {
	tickets := make([]domain.Ticket, len(ticketsDAO))
	for i, t := range ticketsDAO {
		ticket, err := r.daoToDomain(t)
		if err != nil {
			return nil, err
		}
		tickets[i] = ticket
	}

	return tickets, nil
}

func (r *TicketRepository) FindBySessionID(ctx context.Context, sessionID string) ([]domain.Ticket, error) {
	ticketsDAO, err := r.dao.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindBySessionID -> %w", err)
	}

	return r.daosToDomain(ticketsDAO)
}

func (r *TicketRepository) FindByOrderID(ctx context.Context, orderID string) ([]domain.Ticket, error) {
	ticketsDAO, err := r.dao.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByOrderID -> %w", err)
	}

	return r.daosToDomain(ticketsDAO)
}
