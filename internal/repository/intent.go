package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eventine/ticketing-api/internal/domain"
	"github.com/eventine/ticketing-api/internal/repository/dao"
)

var (
	ErrDuplicateSession = dao.ErrDuplicateSession
	ErrIntentNotFound   = dao.ErrIntentNotFound
)

type IntentDAO interface {
	Insert(ctx context.Context, intent dao.PurchaseIntent) (dao.PurchaseIntent, error)
	FindBySessionID(ctx context.Context, sessionID string) (dao.PurchaseIntent, error)
	MarkConsumed(ctx context.Context, sessionID string, disposition string) (bool, error)
	ConsumeIssuing(ctx context.Context, sessionID, orderID string, tickets []dao.Ticket) (bool, error)
	FindExpiredUnconsumed(ctx context.Context, cutoff time.Time, limit int) ([]dao.PurchaseIntent, error)
}

type IntentRepository struct {
	dao IntentDAO
}

func NewIntentRepository(dao IntentDAO) *IntentRepository {
	return &IntentRepository{
		dao: dao,
	}
}

func (r *IntentRepository) domainToDao(intent domain.PurchaseIntent) (dao.PurchaseIntent, error) {
	selection, err := json.Marshal(intent.Selection)
	if err != nil {
		return dao.PurchaseIntent{}, fmt.Errorf("json.Marshal selection -> %w", err)
	}

	return dao.PurchaseIntent{
		SessionID:   intent.SessionID,
		BuyerID:     intent.BuyerID,
		EventID:     intent.EventID,
		Selection:   selection,
		Amount:      intent.Amount,
		Consumed:    intent.Consumed,
		Disposition: string(intent.Disposition),
		OrderID:     intent.OrderID,
		CreatedAt:   intent.CreatedAt,
	}, nil
}

func (r *IntentRepository) daoToDomain(intent dao.PurchaseIntent) (domain.PurchaseIntent, error) {
	var selection domain.Selection
	if err := json.Unmarshal(intent.Selection, &selection); err != nil {
		return domain.PurchaseIntent{}, fmt.Errorf("json.Unmarshal selection -> %w", err)
	}

	return domain.PurchaseIntent{
		SessionID:   intent.SessionID,
		BuyerID:     intent.BuyerID,
		EventID:     intent.EventID,
		Selection:   selection,
		Amount:      intent.Amount,
		Consumed:    intent.Consumed,
		Disposition: domain.Disposition(intent.Disposition),
		OrderID:     intent.OrderID,
		CreatedAt:   intent.CreatedAt,
	}, nil
}

func (r *IntentRepository) Create(ctx context.Context, intent domain.PurchaseIntent) (domain.PurchaseIntent, error) {
	intentDAO, err := r.domainToDao(intent)
	if err != nil {
		return domain.PurchaseIntent{}, err
	}

	created, err := r.dao.Insert(ctx, intentDAO)
	if err != nil {
		if err == dao.ErrDuplicateSession {
			return domain.PurchaseIntent{}, ErrDuplicateSession
		}

		return domain.PurchaseIntent{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created)
}

func (r *IntentRepository) Get(ctx context.Context, sessionID string) (domain.PurchaseIntent, error) {
	intentDAO, err := r.dao.FindBySessionID(ctx, sessionID)
	if err != nil {
		if err == dao.ErrIntentNotFound {
			return domain.PurchaseIntent{}, ErrIntentNotFound
		}

		return domain.PurchaseIntent{}, fmt.Errorf("r.dao.FindBySessionID -> %w", err)
	}

	return r.daoToDomain(intentDAO)
}

// MarkConsumed atomically transitions the intent to consumed with the
// given disposition, reporting whether this call won the transition.
func (r *IntentRepository) MarkConsumed(ctx context.Context, sessionID string, disposition domain.Disposition) (bool, error) {
	won, err := r.dao.MarkConsumed(ctx, sessionID, string(disposition))
	if err != nil {
		return false, fmt.Errorf("r.dao.MarkConsumed -> %w", err)
	}

	return won, nil
}

// ConsumeIssuing consumes the intent and persists the ticket batch
// atomically. The bool reports whether this call performed issuance.
func (r *IntentRepository) ConsumeIssuing(ctx context.Context, sessionID, orderID string, tickets []domain.Ticket) (bool, error) {
	ticketsDAO := make([]dao.Ticket, len(tickets))
	for i, t := range tickets {
		attendees, err := json.Marshal(t.Attendees)
		if err != nil {
			return false, fmt.Errorf("json.Marshal attendees -> %w", err)
		}

		ticketsDAO[i] = dao.Ticket{
			OrderID:      t.OrderID,
			SessionID:    t.SessionID,
			EventID:      t.EventID,
			TicketTypeID: t.TicketTypeID,
			Quantity:     t.Quantity,
			TotalPrice:   t.TotalPrice,
			Attendees:    attendees,
			IssuedAt:     t.IssuedAt,
		}
	}

	won, err := r.dao.ConsumeIssuing(ctx, sessionID, orderID, ticketsDAO)
	if err != nil {
		return false, fmt.Errorf("r.dao.ConsumeIssuing -> %w", err)
	}

	return won, nil
}

func (r *IntentRepository) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]domain.PurchaseIntent, error) {
	intentsDAO, err := r.dao.FindExpiredUnconsumed(ctx, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindExpiredUnconsumed -> %w", err)
	}

	intents := make([]domain.PurchaseIntent, 0, len(intentsDAO))
	for _, intentDAO := range intentsDAO {
		intent, err := r.daoToDomain(intentDAO)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}

	return intents, nil
}
