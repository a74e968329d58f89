package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventine/ticketing-api/internal/domain"
	"github.com/eventine/ticketing-api/internal/payment"
	"github.com/eventine/ticketing-api/internal/repository"
)

var (
	ErrEventNotFound         = repository.ErrEventNotFound
	ErrInsufficientInventory = repository.ErrInsufficientInventory
	ErrDuplicateSession      = repository.ErrDuplicateSession
	ErrIntentNotFound        = repository.ErrIntentNotFound
	ErrNotIntentOwner        = errors.New("purchase intent belongs to another buyer")
)

type CatalogRepository interface {
	FindAllEvents(ctx context.Context) ([]domain.Event, error)
	FindEventByID(ctx context.Context, id uint) (domain.Event, error)
}

type InventoryRepository interface {
	Reserve(ctx context.Context, ticketTypeID uint, qty int) error
	Release(ctx context.Context, ticketTypeID uint, qty int) error
}

type IntentRepository interface {
	Create(ctx context.Context, intent domain.PurchaseIntent) (domain.PurchaseIntent, error)
	Get(ctx context.Context, sessionID string) (domain.PurchaseIntent, error)
	MarkConsumed(ctx context.Context, sessionID string, disposition domain.Disposition) (bool, error)
	ConsumeIssuing(ctx context.Context, sessionID, orderID string, tickets []domain.Ticket) (bool, error)
	FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]domain.PurchaseIntent, error)
}

type TicketRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) ([]domain.Ticket, error)
	FindByOrderID(ctx context.Context, orderID string) ([]domain.Ticket, error)
}

// PurchaseConfig carries the tunables of the purchase core.
type PurchaseConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	// Retention bounds how long an unconfirmed intent may hold its
	// reservation before the sweep closes it.
	Retention  time.Duration
	SweepLimit int
}

// CheckoutResult is what the buyer's client needs to hand off to the
// gateway.
type CheckoutResult struct {
	SessionID   string
	RedirectURL string
}

type StatusState string

const (
	StatusIssued         StatusState = "issued"
	StatusPending        StatusState = "pending"
	StatusFailed         StatusState = "failed"
	StatusUnknownSession StatusState = "unknown_session"
)

// StatusResult is the reconciler's answer for one session: exactly one
// of the four states, with tickets attached when issued.
type StatusResult struct {
	State   StatusState
	OrderID string
	Tickets []domain.Ticket
	Reason  string
}

// PurchaseService is the purchase and reconciliation core: it reserves
// inventory, hands the buyer to the payment gateway, and converts a
// confirmed payment into issued tickets exactly once.
type PurchaseService struct {
	validator *SelectionValidator
	catalog   CatalogRepository
	inventory InventoryRepository
	intents   IntentRepository
	tickets   TicketRepository
	gateway   payment.Gateway
	conf      PurchaseConfig
}

func NewPurchaseService(
	validator *SelectionValidator,
	catalog CatalogRepository,
	inventory InventoryRepository,
	intents IntentRepository,
	tickets TicketRepository,
	gateway payment.Gateway,
	conf PurchaseConfig,
) *PurchaseService {
	if conf.SweepLimit <= 0 {
		conf.SweepLimit = 100
	}

	return &PurchaseService{
		validator: validator,
		catalog:   catalog,
		inventory: inventory,
		intents:   intents,
		tickets:   tickets,
		gateway:   gateway,
		conf:      conf,
	}
}

// Checkout validates the buyer's selection, reserves inventory, opens a
// gateway checkout session and persists the purchase intent under the
// session id. Any downstream failure puts every reserved unit back.
func (s *PurchaseService) Checkout(ctx context.Context, buyerID uint, raw RawSelection) (CheckoutResult, error) {
	event, err := s.catalog.FindEventByID(ctx, raw.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return CheckoutResult{}, ErrEventNotFound
		}

		return CheckoutResult{}, fmt.Errorf("s.catalog.FindEventByID -> %w", err)
	}

	selection, err := s.validator.Validate(event, raw)
	if err != nil {
		return CheckoutResult{}, err
	}

	// Soft reservation: stock comes off sale now so concurrent buyers
	// cannot oversell during the payment round-trip. The reservation
	// is the commit; issuance never touches inventory again.
	var reserved []domain.TicketSelection
	for _, line := range selection.Tickets {
		if err := s.inventory.Reserve(ctx, line.TicketTypeID, line.Quantity); err != nil {
			s.releaseLines(ctx, reserved)
			if errors.Is(err, repository.ErrInsufficientInventory) {
				return CheckoutResult{}, ErrInsufficientInventory
			}

			return CheckoutResult{}, fmt.Errorf("s.inventory.Reserve -> %w", err)
		}
		reserved = append(reserved, line)
	}

	amount := selection.TotalAmount()

	session, err := s.gateway.CreateSession(ctx, payment.CreateSessionInput{
		Amount:      amount,
		Currency:    s.conf.Currency,
		Description: fmt.Sprintf("%s: %d ticket(s)", event.Name, selection.TicketQuantity()),
		SuccessURL:  s.conf.SuccessURL,
		CancelURL:   s.conf.CancelURL,
	})
	if err != nil {
		s.releaseLines(ctx, reserved)
		return CheckoutResult{}, fmt.Errorf("s.gateway.CreateSession -> %w", err)
	}

	intent := domain.PurchaseIntent{
		SessionID: session.ID,
		BuyerID:   buyerID,
		EventID:   event.ID,
		Selection: selection,
		Amount:    amount,
		CreatedAt: time.Now(),
	}

	if _, err := s.intents.Create(ctx, intent); err != nil {
		s.releaseLines(ctx, reserved)
		if errors.Is(err, repository.ErrDuplicateSession) {
			return CheckoutResult{}, ErrDuplicateSession
		}

		return CheckoutResult{}, fmt.Errorf("s.intents.Create -> %w", err)
	}

	return CheckoutResult{
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
	}, nil
}

// CheckStatus is the reconciliation entry point: invoked when the buyer
// returns from the gateway, when their client polls, and by the sweep.
// Safe to call any number of times for the same session.
func (s *PurchaseService) CheckStatus(ctx context.Context, sessionID string) (StatusResult, error) {
	intent, err := s.intents.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrIntentNotFound) {
			// Not an error: a stale or foreign link, or a session that
			// never started a purchase here.
			return StatusResult{State: StatusUnknownSession}, nil
		}

		return StatusResult{}, fmt.Errorf("s.intents.Get -> %w", err)
	}

	if intent.Consumed {
		return s.consumedResult(ctx, intent)
	}

	status, err := s.gateway.QueryStatus(ctx, sessionID)
	if err != nil {
		return StatusResult{}, fmt.Errorf("s.gateway.QueryStatus -> %w", err)
	}

	switch status {
	case payment.StatusPaid:
		return s.finalize(ctx, intent)
	case payment.StatusUnpaid:
		if err := s.close(ctx, intent, domain.DispositionFailed); err != nil {
			return StatusResult{}, err
		}
		return StatusResult{State: StatusFailed, Reason: "payment failed"}, nil
	default:
		// StatusUnknown: no transition. The caller polls again later.
		return StatusResult{State: StatusPending}, nil
	}
}

// Cancel releases the reservation eagerly on the buyer's request.
func (s *PurchaseService) Cancel(ctx context.Context, sessionID string, buyerID uint) (StatusResult, error) {
	intent, err := s.intents.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrIntentNotFound) {
			return StatusResult{State: StatusUnknownSession}, nil
		}

		return StatusResult{}, fmt.Errorf("s.intents.Get -> %w", err)
	}

	if intent.BuyerID != buyerID {
		return StatusResult{}, ErrNotIntentOwner
	}

	if intent.Consumed {
		return s.consumedResult(ctx, intent)
	}

	if err := s.close(ctx, intent, domain.DispositionCancelled); err != nil {
		return StatusResult{}, err
	}

	return StatusResult{State: StatusFailed, Reason: "cancelled"}, nil
}

// SweepExpired closes out intents that never reached a terminal state
// within the retention window: a late payment confirmation still
// finalizes, everything else is released with an expired disposition.
// Returns how many intents were closed.
func (s *PurchaseService) SweepExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.conf.Retention)

	intents, err := s.intents.FindExpired(ctx, cutoff, s.conf.SweepLimit)
	if err != nil {
		return 0, fmt.Errorf("s.intents.FindExpired -> %w", err)
	}

	swept := 0
	for _, intent := range intents {
		status, err := s.gateway.QueryStatus(ctx, intent.SessionID)
		if err != nil {
			return swept, fmt.Errorf("s.gateway.QueryStatus -> %w", err)
		}

		if status == payment.StatusPaid {
			if _, err := s.finalize(ctx, intent); err != nil {
				zap.L().Error("sweep: finalize failed",
					zap.String("session_id", intent.SessionID),
					zap.Error(err))
				continue
			}
			swept++
			continue
		}

		// Unpaid or still unknown: the retention window has passed, so
		// the reservation goes back on sale either way.
		disposition := domain.DispositionExpired
		if status == payment.StatusUnpaid {
			disposition = domain.DispositionFailed
		}

		if err := s.close(ctx, intent, disposition); err != nil {
			zap.L().Error("sweep: close failed",
				zap.String("session_id", intent.SessionID),
				zap.Error(err))
			continue
		}
		swept++
	}

	return swept, nil
}

// finalize converts a confirmed payment into issued tickets, exactly
// once per session. The losing side of a concurrent race returns the
// winner's tickets instead of creating duplicates.
func (s *PurchaseService) finalize(ctx context.Context, intent domain.PurchaseIntent) (StatusResult, error) {
	orderID := uuid.NewString()
	now := time.Now()

	tickets := make([]domain.Ticket, 0, len(intent.Selection.Tickets))
	for _, line := range intent.Selection.Tickets {
		tickets = append(tickets, domain.Ticket{
			OrderID:      orderID,
			SessionID:    intent.SessionID,
			EventID:      intent.EventID,
			TicketTypeID: line.TicketTypeID,
			Quantity:     line.Quantity,
			TotalPrice:   line.UnitPrice * int64(line.Quantity),
			Attendees:    line.Attendees,
			IssuedAt:     now,
		})
	}

	won, err := s.intents.ConsumeIssuing(ctx, intent.SessionID, orderID, tickets)
	if err != nil {
		return StatusResult{}, fmt.Errorf("s.intents.ConsumeIssuing -> %w", err)
	}

	if !won {
		// Someone else consumed the intent. Report whatever terminal
		// state they reached.
		consumed, err := s.intents.Get(ctx, intent.SessionID)
		if err != nil {
			return StatusResult{}, fmt.Errorf("s.intents.Get -> %w", err)
		}
		return s.consumedResult(ctx, consumed)
	}

	return StatusResult{
		State:   StatusIssued,
		OrderID: orderID,
		Tickets: tickets,
	}, nil
}

// close consumes the intent with a non-issued disposition and releases
// its reservation. The consumed flag is the serialization point:
// inventory is released only by the caller that actually flipped it, so
// racing closers cannot double-release.
func (s *PurchaseService) close(ctx context.Context, intent domain.PurchaseIntent, disposition domain.Disposition) error {
	won, err := s.intents.MarkConsumed(ctx, intent.SessionID, disposition)
	if err != nil {
		return fmt.Errorf("s.intents.MarkConsumed -> %w", err)
	}

	if won {
		s.releaseLines(ctx, intent.Selection.Tickets)
	}

	return nil
}

func (s *PurchaseService) consumedResult(ctx context.Context, intent domain.PurchaseIntent) (StatusResult, error) {
	switch intent.Disposition {
	case domain.DispositionIssued:
		tickets, err := s.tickets.FindBySessionID(ctx, intent.SessionID)
		if err != nil {
			return StatusResult{}, fmt.Errorf("s.tickets.FindBySessionID -> %w", err)
		}
		return StatusResult{
			State:   StatusIssued,
			OrderID: intent.OrderID,
			Tickets: tickets,
		}, nil
	case domain.DispositionCancelled:
		return StatusResult{State: StatusFailed, Reason: "cancelled"}, nil
	case domain.DispositionExpired:
		return StatusResult{State: StatusFailed, Reason: "expired"}, nil
	default:
		return StatusResult{State: StatusFailed, Reason: "payment failed"}, nil
	}
}

func (s *PurchaseService) releaseLines(ctx context.Context, lines []domain.TicketSelection) {
	for _, line := range lines {
		if err := s.inventory.Release(ctx, line.TicketTypeID, line.Quantity); err != nil {
			zap.L().Error("inventory release failed",
				zap.Uint("ticket_type_id", line.TicketTypeID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err))
		}
	}
}

// GetOrderTickets returns the issued tickets of one order, scoped to
// the buyer that placed it.
func (s *PurchaseService) GetOrderTickets(ctx context.Context, orderID string, buyerID uint) ([]domain.Ticket, error) {
	tickets, err := s.tickets.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("s.tickets.FindByOrderID -> %w", err)
	}

	if len(tickets) == 0 {
		return []domain.Ticket{}, nil
	}

	intent, err := s.intents.Get(ctx, tickets[0].SessionID)
	if err != nil {
		return nil, fmt.Errorf("s.intents.Get -> %w", err)
	}
	if intent.BuyerID != buyerID {
		return nil, ErrNotIntentOwner
	}

	return tickets, nil
}

// GetEvents exposes the read-only catalog so a client can build a
// selection.
func (s *PurchaseService) GetEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.catalog.FindAllEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.catalog.FindAllEvents -> %w", err)
	}

	return events, nil
}

func (s *PurchaseService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.catalog.FindEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Event{}, ErrEventNotFound
		}

		return domain.Event{}, fmt.Errorf("s.catalog.FindEventByID -> %w", err)
	}

	return event, nil
}
