package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventine/ticketing-api/internal/domain"
	"github.com/eventine/ticketing-api/internal/payment"
	"github.com/eventine/ticketing-api/internal/repository"
)

type fakeCatalog struct {
	events map[uint]domain.Event
}

func (f *fakeCatalog) FindAllEvents(_ context.Context) ([]domain.Event, error) {
	var events []domain.Event
	for _, e := range f.events {
		events = append(events, e)
	}
	return events, nil
}

func (f *fakeCatalog) FindEventByID(_ context.Context, id uint) (domain.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return event, nil
}

type fakeInventory struct {
	mu        sync.Mutex
	available map[uint]int
	total     map[uint]int
	releases  int
}

func (f *fakeInventory) Reserve(_ context.Context, ticketTypeID uint, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.available[ticketTypeID] < qty {
		return repository.ErrInsufficientInventory
	}
	f.available[ticketTypeID] -= qty

	return nil
}

func (f *fakeInventory) Release(_ context.Context, ticketTypeID uint, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.available[ticketTypeID]+qty > f.total[ticketTypeID] {
		return repository.ErrReleaseOverflow
	}
	f.available[ticketTypeID] += qty
	f.releases++

	return nil
}

func (f *fakeInventory) availableOf(ticketTypeID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available[ticketTypeID]
}

// fakeStore backs both the intent and ticket repositories, mirroring
// how ConsumeIssuing writes them together.
type fakeStore struct {
	mu      sync.Mutex
	intents map[string]domain.PurchaseIntent
	tickets map[string][]domain.Ticket
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		intents: make(map[string]domain.PurchaseIntent),
		tickets: make(map[string][]domain.Ticket),
	}
}

func (f *fakeStore) Create(_ context.Context, intent domain.PurchaseIntent) (domain.PurchaseIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.intents[intent.SessionID]; exists {
		return domain.PurchaseIntent{}, repository.ErrDuplicateSession
	}
	f.intents[intent.SessionID] = intent

	return intent, nil
}

func (f *fakeStore) Get(_ context.Context, sessionID string) (domain.PurchaseIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	intent, ok := f.intents[sessionID]
	if !ok {
		return domain.PurchaseIntent{}, repository.ErrIntentNotFound
	}

	return intent, nil
}

func (f *fakeStore) MarkConsumed(_ context.Context, sessionID string, disposition domain.Disposition) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	intent, ok := f.intents[sessionID]
	if !ok || intent.Consumed {
		return false, nil
	}

	intent.Consumed = true
	intent.Disposition = disposition
	f.intents[sessionID] = intent

	return true, nil
}

func (f *fakeStore) ConsumeIssuing(_ context.Context, sessionID, orderID string, tickets []domain.Ticket) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	intent, ok := f.intents[sessionID]
	if !ok || intent.Consumed {
		return false, nil
	}

	intent.Consumed = true
	intent.Disposition = domain.DispositionIssued
	intent.OrderID = orderID
	f.intents[sessionID] = intent
	f.tickets[sessionID] = tickets

	return true, nil
}

func (f *fakeStore) FindExpired(_ context.Context, cutoff time.Time, limit int) ([]domain.PurchaseIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expired []domain.PurchaseIntent
	for _, intent := range f.intents {
		if !intent.Consumed && intent.CreatedAt.Before(cutoff) {
			expired = append(expired, intent)
			if len(expired) == limit {
				break
			}
		}
	}

	return expired, nil
}

func (f *fakeStore) FindBySessionID(_ context.Context, sessionID string) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickets[sessionID], nil
}

func (f *fakeStore) FindByOrderID(_ context.Context, orderID string) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, tickets := range f.tickets {
		if len(tickets) > 0 && tickets[0].OrderID == orderID {
			return tickets, nil
		}
	}

	return nil, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	status    payment.Status
	createErr error
	fixedID   string
	sessions  int
}

func (f *fakeGateway) CreateSession(_ context.Context, _ payment.CreateSessionInput) (payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return payment.Session{}, f.createErr
	}

	f.sessions++
	id := f.fixedID
	if id == "" {
		id = fmt.Sprintf("cs_test_%d", f.sessions)
	}

	return payment.Session{ID: id, RedirectURL: "https://pay.example.com/" + id}, nil
}

func (f *fakeGateway) QueryStatus(_ context.Context, _ string) (payment.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeGateway) setStatus(status payment.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

type fixture struct {
	svc       *PurchaseService
	inventory *fakeInventory
	store     *fakeStore
	gateway   *fakeGateway
}

func newFixture() *fixture {
	catalog := &fakeCatalog{events: map[uint]domain.Event{1: testEvent()}}
	inventory := &fakeInventory{
		available: map[uint]int{10: 100, 11: 20},
		total:     map[uint]int{10: 100, 11: 20},
	}
	store := newFakeStore()
	gateway := &fakeGateway{status: payment.StatusUnknown}

	svc := NewPurchaseService(
		NewSelectionValidator(),
		catalog,
		inventory,
		store,
		store,
		gateway,
		PurchaseConfig{
			Currency:   "eur",
			SuccessURL: "https://shop.example.com/success",
			CancelURL:  "https://shop.example.com/cancel",
			Retention:  30 * time.Minute,
			SweepLimit: 100,
		},
	)

	return &fixture{svc: svc, inventory: inventory, store: store, gateway: gateway}
}

func generalSelection(qty int) RawSelection {
	return RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{{TicketTypeID: 10, Quantity: qty}},
	}
}

func TestCheckout_ReservesInventoryAndPersistsIntent(t *testing.T) {
	f := newFixture()

	result, err := f.svc.Checkout(context.Background(), 7, generalSelection(3))

	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.RedirectURL)
	assert.Equal(t, 97, f.inventory.availableOf(10))

	intent, err := f.store.Get(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, uint(7), intent.BuyerID)
	assert.False(t, intent.Consumed)
	// 3 x 5000 plus the required booking fee.
	assert.Equal(t, int64(15250), intent.Amount)
}

func TestCheckout_UnknownEvent(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Checkout(context.Background(), 7, RawSelection{EventID: 99})

	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCheckout_InvalidSelectionReservesNothing(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Checkout(context.Background(), 7, generalSelection(0))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 100, f.inventory.availableOf(10))
}

func TestCheckout_InsufficientInventoryRollsBackEarlierLines(t *testing.T) {
	f := newFixture()

	raw := RawSelection{
		EventID: 1,
		Tickets: []domain.TicketSelection{
			{TicketTypeID: 10, Quantity: 5},
			{TicketTypeID: 11, Quantity: 21, Attendees: make([]domain.AttendeeDetail, 21)},
		},
	}
	for i := range raw.Tickets[1].Attendees {
		raw.Tickets[1].Attendees[i] = domain.AttendeeDetail{FirstName: "A", LastName: fmt.Sprint(i)}
	}

	_, err := f.svc.Checkout(context.Background(), 7, raw)

	assert.ErrorIs(t, err, ErrInsufficientInventory)
	assert.Equal(t, 100, f.inventory.availableOf(10))
	assert.Equal(t, 20, f.inventory.availableOf(11))
}

func TestCheckout_GatewayFailureReleasesReservation(t *testing.T) {
	f := newFixture()
	f.gateway.createErr = errors.New("gateway is down")

	_, err := f.svc.Checkout(context.Background(), 7, generalSelection(4))

	require.Error(t, err)
	assert.Equal(t, 100, f.inventory.availableOf(10))
}

func TestCheckout_DuplicateSessionReleasesReservation(t *testing.T) {
	f := newFixture()
	f.gateway.fixedID = "cs_test_fixed"

	_, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	_, err = f.svc.Checkout(context.Background(), 7, generalSelection(2))

	assert.ErrorIs(t, err, ErrDuplicateSession)
	assert.Equal(t, 98, f.inventory.availableOf(10))
}

func TestCheckStatus_UnknownSession(t *testing.T) {
	f := newFixture()

	result, err := f.svc.CheckStatus(context.Background(), "cs_test_nope")

	require.NoError(t, err)
	assert.Equal(t, StatusUnknownSession, result.State)
}

func TestCheckStatus_UnknownOutcomeKeepsReservation(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, result.State)
	}

	assert.Equal(t, 98, f.inventory.availableOf(10))
	assert.Equal(t, 0, f.inventory.releases)
}

func TestCheckStatus_PaidIssuesTickets(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	f.gateway.setStatus(payment.StatusPaid)

	result, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)

	require.NoError(t, err)
	assert.Equal(t, StatusIssued, result.State)
	assert.NotEmpty(t, result.OrderID)
	require.Len(t, result.Tickets, 1)
	assert.Equal(t, 2, result.Tickets[0].Quantity)
	assert.Equal(t, int64(10000), result.Tickets[0].TotalPrice)

	// Issuance keeps the reservation; stock stays sold.
	assert.Equal(t, 98, f.inventory.availableOf(10))
}

func TestCheckStatus_PaidIsIdempotent(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	f.gateway.setStatus(payment.StatusPaid)

	first, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)
	require.NoError(t, err)

	second, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)
	require.NoError(t, err)

	assert.Equal(t, StatusIssued, second.State)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Len(t, second.Tickets, len(first.Tickets))
	assert.Equal(t, 98, f.inventory.availableOf(10))
}

func TestCheckStatus_ConcurrentFinalizeIssuesOneOrder(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	f.gateway.setStatus(payment.StatusPaid)

	const callers = 16
	results := make([]StatusResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.CheckStatus(context.Background(), checkout.SessionID)
		}(i)
	}
	wg.Wait()

	orderID := results[0].OrderID
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, StatusIssued, results[i].State)
		assert.Equal(t, orderID, results[i].OrderID)
	}

	tickets, err := f.store.FindByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
	assert.Equal(t, 98, f.inventory.availableOf(10))
}

func TestCheckStatus_UnpaidReleasesOnce(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	f.gateway.setStatus(payment.StatusUnpaid)

	first, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, first.State)

	second, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, second.State)

	assert.Equal(t, 100, f.inventory.availableOf(10))
	assert.Equal(t, 1, f.inventory.releases)
}

func TestCancel_ReleasesReservation(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(3))
	require.NoError(t, err)

	result, err := f.svc.Cancel(context.Background(), checkout.SessionID, 7)

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.State)
	assert.Equal(t, "cancelled", result.Reason)
	assert.Equal(t, 100, f.inventory.availableOf(10))
}

func TestCancel_RejectsForeignBuyer(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(1))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), checkout.SessionID, 8)

	assert.ErrorIs(t, err, ErrNotIntentOwner)
	assert.Equal(t, 99, f.inventory.availableOf(10))
}

func TestCancel_AfterIssueKeepsOutcome(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	f.gateway.setStatus(payment.StatusPaid)
	issued, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)
	require.NoError(t, err)
	require.Equal(t, StatusIssued, issued.State)

	result, err := f.svc.Cancel(context.Background(), checkout.SessionID, 7)

	require.NoError(t, err)
	assert.Equal(t, StatusIssued, result.State)
	assert.Equal(t, issued.OrderID, result.OrderID)
	assert.Equal(t, 98, f.inventory.availableOf(10))
}

func TestSweepExpired_ReleasesStaleIntents(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	// Age the intent past the retention window.
	intent, err := f.store.Get(context.Background(), checkout.SessionID)
	require.NoError(t, err)
	intent.CreatedAt = time.Now().Add(-time.Hour)
	f.store.intents[checkout.SessionID] = intent

	swept, err := f.svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, 100, f.inventory.availableOf(10))

	result, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.State)
	assert.Equal(t, "expired", result.Reason)
}

func TestSweepExpired_LatePaymentStillFinalizes(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	intent, err := f.store.Get(context.Background(), checkout.SessionID)
	require.NoError(t, err)
	intent.CreatedAt = time.Now().Add(-time.Hour)
	f.store.intents[checkout.SessionID] = intent

	f.gateway.setStatus(payment.StatusPaid)

	swept, err := f.svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, 98, f.inventory.availableOf(10))

	result, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, result.State)
}

func TestSweepExpired_LeavesFreshIntentsAlone(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	swept, err := f.svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, swept)
	assert.Equal(t, 98, f.inventory.availableOf(10))
}

func TestGetOrderTickets_ScopedToBuyer(t *testing.T) {
	f := newFixture()

	checkout, err := f.svc.Checkout(context.Background(), 7, generalSelection(2))
	require.NoError(t, err)

	f.gateway.setStatus(payment.StatusPaid)
	issued, err := f.svc.CheckStatus(context.Background(), checkout.SessionID)
	require.NoError(t, err)
	require.Equal(t, StatusIssued, issued.State)

	tickets, err := f.svc.GetOrderTickets(context.Background(), issued.OrderID, 7)
	require.NoError(t, err)
	assert.Len(t, tickets, 1)

	_, err = f.svc.GetOrderTickets(context.Background(), issued.OrderID, 8)
	assert.ErrorIs(t, err, ErrNotIntentOwner)
}

func TestNoOversellUnderConcurrentCheckout(t *testing.T) {
	f := newFixture()

	const buyers = 40
	var succeeded int64
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i uint) {
			defer wg.Done()
			_, err := f.svc.Checkout(context.Background(), i, generalSelection(3))
			if err == nil {
				mu.Lock()
				succeeded += 3
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrInsufficientInventory)
			}
		}(uint(i))
	}
	wg.Wait()

	assert.Equal(t, int64(100-f.inventory.availableOf(10)), succeeded)
	assert.GreaterOrEqual(t, f.inventory.availableOf(10), 0)
}
