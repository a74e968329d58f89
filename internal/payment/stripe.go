package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway on Stripe Checkout sessions.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway client with an explicit request
// timeout. A timed-out status query surfaces as StatusUnknown.
func NewStripeGateway(secretKey string, timeout time.Duration) *StripeGateway {
	config := &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: timeout},
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, config),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, config),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, config),
	}

	return &StripeGateway{
		api: client.New(secretKey, backends),
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, in CreateSessionInput) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(in.Currency),
					UnitAmount: stripe.Int64(in.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe checkout session create -> %w", err)
	}

	return Session{
		ID:          session.ID,
		RedirectURL: session.URL,
	}, nil
}

func (g *StripeGateway) QueryStatus(ctx context.Context, sessionID string) (Status, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		// Transport failures, timeouts and gateway errors are all
		// non-terminal; the one thing this must not do is report
		// unpaid on a question that was never answered.
		zap.L().Warn("stripe status query failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return StatusUnknown, nil
	}

	switch session.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid,
		stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return StatusPaid, nil
	case stripe.CheckoutSessionPaymentStatusUnpaid:
		// Unpaid only becomes terminal once the session itself is
		// done; an open session just has not been paid yet.
		if session.Status == stripe.CheckoutSessionStatusExpired {
			return StatusUnpaid, nil
		}
		return StatusUnknown, nil
	default:
		return StatusUnknown, nil
	}
}
