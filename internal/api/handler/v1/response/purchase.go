package response

import "github.com/eventine/ticketing-api/internal/domain"

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// PurchaseStatusResponse carries exactly one of the four reconciliation
// outcomes. Pending and unknown-session are soft results; the client
// decides whether to poll again or give up.
type PurchaseStatusResponse struct {
	Issued         []domain.Ticket `json:"issued,omitempty"`
	OrderID        string          `json:"order_id,omitempty"`
	Pending        bool            `json:"pending,omitempty"`
	Failed         string          `json:"failed,omitempty"`
	UnknownSession bool            `json:"unknown_session,omitempty"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}
