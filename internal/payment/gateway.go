package payment

import "context"

// Status is the settlement state of a checkout session as reported by
// the gateway.
type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
	// StatusUnknown means the gateway could not be asked or did not
	// answer sensibly (timeout, outage, malformed response). It is
	// non-terminal and must never be read as StatusUnpaid; callers
	// retry later.
	StatusUnknown Status = "unknown"
)

type Session struct {
	ID          string
	RedirectURL string
}

type CreateSessionInput struct {
	Amount      int64 // cents
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
}

// Gateway is the contract the purchase core requires from the external
// payment provider. Implementations carry no business logic; retry and
// backoff policy on StatusUnknown belong to the caller.
type Gateway interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (Session, error)
	QueryStatus(ctx context.Context, sessionID string) (Status, error)
}
