package domain

import "time"

// Disposition records how a consumed purchase intent ended.
type Disposition string

const (
	DispositionIssued    Disposition = "issued"
	DispositionFailed    Disposition = "failed"
	DispositionExpired   Disposition = "expired"
	DispositionCancelled Disposition = "cancelled"
)

// PurchaseIntent is the durable record of a buyer's selection, keyed by
// the gateway checkout session it was handed to. It is written once
// before the buyer is redirected, read while they are at the gateway,
// and consumed exactly once when the purchase reaches a terminal state.
type PurchaseIntent struct {
	SessionID   string      `json:"session_id"`
	BuyerID     uint        `json:"buyer_id"`
	EventID     uint        `json:"event_id"`
	Selection   Selection   `json:"selection"`
	Amount      int64       `json:"amount"` // cents
	Consumed    bool        `json:"consumed"`
	Disposition Disposition `json:"disposition,omitempty"`
	OrderID     string      `json:"order_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
