package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDuplicateSession = errors.New("purchase intent already exists for session")
	ErrIntentNotFound   = errors.New("purchase intent not found")
)

type PurchaseIntent struct {
	SessionID string `gorm:"primaryKey"`
	BuyerID   uint   `gorm:"not null;index"`
	EventID   uint   `gorm:"not null"`
	// Selection is the validated selection snapshot, serialized by the
	// repository layer. The intent is the authoritative copy; whatever
	// the buyer's client kept across the redirect is just a cache.
	Selection   []byte `gorm:"type:jsonb;not null"`
	Amount      int64  `gorm:"not null"` // cents
	Consumed    bool   `gorm:"not null;default:false"`
	Disposition string `gorm:"not null;default:''"`
	OrderID     string `gorm:"not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PurchaseIntent) TableName() string {
	return "purchase_intents"
}

type IntentDAO struct {
	db *gorm.DB
}

func NewIntentDAO(db *gorm.DB) *IntentDAO {
	return &IntentDAO{
		db: db,
	}
}

func (d *IntentDAO) Insert(ctx context.Context, intent PurchaseIntent) (PurchaseIntent, error) {
	result := d.db.WithContext(ctx).Create(&intent)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return PurchaseIntent{}, ErrDuplicateSession
		}

		return PurchaseIntent{}, result.Error
	}

	return intent, nil
}

func (d *IntentDAO) FindBySessionID(ctx context.Context, sessionID string) (PurchaseIntent, error) {
	var intent PurchaseIntent

	result := d.db.WithContext(ctx).First(&intent, "session_id = ?", sessionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return PurchaseIntent{}, ErrIntentNotFound
		}

		return PurchaseIntent{}, result.Error
	}

	return intent, nil
}

// MarkConsumed flips the intent from unconsumed to consumed with the
// given disposition. It reports whether this call performed the
// transition; false means a concurrent caller won the race. Single
// conditional UPDATE, the linchpin of at-most-once finalization.
func (d *IntentDAO) MarkConsumed(ctx context.Context, sessionID string, disposition string) (bool, error) {
	result := d.db.WithContext(ctx).
		Model(&PurchaseIntent{}).
		Where("session_id = ? AND consumed = false", sessionID).
		Updates(map[string]interface{}{
			"consumed":    true,
			"disposition": disposition,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// ConsumeIssuing consumes the intent and inserts the issued ticket
// batch in one database transaction, so a crash can never leave the
// intent consumed with no tickets (or tickets without a consumed
// intent). Returns false with no writes when another caller already
// consumed the intent.
func (d *IntentDAO) ConsumeIssuing(ctx context.Context, sessionID, orderID string, tickets []Ticket) (bool, error) {
	won := false

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&PurchaseIntent{}).
			Where("session_id = ? AND consumed = false", sessionID).
			Updates(map[string]interface{}{
				"consumed":    true,
				"disposition": "issued",
				"order_id":    orderID,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Create(&tickets).Error; err != nil {
			return err
		}

		won = true

		return nil
	})
	if err != nil {
		return false, err
	}

	return won, nil
}

// FindExpiredUnconsumed returns intents created before the cutoff that
// never reached a terminal state, for the sweep to close out.
func (d *IntentDAO) FindExpiredUnconsumed(ctx context.Context, cutoff time.Time, limit int) ([]PurchaseIntent, error) {
	var intents []PurchaseIntent

	result := d.db.WithContext(ctx).
		Where("consumed = false AND created_at < ?", cutoff).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}).
		Limit(limit).
		Find(&intents)
	if result.Error != nil {
		return nil, result.Error
	}

	return intents, nil
}
