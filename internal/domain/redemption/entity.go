package redemption

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a redemption session. Sessions are created pending, reach
// exactly one of approved/rejected/expired, and only approved sessions can
// become used. Illegal transitions fail loudly; a silent no-op on a used
// session is how a double spend would slip through.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
	StatusUsed     Status = "used"
)

// Session is a time-boxed request for a customer to authorize a shop to
// deduct points.
type Session struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	CustomerID    uuid.UUID       `db:"customer_id" json:"customer_id"`
	ShopID        uuid.UUID       `db:"shop_id" json:"shop_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Status        Status          `db:"status" json:"status"`
	QRNonce       string          `db:"qr_nonce" json:"-"`
	LedgerEntryID *uuid.UUID      `db:"ledger_entry_id" json:"ledger_entry_id,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	ExpiresAt     time.Time       `db:"expires_at" json:"expires_at"`
	ResolvedAt    *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
	UsedAt        *time.Time      `db:"used_at" json:"used_at,omitempty"`
}

// ExpiredBy reports whether a still-pending session has passed its window.
func (s *Session) ExpiredBy(now time.Time) bool {
	return s.Status == StatusPending && now.After(s.ExpiresAt)
}
