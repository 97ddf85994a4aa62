package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind defines the supported ledger entry kinds. The sign of an entry is
// implied by its kind; amounts are always stored non-negative.
type Kind string

const (
	KindEarn                    Kind = "earn"
	KindReward                  Kind = "reward"
	KindReferralBonus           Kind = "referral_bonus"
	KindTierBonus               Kind = "tier_bonus"
	KindRedeem                  Kind = "redeem"
	KindServiceRedemption       Kind = "service_redemption"
	KindServiceRedemptionRefund Kind = "service_redemption_refund"
	KindMintToWallet            Kind = "mint_to_wallet"
	KindTransferIn              Kind = "transfer_in"
	KindTransferOut             Kind = "transfer_out"
)

// IsEarnClass reports whether the kind increments lifetime earnings.
func (k Kind) IsEarnClass() bool {
	switch k {
	case KindEarn, KindReward, KindReferralBonus, KindTierBonus:
		return true
	}
	return false
}

// IsRedemption reports whether the kind spends from the available balance.
func (k Kind) IsRedemption() bool {
	return k == KindRedeem || k == KindServiceRedemption
}

// Status of a ledger entry. Entries are written only once final, so the
// only value is completed; the column exists for audit tooling parity.
type Status string

const StatusCompleted Status = "completed"

// Metadata is the kind-specific payload stored as JSONB.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("ledger: metadata scan source is not []byte")
	}
	return json.Unmarshal(b, m)
}

// Entry is an immutable ledger row. SessionID and RefundOf are promoted out
// of metadata into typed columns because they back the redemption
// idempotency key and the refund-bound check respectively. Reference is the
// caller-supplied idempotency key for earn and mint writes.
type Entry struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	CustomerID uuid.UUID       `db:"customer_id" json:"customer_id"`
	ShopID     *uuid.UUID      `db:"shop_id" json:"shop_id,omitempty"`
	Kind       Kind            `db:"kind" json:"kind"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Status     Status          `db:"status" json:"status"`
	SessionID  *uuid.UUID      `db:"session_id" json:"session_id,omitempty"`
	RefundOf   *uuid.UUID      `db:"refund_of" json:"refund_of,omitempty"`
	Reference  *string         `db:"reference" json:"reference,omitempty"`
	Metadata   Metadata        `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
