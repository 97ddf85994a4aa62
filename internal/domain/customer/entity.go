package customer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tier represents the loyalty tier derived from lifetime earnings.
// Tiers only move up: lifetime_earnings is monotonic, so a recompute can
// never demote a customer.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

var (
	silverThreshold = decimal.NewFromInt(200)
	goldThreshold   = decimal.NewFromInt(1000)
)

// TierFor derives the loyalty tier from lifetime earnings.
func TierFor(lifetimeEarnings decimal.Decimal) Tier {
	switch {
	case lifetimeEarnings.GreaterThanOrEqual(goldThreshold):
		return TierGold
	case lifetimeEarnings.GreaterThanOrEqual(silverThreshold):
		return TierSilver
	default:
		return TierBronze
	}
}

// Bonus returns the RCN awarded on top of each service earn for this tier.
func (t Tier) Bonus() decimal.Decimal {
	switch t {
	case TierGold:
		return decimal.NewFromInt(5)
	case TierSilver:
		return decimal.NewFromInt(2)
	default:
		return decimal.Zero
	}
}

// Customer holds the account counters the balance projector folds together
// with the ledger. AvailableBalance is never stored here.
type Customer struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	Email              string          `db:"email" json:"email"`
	FCMToken           *string         `db:"fcm_token" json:"-"`
	LifetimeEarnings   decimal.Decimal `db:"lifetime_earnings" json:"lifetime_earnings"`
	PendingMintBalance decimal.Decimal `db:"pending_mint_balance" json:"pending_mint_balance"`
	Tier               Tier            `db:"tier" json:"tier"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}
