package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/repaircoin/repaircoin-api/internal/domain/customer"
)

// Projection is the canonical derived view of a customer's balance. Every
// surface that reports a balance goes through here; no caller may combine
// lifetime earnings with a redemption total from another code path.
type Projection struct {
	AvailableBalance    decimal.Decimal `json:"available_balance"`
	TotalEarned         decimal.Decimal `json:"total_earned"`
	TotalRedeemedNet    decimal.Decimal `json:"total_redeemed_net"`
	TotalMintedToWallet decimal.Decimal `json:"total_minted_to_wallet"`
}

// Projector folds a customer's ledger entries and account counters into a
// Projection. Read-only and re-derivable at any time.
type Projector struct {
	db *sqlx.DB
}

func NewProjector(db *sqlx.DB) *Projector {
	return &Projector{db: db}
}

// Project computes the projection outside any transaction.
func (p *Projector) Project(ctx context.Context, customerID uuid.UUID) (Projection, error) {
	return project(ctx, p.db, customerID)
}

// ProjectTx computes the projection inside a caller-held transaction. The
// redemption executor uses this so its balance re-check runs under the same
// row lock as the spend, through the same formula.
func (p *Projector) ProjectTx(ctx context.Context, tx *sqlx.Tx, customerID uuid.UUID) (Projection, error) {
	return project(ctx, tx, customerID)
}

type counters struct {
	LifetimeEarnings   decimal.Decimal `db:"lifetime_earnings"`
	PendingMintBalance decimal.Decimal `db:"pending_mint_balance"`
}

type aggregates struct {
	Redeemed decimal.Decimal `db:"redeemed"`
	Refunded decimal.Decimal `db:"refunded"`
	Minted   decimal.Decimal `db:"minted"`
}

func project(ctx context.Context, ext sqlx.ExtContext, customerID uuid.UUID) (Projection, error) {
	var acct counters
	err := sqlx.GetContext(ctx, ext, &acct, `
		SELECT lifetime_earnings, pending_mint_balance
		FROM customers
		WHERE id = $1
	`, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Projection{}, customer.ErrNotFound
	}
	if err != nil {
		return Projection{}, err
	}

	var agg aggregates
	err = sqlx.GetContext(ctx, ext, &agg, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind IN ('redeem', 'service_redemption')), 0)            AS redeemed,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'service_redemption_refund'), 0)                  AS refunded,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'mint_to_wallet'
				OR (kind IN ('earn', 'reward', 'referral_bonus', 'tier_bonus')
					AND metadata->>'minted_to_wallet' = 'true')), 0)                                    AS minted
		FROM loyalty_ledger
		WHERE customer_id = $1 AND status = 'completed'
	`, customerID)
	if err != nil {
		return Projection{}, err
	}

	return compute(acct, agg), nil
}

// compute is the one implementation of the balance formula. The fold is a
// sum, so it is independent of entry order.
func compute(acct counters, agg aggregates) Projection {
	redeemedNet := agg.Redeemed.Sub(agg.Refunded)

	available := acct.LifetimeEarnings.
		Sub(redeemedNet).
		Sub(acct.PendingMintBalance).
		Sub(agg.Minted)
	if available.IsNegative() {
		available = decimal.Zero
	}

	return Projection{
		AvailableBalance:    available,
		TotalEarned:         acct.LifetimeEarnings,
		TotalRedeemedNet:    redeemedNet,
		TotalMintedToWallet: agg.Minted,
	}
}
