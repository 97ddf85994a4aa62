package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/repaircoin/repaircoin-api/internal/domain/customer"
)

const entryColumns = `id, customer_id, shop_id, kind, amount, status, session_id, refund_of, reference, metadata, created_at`

// Repository owns all writes to the loyalty ledger and the customer
// counters the projector folds with it. Counter updates never happen
// outside a transaction that also appends the matching entry.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// EarnParams describes an earn-class append.
type EarnParams struct {
	CustomerID uuid.UUID
	ShopID     uuid.UUID
	Kind       Kind
	Amount     decimal.Decimal
	Reference  string
	Metadata   Metadata
}

// RecordEarn appends an earn-class entry, bumps lifetime earnings, awards a
// tier bonus on service earns, and recomputes the loyalty tier. Retrying
// with the same reference returns the committed entry without re-applying
// counters.
func (r *Repository) RecordEarn(ctx context.Context, p EarnParams) ([]Entry, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lifetime, err := lockCustomerEarnings(ctx, tx, p.CustomerID)
	if err != nil {
		return nil, err
	}

	if p.Reference != "" {
		existing, found, err := r.getByReference(ctx, tx, p.CustomerID, p.Kind, p.Reference)
		if err != nil {
			return nil, err
		}
		if found {
			if !existing.Amount.Equal(p.Amount) {
				return nil, ErrDuplicateReference
			}
			return []Entry{*existing}, nil
		}
	}

	shopID := p.ShopID
	base := Entry{
		CustomerID: p.CustomerID,
		ShopID:     &shopID,
		Kind:       p.Kind,
		Amount:     p.Amount,
		Metadata:   p.Metadata,
	}
	if p.Reference != "" {
		ref := p.Reference
		base.Reference = &ref
	}
	if err := insertEntry(ctx, tx, &base); err != nil {
		return nil, err
	}

	entries := []Entry{base}
	newLifetime := lifetime.Add(p.Amount)

	// Tier bonus rides on service earns only; referral and reward entries
	// carry their own incentives.
	if p.Kind == KindEarn {
		bonusAmount := customer.TierFor(newLifetime).Bonus()
		if bonusAmount.IsPositive() {
			bonus := Entry{
				CustomerID: p.CustomerID,
				ShopID:     &shopID,
				Kind:       KindTierBonus,
				Amount:     bonusAmount,
				Metadata:   Metadata{"bonus_for": base.ID.String()},
			}
			if err := insertEntry(ctx, tx, &bonus); err != nil {
				return nil, err
			}
			entries = append(entries, bonus)
			newLifetime = newLifetime.Add(bonusAmount)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE customers
		SET lifetime_earnings = $2, tier = $3, updated_at = now()
		WHERE id = $1
	`, p.CustomerID, newLifetime, customer.TierFor(newLifetime)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entries, nil
}

// RequestMint moves spendable balance into the pending mint counter. No
// ledger row is written until the mint completes.
func (r *Repository) RequestMint(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (Projection, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return Projection{}, err
	}
	defer tx.Rollback()

	if _, err := lockCustomerEarnings(ctx, tx, customerID); err != nil {
		return Projection{}, err
	}

	proj, err := project(ctx, tx, customerID)
	if err != nil {
		return Projection{}, err
	}
	if proj.AvailableBalance.LessThan(amount) {
		return Projection{}, ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE customers
		SET pending_mint_balance = pending_mint_balance + $2, updated_at = now()
		WHERE id = $1
	`, customerID, amount); err != nil {
		return Projection{}, err
	}

	proj, err = project(ctx, tx, customerID)
	if err != nil {
		return Projection{}, err
	}

	if err := tx.Commit(); err != nil {
		return Projection{}, err
	}
	return proj, nil
}

// CompleteMint settles a pending mint: decrements the pending counter and
// appends the mint_to_wallet entry. Idempotent on txRef.
func (r *Repository) CompleteMint(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, mintSource, txRef string) (*Entry, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := lockCustomerEarnings(ctx, tx, customerID); err != nil {
		return nil, err
	}

	if txRef != "" {
		existing, found, err := r.getByReference(ctx, tx, customerID, KindMintToWallet, txRef)
		if err != nil {
			return nil, err
		}
		if found {
			if !existing.Amount.Equal(amount) {
				return nil, ErrDuplicateReference
			}
			return existing, nil
		}
	}

	var pending decimal.Decimal
	if err := tx.GetContext(ctx, &pending, `
		SELECT pending_mint_balance FROM customers WHERE id = $1
	`, customerID); err != nil {
		return nil, err
	}
	if pending.LessThan(amount) {
		return nil, ErrInsufficientPendingMint
	}

	entry := Entry{
		CustomerID: customerID,
		Kind:       KindMintToWallet,
		Amount:     amount,
		Metadata:   Metadata{"mint_source": mintSource},
	}
	if txRef != "" {
		ref := txRef
		entry.Reference = &ref
	}
	if err := insertEntry(ctx, tx, &entry); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE customers
		SET pending_mint_balance = pending_mint_balance - $2, updated_at = now()
		WHERE id = $1
	`, customerID, amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Transfer appends paired transfer_out/transfer_in entries for an external
// wallet-to-wallet move. Audit trail only; neither side enters the
// available-balance formula.
func (r *Repository) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, walletRef string) (*Entry, *Entry, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	for _, id := range []uuid.UUID{fromID, toID} {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`, id); err != nil {
			return nil, nil, err
		}
		if !exists {
			return nil, nil, customer.ErrNotFound
		}
	}

	out := Entry{
		CustomerID: fromID,
		Kind:       KindTransferOut,
		Amount:     amount,
		Metadata:   Metadata{"counterparty": toID.String(), "wallet_ref": walletRef},
	}
	in := Entry{
		CustomerID: toID,
		Kind:       KindTransferIn,
		Amount:     amount,
		Metadata:   Metadata{"counterparty": fromID.String(), "wallet_ref": walletRef},
	}
	if err := insertEntry(ctx, tx, &out); err != nil {
		return nil, nil, err
	}
	if err := insertEntry(ctx, tx, &in); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &out, &in, nil
}

// InsertRefund appends a service_redemption_refund referencing an original
// redemption. The original row is locked so concurrent refunds serialize on
// the bound check.
func (r *Repository) InsertRefund(ctx context.Context, refundOf uuid.UUID, amount decimal.Decimal, reason string) (*Entry, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var original Entry
	err = tx.GetContext(ctx, &original, `
		SELECT `+entryColumns+` FROM loyalty_ledger WHERE id = $1 FOR UPDATE
	`, refundOf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	if !original.Kind.IsRedemption() {
		return nil, ErrNotRefundable
	}

	var refunded decimal.Decimal
	if err := tx.GetContext(ctx, &refunded, `
		SELECT COALESCE(SUM(amount), 0) FROM loyalty_ledger WHERE refund_of = $1
	`, refundOf); err != nil {
		return nil, err
	}
	if refunded.Add(amount).GreaterThan(original.Amount) {
		return nil, ErrRefundExceedsOriginal
	}

	refund := Entry{
		CustomerID: original.CustomerID,
		ShopID:     original.ShopID,
		Kind:       KindServiceRedemptionRefund,
		Amount:     amount,
		RefundOf:   &original.ID,
		Metadata:   Metadata{"reason": reason},
	}
	if err := insertEntry(ctx, tx, &refund); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &refund, nil
}

// InsertRedemptionTx appends the service_redemption entry for a session
// inside the executor's transaction. The partial unique index on session_id
// is the idempotency key: on conflict the already-committed entry is
// returned instead of a second append.
func (r *Repository) InsertRedemptionTx(ctx context.Context, tx *sqlx.Tx, customerID uuid.UUID, shopID uuid.UUID, sessionID uuid.UUID, amount decimal.Decimal) (*Entry, error) {
	entry := Entry{
		CustomerID: customerID,
		ShopID:     &shopID,
		Kind:       KindServiceRedemption,
		Amount:     amount,
		SessionID:  &sessionID,
		Metadata:   Metadata{},
	}

	err := tx.QueryRowxContext(ctx, `
		INSERT INTO loyalty_ledger (customer_id, shop_id, kind, amount, status, session_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) WHERE session_id IS NOT NULL DO NOTHING
		RETURNING id, created_at
	`, entry.CustomerID, entry.ShopID, entry.Kind, entry.Amount, StatusCompleted, entry.SessionID, entry.Metadata).
		Scan(&entry.ID, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.GetBySession(ctx, tx, sessionID)
	}
	if err != nil {
		return nil, err
	}
	entry.Status = StatusCompleted
	return &entry, nil
}

// GetBySession returns the redemption entry committed for a session.
func (r *Repository) GetBySession(ctx context.Context, ext sqlx.ExtContext, sessionID uuid.UUID) (*Entry, error) {
	var entry Entry
	err := sqlx.GetContext(ctx, ext, &entry, `
		SELECT `+entryColumns+` FROM loyalty_ledger WHERE session_id = $1
	`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// LockCustomer takes the customer row lock inside a caller-held transaction.
// Every write path that checks a balance before appending serializes on this
// lock so two concurrent spends cannot both project the pre-spend state.
func (r *Repository) LockCustomer(ctx context.Context, tx *sqlx.Tx, customerID uuid.UUID) error {
	_, err := lockCustomerEarnings(ctx, tx, customerID)
	return err
}

// ListByCustomer returns a page of the customer's ledger, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Entry, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM loyalty_ledger WHERE customer_id = $1
	`, customerID); err != nil {
		return nil, 0, err
	}

	entries := []Entry{}
	if err := r.db.SelectContext(ctx, &entries, `
		SELECT `+entryColumns+`
		FROM loyalty_ledger
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, customerID, limit, offset); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *Repository) getByReference(ctx context.Context, tx *sqlx.Tx, customerID uuid.UUID, kind Kind, reference string) (*Entry, bool, error) {
	var entry Entry
	err := tx.GetContext(ctx, &entry, `
		SELECT `+entryColumns+`
		FROM loyalty_ledger
		WHERE customer_id = $1 AND kind = $2 AND reference = $3
	`, customerID, kind, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}

func lockCustomerEarnings(ctx context.Context, tx *sqlx.Tx, customerID uuid.UUID) (decimal.Decimal, error) {
	var lifetime decimal.Decimal
	err := tx.GetContext(ctx, &lifetime, `
		SELECT lifetime_earnings FROM customers WHERE id = $1 FOR UPDATE
	`, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, customer.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return lifetime, nil
}

func insertEntry(ctx context.Context, tx *sqlx.Tx, e *Entry) error {
	if e.Metadata == nil {
		e.Metadata = Metadata{}
	}
	e.Status = StatusCompleted

	err := tx.QueryRowxContext(ctx, `
		INSERT INTO loyalty_ledger (customer_id, shop_id, kind, amount, status, session_id, refund_of, reference, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, e.CustomerID, e.ShopID, e.Kind, e.Amount, e.Status, e.SessionID, e.RefundOf, e.Reference, e.Metadata).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}
