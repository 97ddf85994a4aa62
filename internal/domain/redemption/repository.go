package redemption

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/repaircoin/repaircoin-api/internal/domain/ledger"
)

const sessionColumns = `id, customer_id, shop_id, amount, status, qr_nonce, ledger_entry_id, created_at, expires_at, resolved_at, used_at`

// Repository owns session rows and, for execute, the transaction that ties
// the session transition to the ledger append.
type Repository struct {
	db        *sqlx.DB
	ledger    *ledger.Repository
	projector *ledger.Projector
}

func NewRepository(db *sqlx.DB, ledgerRepo *ledger.Repository, projector *ledger.Projector) *Repository {
	return &Repository{db: db, ledger: ledgerRepo, projector: projector}
}

func (r *Repository) Create(ctx context.Context, s *Session) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO redemption_sessions (customer_id, shop_id, amount, status, qr_nonce, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, s.CustomerID, s.ShopID, s.Amount, s.Status, s.QRNonce, s.ExpiresAt).
		Scan(&s.ID, &s.CreatedAt)
}

// GetWithLazyExpiry reads a session, transitioning it to expired first when
// its window has passed. The guarded UPDATE makes the transition safe
// against a concurrent approval: whichever statement runs first wins.
func (r *Repository) GetWithLazyExpiry(ctx context.Context, id uuid.UUID) (*Session, error) {
	s, err := r.get(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	if s.ExpiredBy(time.Now()) {
		if _, err := r.db.ExecContext(ctx, `
			UPDATE redemption_sessions SET status = $2 WHERE id = $1 AND status = $3
		`, id, StatusExpired, StatusPending); err != nil {
			return nil, err
		}
		return r.get(ctx, r.db, id)
	}
	return s, nil
}

// Resolve transitions a pending session to approved or rejected on behalf
// of its customer.
func (r *Repository) Resolve(ctx context.Context, id, customerID uuid.UUID, to Status) (*Session, error) {
	if to != StatusApproved && to != StatusRejected {
		return nil, ErrSessionAlreadyResolved
	}

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	s, err := r.lock(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if s.CustomerID != customerID {
		// Not the session's customer; indistinguishable from absent.
		return nil, ErrSessionNotFound
	}

	if s.ExpiredBy(time.Now()) {
		if err := r.markExpired(ctx, tx, s); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}
	if s.Status != StatusPending {
		return nil, ErrSessionAlreadyResolved
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE redemption_sessions SET status = $2, resolved_at = $3 WHERE id = $1
	`, id, to, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.Status = to
	s.ResolvedAt = &now
	return s, nil
}

// ApproveQR approves a pending session presented via QR after checking the
// nonce. Any mismatch with a live pending session collapses to ErrInvalidQR.
func (r *Repository) ApproveQR(ctx context.Context, id uuid.UUID, nonce string) (*Session, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	s, err := r.lock(ctx, tx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrInvalidQR
	}
	if err != nil {
		return nil, err
	}
	if s.QRNonce == "" || s.QRNonce != nonce {
		return nil, ErrInvalidQR
	}

	if s.ExpiredBy(time.Now()) {
		if err := r.markExpired(ctx, tx, s); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, ErrInvalidQR
	}
	if s.Status != StatusPending {
		return nil, ErrInvalidQR
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE redemption_sessions SET status = $2, resolved_at = $3 WHERE id = $1
	`, id, StatusApproved, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.Status = StatusApproved
	s.ResolvedAt = &now
	return s, nil
}

// Execute performs the atomic spend: re-reads the session under a row
// lock, re-projects the balance through the canonical projector, appends
// the redemption entry with the session as idempotency key, and marks the
// session used — one transaction. A session already used returns the
// committed entry so retries converge on the same result. Expiry is not
// re-checked here: an approved session stays executable (the balance is).
func (r *Repository) Execute(ctx context.Context, id uuid.UUID) (*Session, *ledger.Entry, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	s, err := r.lock(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	if s.Status == StatusUsed {
		entry, err := r.ledger.GetBySession(ctx, tx, id)
		if err != nil {
			return nil, nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, nil, err
		}
		return s, entry, nil
	}
	if s.Status != StatusApproved {
		return nil, nil, ErrSessionAlreadyResolved
	}

	// The session lock alone does not serialize two approved sessions of
	// the same customer; the balance re-check needs the customer row lock
	// or both would project the pre-spend balance.
	if err := r.ledger.LockCustomer(ctx, tx, s.CustomerID); err != nil {
		return nil, nil, err
	}

	proj, err := r.projector.ProjectTx(ctx, tx, s.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	if proj.AvailableBalance.LessThan(s.Amount) {
		// Session stays approved; the shop may retry once the balance
		// changes, until the sweep expires nothing — used is the only
		// terminal state reachable from approved.
		return nil, nil, ledger.ErrInsufficientBalance
	}

	entry, err := r.ledger.InsertRedemptionTx(ctx, tx, s.CustomerID, s.ShopID, s.ID, s.Amount)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE redemption_sessions
		SET status = $2, used_at = $3, ledger_entry_id = $4
		WHERE id = $1
	`, id, StatusUsed, now, entry.ID); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	s.Status = StatusUsed
	s.UsedAt = &now
	s.LedgerEntryID = &entry.ID
	return s, entry, nil
}

// ExpireStale expires pending sessions past their window. Run by the sweep
// so staleness is bounded even when nobody polls.
func (r *Repository) ExpireStale(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE redemption_sessions
		SET status = $1
		WHERE status = $2 AND expires_at <= now()
	`, StatusExpired, StatusPending)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *Repository) get(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Session, error) {
	var s Session
	err := sqlx.GetContext(ctx, ext, &s, `
		SELECT `+sessionColumns+` FROM redemption_sessions WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) lock(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Session, error) {
	var s Session
	err := tx.GetContext(ctx, &s, `
		SELECT `+sessionColumns+` FROM redemption_sessions WHERE id = $1 FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) markExpired(ctx context.Context, tx *sqlx.Tx, s *Session) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE redemption_sessions SET status = $2 WHERE id = $1
	`, s.ID, StatusExpired); err != nil {
		return err
	}
	s.Status = StatusExpired
	return nil
}
