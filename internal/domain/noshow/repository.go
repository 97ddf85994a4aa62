package noshow

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const recordColumns = `id, customer_id, shop_id, booking_ref, disputed, dispute_status, dispute_reason, reversed, created_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, rec *Record) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO no_show_records (customer_id, shop_id, booking_ref, dispute_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, rec.CustomerID, rec.ShopID, rec.BookingRef, DisputeNone).
		Scan(&rec.ID, &rec.CreatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.get(ctx, r.db, id)
}

// FileDispute marks a record disputed. A record can only be disputed once,
// regardless of how the first dispute resolved.
func (r *Repository) FileDispute(ctx context.Context, id, customerID uuid.UUID, reason string) (*Record, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := r.lock(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if rec.CustomerID != customerID {
		return nil, ErrRecordNotFound
	}
	if rec.Disputed {
		return nil, ErrDisputeAlreadyFiled
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE no_show_records
		SET disputed = true, dispute_status = $2, dispute_reason = $3
		WHERE id = $1
	`, id, DisputePending, reason); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	rec.Disputed = true
	rec.DisputeStatus = DisputePending
	rec.DisputeReason = &reason
	return rec, nil
}

// ResolveDispute settles a pending dispute. Approval reverses the penalty in
// the same transaction so the standing never reflects a half-applied outcome.
func (r *Repository) ResolveDispute(ctx context.Context, id uuid.UUID, approve bool, thresholds func(ctx context.Context, shopID uuid.UUID) (caution, deposit, suspension int, err error)) (*Record, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := r.lock(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Disputed || rec.DisputeStatus == DisputeNone {
		return nil, ErrNoDispute
	}
	if rec.DisputeStatus != DisputePending {
		return nil, ErrDisputeAlreadyResolved
	}

	status := DisputeRejected
	if approve {
		status = DisputeApproved
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE no_show_records SET dispute_status = $2, reversed = reversed OR $3 WHERE id = $1
	`, id, status, approve); err != nil {
		return nil, err
	}

	if approve {
		caution, deposit, suspension, err := thresholds(ctx, rec.ShopID)
		if err != nil {
			return nil, err
		}
		if err := r.recomputeStandingTx(ctx, tx, rec.CustomerID, rec.ShopID, caution, deposit, suspension); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	rec.DisputeStatus = status
	rec.Reversed = rec.Reversed || approve
	return rec, nil
}

// ReversePenalty tags a record reversed and recomputes the standing.
// Idempotent: reversing an already-reversed record leaves everything as-is.
func (r *Repository) ReversePenalty(ctx context.Context, id uuid.UUID, caution, deposit, suspension int) (*Record, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := r.lock(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if !rec.Reversed {
		if _, err := tx.ExecContext(ctx, `
			UPDATE no_show_records SET reversed = true WHERE id = $1
		`, id); err != nil {
			return nil, err
		}
		rec.Reversed = true
	}

	if err := r.recomputeStandingTx(ctx, tx, rec.CustomerID, rec.ShopID, caution, deposit, suspension); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

// RecomputeStanding recounts non-reversed records for a (customer, shop)
// pair and persists the derived standing.
func (r *Repository) RecomputeStanding(ctx context.Context, customerID, shopID uuid.UUID, caution, deposit, suspension int) (Standing, int, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	standing, count, err := r.recomputeTx(ctx, tx, customerID, shopID, caution, deposit, suspension)
	if err != nil {
		return "", 0, err
	}
	if err := tx.Commit(); err != nil {
		return "", 0, err
	}
	return standing, count, nil
}

// GetStanding reads the persisted standing for a (customer, shop) pair. A
// customer with no records yet has standing none.
func (r *Repository) GetStanding(ctx context.Context, customerID, shopID uuid.UUID) (Standing, int, error) {
	var row struct {
		Standing Standing `db:"standing"`
		Count    int      `db:"effective_count"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT standing, effective_count
		FROM no_show_standings
		WHERE customer_id = $1 AND shop_id = $2
	`, customerID, shopID)
	if errors.Is(err, sql.ErrNoRows) {
		return StandingNone, 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return row.Standing, row.Count, nil
}

func (r *Repository) recomputeStandingTx(ctx context.Context, tx *sqlx.Tx, customerID, shopID uuid.UUID, caution, deposit, suspension int) error {
	_, _, err := r.recomputeTx(ctx, tx, customerID, shopID, caution, deposit, suspension)
	return err
}

func (r *Repository) recomputeTx(ctx context.Context, tx *sqlx.Tx, customerID, shopID uuid.UUID, caution, deposit, suspension int) (Standing, int, error) {
	var count int
	if err := tx.GetContext(ctx, &count, `
		SELECT count(*) FROM no_show_records
		WHERE customer_id = $1 AND shop_id = $2 AND NOT reversed
	`, customerID, shopID); err != nil {
		return "", 0, err
	}

	standing := StandingFor(count, caution, deposit, suspension)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO no_show_standings (customer_id, shop_id, standing, effective_count, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (customer_id, shop_id)
		DO UPDATE SET standing = $3, effective_count = $4, updated_at = now()
	`, customerID, shopID, standing, count); err != nil {
		return "", 0, err
	}
	return standing, count, nil
}

func (r *Repository) get(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Record, error) {
	var rec Record
	err := sqlx.GetContext(ctx, ext, &rec, `
		SELECT `+recordColumns+` FROM no_show_records WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) lock(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Record, error) {
	var rec Record
	err := tx.GetContext(ctx, &rec, `
		SELECT `+recordColumns+` FROM no_show_records WHERE id = $1 FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
