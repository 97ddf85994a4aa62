package customer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	var c Customer
	err := r.db.GetContext(ctx, &c, `
		SELECT id, email, fcm_token, lifetime_earnings, pending_mint_balance, tier, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateDeviceToken registers the FCM device token used for redemption
// approval pushes. An empty token clears the registration.
func (r *Repository) UpdateDeviceToken(ctx context.Context, id uuid.UUID, token string) error {
	var value interface{}
	if token != "" {
		value = token
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE customers SET fcm_token = $2, updated_at = now() WHERE id = $1
	`, id, value)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
