package shop

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

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Shop, error) {
	var s Shop
	err := r.db.GetContext(ctx, &s, `
		SELECT id, name, active, caution_threshold, deposit_threshold, suspension_threshold, created_at
		FROM shops
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetActive loads a shop and fails if it is not participating.
func (r *Repository) GetActive(ctx context.Context, id uuid.UUID) (*Shop, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Active {
		return nil, ErrInactive
	}
	return s, nil
}
