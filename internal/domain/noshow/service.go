package noshow

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/repaircoin/repaircoin-api/internal/domain/shop"
)

type Service struct {
	repo  *Repository
	shops *shop.Repository
}

func NewService(repo *Repository, shops *shop.Repository) *Service {
	return &Service{repo: repo, shops: shops}
}

// RecordNoShow appends a record for the acting shop and recomputes the
// customer's standing with that shop.
func (s *Service) RecordNoShow(ctx context.Context, shopID, customerID uuid.UUID, bookingRef *string) (*Record, Standing, error) {
	sh, err := s.shops.GetActive(ctx, shopID)
	if err != nil {
		return nil, "", err
	}

	rec := &Record{
		CustomerID:    customerID,
		ShopID:        shopID,
		BookingRef:    bookingRef,
		DisputeStatus: DisputeNone,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, "", err
	}

	standing, count, err := s.repo.RecomputeStanding(ctx, customerID, shopID,
		sh.CautionThreshold, sh.DepositThreshold, sh.SuspensionThreshold)
	if err != nil {
		return nil, "", err
	}

	log.Info().
		Str("record_id", rec.ID.String()).
		Str("customer_id", customerID.String()).
		Str("shop_id", shopID.String()).
		Int("effective_count", count).
		Str("standing", string(standing)).
		Msg("no-show recorded")
	return rec, standing, nil
}

// FileDispute opens a dispute on a record for its customer.
func (s *Service) FileDispute(ctx context.Context, recordID, customerID uuid.UUID, reason string) (*Record, error) {
	rec, err := s.repo.FileDispute(ctx, recordID, customerID, reason)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("record_id", recordID.String()).
		Str("customer_id", customerID.String()).
		Msg("no-show dispute filed")
	return rec, nil
}

// ResolveDispute settles a pending dispute. Approval reverses the penalty:
// the record is tagged, never deleted, and the standing is re-derived from
// the remaining effective count.
func (s *Service) ResolveDispute(ctx context.Context, recordID uuid.UUID, approve bool) (*Record, error) {
	rec, err := s.repo.ResolveDispute(ctx, recordID, approve, s.shopThresholds)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("record_id", recordID.String()).
		Bool("approved", approve).
		Bool("reversed", rec.Reversed).
		Msg("no-show dispute resolved")
	return rec, nil
}

// ReversePenalty reverses a record directly, outside the dispute flow.
// Idempotent: repeating the call changes nothing.
func (s *Service) ReversePenalty(ctx context.Context, recordID uuid.UUID) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	sh, err := s.shops.GetByID(ctx, rec.ShopID)
	if err != nil {
		return nil, err
	}

	rec, err = s.repo.ReversePenalty(ctx, recordID,
		sh.CautionThreshold, sh.DepositThreshold, sh.SuspensionThreshold)
	if err != nil {
		return nil, err
	}

	log.Info().Str("record_id", recordID.String()).Msg("no-show penalty reversed")
	return rec, nil
}

// GetStanding reports a customer's standing with one shop.
func (s *Service) GetStanding(ctx context.Context, customerID, shopID uuid.UUID) (Standing, int, error) {
	if _, err := s.shops.GetByID(ctx, shopID); err != nil {
		return "", 0, err
	}
	return s.repo.GetStanding(ctx, customerID, shopID)
}

func (s *Service) shopThresholds(ctx context.Context, shopID uuid.UUID) (int, int, int, error) {
	sh, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		return 0, 0, 0, err
	}
	return sh.CautionThreshold, sh.DepositThreshold, sh.SuspensionThreshold, nil
}
