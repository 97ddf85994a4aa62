package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo      *Repository
	projector *Projector
}

func NewService(repo *Repository, projector *Projector) *Service {
	return &Service{repo: repo, projector: projector}
}

// validAmount accepts positive amounts with at most two decimal places.
func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(2))
}

// Balance returns the canonical projection for a customer.
func (s *Service) Balance(ctx context.Context, customerID uuid.UUID) (Projection, error) {
	return s.projector.Project(ctx, customerID)
}

// RecordEarn appends an earn-class entry on behalf of a shop. Kind must be
// one of the caller-facing earn kinds; tier bonuses are awarded internally.
func (s *Service) RecordEarn(ctx context.Context, p EarnParams) ([]Entry, error) {
	switch p.Kind {
	case KindEarn, KindReward, KindReferralBonus:
	default:
		return nil, ErrInvalidAmount
	}
	if !validAmount(p.Amount) {
		return nil, ErrInvalidAmount
	}

	entries, err := s.repo.RecordEarn(ctx, p)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("customer_id", p.CustomerID.String()).
		Str("shop_id", p.ShopID.String()).
		Str("kind", string(p.Kind)).
		Str("amount", p.Amount.StringFixed(2)).
		Int("entries", len(entries)).
		Msg("earn recorded")
	return entries, nil
}

// ReverseRedemption appends a refund entry offsetting a prior redemption.
func (s *Service) ReverseRedemption(ctx context.Context, refundOf uuid.UUID, amount decimal.Decimal, reason string) (*Entry, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	entry, err := s.repo.InsertRefund(ctx, refundOf, amount, reason)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("customer_id", entry.CustomerID.String()).
		Str("refund_of", refundOf.String()).
		Str("amount", amount.StringFixed(2)).
		Str("reason", reason).
		Msg("redemption refunded")
	return entry, nil
}

// RequestMint earmarks spendable balance for minting to an external wallet.
func (s *Service) RequestMint(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (Projection, error) {
	if !validAmount(amount) {
		return Projection{}, ErrInvalidAmount
	}

	proj, err := s.repo.RequestMint(ctx, customerID, amount)
	if err != nil {
		return Projection{}, err
	}

	log.Info().
		Str("customer_id", customerID.String()).
		Str("amount", amount.StringFixed(2)).
		Msg("mint requested")
	return proj, nil
}

// CompleteMint settles a pending mint once the external wallet credit is
// confirmed.
func (s *Service) CompleteMint(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, mintSource, txRef string) (*Entry, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	entry, err := s.repo.CompleteMint(ctx, customerID, amount, mintSource, txRef)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("customer_id", customerID.String()).
		Str("amount", amount.StringFixed(2)).
		Str("mint_source", mintSource).
		Msg("mint completed")
	return entry, nil
}

// Transfer records an external wallet-to-wallet move between customers.
func (s *Service) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, walletRef string) (*Entry, *Entry, error) {
	if !validAmount(amount) || fromID == toID {
		return nil, nil, ErrInvalidAmount
	}

	out, in, err := s.repo.Transfer(ctx, fromID, toID, amount, walletRef)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("from", fromID.String()).
		Str("to", toID.String()).
		Str("amount", amount.StringFixed(2)).
		Msg("transfer recorded")
	return out, in, nil
}

// History returns a page of the customer's ledger, newest first, along with
// the total count and the effective limit after clamping.
func (s *Service) History(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Entry, int, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	entries, total, err := s.repo.ListByCustomer(ctx, customerID, limit, offset)
	return entries, total, limit, err
}
