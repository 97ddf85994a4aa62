package redemption

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/repaircoin/repaircoin-api/internal/domain/customer"
	"github.com/repaircoin/repaircoin-api/internal/domain/ledger"
	"github.com/repaircoin/repaircoin-api/internal/domain/shop"
	"github.com/repaircoin/repaircoin-api/internal/pkg/push"
)

// Pusher delivers best-effort approval notifications.
type Pusher interface {
	Send(ctx context.Context, msg *push.Message) error
}

type Service struct {
	repo      *Repository
	projector *ledger.Projector
	shops     *shop.Repository
	customers *customer.Repository
	signer    *QRSigner
	pusher    Pusher
	redis     *redis.Client
	ttl       time.Duration
}

func NewService(
	repo *Repository,
	projector *ledger.Projector,
	shops *shop.Repository,
	customers *customer.Repository,
	signer *QRSigner,
	pusher Pusher,
	redisClient *redis.Client,
	ttl time.Duration,
) *Service {
	return &Service{
		repo:      repo,
		projector: projector,
		shops:     shops,
		customers: customers,
		signer:    signer,
		pusher:    pusher,
		redis:     redisClient,
		ttl:       ttl,
	}
}

// Create opens a pending session for a shop. The balance is checked here so
// obviously-doomed requests fail before the customer is bothered; the
// executor re-checks under its lock.
func (s *Service) Create(ctx context.Context, shopID, customerID uuid.UUID, amount decimal.Decimal) (*Session, string, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return nil, "", ledger.ErrInvalidAmount
	}

	if _, err := s.shops.GetActive(ctx, shopID); err != nil {
		return nil, "", err
	}

	cust, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, "", err
	}

	proj, err := s.projector.Project(ctx, customerID)
	if err != nil {
		return nil, "", err
	}
	if proj.AvailableBalance.LessThan(amount) {
		return nil, "", ledger.ErrInsufficientBalance
	}

	nonce, err := newNonce()
	if err != nil {
		return nil, "", err
	}

	session := &Session{
		CustomerID: customerID,
		ShopID:     shopID,
		Amount:     amount,
		Status:     StatusPending,
		QRNonce:    nonce,
		ExpiresAt:  time.Now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, "", err
	}

	qrToken, err := s.signer.Sign(session)
	if err != nil {
		return nil, "", err
	}

	s.notifyCustomer(ctx, cust, session)

	log.Info().
		Str("session_id", session.ID.String()).
		Str("customer_id", customerID.String()).
		Str("shop_id", shopID.String()).
		Str("amount", amount.StringFixed(2)).
		Time("expires_at", session.ExpiresAt).
		Msg("redemption session created")
	return session, qrToken, nil
}

// Approve transitions a pending session to approved on the customer's
// behalf.
func (s *Service) Approve(ctx context.Context, sessionID, customerID uuid.UUID) (*Session, error) {
	session, err := s.repo.Resolve(ctx, sessionID, customerID, StatusApproved)
	if err != nil {
		s.logAnomaly("approve", sessionID, err)
		return nil, err
	}

	log.Info().Str("session_id", sessionID.String()).Msg("redemption session approved")
	return session, nil
}

// Reject transitions a pending session to rejected. Offered as a courtesy;
// expiry alone keeps the protocol safe.
func (s *Service) Reject(ctx context.Context, sessionID, customerID uuid.UUID) (*Session, error) {
	session, err := s.repo.Resolve(ctx, sessionID, customerID, StatusRejected)
	if err != nil {
		s.logAnomaly("reject", sessionID, err)
		return nil, err
	}

	log.Info().Str("session_id", sessionID.String()).Msg("redemption session rejected")
	return session, nil
}

// GetStatus reads a session, lazily expiring it when the window has passed.
func (s *Service) GetStatus(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	return s.repo.GetWithLazyExpiry(ctx, sessionID)
}

// Execute performs the atomic spend for an approved session. Safe to call
// more than once: retries return the committed entry.
func (s *Service) Execute(ctx context.Context, sessionID uuid.UUID) (*Session, *ledger.Entry, error) {
	session, entry, err := s.repo.Execute(ctx, sessionID)
	if err != nil {
		s.logAnomaly("execute", sessionID, err)
		return nil, nil, err
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("ledger_entry_id", entry.ID.String()).
		Str("amount", session.Amount.StringFixed(2)).
		Msg("redemption executed")
	return session, entry, nil
}

// ValidateQR collapses the poll/approve cycle: a valid single-use QR
// payload approves the session as the customer and executes in the same
// round trip.
func (s *Service) ValidateQR(ctx context.Context, payload string) (*Session, *ledger.Entry, error) {
	sessionID, nonce, err := s.signer.Parse(payload)
	if err != nil {
		return nil, nil, err
	}

	// Fast path: a QR already presented is dead even before the DB check.
	// The session state below stays authoritative.
	if s.redis != nil {
		seen, err := s.redis.Exists(ctx, qrSeenKey(sessionID)).Result()
		if err == nil && seen > 0 {
			return nil, nil, ErrInvalidQR
		}
	}

	if _, err := s.repo.ApproveQR(ctx, sessionID, nonce); err != nil {
		s.logAnomaly("qr_validate", sessionID, err)
		return nil, nil, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, qrSeenKey(sessionID), 1, 2*s.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to mark qr nonce consumed")
		}
	}

	return s.Execute(ctx, sessionID)
}

func qrSeenKey(sessionID uuid.UUID) string {
	return "qr:seen:" + sessionID.String()
}

func (s *Service) notifyCustomer(ctx context.Context, cust *customer.Customer, session *Session) {
	if s.pusher == nil || cust.FCMToken == nil || *cust.FCMToken == "" {
		return
	}

	err := s.pusher.Send(ctx, &push.Message{
		Token: *cust.FCMToken,
		Title: "Redemption approval requested",
		Body:  "A shop is requesting to redeem " + session.Amount.StringFixed(2) + " RCN",
		Data: map[string]string{
			"type":       "redemption_session",
			"session_id": session.ID.String(),
			"shop_id":    session.ShopID.String(),
			"amount":     session.Amount.StringFixed(2),
			"expires_at": session.ExpiresAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("approval push failed")
	}
}

// State-machine violations are worth an audit trail: they usually mean a
// retried request raced expiry, occasionally misuse.
func (s *Service) logAnomaly(op string, sessionID uuid.UUID, err error) {
	if errors.Is(err, ErrSessionAlreadyResolved) || errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrInvalidQR) {
		log.Warn().
			Str("op", op).
			Str("session_id", sessionID.String()).
			Err(err).
			Msg("illegal session transition attempted")
	}
}
