package redemption

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testSession(expiresAt time.Time) *Session {
	nonce, _ := newNonce()
	return &Session{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		ShopID:     uuid.New(),
		Status:     StatusPending,
		QRNonce:    nonce,
		ExpiresAt:  expiresAt,
	}
}

func TestQRSignParseRoundTrip(t *testing.T) {
	signer := NewQRSigner("test-qr-secret")
	session := testSession(time.Now().Add(5 * time.Minute))

	payload, err := signer.Sign(session)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	sessionID, nonce, err := signer.Parse(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sessionID != session.ID {
		t.Errorf("session id = %s, want %s", sessionID, session.ID)
	}
	if nonce != session.QRNonce {
		t.Errorf("nonce = %q, want %q", nonce, session.QRNonce)
	}
}

func TestQRParseTamperedSignature(t *testing.T) {
	signer := NewQRSigner("test-qr-secret")
	session := testSession(time.Now().Add(5 * time.Minute))

	payload, err := signer.Sign(session)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tampered := payload[:len(payload)-2] + "xx"
	if _, _, err := signer.Parse(tampered); !errors.Is(err, ErrInvalidQR) {
		t.Errorf("tampered payload: err = %v, want ErrInvalidQR", err)
	}
}

func TestQRParseWrongSecret(t *testing.T) {
	signer := NewQRSigner("test-qr-secret")
	other := NewQRSigner("another-secret")
	session := testSession(time.Now().Add(5 * time.Minute))

	payload, err := signer.Sign(session)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, _, err := other.Parse(payload); !errors.Is(err, ErrInvalidQR) {
		t.Errorf("wrong secret: err = %v, want ErrInvalidQR", err)
	}
}

func TestQRParseExpiredToken(t *testing.T) {
	signer := NewQRSigner("test-qr-secret")
	session := testSession(time.Now().Add(-1 * time.Minute))

	payload, err := signer.Sign(session)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, _, err := signer.Parse(payload); !errors.Is(err, ErrInvalidQR) {
		t.Errorf("expired token: err = %v, want ErrInvalidQR", err)
	}
}

func TestQRParseGarbage(t *testing.T) {
	signer := NewQRSigner("test-qr-secret")

	if _, _, err := signer.Parse("not-a-jwt"); !errors.Is(err, ErrInvalidQR) {
		t.Errorf("garbage payload: err = %v, want ErrInvalidQR", err)
	}
}

func TestNonceUniqueness(t *testing.T) {
	a, err := newNonce()
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	b, err := newNonce()
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	if a == b {
		t.Error("two nonces should not collide")
	}
	if len(a) != 32 {
		t.Errorf("nonce length = %d, want 32 hex chars", len(a))
	}
}

func TestSessionExpiredBy(t *testing.T) {
	now := time.Now()

	pending := &Session{Status: StatusPending, ExpiresAt: now.Add(-time.Second)}
	if !pending.ExpiredBy(now) {
		t.Error("pending session past its window should be expired")
	}

	live := &Session{Status: StatusPending, ExpiresAt: now.Add(time.Minute)}
	if live.ExpiredBy(now) {
		t.Error("pending session inside its window should not be expired")
	}

	// Approved sessions never expire; only used is reachable from approved.
	approved := &Session{Status: StatusApproved, ExpiresAt: now.Add(-time.Hour)}
	if approved.ExpiredBy(now) {
		t.Error("approved session should not expire")
	}
}
