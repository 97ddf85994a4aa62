package redemption

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// QRSigner issues and verifies the single-use QR artifact: an HS256 token
// embedding the session ID and its nonce, expiring with the session. The
// secret is distinct from the auth JWT secret.
type QRSigner struct {
	secret []byte
}

func NewQRSigner(secret string) *QRSigner {
	return &QRSigner{secret: []byte(secret)}
}

type qrClaims struct {
	SessionID string `json:"session_id"`
	Nonce     string `json:"nonce"`
	jwt.RegisteredClaims
}

// Sign produces the QR payload for a session.
func (q *QRSigner) Sign(session *Session) (string, error) {
	claims := qrClaims{
		SessionID: session.ID.String(),
		Nonce:     session.QRNonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(q.secret)
}

// Parse verifies a QR payload and returns the embedded session ID and
// nonce. Every failure collapses to ErrInvalidQR; the caller has no
// business distinguishing a bad signature from a stale token.
func (q *QRSigner) Parse(payload string) (uuid.UUID, string, error) {
	token, err := jwt.ParseWithClaims(payload, &qrClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidQR
		}
		return q.secret, nil
	})
	if err != nil {
		return uuid.Nil, "", ErrInvalidQR
	}

	claims, ok := token.Claims.(*qrClaims)
	if !ok || !token.Valid || claims.Nonce == "" {
		return uuid.Nil, "", ErrInvalidQR
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, "", ErrInvalidQR
	}
	return sessionID, claims.Nonce, nil
}

// newNonce generates the per-session QR nonce.
func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
