package redemption

import "errors"

// Amount and balance failures reuse the ledger sentinels so callers see one
// taxonomy regardless of which surface rejected the request.
var (
	// ErrSessionNotFound is returned when the session doesn't exist or does
	// not belong to the caller
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the session's window has passed
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionAlreadyResolved is returned on any transition from a state
	// that is not pending (or not approved, for execute)
	ErrSessionAlreadyResolved = errors.New("session already resolved")

	// ErrInvalidQR is returned when a QR payload's signature or nonce does
	// not match a live pending session
	ErrInvalidQR = errors.New("invalid qr payload")
)
