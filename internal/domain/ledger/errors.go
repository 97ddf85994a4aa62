package ledger

import "errors"

var (
	// ErrInvalidAmount is returned when an amount is zero, negative, or has
	// more than two decimal places
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is returned when the projected available
	// balance cannot cover the requested amount
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrEntryNotFound is returned when a referenced ledger entry doesn't exist
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrNotRefundable is returned when a refund references an entry that is
	// not a redemption
	ErrNotRefundable = errors.New("referenced entry is not a redemption")

	// ErrRefundExceedsOriginal is returned when cumulative refunds would
	// exceed the original redemption amount
	ErrRefundExceedsOriginal = errors.New("refund exceeds original redemption")

	// ErrDuplicateReference is returned when an idempotency reference was
	// already used with a different amount
	ErrDuplicateReference = errors.New("reference already used with a different amount")

	// ErrInsufficientPendingMint is returned when a mint completion exceeds
	// the customer's pending mint balance
	ErrInsufficientPendingMint = errors.New("insufficient pending mint balance")
)
