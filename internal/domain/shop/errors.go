package shop

import "errors"

var (
	// ErrNotFound is returned when the shop doesn't exist
	ErrNotFound = errors.New("shop not found")

	// ErrInactive is returned when the shop's participation is suspended
	ErrInactive = errors.New("shop is not active")
)
