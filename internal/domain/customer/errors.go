package customer

import "errors"

var (
	// ErrNotFound is returned when the customer doesn't exist
	ErrNotFound = errors.New("customer not found")
)
