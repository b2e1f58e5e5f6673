package party

import "errors"

var (
	// ErrGuestNotFound is returned when an operation references an unknown guest id.
	ErrGuestNotFound = errors.New("party: guest not found")
	// ErrPartyClosed is returned when an order is committed after the party was closed.
	ErrPartyClosed = errors.New("party: party is closed")
	// ErrInvalidCost is returned for cost input that is not a non-negative integer.
	ErrInvalidCost = errors.New("party: cost must be a non-negative integer")
)
