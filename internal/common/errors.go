package common

import "errors"

// All of these are local, recoverable conditions. A failed operation leaves
// registry and book state untouched; none of them is fatal to the engine.
var (
	// ErrInvalidOrder rejects orders with a non-positive price or quantity.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrUnknownOrder signals a cancel or lookup on a nonexistent order id.
	ErrUnknownOrder = errors.New("unknown order")
	// ErrUnauthorizedCancel signals a cancel by a non-owning client.
	ErrUnauthorizedCancel = errors.New("unauthorized cancel")
	// ErrInvalidState signals a cancel on an already-filled or already-cancelled order.
	ErrInvalidState = errors.New("invalid order state")
)
