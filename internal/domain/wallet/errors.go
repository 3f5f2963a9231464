package wallet

import "errors"

var (
	// ErrWouldGoNegative is returned when applying a delta would drive a
	// balance below zero. Callers must reject, never clamp.
	ErrWouldGoNegative = errors.New("balance would go negative")

	// ErrNoChannels is returned when a channel-scoped resolution finds no
	// usable channel.
	ErrNoChannels = errors.New("no usable funding channels")
)
