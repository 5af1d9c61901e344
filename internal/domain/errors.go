package domain

import "errors"

var (
	// ErrInvalidToken is returned when a credential header is missing or does
	// not match the expected value.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConflict is reserved for single-publisher-per-channel enforcement.
	// No code path produces it yet.
	ErrConflict = errors.New("another client connected")
)
