// Package apperrors defines the error taxonomy shared by the storage
// layer, the handlers, and the sweeper. Handlers map these sentinels
// to HTTP status codes with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means no authenticated identity was present where
	// one is required.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means a referenced document (usually a room) does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage means an underlying store operation failed. Primary
	// operations surface it to the caller; best-effort side effects
	// (activity touches) log and swallow it.
	ErrStorage = errors.New("storage error")

	// ErrValidation means the input was rejected before any store call
	// (empty message content, malformed email, password mismatch).
	ErrValidation = errors.New("validation error")
)

// Storage wraps err as an ErrStorage, keeping the cause in the chain.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// Validation builds an ErrValidation with a user-facing reason.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// NotFound builds an ErrNotFound naming the missing resource.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}
