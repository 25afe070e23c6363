// Package driven defines secondary port interfaces for external adapters.
package driven

import "errors"

// Error taxonomy shared by the driven adapters and the application layer.
// Callers match with errors.Is.
var (
	// ErrNotConnected is returned when the editor's state database is missing
	// or cannot be opened. It is recoverable.
	ErrNotConnected = errors.New("state database not available")

	// ErrTransaction wraps any failure of a multi-key write or delete. The
	// store has been rolled back when it is returned.
	ErrTransaction = errors.New("credential store transaction failed")

	// ErrNoCredential is returned when token discovery exhausted every source.
	ErrNoCredential = errors.New("no access token found")

	// ErrRemoteUnavailable marks a subscription status that could not be verified.
	ErrRemoteUnavailable = errors.New("subscription status unavailable")

	// ErrRecordCorrupt marks a saved account record that failed to parse.
	ErrRecordCorrupt = errors.New("saved account record corrupt")

	// ErrNotFound is returned when a saved account does not exist.
	ErrNotFound = errors.New("saved account not found")

	// ErrInvalidInput is returned for rejected manual credentials.
	ErrInvalidInput = errors.New("invalid input")
)
