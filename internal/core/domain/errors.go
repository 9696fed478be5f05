package domain

import "errors"

// Closed error taxonomy for the application core. Every failure that crosses a
// package boundary is one of these kinds (possibly wrapped with context), so
// callers branch with errors.Is instead of matching message strings.
var (
	// ErrUnauthenticated is returned when an operation requires a signed-in
	// identity and none is present.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrInvalidCredentials is returned when the auth backend rejects an
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is returned when a single-row query matches nothing.
	// Existence checks treat it as a negative result, not a failure.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a remote uniqueness constraint rejects a
	// write (duplicate handle, duplicate follow edge or like). Conflicts from
	// concurrent toggles are benign and retryable.
	ErrConflict = errors.New("conflicting write")

	// ErrRemote wraps any other gateway failure (network, 5xx, malformed
	// response). It is reported to the user, never fatal to the process.
	ErrRemote = errors.New("gateway request failed")

	// ErrInvalidInput is returned when client-side validation rejects a write
	// before it reaches the gateway.
	ErrInvalidInput = errors.New("invalid input")
)
