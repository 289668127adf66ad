package domain

import "errors"

// Error kinds surfaced by the operation layer. Callers classify with
// errors.Is; the HTTP adapter maps each kind to a status code.
var (
	// ErrUnauthenticated means no caller identity could be resolved.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrAccessDenied means the caller lacks the required mine or user
	// relation. Also returned for records that do not exist, so that
	// unauthorized callers cannot probe for existence.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound means a referenced record is absent after an access
	// check has already passed.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means an argument is out of range or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means a write lost to a concurrent duplicate that the
	// store's constraints detected.
	ErrConflict = errors.New("conflict")
)
