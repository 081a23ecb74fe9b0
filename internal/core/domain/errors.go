package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrAmbiguous indicates more than one entity satisfied a lookup that
	// required exactly one.
	ErrAmbiguous = errors.New("ambiguous match")

	// ErrMalformedInput indicates a value read from an external source
	// (a sheet cell, a filename) could not be parsed.
	ErrMalformedInput = errors.New("malformed input")

	// ErrConfigInvalid indicates the configuration file failed validation.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrRunInProgress indicates a workflow is already running.
	ErrRunInProgress = errors.New("run in progress")

	// Collaborator Errors.

	// ErrTransientIO indicates a collaborator call failed in a way that may
	// succeed if retried (timeouts, 5xx responses, dropped connections).
	ErrTransientIO = errors.New("transient I/O failure")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Authentication Errors.

	// ErrAuthRequired indicates credentials are required but none are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the credentials are invalid or revoked.
	ErrAuthInvalid = errors.New("authentication invalid")
)

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientIO) || errors.Is(err, ErrRateLimited)
}
