// Package common defines shared constants, helpers and sentinel errors used
// across the server layers of profdocs. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Identity and access errors.
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidPassphrase   = fmt.Errorf("%w: invalid signup passphrase", ErrForbidden)
	ErrInvalidToken        = errors.New("invalid token")
	ErrPasswordRequired    = errors.New("password required")
	ErrWrongPassword       = errors.New("wrong password")
	ErrUnlockTicketExpired = errors.New("unlock ticket expired")

	// Hierarchy and upload errors.
	ErrLimitExceeded      = errors.New("limit exceeded")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrInvalidType        = fmt.Errorf("%w: invalid document type", ErrInvariantViolation)
	ErrProtectedChapter   = fmt.Errorf("%w: chapters 1 and 2 cannot be deleted", ErrInvariantViolation)
	ErrDocumentTooLarge   = fmt.Errorf("%w: document too large", ErrInvariantViolation)
	ErrTooManyPages       = fmt.Errorf("%w: too many pages", ErrInvariantViolation)
	ErrValidation         = errors.New("validation error")

	// Delivery errors.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrMalformedDocument   = errors.New("malformed document")

	// Operational errors.
	ErrMissingSettings = errors.New("settings are missing, seed the database")
	ErrInternal        = errors.New("internal error")
)
