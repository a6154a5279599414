package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the root of every local validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidAmount is returned for amounts that are not positive finite numbers.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be a positive number", ErrInvalidInput)
	// ErrNoOwner is returned when an owner-scoped record has no owner reference.
	ErrNoOwner = fmt.Errorf("%w: missing owner", ErrInvalidInput)

	// ErrNotFound covers both absent rows and rows owned by someone else.
	// The two cases are deliberately indistinguishable to callers.
	ErrNotFound = errors.New("not found or no permission")

	// ErrMissingCredential is returned before any network call when neither a
	// per-request nor a process-wide credential is available.
	ErrMissingCredential = errors.New("missing credential")

	// ErrMalformedUpstream is returned when a successful upstream response cannot be decoded.
	ErrMalformedUpstream = errors.New("malformed upstream response")

	// ErrUnauthenticated is returned when an owner-scoped operation runs without a resolved user.
	ErrUnauthenticated = errors.New("authentication required")
)

// ValidationError describes a rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// UpstreamError carries a non-success response from an external service verbatim.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: status=%d body=%s", e.Service, e.Status, e.Body)
}
