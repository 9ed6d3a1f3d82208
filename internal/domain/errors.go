package domain

import "errors"

// Error taxonomy shared by every component. Repositories translate backing
// store failures into these; handlers map them onto HTTP statuses.
var (
	// ErrNotFound indicates a missing user, content, interaction or notification.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden indicates the actor does not own the resource being mutated.
	ErrForbidden = errors.New("actor does not own resource")

	// ErrInvalidOperation indicates a structurally invalid request such as a
	// self-follow or self-notification.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrQuotaExceeded indicates a rate limiter denial.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrInvalidCursor indicates a malformed or tampered pagination token.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrConflict indicates an optimistic precondition failed, such as a
	// duplicate create.
	ErrConflict = errors.New("conflict")

	// ErrUpstreamUnavailable indicates the backing store could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
