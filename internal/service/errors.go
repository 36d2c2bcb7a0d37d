package service

import "errors"

// Domain sentinels returned by services. The handler layer maps them to
// RFC 9457 problem responses; everything else is treated as internal.
var (
	// ErrNotFound indicates the resource does not exist or does not
	// belong to the caller. Ownership failures are indistinguishable
	// from absence on purpose.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidSchedule indicates an unusable recurrence rule or a
	// check-in date outside the habit's valid range
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrConflict indicates a write the domain forbids, such as
	// checking in on an archived habit
	ErrConflict = errors.New("conflict")
)
