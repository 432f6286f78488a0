package service

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	// ErrValidation marks an intent rejected before any version was
	// created: payload outside policy bounds, or a patch that would be a
	// no-op (e.g. the exercise to swap does not exist).
	ErrValidation = errors.New("validation failed")

	// ErrNoCurrentPlan means there is no current plan of the requested
	// type to patch. No version is created and the pointer is untouched.
	ErrNoCurrentPlan = errors.New("no current plan")

	// ErrVersionConflict is returned when version numbering still collides
	// after the bounded retry budget. In practice this requires a
	// pathological number of concurrent writers for one user.
	ErrVersionConflict = errors.New("version number conflict")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
