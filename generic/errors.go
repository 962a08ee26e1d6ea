/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Errors are returned as values; nothing in the engine panics on bad input
  and nothing retries internally.

ERROR CATEGORIES:
  1. Computation errors - NoBaseSalary, InvalidAmount
  2. Validation errors  - MissingDuration, invalid enum values
  3. Window errors      - Locked (absence outside its edit window)
  4. Store errors       - NotFound, ActiveBaseSalaryExists, DuplicateIdempotencyKey

USAGE:
  Domain packages return these directly or wrap them:

    if errors.Is(err, generic.ErrNoBaseSalary) {
        // offer base salary creation
    }

SEE ALSO:
  - payroll/calculator.go: Returns ErrNoBaseSalary and InvalidAmountError
  - absence/pricing.go: Returns ErrMissingDuration
  - api/errors.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoBaseSalary is returned when payroll is requested for an employee
	// with no base salary in effect on the date. Recoverable by creating one.
	ErrNoBaseSalary = errors.New("no base salary in effect")

	// ErrInvalidAmount is returned for negative, zero (where positive is
	// required) or non-finite monetary input. Never coerced.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrMissingDuration is returned when a permission has no duration.
	ErrMissingDuration = errors.New("duration is required for permissions")

	// ErrInvalidInput is returned for malformed enum values and similar.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned by stores when a record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrLocked is returned when an absence is modified outside its edit window.
	ErrLocked = errors.New("record is locked for payroll")

	// ErrActiveBaseSalaryExists is returned when a second active base salary
	// would be stored for the same employee.
	ErrActiveBaseSalaryExists = errors.New("employee already has an active base salary")

	// ErrDuplicateIdempotencyKey is returned when a record with the same
	// idempotency key already exists. Expected on form double-submits.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAmountError names the offending field and value.
type InvalidAmountError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount for %s (%s): %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidAmountError) Unwrap() error {
	return ErrInvalidAmount
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// LockedError provides details about a closed edit window.
type LockedError struct {
	ID          AbsenceID
	EventDate   TimePoint
	LockedSince time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("absence %s dated %s is locked since %s",
		e.ID, e.EventDate, e.LockedSince.Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error {
	return ErrLocked
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingDuration) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsConflict returns true if the request conflicts with stored state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrActiveBaseSalaryExists) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoBaseSalary)
}
