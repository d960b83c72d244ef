/*
errors.go - Centralized error types for the work-time ledger

ERROR CATEGORIES:
  1. Validation      - caller input is wrong (missing day coverage, empty
                       reason, bad duration). Recoverable by fixing input.
  2. Sequence        - an earlier week or day is unresolved. Carries the
                       blocking period so the caller can redirect there.
  3. State conflict  - transition attempted from an illegal state.
  4. Manager         - no reviewer could be resolved. Configuration problem;
                       nothing is created.
  5. Persistence     - store failure. Safe to retry the whole operation.

USAGE:
  ts, err := engine.GetOrCreateTimesheet(ctx, emp, week)
  var seq *worktime.SequenceViolationError
  if errors.As(err, &seq) {
      // send the user to seq.Week first
  }
*/
package worktime

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation = errors.New("validation failed")

	ErrSequenceViolation = errors.New("earlier period is unresolved")

	ErrStateConflict = errors.New("illegal state transition")

	// ErrManagerResolution is fatal: creation of timesheets and submissions
	// is blocked rather than storing a null reviewer.
	ErrManagerResolution = errors.New("no reviewing manager could be resolved")

	ErrPersistence = errors.New("persistence failure")

	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned by stores when a uniqueness constraint fires.
	// Callers treat it as "already exists" and re-fetch.
	ErrDuplicate = errors.New("record already exists")

	ErrNotAssignedReviewer = errors.New("reviewer is not the assigned manager")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes invalid input. MissingDays is set when a
// timesheet submission lacks coverage.
type ValidationError struct {
	Code        string
	Message     string
	MissingDays []Date
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func missingDaysError(days []Date) *ValidationError {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.Weekday().String()
	}
	return &ValidationError{
		Code:        "missing_days",
		Message:     "no entries logged for " + strings.Join(names, ", "),
		MissingDays: days,
	}
}

// SequenceViolationError names the earliest unresolved period. Exactly one of
// Week and Day is set.
type SequenceViolationError struct {
	EmployeeID EmployeeID
	Week       *FiscalWeek
	Day        *Date
}

func (e *SequenceViolationError) Error() string {
	if e.Week != nil {
		return fmt.Sprintf("week %s must be resolved first", e.Week)
	}
	return fmt.Sprintf("day %s must be resolved first", e.Day)
}

func (e *SequenceViolationError) Unwrap() error { return ErrSequenceViolation }

// StateConflictError reports a transition attempted from the wrong state.
type StateConflictError struct {
	Subject string // "timesheet" or "task"
	ID      string
	Status  string
	Action  string
	Detail  string
}

func (e *StateConflictError) Error() string {
	msg := fmt.Sprintf("cannot %s %s %s in status %s", e.Action, e.Subject, e.ID, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StateConflictError) Unwrap() error { return ErrStateConflict }

type ManagerResolutionError struct {
	EmployeeID       EmployeeID
	ResponsibilityID ResponsibilityID
}

func (e *ManagerResolutionError) Error() string {
	return fmt.Sprintf("no manager assigned for employee %s", e.EmployeeID)
}

func (e *ManagerResolutionError) Unwrap() error { return ErrManagerResolution }

// PersistenceError wraps a store failure. It matches both ErrPersistence and
// the underlying error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// persistErr wraps store errors that are not already domain errors.
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrSequenceViolation, ErrStateConflict, ErrManagerResolution,
		ErrPersistence, ErrNotFound, ErrDuplicate, ErrNotAssignedReviewer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if re-running the whole operation may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsClientError returns true if the caller can fix the problem.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrSequenceViolation) ||
		errors.Is(err, ErrStateConflict) ||
		errors.Is(err, ErrNotAssignedReviewer)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
