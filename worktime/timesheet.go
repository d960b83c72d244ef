/*
timesheet.go - Timesheet Ledger

PURPOSE:
  Owns the weekly timesheet and its review workflow.

  draft ──submit──▶ submitted ──approve──▶ approved (terminal)
                        │
                        └──reject(notes)──▶ rejected ──submit──▶ submitted

ENFORCEMENT:
  GetOrCreateTimesheet is where the sequencing gate is enforced, not just
  advised: creating week N fails with a SequenceViolationError while an
  earlier week is unresolved (Monday grace aside).

CONCURRENCY:
  Creation is read-check-insert under the employee lock, with the store's
  (employee, week) uniqueness constraint as the backstop. A duplicate insert
  is treated as "already exists" and the row is re-fetched.
*/
package worktime

import (
	"context"
	"errors"
	"log"
	"strings"
)

// TimesheetView is a timesheet with its entries and read-time aggregation.
type TimesheetView struct {
	Timesheet Timesheet
	Entries   []WorkEntry
	Summary   WeekSummary
}

// GetOrCreateTimesheet returns the employee's timesheet for week, creating a
// draft routed to the employee's default manager when none exists.
func (e *Engine) GetOrCreateTimesheet(ctx context.Context, employeeID EmployeeID, week FiscalWeek) (*Timesheet, error) {
	var out *Timesheet
	err := e.mutate(ctx, employeeID, "get or create timesheet", func(s Store) error {
		ts, err := e.getOrCreateTimesheet(ctx, s, employeeID, week)
		out = ts
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) getOrCreateTimesheet(ctx context.Context, s Store, employeeID EmployeeID, week FiscalWeek) (*Timesheet, error) {
	existing, err := s.FindTimesheet(ctx, employeeID, week)
	if err != nil {
		return nil, persistErr("find timesheet", err)
	}
	if existing != nil {
		return existing, nil
	}

	if err := e.checkWeekSequence(ctx, s, employeeID, week); err != nil {
		return nil, err
	}
	managerID, err := e.resolveManager(ctx, s, employeeID, nil)
	if err != nil {
		return nil, err
	}

	ts := Timesheet{
		ID:         TimesheetID(e.newID()),
		EmployeeID: employeeID,
		ManagerID:  managerID,
		Week:       week,
		Status:     TimesheetDraft,
		CreatedAt:  e.now(),
	}
	if err := s.InsertTimesheet(ctx, ts); err != nil {
		if !errors.Is(err, ErrDuplicate) {
			return nil, persistErr("insert timesheet", err)
		}
		existing, err := s.FindTimesheet(ctx, employeeID, week)
		if err != nil {
			return nil, persistErr("find timesheet", err)
		}
		if existing == nil {
			return nil, &PersistenceError{Op: "insert timesheet", Err: ErrDuplicate}
		}
		return existing, nil
	}

	log.Printf("[Ledger] created timesheet %s for %s week %s (manager %s)", ts.ID, employeeID, week, managerID)
	return &ts, nil
}

// GetTimesheet returns the timesheet with its entries and summary.
func (e *Engine) GetTimesheet(ctx context.Context, id TimesheetID) (*TimesheetView, error) {
	ts, err := e.loadTimesheet(ctx, e.store, id)
	if err != nil {
		return nil, err
	}
	entries, err := e.store.ListEntries(ctx, id)
	if err != nil {
		return nil, persistErr("list entries", err)
	}
	return &TimesheetView{
		Timesheet: *ts,
		Entries:   entries,
		Summary:   Summarize(ts.Week, entries, e.dayHours),
	}, nil
}

// FindTimesheet returns the employee's timesheet for week without creating it.
func (e *Engine) FindTimesheet(ctx context.Context, employeeID EmployeeID, week FiscalWeek) (*Timesheet, error) {
	ts, err := e.store.FindTimesheet(ctx, employeeID, week)
	if err != nil {
		return nil, persistErr("find timesheet", err)
	}
	if ts == nil {
		return nil, notFound("timesheet", employeeID.String()+"/"+week.String())
	}
	return ts, nil
}

// SubmitTimesheet sends a draft or rejected timesheet for review. Every
// Monday-Saturday date must carry at least one entry.
func (e *Engine) SubmitTimesheet(ctx context.Context, id TimesheetID) (*Timesheet, error) {
	owner, err := e.timesheetOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	var out *Timesheet
	err = e.mutate(ctx, owner, "submit timesheet", func(s Store) error {
		ts, err := e.loadTimesheet(ctx, s, id)
		if err != nil {
			return err
		}
		if !ts.Status.Editable() {
			return &StateConflictError{Subject: "timesheet", ID: string(id), Status: string(ts.Status), Action: "submit"}
		}
		if err := e.checkWeekSequence(ctx, s, ts.EmployeeID, ts.Week); err != nil {
			return err
		}

		entries, err := s.ListEntries(ctx, id)
		if err != nil {
			return persistErr("list entries", err)
		}
		if missing := uncoveredDays(ts.Week, entries); len(missing) > 0 {
			return missingDaysError(missing)
		}

		ts.Status = TimesheetSubmitted
		ts.SubmittedAt = timePtr(e.now())
		ts.ReviewNotes = ""
		if err := s.UpdateTimesheet(ctx, *ts); err != nil {
			return persistErr("update timesheet", err)
		}
		out = ts
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Ledger] timesheet %s submitted to %s", out.ID, out.ManagerID)
	return out, nil
}

// ReviewTimesheet approves or rejects a submitted timesheet. Only the routed
// manager may review; rejection requires notes.
func (e *Engine) ReviewTimesheet(ctx context.Context, id TimesheetID, review Review) (*Timesheet, error) {
	owner, err := e.timesheetOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	notes, err := validateReview(review)
	if err != nil {
		return nil, err
	}

	var out *Timesheet
	err = e.mutate(ctx, owner, "review timesheet", func(s Store) error {
		ts, err := e.loadTimesheet(ctx, s, id)
		if err != nil {
			return err
		}
		if ts.Status != TimesheetSubmitted {
			return &StateConflictError{Subject: "timesheet", ID: string(id), Status: string(ts.Status), Action: string(review.Decision)}
		}
		if review.ReviewerID != ts.ManagerID {
			return ErrNotAssignedReviewer
		}

		ts.ReviewedAt = timePtr(e.now())
		if review.Decision == DecisionApprove {
			ts.Status = TimesheetApproved
			ts.ReviewNotes = ""
		} else {
			ts.Status = TimesheetRejected
			ts.ReviewNotes = notes
		}
		if err := s.UpdateTimesheet(ctx, *ts); err != nil {
			return persistErr("update timesheet", err)
		}
		out = ts
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Ledger] timesheet %s %s by %s", out.ID, out.Status, review.ReviewerID)
	return out, nil
}

// PendingTimesheetReviews lists submitted timesheets routed to managerID.
func (e *Engine) PendingTimesheetReviews(ctx context.Context, managerID EmployeeID) ([]Timesheet, error) {
	sheets, err := e.store.ListTimesheetsByManager(ctx, managerID, TimesheetSubmitted)
	if err != nil {
		return nil, persistErr("list timesheets", err)
	}
	return sheets, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (e *Engine) loadTimesheet(ctx context.Context, s Store, id TimesheetID) (*Timesheet, error) {
	ts, err := s.GetTimesheet(ctx, id)
	if err != nil {
		return nil, persistErr("get timesheet", err)
	}
	if ts == nil {
		return nil, notFound("timesheet", string(id))
	}
	return ts, nil
}

// timesheetOwner reads the owning employee before the lock is taken. The
// owner never changes, so the read is safe outside the transaction.
func (e *Engine) timesheetOwner(ctx context.Context, id TimesheetID) (EmployeeID, error) {
	ts, err := e.loadTimesheet(ctx, e.store, id)
	if err != nil {
		return "", err
	}
	return ts.EmployeeID, nil
}

func validateReview(r Review) (string, error) {
	notes := strings.TrimSpace(r.Notes)
	switch r.Decision {
	case DecisionApprove:
		return notes, nil
	case DecisionReject:
		if notes == "" {
			return "", invalid("notes_required", "rejection requires review notes")
		}
		return notes, nil
	default:
		return "", invalid("invalid_decision", "decision must be %q or %q", DecisionApprove, DecisionReject)
	}
}

func (id EmployeeID) String() string { return string(id) }
