/*
bridge.go - Cross-Ledger Bridge

PURPOSE:
  Turns a completed checklist task into a work entry on the same day's
  timesheet. This is the only write that spans both ledgers; it runs inside
  the EndTask transaction so the task and the entry commit together.

FALLBACK:
  When the week cannot legally take the entry the task still completes and
  a BridgeWarning is returned instead of an entry:
    - an earlier week is unresolved (sequence_blocked)
    - the week's timesheet is submitted or approved (timesheet_locked)
    - the elapsed time is not a loggable duration (invalid_duration)
  Manager resolution and store failures are fatal and roll back the task.
*/
package worktime

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

const (
	WarnSequenceBlocked = "sequence_blocked"
	WarnTimesheetLocked = "timesheet_locked"
	WarnInvalidDuration = "invalid_duration"
)

// BridgeWarning tells the caller to log the hours manually later.
type BridgeWarning struct {
	Code     string
	Message  string
	Date     Date
	Hours    decimal.Decimal
	Blocking *FiscalWeek // set for sequence_blocked
}

func (w *BridgeWarning) String() string { return w.Message }

// postCompletedTask posts the attempt's elapsed hours as a work entry. It
// must run in the caller's transaction.
func (e *Engine) postCompletedTask(ctx context.Context, s Store, sub *DailySubmission, a *ChecklistAttempt) (*WorkEntry, *BridgeWarning, error) {
	hours := ElapsedHours(*a.StartTime, *a.EndTime)
	week := WeekOf(sub.Date)

	ts, err := e.getOrCreateTimesheet(ctx, s, sub.EmployeeID, week)
	if err == nil {
		err = e.checkWeekSequence(ctx, s, sub.EmployeeID, week)
	}
	var seq *SequenceViolationError
	if errors.As(err, &seq) {
		w := &BridgeWarning{
			Code:     WarnSequenceBlocked,
			Message:  fmt.Sprintf("%s hours not logged: resolve week %s first, then log them manually", hours.StringFixed(hoursScale), seq.Week),
			Date:     sub.Date,
			Hours:    hours,
			Blocking: seq.Week,
		}
		return nil, e.warn(sub, w), nil
	}
	if err != nil {
		return nil, nil, err
	}

	if !ts.Status.Editable() {
		w := &BridgeWarning{
			Code:    WarnTimesheetLocked,
			Message: fmt.Sprintf("%s hours not logged: timesheet for week %s is %s", hours.StringFixed(hoursScale), week, ts.Status),
			Date:    sub.Date,
			Hours:   hours,
		}
		return nil, e.warn(sub, w), nil
	}

	label := string(a.ResponsibilityID)
	var description string
	resp, err := e.catalogIn(s).GetResponsibility(ctx, a.ResponsibilityID)
	if err != nil {
		return nil, nil, persistErr("get responsibility", err)
	}
	if resp != nil && resp.TaskName != "" {
		label, description = resp.TaskName, resp.Description
	}

	in := EntryInput{WorkDate: sub.Date, Type: EntryWork, Label: label, Description: description, Hours: hours}
	if err := validateEntry(in); err != nil {
		w := &BridgeWarning{
			Code:    WarnInvalidDuration,
			Message: fmt.Sprintf("%s hours not logged: %v", hours.StringFixed(hoursScale), err),
			Date:    sub.Date,
			Hours:   hours,
		}
		return nil, e.warn(sub, w), nil
	}

	entry := WorkEntry{
		ID:          EntryID(e.newID()),
		TimesheetID: ts.ID,
		WorkDate:    in.WorkDate,
		Type:        in.Type,
		Label:       in.Label,
		Description: in.Description,
		Hours:       in.Hours,
		CreatedAt:   e.now(),
	}
	if err := s.InsertEntry(ctx, entry); err != nil {
		return nil, nil, persistErr("insert entry", err)
	}
	log.Printf("[Bridge] posted %sh of %q to timesheet %s (%s)", hours.StringFixed(hoursScale), label, ts.ID, sub.Date)
	return &entry, nil, nil
}

func (e *Engine) warn(sub *DailySubmission, w *BridgeWarning) *BridgeWarning {
	log.Printf("[Bridge] %s on %s for %s: %s", w.Code, sub.Date, sub.EmployeeID, w.Message)
	return w
}
