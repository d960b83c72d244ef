/*
entries.go - Work Entry Store

PURPOSE:
  Day-level entries owned by a timesheet. Entries may only change while the
  owning timesheet is draft or rejected, and every write passes the weekly
  sequencing gate.

ENTRY RULES:
  work                         label required, hours > 0
  holiday                      label required, hours = 0
  leave                        reason required, hours = 0
  half_day                     reason required, hours > 0
  no_internet/power_cut/
  system_failure               reason required, hours > 0
  other                        reason required
  every type                   0 <= hours <= 24, Monday-Saturday only

GRACE RE-HOMING:
  On a Monday with last week under grace, an entry added through this
  week's timesheet but dated last week is filed into last week's timesheet
  (created if missing). An entry's date always lies inside its own
  timesheet's week.
*/
package worktime

import (
	"context"
	"log"
	"strings"

	"github.com/shopspring/decimal"
)

var maxEntryHours = decimal.NewFromInt(24)

// EntryInput carries the caller-editable fields of a work entry.
type EntryInput struct {
	WorkDate    Date
	Type        EntryType
	Label       string
	Description string
	Hours       decimal.Decimal
	Reason      string
}

func (in EntryInput) normalized() EntryInput {
	in.Label = strings.TrimSpace(in.Label)
	in.Description = strings.TrimSpace(in.Description)
	in.Reason = strings.TrimSpace(in.Reason)
	return in
}

// AddEntry records an entry through the given timesheet.
func (e *Engine) AddEntry(ctx context.Context, timesheetID TimesheetID, in EntryInput) (*WorkEntry, error) {
	owner, err := e.timesheetOwner(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	in = in.normalized()
	if err := validateEntry(in); err != nil {
		return nil, err
	}

	var out *WorkEntry
	err = e.mutate(ctx, owner, "add entry", func(s Store) error {
		ts, err := e.loadTimesheet(ctx, s, timesheetID)
		if err != nil {
			return err
		}
		if !ts.Status.Editable() {
			return &StateConflictError{Subject: "timesheet", ID: string(ts.ID), Status: string(ts.Status), Action: "add entry to"}
		}

		target, err := e.entryTimesheet(ctx, s, ts, in.WorkDate)
		if err != nil {
			return err
		}
		if err := e.checkWeekSequence(ctx, s, target.EmployeeID, target.Week); err != nil {
			return err
		}

		entry := WorkEntry{
			ID:          EntryID(e.newID()),
			TimesheetID: target.ID,
			WorkDate:    in.WorkDate,
			Type:        in.Type,
			Label:       in.Label,
			Description: in.Description,
			Hours:       in.Hours,
			Reason:      in.Reason,
			CreatedAt:   e.now(),
		}
		if err := s.InsertEntry(ctx, entry); err != nil {
			return persistErr("insert entry", err)
		}
		out = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateEntry replaces the editable fields of an entry. The new date must
// stay inside the entry's own week.
func (e *Engine) UpdateEntry(ctx context.Context, id EntryID, in EntryInput) (*WorkEntry, error) {
	owner, err := e.entryOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	in = in.normalized()
	if err := validateEntry(in); err != nil {
		return nil, err
	}

	var out *WorkEntry
	err = e.mutate(ctx, owner, "update entry", func(s Store) error {
		entry, ts, err := e.loadEntry(ctx, s, id)
		if err != nil {
			return err
		}
		if !ts.Status.Editable() {
			return &StateConflictError{Subject: "timesheet", ID: string(ts.ID), Status: string(ts.Status), Action: "edit entry of"}
		}
		if !ts.Week.Contains(in.WorkDate) {
			return invalid("date_out_of_week", "work date %s is outside week %s", in.WorkDate, ts.Week)
		}
		if err := e.checkWeekSequence(ctx, s, ts.EmployeeID, ts.Week); err != nil {
			return err
		}

		entry.WorkDate = in.WorkDate
		entry.Type = in.Type
		entry.Label = in.Label
		entry.Description = in.Description
		entry.Hours = in.Hours
		entry.Reason = in.Reason
		if err := s.UpdateEntry(ctx, *entry); err != nil {
			return persistErr("update entry", err)
		}
		out = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) DeleteEntry(ctx context.Context, id EntryID) error {
	owner, err := e.entryOwner(ctx, id)
	if err != nil {
		return err
	}
	return e.mutate(ctx, owner, "delete entry", func(s Store) error {
		_, ts, err := e.loadEntry(ctx, s, id)
		if err != nil {
			return err
		}
		if !ts.Status.Editable() {
			return &StateConflictError{Subject: "timesheet", ID: string(ts.ID), Status: string(ts.Status), Action: "delete entry from"}
		}
		if err := e.checkWeekSequence(ctx, s, ts.EmployeeID, ts.Week); err != nil {
			return err
		}
		if err := s.DeleteEntry(ctx, id); err != nil {
			return persistErr("delete entry", err)
		}
		return nil
	})
}

// =============================================================================
// VALIDATION
// =============================================================================

func validateEntry(in EntryInput) error {
	if !in.Type.Valid() {
		return invalid("invalid_type", "unknown entry type %q", in.Type)
	}
	if in.WorkDate.IsZero() {
		return invalid("date_required", "work date is required")
	}
	if in.WorkDate.IsSunday() {
		return invalid("sunday", "%s is a Sunday; entries are Monday to Saturday only", in.WorkDate)
	}
	if in.Hours.IsNegative() {
		return invalid("invalid_hours", "hours must not be negative")
	}
	if in.Hours.GreaterThan(maxEntryHours) {
		return invalid("invalid_hours", "hours must not exceed 24")
	}

	switch in.Type {
	case EntryWork:
		if in.Label == "" {
			return invalid("label_required", "work entries need a label")
		}
		if !in.Hours.IsPositive() {
			return invalid("invalid_hours", "work entries need positive hours")
		}
	case EntryHoliday:
		if in.Label == "" {
			return invalid("label_required", "holiday entries need a label")
		}
		if !in.Hours.IsZero() {
			return invalid("invalid_hours", "holiday entries must have zero hours")
		}
	case EntryLeave:
		if in.Reason == "" {
			return invalid("reason_required", "leave entries need a reason")
		}
		if !in.Hours.IsZero() {
			return invalid("invalid_hours", "leave entries must have zero hours")
		}
	case EntryHalfDay, EntryNoInternet, EntryPowerCut, EntrySystemFailure:
		if in.Reason == "" {
			return invalid("reason_required", "%s entries need a reason", in.Type)
		}
		if !in.Hours.IsPositive() {
			return invalid("invalid_hours", "%s entries need positive hours", in.Type)
		}
	case EntryOther:
		if in.Reason == "" {
			return invalid("reason_required", "other entries need a reason")
		}
	}
	return nil
}

// entryTimesheet picks the timesheet an entry dated d belongs to when added
// through ts.
func (e *Engine) entryTimesheet(ctx context.Context, s Store, ts *Timesheet, d Date) (*Timesheet, error) {
	if ts.Week.Contains(d) {
		return ts, nil
	}

	today := e.today()
	current := WeekOf(today)
	prev := current.Prev()
	if ts.Week != current || !prev.Contains(d) {
		return nil, invalid("date_out_of_week", "work date %s is outside week %s", d, ts.Week)
	}
	blocking, err := e.firstUnresolvedWeek(ctx, s, ts.EmployeeID, current)
	if err != nil {
		return nil, err
	}
	if blocking == nil || !graceApplies(today, current, *blocking) {
		return nil, invalid("date_out_of_week", "work date %s is outside week %s", d, ts.Week)
	}

	target, err := e.getOrCreateTimesheet(ctx, s, ts.EmployeeID, prev)
	if err != nil {
		return nil, err
	}
	if !target.Status.Editable() {
		return nil, &StateConflictError{Subject: "timesheet", ID: string(target.ID), Status: string(target.Status), Action: "add entry to"}
	}
	log.Printf("[Ledger] grace entry for %s dated %s filed into week %s", ts.EmployeeID, d, prev)
	return target, nil
}

func (e *Engine) loadEntry(ctx context.Context, s Store, id EntryID) (*WorkEntry, *Timesheet, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, nil, persistErr("get entry", err)
	}
	if entry == nil {
		return nil, nil, notFound("entry", string(id))
	}
	ts, err := e.loadTimesheet(ctx, s, entry.TimesheetID)
	if err != nil {
		return nil, nil, err
	}
	return entry, ts, nil
}

func (e *Engine) entryOwner(ctx context.Context, id EntryID) (EmployeeID, error) {
	_, ts, err := e.loadEntry(ctx, e.store, id)
	if err != nil {
		return "", err
	}
	return ts.EmployeeID, nil
}
