/*
period.go - Period Resolver

PURPOSE:
  Decides which week (timesheets) or day (checklist) an employee must act on
  now. History may not be skipped: the first unresolved period since the
  employee's earliest record is returned instead of the current one.

WEEKLY RULES:
  - Scan from the earliest recorded timesheet week up to, not including, the
    current week.
  - A week is unresolved if it has no timesheet, or its timesheet is draft or
    rejected.
  - Monday grace: when today is Monday and the only unresolved week is the one
    immediately before, it is surfaced as a grace period. Writes to the
    current week are still accepted until it is resolved. Older unresolved
    weeks never get grace.

DAILY RULES:
  - Scan Monday-Saturday days inside the lookback window (and after the
    employee's start date), starting at the earliest submission in that
    window.
  - A day is resolved when, for every active responsibility on its roster,
    the latest attempt is submitted or approved, or when the timesheet
    records a holiday or leave for that date.

NO HISTORY:
  With nothing recorded the current week / today is active.
*/
package worktime

import (
	"context"
	"time"
)

// =============================================================================
// WEEKLY
// =============================================================================

// WeekResolution is the answer to "which week must this employee act on?".
type WeekResolution struct {
	EmployeeID EmployeeID
	Today      Date
	Current    FiscalWeek
	Active     FiscalWeek

	// Blocked is set when Active is an earlier week that must be resolved
	// before anything is written to Current.
	Blocked bool

	// Grace is set when Active is last week under the Monday exception.
	// Current stays writable.
	Grace bool
}

// ResolveActivePeriod returns the week the employee must act on.
func (e *Engine) ResolveActivePeriod(ctx context.Context, employeeID EmployeeID) (*WeekResolution, error) {
	today := e.today()
	current := WeekOf(today)
	res := &WeekResolution{EmployeeID: employeeID, Today: today, Current: current, Active: current}

	blocking, err := e.firstUnresolvedWeek(ctx, e.store, employeeID, current)
	if err != nil {
		return nil, err
	}
	if blocking == nil {
		return res, nil
	}
	res.Active = *blocking
	if graceApplies(today, current, *blocking) {
		res.Grace = true
	} else {
		res.Blocked = true
	}
	return res, nil
}

// firstUnresolvedWeek scans [earliest recorded week, before) in order.
func (e *Engine) firstUnresolvedWeek(ctx context.Context, s Store, employeeID EmployeeID, before FiscalWeek) (*FiscalWeek, error) {
	sheets, err := s.ListTimesheets(ctx, employeeID)
	if err != nil {
		return nil, persistErr("list timesheets", err)
	}
	if len(sheets) == 0 {
		return nil, nil
	}

	byWeek := make(map[FiscalWeek]Timesheet, len(sheets))
	earliest := sheets[0].Week
	for _, ts := range sheets {
		byWeek[ts.Week] = ts
		if ts.Week.Before(earliest) {
			earliest = ts.Week
		}
	}

	for w := earliest; w.Before(before); w = w.Next() {
		ts, ok := byWeek[w]
		if !ok || !ts.Status.Resolved() {
			blocking := w
			return &blocking, nil
		}
	}
	return nil, nil
}

// graceApplies is the Monday exception: only the immediately preceding week.
func graceApplies(today Date, current, blocking FiscalWeek) bool {
	return today.Weekday() == time.Monday && blocking == current.Prev()
}

// checkWeekSequence is the enforcement point for writes to week. It fails
// with a SequenceViolationError naming the earliest unresolved earlier week.
func (e *Engine) checkWeekSequence(ctx context.Context, s Store, employeeID EmployeeID, week FiscalWeek) error {
	blocking, err := e.firstUnresolvedWeek(ctx, s, employeeID, week)
	if err != nil || blocking == nil {
		return err
	}
	today := e.today()
	current := WeekOf(today)
	if week == current && graceApplies(today, current, *blocking) {
		return nil
	}
	return &SequenceViolationError{EmployeeID: employeeID, Week: blocking}
}

// =============================================================================
// DAILY
// =============================================================================

// DayResolution is the answer to "which day's checklist must be worked on?".
type DayResolution struct {
	EmployeeID EmployeeID
	Today      Date
	Active     Date
	Blocked    bool
}

// ResolveActiveDay returns the checklist day the employee must act on.
func (e *Engine) ResolveActiveDay(ctx context.Context, employeeID EmployeeID) (*DayResolution, error) {
	today := e.today()
	res := &DayResolution{EmployeeID: employeeID, Today: today, Active: today}

	blocking, err := e.firstUnresolvedDay(ctx, e.store, employeeID, today)
	if err != nil {
		return nil, err
	}
	if blocking != nil {
		res.Active = *blocking
		res.Blocked = true
	}
	return res, nil
}

// checkDaySequence fails with a SequenceViolationError when a day before
// date is unresolved.
func (e *Engine) checkDaySequence(ctx context.Context, s Store, employeeID EmployeeID, date Date) error {
	blocking, err := e.firstUnresolvedDay(ctx, s, employeeID, date)
	if err != nil || blocking == nil {
		return err
	}
	return &SequenceViolationError{EmployeeID: employeeID, Day: blocking}
}

func (e *Engine) firstUnresolvedDay(ctx context.Context, s Store, employeeID EmployeeID, before Date) (*Date, error) {
	emp, err := e.directoryIn(s).GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, persistErr("get employee", err)
	}
	if emp == nil {
		return nil, notFound("employee", string(employeeID))
	}

	from := before.AddDays(-e.lookback)
	if emp.StartDate != nil {
		from = MaxDate(from, *emp.StartDate)
	}
	subs, err := s.ListSubmissions(ctx, employeeID, from, before.AddDays(-1))
	if err != nil {
		return nil, persistErr("list submissions", err)
	}
	if len(subs) == 0 {
		return nil, nil
	}

	resps, err := e.catalogIn(s).ActiveResponsibilities(ctx, employeeID)
	if err != nil {
		return nil, persistErr("list responsibilities", err)
	}
	active := make(map[ResponsibilityID]bool, len(resps))
	for _, r := range resps {
		active[r.ID] = true
	}

	byDate := make(map[Date]DailySubmission, len(subs))
	for _, sub := range subs {
		byDate[sub.Date] = sub
	}
	absences := make(map[FiscalWeek]map[Date]bool)

	for d := MaxDate(from, subs[0].Date); d.Before(before); d = d.AddDays(1) {
		if d.IsSunday() {
			continue
		}
		if sub, ok := byDate[d]; ok {
			resolved, err := submissionResolved(ctx, s, sub, active)
			if err != nil {
				return nil, err
			}
			if resolved {
				continue
			}
		}
		absent, err := e.absentOn(ctx, s, employeeID, d, absences)
		if err != nil {
			return nil, err
		}
		if !absent {
			blocking := d
			return &blocking, nil
		}
	}
	return nil, nil
}

// submissionResolved judges a day by the attempts it already holds. An active
// responsibility with no attempt that day, typically one added afterwards,
// does not hold the day open.
func submissionResolved(ctx context.Context, s Store, sub DailySubmission, active map[ResponsibilityID]bool) (bool, error) {
	attempts, err := s.ListAttempts(ctx, sub.ID)
	if err != nil {
		return false, persistErr("list attempts", err)
	}
	for _, a := range latestAttempts(attempts) {
		if active[a.ResponsibilityID] && !a.Status.Resolved() {
			return false, nil
		}
	}
	return true, nil
}

// absentOn reports whether the week's timesheet records a holiday or leave on
// d. Results are cached per week in cache.
func (e *Engine) absentOn(ctx context.Context, s Store, employeeID EmployeeID, d Date, cache map[FiscalWeek]map[Date]bool) (bool, error) {
	week := WeekOf(d)
	days, ok := cache[week]
	if !ok {
		days = make(map[Date]bool)
		ts, err := s.FindTimesheet(ctx, employeeID, week)
		if err != nil {
			return false, persistErr("find timesheet", err)
		}
		if ts != nil {
			entries, err := s.ListEntries(ctx, ts.ID)
			if err != nil {
				return false, persistErr("list entries", err)
			}
			for _, en := range entries {
				if en.Type.IsAbsence() {
					days[en.WorkDate] = true
				}
			}
		}
		cache[week] = days
	}
	return days[d], nil
}
