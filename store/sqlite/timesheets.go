package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/work-ledger/worktime"
)

// =============================================================================
// TIMESHEETS
// =============================================================================

const timesheetColumns = `id, employee_id, manager_id, fiscal_week, status, submitted_at, reviewed_at, review_notes, created_at`

func (s *Store) GetTimesheet(ctx context.Context, id worktime.TimesheetID) (*worktime.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.GetTimesheet(ctx, id)
}

func (s *Store) FindTimesheet(ctx context.Context, employeeID worktime.EmployeeID, week worktime.FiscalWeek) (*worktime.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.FindTimesheet(ctx, employeeID, week)
}

func (s *Store) ListTimesheets(ctx context.Context, employeeID worktime.EmployeeID) ([]worktime.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.ListTimesheets(ctx, employeeID)
}

func (s *Store) ListTimesheetsByManager(ctx context.Context, managerID worktime.EmployeeID, status worktime.TimesheetStatus) ([]worktime.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.ListTimesheetsByManager(ctx, managerID, status)
}

func (s *Store) InsertTimesheet(ctx context.Context, ts worktime.Timesheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries.InsertTimesheet(ctx, ts)
}

func (s *Store) UpdateTimesheet(ctx context.Context, ts worktime.Timesheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries.UpdateTimesheet(ctx, ts)
}

func (q *queries) GetTimesheet(ctx context.Context, id worktime.TimesheetID) (*worktime.Timesheet, error) {
	row := q.q.QueryRowContext(ctx, "SELECT "+timesheetColumns+" FROM timesheets WHERE id = ?", id)
	return q.scanTimesheetRow(row)
}

func (q *queries) FindTimesheet(ctx context.Context, employeeID worktime.EmployeeID, week worktime.FiscalWeek) (*worktime.Timesheet, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+timesheetColumns+" FROM timesheets WHERE employee_id = ? AND fiscal_week = ?",
		employeeID, week.String(),
	)
	return q.scanTimesheetRow(row)
}

func (q *queries) ListTimesheets(ctx context.Context, employeeID worktime.EmployeeID) ([]worktime.Timesheet, error) {
	return q.queryTimesheets(ctx,
		"SELECT "+timesheetColumns+" FROM timesheets WHERE employee_id = ? ORDER BY fiscal_week",
		employeeID,
	)
}

func (q *queries) ListTimesheetsByManager(ctx context.Context, managerID worktime.EmployeeID, status worktime.TimesheetStatus) ([]worktime.Timesheet, error) {
	return q.queryTimesheets(ctx,
		"SELECT "+timesheetColumns+" FROM timesheets WHERE manager_id = ? AND status = ? ORDER BY fiscal_week, employee_id",
		managerID, string(status),
	)
}

func (q *queries) InsertTimesheet(ctx context.Context, ts worktime.Timesheet) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO timesheets (`+timesheetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ts.ID, ts.EmployeeID, ts.ManagerID, ts.Week.String(), string(ts.Status),
		q.nullTime(ts.SubmittedAt), q.nullTime(ts.ReviewedAt), nullString(ts.ReviewNotes),
		q.formatTime(ts.CreatedAt),
	)
	return insertErr("timesheet", err)
}

func (q *queries) UpdateTimesheet(ctx context.Context, ts worktime.Timesheet) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE timesheets
		SET manager_id = ?, status = ?, submitted_at = ?, reviewed_at = ?, review_notes = ?
		WHERE id = ?
	`,
		ts.ManagerID, string(ts.Status), q.nullTime(ts.SubmittedAt), q.nullTime(ts.ReviewedAt),
		nullString(ts.ReviewNotes), ts.ID,
	)
	return updated(res, err, "timesheet", string(ts.ID))
}

func (q *queries) queryTimesheets(ctx context.Context, query string, args ...any) ([]worktime.Timesheet, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []worktime.Timesheet
	for rows.Next() {
		ts, err := q.scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, *ts)
	}
	return sheets, rows.Err()
}

func (q *queries) scanTimesheetRow(row *sql.Row) (*worktime.Timesheet, error) {
	ts, err := q.scanTimesheet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ts, err
}

type scanner interface {
	Scan(dest ...any) error
}

func (q *queries) scanTimesheet(sc scanner) (*worktime.Timesheet, error) {
	var ts worktime.Timesheet
	var week, status, createdAt string
	var submittedAt, reviewedAt, notes sql.NullString

	if err := sc.Scan(&ts.ID, &ts.EmployeeID, &ts.ManagerID, &week, &status,
		&submittedAt, &reviewedAt, &notes, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if ts.Week, err = worktime.ParseWeek(week); err != nil {
		return nil, fmt.Errorf("timesheet %s: %w", ts.ID, err)
	}
	ts.Status = worktime.TimesheetStatus(status)
	ts.ReviewNotes = notes.String
	if ts.SubmittedAt, err = q.parseNullTime(submittedAt); err != nil {
		return nil, err
	}
	if ts.ReviewedAt, err = q.parseNullTime(reviewedAt); err != nil {
		return nil, err
	}
	if ts.CreatedAt, err = q.parseTime(createdAt); err != nil {
		return nil, err
	}
	return &ts, nil
}

// =============================================================================
// WORK ENTRIES
// =============================================================================

const entryColumns = `id, timesheet_id, work_date, entry_type, label, description, hours, reason, created_at`

func (s *Store) GetEntry(ctx context.Context, id worktime.EntryID) (*worktime.WorkEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.GetEntry(ctx, id)
}

func (s *Store) ListEntries(ctx context.Context, timesheetID worktime.TimesheetID) ([]worktime.WorkEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.ListEntries(ctx, timesheetID)
}

func (s *Store) InsertEntry(ctx context.Context, entry worktime.WorkEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries.InsertEntry(ctx, entry)
}

func (s *Store) UpdateEntry(ctx context.Context, entry worktime.WorkEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries.UpdateEntry(ctx, entry)
}

func (s *Store) DeleteEntry(ctx context.Context, id worktime.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries.DeleteEntry(ctx, id)
}

func (q *queries) GetEntry(ctx context.Context, id worktime.EntryID) (*worktime.WorkEntry, error) {
	row := q.q.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM work_entries WHERE id = ?", id)
	entry, err := q.scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

func (q *queries) ListEntries(ctx context.Context, timesheetID worktime.TimesheetID) ([]worktime.WorkEntry, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM work_entries WHERE timesheet_id = ? ORDER BY work_date, created_at, id",
		timesheetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []worktime.WorkEntry
	for rows.Next() {
		entry, err := q.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (q *queries) InsertEntry(ctx context.Context, e worktime.WorkEntry) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO work_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.TimesheetID, e.WorkDate.String(), string(e.Type), nullString(e.Label),
		nullString(e.Description), e.Hours.String(), nullString(e.Reason), q.formatTime(e.CreatedAt),
	)
	return insertErr("work entry", err)
}

func (q *queries) UpdateEntry(ctx context.Context, e worktime.WorkEntry) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE work_entries
		SET work_date = ?, entry_type = ?, label = ?, description = ?, hours = ?, reason = ?
		WHERE id = ?
	`,
		e.WorkDate.String(), string(e.Type), nullString(e.Label), nullString(e.Description),
		e.Hours.String(), nullString(e.Reason), e.ID,
	)
	return updated(res, err, "work entry", string(e.ID))
}

func (q *queries) DeleteEntry(ctx context.Context, id worktime.EntryID) error {
	res, err := q.q.ExecContext(ctx, "DELETE FROM work_entries WHERE id = ?", id)
	return updated(res, err, "work entry", string(id))
}

func (q *queries) scanEntry(sc scanner) (*worktime.WorkEntry, error) {
	var e worktime.WorkEntry
	var workDate, entryType, hours, createdAt string
	var label, description, reason sql.NullString

	if err := sc.Scan(&e.ID, &e.TimesheetID, &workDate, &entryType, &label,
		&description, &hours, &reason, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if e.WorkDate, err = worktime.ParseDate(workDate); err != nil {
		return nil, fmt.Errorf("work entry %s: %w", e.ID, err)
	}
	if e.Hours, err = decimal.NewFromString(hours); err != nil {
		return nil, fmt.Errorf("work entry %s: %w", e.ID, err)
	}
	e.Type = worktime.EntryType(entryType)
	e.Label = label.String
	e.Description = description.String
	e.Reason = reason.String
	if e.CreatedAt, err = q.parseTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}
