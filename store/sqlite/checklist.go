package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/work-ledger/worktime"
)

// =============================================================================
// DAILY SUBMISSIONS
// =============================================================================

const submissionColumns = `id, employee_id, work_date, manager_id, status, start_time, end_time, submitted_at, reviewed_at, created_at`

func (s *Store) GetSubmission(ctx context.Context, id worktime.SubmissionID) (*worktime.DailySubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.GetSubmission(ctx, id)
}

func (s *Store) FindSubmission(ctx context.Context, employeeID worktime.EmployeeID, date worktime.Date) (*worktime.DailySubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.FindSubmission(ctx, employeeID, date)
}

func (s *Store) ListSubmissions(ctx context.Context, employeeID worktime.EmployeeID, from, to worktime.Date) ([]worktime.DailySubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.ListSubmissions(ctx, employeeID, from, to)
}

func (s *Store) InsertSubmission(ctx context.Context, sub worktime.DailySubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries.InsertSubmission(ctx, sub)
}

func (s *Store) UpdateSubmission(ctx context.Context, sub worktime.DailySubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries.UpdateSubmission(ctx, sub)
}

func (q *queries) GetSubmission(ctx context.Context, id worktime.SubmissionID) (*worktime.DailySubmission, error) {
	row := q.q.QueryRowContext(ctx, "SELECT "+submissionColumns+" FROM daily_submissions WHERE id = ?", id)
	sub, err := q.scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sub, err
}

func (q *queries) FindSubmission(ctx context.Context, employeeID worktime.EmployeeID, date worktime.Date) (*worktime.DailySubmission, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+submissionColumns+" FROM daily_submissions WHERE employee_id = ? AND work_date = ?",
		employeeID, date.String(),
	)
	sub, err := q.scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sub, err
}

func (q *queries) ListSubmissions(ctx context.Context, employeeID worktime.EmployeeID, from, to worktime.Date) ([]worktime.DailySubmission, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+submissionColumns+` FROM daily_submissions
		WHERE employee_id = ? AND work_date >= ? AND work_date <= ?
		ORDER BY work_date
	`, employeeID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []worktime.DailySubmission
	for rows.Next() {
		sub, err := q.scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (q *queries) InsertSubmission(ctx context.Context, sub worktime.DailySubmission) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO daily_submissions (`+submissionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sub.ID, sub.EmployeeID, sub.Date.String(), sub.ManagerID, string(sub.Status),
		q.nullTime(sub.StartTime), q.nullTime(sub.EndTime), q.nullTime(sub.SubmittedAt),
		q.nullTime(sub.ReviewedAt), q.formatTime(sub.CreatedAt),
	)
	return insertErr("daily submission", err)
}

func (q *queries) UpdateSubmission(ctx context.Context, sub worktime.DailySubmission) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE daily_submissions
		SET manager_id = ?, status = ?, start_time = ?, end_time = ?, submitted_at = ?, reviewed_at = ?
		WHERE id = ?
	`,
		sub.ManagerID, string(sub.Status), q.nullTime(sub.StartTime), q.nullTime(sub.EndTime),
		q.nullTime(sub.SubmittedAt), q.nullTime(sub.ReviewedAt), sub.ID,
	)
	return updated(res, err, "daily submission", string(sub.ID))
}

func (q *queries) scanSubmission(sc scanner) (*worktime.DailySubmission, error) {
	var sub worktime.DailySubmission
	var date, status, createdAt string
	var start, end, submitted, reviewed sql.NullString

	if err := sc.Scan(&sub.ID, &sub.EmployeeID, &date, &sub.ManagerID, &status,
		&start, &end, &submitted, &reviewed, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if sub.Date, err = worktime.ParseDate(date); err != nil {
		return nil, fmt.Errorf("daily submission %s: %w", sub.ID, err)
	}
	sub.Status = worktime.SubmissionStatus(status)
	if sub.StartTime, err = q.parseNullTime(start); err != nil {
		return nil, err
	}
	if sub.EndTime, err = q.parseNullTime(end); err != nil {
		return nil, err
	}
	if sub.SubmittedAt, err = q.parseNullTime(submitted); err != nil {
		return nil, err
	}
	if sub.ReviewedAt, err = q.parseNullTime(reviewed); err != nil {
		return nil, err
	}
	if sub.CreatedAt, err = q.parseTime(createdAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// =============================================================================
// CHECKLIST ATTEMPTS (append-only: no DELETE)
// =============================================================================

const attemptColumns = `id, submission_id, responsibility_id, manager_id, seq, status, is_correction,
	start_time, end_time, submitted_at, reviewed_at, review_notes, resubmission_notes, created_at`

func (s *Store) GetAttempt(ctx context.Context, id worktime.AttemptID) (*worktime.ChecklistAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.GetAttempt(ctx, id)
}

func (s *Store) ListAttempts(ctx context.Context, submissionID worktime.SubmissionID) ([]worktime.ChecklistAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.ListAttempts(ctx, submissionID)
}

func (s *Store) ListAttemptsByManager(ctx context.Context, managerID worktime.EmployeeID, status worktime.TaskStatus) ([]worktime.ChecklistAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries.ListAttemptsByManager(ctx, managerID, status)
}

func (s *Store) InsertAttempt(ctx context.Context, a worktime.ChecklistAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries.InsertAttempt(ctx, a)
}

func (s *Store) UpdateAttempt(ctx context.Context, a worktime.ChecklistAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries.UpdateAttempt(ctx, a)
}

func (q *queries) GetAttempt(ctx context.Context, id worktime.AttemptID) (*worktime.ChecklistAttempt, error) {
	row := q.q.QueryRowContext(ctx, "SELECT "+attemptColumns+" FROM checklist_attempts WHERE id = ?", id)
	a, err := q.scanAttempt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (q *queries) ListAttempts(ctx context.Context, submissionID worktime.SubmissionID) ([]worktime.ChecklistAttempt, error) {
	return q.queryAttempts(ctx,
		"SELECT "+attemptColumns+" FROM checklist_attempts WHERE submission_id = ? ORDER BY responsibility_id, seq",
		submissionID,
	)
}

func (q *queries) ListAttemptsByManager(ctx context.Context, managerID worktime.EmployeeID, status worktime.TaskStatus) ([]worktime.ChecklistAttempt, error) {
	return q.queryAttempts(ctx,
		"SELECT "+attemptColumns+" FROM checklist_attempts WHERE manager_id = ? AND status = ? ORDER BY submission_id, responsibility_id, seq",
		managerID, string(status),
	)
}

func (q *queries) InsertAttempt(ctx context.Context, a worktime.ChecklistAttempt) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO checklist_attempts (`+attemptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.SubmissionID, a.ResponsibilityID, a.ManagerID, a.Seq, string(a.Status),
		boolInt(a.IsCorrection), q.nullTime(a.StartTime), q.nullTime(a.EndTime),
		q.nullTime(a.SubmittedAt), q.nullTime(a.ReviewedAt), nullString(a.ReviewNotes),
		nullString(a.ResubmissionNotes), q.formatTime(a.CreatedAt),
	)
	return insertErr("checklist attempt", err)
}

// UpdateAttempt never rewrites identity columns (submission, responsibility,
// seq, is_correction).
func (q *queries) UpdateAttempt(ctx context.Context, a worktime.ChecklistAttempt) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE checklist_attempts
		SET manager_id = ?, status = ?, start_time = ?, end_time = ?, submitted_at = ?,
			reviewed_at = ?, review_notes = ?, resubmission_notes = ?
		WHERE id = ?
	`,
		a.ManagerID, string(a.Status), q.nullTime(a.StartTime), q.nullTime(a.EndTime),
		q.nullTime(a.SubmittedAt), q.nullTime(a.ReviewedAt), nullString(a.ReviewNotes),
		nullString(a.ResubmissionNotes), a.ID,
	)
	return updated(res, err, "checklist attempt", string(a.ID))
}

func (q *queries) queryAttempts(ctx context.Context, query string, args ...any) ([]worktime.ChecklistAttempt, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []worktime.ChecklistAttempt
	for rows.Next() {
		a, err := q.scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

func (q *queries) scanAttempt(sc scanner) (*worktime.ChecklistAttempt, error) {
	var a worktime.ChecklistAttempt
	var status, createdAt string
	var correction int
	var start, end, submitted, reviewed, reviewNotes, resubmissionNotes sql.NullString

	if err := sc.Scan(&a.ID, &a.SubmissionID, &a.ResponsibilityID, &a.ManagerID, &a.Seq,
		&status, &correction, &start, &end, &submitted, &reviewed,
		&reviewNotes, &resubmissionNotes, &createdAt); err != nil {
		return nil, err
	}

	a.Status = worktime.TaskStatus(status)
	a.IsCorrection = correction != 0
	a.ReviewNotes = reviewNotes.String
	a.ResubmissionNotes = resubmissionNotes.String

	var err error
	if a.StartTime, err = q.parseNullTime(start); err != nil {
		return nil, err
	}
	if a.EndTime, err = q.parseNullTime(end); err != nil {
		return nil, err
	}
	if a.SubmittedAt, err = q.parseNullTime(submitted); err != nil {
		return nil, err
	}
	if a.ReviewedAt, err = q.parseNullTime(reviewed); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = q.parseTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}
