// Package store provides in-memory worktime.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/work-ledger/worktime"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	tables
}

// tables holds the records and implements worktime.Store without locking.
// Memory locks around it; the transaction view uses it directly.
type tables struct {
	timesheets  map[worktime.TimesheetID]worktime.Timesheet
	entries     map[worktime.EntryID]worktime.WorkEntry
	submissions map[worktime.SubmissionID]worktime.DailySubmission
	attempts    map[worktime.AttemptID]worktime.ChecklistAttempt
}

type weekKey struct {
	EmployeeID worktime.EmployeeID
	Week       worktime.FiscalWeek
}

type dayKey struct {
	EmployeeID worktime.EmployeeID
	Date       worktime.Date
}

type attemptKey struct {
	SubmissionID     worktime.SubmissionID
	ResponsibilityID worktime.ResponsibilityID
	Seq              int
}

func newTables() tables {
	return tables{
		timesheets:  make(map[worktime.TimesheetID]worktime.Timesheet),
		entries:     make(map[worktime.EntryID]worktime.WorkEntry),
		submissions: make(map[worktime.SubmissionID]worktime.DailySubmission),
		attempts:    make(map[worktime.AttemptID]worktime.ChecklistAttempt),
	}
}

func NewMemory() *Memory {
	return &Memory{tables: newTables()}
}

func (m *Memory) GetTimesheet(ctx context.Context, id worktime.TimesheetID) (*worktime.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.GetTimesheet(ctx, id)
}

func (m *Memory) FindTimesheet(ctx context.Context, employeeID worktime.EmployeeID, week worktime.FiscalWeek) (*worktime.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.FindTimesheet(ctx, employeeID, week)
}

func (m *Memory) ListTimesheets(ctx context.Context, employeeID worktime.EmployeeID) ([]worktime.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.ListTimesheets(ctx, employeeID)
}

func (m *Memory) ListTimesheetsByManager(ctx context.Context, managerID worktime.EmployeeID, status worktime.TimesheetStatus) ([]worktime.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.ListTimesheetsByManager(ctx, managerID, status)
}

func (m *Memory) InsertTimesheet(ctx context.Context, ts worktime.Timesheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.InsertTimesheet(ctx, ts)
}

func (m *Memory) UpdateTimesheet(ctx context.Context, ts worktime.Timesheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.UpdateTimesheet(ctx, ts)
}

func (m *Memory) GetEntry(ctx context.Context, id worktime.EntryID) (*worktime.WorkEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.GetEntry(ctx, id)
}

func (m *Memory) ListEntries(ctx context.Context, timesheetID worktime.TimesheetID) ([]worktime.WorkEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.ListEntries(ctx, timesheetID)
}

func (m *Memory) InsertEntry(ctx context.Context, entry worktime.WorkEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.InsertEntry(ctx, entry)
}

func (m *Memory) UpdateEntry(ctx context.Context, entry worktime.WorkEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.UpdateEntry(ctx, entry)
}

func (m *Memory) DeleteEntry(ctx context.Context, id worktime.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.DeleteEntry(ctx, id)
}

func (m *Memory) GetSubmission(ctx context.Context, id worktime.SubmissionID) (*worktime.DailySubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.GetSubmission(ctx, id)
}

func (m *Memory) FindSubmission(ctx context.Context, employeeID worktime.EmployeeID, date worktime.Date) (*worktime.DailySubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.FindSubmission(ctx, employeeID, date)
}

func (m *Memory) ListSubmissions(ctx context.Context, employeeID worktime.EmployeeID, from, to worktime.Date) ([]worktime.DailySubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.ListSubmissions(ctx, employeeID, from, to)
}

func (m *Memory) InsertSubmission(ctx context.Context, sub worktime.DailySubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.InsertSubmission(ctx, sub)
}

func (m *Memory) UpdateSubmission(ctx context.Context, sub worktime.DailySubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.UpdateSubmission(ctx, sub)
}

func (m *Memory) GetAttempt(ctx context.Context, id worktime.AttemptID) (*worktime.ChecklistAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.GetAttempt(ctx, id)
}

func (m *Memory) ListAttempts(ctx context.Context, submissionID worktime.SubmissionID) ([]worktime.ChecklistAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.ListAttempts(ctx, submissionID)
}

func (m *Memory) ListAttemptsByManager(ctx context.Context, managerID worktime.EmployeeID, status worktime.TaskStatus) ([]worktime.ChecklistAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables.ListAttemptsByManager(ctx, managerID, status)
}

func (m *Memory) InsertAttempt(ctx context.Context, a worktime.ChecklistAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.InsertAttempt(ctx, a)
}

func (m *Memory) UpdateAttempt(ctx context.Context, a worktime.ChecklistAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.UpdateAttempt(ctx, a)
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(worktime.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.tables.clone()
	if err := fn(&tm.tables); err != nil {
		tm.tables = snapshot
		return err
	}
	return nil
}

func (t *tables) clone() tables {
	c := newTables()
	for k, v := range t.timesheets {
		c.timesheets[k] = v
	}
	for k, v := range t.entries {
		c.entries[k] = v
	}
	for k, v := range t.submissions {
		c.submissions[k] = v
	}
	for k, v := range t.attempts {
		c.attempts[k] = v
	}
	return c
}

// =============================================================================
// TABLE OPERATIONS (caller holds the lock)
// =============================================================================

func (t *tables) GetTimesheet(_ context.Context, id worktime.TimesheetID) (*worktime.Timesheet, error) {
	ts, ok := t.timesheets[id]
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

func (t *tables) FindTimesheet(_ context.Context, employeeID worktime.EmployeeID, week worktime.FiscalWeek) (*worktime.Timesheet, error) {
	for _, ts := range t.timesheets {
		if (weekKey{ts.EmployeeID, ts.Week}) == (weekKey{employeeID, week}) {
			return &ts, nil
		}
	}
	return nil, nil
}

func (t *tables) ListTimesheets(_ context.Context, employeeID worktime.EmployeeID) ([]worktime.Timesheet, error) {
	var out []worktime.Timesheet
	for _, ts := range t.timesheets {
		if ts.EmployeeID == employeeID {
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week.Before(out[j].Week) })
	return out, nil
}

func (t *tables) ListTimesheetsByManager(_ context.Context, managerID worktime.EmployeeID, status worktime.TimesheetStatus) ([]worktime.Timesheet, error) {
	var out []worktime.Timesheet
	for _, ts := range t.timesheets {
		if ts.ManagerID == managerID && ts.Status == status {
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week.Before(out[j].Week)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func (t *tables) InsertTimesheet(ctx context.Context, ts worktime.Timesheet) error {
	if _, ok := t.timesheets[ts.ID]; ok {
		return worktime.ErrDuplicate
	}
	if existing, _ := t.FindTimesheet(ctx, ts.EmployeeID, ts.Week); existing != nil {
		return worktime.ErrDuplicate
	}
	t.timesheets[ts.ID] = ts
	return nil
}

func (t *tables) UpdateTimesheet(_ context.Context, ts worktime.Timesheet) error {
	if _, ok := t.timesheets[ts.ID]; !ok {
		return worktime.ErrNotFound
	}
	t.timesheets[ts.ID] = ts
	return nil
}

func (t *tables) GetEntry(_ context.Context, id worktime.EntryID) (*worktime.WorkEntry, error) {
	e, ok := t.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (t *tables) ListEntries(_ context.Context, timesheetID worktime.TimesheetID) ([]worktime.WorkEntry, error) {
	var out []worktime.WorkEntry
	for _, e := range t.entries {
		if e.TimesheetID == timesheetID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkDate != out[j].WorkDate {
			return out[i].WorkDate.Before(out[j].WorkDate)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tables) InsertEntry(_ context.Context, e worktime.WorkEntry) error {
	if _, ok := t.entries[e.ID]; ok {
		return worktime.ErrDuplicate
	}
	if _, ok := t.timesheets[e.TimesheetID]; !ok {
		return worktime.ErrNotFound
	}
	t.entries[e.ID] = e
	return nil
}

func (t *tables) UpdateEntry(_ context.Context, e worktime.WorkEntry) error {
	if _, ok := t.entries[e.ID]; !ok {
		return worktime.ErrNotFound
	}
	t.entries[e.ID] = e
	return nil
}

func (t *tables) DeleteEntry(_ context.Context, id worktime.EntryID) error {
	if _, ok := t.entries[id]; !ok {
		return worktime.ErrNotFound
	}
	delete(t.entries, id)
	return nil
}

func (t *tables) GetSubmission(_ context.Context, id worktime.SubmissionID) (*worktime.DailySubmission, error) {
	s, ok := t.submissions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (t *tables) FindSubmission(_ context.Context, employeeID worktime.EmployeeID, date worktime.Date) (*worktime.DailySubmission, error) {
	for _, s := range t.submissions {
		if (dayKey{s.EmployeeID, s.Date}) == (dayKey{employeeID, date}) {
			return &s, nil
		}
	}
	return nil, nil
}

func (t *tables) ListSubmissions(_ context.Context, employeeID worktime.EmployeeID, from, to worktime.Date) ([]worktime.DailySubmission, error) {
	var out []worktime.DailySubmission
	for _, s := range t.submissions {
		if s.EmployeeID == employeeID && !s.Date.Before(from) && !s.Date.After(to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (t *tables) InsertSubmission(ctx context.Context, s worktime.DailySubmission) error {
	if _, ok := t.submissions[s.ID]; ok {
		return worktime.ErrDuplicate
	}
	if existing, _ := t.FindSubmission(ctx, s.EmployeeID, s.Date); existing != nil {
		return worktime.ErrDuplicate
	}
	t.submissions[s.ID] = s
	return nil
}

func (t *tables) UpdateSubmission(_ context.Context, s worktime.DailySubmission) error {
	if _, ok := t.submissions[s.ID]; !ok {
		return worktime.ErrNotFound
	}
	t.submissions[s.ID] = s
	return nil
}

func (t *tables) GetAttempt(_ context.Context, id worktime.AttemptID) (*worktime.ChecklistAttempt, error) {
	a, ok := t.attempts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *tables) ListAttempts(_ context.Context, submissionID worktime.SubmissionID) ([]worktime.ChecklistAttempt, error) {
	var out []worktime.ChecklistAttempt
	for _, a := range t.attempts {
		if a.SubmissionID == submissionID {
			out = append(out, a)
		}
	}
	sortAttempts(out)
	return out, nil
}

func (t *tables) ListAttemptsByManager(_ context.Context, managerID worktime.EmployeeID, status worktime.TaskStatus) ([]worktime.ChecklistAttempt, error) {
	var out []worktime.ChecklistAttempt
	for _, a := range t.attempts {
		if a.ManagerID == managerID && a.Status == status {
			out = append(out, a)
		}
	}
	sortAttempts(out)
	return out, nil
}

func (t *tables) InsertAttempt(_ context.Context, a worktime.ChecklistAttempt) error {
	if _, ok := t.attempts[a.ID]; ok {
		return worktime.ErrDuplicate
	}
	if _, ok := t.submissions[a.SubmissionID]; !ok {
		return worktime.ErrNotFound
	}
	k := attemptKey{a.SubmissionID, a.ResponsibilityID, a.Seq}
	for _, other := range t.attempts {
		if (attemptKey{other.SubmissionID, other.ResponsibilityID, other.Seq}) == k {
			return worktime.ErrDuplicate
		}
	}
	t.attempts[a.ID] = a
	return nil
}

func (t *tables) UpdateAttempt(_ context.Context, a worktime.ChecklistAttempt) error {
	if _, ok := t.attempts[a.ID]; !ok {
		return worktime.ErrNotFound
	}
	t.attempts[a.ID] = a
	return nil
}

func sortAttempts(out []worktime.ChecklistAttempt) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmissionID != out[j].SubmissionID {
			return out[i].SubmissionID < out[j].SubmissionID
		}
		if out[i].ResponsibilityID != out[j].ResponsibilityID {
			return out[i].ResponsibilityID < out[j].ResponsibilityID
		}
		return out[i].Seq < out[j].Seq
	})
}
