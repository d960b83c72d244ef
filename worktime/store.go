/*
store.go - Persistence and collaborator interfaces

KEY INTERFACES:
  Store:     Timesheets, work entries, daily submissions, checklist attempts
  TxStore:   Store plus WithTx for atomic multi-record writes
  Directory: Employee lookups (external, read-only)
  Catalog:   Responsibility lookups (external, read-only)

LOOKUP CONVENTION:
  Find and Get methods return (nil, nil) when the record does not exist. The engine
  turns that into ErrNotFound where a record is required.

UNIQUENESS:
  InsertTimesheet must fail with ErrDuplicate when (employee, week) exists.
  InsertSubmission must fail with ErrDuplicate when (employee, date) exists.
  InsertAttempt must fail with ErrDuplicate when (submission, responsibility,
  seq) exists. The engine treats ErrDuplicate as "already exists, re-fetch".

ATTEMPTS ARE APPEND-ONLY:
  There is no DeleteAttempt. UpdateAttempt only moves an attempt forward
  through its own state machine; retries insert a new row.

IMPLEMENTATIONS:
  - worktime/store/memory.go: in-memory, for tests and dev
  - store/sqlite/sqlite.go: SQLite
*/
package worktime

import "context"

type Store interface {
	GetTimesheet(ctx context.Context, id TimesheetID) (*Timesheet, error)
	FindTimesheet(ctx context.Context, employeeID EmployeeID, week FiscalWeek) (*Timesheet, error)
	// ListTimesheets returns the employee's timesheets ordered by week ascending.
	ListTimesheets(ctx context.Context, employeeID EmployeeID) ([]Timesheet, error)
	ListTimesheetsByManager(ctx context.Context, managerID EmployeeID, status TimesheetStatus) ([]Timesheet, error)
	InsertTimesheet(ctx context.Context, ts Timesheet) error
	UpdateTimesheet(ctx context.Context, ts Timesheet) error

	GetEntry(ctx context.Context, id EntryID) (*WorkEntry, error)
	// ListEntries returns entries ordered by work date, then creation.
	ListEntries(ctx context.Context, timesheetID TimesheetID) ([]WorkEntry, error)
	InsertEntry(ctx context.Context, entry WorkEntry) error
	UpdateEntry(ctx context.Context, entry WorkEntry) error
	DeleteEntry(ctx context.Context, id EntryID) error

	GetSubmission(ctx context.Context, id SubmissionID) (*DailySubmission, error)
	FindSubmission(ctx context.Context, employeeID EmployeeID, date Date) (*DailySubmission, error)
	// ListSubmissions returns submissions with from <= date <= to, ascending.
	ListSubmissions(ctx context.Context, employeeID EmployeeID, from, to Date) ([]DailySubmission, error)
	InsertSubmission(ctx context.Context, sub DailySubmission) error
	UpdateSubmission(ctx context.Context, sub DailySubmission) error

	GetAttempt(ctx context.Context, id AttemptID) (*ChecklistAttempt, error)
	// ListAttempts returns every attempt of a submission ordered by
	// responsibility, then Seq ascending.
	ListAttempts(ctx context.Context, submissionID SubmissionID) ([]ChecklistAttempt, error)
	ListAttemptsByManager(ctx context.Context, managerID EmployeeID, status TaskStatus) ([]ChecklistAttempt, error)
	InsertAttempt(ctx context.Context, attempt ChecklistAttempt) error
	UpdateAttempt(ctx context.Context, attempt ChecklistAttempt) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. fn must use the
	// Store it is given, never the outer one.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Directory is the external employee directory.
type Directory interface {
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
}

// Catalog is the external responsibility catalog.
type Catalog interface {
	GetResponsibility(ctx context.Context, id ResponsibilityID) (*Responsibility, error)
	// ActiveResponsibilities returns the employee's active responsibilities.
	ActiveResponsibilities(ctx context.Context, employeeID EmployeeID) ([]Responsibility, error)
}
