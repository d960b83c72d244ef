/*
Package worktime implements the Work-Time Ledger: weekly timesheets, the
daily responsibility checklist, and the bridge that posts completed checklist
work into the timesheet of the same day.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee / Responsibility: read-only records owned by the directory and
    admin subsystems. The ledger only holds weak references to them.
  - Timesheet / WorkEntry: one timesheet per (employee, fiscal week), owning
    its day-level entries.
  - DailySubmission / ChecklistAttempt: one submission per (employee, date),
    owning an append-only history of attempts per responsibility.

STATE MACHINES:
  Timesheet:  draft -> submitted -> approved
                          |
                          +--> rejected -> submitted (notes cleared)

  Attempt:    pending -> started -> completed -> submitted -> approved
                                                    |
                                                    +--> rejected
              rejected --retry--> NEW attempt: pending (is_correction)

  The current state of a (submission, responsibility) pair is the state of
  its latest attempt. Rejected attempts are never moved back to pending.

SEE ALSO:
  - calendar.go: Date, FiscalWeek, Clock
  - errors.go: typed errors returned by every operation
  - store.go: persistence and directory interfaces
*/
package worktime

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type ResponsibilityID string
type TimesheetID string
type EntryID string
type SubmissionID string
type AttemptID string

// =============================================================================
// DIRECTORY RECORDS (read-only)
// =============================================================================

// Employee is read from the external directory. Managers are employees too.
type Employee struct {
	ID               EmployeeID
	Name             string
	DefaultManagerID EmployeeID // empty when the directory has no assignment
	StartDate        *Date      // bounds the daily lookback when set
}

// Responsibility is a daily task template from the admin catalog.
type Responsibility struct {
	ID                ResponsibilityID
	EmployeeID        EmployeeID
	TaskName          string
	Description       string
	ManagerOverrideID EmployeeID // empty = use the employee's default manager
	Active            bool
}

// =============================================================================
// TIMESHEET
// =============================================================================

type TimesheetStatus string

const (
	TimesheetDraft     TimesheetStatus = "draft"
	TimesheetSubmitted TimesheetStatus = "submitted"
	TimesheetApproved  TimesheetStatus = "approved"
	TimesheetRejected  TimesheetStatus = "rejected"
)

// Editable reports whether entries may be added, changed or removed.
func (s TimesheetStatus) Editable() bool {
	return s == TimesheetDraft || s == TimesheetRejected
}

// Resolved reports whether the week no longer blocks later weeks.
func (s TimesheetStatus) Resolved() bool {
	return s == TimesheetSubmitted || s == TimesheetApproved
}

type Timesheet struct {
	ID          TimesheetID
	EmployeeID  EmployeeID
	ManagerID   EmployeeID
	Week        FiscalWeek
	Status      TimesheetStatus
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	ReviewNotes string
	CreatedAt   time.Time
}

// =============================================================================
// WORK ENTRY
// =============================================================================

type EntryType string

const (
	EntryWork          EntryType = "work"
	EntryHoliday       EntryType = "holiday"
	EntryLeave         EntryType = "leave"
	EntryHalfDay       EntryType = "half_day"
	EntryNoInternet    EntryType = "no_internet"
	EntryPowerCut      EntryType = "power_cut"
	EntrySystemFailure EntryType = "system_failure"
	EntryOther         EntryType = "other"
)

var entryTypes = map[EntryType]bool{
	EntryWork: true, EntryHoliday: true, EntryLeave: true, EntryHalfDay: true,
	EntryNoInternet: true, EntryPowerCut: true, EntrySystemFailure: true, EntryOther: true,
}

func (t EntryType) Valid() bool { return entryTypes[t] }

// IsAbsence is true for types that represent a day not worked at all.
func (t EntryType) IsAbsence() bool { return t == EntryHoliday || t == EntryLeave }

// IsDowntime is true for types that record hours lost to infrastructure.
func (t EntryType) IsDowntime() bool {
	return t == EntryNoInternet || t == EntryPowerCut || t == EntrySystemFailure
}

type WorkEntry struct {
	ID          EntryID
	TimesheetID TimesheetID
	WorkDate    Date
	Type        EntryType
	Label       string
	Description string
	Hours       decimal.Decimal
	Reason      string
	CreatedAt   time.Time
}

// =============================================================================
// DAILY CHECKLIST
// =============================================================================

// SubmissionStatus is a projection over the latest attempt states. It is
// stored for queries but never set independently.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionStarted   SubmissionStatus = "started"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionApproved  SubmissionStatus = "approved"
	SubmissionRejected  SubmissionStatus = "rejected"
)

type DailySubmission struct {
	ID          SubmissionID
	EmployeeID  EmployeeID
	Date        Date
	ManagerID   EmployeeID // default manager snapshot
	Status      SubmissionStatus
	StartTime   *time.Time
	EndTime     *time.Time
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	CreatedAt   time.Time
}

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskStarted   TaskStatus = "started"
	TaskCompleted TaskStatus = "completed"
	TaskSubmitted TaskStatus = "submitted"
	TaskApproved  TaskStatus = "approved"
	TaskRejected  TaskStatus = "rejected"
)

// Resolved reports whether the task no longer blocks later days.
func (s TaskStatus) Resolved() bool { return s == TaskSubmitted || s == TaskApproved }

// Reviewed reports whether a manager has decided on the attempt.
func (s TaskStatus) Reviewed() bool { return s == TaskApproved || s == TaskRejected }

// ChecklistAttempt is one row of the retry history for a responsibility on a
// given day. Seq starts at 1 and increases by one per retry.
type ChecklistAttempt struct {
	ID                AttemptID
	SubmissionID      SubmissionID
	ResponsibilityID  ResponsibilityID
	ManagerID         EmployeeID
	Seq               int
	Status            TaskStatus
	IsCorrection      bool
	StartTime         *time.Time
	EndTime           *time.Time
	SubmittedAt       *time.Time
	ReviewedAt        *time.Time
	ReviewNotes       string
	ResubmissionNotes string
	CreatedAt         time.Time
}

// =============================================================================
// REVIEW
// =============================================================================

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Review is a manager decision on a timesheet or a checklist attempt.
type Review struct {
	ReviewerID EmployeeID
	Decision   Decision
	Notes      string
}
