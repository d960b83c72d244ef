/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO:      response types returned to clients
  - *Request:  request bodies, validated with go-playground/validator tags
  - *Response: wrappers combining several DTOs

FORMATS:
  Dates are "2006-01-02" in the business timezone, weeks are "2025-W10",
  timestamps are RFC 3339 and hours are decimal numbers.

SEE ALSO:
  - handlers.go: uses these types
  - errors.go: ErrorResponse
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/work-ledger/worktime"
)

// =============================================================================
// REQUESTS
// =============================================================================

type CreateTimesheetRequest struct {
	Week string `json:"week" validate:"required"`
}

type ReviewRequest struct {
	ReviewerID string `json:"reviewer_id" validate:"required"`
	Decision   string `json:"decision" validate:"required,oneof=approve reject"`
	Notes      string `json:"notes" validate:"required_if=Decision reject"`
}

func (r ReviewRequest) review() worktime.Review {
	return worktime.Review{
		ReviewerID: worktime.EmployeeID(r.ReviewerID),
		Decision:   worktime.Decision(r.Decision),
		Notes:      r.Notes,
	}
}

// EntryRequest is the body of both create and update. Type-specific rules
// (label vs reason, zero hours for absences) are enforced by the ledger.
type EntryRequest struct {
	WorkDate    string          `json:"work_date" validate:"required,datetime=2006-01-02"`
	Type        string          `json:"type" validate:"required"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Hours       decimal.Decimal `json:"hours"`
	Reason      string          `json:"reason"`
}

type EnsureChecklistRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type SubmitTaskRequest struct {
	Notes string `json:"notes"`
}

// =============================================================================
// PERIODS
// =============================================================================

type PeriodDTO struct {
	EmployeeID string `json:"employee_id"`
	Today      string `json:"today"`
	Current    string `json:"current_week"`
	Active     string `json:"active_week"`
	Blocked    bool   `json:"blocked"`
	Grace      bool   `json:"grace"`
}

type DayDTO struct {
	EmployeeID string `json:"employee_id"`
	Today      string `json:"today"`
	Active     string `json:"active_date"`
	Blocked    bool   `json:"blocked"`
}

// =============================================================================
// TIMESHEETS
// =============================================================================

type TimesheetDTO struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	ManagerID   string  `json:"manager_id"`
	Week        string  `json:"week"`
	WeekStart   string  `json:"week_start"`
	WeekEnd     string  `json:"week_end"`
	Status      string  `json:"status"`
	SubmittedAt *string `json:"submitted_at,omitempty"`
	ReviewedAt  *string `json:"reviewed_at,omitempty"`
	ReviewNotes string  `json:"review_notes,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type EntryDTO struct {
	ID          string          `json:"id"`
	TimesheetID string          `json:"timesheet_id"`
	WorkDate    string          `json:"work_date"`
	Type        string          `json:"type"`
	Label       string          `json:"label,omitempty"`
	Description string          `json:"description,omitempty"`
	Hours       decimal.Decimal `json:"hours"`
	Reason      string          `json:"reason,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

type DaySummaryDTO struct {
	Date          string          `json:"date"`
	Weekday       string          `json:"weekday"`
	Entries       int             `json:"entries"`
	LoggedHours   decimal.Decimal `json:"logged_hours"`
	DowntimeHours decimal.Decimal `json:"downtime_hours"`
	ExpectedHours decimal.Decimal `json:"expected_hours"`
	Absence       string          `json:"absence,omitempty"`
}

type SummaryDTO struct {
	Days          []DaySummaryDTO `json:"days"`
	LoggedHours   decimal.Decimal `json:"logged_hours"`
	DowntimeHours decimal.Decimal `json:"downtime_hours"`
	ExpectedHours decimal.Decimal `json:"expected_hours"`
	MissingDays   []string        `json:"missing_days"`
}

type TimesheetResponse struct {
	Timesheet TimesheetDTO `json:"timesheet"`
	Entries   []EntryDTO   `json:"entries"`
	Summary   SummaryDTO   `json:"summary"`
}

// =============================================================================
// CHECKLIST
// =============================================================================

type SubmissionDTO struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	Date        string  `json:"date"`
	ManagerID   string  `json:"manager_id"`
	Status      string  `json:"status"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	SubmittedAt *string `json:"submitted_at,omitempty"`
	ReviewedAt  *string `json:"reviewed_at,omitempty"`
}

type AttemptDTO struct {
	ID                string  `json:"id"`
	SubmissionID      string  `json:"submission_id"`
	ResponsibilityID  string  `json:"responsibility_id"`
	ManagerID         string  `json:"manager_id"`
	Seq               int     `json:"seq"`
	Status            string  `json:"status"`
	IsCorrection      bool    `json:"is_correction"`
	StartTime         *string `json:"start_time,omitempty"`
	EndTime           *string `json:"end_time,omitempty"`
	SubmittedAt       *string `json:"submitted_at,omitempty"`
	ReviewedAt        *string `json:"reviewed_at,omitempty"`
	ReviewNotes       string  `json:"review_notes,omitempty"`
	ResubmissionNotes string  `json:"resubmission_notes,omitempty"`
}

type TaskDTO struct {
	ResponsibilityID string     `json:"responsibility_id"`
	TaskName         string     `json:"task_name"`
	Description      string     `json:"description,omitempty"`
	Attempts         int        `json:"attempts"`
	Current          AttemptDTO `json:"current"`
}

type ChecklistResponse struct {
	Submission SubmissionDTO `json:"submission"`
	Tasks      []TaskDTO     `json:"tasks"`
}

type BridgeWarningDTO struct {
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Date     string          `json:"date"`
	Hours    decimal.Decimal `json:"hours"`
	Blocking string          `json:"blocking_week,omitempty"`
}

type EndTaskResponse struct {
	Attempt AttemptDTO        `json:"attempt"`
	Entry   *EntryDTO         `json:"entry,omitempty"`
	Warning *BridgeWarningDTO `json:"warning,omitempty"`
}

type ReviewQueueResponse struct {
	ManagerID  string         `json:"manager_id"`
	Timesheets []TimesheetDTO `json:"timesheets"`
	Tasks      []AttemptDTO   `json:"tasks"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toTimesheetDTO(ts worktime.Timesheet) TimesheetDTO {
	return TimesheetDTO{
		ID:          string(ts.ID),
		EmployeeID:  string(ts.EmployeeID),
		ManagerID:   string(ts.ManagerID),
		Week:        ts.Week.String(),
		WeekStart:   ts.Week.Monday().String(),
		WeekEnd:     ts.Week.Saturday().String(),
		Status:      string(ts.Status),
		SubmittedAt: formatTime(ts.SubmittedAt),
		ReviewedAt:  formatTime(ts.ReviewedAt),
		ReviewNotes: ts.ReviewNotes,
		CreatedAt:   ts.CreatedAt.Format(time.RFC3339),
	}
}

func toTimesheetDTOs(sheets []worktime.Timesheet) []TimesheetDTO {
	dtos := make([]TimesheetDTO, len(sheets))
	for i, ts := range sheets {
		dtos[i] = toTimesheetDTO(ts)
	}
	return dtos
}

func toEntryDTO(en worktime.WorkEntry) EntryDTO {
	return EntryDTO{
		ID:          string(en.ID),
		TimesheetID: string(en.TimesheetID),
		WorkDate:    en.WorkDate.String(),
		Type:        string(en.Type),
		Label:       en.Label,
		Description: en.Description,
		Hours:       en.Hours,
		Reason:      en.Reason,
		CreatedAt:   en.CreatedAt.Format(time.RFC3339),
	}
}

func toSummaryDTO(sum worktime.WeekSummary) SummaryDTO {
	dto := SummaryDTO{
		Days:          make([]DaySummaryDTO, len(sum.Days)),
		LoggedHours:   sum.LoggedHours,
		DowntimeHours: sum.DowntimeHours,
		ExpectedHours: sum.ExpectedHours,
		MissingDays:   dateStrings(sum.MissingDays),
	}
	for i, d := range sum.Days {
		dto.Days[i] = DaySummaryDTO{
			Date:          d.Date.String(),
			Weekday:       d.Date.Weekday().String(),
			Entries:       d.Entries,
			LoggedHours:   d.LoggedHours,
			DowntimeHours: d.DowntimeHours,
			ExpectedHours: d.ExpectedHours,
			Absence:       string(d.Absence),
		}
	}
	return dto
}

func toTimesheetResponse(view *worktime.TimesheetView) TimesheetResponse {
	resp := TimesheetResponse{
		Timesheet: toTimesheetDTO(view.Timesheet),
		Entries:   make([]EntryDTO, len(view.Entries)),
		Summary:   toSummaryDTO(view.Summary),
	}
	for i, en := range view.Entries {
		resp.Entries[i] = toEntryDTO(en)
	}
	return resp
}

func toSubmissionDTO(sub worktime.DailySubmission) SubmissionDTO {
	return SubmissionDTO{
		ID:          string(sub.ID),
		EmployeeID:  string(sub.EmployeeID),
		Date:        sub.Date.String(),
		ManagerID:   string(sub.ManagerID),
		Status:      string(sub.Status),
		StartTime:   formatTime(sub.StartTime),
		EndTime:     formatTime(sub.EndTime),
		SubmittedAt: formatTime(sub.SubmittedAt),
		ReviewedAt:  formatTime(sub.ReviewedAt),
	}
}

func toAttemptDTO(a worktime.ChecklistAttempt) AttemptDTO {
	return AttemptDTO{
		ID:                string(a.ID),
		SubmissionID:      string(a.SubmissionID),
		ResponsibilityID:  string(a.ResponsibilityID),
		ManagerID:         string(a.ManagerID),
		Seq:               a.Seq,
		Status:            string(a.Status),
		IsCorrection:      a.IsCorrection,
		StartTime:         formatTime(a.StartTime),
		EndTime:           formatTime(a.EndTime),
		SubmittedAt:       formatTime(a.SubmittedAt),
		ReviewedAt:        formatTime(a.ReviewedAt),
		ReviewNotes:       a.ReviewNotes,
		ResubmissionNotes: a.ResubmissionNotes,
	}
}

func toAttemptDTOs(attempts []worktime.ChecklistAttempt) []AttemptDTO {
	dtos := make([]AttemptDTO, len(attempts))
	for i, a := range attempts {
		dtos[i] = toAttemptDTO(a)
	}
	return dtos
}

func toChecklistResponse(cl *worktime.DailyChecklist) ChecklistResponse {
	resp := ChecklistResponse{
		Submission: toSubmissionDTO(cl.Submission),
		Tasks:      make([]TaskDTO, len(cl.Tasks)),
	}
	for i, t := range cl.Tasks {
		resp.Tasks[i] = TaskDTO{
			ResponsibilityID: string(t.Responsibility.ID),
			TaskName:         t.Responsibility.TaskName,
			Description:      t.Responsibility.Description,
			Attempts:         t.Attempts,
			Current:          toAttemptDTO(t.Current),
		}
	}
	return resp
}

func toEndTaskResponse(res *worktime.EndResult) EndTaskResponse {
	resp := EndTaskResponse{Attempt: toAttemptDTO(res.Attempt)}
	if res.Entry != nil {
		en := toEntryDTO(*res.Entry)
		resp.Entry = &en
	}
	if w := res.Warning; w != nil {
		resp.Warning = &BridgeWarningDTO{
			Code:    w.Code,
			Message: w.Message,
			Date:    w.Date.String(),
			Hours:   w.Hours,
		}
		if w.Blocking != nil {
			resp.Warning.Blocking = w.Blocking.String()
		}
	}
	return resp
}

func dateStrings(days []worktime.Date) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}
