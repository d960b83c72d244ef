/*
handlers.go - HTTP API handlers for the work-time ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handlers parse the request,
  validate the body, delegate to worktime.Engine and serialize the result.
  No business rule lives here.

ENDPOINTS:
  Periods:
    GET    /api/employees/{id}/period       Active week (blocked / grace flags)
    GET    /api/employees/{id}/day          Active checklist day

  Timesheets:
    POST   /api/employees/{id}/timesheets   Get or create {week}
    GET    /api/timesheets/{id}             Timesheet + entries + summary
    POST   /api/timesheets/{id}/submit      Submit for review
    POST   /api/timesheets/{id}/review      Approve / reject
    GET    /api/timesheets/{id}/export      xlsx download

  Entries:
    POST   /api/timesheets/{id}/entries     Add entry
    PUT    /api/entries/{id}                Update entry
    DELETE /api/entries/{id}                Delete entry

  Checklist (checklist.go):
    POST   /api/employees/{id}/checklists   Ensure the day's submission {date}
    GET    /api/checklists/{id}             Daily view
    GET    /api/tasks/{id}                  One attempt
    POST   /api/tasks/{id}/start|end|submit|review|retry
    GET    /api/tasks/{id}/history          Attempt history

  Managers:
    GET    /api/managers/{id}/reviews       Submitted timesheets and tasks

ERROR HANDLING:
  See errors.go. Ledger errors map onto 403/404/409/422/500/503.

SECURITY NOTE:
  No authentication. Reviewer identity is taken from the request body.
*/
package api

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/work-ledger/report"
	"github.com/warp/work-ledger/worktime"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *worktime.Engine

	// Directory supplies display names for exports. Optional.
	Directory worktime.Directory

	// Health is called by /api/health. Optional.
	Health func(ctx context.Context) error
}

func NewHandler(engine *worktime.Engine, dir worktime.Directory) *Handler {
	return &Handler{Engine: engine, Directory: dir}
}

func employeeParam(r *http.Request) worktime.EmployeeID {
	return worktime.EmployeeID(chi.URLParam(r, "id"))
}

// =============================================================================
// PERIODS
// =============================================================================

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.ResolveActivePeriod(r.Context(), employeeParam(r))
	if err != nil {
		writeDomainError(w, "resolve period", err)
		return
	}
	writeJSON(w, http.StatusOK, PeriodDTO{
		EmployeeID: string(res.EmployeeID),
		Today:      res.Today.String(),
		Current:    res.Current.String(),
		Active:     res.Active.String(),
		Blocked:    res.Blocked,
		Grace:      res.Grace,
	})
}

func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.ResolveActiveDay(r.Context(), employeeParam(r))
	if err != nil {
		writeDomainError(w, "resolve day", err)
		return
	}
	writeJSON(w, http.StatusOK, DayDTO{
		EmployeeID: string(res.EmployeeID),
		Today:      res.Today.String(),
		Active:     res.Active.String(),
		Blocked:    res.Blocked,
	})
}

// =============================================================================
// TIMESHEETS
// =============================================================================

func (h *Handler) CreateTimesheet(w http.ResponseWriter, r *http.Request) {
	var req CreateTimesheetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	week, err := worktime.ParseWeek(req.Week)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid week", err)
		return
	}

	ts, err := h.Engine.GetOrCreateTimesheet(r.Context(), employeeParam(r), week)
	if err != nil {
		writeDomainError(w, "get or create timesheet", err)
		return
	}
	h.respondTimesheet(w, r, ts.ID, http.StatusOK)
}

func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	h.respondTimesheet(w, r, worktime.TimesheetID(chi.URLParam(r, "id")), http.StatusOK)
}

func (h *Handler) respondTimesheet(w http.ResponseWriter, r *http.Request, id worktime.TimesheetID, status int) {
	view, err := h.Engine.GetTimesheet(r.Context(), id)
	if err != nil {
		writeDomainError(w, "get timesheet", err)
		return
	}
	writeJSON(w, status, toTimesheetResponse(view))
}

func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Engine.SubmitTimesheet(r.Context(), worktime.TimesheetID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "submit timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(*ts))
}

func (h *Handler) ReviewTimesheet(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ts, err := h.Engine.ReviewTimesheet(r.Context(), worktime.TimesheetID(chi.URLParam(r, "id")), req.review())
	if err != nil {
		writeDomainError(w, "review timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(*ts))
}

// ExportTimesheet streams the timesheet as an Excel workbook.
func (h *Handler) ExportTimesheet(w http.ResponseWriter, r *http.Request) {
	view, err := h.Engine.GetTimesheet(r.Context(), worktime.TimesheetID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "export timesheet", err)
		return
	}

	var name string
	if h.Directory != nil {
		if emp, err := h.Directory.GetEmployee(r.Context(), view.Timesheet.EmployeeID); err == nil && emp != nil {
			name = emp.Name
		}
	}

	var buf bytes.Buffer
	if err := report.WriteTimesheet(&buf, name, view); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render export", err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(view.Timesheet)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Headers are gone; the client only sees a truncated file.
		log.Printf("[Server] export timesheet %s: %v", view.Timesheet.ID, err)
	}
}

// =============================================================================
// ENTRIES
// =============================================================================

func entryInput(w http.ResponseWriter, r *http.Request) (worktime.EntryInput, bool) {
	var req EntryRequest
	if !decodeJSON(w, r, &req) {
		return worktime.EntryInput{}, false
	}
	date, err := worktime.ParseDate(req.WorkDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid work_date", err)
		return worktime.EntryInput{}, false
	}
	return worktime.EntryInput{
		WorkDate:    date,
		Type:        worktime.EntryType(req.Type),
		Label:       req.Label,
		Description: req.Description,
		Hours:       req.Hours,
		Reason:      req.Reason,
	}, true
}

func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := entryInput(w, r)
	if !ok {
		return
	}
	entry, err := h.Engine.AddEntry(r.Context(), worktime.TimesheetID(chi.URLParam(r, "id")), in)
	if err != nil {
		writeDomainError(w, "add entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := entryInput(w, r)
	if !ok {
		return
	}
	entry, err := h.Engine.UpdateEntry(r.Context(), worktime.EntryID(chi.URLParam(r, "id")), in)
	if err != nil {
		writeDomainError(w, "update entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteEntry(r.Context(), worktime.EntryID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, "delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MANAGERS
// =============================================================================

// ListReviews returns everything waiting on the manager's decision.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	managerID := employeeParam(r)
	sheets, err := h.Engine.PendingTimesheetReviews(r.Context(), managerID)
	if err != nil {
		writeDomainError(w, "list timesheet reviews", err)
		return
	}
	tasks, err := h.Engine.PendingTaskReviews(r.Context(), managerID)
	if err != nil {
		writeDomainError(w, "list task reviews", err)
		return
	}
	writeJSON(w, http.StatusOK, ReviewQueueResponse{
		ManagerID:  string(managerID),
		Timesheets: toTimesheetDTOs(sheets),
		Tasks:      toAttemptDTOs(tasks),
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Unhealthy", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
