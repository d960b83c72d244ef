package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/work-ledger/worktime"
)

func attemptParam(r *http.Request) worktime.AttemptID {
	return worktime.AttemptID(chi.URLParam(r, "id"))
}

// EnsureChecklist creates the day's submission on first access and returns
// the daily view.
func (h *Handler) EnsureChecklist(w http.ResponseWriter, r *http.Request) {
	var req EnsureChecklistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := worktime.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid date", err)
		return
	}
	cl, err := h.Engine.EnsureSubmission(r.Context(), employeeParam(r), date)
	if err != nil {
		writeDomainError(w, "ensure submission", err)
		return
	}
	writeJSON(w, http.StatusOK, toChecklistResponse(cl))
}

func (h *Handler) GetChecklist(w http.ResponseWriter, r *http.Request) {
	cl, err := h.Engine.GetChecklist(r.Context(), worktime.SubmissionID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "get checklist", err)
		return
	}
	writeJSON(w, http.StatusOK, toChecklistResponse(cl))
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	a, err := h.Engine.GetAttempt(r.Context(), attemptParam(r))
	if err != nil {
		writeDomainError(w, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptDTO(*a))
}

func (h *Handler) StartTask(w http.ResponseWriter, r *http.Request) {
	a, err := h.Engine.StartTask(r.Context(), attemptParam(r))
	if err != nil {
		writeDomainError(w, "start task", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptDTO(*a))
}

// EndTask completes the attempt. A bridge warning is returned with 200; the
// caller is expected to log the hours by hand.
func (h *Handler) EndTask(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.EndTask(r.Context(), attemptParam(r))
	if err != nil {
		writeDomainError(w, "end task", err)
		return
	}
	writeJSON(w, http.StatusOK, toEndTaskResponse(res))
}

func (h *Handler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req SubmitTaskRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.Engine.SubmitTask(r.Context(), attemptParam(r), req.Notes)
	if err != nil {
		writeDomainError(w, "submit task", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptDTO(*a))
}

func (h *Handler) ReviewTask(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.Engine.ReviewTask(r.Context(), attemptParam(r), req.review())
	if err != nil {
		writeDomainError(w, "review task", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptDTO(*a))
}

func (h *Handler) RetryTask(w http.ResponseWriter, r *http.Request) {
	a, err := h.Engine.RetryTask(r.Context(), attemptParam(r))
	if err != nil {
		writeDomainError(w, "retry task", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttemptDTO(*a))
}

// TaskHistory lists every attempt of the task's (submission, responsibility)
// pair, oldest first.
func (h *Handler) TaskHistory(w http.ResponseWriter, r *http.Request) {
	a, err := h.Engine.GetAttempt(r.Context(), attemptParam(r))
	if err != nil {
		writeDomainError(w, "task history", err)
		return
	}
	history, err := h.Engine.TaskHistory(r.Context(), a.SubmissionID, a.ResponsibilityID)
	if err != nil {
		writeDomainError(w, "task history", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptDTOs(history))
}
