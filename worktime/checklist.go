/*
checklist.go - Daily Checklist Engine

PURPOSE:
  One DailySubmission per (employee, date) with an append-only attempt
  history per responsibility. Each task moves through:

    pending --start--> started --end--> completed --submit--> submitted
    submitted --approve--> approved (terminal)
    submitted --reject(notes)--> rejected --retry--> NEW pending attempt

RULES:
  - Only the latest attempt of a responsibility may transition.
  - At most one task per day is started at a time.
  - Starting work on a day requires every earlier day to be resolved.
  - A correction attempt needs resubmission notes on submit.
  - The submission status is re-derived after every transition.

RECONCILIATION:
  EnsureSubmission is called on every read. It seeds pending attempts for
  newly active responsibilities and re-syncs the routed manager of latest
  attempts a manager has not yet decided on.
*/
package worktime

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

// TaskView pairs the current attempt of a responsibility with its template.
type TaskView struct {
	Responsibility Responsibility
	Current        ChecklistAttempt
	Attempts       int
}

// DailyChecklist is the submission with one task per responsibility.
type DailyChecklist struct {
	Submission DailySubmission
	Tasks      []TaskView
}

// EndResult is returned by EndTask. Warning is set when the duration could
// not be posted to the timesheet; the transition still happened.
type EndResult struct {
	Attempt ChecklistAttempt
	Entry   *WorkEntry
	Warning *BridgeWarning
}

// EnsureSubmission returns the employee's checklist for date, creating the
// submission and its pending attempts on first access.
func (e *Engine) EnsureSubmission(ctx context.Context, employeeID EmployeeID, date Date) (*DailyChecklist, error) {
	if date.IsZero() {
		return nil, invalid("date_required", "date is required")
	}
	if date.IsSunday() {
		return nil, invalid("sunday", "%s is a Sunday; checklists run Monday to Saturday", date)
	}
	if date.After(e.today()) {
		return nil, invalid("future_date", "cannot open a checklist for %s before it starts", date)
	}

	return e.ensureChecklist(ctx, employeeID, date, "ensure submission")
}

// GetChecklist reads an existing submission. Like EnsureSubmission it
// reconciles the day's tasks with the catalog and directory first.
func (e *Engine) GetChecklist(ctx context.Context, id SubmissionID) (*DailyChecklist, error) {
	sub, err := e.loadSubmission(ctx, e.store, id)
	if err != nil {
		return nil, err
	}
	return e.ensureChecklist(ctx, sub.EmployeeID, sub.Date, "get checklist")
}

func (e *Engine) ensureChecklist(ctx context.Context, employeeID EmployeeID, date Date, op string) (*DailyChecklist, error) {
	var out *DailyChecklist
	err := e.mutate(ctx, employeeID, op, func(s Store) error {
		sub, err := e.findOrCreateSubmission(ctx, s, employeeID, date)
		if err != nil {
			return err
		}
		if err := e.reconcileTasks(ctx, s, sub); err != nil {
			return err
		}
		if err := e.refreshSubmission(ctx, s, sub); err != nil {
			return err
		}
		out, err = e.checklistView(ctx, s, sub)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) StartTask(ctx context.Context, id AttemptID) (*ChecklistAttempt, error) {
	return e.transition(ctx, id, "start", func(s Store, sub *DailySubmission, a *ChecklistAttempt, siblings []ChecklistAttempt) error {
		if a.Status != TaskPending {
			return conflict(a, "start", "")
		}
		for _, other := range siblings {
			if other.ID != a.ID && other.Status == TaskStarted {
				return conflict(a, "start", "another task is already in progress")
			}
		}
		if err := e.checkDaySequence(ctx, s, sub.EmployeeID, sub.Date); err != nil {
			return err
		}
		now := e.now()
		a.Status = TaskStarted
		a.StartTime = &now
		if sub.StartTime == nil {
			sub.StartTime = timePtr(now)
		}
		return nil
	})
}

// EndTask completes a started task and posts its duration to the timesheet
// of the same day, in the same transaction.
func (e *Engine) EndTask(ctx context.Context, id AttemptID) (*EndResult, error) {
	res := &EndResult{}
	a, err := e.transition(ctx, id, "end", func(s Store, sub *DailySubmission, a *ChecklistAttempt, _ []ChecklistAttempt) error {
		if a.Status != TaskStarted {
			return conflict(a, "end", "")
		}
		a.Status = TaskCompleted
		a.EndTime = timePtr(e.now())

		entry, warning, err := e.postCompletedTask(ctx, s, sub, a)
		if err != nil {
			return err
		}
		res.Entry, res.Warning = entry, warning
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Attempt = *a
	return res, nil
}

// SubmitTask sends a completed task for review. Corrections must explain
// what changed.
func (e *Engine) SubmitTask(ctx context.Context, id AttemptID, resubmissionNotes string) (*ChecklistAttempt, error) {
	notes := strings.TrimSpace(resubmissionNotes)
	return e.transition(ctx, id, "submit", func(_ Store, _ *DailySubmission, a *ChecklistAttempt, _ []ChecklistAttempt) error {
		if a.Status != TaskCompleted {
			return conflict(a, "submit", "")
		}
		if a.IsCorrection && notes == "" {
			return invalid("notes_required", "a correction needs resubmission notes")
		}
		a.Status = TaskSubmitted
		a.SubmittedAt = timePtr(e.now())
		a.ResubmissionNotes = notes
		return nil
	})
}

// ReviewTask approves or rejects a submitted task. Only the attempt's routed
// manager may review it.
func (e *Engine) ReviewTask(ctx context.Context, id AttemptID, review Review) (*ChecklistAttempt, error) {
	notes, err := validateReview(review)
	if err != nil {
		return nil, err
	}
	return e.transition(ctx, id, string(review.Decision), func(_ Store, sub *DailySubmission, a *ChecklistAttempt, _ []ChecklistAttempt) error {
		if a.Status != TaskSubmitted {
			return conflict(a, string(review.Decision), "")
		}
		if review.ReviewerID != a.ManagerID {
			return ErrNotAssignedReviewer
		}
		now := e.now()
		if review.Decision == DecisionApprove {
			a.Status = TaskApproved
		} else {
			a.Status = TaskRejected
		}
		a.ReviewedAt = &now
		a.ReviewNotes = notes
		sub.ReviewedAt = timePtr(now)
		return nil
	})
}

// RetryTask appends a correction attempt after a rejection. The rejected row
// is left untouched.
func (e *Engine) RetryTask(ctx context.Context, id AttemptID) (*ChecklistAttempt, error) {
	owner, err := e.attemptOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	var out *ChecklistAttempt
	err = e.mutate(ctx, owner, "retry task", func(s Store) error {
		a, sub, _, err := e.loadLatestAttempt(ctx, s, id, "retry")
		if err != nil {
			return err
		}
		if a.Status != TaskRejected {
			return conflict(a, "retry", "")
		}
		next := ChecklistAttempt{
			ID:               AttemptID(e.newID()),
			SubmissionID:     a.SubmissionID,
			ResponsibilityID: a.ResponsibilityID,
			ManagerID:        a.ManagerID,
			Seq:              a.Seq + 1,
			Status:           TaskPending,
			IsCorrection:     true,
			CreatedAt:        e.now(),
		}
		if err := s.InsertAttempt(ctx, next); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return conflict(a, "retry", "already retried")
			}
			return persistErr("insert attempt", err)
		}
		out = &next
		return e.refreshSubmission(ctx, s, sub)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Checklist] %s retried as attempt %d (%s)", out.ResponsibilityID, out.Seq, out.ID)
	return out, nil
}

// TaskHistory returns every attempt of a responsibility on a day, oldest
// first.
func (e *Engine) TaskHistory(ctx context.Context, submissionID SubmissionID, responsibilityID ResponsibilityID) ([]ChecklistAttempt, error) {
	if _, err := e.loadSubmission(ctx, e.store, submissionID); err != nil {
		return nil, err
	}
	attempts, err := e.store.ListAttempts(ctx, submissionID)
	if err != nil {
		return nil, persistErr("list attempts", err)
	}
	var out []ChecklistAttempt
	for _, a := range attempts {
		if a.ResponsibilityID == responsibilityID {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetAttempt returns a single attempt.
func (e *Engine) GetAttempt(ctx context.Context, id AttemptID) (*ChecklistAttempt, error) {
	return e.loadAttempt(ctx, e.store, id)
}

// PendingTaskReviews lists submitted attempts routed to managerID.
func (e *Engine) PendingTaskReviews(ctx context.Context, managerID EmployeeID) ([]ChecklistAttempt, error) {
	attempts, err := e.store.ListAttemptsByManager(ctx, managerID, TaskSubmitted)
	if err != nil {
		return nil, persistErr("list attempts", err)
	}
	return attempts, nil
}

// =============================================================================
// SUBMISSION LIFECYCLE
// =============================================================================

func (e *Engine) findOrCreateSubmission(ctx context.Context, s Store, employeeID EmployeeID, date Date) (*DailySubmission, error) {
	sub, err := s.FindSubmission(ctx, employeeID, date)
	if err != nil {
		return nil, persistErr("find submission", err)
	}
	if sub != nil {
		// Keep the snapshot when the directory has lost the assignment;
		// existing attempts still have a reviewer.
		managerID, err := e.resolveManager(ctx, s, employeeID, nil)
		switch {
		case errors.Is(err, ErrManagerResolution):
		case err != nil:
			return nil, err
		case managerID != sub.ManagerID:
			sub.ManagerID = managerID
			if err := s.UpdateSubmission(ctx, *sub); err != nil {
				return nil, persistErr("update submission", err)
			}
		}
		return sub, nil
	}

	if err := e.checkDaySequence(ctx, s, employeeID, date); err != nil {
		return nil, err
	}
	managerID, err := e.resolveManager(ctx, s, employeeID, nil)
	if err != nil {
		return nil, err
	}

	created := DailySubmission{
		ID:         SubmissionID(e.newID()),
		EmployeeID: employeeID,
		Date:       date,
		ManagerID:  managerID,
		Status:     SubmissionPending,
		CreatedAt:  e.now(),
	}
	if err := s.InsertSubmission(ctx, created); err != nil {
		if !errors.Is(err, ErrDuplicate) {
			return nil, persistErr("insert submission", err)
		}
		sub, err := s.FindSubmission(ctx, employeeID, date)
		if err != nil {
			return nil, persistErr("find submission", err)
		}
		if sub == nil {
			return nil, &PersistenceError{Op: "insert submission", Err: ErrDuplicate}
		}
		return sub, nil
	}
	log.Printf("[Checklist] opened %s for %s (manager %s)", date, employeeID, managerID)
	return &created, nil
}

// reconcileTasks seeds pending attempts for active responsibilities that have
// none and re-routes undecided latest attempts whose manager changed.
func (e *Engine) reconcileTasks(ctx context.Context, s Store, sub *DailySubmission) error {
	resps, err := e.catalogIn(s).ActiveResponsibilities(ctx, sub.EmployeeID)
	if err != nil {
		return persistErr("list responsibilities", err)
	}
	attempts, err := s.ListAttempts(ctx, sub.ID)
	if err != nil {
		return persistErr("list attempts", err)
	}
	latest := make(map[ResponsibilityID]ChecklistAttempt)
	for _, a := range latestAttempts(attempts) {
		latest[a.ResponsibilityID] = a
	}

	for _, resp := range resps {
		want := taskManager(resp, sub)
		cur, ok := latest[resp.ID]
		if !ok {
			a := ChecklistAttempt{
				ID:               AttemptID(e.newID()),
				SubmissionID:     sub.ID,
				ResponsibilityID: resp.ID,
				ManagerID:        want,
				Seq:              1,
				Status:           TaskPending,
				CreatedAt:        e.now(),
			}
			if err := s.InsertAttempt(ctx, a); err != nil && !errors.Is(err, ErrDuplicate) {
				return persistErr("insert attempt", err)
			}
			continue
		}
		if cur.ManagerID != want && !cur.Status.Reviewed() {
			cur.ManagerID = want
			if err := s.UpdateAttempt(ctx, cur); err != nil {
				return persistErr("update attempt", err)
			}
		}
	}
	return nil
}

// refreshSubmission re-derives the submission status and its day-level
// timestamps from the latest attempts, then persists the submission.
func (e *Engine) refreshSubmission(ctx context.Context, s Store, sub *DailySubmission) error {
	attempts, err := s.ListAttempts(ctx, sub.ID)
	if err != nil {
		return persistErr("list attempts", err)
	}
	latest := latestAttempts(attempts)
	sub.Status = DeriveSubmissionStatus(attemptStates(latest))

	finished, submitted := len(latest) > 0, len(latest) > 0
	for _, a := range latest {
		if a.Status == TaskPending || a.Status == TaskStarted {
			finished = false
		}
		if !a.Status.Resolved() {
			submitted = false
		}
	}
	now := e.now()
	sub.EndTime = markWhile(sub.EndTime, finished, now)
	sub.SubmittedAt = markWhile(sub.SubmittedAt, submitted, now)

	if err := s.UpdateSubmission(ctx, *sub); err != nil {
		return persistErr("update submission", err)
	}
	return nil
}

// markWhile keeps a timestamp recording when cond last became true.
func markWhile(ts *time.Time, cond bool, now time.Time) *time.Time {
	switch {
	case !cond:
		return nil
	case ts == nil:
		return &now
	default:
		return ts
	}
}

func (e *Engine) checklistView(ctx context.Context, s Store, sub *DailySubmission) (*DailyChecklist, error) {
	attempts, err := s.ListAttempts(ctx, sub.ID)
	if err != nil {
		return nil, persistErr("list attempts", err)
	}
	counts := make(map[ResponsibilityID]int)
	for _, a := range attempts {
		counts[a.ResponsibilityID]++
	}

	view := &DailyChecklist{Submission: *sub}
	for _, a := range latestAttempts(attempts) {
		resp, err := e.catalogIn(s).GetResponsibility(ctx, a.ResponsibilityID)
		if err != nil {
			return nil, persistErr("get responsibility", err)
		}
		task := TaskView{Current: a, Attempts: counts[a.ResponsibilityID]}
		if resp != nil {
			task.Responsibility = *resp
		} else {
			task.Responsibility = Responsibility{ID: a.ResponsibilityID, EmployeeID: sub.EmployeeID}
		}
		view.Tasks = append(view.Tasks, task)
	}
	return view, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

type transitionFunc func(s Store, sub *DailySubmission, a *ChecklistAttempt, siblings []ChecklistAttempt) error

// transition loads the latest attempt under the employee lock, applies fn,
// persists the attempt and re-derives the submission.
func (e *Engine) transition(ctx context.Context, id AttemptID, action string, fn transitionFunc) (*ChecklistAttempt, error) {
	owner, err := e.attemptOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	var out *ChecklistAttempt
	err = e.mutate(ctx, owner, action+" task", func(s Store) error {
		a, sub, siblings, err := e.loadLatestAttempt(ctx, s, id, action)
		if err != nil {
			return err
		}
		if err := fn(s, sub, a, siblings); err != nil {
			return err
		}
		if err := s.UpdateAttempt(ctx, *a); err != nil {
			return persistErr("update attempt", err)
		}
		if err := e.refreshSubmission(ctx, s, sub); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Checklist] %s %s: %s (attempt %d)", out.ResponsibilityID, action, out.Status, out.Seq)
	return out, nil
}

// loadLatestAttempt returns the attempt, its submission and the latest
// attempts of every responsibility that day. Superseded attempts are frozen.
func (e *Engine) loadLatestAttempt(ctx context.Context, s Store, id AttemptID, action string) (*ChecklistAttempt, *DailySubmission, []ChecklistAttempt, error) {
	a, err := e.loadAttempt(ctx, s, id)
	if err != nil {
		return nil, nil, nil, err
	}
	sub, err := e.loadSubmission(ctx, s, a.SubmissionID)
	if err != nil {
		return nil, nil, nil, err
	}
	attempts, err := s.ListAttempts(ctx, sub.ID)
	if err != nil {
		return nil, nil, nil, persistErr("list attempts", err)
	}
	latest := latestAttempts(attempts)
	for _, l := range latest {
		if l.ResponsibilityID == a.ResponsibilityID && l.ID != a.ID {
			return nil, nil, nil, conflict(a, action, "superseded by a newer attempt")
		}
	}
	return a, sub, latest, nil
}

func (e *Engine) loadAttempt(ctx context.Context, s Store, id AttemptID) (*ChecklistAttempt, error) {
	a, err := s.GetAttempt(ctx, id)
	if err != nil {
		return nil, persistErr("get attempt", err)
	}
	if a == nil {
		return nil, notFound("attempt", string(id))
	}
	return a, nil
}

func (e *Engine) loadSubmission(ctx context.Context, s Store, id SubmissionID) (*DailySubmission, error) {
	sub, err := s.GetSubmission(ctx, id)
	if err != nil {
		return nil, persistErr("get submission", err)
	}
	if sub == nil {
		return nil, notFound("submission", string(id))
	}
	return sub, nil
}

func (e *Engine) attemptOwner(ctx context.Context, id AttemptID) (EmployeeID, error) {
	a, err := e.loadAttempt(ctx, e.store, id)
	if err != nil {
		return "", err
	}
	sub, err := e.loadSubmission(ctx, e.store, a.SubmissionID)
	if err != nil {
		return "", err
	}
	return sub.EmployeeID, nil
}

func conflict(a *ChecklistAttempt, action, detail string) error {
	return &StateConflictError{Subject: "task", ID: string(a.ID), Status: string(a.Status), Action: action, Detail: detail}
}
