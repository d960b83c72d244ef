package worktime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/work-ledger/worktime"
)

// =============================================================================
// ENSURE SUBMISSION
// =============================================================================

func TestEnsureSubmission_SeedsPendingAttemptsWithRouting(t *testing.T) {
	// GIVEN: Two responsibilities, one routed to a different manager
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	f.responsibility("resp-b", "emp-1", "Upload galleys", "mgr-2")

	cl, tasks := f.checklist("emp-1", date(2025, time.March, 18))

	assert.Equal(t, worktime.SubmissionPending, cl.Submission.Status)
	assert.Equal(t, worktime.EmployeeID("mgr-1"), cl.Submission.ManagerID)
	require.Len(t, cl.Tasks, 2)
	assert.Equal(t, "Proofread", cl.Tasks[0].Responsibility.TaskName)

	assert.Equal(t, worktime.TaskPending, tasks["resp-a"].Status)
	assert.Equal(t, 1, tasks["resp-a"].Seq)
	assert.Equal(t, worktime.EmployeeID("mgr-1"), tasks["resp-a"].ManagerID)
	assert.Equal(t, worktime.EmployeeID("mgr-2"), tasks["resp-b"].ManagerID)

	// Re-reading is idempotent.
	again, _ := f.checklist("emp-1", date(2025, time.March, 18))
	assert.Equal(t, cl.Submission.ID, again.Submission.ID)
	assert.Len(t, again.Tasks, 2)
}

func TestEnsureSubmission_RejectsFutureAndSunday(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 18, 9, 0))

	var verr *worktime.ValidationError
	_, err := f.engine.EnsureSubmission(f.ctx, "emp-1", date(2025, time.March, 19))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "future_date", verr.Code)

	_, err = f.engine.EnsureSubmission(f.ctx, "emp-1", date(2025, time.March, 16))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sunday", verr.Code)
}

func TestEnsureSubmission_NoManager_NothingCreated(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.employee("emp-2", "")

	_, err := f.engine.EnsureSubmission(f.ctx, "emp-2", date(2025, time.March, 18))

	assert.ErrorIs(t, err, worktime.ErrManagerResolution)
	sub, err := f.store.FindSubmission(f.ctx, "emp-2", date(2025, time.March, 18))
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestEnsureSubmission_ReconcilesRosterAndManagers(t *testing.T) {
	// GIVEN: Task A approved, task B pending
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	f.responsibility("resp-b", "emp-1", "Index", "")
	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))
	f.runTask(tasks["resp-a"].ID, time.Hour)
	_, err := f.engine.ReviewTask(f.ctx, tasks["resp-a"].ID, worktime.Review{ReviewerID: "mgr-1", Decision: worktime.DecisionApprove})
	require.NoError(t, err)

	// WHEN: The directory moves emp-1 to mgr-3 and a new responsibility appears
	f.employee("emp-1", "mgr-3")
	f.responsibility("resp-c", "emp-1", "Archive", "")
	cl, tasks := f.checklist("emp-1", date(2025, time.March, 18))

	// THEN: Undecided work follows the new manager, decided work keeps its reviewer
	assert.Equal(t, worktime.EmployeeID("mgr-3"), cl.Submission.ManagerID)
	assert.Equal(t, worktime.EmployeeID("mgr-1"), tasks["resp-a"].ManagerID)
	assert.Equal(t, worktime.EmployeeID("mgr-3"), tasks["resp-b"].ManagerID)
	assert.Equal(t, worktime.TaskPending, tasks["resp-c"].Status)
	assert.Len(t, cl.Tasks, 3)
}

func TestGetChecklist_ReconcilesBeforeReading(t *testing.T) {
	// GIVEN: A checklist opened with a single responsibility
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	opened, _ := f.checklist("emp-1", date(2025, time.March, 18))
	require.Len(t, opened.Tasks, 1)

	// WHEN: A responsibility is added and the manager changes, then the
	// checklist is read by ID
	f.responsibility("resp-b", "emp-1", "Upload galleys", "")
	f.employee("emp-1", "mgr-3")
	cl, err := f.engine.GetChecklist(f.ctx, opened.Submission.ID)
	require.NoError(t, err)

	// THEN: The new task is seeded and routing follows the directory
	assert.Equal(t, opened.Submission.ID, cl.Submission.ID)
	assert.Equal(t, worktime.EmployeeID("mgr-3"), cl.Submission.ManagerID)
	require.Len(t, cl.Tasks, 2)
	var added *worktime.ChecklistAttempt
	for _, task := range cl.Tasks {
		if task.Responsibility.ID == "resp-b" {
			added = &task.Current
		}
	}
	require.NotNil(t, added)
	assert.Equal(t, worktime.TaskPending, added.Status)
	assert.Equal(t, 1, added.Seq)
}

func TestGetChecklist_Unknown(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 18, 9, 0))

	_, err := f.engine.GetChecklist(f.ctx, "missing")

	assert.ErrorIs(t, err, worktime.ErrNotFound)
}

// =============================================================================
// TASK LIFECYCLE
// =============================================================================

func TestTaskLifecycle_StartEndSubmitApprove(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))
	id := tasks["resp-a"].ID

	started, err := f.engine.StartTask(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, worktime.TaskStarted, started.Status)
	cl, _ := f.checklist("emp-1", date(2025, time.March, 18))
	assert.Equal(t, worktime.SubmissionStarted, cl.Submission.Status)
	require.NotNil(t, cl.Submission.StartTime)

	f.advance(90 * time.Minute)
	res, err := f.engine.EndTask(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, worktime.TaskCompleted, res.Attempt.Status)
	assert.Nil(t, res.Warning)
	require.NotNil(t, res.Entry)
	assert.True(t, hours("1.5").Equal(res.Entry.Hours))

	submitted, err := f.engine.SubmitTask(f.ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, worktime.TaskSubmitted, submitted.Status)
	cl, _ = f.checklist("emp-1", date(2025, time.March, 18))
	assert.Equal(t, worktime.SubmissionSubmitted, cl.Submission.Status)
	assert.NotNil(t, cl.Submission.EndTime)
	assert.NotNil(t, cl.Submission.SubmittedAt)

	queue, err := f.engine.PendingTaskReviews(f.ctx, "mgr-1")
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, id, queue[0].ID)

	approved, err := f.engine.ReviewTask(f.ctx, id, worktime.Review{ReviewerID: "mgr-1", Decision: worktime.DecisionApprove, Notes: "clean"})
	require.NoError(t, err)
	assert.Equal(t, worktime.TaskApproved, approved.Status)
	assert.Equal(t, "clean", approved.ReviewNotes)
	cl, _ = f.checklist("emp-1", date(2025, time.March, 18))
	assert.Equal(t, worktime.SubmissionApproved, cl.Submission.Status)
	assert.NotNil(t, cl.Submission.ReviewedAt)

	_, err = f.engine.RetryTask(f.ctx, id)
	assert.ErrorIs(t, err, worktime.ErrStateConflict, "approved is terminal")
}

func TestStartTask_OneTaskAtATime(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	f.responsibility("resp-b", "emp-1", "Index", "")
	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))

	_, err := f.engine.StartTask(f.ctx, tasks["resp-a"].ID)
	require.NoError(t, err)

	_, err = f.engine.StartTask(f.ctx, tasks["resp-b"].ID)
	var conflict *worktime.StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Detail, "in progress")

	_, err = f.engine.StartTask(f.ctx, tasks["resp-a"].ID)
	assert.ErrorIs(t, err, worktime.ErrStateConflict, "already started")

	_, err = f.engine.EndTask(f.ctx, tasks["resp-a"].ID)
	require.NoError(t, err)
	_, err = f.engine.StartTask(f.ctx, tasks["resp-b"].ID)
	require.NoError(t, err)
}

func TestTaskTransitions_IllegalStates(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))
	id := tasks["resp-a"].ID

	_, err := f.engine.EndTask(f.ctx, id)
	assert.ErrorIs(t, err, worktime.ErrStateConflict)
	_, err = f.engine.SubmitTask(f.ctx, id, "")
	assert.ErrorIs(t, err, worktime.ErrStateConflict)
	_, err = f.engine.ReviewTask(f.ctx, id, worktime.Review{ReviewerID: "mgr-1", Decision: worktime.DecisionApprove})
	assert.ErrorIs(t, err, worktime.ErrStateConflict)
	_, err = f.engine.RetryTask(f.ctx, id)
	assert.ErrorIs(t, err, worktime.ErrStateConflict)
	_, err = f.engine.StartTask(f.ctx, "missing")
	assert.ErrorIs(t, err, worktime.ErrNotFound)
}

func TestStartTask_EarlierDayUnresolved(t *testing.T) {
	// GIVEN: Monday's checklist opened and left pending
	f := newFixture(t, at(2025, time.March, 17, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	_, monday := f.checklist("emp-1", date(2025, time.March, 17))

	// WHEN: Opening Tuesday
	// THEN: Monday blocks it
	f.setNow(at(2025, time.March, 18, 9, 0))
	_, err := f.engine.EnsureSubmission(f.ctx, "emp-1", date(2025, time.March, 18))
	assert.ErrorIs(t, err, worktime.ErrSequenceViolation)

	// Once Monday is worked late, Tuesday opens.
	f.runTask(monday["resp-a"].ID, time.Hour)
	_, tuesday := f.checklist("emp-1", date(2025, time.March, 18))
	assert.Equal(t, worktime.TaskPending, tuesday["resp-a"].Status)
}

// =============================================================================
// REVIEW AND RETRY
// =============================================================================

func TestReviewTask_RejectRetryResubmit(t *testing.T) {
	// GIVEN: A submitted task
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	cl, tasks := f.checklist("emp-1", date(2025, time.March, 18))
	first := tasks["resp-a"].ID
	f.runTask(first, time.Hour)

	// WHEN: Rejected without notes, then with notes
	_, err := f.engine.ReviewTask(f.ctx, first, worktime.Review{ReviewerID: "mgr-1", Decision: worktime.DecisionReject})
	assert.ErrorIs(t, err, worktime.ErrValidation)

	rejected, err := f.engine.ReviewTask(f.ctx, first, worktime.Review{ReviewerID: "mgr-1", Decision: worktime.DecisionReject, Notes: "missed chapter 3"})
	require.NoError(t, err)
	assert.Equal(t, worktime.TaskRejected, rejected.Status)
	view, _ := f.checklist("emp-1", date(2025, time.March, 18))
	assert.Equal(t, worktime.SubmissionRejected, view.Submission.Status)

	// THEN: Retry appends a correction attempt and leaves the rejected row alone
	retry, err := f.engine.RetryTask(f.ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, retry.Seq)
	assert.True(t, retry.IsCorrection)
	assert.Equal(t, worktime.TaskPending, retry.Status)
	assert.Equal(t, worktime.EmployeeID("mgr-1"), retry.ManagerID)

	old, err := f.engine.GetAttempt(f.ctx, first)
	require.NoError(t, err)
	assert.Equal(t, worktime.TaskRejected, old.Status)
	assert.Equal(t, "missed chapter 3", old.ReviewNotes)

	// AND: The old attempt is frozen
	_, err = f.engine.RetryTask(f.ctx, first)
	var conflict *worktime.StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Detail, "superseded")

	// AND: A correction must explain itself
	_, err = f.engine.StartTask(f.ctx, retry.ID)
	require.NoError(t, err)
	f.advance(30 * time.Minute)
	_, err = f.engine.EndTask(f.ctx, retry.ID)
	require.NoError(t, err)
	_, err = f.engine.SubmitTask(f.ctx, retry.ID, " ")
	assert.ErrorIs(t, err, worktime.ErrValidation)
	resubmitted, err := f.engine.SubmitTask(f.ctx, retry.ID, "added chapter 3")
	require.NoError(t, err)
	assert.Equal(t, "added chapter 3", resubmitted.ResubmissionNotes)

	history, err := f.engine.TaskHistory(f.ctx, cl.Submission.ID, "resp-a")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, worktime.TaskRejected, history[0].Status)
	assert.Equal(t, worktime.TaskSubmitted, history[1].Status)

	view, tasks = f.checklist("emp-1", date(2025, time.March, 18))
	assert.Equal(t, retry.ID, tasks["resp-a"].ID, "current state is the latest attempt")
	assert.Equal(t, 2, view.Tasks[0].Attempts)
	assert.Equal(t, worktime.SubmissionSubmitted, view.Submission.Status)
}

func TestReviewTask_OnlyRoutedManager(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-b", "emp-1", "Upload galleys", "mgr-2")
	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))
	f.runTask(tasks["resp-b"].ID, time.Hour)

	_, err := f.engine.ReviewTask(f.ctx, tasks["resp-b"].ID, worktime.Review{ReviewerID: "mgr-1", Decision: worktime.DecisionApprove})
	assert.ErrorIs(t, err, worktime.ErrNotAssignedReviewer)

	_, err = f.engine.ReviewTask(f.ctx, tasks["resp-b"].ID, worktime.Review{ReviewerID: "mgr-2", Decision: worktime.DecisionApprove})
	require.NoError(t, err)
}

// =============================================================================
// STATUS DERIVATION
// =============================================================================

func TestDeriveSubmissionStatus(t *testing.T) {
	tests := []struct {
		states []worktime.TaskStatus
		want   worktime.SubmissionStatus
	}{
		{nil, worktime.SubmissionPending},
		{[]worktime.TaskStatus{worktime.TaskPending, worktime.TaskCompleted}, worktime.SubmissionPending},
		{[]worktime.TaskStatus{worktime.TaskStarted, worktime.TaskSubmitted}, worktime.SubmissionStarted},
		{[]worktime.TaskStatus{worktime.TaskSubmitted, worktime.TaskPending}, worktime.SubmissionSubmitted},
		{[]worktime.TaskStatus{worktime.TaskApproved, worktime.TaskSubmitted}, worktime.SubmissionSubmitted},
		{[]worktime.TaskStatus{worktime.TaskApproved, worktime.TaskApproved}, worktime.SubmissionApproved},
		{[]worktime.TaskStatus{worktime.TaskApproved, worktime.TaskRejected, worktime.TaskStarted}, worktime.SubmissionRejected},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, worktime.DeriveSubmissionStatus(tc.states), "%v", tc.states)
	}
}
