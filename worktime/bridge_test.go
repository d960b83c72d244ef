package worktime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/work-ledger/worktime"
)

func TestBridge_PostsElapsedHoursToSameDay(t *testing.T) {
	// GIVEN: A task started at 09:00 and ended at 11:45
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))

	res := f.runTask(tasks["resp-a"].ID, 2*time.Hour+45*time.Minute)

	// THEN: Exactly one work entry, labelled with the task, in week 12
	require.NotNil(t, res.Entry)
	assert.Nil(t, res.Warning)

	ts, err := f.engine.FindTimesheet(f.ctx, "emp-1", week(2025, 12))
	require.NoError(t, err)
	view, err := f.engine.GetTimesheet(f.ctx, ts.ID)
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)

	entry := view.Entries[0]
	assert.Equal(t, worktime.EntryWork, entry.Type)
	assert.Equal(t, "Proofread", entry.Label)
	assert.Equal(t, date(2025, time.March, 18), entry.WorkDate)
	assert.True(t, hours("2.75").Equal(entry.Hours), entry.Hours.String())
}

func TestBridge_ShortTask_PostsSmallestEntry(t *testing.T) {
	// GIVEN: A task ended fifteen seconds after it started
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))

	res := f.runTask(tasks["resp-a"].ID, 15*time.Second)

	// THEN: An entry of one hundredth of an hour is posted without warning
	assert.Nil(t, res.Warning)
	require.NotNil(t, res.Entry)
	assert.True(t, hours("0.01").Equal(res.Entry.Hours), res.Entry.Hours.String())
}

func TestBridge_BlockedWeek_CompletesWithWarning(t *testing.T) {
	// GIVEN: Week 11 is an open draft and it is Wednesday of week 12
	f := newFixture(t, at(2025, time.March, 12, 10, 0))
	f.sheet("emp-1", week(2025, 11))
	f.responsibility("resp-a", "emp-1", "Proofread", "")

	f.setNow(at(2025, time.March, 19, 9, 0))
	_, tasks := f.checklist("emp-1", date(2025, time.March, 19))
	_, err := f.engine.StartTask(f.ctx, tasks["resp-a"].ID)
	require.NoError(t, err)
	f.advance(time.Hour)

	// WHEN: Ending the task
	res, err := f.engine.EndTask(f.ctx, tasks["resp-a"].ID)

	// THEN: The task completes, nothing is posted, the caller is warned
	require.NoError(t, err)
	assert.Equal(t, worktime.TaskCompleted, res.Attempt.Status)
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Warning)
	assert.Equal(t, worktime.WarnSequenceBlocked, res.Warning.Code)
	assert.Equal(t, week(2025, 11), *res.Warning.Blocking)
	assert.True(t, hours("1").Equal(res.Warning.Hours))

	_, err = f.engine.FindTimesheet(f.ctx, "emp-1", week(2025, 12))
	assert.ErrorIs(t, err, worktime.ErrNotFound, "week 12 was not created")
}

func TestBridge_LockedTimesheet_CompletesWithWarning(t *testing.T) {
	// GIVEN: This week's timesheet is already submitted
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	ts := f.sheet("emp-1", week(2025, 12))
	f.fill(ts)
	f.submit(ts)

	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))
	res := f.runTask(tasks["resp-a"].ID, time.Hour)

	require.NotNil(t, res.Warning)
	assert.Equal(t, worktime.WarnTimesheetLocked, res.Warning.Code)
	assert.Nil(t, res.Entry)

	view, err := f.engine.GetTimesheet(f.ctx, ts.ID)
	require.NoError(t, err)
	assert.Len(t, view.Entries, 6, "no entry added to the submitted timesheet")
}

func TestBridge_OverlongDuration_CompletesWithWarning(t *testing.T) {
	// A task left running overnight into the next afternoon exceeds 24h.
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-a", "emp-1", "Proofread", "")
	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))

	_, err := f.engine.StartTask(f.ctx, tasks["resp-a"].ID)
	require.NoError(t, err)
	f.advance(30 * time.Hour)
	res, err := f.engine.EndTask(f.ctx, tasks["resp-a"].ID)

	require.NoError(t, err)
	assert.Equal(t, worktime.TaskCompleted, res.Attempt.Status)
	require.NotNil(t, res.Warning)
	assert.Equal(t, worktime.WarnInvalidDuration, res.Warning.Code)
}

func TestBridge_ManagerFailure_RollsBackTransition(t *testing.T) {
	// GIVEN: The task is routed by override, but the employee loses their
	// default manager before the week's timesheet exists
	f := newFixture(t, at(2025, time.March, 18, 9, 0))
	f.responsibility("resp-b", "emp-1", "Upload galleys", "mgr-2")
	_, tasks := f.checklist("emp-1", date(2025, time.March, 18))
	_, err := f.engine.StartTask(f.ctx, tasks["resp-b"].ID)
	require.NoError(t, err)

	f.employee("emp-1", "")
	f.advance(time.Hour)

	// WHEN: Ending the task
	_, err = f.engine.EndTask(f.ctx, tasks["resp-b"].ID)

	// THEN: Fatal, and the task is still started
	assert.ErrorIs(t, err, worktime.ErrManagerResolution)
	a, err := f.engine.GetAttempt(f.ctx, tasks["resp-b"].ID)
	require.NoError(t, err)
	assert.Equal(t, worktime.TaskStarted, a.Status)
	assert.Nil(t, a.EndTime)
}
