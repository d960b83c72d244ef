package worktime_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/work-ledger/directory"
	"github.com/warp/work-ledger/worktime"
	"github.com/warp/work-ledger/worktime/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// ist is a fixed +05:30 zone so tests do not depend on the host tz database.
var ist = time.FixedZone("IST", 5*60*60+30*60)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	now    time.Time
	store  *store.TxMemory
	dir    *directory.Static
	engine *worktime.Engine
	ids    atomic.Int64
}

// newFixture starts the clock at now with emp-1 reporting to mgr-1.
func newFixture(t *testing.T, now time.Time) *fixture {
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		now:   now,
		store: store.NewTxMemory(),
		dir:   directory.NewStatic(),
	}
	f.engine = worktime.NewEngine(worktime.Config{
		Store:     f.store,
		Directory: f.dir,
		Catalog:   f.dir,
		Location:  ist,
		Clock:     worktime.ClockFunc(func() time.Time { return f.now }),
		NewID:     func() string { return fmt.Sprintf("id-%04d", f.ids.Add(1)) },
	})
	f.employee("emp-1", "mgr-1")
	return f
}

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, ist)
}

func date(year int, month time.Month, day int) worktime.Date {
	return worktime.NewDate(year, month, day)
}

func week(year, w int) worktime.FiscalWeek {
	return worktime.FiscalWeek{Year: year, Week: w}
}

func hours(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) setNow(t time.Time) { f.now = t }
func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }
func (f *fixture) employee(id, manager string) {
	require.NoError(f.t, f.dir.SaveEmployee(f.ctx, worktime.Employee{
		ID:               worktime.EmployeeID(id),
		Name:             id,
		DefaultManagerID: worktime.EmployeeID(manager),
	}))
}

func (f *fixture) responsibility(id, employee, task, override string) {
	require.NoError(f.t, f.dir.SaveResponsibility(f.ctx, worktime.Responsibility{
		ID:                worktime.ResponsibilityID(id),
		EmployeeID:        worktime.EmployeeID(employee),
		TaskName:          task,
		ManagerOverrideID: worktime.EmployeeID(override),
		Active:            true,
	}))
}

func (f *fixture) deactivate(id string) {
	r, err := f.dir.GetResponsibility(f.ctx, worktime.ResponsibilityID(id))
	require.NoError(f.t, err)
	r.Active = false
	require.NoError(f.t, f.dir.SaveResponsibility(f.ctx, *r))
}

func (f *fixture) sheet(employee string, w worktime.FiscalWeek) *worktime.Timesheet {
	ts, err := f.engine.GetOrCreateTimesheet(f.ctx, worktime.EmployeeID(employee), w)
	require.NoError(f.t, err)
	return ts
}

func workOn(d worktime.Date, h string) worktime.EntryInput {
	return worktime.EntryInput{WorkDate: d, Type: worktime.EntryWork, Label: "Editing", Hours: hours(h)}
}

// fill logs eight hours of work on every day of the timesheet's week.
func (f *fixture) fill(ts *worktime.Timesheet) {
	for _, d := range ts.Week.Days() {
		_, err := f.engine.AddEntry(f.ctx, ts.ID, workOn(d, "8"))
		require.NoError(f.t, err)
	}
}

func (f *fixture) submit(ts *worktime.Timesheet) *worktime.Timesheet {
	out, err := f.engine.SubmitTimesheet(f.ctx, ts.ID)
	require.NoError(f.t, err)
	return out
}

func (f *fixture) approve(ts *worktime.Timesheet) *worktime.Timesheet {
	out, err := f.engine.ReviewTimesheet(f.ctx, ts.ID, worktime.Review{
		ReviewerID: ts.ManagerID,
		Decision:   worktime.DecisionApprove,
	})
	require.NoError(f.t, err)
	return out
}

// checklist opens the checklist for d and returns the current attempt per
// responsibility.
func (f *fixture) checklist(employee string, d worktime.Date) (*worktime.DailyChecklist, map[string]worktime.ChecklistAttempt) {
	cl, err := f.engine.EnsureSubmission(f.ctx, worktime.EmployeeID(employee), d)
	require.NoError(f.t, err)
	tasks := make(map[string]worktime.ChecklistAttempt, len(cl.Tasks))
	for _, task := range cl.Tasks {
		tasks[string(task.Responsibility.ID)] = task.Current
	}
	return cl, tasks
}

// runTask moves a pending attempt through start, end and submit, spending
// d between start and end.
func (f *fixture) runTask(id worktime.AttemptID, d time.Duration) *worktime.EndResult {
	_, err := f.engine.StartTask(f.ctx, id)
	require.NoError(f.t, err)
	f.advance(d)
	res, err := f.engine.EndTask(f.ctx, id)
	require.NoError(f.t, err)
	_, err = f.engine.SubmitTask(f.ctx, id, "")
	require.NoError(f.t, err)
	return res
}
