package worktime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/work-ledger/worktime"
)

func TestAddEntry_TypeRules(t *testing.T) {
	monday := date(2025, time.March, 3)

	tests := []struct {
		name string
		in   worktime.EntryInput
		code string // empty = accepted
	}{
		{"work", worktime.EntryInput{Type: worktime.EntryWork, Label: "Layout", Hours: hours("7.5")}, ""},
		{"work without label", worktime.EntryInput{Type: worktime.EntryWork, Hours: hours("7.5")}, "label_required"},
		{"work without hours", worktime.EntryInput{Type: worktime.EntryWork, Label: "Layout", Hours: hours("0")}, "invalid_hours"},
		{"holiday", worktime.EntryInput{Type: worktime.EntryHoliday, Label: "Holi", Hours: hours("0")}, ""},
		{"holiday with hours", worktime.EntryInput{Type: worktime.EntryHoliday, Label: "Holi", Hours: hours("8")}, "invalid_hours"},
		{"leave", worktime.EntryInput{Type: worktime.EntryLeave, Reason: "Family", Hours: hours("0")}, ""},
		{"leave without reason", worktime.EntryInput{Type: worktime.EntryLeave, Hours: hours("0")}, "reason_required"},
		{"half day", worktime.EntryInput{Type: worktime.EntryHalfDay, Reason: "Clinic", Hours: hours("4")}, ""},
		{"power cut without reason", worktime.EntryInput{Type: worktime.EntryPowerCut, Hours: hours("2")}, "reason_required"},
		{"system failure", worktime.EntryInput{Type: worktime.EntrySystemFailure, Reason: "Disk", Hours: hours("1")}, ""},
		{"other with zero hours", worktime.EntryInput{Type: worktime.EntryOther, Reason: "Training", Hours: hours("0")}, ""},
		{"negative hours", worktime.EntryInput{Type: worktime.EntryOther, Reason: "x", Hours: hours("-1")}, "invalid_hours"},
		{"over 24 hours", worktime.EntryInput{Type: worktime.EntryWork, Label: "x", Hours: hours("24.5")}, "invalid_hours"},
		{"unknown type", worktime.EntryInput{Type: "nap", Hours: hours("1")}, "invalid_type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, at(2025, time.March, 5, 10, 0))
			ts := f.sheet("emp-1", week(2025, 10))

			in := tc.in
			in.WorkDate = monday
			entry, err := f.engine.AddEntry(f.ctx, ts.ID, in)

			if tc.code == "" {
				require.NoError(t, err)
				assert.Equal(t, ts.ID, entry.TimesheetID)
				return
			}
			var verr *worktime.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.code, verr.Code)
		})
	}
}

func TestAddEntry_DateMustBeInWeek(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 5, 10, 0))
	ts := f.sheet("emp-1", week(2025, 10))

	_, err := f.engine.AddEntry(f.ctx, ts.ID, workOn(date(2025, time.March, 10), "1"))
	assert.ErrorIs(t, err, worktime.ErrValidation)

	var verr *worktime.ValidationError
	_, err = f.engine.AddEntry(f.ctx, ts.ID, workOn(date(2025, time.March, 9), "1"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sunday", verr.Code)
}

func TestAddEntry_MultiplePerDay(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 5, 10, 0))
	ts := f.sheet("emp-1", week(2025, 10))
	monday := date(2025, time.March, 3)

	_, err := f.engine.AddEntry(f.ctx, ts.ID, workOn(monday, "5"))
	require.NoError(t, err)
	_, err = f.engine.AddEntry(f.ctx, ts.ID, worktime.EntryInput{WorkDate: monday, Type: worktime.EntryNoInternet, Reason: "Router", Hours: hours("3")})
	require.NoError(t, err)

	view, err := f.engine.GetTimesheet(f.ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Summary.Days[0].Entries)
}

func TestUpdateEntry(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 5, 10, 0))
	ts := f.sheet("emp-1", week(2025, 10))
	entry, err := f.engine.AddEntry(f.ctx, ts.ID, workOn(date(2025, time.March, 3), "5"))
	require.NoError(t, err)

	updated, err := f.engine.UpdateEntry(f.ctx, entry.ID, worktime.EntryInput{
		WorkDate: date(2025, time.March, 4), Type: worktime.EntryWork, Label: " Proofing ", Hours: hours("6.25"),
	})
	require.NoError(t, err)

	assert.Equal(t, entry.ID, updated.ID)
	assert.Equal(t, date(2025, time.March, 4), updated.WorkDate)
	assert.Equal(t, "Proofing", updated.Label)
	assert.True(t, hours("6.25").Equal(updated.Hours))

	_, err = f.engine.UpdateEntry(f.ctx, entry.ID, workOn(date(2025, time.March, 11), "1"))
	assert.ErrorIs(t, err, worktime.ErrValidation, "entries cannot move to another week")
}

func TestDeleteEntry_OnlyWhileEditable(t *testing.T) {
	f := newFixture(t, at(2025, time.March, 5, 10, 0))
	ts := f.sheet("emp-1", week(2025, 10))
	extra, err := f.engine.AddEntry(f.ctx, ts.ID, workOn(date(2025, time.March, 3), "1"))
	require.NoError(t, err)
	f.fill(ts)
	f.submit(ts)

	err = f.engine.DeleteEntry(f.ctx, extra.ID)
	assert.ErrorIs(t, err, worktime.ErrStateConflict)

	_, err = f.engine.UpdateEntry(f.ctx, extra.ID, workOn(date(2025, time.March, 3), "2"))
	assert.ErrorIs(t, err, worktime.ErrStateConflict)

	_, err = f.engine.ReviewTimesheet(f.ctx, ts.ID, worktime.Review{ReviewerID: "mgr-1", Decision: worktime.DecisionReject, Notes: "duplicate Monday entry"})
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteEntry(f.ctx, extra.ID))
	err = f.engine.DeleteEntry(f.ctx, extra.ID)
	assert.ErrorIs(t, err, worktime.ErrNotFound)
}

func TestAddEntry_LaterWeekLockedWhenEarlierReopens(t *testing.T) {
	// GIVEN: Week 10 submitted and week 11 opened afterwards
	f := newFixture(t, at(2025, time.March, 5, 10, 0))
	w10 := f.sheet("emp-1", week(2025, 10))
	f.fill(w10)
	f.submit(w10)

	f.setNow(at(2025, time.March, 12, 10, 0))
	w11 := f.sheet("emp-1", week(2025, 11))
	_, err := f.engine.AddEntry(f.ctx, w11.ID, workOn(date(2025, time.March, 10), "8"))
	require.NoError(t, err)

	// WHEN: The manager rejects week 10
	_, err = f.engine.ReviewTimesheet(f.ctx, w10.ID, worktime.Review{ReviewerID: "mgr-1", Decision: worktime.DecisionReject, Notes: "fix Friday"})
	require.NoError(t, err)

	// THEN: Week 11 refuses writes until week 10 is resubmitted
	_, err = f.engine.AddEntry(f.ctx, w11.ID, workOn(date(2025, time.March, 11), "8"))
	var seq *worktime.SequenceViolationError
	require.ErrorAs(t, err, &seq)
	assert.Equal(t, week(2025, 10), *seq.Week)

	f.submit(w10)
	_, err = f.engine.AddEntry(f.ctx, w11.ID, workOn(date(2025, time.March, 11), "8"))
	require.NoError(t, err)
}
