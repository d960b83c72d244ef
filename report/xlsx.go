/*
Package report renders a weekly timesheet as an Excel workbook.

LAYOUT (single sheet named after the fiscal week):
  Row 1      employee, week, status
  Row 3      entry header: Date | Day | Type | Label | Description | Hours | Reason
  Row 4..    one row per entry, ordered by date
  (blank)
  Totals     Date | Day | Logged | Downtime | Expected | Absence, one row per
             Monday-Saturday day, then a Week row with the sums
*/
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/work-ledger/worktime"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var entryHeader = []any{"Date", "Day", "Type", "Label", "Description", "Hours", "Reason"}
var totalsHeader = []any{"Date", "Day", "Logged", "Downtime", "Expected", "Absence"}

// Filename is the suggested download name for a timesheet export.
func Filename(ts worktime.Timesheet) string {
	return fmt.Sprintf("timesheet-%s-%s.xlsx", ts.EmployeeID, ts.Week)
}

// WriteTimesheet writes view as an xlsx workbook to w.
func WriteTimesheet(w io.Writer, employeeName string, view *worktime.TimesheetView) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := view.Timesheet.Week.String()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	sw := &sheetWriter{f: f, sheet: sheet, bold: bold}
	ts := view.Timesheet
	name := employeeName
	if name == "" {
		name = string(ts.EmployeeID)
	}
	sw.row(false, "Employee", name, "Week", ts.Week.String(), "Status", string(ts.Status))
	sw.skip()

	sw.row(true, entryHeader...)
	for _, en := range view.Entries {
		sw.row(false,
			en.WorkDate.String(),
			en.WorkDate.Weekday().String(),
			string(en.Type),
			en.Label,
			en.Description,
			en.Hours.InexactFloat64(),
			en.Reason,
		)
	}
	sw.skip()

	sum := view.Summary
	sw.row(true, totalsHeader...)
	for _, d := range sum.Days {
		sw.row(false,
			d.Date.String(),
			d.Date.Weekday().String(),
			d.LoggedHours.InexactFloat64(),
			d.DowntimeHours.InexactFloat64(),
			d.ExpectedHours.InexactFloat64(),
			string(d.Absence),
		)
	}
	sw.row(true, "Week", "",
		sum.LoggedHours.InexactFloat64(),
		sum.DowntimeHours.InexactFloat64(),
		sum.ExpectedHours.InexactFloat64(),
		"",
	)

	if sw.err != nil {
		return sw.err
	}
	if err := f.SetColWidth(sheet, "A", "B", 12); err != nil {
		return fmt.Errorf("set width: %w", err)
	}
	if err := f.SetColWidth(sheet, "D", "E", 30); err != nil {
		return fmt.Errorf("set width: %w", err)
	}
	return f.Write(w)
}

// sheetWriter appends rows top to bottom and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	bold  int
	next  int
	err   error
}

func (sw *sheetWriter) skip() { sw.next++ }

func (sw *sheetWriter) row(header bool, values ...any) {
	if sw.err != nil {
		return
	}
	sw.next++
	start, err := excelize.CoordinatesToCellName(1, sw.next)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetSheetRow(sw.sheet, start, &values); err != nil {
		sw.err = fmt.Errorf("write row %d: %w", sw.next, err)
		return
	}
	if header {
		end, _ := excelize.CoordinatesToCellName(len(values), sw.next)
		if err := sw.f.SetCellStyle(sw.sheet, start, end, sw.bold); err != nil {
			sw.err = fmt.Errorf("style row %d: %w", sw.next, err)
		}
	}
}
