package worktime

import "github.com/shopspring/decimal"

// DaySummary aggregates one Monday-Saturday date of a timesheet.
type DaySummary struct {
	Date          Date
	Entries       int
	LoggedHours   decimal.Decimal // work, half day and other
	DowntimeHours decimal.Decimal
	ExpectedHours decimal.Decimal
	Absence       EntryType // holiday or leave, empty otherwise
}

// WeekSummary is computed on read and never stored.
type WeekSummary struct {
	Week          FiscalWeek
	Days          []DaySummary
	LoggedHours   decimal.Decimal
	DowntimeHours decimal.Decimal
	ExpectedHours decimal.Decimal
	MissingDays   []Date
}

// Summarize aggregates entries over the week's working days. A holiday or
// leave drops the day's expected hours to zero; a half day halves them.
func Summarize(week FiscalWeek, entries []WorkEntry, standardDay decimal.Decimal) WeekSummary {
	byDate := make(map[Date][]WorkEntry)
	for _, en := range entries {
		byDate[en.WorkDate] = append(byDate[en.WorkDate], en)
	}

	sum := WeekSummary{Week: week}
	half := standardDay.Div(decimal.NewFromInt(2))
	for _, d := range week.Days() {
		day := DaySummary{Date: d, Entries: len(byDate[d]), ExpectedHours: standardDay}
		for _, en := range byDate[d] {
			switch {
			case en.Type.IsAbsence():
				day.Absence = en.Type
			case en.Type.IsDowntime():
				day.DowntimeHours = day.DowntimeHours.Add(en.Hours)
			default:
				day.LoggedHours = day.LoggedHours.Add(en.Hours)
			}
			if en.Type == EntryHalfDay && day.ExpectedHours.GreaterThan(half) {
				day.ExpectedHours = half
			}
		}
		if day.Absence != "" {
			day.ExpectedHours = decimal.Zero
		}
		if day.Entries == 0 {
			sum.MissingDays = append(sum.MissingDays, d)
		}

		sum.LoggedHours = sum.LoggedHours.Add(day.LoggedHours)
		sum.DowntimeHours = sum.DowntimeHours.Add(day.DowntimeHours)
		sum.ExpectedHours = sum.ExpectedHours.Add(day.ExpectedHours)
		sum.Days = append(sum.Days, day)
	}
	return sum
}

// uncoveredDays lists the working days of week with no entry at all.
func uncoveredDays(week FiscalWeek, entries []WorkEntry) []Date {
	covered := make(map[Date]bool, len(entries))
	for _, en := range entries {
		covered[en.WorkDate] = true
	}
	var missing []Date
	for _, d := range week.Days() {
		if !covered[d] {
			missing = append(missing, d)
		}
	}
	return missing
}
