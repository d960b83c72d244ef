package worktime

import (
	"time"

	"github.com/shopspring/decimal"
)

// hoursScale is the number of decimal places kept for logged hours.
const hoursScale = 2

// minLoggedHours is the smallest positive amount hoursScale can represent.
var minLoggedHours = decimal.New(1, -hoursScale)

// ElapsedHours returns max(0, end-start) in hours, rounded to two places.
// A positive interval never rounds below minLoggedHours.
//
// Unlike the editorial production-stage tracker, no business-hour exclusion
// is applied: nights, Sundays and holidays inside the interval all count.
func ElapsedHours(start, end time.Time) decimal.Decimal {
	d := end.Sub(start)
	if d <= 0 {
		return decimal.Zero
	}
	h := decimal.NewFromInt(int64(d)).
		Div(decimal.NewFromInt(int64(time.Hour))).
		Round(hoursScale)
	if h.LessThan(minLoggedHours) {
		return minLoggedHours
	}
	return h
}
