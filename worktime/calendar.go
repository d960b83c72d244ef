package worktime

import (
	"fmt"
	"time"
)

// =============================================================================
// CLOCK - Every "now" in the ledger comes from here
// =============================================================================

// Clock returns the current instant. Implementations must return times in the
// business location so that day and week boundaries are computed consistently.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock and converts it to the business location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// LoadLocation resolves the configured business timezone.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid business timezone %q: %w", name, err)
	}
	return loc, nil
}

// =============================================================================
// DATE - A calendar day in the business timezone
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day and no location. It is comparable
// and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location. Callers convert to
// the business location first.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) time() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date { return DateOf(d.time().AddDate(0, 0, n)) }
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }
func (d Date) IsSunday() bool { return d.Weekday() == time.Sunday }
func (d Date) IsZero() bool { return d == Date{} }
func (d Date) Before(o Date) bool { return d.time().Before(o.time()) }
func (d Date) After(o Date) bool { return d.time().After(o.time()) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) DaysUntil(o Date) int { return int(o.time().Sub(d.time()).Hours() / 24) }
func (d Date) Week() FiscalWeek { return WeekOf(d) }
func (d Date) String() string { return d.time().Format(dateLayout) }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MaxDate returns the later of a and b.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// FISCAL WEEK - (ISO year, ISO week), Monday through Saturday
// =============================================================================

// WorkDaysPerWeek is the Monday-Saturday work week. Sunday is never a work day.
const WorkDaysPerWeek = 6

// FiscalWeek identifies a week by ISO year and ISO week number. It is derived,
// never stored on its own.
type FiscalWeek struct {
	Year int
	Week int
}

// WeekOf returns the fiscal week containing d.
func WeekOf(d Date) FiscalWeek {
	y, w := d.time().ISOWeek()
	return FiscalWeek{Year: y, Week: w}
}

// ParseWeek parses the "2025-W10" form produced by String.
func ParseWeek(s string) (FiscalWeek, error) {
	var fw FiscalWeek
	if _, err := fmt.Sscanf(s, "%d-W%d", &fw.Year, &fw.Week); err != nil {
		return FiscalWeek{}, fmt.Errorf("invalid fiscal week %q (use YYYY-Www): %w", s, err)
	}
	if fw.Week < 1 || fw.Week > 53 || WeekOf(fw.Monday()) != fw {
		return FiscalWeek{}, fmt.Errorf("invalid fiscal week %q", s)
	}
	return fw, nil
}

// Monday returns the first day of the week.
func (fw FiscalWeek) Monday() Date {
	// January 4th is always in ISO week 1.
	jan4 := NewDate(fw.Year, time.January, 4)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDays(-offset + (fw.Week-1)*7)
}

// Saturday returns the last work day of the week.
func (fw FiscalWeek) Saturday() Date { return fw.Monday().AddDays(WorkDaysPerWeek - 1) }

// Days returns Monday through Saturday.
func (fw FiscalWeek) Days() []Date {
	days := make([]Date, 0, WorkDaysPerWeek)
	monday := fw.Monday()
	for i := 0; i < WorkDaysPerWeek; i++ {
		days = append(days, monday.AddDays(i))
	}
	return days
}

// Contains reports whether d is one of the week's work days.
func (fw FiscalWeek) Contains(d Date) bool {
	return !d.IsSunday() && WeekOf(d) == fw
}

func (fw FiscalWeek) Next() FiscalWeek { return WeekOf(fw.Monday().AddDays(7)) }
func (fw FiscalWeek) Prev() FiscalWeek { return WeekOf(fw.Monday().AddDays(-7)) }
func (fw FiscalWeek) Before(o FiscalWeek) bool { return fw.Monday().Before(o.Monday()) }
func (fw FiscalWeek) After(o FiscalWeek) bool { return fw.Monday().After(o.Monday()) }
func (fw FiscalWeek) IsZero() bool { return fw == FiscalWeek{} }
func (fw FiscalWeek) String() string { return fmt.Sprintf("%04d-W%02d", fw.Year, fw.Week) }

func (fw FiscalWeek) MarshalText() ([]byte, error) { return []byte(fw.String()), nil }

func (fw *FiscalWeek) UnmarshalText(b []byte) error {
	parsed, err := ParseWeek(string(b))
	if err != nil {
		return err
	}
	*fw = parsed
	return nil
}
