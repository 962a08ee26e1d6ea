package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Pay period boundaries
// =============================================================================

// Period is an inclusive date range [Start, End].
// Payroll runs monthly, so the usual period is one calendar month.
type Period struct {
	Start TimePoint
	End   TimePoint
}

func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// MonthPeriod returns the calendar month containing date.
func MonthPeriod(date TimePoint) Period {
	return Period{
		Start: StartOfMonth(date.Year(), date.Month()),
		End:   EndOfMonth(date.Year(), date.Month()),
	}
}

// PeriodForInstant returns the pay period containing the calendar date of t.
func PeriodForInstant(t time.Time) Period {
	return MonthPeriod(DateOf(t))
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps returns true if [start, end] shares at least one day with the period.
// A zero end means open-ended.
func (p Period) Overlaps(start, end TimePoint) bool {
	if start.After(p.End) {
		return false
	}
	if !end.IsZero() && end.Before(p.Start) {
		return false
	}
	return true
}

// Key returns a compact period identifier, 2024-01 -> 202401, as used on payslips.
func (p Period) Key() int {
	return p.Start.Year()*100 + int(p.Start.Month())
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// ParseMonth parses "YYYY-MM" into its month period.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return MonthPeriod(DateOf(t)), nil
}

// NextPeriod returns the calendar month following this one
func (p Period) NextPeriod() Period {
	return MonthPeriod(p.Start.AddMonths(1))
}

// PreviousPeriod returns the calendar month before this one
func (p Period) PreviousPeriod() Period {
	return MonthPeriod(p.Start.AddMonths(-1))
}
