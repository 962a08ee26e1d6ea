package absence

import (
	"time"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// EDIT WINDOW - Absences lock once their month has been paid
// =============================================================================

// DefaultGraceDays is how many days into the following month an absence can
// still be corrected.
const DefaultGraceDays = 5

// Window decides whether an absence may still be updated or deleted.
type Window struct {
	GraceDays int
}

func DefaultWindow() Window {
	return Window{GraceDays: DefaultGraceDays}
}

// IsEditable reports whether an absence dated eventDate may change at now.
//
// It is editable during its own calendar month and during
// [1st of the next month 00:00, day GraceDays+1 of the next month 00:00).
// Month boundaries are taken in now's location.
//
//	event 2024-01-31, now 2024-02-05 23:59:59 -> true
//	event 2024-01-31, now 2024-02-06 00:00:00 -> false
func (w Window) IsEditable(eventDate generic.TimePoint, now time.Time) bool {
	if eventDate.Year() == now.Year() && eventDate.Month() == now.Month() {
		return true
	}
	loc := now.Location()
	next := generic.MonthPeriod(eventDate).NextPeriod().Start
	graceStart := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, loc)
	return !now.Before(graceStart) && now.Before(w.LockedSince(eventDate, loc))
}

// LockedSince is the first instant at which an absence dated eventDate is
// no longer editable.
func (w Window) LockedSince(eventDate generic.TimePoint, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	next := generic.MonthPeriod(eventDate).NextPeriod().Start
	return time.Date(next.Year(), next.Month(), 1+w.graceDays(), 0, 0, 0, 0, loc)
}

// Check returns a *generic.LockedError if the absence is outside its window.
func (w Window) Check(a Absence, now time.Time) error {
	if w.IsEditable(a.Date, now) {
		return nil
	}
	return &generic.LockedError{
		ID:          a.ID,
		EventDate:   a.Date,
		LockedSince: w.LockedSince(a.Date, now.Location()),
	}
}

func (w Window) graceDays() int {
	if w.GraceDays < 0 {
		return 0
	}
	return w.GraceDays
}
