/*
Package absence implements the absence and permission policy.

PURPOSE:
  Decides how much an unexcused absence or a paid-time permission deducts
  from pay, how the record is described on the payslip, and until when it
  may still be changed. The server owns these rules; clients submit a kind,
  a duration and a date, never an amount.

KEY CONCEPTS:
  Kind:      PERMISSION (duration required) or ABSENCE (always a full day)
  Pricing:   dailyWorkValue * fraction, doubled for absences
  Window:    editable during the event's month and the first days of the next
  View:      an Absence plus its editability, computed on every read

USAGE:
  svc := absence.NewService(store, absence.DefaultPricing(), absence.DefaultWindow(), clock, log)
  a, err := svc.Create(ctx, absence.CreateInput{
      EmployeeID: "emp-1",
      Kind:       absence.KindPermission,
      Duration:   absence.Ptr(absence.DurationHalfDay),
      Date:       generic.MustParseDate("2024-03-04"),
  })
  // a.Deduction == 41.67 BOB

SEE ALSO:
  - pricing.go: Price and the pricing constants
  - window.go: IsEditable
  - description.go: Describe and the legacy description parser
  - payroll/classify.go: How absences become payslip deduction buckets
*/
package absence

import "github.com/warp/payroll-engine/generic"

// Record types live in generic so stores don't depend on this package.
type (
	Absence  = generic.Absence
	Kind     = generic.AbsenceKind
	Duration = generic.AbsenceDuration
)

const (
	KindPermission = generic.KindPermission
	KindAbsence    = generic.KindAbsence

	DurationHalfDay = generic.DurationHalfDay
	DurationFullDay = generic.DurationFullDay
)

// Ptr returns a pointer to d, for the optional Duration fields.
func Ptr(d Duration) *Duration { return &d }

// View is an absence as shown to a user at a given instant.
type View struct {
	Absence
	Editable bool
}

// Summary counts a listing the way the absence screen shows it.
type Summary struct {
	Permissions     int
	Absences        int
	TotalDeductions generic.Money
}

// Summarize totals the listed absences.
func Summarize(currency generic.Currency, views []View) Summary {
	s := Summary{TotalDeductions: generic.ZeroMoney(currency)}
	for _, v := range views {
		switch v.Kind {
		case KindPermission:
			s.Permissions++
		case KindAbsence:
			s.Absences++
		}
		s.TotalDeductions = s.TotalDeductions.Add(v.Deduction)
	}
	return s
}
