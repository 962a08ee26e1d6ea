package generic

import (
	"strings"
	"time"
)

// =============================================================================
// RECORDS - Plain data handed between stores and calculators
// =============================================================================

// Employee is read-only to the engine; only the hire date matters to payroll.
type Employee struct {
	ID        EmployeeID
	Name      string
	Email     string
	HireDate  TimePoint
	CreatedAt time.Time
}

// BaseSalary is an employee's contractual monthly salary.
// EndDate nil means currently active; at most one active per employee.
type BaseSalary struct {
	ID         BaseSalaryID
	EmployeeID EmployeeID
	Amount     Money
	StartDate  TimePoint
	EndDate    *TimePoint
	CreatedAt  time.Time
}

func (b BaseSalary) IsActive() bool { return b.EndDate == nil }

// InEffectOn reports whether date falls in [StartDate, EndDate].
func (b BaseSalary) InEffectOn(date TimePoint) bool {
	if date.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || date.BeforeOrEqual(*b.EndDate)
}

// =============================================================================
// SALARY EVENTS
// =============================================================================

type SalaryEventKind string

const (
	EventBonus     SalaryEventKind = "BONUS"
	EventDeduction SalaryEventKind = "DEDUCTION"
	EventAdvance   SalaryEventKind = "ADVANCE"
)

func ParseSalaryEventKind(s string) (SalaryEventKind, error) {
	switch k := SalaryEventKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case EventBonus, EventDeduction, EventAdvance:
		return k, nil
	}
	return "", &ValidationError{Field: "kind", Message: "must be one of BONUS, DEDUCTION, ADVANCE"}
}

type Recurrence string

const (
	RecurrenceOneTime Recurrence = "ONE_TIME"
	RecurrenceMonthly Recurrence = "MONTHLY"
)

func ParseRecurrence(s string) (Recurrence, error) {
	if strings.TrimSpace(s) == "" {
		return RecurrenceOneTime, nil
	}
	switch r := Recurrence(strings.ToUpper(strings.TrimSpace(s))); r {
	case RecurrenceOneTime, RecurrenceMonthly:
		return r, nil
	}
	return "", &ValidationError{Field: "recurrence", Message: "must be ONE_TIME or MONTHLY"}
}

// SalaryEvent is a dated bonus, deduction or advance.
// Amount is always stored positive; the kind decides its effect.
type SalaryEvent struct {
	ID             SalaryEventID
	EmployeeID     EmployeeID
	Kind           SalaryEventKind
	Description    string
	Amount         Money
	Recurrence     Recurrence
	StartDate      TimePoint
	EndDate        TimePoint // zero = open-ended (recurring only)
	IdempotencyKey string
	CreatedAt      time.Time
}

// AffectsPeriod reports whether the event is effective during p.
// One-time events count in the period containing their start date; recurring
// events count in every period their [StartDate, EndDate] range touches.
func (e SalaryEvent) AffectsPeriod(p Period) bool {
	if e.Recurrence == RecurrenceOneTime || e.Recurrence == "" {
		return p.Contains(e.StartDate)
	}
	return p.Overlaps(e.StartDate, e.EndDate)
}

// =============================================================================
// ABSENCES
// =============================================================================

type AbsenceKind string

const (
	KindPermission AbsenceKind = "PERMISSION"
	KindAbsence    AbsenceKind = "ABSENCE"
)

func ParseAbsenceKind(s string) (AbsenceKind, error) {
	switch k := AbsenceKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindPermission, KindAbsence:
		return k, nil
	}
	return "", &ValidationError{Field: "type", Message: "must be PERMISSION or ABSENCE"}
}

type AbsenceDuration string

const (
	DurationHalfDay AbsenceDuration = "HALF_DAY"
	DurationFullDay AbsenceDuration = "FULL_DAY"
)

// ParseAbsenceDuration returns nil for an empty string: "no duration given"
// is a distinct state from an invalid one.
func ParseAbsenceDuration(s string) (*AbsenceDuration, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	switch d := AbsenceDuration(strings.ToUpper(strings.TrimSpace(s))); d {
	case DurationHalfDay, DurationFullDay:
		return &d, nil
	}
	return nil, &ValidationError{Field: "duration", Message: "must be HALF_DAY or FULL_DAY"}
}

// Absence is a priced permission or unexcused absence on a single date.
type Absence struct {
	ID          AbsenceID
	EmployeeID  EmployeeID
	Kind        AbsenceKind
	Duration    *AbsenceDuration
	Date        TimePoint
	Deduction   Money
	Reason      string
	Notes       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
