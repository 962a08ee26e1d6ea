/*
Package payroll implements the seniority and net pay engine.

PURPOSE:
  Turns a base salary, a hire date and the period's deduction events into a
  payslip breakdown: years of service, seniority bonus, statutory withholding,
  itemized deductions and net pay. The Calculator is a pure function of its
  Input; "today" is part of the input, never read from a clock.

COMPUTATION:
  1. yearsWorked        = floor((today - hireDate) / 365.25 days), >= 0
  2. seniorityBonus     = round2(base * yearsWorked * 5%)
  3. statutoryDeduction = round2((base + bonus) * 12.71%)
  4. deductions bucketed into permissions / absences / other
  5. net                = base + bonus - statutory - sum(buckets)

  Rates and the year length come from Policy, not literals.
  A negative net is returned as-is and flagged with WarningNegativeNet.

EXAMPLE:
  calc := payroll.NewCalculator(payroll.DefaultPolicy())
  b, err := calc.Compute(payroll.Input{
      Employee:   emp,
      BaseSalary: salary,
      Deductions: payroll.FromAbsences(absences),
      Today:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
  })
  if errors.Is(err, generic.ErrNoBaseSalary) { ... }

SEE ALSO:
  - classify.go: Deduction categories and the legacy description adapter
  - service.go: Snapshot fetch + compute
  - absence/: How absence and permission amounts are priced
*/
package payroll

import (
	"time"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// DEDUCTION CATEGORY
// =============================================================================

type Category string

const (
	CategoryPermission Category = "PERMISSION"
	CategoryAbsence    Category = "ABSENCE"
	CategoryOther      Category = "OTHER"
)

// Categories lists buckets in payslip order.
var Categories = []Category{CategoryPermission, CategoryAbsence, CategoryOther}

// Source tells where a deduction event came from.
type Source string

const (
	SourceSalaryEvent Source = "salary_event"
	SourceAbsence     Source = "absence"
)

// DeductionEvent is one already-priced deduction affecting the period.
type DeductionEvent struct {
	ID          string
	Category    Category
	Description string
	Amount      generic.Money
	Date        generic.TimePoint
	Source      Source
}

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// Input is the snapshot the Calculator works on.
// BaseSalary nil means the employee has no base salary in effect on Today.
type Input struct {
	Employee   generic.Employee
	BaseSalary *generic.BaseSalary
	Deductions []DeductionEvent
	Period     generic.Period
	Today      time.Time
}

// Bucket is the total of one deduction category.
type Bucket struct {
	Category Category
	Count    int
	Total    generic.Money
	Items    []DeductionEvent
}

const (
	// WarningNegativeNet marks a payslip whose deductions exceed earnings.
	// The net is still returned unclamped; callers decide how to surface it.
	WarningNegativeNet = "negative_net"
)

// Breakdown is the computed payslip.
type Breakdown struct {
	Employee             generic.Employee
	Period               generic.Period
	AsOf                 generic.TimePoint
	BaseSalary           generic.Money
	YearsWorked          int
	SeniorityRate        generic.Rate
	SeniorityBonus       generic.Money
	GrossAmount          generic.Money
	StatutoryRate        generic.Rate
	StatutoryDeduction   generic.Money
	Buckets              []Bucket
	OtherDeductionsTotal generic.Money
	TotalDeductions      generic.Money
	NetAmount            generic.Money
	Warnings             []string
}

// Bucket returns the bucket for a category.
func (b Breakdown) Bucket(c Category) Bucket {
	for _, bucket := range b.Buckets {
		if bucket.Category == c {
			return bucket
		}
	}
	return Bucket{Category: c, Total: generic.ZeroMoney(b.BaseSalary.Currency)}
}

func (b Breakdown) HasWarning(w string) bool {
	for _, existing := range b.Warnings {
		if existing == w {
			return true
		}
	}
	return false
}

func (b Breakdown) IsNegative() bool { return b.NetAmount.IsNegative() }
