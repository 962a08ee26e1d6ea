package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

const millisPerDay = 24 * 60 * 60 * 1000

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes payslips. It holds no mutable state and is safe for
// concurrent use as long as each call gets its own Input.
type Calculator struct {
	Policy Policy
}

func NewCalculator(policy Policy) *Calculator {
	return &Calculator{Policy: policy}
}

// Compute produces the payslip breakdown for in.
//
// Errors:
//   - generic.ErrNoBaseSalary when in.BaseSalary is nil or not in effect on
//     in.Today
//   - *generic.InvalidAmountError (ErrInvalidAmount) for a non-positive base
//     or a negative deduction, detected before any arithmetic
func (c *Calculator) Compute(in Input) (Breakdown, error) {
	if in.BaseSalary == nil || !in.BaseSalary.InEffectOn(generic.DateOf(in.Today)) {
		return Breakdown{}, generic.ErrNoBaseSalary
	}
	if err := c.validate(in); err != nil {
		return Breakdown{}, err
	}

	base := in.BaseSalary.Amount
	currency := base.Currency

	years := YearsWorked(in.Employee.HireDate, in.Today, c.Policy.DaysPerYear)
	rate := c.Policy.SeniorityRate(years)
	bonus := SeniorityBonus(base, rate)
	gross := base.Add(bonus)
	statutory := StatutoryDeduction(base, bonus, c.Policy.StatutoryRate)

	buckets := Partition(currency, in.Deductions)
	totals := make([]generic.Money, len(buckets))
	for i, b := range buckets {
		totals[i] = b.Total
	}
	other := generic.Sum(currency, totals...)

	net := gross.Sub(statutory).Sub(other)

	breakdown := Breakdown{
		Employee:             in.Employee,
		Period:               in.Period,
		AsOf:                 generic.DateOf(in.Today),
		BaseSalary:           base,
		YearsWorked:          years,
		SeniorityRate:        rate,
		SeniorityBonus:       bonus,
		GrossAmount:          gross,
		StatutoryRate:        c.Policy.StatutoryRate,
		StatutoryDeduction:   statutory,
		Buckets:              buckets,
		OtherDeductionsTotal: other,
		TotalDeductions:      statutory.Add(other),
		NetAmount:            net,
	}
	if net.IsNegative() {
		breakdown.Warnings = append(breakdown.Warnings, WarningNegativeNet)
	}
	return breakdown, nil
}

func (c *Calculator) validate(in Input) error {
	base := in.BaseSalary.Amount
	if err := generic.CheckPositiveAmount("base_salary", base); err != nil {
		return err
	}
	for i, d := range in.Deductions {
		if d.Amount.IsNegative() {
			return &generic.InvalidAmountError{
				Field:  fmt.Sprintf("deductions[%d]", i),
				Value:  d.Amount.Value.String(),
				Reason: "must not be negative",
			}
		}
		if d.Amount.HasSubCents() {
			return &generic.InvalidAmountError{
				Field:  fmt.Sprintf("deductions[%d]", i),
				Value:  d.Amount.Value.String(),
				Reason: "more than 2 decimal places",
			}
		}
		if d.Amount.Currency != "" && d.Amount.Currency != base.Currency {
			return &generic.InvalidAmountError{
				Field:  fmt.Sprintf("deductions[%d]", i),
				Value:  d.Amount.String(),
				Reason: "currency differs from base salary " + string(base.Currency),
			}
		}
	}
	return nil
}

// =============================================================================
// SENIORITY
// =============================================================================

// YearsWorked counts full years of service: floor(elapsed / daysPerYear days).
// A hire date in the future yields 0.
func YearsWorked(hireDate generic.TimePoint, today time.Time, daysPerYear decimal.Decimal) int {
	elapsed := today.Sub(hireDate.Time)
	if elapsed <= 0 || !daysPerYear.IsPositive() {
		return 0
	}
	yearMillis := daysPerYear.Mul(decimal.NewFromInt(millisPerDay))
	years := decimal.NewFromInt(elapsed.Milliseconds()).Div(yearMillis).Floor()
	return int(years.IntPart())
}

// SeniorityBonus is round2(base * rate).
func SeniorityBonus(base generic.Money, rate generic.Rate) generic.Money {
	return base.MulRate(rate).Round2()
}

// StatutoryDeduction is round2((base + bonus) * rate).
func StatutoryDeduction(base, bonus generic.Money, rate generic.Rate) generic.Money {
	return base.Add(bonus).MulRate(rate).Round2()
}

// =============================================================================
// BUCKETS
// =============================================================================

// Partition groups deductions into the permission, absence and other buckets.
// Every event lands in exactly one bucket; unknown categories count as other.
func Partition(currency generic.Currency, deductions []DeductionEvent) []Bucket {
	index := make(map[Category]int, len(Categories))
	buckets := make([]Bucket, len(Categories))
	for i, c := range Categories {
		index[c] = i
		buckets[i] = Bucket{Category: c, Total: generic.ZeroMoney(currency)}
	}

	for _, d := range deductions {
		i, ok := index[d.Category]
		if !ok {
			i = index[CategoryOther]
		}
		buckets[i].Count++
		buckets[i].Total = buckets[i].Total.Add(d.Amount)
		buckets[i].Items = append(buckets[i].Items, d)
	}
	return buckets
}
