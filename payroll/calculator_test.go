package payroll_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func bob(s string) generic.Money {
	return generic.MustParseMoney(s, generic.CurrencyBOB)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func employeeHired(hire time.Time) generic.Employee {
	return generic.Employee{
		ID:       "emp-1",
		Name:     "Ana Quispe",
		HireDate: generic.DateOf(hire),
	}
}

func activeSalary(amount string) *generic.BaseSalary {
	return &generic.BaseSalary{
		ID:         "bs-1",
		EmployeeID: "emp-1",
		Amount:     bob(amount),
		StartDate:  generic.NewTimePoint(2020, time.January, 1),
	}
}

func deduction(category payroll.Category, amount string) payroll.DeductionEvent {
	return payroll.DeductionEvent{
		ID:       string(category) + "-" + amount,
		Category: category,
		Amount:   bob(amount),
		Date:     generic.NewTimePoint(2024, time.March, 5),
		Source:   payroll.SourceAbsence,
	}
}

func compute(t *testing.T, in payroll.Input) payroll.Breakdown {
	t.Helper()
	b, err := payroll.NewCalculator(payroll.DefaultPolicy()).Compute(in)
	require.NoError(t, err)
	return b
}

// =============================================================================
// SENIORITY AND STATUTORY TESTS
// =============================================================================

func TestCalculator_ThreeYearsOfService(t *testing.T) {
	// GIVEN: 5000 BOB base, hired 2021-01-15, payroll run 2024-03-15
	// WHEN: Computing with no deductions
	// THEN: 3 years -> 15% bonus = 750, AFP = round2(5750 * 0.1271) = 730.83

	b := compute(t, payroll.Input{
		Employee:   employeeHired(date(2021, time.January, 15)),
		BaseSalary: activeSalary("5000"),
		Today:      date(2024, time.March, 15),
	})

	assert.Equal(t, 3, b.YearsWorked)
	assert.True(t, b.SeniorityRate.Value.Equal(decimal.RequireFromString("0.15")))
	assert.Equal(t, "750.00 BOB", b.SeniorityBonus.String())
	assert.Equal(t, "5750.00 BOB", b.GrossAmount.String())
	assert.Equal(t, "730.83 BOB", b.StatutoryDeduction.String())
	assert.Equal(t, "0.00 BOB", b.OtherDeductionsTotal.String())
	assert.Equal(t, "730.83 BOB", b.TotalDeductions.String())
	assert.Equal(t, "5019.17 BOB", b.NetAmount.String())
	assert.Empty(t, b.Warnings)
}

func TestCalculator_YearBoundary(t *testing.T) {
	hire := date(2021, time.March, 15)

	tests := []struct {
		name  string
		today time.Time
		years int
	}{
		{"day before third anniversary", date(2024, time.March, 14), 2},
		{"third anniversary", date(2024, time.March, 15), 3},
		{"hired today", hire, 0},
		{"365 days is short of a 365.25-day year", date(2022, time.March, 15), 0},
		{"future hire date", date(2020, time.January, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			years := payroll.YearsWorked(generic.DateOf(hire), tt.today, payroll.DefaultPolicy().DaysPerYear)
			assert.Equal(t, tt.years, years)
		})
	}
}

func TestCalculator_SeniorityBonusByYears(t *testing.T) {
	// bonus = round2(base * years * 0.05)
	tests := []struct {
		years int
		base  string
		bonus string
	}{
		{0, "5000", "0.00"},
		{1, "5000", "250.00"},
		{2, "5000", "500.00"},
		{10, "5000", "2500.00"},
		{1, "4321.99", "216.10"},
		{2, "3333.33", "333.33"},
	}

	today := date(2024, time.March, 15)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d years on %s", tt.years, tt.base), func(t *testing.T) {
			b := compute(t, payroll.Input{
				Employee:   employeeHired(today.AddDate(-tt.years, 0, 0)),
				BaseSalary: activeSalary(tt.base),
				Today:      today,
			})

			assert.Equal(t, tt.years, b.YearsWorked)
			assert.Equal(t, tt.bonus+" BOB", b.SeniorityBonus.String())
		})
	}
}

func TestCalculator_FutureHireDate_NoBonus(t *testing.T) {
	b := compute(t, payroll.Input{
		Employee:   employeeHired(date(2025, time.June, 1)),
		BaseSalary: activeSalary("3000"),
		Today:      date(2024, time.March, 15),
	})

	assert.Equal(t, 0, b.YearsWorked)
	assert.True(t, b.SeniorityBonus.IsZero())
	assert.Equal(t, "381.30 BOB", b.StatutoryDeduction.String())
}

func TestCalculator_SeniorityCap(t *testing.T) {
	// GIVEN: A policy capping seniority at 10%
	policy := payroll.DefaultPolicy()
	max := generic.MustParseRate("0.10")
	policy.MaxSeniorityRate = &max

	// WHEN: An employee with 3 years is computed
	b, err := payroll.NewCalculator(policy).Compute(payroll.Input{
		Employee:   employeeHired(date(2021, time.January, 15)),
		BaseSalary: activeSalary("5000"),
		Today:      date(2024, time.March, 15),
	})

	// THEN: The bonus stops at the cap
	require.NoError(t, err)
	assert.Equal(t, 3, b.YearsWorked)
	assert.Equal(t, "500.00 BOB", b.SeniorityBonus.String())
}

// =============================================================================
// DEDUCTION BUCKET TESTS
// =============================================================================

func TestCalculator_BucketsAndNet(t *testing.T) {
	// GIVEN: A half-day permission, a one-day absence and an advance repayment
	in := payroll.Input{
		Employee:   employeeHired(date(2021, time.January, 15)),
		BaseSalary: activeSalary("5000"),
		Today:      date(2024, time.March, 15),
		Deductions: []payroll.DeductionEvent{
			deduction(payroll.CategoryPermission, "41.67"),
			deduction(payroll.CategoryAbsence, "166.66"),
			deduction(payroll.CategoryOther, "100.00"),
		},
	}

	// WHEN: Computing
	b := compute(t, in)

	// THEN: Each event lands in exactly one bucket and net = gross - AFP - buckets
	assert.Equal(t, 1, b.Bucket(payroll.CategoryPermission).Count)
	assert.Equal(t, "41.67 BOB", b.Bucket(payroll.CategoryPermission).Total.String())
	assert.Equal(t, "166.66 BOB", b.Bucket(payroll.CategoryAbsence).Total.String())
	assert.Equal(t, "100.00 BOB", b.Bucket(payroll.CategoryOther).Total.String())
	assert.Equal(t, "308.33 BOB", b.OtherDeductionsTotal.String())
	assert.Equal(t, "1039.16 BOB", b.TotalDeductions.String())
	assert.Equal(t, "4710.84 BOB", b.NetAmount.String())

	// AND: Buckets come out in payslip order
	require.Len(t, b.Buckets, 3)
	assert.Equal(t, payroll.CategoryPermission, b.Buckets[0].Category)
	assert.Equal(t, payroll.CategoryAbsence, b.Buckets[1].Category)
	assert.Equal(t, payroll.CategoryOther, b.Buckets[2].Category)
}

func TestCalculator_UnknownCategoryCountsAsOther(t *testing.T) {
	b := compute(t, payroll.Input{
		Employee:   employeeHired(date(2024, time.January, 1)),
		BaseSalary: activeSalary("1000"),
		Today:      date(2024, time.March, 15),
		Deductions: []payroll.DeductionEvent{deduction("UNIFORM", "25.00")},
	})

	assert.Equal(t, 1, b.Bucket(payroll.CategoryOther).Count)
	assert.Equal(t, "25.00 BOB", b.OtherDeductionsTotal.String())
}

func TestCalculator_NegativeNet_Flagged(t *testing.T) {
	// GIVEN: Deductions larger than the salary
	// WHEN: Computing
	// THEN: Net is negative, not clamped, and carries the warning

	b := compute(t, payroll.Input{
		Employee:   employeeHired(date(2024, time.March, 1)),
		BaseSalary: activeSalary("100"),
		Today:      date(2024, time.March, 15),
		Deductions: []payroll.DeductionEvent{deduction(payroll.CategoryOther, "200")},
	})

	assert.Equal(t, "-112.71 BOB", b.NetAmount.String())
	assert.True(t, b.IsNegative())
	assert.True(t, b.HasWarning(payroll.WarningNegativeNet))
}

func TestCalculator_Idempotent(t *testing.T) {
	in := payroll.Input{
		Employee:   employeeHired(date(2019, time.July, 1)),
		BaseSalary: activeSalary("4321.99"),
		Today:      date(2024, time.March, 15),
		Deductions: []payroll.DeductionEvent{deduction(payroll.CategoryAbsence, "83.33")},
	}

	first := compute(t, in)
	second := compute(t, in)

	assert.True(t, first.NetAmount.Equal(second.NetAmount))
	assert.True(t, first.StatutoryDeduction.Equal(second.StatutoryDeduction))
	assert.Equal(t, first.YearsWorked, second.YearsWorked)
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestCalculator_NoBaseSalary(t *testing.T) {
	calc := payroll.NewCalculator(payroll.DefaultPolicy())

	_, err := calc.Compute(payroll.Input{
		Employee: employeeHired(date(2021, time.January, 15)),
		Today:    date(2024, time.March, 15),
	})
	assert.ErrorIs(t, err, generic.ErrNoBaseSalary)

	closed := activeSalary("5000")
	end := generic.NewTimePoint(2023, time.December, 31)
	closed.EndDate = &end
	_, err = calc.Compute(payroll.Input{
		Employee:   employeeHired(date(2021, time.January, 15)),
		BaseSalary: closed,
		Today:      date(2024, time.March, 15),
	})
	assert.ErrorIs(t, err, generic.ErrNoBaseSalary)

	notStarted := activeSalary("5000")
	notStarted.StartDate = generic.NewTimePoint(2024, time.April, 1)
	_, err = calc.Compute(payroll.Input{
		Employee:   employeeHired(date(2021, time.January, 15)),
		BaseSalary: notStarted,
		Today:      date(2024, time.March, 15),
	})
	assert.ErrorIs(t, err, generic.ErrNoBaseSalary)
}

func TestCalculator_ClosedSalaryCoveringToday(t *testing.T) {
	// GIVEN: A salary that ended after the computation date
	past := activeSalary("5000")
	end := generic.NewTimePoint(2024, time.May, 31)
	past.EndDate = &end

	// WHEN: Computing a March payslip
	b := compute(t, payroll.Input{
		Employee:   employeeHired(date(2021, time.January, 15)),
		BaseSalary: past,
		Today:      date(2024, time.March, 15),
	})

	// THEN: It is the salary of that month
	assert.Equal(t, "5000.00 BOB", b.BaseSalary.String())
	assert.Equal(t, "5019.17 BOB", b.NetAmount.String())
}

func TestCalculator_InvalidAmounts(t *testing.T) {
	calc := payroll.NewCalculator(payroll.DefaultPolicy())

	tests := []struct {
		name  string
		input payroll.Input
		field string
	}{
		{
			name: "zero base salary",
			input: payroll.Input{
				Employee:   employeeHired(date(2021, time.January, 15)),
				BaseSalary: activeSalary("0"),
				Today:      date(2024, time.March, 15),
			},
			field: "base_salary",
		},
		{
			name: "negative base salary",
			input: payroll.Input{
				Employee:   employeeHired(date(2021, time.January, 15)),
				BaseSalary: activeSalary("-10"),
				Today:      date(2024, time.March, 15),
			},
			field: "base_salary",
		},
		{
			name: "negative deduction",
			input: payroll.Input{
				Employee:   employeeHired(date(2021, time.January, 15)),
				BaseSalary: activeSalary("5000"),
				Today:      date(2024, time.March, 15),
				Deductions: []payroll.DeductionEvent{deduction(payroll.CategoryOther, "-1")},
			},
			field: "deductions[0]",
		},
		{
			name: "sub-cent base salary",
			input: payroll.Input{
				Employee:   employeeHired(date(2021, time.January, 15)),
				BaseSalary: activeSalary("5000.005"),
				Today:      date(2024, time.March, 15),
			},
			field: "base_salary",
		},
		{
			name: "sub-cent deduction",
			input: payroll.Input{
				Employee:   employeeHired(date(2021, time.January, 15)),
				BaseSalary: activeSalary("5000"),
				Today:      date(2024, time.March, 15),
				Deductions: []payroll.DeductionEvent{deduction(payroll.CategoryPermission, "41.665")},
			},
			field: "deductions[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Compute(tt.input)
			require.ErrorIs(t, err, generic.ErrInvalidAmount)

			var amountErr *generic.InvalidAmountError
			require.True(t, errors.As(err, &amountErr))
			assert.Equal(t, tt.field, amountErr.Field)
		})
	}
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, payroll.DefaultPolicy().Validate())

	bad := payroll.DefaultPolicy()
	bad.StatutoryRate = generic.MustParseRate("1.2")
	assert.ErrorIs(t, bad.Validate(), generic.ErrInvalidInput)

	bad = payroll.DefaultPolicy()
	bad.DaysPerYear = decimal.Zero
	assert.ErrorIs(t, bad.Validate(), generic.ErrInvalidInput)
}
