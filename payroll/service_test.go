package payroll_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/generic/store"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, now time.Time) (*payroll.Service, *store.TxMemory) {
	t.Helper()
	st := store.NewTxMemory()
	svc := payroll.NewService(st,
		payroll.NewCalculator(payroll.DefaultPolicy()),
		generic.FixedClock{At: now},
		quietLogger())

	require.NoError(t, st.SaveEmployee(context.Background(), generic.Employee{
		ID:       "emp-1",
		Name:     "Ana Quispe",
		HireDate: generic.NewTimePoint(2021, time.January, 15),
	}))
	return svc, st
}

// =============================================================================
// COMPUTE TESTS
// =============================================================================

func TestService_Compute_MergesEventsAndAbsences(t *testing.T) {
	// GIVEN: An employee with a base salary, a legacy "permiso" deduction,
	// a typed absence in March and another absence in February
	now := date(2024, time.March, 15)
	svc, st := newTestService(t, now)
	ctx := context.Background()

	_, err := svc.SetBaseSalary(ctx, "emp-1", bob("5000"), generic.NewTimePoint(2024, time.January, 1))
	require.NoError(t, err)

	_, err = svc.RecordSalaryEvent(ctx, payroll.SalaryEventInput{
		EmployeeID:  "emp-1",
		Kind:        generic.EventDeduction,
		Description: "Permiso medio día",
		Amount:      bob("41.67"),
		StartDate:   generic.NewTimePoint(2024, time.March, 4),
	})
	require.NoError(t, err)

	_, err = svc.RecordSalaryEvent(ctx, payroll.SalaryEventInput{
		EmployeeID:  "emp-1",
		Kind:        generic.EventBonus,
		Description: "Bono producción",
		Amount:      bob("999"),
		StartDate:   generic.NewTimePoint(2024, time.March, 4),
	})
	require.NoError(t, err)

	require.NoError(t, st.SaveAbsence(ctx, generic.Absence{
		ID: "ab-mar", EmployeeID: "emp-1", Kind: generic.KindAbsence,
		Date: generic.NewTimePoint(2024, time.March, 8), Deduction: bob("166.66"),
	}))
	require.NoError(t, st.SaveAbsence(ctx, generic.Absence{
		ID: "ab-feb", EmployeeID: "emp-1", Kind: generic.KindAbsence,
		Date: generic.NewTimePoint(2024, time.February, 20), Deduction: bob("166.66"),
	}))

	// WHEN: Computing March payroll
	b, err := svc.Compute(ctx, "emp-1", now)
	require.NoError(t, err)

	// THEN: Only March deductions count and the bonus event is ignored
	assert.Equal(t, 202403, b.Period.Key())
	assert.Equal(t, "41.67 BOB", b.Bucket(payroll.CategoryPermission).Total.String())
	assert.Equal(t, 1, b.Bucket(payroll.CategoryAbsence).Count)
	assert.Equal(t, "208.33 BOB", b.OtherDeductionsTotal.String())
	assert.Equal(t, "4810.84 BOB", b.NetAmount.String())
}

func TestService_Compute_NoBaseSalary(t *testing.T) {
	svc, _ := newTestService(t, date(2024, time.March, 15))

	_, err := svc.Compute(context.Background(), "emp-1", date(2024, time.March, 15))
	assert.ErrorIs(t, err, generic.ErrNoBaseSalary)
}

func TestService_Compute_UsesSalaryInEffectOnDate(t *testing.T) {
	// GIVEN: 5000 from January 2024 and a raise to 8000 from June 2024
	svc, _ := newTestService(t, date(2024, time.July, 10))
	ctx := context.Background()

	_, err := svc.SetBaseSalary(ctx, "emp-1", bob("5000"), generic.NewTimePoint(2024, time.January, 1))
	require.NoError(t, err)
	_, err = svc.SetBaseSalary(ctx, "emp-1", bob("8000"), generic.NewTimePoint(2024, time.June, 1))
	require.NoError(t, err)

	tests := []struct {
		name string
		asOf time.Time
		base string
	}{
		{"month before the raise", date(2024, time.March, 15), "5000.00 BOB"},
		{"last day of the old salary", date(2024, time.May, 31), "5000.00 BOB"},
		{"first day of the raise", date(2024, time.June, 1), "8000.00 BOB"},
		{"after the raise", date(2024, time.July, 10), "8000.00 BOB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN: Computing payroll as of that date
			b, err := svc.Compute(ctx, "emp-1", tt.asOf)

			// THEN: The salary of that date is used, not the current one
			require.NoError(t, err)
			assert.Equal(t, tt.base, b.BaseSalary.String())
		})
	}

	// AND: A month before any salary started has no base salary
	_, err = svc.Compute(ctx, "emp-1", date(2023, time.June, 15))
	assert.ErrorIs(t, err, generic.ErrNoBaseSalary)
}

func TestService_Compute_ReturnsEmployee(t *testing.T) {
	svc, _ := newTestService(t, date(2024, time.March, 15))
	ctx := context.Background()
	_, err := svc.SetBaseSalary(ctx, "emp-1", bob("5000"), generic.NewTimePoint(2024, time.January, 1))
	require.NoError(t, err)

	b, err := svc.Compute(ctx, "emp-1", date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, generic.EmployeeID("emp-1"), b.Employee.ID)
	assert.Equal(t, "Ana Quispe", b.Employee.Name)
}

func TestService_Compute_UnknownEmployee(t *testing.T) {
	svc, _ := newTestService(t, date(2024, time.March, 15))

	_, err := svc.Compute(context.Background(), "nobody", date(2024, time.March, 15))
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestService_ComputeAll_ReportsPerEmployee(t *testing.T) {
	// GIVEN: Two employees, only one with a salary
	now := date(2024, time.March, 15)
	svc, st := newTestService(t, now)
	ctx := context.Background()

	require.NoError(t, st.SaveEmployee(ctx, generic.Employee{
		ID: "emp-2", Name: "Luis Mamani", HireDate: generic.NewTimePoint(2023, time.June, 1),
	}))
	_, err := svc.SetBaseSalary(ctx, "emp-1", bob("5000"), generic.NewTimePoint(2024, time.January, 1))
	require.NoError(t, err)

	// WHEN: Running payroll for everyone
	results, err := svc.ComputeAll(ctx, now)

	// THEN: The batch succeeds with one payslip and one per-line error
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[generic.EmployeeID]payroll.EmployeeResult{}
	for _, r := range results {
		byID[r.Employee.ID] = r
	}
	require.NotNil(t, byID["emp-1"].Breakdown)
	assert.NoError(t, byID["emp-1"].Err)
	assert.Nil(t, byID["emp-2"].Breakdown)
	assert.ErrorIs(t, byID["emp-2"].Err, generic.ErrNoBaseSalary)
}

// =============================================================================
// BASE SALARY TESTS
// =============================================================================

func TestService_SetBaseSalary_ReplacesActive(t *testing.T) {
	// GIVEN: An active salary since January
	svc, st := newTestService(t, date(2024, time.March, 15))
	ctx := context.Background()

	first, err := svc.SetBaseSalary(ctx, "emp-1", bob("4000"), generic.NewTimePoint(2024, time.January, 1))
	require.NoError(t, err)

	// WHEN: A raise starts on March 1st
	second, err := svc.SetBaseSalary(ctx, "emp-1", bob("4500"), generic.NewTimePoint(2024, time.March, 1))
	require.NoError(t, err)

	// THEN: The old salary ends Feb 29 and exactly one salary is active
	history, err := st.ListBaseSalaries(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.True(t, history[0].IsActive())
	assert.Equal(t, first.ID, history[1].ID)
	require.NotNil(t, history[1].EndDate)
	assert.Equal(t, "2024-02-29", history[1].EndDate.String())

	active, err := st.ActiveBaseSalary(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "4500.00 BOB", active.Amount.String())
}

func TestService_SetBaseSalary_RejectsNonPositive(t *testing.T) {
	svc, _ := newTestService(t, date(2024, time.March, 15))

	_, err := svc.SetBaseSalary(context.Background(), "emp-1", bob("0"), generic.NewTimePoint(2024, time.January, 1))
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}

func TestService_SetBaseSalary_RejectsSubCents(t *testing.T) {
	// GIVEN: An amount with a third decimal
	svc, st := newTestService(t, date(2024, time.March, 15))
	ctx := context.Background()

	// WHEN: Setting it as base salary
	_, err := svc.SetBaseSalary(ctx, "emp-1", bob("5000.005"), generic.NewTimePoint(2024, time.January, 1))

	// THEN: It is rejected, not rounded, and nothing is stored
	var amountErr *generic.InvalidAmountError
	require.ErrorAs(t, err, &amountErr)
	assert.Equal(t, "more than 2 decimal places", amountErr.Reason)
	_, err = st.ActiveBaseSalary(ctx, "emp-1")
	assert.ErrorIs(t, err, generic.ErrNotFound)

	// AND: Trailing zeros are fine
	salary, err := svc.SetBaseSalary(ctx, "emp-1", bob("5000.500"), generic.NewTimePoint(2024, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, "5000.50 BOB", salary.Amount.String())
}

func TestService_SetBaseSalary_UnknownEmployee(t *testing.T) {
	svc, st := newTestService(t, date(2024, time.March, 15))
	ctx := context.Background()

	_, err := svc.SetBaseSalary(ctx, "ghost", bob("1000"), generic.NewTimePoint(2024, time.January, 1))
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = st.ActiveBaseSalary(ctx, "ghost")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

// =============================================================================
// SALARY EVENT TESTS
// =============================================================================

func TestService_RecordSalaryEvent_IdempotencyKey(t *testing.T) {
	svc, _ := newTestService(t, date(2024, time.March, 15))
	ctx := context.Background()

	in := payroll.SalaryEventInput{
		EmployeeID:     "emp-1",
		Kind:           generic.EventDeduction,
		Description:    "Falta",
		Amount:         bob("166.66"),
		StartDate:      generic.NewTimePoint(2024, time.March, 4),
		IdempotencyKey: "form-123",
	}

	event, err := svc.RecordSalaryEvent(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, generic.RecurrenceOneTime, event.Recurrence)
	assert.True(t, event.EndDate.Equal(event.StartDate))

	_, err = svc.RecordSalaryEvent(ctx, in)
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
}

func TestService_RecordSalaryEvent_Validation(t *testing.T) {
	svc, _ := newTestService(t, date(2024, time.March, 15))
	ctx := context.Background()

	_, err := svc.RecordSalaryEvent(ctx, payroll.SalaryEventInput{
		EmployeeID: "emp-1",
		Kind:       generic.EventDeduction,
		Amount:     bob("-5"),
		StartDate:  generic.NewTimePoint(2024, time.March, 4),
	})
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	_, err = svc.RecordSalaryEvent(ctx, payroll.SalaryEventInput{
		EmployeeID: "emp-1",
		Kind:       generic.EventDeduction,
		Amount:     bob("5"),
		Recurrence: generic.RecurrenceMonthly,
		StartDate:  generic.NewTimePoint(2024, time.March, 4),
		EndDate:    generic.NewTimePoint(2024, time.February, 4),
	})
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)

	_, err = svc.RecordSalaryEvent(ctx, payroll.SalaryEventInput{
		EmployeeID: "emp-1",
		Kind:       generic.EventDeduction,
		Amount:     bob("41.665"),
		StartDate:  generic.NewTimePoint(2024, time.March, 4),
	})
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}
