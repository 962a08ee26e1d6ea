package generic_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// MONEY
// =============================================================================

func TestRound2_HalfUpCents(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"730.825", "730.83"},
		{"41.665", "41.67"},
		{"166.66", "166.66"},
		{"0.004", "0.00"},
		{"0.005", "0.01"},
	}
	for _, tt := range tests {
		got := generic.MustParseMoney(tt.in, generic.CurrencyBOB).Round2()
		assert.Equal(t, tt.want, got.Value.StringFixed(2), tt.in)
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	a := generic.MustParseMoney("5750.00", generic.CurrencyBOB)
	rate := generic.MustParseRate("0.1271")

	assert.Equal(t, "730.83 BOB", a.MulRate(rate).Round2().String())
	assert.Equal(t, int64(73083), a.MulRate(rate).MinorUnits())
	assert.Equal(t, "0.00 BOB", generic.Sum(generic.CurrencyBOB).String())
	assert.Equal(t, "208.33 BOB", generic.Sum(generic.CurrencyBOB,
		generic.MustParseMoney("41.67", generic.CurrencyBOB),
		generic.MustParseMoney("166.66", generic.CurrencyBOB)).String())
	assert.True(t, a.Sub(a.Add(a)).IsNegative())
}

func TestParseMoney_RejectsGarbage(t *testing.T) {
	_, err := generic.ParseMoney("cinco mil", generic.CurrencyBOB)
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	m, err := generic.ParseMoney("5000.5", generic.CurrencyBOB)
	require.NoError(t, err)
	assert.True(t, m.Value.Equal(decimal.RequireFromString("5000.5")))
	assert.False(t, m.HasSubCents())
	assert.True(t, generic.MustParseMoney("41.665", generic.CurrencyBOB).HasSubCents())
}

func TestRate(t *testing.T) {
	r := generic.MustParseRate("0.05").MulInt(3)
	assert.Equal(t, "0.15", r.String())
	assert.Equal(t, "15", r.Percent().String())

	capped := generic.MustParseRate("0.05").MulInt(8).Min(generic.MustParseRate("0.30"))
	assert.Equal(t, "0.3", capped.String())
}

// =============================================================================
// TIME AND PERIODS
// =============================================================================

func TestParseDate(t *testing.T) {
	d, err := generic.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	d, err = generic.ParseDate("2024-03-15T23:30:00-04:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", d.String())

	_, err = generic.ParseDate("15/03/2024")
	assert.Error(t, err)
}

func TestMonthPeriod(t *testing.T) {
	p := generic.MonthPeriod(generic.NewTimePoint(2024, time.February, 14))

	assert.Equal(t, "2024-02-01", p.Start.String())
	assert.Equal(t, "2024-02-29", p.End.String())
	assert.Equal(t, 202402, p.Key())
	assert.True(t, p.Contains(generic.NewTimePoint(2024, time.February, 29)))
	assert.False(t, p.Contains(generic.NewTimePoint(2024, time.March, 1)))
	assert.Equal(t, 202403, p.NextPeriod().Key())
	assert.Equal(t, 202401, p.PreviousPeriod().Key())

	dec, err := generic.ParseMonth("2023-12")
	require.NoError(t, err)
	assert.Equal(t, 202401, dec.NextPeriod().Key())

	_, err = generic.NewPeriod(p.End, p.Start)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestSalaryEvent_AffectsPeriod(t *testing.T) {
	march := generic.MonthPeriod(generic.NewTimePoint(2024, time.March, 1))

	oneOff := generic.SalaryEvent{Recurrence: generic.RecurrenceOneTime, StartDate: generic.NewTimePoint(2024, time.February, 28)}
	assert.False(t, oneOff.AffectsPeriod(march))

	openLoan := generic.SalaryEvent{Recurrence: generic.RecurrenceMonthly, StartDate: generic.NewTimePoint(2023, time.June, 1)}
	assert.True(t, openLoan.AffectsPeriod(march))

	ended := openLoan
	ended.EndDate = generic.NewTimePoint(2024, time.February, 29)
	assert.False(t, ended.AffectsPeriod(march))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestErrorHelpers(t *testing.T) {
	locked := &generic.LockedError{ID: "ab-1", EventDate: generic.NewTimePoint(2024, time.January, 10)}
	assert.ErrorIs(t, locked, generic.ErrLocked)
	assert.True(t, generic.IsConflict(locked))

	assert.True(t, generic.IsNotFound(&generic.NotFoundError{Kind: "employee", ID: "x"}))
	assert.True(t, generic.IsNotFound(generic.ErrNoBaseSalary))
	assert.True(t, generic.IsClientError(&generic.ValidationError{Field: "type", Message: "bad"}))
	assert.True(t, generic.IsClientError(&generic.InvalidAmountError{Field: "amount", Value: "-1"}))
	assert.False(t, generic.IsClientError(generic.ErrNotFound))

	_, err := generic.ParseAbsenceDuration("QUARTER_DAY")
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
	d, err := generic.ParseAbsenceDuration(" ")
	require.NoError(t, err)
	assert.Nil(t, d)
}
