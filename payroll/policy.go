package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// POLICY - Numeric payroll rules, injected into the Calculator
// =============================================================================

// Policy holds the contractual/statutory constants. Jurisdiction changes are
// a config change (see factory), not a code change.
type Policy struct {
	Currency generic.Currency

	// SeniorityRatePerYear is the bonus rate accrued per full year of service.
	SeniorityRatePerYear generic.Rate

	// MaxSeniorityRate caps the accrued rate. Nil means uncapped.
	MaxSeniorityRate *generic.Rate

	// StatutoryRate is the mandatory withholding applied to base + bonus.
	StatutoryRate generic.Rate

	// StatutoryLabel names the withholding on payslips (e.g. "AFP").
	StatutoryLabel string

	// DaysPerYear is the year length used to count years of service.
	DaysPerYear decimal.Decimal
}

// DefaultPolicy returns the rules in force: 5% per year uncapped, 12.71%
// withholding, 365.25-day years.
func DefaultPolicy() Policy {
	return Policy{
		Currency:             generic.DefaultCurrency,
		SeniorityRatePerYear: generic.MustParseRate("0.05"),
		StatutoryRate:        generic.MustParseRate("0.1271"),
		StatutoryLabel:       "AFP",
		DaysPerYear:          decimal.RequireFromString("365.25"),
	}
}

// Validate rejects policies that would make every payslip wrong.
func (p Policy) Validate() error {
	if p.Currency == "" {
		return &generic.ValidationError{Field: "currency", Message: "is required"}
	}
	if p.SeniorityRatePerYear.IsNegative() {
		return &generic.ValidationError{Field: "seniority_rate_per_year", Message: "must not be negative"}
	}
	if p.MaxSeniorityRate != nil && p.MaxSeniorityRate.IsNegative() {
		return &generic.ValidationError{Field: "max_seniority_rate", Message: "must not be negative"}
	}
	if p.StatutoryRate.IsNegative() || p.StatutoryRate.Value.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return &generic.ValidationError{Field: "statutory_rate", Message: fmt.Sprintf("must be in [0, 1), got %s", p.StatutoryRate)}
	}
	if !p.DaysPerYear.IsPositive() {
		return &generic.ValidationError{Field: "days_per_year", Message: "must be positive"}
	}
	return nil
}

// SeniorityRate returns the bonus rate for the given years of service.
func (p Policy) SeniorityRate(years int) generic.Rate {
	rate := p.SeniorityRatePerYear.MulInt(years)
	if p.MaxSeniorityRate != nil {
		rate = rate.Min(*p.MaxSeniorityRate)
	}
	return rate
}
