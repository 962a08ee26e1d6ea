/*
Package generic provides the domain-agnostic primitives of the payroll engine.

PURPOSE:
  Money, dates, periods, errors and persistence contracts shared by the
  payroll and absence packages. Nothing here knows what a seniority bonus or
  a permission is; it only knows how to add money without losing cents.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A decimal amount in a currency (e.g., 5000.00 BOB)
  - Identifiers: Type-safe IDs for employees, salaries, events, absences
  - Rate: A decimal multiplier (0.05, 0.1271) kept apart from Money

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64, for every sum
  2. Explicit rounding: Only Round2 turns an exact value into cents
  3. Type Safety: Strong typing for IDs prevents mixing employee/event IDs

USAGE:
  base := generic.MustParseMoney("5000.00", generic.CurrencyBOB)
  bonus := base.MulRate(generic.MustParseRate("0.15")).Round2()

SEE ALSO:
  - time.go: TimePoint and Clock
  - errors.go: Error taxonomy
  - store.go: Persistence interfaces
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal amount with currency
// =============================================================================

type Currency string

const (
	CurrencyBOB Currency = "BOB"
	CurrencyUSD Currency = "USD"
)

// DefaultCurrency is used when a record or config does not name one.
const DefaultCurrency = CurrencyBOB

type Money struct {
	Value    decimal.Decimal
	Currency Currency
}

func NewMoney(value decimal.Decimal, currency Currency) Money {
	return Money{Value: value, Currency: currency}
}

func NewMoneyFromInt(value int64, currency Currency) Money {
	return Money{Value: decimal.NewFromInt(value), Currency: currency}
}

// ParseMoney parses a decimal string such as "5000.00".
func ParseMoney(s string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, &InvalidAmountError{Field: "amount", Value: s, Reason: "not a decimal number"}
	}
	return Money{Value: d, Currency: currency}, nil
}

func MustParseMoney(s string, currency Currency) Money {
	m, err := ParseMoney(s, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney(currency Currency) Money { return Money{Value: decimal.Zero, Currency: currency} }

func (m Money) Zero() Money                   { return Money{Value: decimal.Zero, Currency: m.Currency} }
func (m Money) Add(o Money) Money             { return Money{Value: m.Value.Add(o.Value), Currency: m.Currency} }
func (m Money) Sub(o Money) Money             { return Money{Value: m.Value.Sub(o.Value), Currency: m.Currency} }
func (m Money) Mul(s decimal.Decimal) Money   { return Money{Value: m.Value.Mul(s), Currency: m.Currency} }
func (m Money) MulRate(r Rate) Money          { return m.Mul(r.Value) }
func (m Money) Neg() Money                    { return Money{Value: m.Value.Neg(), Currency: m.Currency} }
func (m Money) IsNegative() bool              { return m.Value.IsNegative() }
func (m Money) IsZero() bool                  { return m.Value.IsZero() }
func (m Money) IsPositive() bool              { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool            { return m.Value.Equal(o.Value) && m.Currency == o.Currency }
func (m Money) GreaterThan(o Money) bool      { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool         { return m.Value.LessThan(o.Value) }
func (m Money) String() string                { return m.Value.StringFixed(2) + " " + string(m.Currency) }

// Round2 rounds to cents, half away from zero. For the non-negative values
// the engine feeds it this is the usual half-up currency rounding:
// 730.825 -> 730.83, 41.665 -> 41.67.
func (m Money) Round2() Money { return Money{Value: Round2(m.Value), Currency: m.Currency} }

func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// HasSubCents reports whether the amount carries digits below the cent.
// Inputs with sub-cent digits are rejected, never rounded.
func (m Money) HasSubCents() bool { return !m.Value.Equal(Round2(m.Value)) }

// CheckPositiveAmount rejects a stored amount that is not greater than zero
// or has more than two decimal places.
func CheckPositiveAmount(field string, m Money) error {
	switch {
	case !m.IsPositive():
		return &InvalidAmountError{Field: field, Value: m.Value.String(), Reason: "must be greater than zero"}
	case m.HasSubCents():
		return &InvalidAmountError{Field: field, Value: m.Value.String(), Reason: "more than 2 decimal places"}
	}
	return nil
}

// MinorUnits returns the amount in cents after rounding, e.g. 730.83 -> 73083.
func (m Money) MinorUnits() int64 { return Round2(m.Value).Shift(2).IntPart() }

// Sum adds amounts starting from zero in the given currency.
func Sum(currency Currency, amounts ...Money) Money {
	total := ZeroMoney(currency)
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// =============================================================================
// RATE - Dimensionless multiplier
// =============================================================================

// Rate is a policy multiplier such as 0.05 (per year of service) or 0.1271.
// It is kept distinct from Money so a rate can never be added to a salary.
type Rate struct {
	Value decimal.Decimal
}

func NewRate(value decimal.Decimal) Rate { return Rate{Value: value} }

func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	return Rate{Value: d}, nil
}

func MustParseRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rate) MulInt(n int) Rate { return Rate{Value: r.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (r Rate) IsNegative() bool  { return r.Value.IsNegative() }
func (r Rate) String() string    { return r.Value.String() }

func (r Rate) Min(o Rate) Rate {
	if r.Value.LessThan(o.Value) {
		return r
	}
	return o
}

// Percent renders the rate as a percentage, 0.1271 -> "12.71".
func (r Rate) Percent() decimal.Decimal { return r.Value.Shift(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type BaseSalaryID string
type SalaryEventID string
type AbsenceID string
