package absence

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// PRICING - How much an absence or permission deducts
// =============================================================================

// Pricing holds the absence constants. Defaults match the current contract;
// factory can override them from a policy document.
type Pricing struct {
	// DailyWorkValue is the value of one working day.
	DailyWorkValue generic.Money

	// AbsenceMultiplier applies to unexcused absences (penalty).
	AbsenceMultiplier decimal.Decimal

	HalfDayFraction decimal.Decimal
	FullDayFraction decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		DailyWorkValue:    generic.MustParseMoney("83.33", generic.DefaultCurrency),
		AbsenceMultiplier: decimal.NewFromInt(2),
		HalfDayFraction:   decimal.RequireFromString("0.5"),
		FullDayFraction:   decimal.NewFromInt(1),
	}
}

func (p Pricing) Validate() error {
	if !p.DailyWorkValue.IsPositive() {
		return &generic.ValidationError{Field: "daily_work_value", Message: "must be positive"}
	}
	if !p.AbsenceMultiplier.IsPositive() {
		return &generic.ValidationError{Field: "absence_multiplier", Message: "must be positive"}
	}
	if !p.HalfDayFraction.IsPositive() || !p.FullDayFraction.IsPositive() {
		return &generic.ValidationError{Field: "day_fractions", Message: "must be positive"}
	}
	return nil
}

// Price returns the deduction for an absence of the given kind.
//
//	ABSENCE:              DailyWorkValue * AbsenceMultiplier (duration ignored)
//	PERMISSION, HALF_DAY: DailyWorkValue * HalfDayFraction
//	PERMISSION, FULL_DAY: DailyWorkValue * FullDayFraction
//
// Results are rounded half-up to cents (41.665 -> 41.67).
// A permission without a duration returns generic.ErrMissingDuration.
func (p Pricing) Price(kind Kind, duration *Duration) (generic.Money, error) {
	switch kind {
	case KindAbsence:
		return p.DailyWorkValue.Mul(p.AbsenceMultiplier).Round2(), nil

	case KindPermission:
		if duration == nil {
			return generic.Money{}, generic.ErrMissingDuration
		}
		switch *duration {
		case DurationHalfDay:
			return p.DailyWorkValue.Mul(p.HalfDayFraction).Round2(), nil
		case DurationFullDay:
			return p.DailyWorkValue.Mul(p.FullDayFraction).Round2(), nil
		}
		return generic.Money{}, &generic.ValidationError{
			Field:   "duration",
			Message: fmt.Sprintf("unknown duration %q", *duration),
		}
	}

	return generic.Money{}, &generic.ValidationError{
		Field:   "type",
		Message: fmt.Sprintf("unknown absence type %q", kind),
	}
}
