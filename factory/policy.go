/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts a JSON payroll policy document into payroll.Policy,
  absence.Pricing and absence.Window. Contractual and statutory constants
  (seniority rate, AFP rate, daily work value, grace days) change by
  editing a document, not by releasing code.

JSON SCHEMA:
  {
    "id": "bo-2024",
    "name": "Bolivia 2024",
    "currency": "BOB",
    "seniority": {
      "rate_per_year": "0.05",
      "max_rate": "0.50",
      "days_per_year": "365.25"
    },
    "statutory": {"label": "AFP", "rate": "0.1271"},
    "absences": {
      "daily_work_value": "83.33",
      "absence_multiplier": "2",
      "half_day_fraction": "0.5",
      "full_day_fraction": "1",
      "grace_days": 5
    }
  }

  Every field is optional; omitted fields keep DefaultPolicyJSON's value.
  Decimals may be written as strings or JSON numbers.

USAGE:
  f := factory.NewPolicyFactory()
  cfg, err := f.ParsePolicy(jsonString)
  calc := payroll.NewCalculator(cfg.Payroll)
  svc := absence.NewService(store, cfg.Pricing, cfg.Window, clock, log)

SEE ALSO:
  - payroll/policy.go: Payroll rule set
  - absence/pricing.go, absence/window.go: Absence rule set
  - config/config.go: POLICY_FILE
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/absence"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a payroll policy.
type PolicyJSON struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Currency  string         `json:"currency,omitempty"`
	Seniority *SeniorityJSON `json:"seniority,omitempty"`
	Statutory *StatutoryJSON `json:"statutory,omitempty"`
	Absences  *AbsencesJSON  `json:"absences,omitempty"`
}

type SeniorityJSON struct {
	RatePerYear *decimal.Decimal `json:"rate_per_year,omitempty"`
	MaxRate     *decimal.Decimal `json:"max_rate,omitempty"` // absent = uncapped
	DaysPerYear *decimal.Decimal `json:"days_per_year,omitempty"`
}

type StatutoryJSON struct {
	Label string           `json:"label,omitempty"`
	Rate  *decimal.Decimal `json:"rate,omitempty"`
}

type AbsencesJSON struct {
	DailyWorkValue    *decimal.Decimal `json:"daily_work_value,omitempty"`
	AbsenceMultiplier *decimal.Decimal `json:"absence_multiplier,omitempty"`
	HalfDayFraction   *decimal.Decimal `json:"half_day_fraction,omitempty"`
	FullDayFraction   *decimal.Decimal `json:"full_day_fraction,omitempty"`
	GraceDays         *int             `json:"grace_days,omitempty"`
}

// Config is a parsed, validated policy.
type Config struct {
	ID      string
	Name    string
	Payroll payroll.Policy
	Pricing absence.Pricing
	Window  absence.Window
}

// Default returns the built-in policy.
func Default() Config {
	return Config{
		ID:      "default",
		Name:    "Default payroll policy",
		Payroll: payroll.DefaultPolicy(),
		Pricing: absence.DefaultPricing(),
		Window:  absence.DefaultWindow(),
	}
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to Go structs.
type PolicyFactory struct{}

func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses a JSON document into a validated Config.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (Config, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return Config{}, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// LoadFile reads a policy document from disk. An empty path yields Default().
func (f *PolicyFactory) LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read policy file: %w", err)
	}
	return f.ParsePolicy(string(raw))
}

// FromJSON overlays pj on the defaults and validates the result.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (Config, error) {
	cfg := Default()
	if pj.ID != "" {
		cfg.ID = pj.ID
	}
	if pj.Name != "" {
		cfg.Name = pj.Name
	}
	if pj.Currency != "" {
		cfg.Payroll.Currency = generic.Currency(pj.Currency)
		cfg.Pricing.DailyWorkValue.Currency = cfg.Payroll.Currency
	}

	if s := pj.Seniority; s != nil {
		if s.RatePerYear != nil {
			cfg.Payroll.SeniorityRatePerYear = generic.NewRate(*s.RatePerYear)
		}
		if s.MaxRate != nil {
			max := generic.NewRate(*s.MaxRate)
			cfg.Payroll.MaxSeniorityRate = &max
		}
		if s.DaysPerYear != nil {
			cfg.Payroll.DaysPerYear = *s.DaysPerYear
		}
	}

	if s := pj.Statutory; s != nil {
		if s.Label != "" {
			cfg.Payroll.StatutoryLabel = s.Label
		}
		if s.Rate != nil {
			cfg.Payroll.StatutoryRate = generic.NewRate(*s.Rate)
		}
	}

	if a := pj.Absences; a != nil {
		if a.DailyWorkValue != nil {
			cfg.Pricing.DailyWorkValue = generic.NewMoney(*a.DailyWorkValue, cfg.Payroll.Currency)
		}
		if a.AbsenceMultiplier != nil {
			cfg.Pricing.AbsenceMultiplier = *a.AbsenceMultiplier
		}
		if a.HalfDayFraction != nil {
			cfg.Pricing.HalfDayFraction = *a.HalfDayFraction
		}
		if a.FullDayFraction != nil {
			cfg.Pricing.FullDayFraction = *a.FullDayFraction
		}
		if a.GraceDays != nil {
			if *a.GraceDays < 0 {
				return Config{}, &generic.ValidationError{Field: "absences.grace_days", Message: "must not be negative"}
			}
			cfg.Window.GraceDays = *a.GraceDays
		}
	}

	if err := cfg.Payroll.Validate(); err != nil {
		return Config{}, fmt.Errorf("policy %s: %w", cfg.ID, err)
	}
	if err := cfg.Pricing.Validate(); err != nil {
		return Config{}, fmt.Errorf("policy %s: %w", cfg.ID, err)
	}
	return cfg, nil
}

// ToJSON converts a Config back to its document form.
func (f *PolicyFactory) ToJSON(cfg Config) PolicyJSON {
	p := cfg.Payroll
	pr := cfg.Pricing
	rate := p.SeniorityRatePerYear.Value
	days := p.DaysPerYear
	statutory := p.StatutoryRate.Value
	daily := pr.DailyWorkValue.Value
	mult := pr.AbsenceMultiplier
	half := pr.HalfDayFraction
	full := pr.FullDayFraction
	grace := cfg.Window.GraceDays

	pj := PolicyJSON{
		ID:       cfg.ID,
		Name:     cfg.Name,
		Currency: string(p.Currency),
		Seniority: &SeniorityJSON{
			RatePerYear: &rate,
			DaysPerYear: &days,
		},
		Statutory: &StatutoryJSON{Label: p.StatutoryLabel, Rate: &statutory},
		Absences: &AbsencesJSON{
			DailyWorkValue:    &daily,
			AbsenceMultiplier: &mult,
			HalfDayFraction:   &half,
			FullDayFraction:   &full,
			GraceDays:         &grace,
		},
	}
	if p.MaxSeniorityRate != nil {
		max := p.MaxSeniorityRate.Value
		pj.Seniority.MaxRate = &max
	}
	return pj
}

// =============================================================================
// PRESET POLICIES
// =============================================================================

// DefaultPolicyJSON is the built-in policy as a document, for seeding an
// editable POLICY_FILE.
func DefaultPolicyJSON() string {
	raw, err := json.MarshalIndent(NewPolicyFactory().ToJSON(Default()), "", "  ")
	if err != nil {
		panic(err)
	}
	return string(raw)
}
