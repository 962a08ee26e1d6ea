package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
)

func TestParsePolicy_EmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := factory.NewPolicyFactory().ParsePolicy(`{}`)
	require.NoError(t, err)

	assert.Equal(t, "0.05", cfg.Payroll.SeniorityRatePerYear.String())
	assert.Equal(t, "0.1271", cfg.Payroll.StatutoryRate.String())
	assert.Equal(t, "AFP", cfg.Payroll.StatutoryLabel)
	assert.Nil(t, cfg.Payroll.MaxSeniorityRate)
	assert.Equal(t, "83.33 BOB", cfg.Pricing.DailyWorkValue.String())
	assert.Equal(t, 5, cfg.Window.GraceDays)
}

func TestParsePolicy_Overrides(t *testing.T) {
	// GIVEN: A policy with a capped seniority, a new AFP rate and 3 grace days
	doc := `{
		"id": "bo-2025",
		"seniority": {"rate_per_year": 0.05, "max_rate": "0.30"},
		"statutory": {"label": "Gestora", "rate": "0.1321"},
		"absences": {"daily_work_value": "90", "grace_days": 3}
	}`

	// WHEN: Parsing
	cfg, err := factory.NewPolicyFactory().ParsePolicy(doc)

	// THEN: Overrides apply, the rest stays default
	require.NoError(t, err)
	assert.Equal(t, "bo-2025", cfg.ID)
	require.NotNil(t, cfg.Payroll.MaxSeniorityRate)
	assert.Equal(t, "0.3", cfg.Payroll.MaxSeniorityRate.String())
	assert.Equal(t, "Gestora", cfg.Payroll.StatutoryLabel)
	assert.Equal(t, "0.1321", cfg.Payroll.StatutoryRate.String())
	assert.Equal(t, 3, cfg.Window.GraceDays)

	price, err := cfg.Pricing.Price(generic.KindAbsence, nil)
	require.NoError(t, err)
	assert.Equal(t, "180.00 BOB", price.String())
}

func TestParsePolicy_Rejections(t *testing.T) {
	f := factory.NewPolicyFactory()

	_, err := f.ParsePolicy(`{"statutory": {"rate": "1.5"}}`)
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = f.ParsePolicy(`{"absences": {"grace_days": -1}}`)
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = f.ParsePolicy(`{"absences": {"daily_work_value": "0"}}`)
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = f.ParsePolicy(`not json`)
	assert.Error(t, err)
}

func TestDefaultPolicyJSON_RoundTrips(t *testing.T) {
	cfg, err := factory.NewPolicyFactory().ParsePolicy(factory.DefaultPolicyJSON())
	require.NoError(t, err)

	def := factory.Default()
	assert.True(t, cfg.Payroll.StatutoryRate.Value.Equal(def.Payroll.StatutoryRate.Value))
	assert.True(t, cfg.Payroll.DaysPerYear.Equal(def.Payroll.DaysPerYear))
	assert.True(t, cfg.Pricing.DailyWorkValue.Equal(def.Pricing.DailyWorkValue))
	assert.Equal(t, def.Window, cfg.Window)
}

func TestLoadFile(t *testing.T) {
	f := factory.NewPolicyFactory()

	cfg, err := f.LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.ID)

	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "from-file"}`), 0o600))
	cfg, err = f.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ID)

	_, err = f.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
