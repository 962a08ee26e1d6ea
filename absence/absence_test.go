package absence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/absence"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// PRICING TESTS
// =============================================================================

func TestPrice(t *testing.T) {
	pricing := absence.DefaultPricing()

	tests := []struct {
		name     string
		kind     absence.Kind
		duration *absence.Duration
		want     string
	}{
		{"absence is two days of pay", absence.KindAbsence, nil, "166.66 BOB"},
		{"absence ignores duration", absence.KindAbsence, absence.Ptr(absence.DurationHalfDay), "166.66 BOB"},
		{"half-day permission rounds half-up", absence.KindPermission, absence.Ptr(absence.DurationHalfDay), "41.67 BOB"},
		{"full-day permission", absence.KindPermission, absence.Ptr(absence.DurationFullDay), "83.33 BOB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pricing.Price(tt.kind, tt.duration)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestPrice_PermissionWithoutDuration(t *testing.T) {
	_, err := absence.DefaultPricing().Price(absence.KindPermission, nil)
	assert.ErrorIs(t, err, generic.ErrMissingDuration)
	assert.True(t, generic.IsClientError(err))
}

func TestPrice_UnknownValues(t *testing.T) {
	pricing := absence.DefaultPricing()

	_, err := pricing.Price("VACATION", nil)
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = pricing.Price(absence.KindPermission, absence.Ptr("QUARTER_DAY"))
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestPricing_Validate(t *testing.T) {
	assert.NoError(t, absence.DefaultPricing().Validate())

	bad := absence.DefaultPricing()
	bad.DailyWorkValue = generic.ZeroMoney(generic.CurrencyBOB)
	assert.ErrorIs(t, bad.Validate(), generic.ErrInvalidInput)
}

// =============================================================================
// EDIT WINDOW TESTS
// =============================================================================

func TestWindow_IsEditable(t *testing.T) {
	w := absence.DefaultWindow()
	jan31 := generic.NewTimePoint(2024, time.January, 31)

	tests := []struct {
		name  string
		event generic.TimePoint
		now   time.Time
		want  bool
	}{
		{"same month", generic.NewTimePoint(2024, time.January, 15), time.Date(2024, time.January, 31, 18, 0, 0, 0, time.UTC), true},
		{"first instant of next month", jan31, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), true},
		{"last second of grace", jan31, time.Date(2024, time.February, 5, 23, 59, 59, 0, time.UTC), true},
		{"grace over", jan31, time.Date(2024, time.February, 6, 0, 0, 0, 0, time.UTC), false},
		{"two months later", jan31, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), false},
		{"same month number, other year", jan31, time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), false},
		{"december rolls into january", generic.NewTimePoint(2023, time.December, 20), time.Date(2024, time.January, 3, 9, 0, 0, 0, time.UTC), true},
		{"future month", generic.NewTimePoint(2024, time.March, 1), time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.IsEditable(tt.event, tt.now))
		})
	}
}

func TestWindow_UsesNowLocation(t *testing.T) {
	// GIVEN: La Paz is UTC-4
	laPaz := time.FixedZone("BOT", -4*60*60)
	jan31 := generic.NewTimePoint(2024, time.January, 31)

	// 2024-02-06 02:00 UTC is still 2024-02-05 22:00 in La Paz
	now := time.Date(2024, time.February, 6, 2, 0, 0, 0, time.UTC).In(laPaz)

	assert.True(t, absence.DefaultWindow().IsEditable(jan31, now))
}

func TestWindow_GraceDaysConfigurable(t *testing.T) {
	w := absence.Window{GraceDays: 0}
	jan31 := generic.NewTimePoint(2024, time.January, 31)

	assert.False(t, w.IsEditable(jan31, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		w.LockedSince(jan31, time.UTC))
}

func TestWindow_LockedSinceRollsOverYear(t *testing.T) {
	// GIVEN: A December absence in La Paz
	laPaz := time.FixedZone("BOT", -4*60*60)
	dec20 := generic.NewTimePoint(2023, time.December, 20)

	// THEN: It locks on January 6 of the next year, local midnight
	assert.Equal(t,
		time.Date(2024, time.January, 6, 0, 0, 0, 0, laPaz),
		absence.DefaultWindow().LockedSince(dec20, laPaz))
}

func TestWindow_Check(t *testing.T) {
	a := absence.Absence{ID: "ab-1", Date: generic.NewTimePoint(2024, time.January, 31)}

	err := absence.DefaultWindow().Check(a, time.Date(2024, time.February, 6, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, generic.ErrLocked)

	var locked *generic.LockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, time.Date(2024, time.February, 6, 0, 0, 0, 0, time.UTC), locked.LockedSince)
}

// =============================================================================
// DESCRIPTION TESTS
// =============================================================================

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		kind     absence.Kind
		duration *absence.Duration
		reason   string
		notes    string
		want     string
	}{
		{"half day", absence.KindPermission, absence.Ptr(absence.DurationHalfDay), "", "", "Permiso medio día"},
		{"full day with reason", absence.KindPermission, absence.Ptr(absence.DurationFullDay), "Trámite", "", "Permiso 1 día - Trámite"},
		{"absence with reason and notes", absence.KindAbsence, nil, "Sin aviso", "Segunda vez", "Falta - Sin aviso - Segunda vez"},
		{"notes only", absence.KindAbsence, nil, "  ", "Llegó tarde", "Falta - Llegó tarde"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, absence.Describe(tt.kind, tt.duration, tt.reason, tt.notes))
		})
	}
}

func TestParseLegacyDescription(t *testing.T) {
	tests := []struct {
		description string
		kind        absence.Kind
		duration    absence.Duration
	}{
		{"Permiso medio día - Médico", absence.KindPermission, absence.DurationHalfDay},
		{"Permiso 1 día", absence.KindPermission, absence.DurationFullDay},
		{"FALTA", absence.KindAbsence, absence.DurationFullDay},
		{"Descuento varios", absence.KindPermission, absence.DurationFullDay},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got := absence.ParseLegacyDescription(tt.description)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.duration, got.Duration)
		})
	}
}

// Describe output must parse back to the same kind and duration.
func TestDescribe_RoundTripsThroughLegacyParser(t *testing.T) {
	for _, kind := range []absence.Kind{absence.KindPermission, absence.KindAbsence} {
		for _, d := range []absence.Duration{absence.DurationHalfDay, absence.DurationFullDay} {
			if kind == absence.KindAbsence && d == absence.DurationHalfDay {
				continue
			}
			got := absence.ParseLegacyDescription(absence.Describe(kind, absence.Ptr(d), "motivo", ""))
			assert.Equal(t, kind, got.Kind)
			assert.Equal(t, d, got.Duration)
		}
	}
}
