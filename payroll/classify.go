package payroll

import (
	"strings"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Keywords used by legacy salary-event descriptions.
const (
	keywordPermission = "permiso"
	keywordAbsence    = "falta"
)

// CategoryForKind maps a typed absence kind to its deduction bucket.
func CategoryForKind(kind generic.AbsenceKind) Category {
	switch kind {
	case generic.KindPermission:
		return CategoryPermission
	case generic.KindAbsence:
		return CategoryAbsence
	default:
		return CategoryOther
	}
}

// ClassifyDescription is the legacy adapter for salary events that predate
// typed absences: the category is inferred from the free-text description.
// Matching is case-insensitive. If both keywords occur, the earlier one wins
// ("Falta - sin permiso" is an absence).
func ClassifyDescription(description string) Category {
	d := strings.ToLower(description)
	p := strings.Index(d, keywordPermission)
	a := strings.Index(d, keywordAbsence)
	switch {
	case p < 0 && a < 0:
		return CategoryOther
	case a < 0:
		return CategoryPermission
	case p < 0:
		return CategoryAbsence
	case p < a:
		return CategoryPermission
	default:
		return CategoryAbsence
	}
}

// FromSalaryEvents converts DEDUCTION salary events into deduction events.
// Bonuses and advances are not deductions and are skipped.
func FromSalaryEvents(events []generic.SalaryEvent) []DeductionEvent {
	var result []DeductionEvent
	for _, e := range events {
		if e.Kind != generic.EventDeduction {
			continue
		}
		result = append(result, DeductionEvent{
			ID:          string(e.ID),
			Category:    ClassifyDescription(e.Description),
			Description: e.Description,
			Amount:      e.Amount,
			Date:        e.StartDate,
			Source:      SourceSalaryEvent,
		})
	}
	return result
}

// FromAbsences converts typed absences into deduction events.
func FromAbsences(absences []generic.Absence) []DeductionEvent {
	result := make([]DeductionEvent, 0, len(absences))
	for _, a := range absences {
		result = append(result, DeductionEvent{
			ID:          string(a.ID),
			Category:    CategoryForKind(a.Kind),
			Description: a.Description,
			Amount:      a.Deduction,
			Date:        a.Date,
			Source:      SourceAbsence,
		})
	}
	return result
}
