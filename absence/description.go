package absence

import "strings"

// =============================================================================
// DESCRIPTIONS
// =============================================================================

const (
	labelPermission = "Permiso"
	labelAbsence    = "Falta"
	labelHalfDay    = "medio día"
	labelFullDay    = "1 día"
)

// Describe builds the payslip text of an absence:
//
//	"Permiso medio día" | "Permiso 1 día" | "Falta"
//
// followed by " - reason" and " - notes" when they are not blank.
// A permission without a duration is described as a full day.
func Describe(kind Kind, duration *Duration, reason, notes string) string {
	var b strings.Builder
	if kind == KindAbsence {
		b.WriteString(labelAbsence)
	} else {
		b.WriteString(labelPermission)
		b.WriteByte(' ')
		if duration != nil && *duration == DurationHalfDay {
			b.WriteString(labelHalfDay)
		} else {
			b.WriteString(labelFullDay)
		}
	}
	for _, part := range []string{reason, notes} {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteString(" - ")
			b.WriteString(part)
		}
	}
	return b.String()
}

// Legacy is what can be recovered from a free-text salary event description.
type Legacy struct {
	Kind     Kind
	Duration Duration
}

// ParseLegacyDescription reads salary events recorded before absences were
// typed. Case-insensitive: "falta" means ABSENCE, anything else PERMISSION;
// "medio" means HALF_DAY, anything else FULL_DAY.
func ParseLegacyDescription(description string) Legacy {
	d := strings.ToLower(description)
	l := Legacy{Kind: KindPermission, Duration: DurationFullDay}
	if strings.Contains(d, "falta") {
		l.Kind = KindAbsence
	}
	if strings.Contains(d, "medio") {
		l.Duration = DurationHalfDay
	}
	return l
}
