/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	payroll data. Each scenario creates employees, base salaries, salary
	events and absences that demonstrate one behaviour of the engine.

AVAILABLE SCENARIOS:

	standard-payroll:  Three employees with seniority, permissions and absences
	missing-salary:    One employee without base salary; the batch run reports it
	negative-net:      Deductions exceeding earnings, flagged not clamped
	edit-window:       Absences this month, last month and two months ago

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create employees with hire dates relative to today
 3. Set base salaries through payroll.Service
 4. Record salary events and absences through the services, so every
    amount is priced exactly as a real request would be

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "standard-payroll"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Payroll and absence endpoints to inspect the result
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/payroll-engine/absence"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "standard-payroll",
		Name:        "Standard Payroll",
		Description: "Three employees with different seniority, permissions, an absence and a loan",
	},
	{
		ID:          "missing-salary",
		Name:        "Missing Base Salary",
		Description: "A new hire without base salary; the batch run lists the error and keeps going",
	},
	{
		ID:          "negative-net",
		Name:        "Negative Net",
		Description: "Deductions larger than earnings; the payslip is flagged, not clamped",
	},
	{
		ID:          "edit-window",
		Name:        "Edit Window",
		Description: "Absences in the current, previous and older months to show locking",
	},
}

type scenarioLoader func(h *Handler, ctx context.Context, today generic.TimePoint) error

var scenarioLoaders = map[string]scenarioLoader{
	"standard-payroll": (*Handler).loadStandardPayrollScenario,
	"missing-salary":   (*Handler).loadMissingSalaryScenario,
	"negative-net":     (*Handler).loadNegativeNetScenario,
	"edit-window":      (*Handler).loadEditWindowScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if _, ok := scenarioLoaders[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Unknown scenario", nil)
		return
	}

	if err := h.Seed(r.Context(), req.ScenarioID); err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// Seed resets the store and loads the named scenario.
func (h *Handler) Seed(ctx context.Context, scenarioID string) error {
	load, ok := scenarioLoaders[scenarioID]
	if !ok {
		return &generic.ValidationError{Field: "scenario_id", Message: fmt.Sprintf("unknown scenario %q", scenarioID)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	h.currentScenario = ""

	if err := load(h, ctx, generic.DateOf(h.now())); err != nil {
		return fmt.Errorf("load scenario %s: %w", scenarioID, err)
	}
	h.currentScenario = scenarioID
	h.Log.WithField("scenario", scenarioID).Info("scenario loaded")
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadStandardPayrollScenario(ctx context.Context, today generic.TimePoint) error {
	// Ana: 3+ years of service, 15% seniority
	if err := h.seedEmployee(ctx, "emp-001", "Ana Quispe", "ana.quispe@example.com", today.AddMonths(-38)); err != nil {
		return err
	}
	if err := h.seedSalary(ctx, "emp-001", "5000.00", today.AddMonths(-38)); err != nil {
		return err
	}

	// Bruno: hired this year, no seniority yet
	if err := h.seedEmployee(ctx, "emp-002", "Bruno Mamani", "bruno.mamani@example.com", today.AddMonths(-5)); err != nil {
		return err
	}
	if err := h.seedSalary(ctx, "emp-002", "3500.00", today.AddMonths(-5)); err != nil {
		return err
	}

	// Carla: 10 years, raised last year
	if err := h.seedEmployee(ctx, "emp-003", "Carla Rojas", "carla.rojas@example.com", today.AddMonths(-122)); err != nil {
		return err
	}
	if err := h.seedSalary(ctx, "emp-003", "7200.00", today.AddMonths(-122)); err != nil {
		return err
	}
	if err := h.seedSalary(ctx, "emp-003", "8000.00", today.AddMonths(-11)); err != nil {
		return err
	}

	// This month: a half-day permission and an unexcused absence for Ana,
	// a legacy free-text permission and a monthly loan for Carla
	thisMonth := generic.StartOfMonth(today.Year(), today.Month())
	if err := h.seedAbsence(ctx, "emp-001", absence.KindPermission, absence.Ptr(absence.DurationHalfDay), thisMonth, "Cita médica"); err != nil {
		return err
	}
	if err := h.seedAbsence(ctx, "emp-001", absence.KindAbsence, nil, thisMonth.AddDays(1), "No avisó"); err != nil {
		return err
	}
	if err := h.seedEvent(ctx, "emp-003", generic.EventDeduction, "Permiso 1 día - Trámite", "83.33", generic.RecurrenceOneTime, thisMonth); err != nil {
		return err
	}
	if err := h.seedEvent(ctx, "emp-003", generic.EventDeduction, "Préstamo de vivienda", "250.00", generic.RecurrenceMonthly, thisMonth.AddMonths(-3)); err != nil {
		return err
	}
	return h.seedEvent(ctx, "emp-002", generic.EventBonus, "Bono de producción", "300.00", generic.RecurrenceOneTime, thisMonth)
}

func (h *Handler) loadMissingSalaryScenario(ctx context.Context, today generic.TimePoint) error {
	if err := h.seedEmployee(ctx, "emp-001", "Ana Quispe", "ana.quispe@example.com", today.AddMonths(-38)); err != nil {
		return err
	}
	if err := h.seedSalary(ctx, "emp-001", "5000.00", today.AddMonths(-38)); err != nil {
		return err
	}
	// Diego has absences but nobody set his salary yet
	if err := h.seedEmployee(ctx, "emp-004", "Diego Flores", "diego.flores@example.com", today.AddDays(-10)); err != nil {
		return err
	}
	return h.seedAbsence(ctx, "emp-004", absence.KindPermission, absence.Ptr(absence.DurationFullDay), today, "Mudanza")
}

func (h *Handler) loadNegativeNetScenario(ctx context.Context, today generic.TimePoint) error {
	if err := h.seedEmployee(ctx, "emp-005", "Elena Vargas", "elena.vargas@example.com", today.AddMonths(-2)); err != nil {
		return err
	}
	if err := h.seedSalary(ctx, "emp-005", "1000.00", today.AddMonths(-2)); err != nil {
		return err
	}
	thisMonth := generic.StartOfMonth(today.Year(), today.Month())
	if err := h.seedEvent(ctx, "emp-005", generic.EventDeduction, "Adelanto de sueldo", "900.00", generic.RecurrenceOneTime, thisMonth); err != nil {
		return err
	}
	return h.seedAbsence(ctx, "emp-005", absence.KindAbsence, nil, thisMonth, "")
}

func (h *Handler) loadEditWindowScenario(ctx context.Context, today generic.TimePoint) error {
	if err := h.seedEmployee(ctx, "emp-001", "Ana Quispe", "ana.quispe@example.com", today.AddMonths(-38)); err != nil {
		return err
	}
	if err := h.seedSalary(ctx, "emp-001", "5000.00", today.AddMonths(-38)); err != nil {
		return err
	}
	thisMonth := generic.StartOfMonth(today.Year(), today.Month())
	// Editable
	if err := h.seedAbsence(ctx, "emp-001", absence.KindPermission, absence.Ptr(absence.DurationHalfDay), thisMonth, "Trámite bancario"); err != nil {
		return err
	}
	lastMonth := generic.MonthPeriod(today).PreviousPeriod()
	// Editable only during the first days of this month
	if err := h.seedAbsence(ctx, "emp-001", absence.KindPermission, absence.Ptr(absence.DurationFullDay), lastMonth.Start.AddDays(20), "Enfermedad"); err != nil {
		return err
	}
	// Locked
	return h.seedAbsence(ctx, "emp-001", absence.KindAbsence, nil, lastMonth.PreviousPeriod().Start.AddDays(9), "")
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (h *Handler) seedEmployee(ctx context.Context, id, name, email string, hired generic.TimePoint) error {
	return h.Store.SaveEmployee(ctx, generic.Employee{
		ID:        generic.EmployeeID(id),
		Name:      name,
		Email:     email,
		HireDate:  hired,
		CreatedAt: h.Clock.Now().UTC(),
	})
}

func (h *Handler) seedSalary(ctx context.Context, id, amt string, start generic.TimePoint) error {
	m, err := h.parseMoney(amt)
	if err != nil {
		return err
	}
	_, err = h.Payroll.SetBaseSalary(ctx, generic.EmployeeID(id), m, start)
	return err
}

func (h *Handler) seedEvent(ctx context.Context, id string, kind generic.SalaryEventKind, desc, amt string, rec generic.Recurrence, start generic.TimePoint) error {
	m, err := h.parseMoney(amt)
	if err != nil {
		return err
	}
	_, err = h.Payroll.RecordSalaryEvent(ctx, payroll.SalaryEventInput{
		EmployeeID:  generic.EmployeeID(id),
		Kind:        kind,
		Description: desc,
		Amount:      m,
		Recurrence:  rec,
		StartDate:   start,
	})
	return err
}

func (h *Handler) seedAbsence(ctx context.Context, id string, kind absence.Kind, d *absence.Duration, date generic.TimePoint, reason string) error {
	_, err := h.Absences.Create(ctx, absence.CreateInput{
		EmployeeID: generic.EmployeeID(id),
		Kind:       kind,
		Duration:   d,
		Date:       date,
		Reason:     reason,
	})
	return err
}
