/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll and absence services via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                          List all employees
    POST   /api/employees                          Create employee
    GET    /api/employees/{id}                     Get employee details

  Base salaries:
    POST   /api/base-salaries                      Set active salary (closes the previous one)
    GET    /api/base-salaries/employee/{id}        Salary history, newest first

  Salary events:
    POST   /api/salary-events                      Record bonus/deduction/advance
    GET    /api/salary-events/employee/{id}?kind=  List, optionally by kind

  Absences:
    POST   /api/absences                           Record permission/absence (server prices it)
    POST   /api/absences/price                     Price without saving
    GET    /api/absences/employee/{id}?month=      List with counters
    GET    /api/absences/{id}                      Get one
    PUT    /api/absences/{id}                      Update (edit window)
    DELETE /api/absences/{id}                      Delete (edit window)
    GET    /api/absences/{id}/editable             Edit window status

  Payroll:
    GET    /api/payrolls/calculate/employees/{id}?date=YYYY-MM-DD
    GET    /api/payrolls/calculate/all?date=YYYY-MM-DD
    GET    /api/payrolls/payslip/employees/{id}.pdf?date=YYYY-MM-DD

  Policy and scenarios:
    GET    /api/policy                             Active policy as JSON
    GET    /api/scenarios                          List demo scenarios
    GET    /api/scenarios/current                  Loaded scenario
    POST   /api/scenarios/load                     Load a demo scenario

REQUEST FLOW:
  1. Decode and validate the body (validator tags on DTOs)
  2. Parse dates and amounts into generic types
  3. Call payroll.Service / absence.Service
  4. Serialize response, or map the error (errors.go)

"NOW":
  Edit windows and default payroll dates use h.now(): the injected clock
  seen in the configured location, never the server's local zone.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - errors.go: Error to status mapping
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/absence"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payslip"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API needs: the transactional payroll store
// plus Reset for demo scenarios.
type Store interface {
	generic.TxStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    Store
	Policy   factory.Config
	Payroll  *payroll.Service
	Absences *absence.Service
	Clock    generic.Clock
	Location *time.Location
	Log      *logrus.Entry

	validate *validator.Validate

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler wires the services over store with the given policy.
func NewHandler(store Store, policy factory.Config, clock generic.Clock, loc *time.Location, log *logrus.Logger) *Handler {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:    store,
		Policy:   policy,
		Payroll:  payroll.NewService(store, payroll.NewCalculator(policy.Payroll), clock, log),
		Absences: absence.NewService(store, policy.Pricing, policy.Window, clock, log),
		Clock:    clock,
		Location: loc,
		Log:      log.WithField("component", "api"),
		validate: newValidator(),
	}
}

func (h *Handler) now() time.Time {
	return h.Clock.Now().In(h.Location)
}

// decode reads a JSON body into dst and runs its validation tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &generic.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return h.validate.Struct(dst)
}

// asOf reads ?date=YYYY-MM-DD as the start of that day, or now.
func (h *Handler) asOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.now(), nil
	}
	d, err := parseDate("date", raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, h.Location), nil
}

func parseDate(field, s string) (generic.TimePoint, error) {
	d, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}, &generic.ValidationError{Field: field, Message: "must be a date (YYYY-MM-DD)"}
	}
	return d, nil
}

func (h *Handler) parseMoney(s string) (generic.Money, error) {
	return generic.ParseMoney(s, h.Policy.Payroll.Currency)
}

func employeeID(r *http.Request) generic.EmployeeID {
	return generic.EmployeeID(chi.URLParam(r, "id"))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), employeeID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	hireDate, err := parseDate("hire_date", req.HireDate)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	emp := generic.Employee{
		ID:        generic.EmployeeID(req.ID),
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		HireDate:  hireDate,
		CreatedAt: h.Clock.Now().UTC(),
	}
	if emp.ID == "" {
		emp.ID = generic.EmployeeID(uuid.NewString())
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// BASE SALARY HANDLERS
// =============================================================================

// CreateBaseSalary makes the amount the employee's active base salary.
// POST /api/base-salaries
func (h *Handler) CreateBaseSalary(w http.ResponseWriter, r *http.Request) {
	var req CreateBaseSalaryRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	amt, err := h.parseMoney(req.Amount)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	salary, err := h.Payroll.SetBaseSalary(r.Context(), generic.EmployeeID(req.EmployeeID), amt, start)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBaseSalaryDTO(salary))
}

// ListBaseSalaries returns an employee's salary history.
// GET /api/base-salaries/employee/{id}
func (h *Handler) ListBaseSalaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := employeeID(r)
	if _, err := h.Store.GetEmployee(ctx, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	history, err := h.Store.ListBaseSalaries(ctx, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]BaseSalaryDTO, len(history))
	for i, s := range history {
		dtos[i] = toBaseSalaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SALARY EVENT HANDLERS
// =============================================================================

// CreateSalaryEvent records a bonus, deduction or advance.
// POST /api/salary-events
func (h *Handler) CreateSalaryEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateSalaryEventRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	in := payroll.SalaryEventInput{
		EmployeeID:     generic.EmployeeID(req.EmployeeID),
		Kind:           generic.SalaryEventKind(req.Kind),
		Description:    strings.TrimSpace(req.Description),
		Recurrence:     generic.Recurrence(req.Recurrence),
		IdempotencyKey: req.IdempotencyKey,
	}
	var err error
	if in.Amount, err = h.parseMoney(req.Amount); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if in.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if req.EndDate != "" {
		if in.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}

	event, err := h.Payroll.RecordSalaryEvent(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSalaryEventDTO(event))
}

// ListSalaryEvents returns an employee's salary events.
// GET /api/salary-events/employee/{id}?kind=DEDUCTION&month=2024-03
func (h *Handler) ListSalaryEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := employeeID(r)

	var filter generic.SalaryEventFilter
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := generic.ParseSalaryEventKind(raw)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		filter.Kind = kind
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		period, err := generic.ParseMonth(raw)
		if err != nil {
			h.writeServiceError(w, r, &generic.ValidationError{Field: "month", Message: "must be YYYY-MM"})
			return
		}
		filter.Period = &period
	}

	if _, err := h.Store.GetEmployee(ctx, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	events, err := h.Store.ListSalaryEvents(ctx, id, filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]SalaryEventDTO, len(events))
	for i, e := range events {
		dtos[i] = toSalaryEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ABSENCE HANDLERS
// =============================================================================

// CreateAbsence records a permission or absence. The deduction is priced
// by the server; any amount in the body is ignored.
// POST /api/absences
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req CreateAbsenceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	kind, duration, err := parseKindAndDuration(req.Type, req.Duration)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	a, err := h.Absences.Create(r.Context(), absence.CreateInput{
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		Kind:       kind,
		Duration:   duration,
		Date:       date,
		Reason:     req.Reason,
		Notes:      req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAbsenceDTO(absence.View{
		Absence:  a,
		Editable: h.Absences.Window.IsEditable(a.Date, h.now()),
	}))
}

// PriceAbsence returns the deduction an absence would carry.
// POST /api/absences/price
func (h *Handler) PriceAbsence(w http.ResponseWriter, r *http.Request) {
	var req PriceAbsenceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	kind, duration, err := parseKindAndDuration(req.Type, req.Duration)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if kind == absence.KindAbsence {
		duration = nil
	}

	price, err := h.Absences.Pricing.Price(kind, duration)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := PriceResponse{
		Type:     string(kind),
		Amount:   amount(price),
		Currency: string(price.Currency),
		Display:  payslip.Display(price),
	}
	if duration != nil {
		d := string(*duration)
		resp.Duration = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAbsences returns an employee's absences with counters.
// GET /api/absences/employee/{id}?month=2024-03
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := employeeID(r)

	var period *generic.Period
	if raw := r.URL.Query().Get("month"); raw != "" {
		p, err := generic.ParseMonth(raw)
		if err != nil {
			h.writeServiceError(w, r, &generic.ValidationError{Field: "month", Message: "must be YYYY-MM"})
			return
		}
		period = &p
	}

	if _, err := h.Store.GetEmployee(ctx, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	views, err := h.Absences.List(ctx, id, period, h.now())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := AbsenceListResponse{Absences: make([]AbsenceDTO, len(views))}
	for i, v := range views {
		resp.Absences[i] = toAbsenceDTO(v)
	}
	summary := absence.Summarize(h.Policy.Pricing.DailyWorkValue.Currency, views)
	resp.Summary = AbsenceSummaryDTO{
		Permissions:     summary.Permissions,
		Absences:        summary.Absences,
		TotalDeductions: amount(summary.TotalDeductions),
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAbsence returns one absence.
func (h *Handler) GetAbsence(w http.ResponseWriter, r *http.Request) {
	v, err := h.Absences.Get(r.Context(), absenceID(r), h.now())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTO(v))
}

// UpdateAbsence changes an absence inside its edit window.
// PUT /api/absences/{id}
func (h *Handler) UpdateAbsence(w http.ResponseWriter, r *http.Request) {
	var req UpdateAbsenceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	kind, duration, err := parseKindAndDuration(req.Type, req.Duration)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	in := absence.UpdateInput{Kind: kind, Duration: duration, Reason: req.Reason, Notes: req.Notes}
	if req.Date != "" {
		if in.Date, err = parseDate("date", req.Date); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}

	now := h.now()
	a, err := h.Absences.Update(r.Context(), absenceID(r), in, now)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTO(absence.View{
		Absence:  a,
		Editable: h.Absences.Window.IsEditable(a.Date, now),
	}))
}

// DeleteAbsence removes an absence inside its edit window.
// DELETE /api/absences/{id}
func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	if err := h.Absences.Delete(r.Context(), absenceID(r), h.now()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AbsenceEditable reports whether an absence can still be changed.
// GET /api/absences/{id}/editable
func (h *Handler) AbsenceEditable(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	v, err := h.Absences.Get(r.Context(), absenceID(r), now)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EditableResponse{
		ID:          string(v.ID),
		Date:        v.Date.String(),
		Editable:    v.Editable,
		LockedSince: h.Absences.Window.LockedSince(v.Date, h.Location).Format(time.RFC3339),
	})
}

func absenceID(r *http.Request) generic.AbsenceID {
	return generic.AbsenceID(chi.URLParam(r, "id"))
}

func parseKindAndDuration(kindRaw, durationRaw string) (absence.Kind, *absence.Duration, error) {
	kind, err := generic.ParseAbsenceKind(kindRaw)
	if err != nil {
		return "", nil, err
	}
	duration, err := generic.ParseAbsenceDuration(durationRaw)
	if err != nil {
		return "", nil, err
	}
	return kind, duration, nil
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// CalculatePayroll computes one employee's payslip for the month of ?date.
// GET /api/payrolls/calculate/employees/{id}?date=2024-03-15
func (h *Handler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	id := employeeID(r)

	b, err := h.Payroll.Compute(r.Context(), id, asOf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollDTO(b, h.Policy.Payroll.StatutoryLabel))
}

// CalculateAll runs payroll for every employee. Employees that cannot be
// computed (no base salary) are listed with their error.
// GET /api/payrolls/calculate/all?date=2024-03-15
func (h *Handler) CalculateAll(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	results, err := h.Payroll.ComputeAll(r.Context(), asOf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := PayrollRunResponse{
		AsOf:  generic.DateOf(asOf).String(),
		Lines: make([]PayrollRunLineDTO, len(results)),
	}
	for i, res := range results {
		line := PayrollRunLineDTO{
			EmployeeID:   string(res.Employee.ID),
			EmployeeName: res.Employee.Name,
		}
		if res.Err != nil {
			_, e := classify(res.Err)
			e.Details = res.Err.Error()
			line.Error = &e
			resp.Failed++
		} else {
			dto := toPayrollDTO(*res.Breakdown, h.Policy.Payroll.StatutoryLabel)
			line.Payroll = &dto
			resp.Computed++
		}
		resp.Lines[i] = line
	}
	writeJSON(w, http.StatusOK, resp)
}

// DownloadPayslip renders the payslip as PDF.
// GET /api/payrolls/payslip/employees/{id}.pdf?date=2024-03-15
func (h *Handler) DownloadPayslip(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	id := employeeID(r)

	b, err := h.Payroll.Compute(r.Context(), id, asOf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="boleta-%s-%d.pdf"`, id, b.Period.Key()))
	err = payslip.WritePDF(w, payslip.Payslip{
		Employee:       b.Employee,
		Breakdown:      b,
		StatutoryLabel: h.Policy.Payroll.StatutoryLabel,
	})
	if err != nil {
		h.Log.WithError(err).WithField("employee_id", id).Error("payslip render failed")
	}
}

// =============================================================================
// POLICY
// =============================================================================

// GetPolicy returns the policy in force as its JSON document.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.NewPolicyFactory().ToJSON(h.Policy))
}
