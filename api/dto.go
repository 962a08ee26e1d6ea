/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts cross the wire as strings with two decimals ("5019.17") plus a
  currency code. Clients never send a deduction amount for an absence;
  the server prices it.

VALIDATION:
  Request types carry go-playground/validator tags. Handlers call
  h.decode, which rejects unknown shapes with 400 before any domain call.
  Domain rules (edit window, duration required for permissions) are
  enforced by the services, not here.

SEE ALSO:
  - handlers.go: Uses these types
  - errors.go: ErrorResponse
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"time"

	"github.com/warp/payroll-engine/absence"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payslip"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	HireDate  string `json:"hire_date"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
// ID is generated when omitted.
type CreateEmployeeRequest struct {
	ID       string `json:"id" validate:"omitempty,max=64"`
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	HireDate string `json:"hire_date" validate:"required,datetime=2006-01-02"`
}

func toEmployeeDTO(e generic.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:       string(e.ID),
		Name:     e.Name,
		Email:    e.Email,
		HireDate: e.HireDate.String(),
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// BASE SALARIES
// =============================================================================

type BaseSalaryDTO struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Amount     string  `json:"amount"`
	Currency   string  `json:"currency"`
	StartDate  string  `json:"start_date"`
	EndDate    *string `json:"end_date"`
	Active     bool    `json:"active"`
}

// CreateBaseSalaryRequest replaces the employee's active salary from StartDate.
type CreateBaseSalaryRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Amount     string `json:"amount" validate:"required,numeric"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
}

func toBaseSalaryDTO(s generic.BaseSalary) BaseSalaryDTO {
	dto := BaseSalaryDTO{
		ID:         string(s.ID),
		EmployeeID: string(s.EmployeeID),
		Amount:     amount(s.Amount),
		Currency:   string(s.Amount.Currency),
		StartDate:  s.StartDate.String(),
		Active:     s.IsActive(),
	}
	if s.EndDate != nil {
		end := s.EndDate.String()
		dto.EndDate = &end
	}
	return dto
}

// =============================================================================
// SALARY EVENTS
// =============================================================================

type SalaryEventDTO struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	Kind           string  `json:"kind"`
	Description    string  `json:"description"`
	Amount         string  `json:"amount"`
	Currency       string  `json:"currency"`
	Recurrence     string  `json:"recurrence"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`

	// Absence is set on legacy DEDUCTION events whose description reads as
	// a permission or an absence.
	Absence *LegacyAbsenceDTO `json:"absence,omitempty"`
}

// LegacyAbsenceDTO is the absence recovered from a free-text description.
type LegacyAbsenceDTO struct {
	Type     string  `json:"type"`
	Duration *string `json:"duration"`
}

type CreateSalaryEventRequest struct {
	EmployeeID     string `json:"employee_id" validate:"required"`
	Kind           string `json:"kind" validate:"required,oneof=BONUS DEDUCTION ADVANCE"`
	Description    string `json:"description" validate:"max=255"`
	Amount         string `json:"amount" validate:"required,numeric"`
	Recurrence     string `json:"recurrence" validate:"omitempty,oneof=ONE_TIME MONTHLY"`
	StartDate      string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,max=128"`
}

func toSalaryEventDTO(e generic.SalaryEvent) SalaryEventDTO {
	dto := SalaryEventDTO{
		ID:             string(e.ID),
		EmployeeID:     string(e.EmployeeID),
		Kind:           string(e.Kind),
		Description:    e.Description,
		Amount:         amount(e.Amount),
		Currency:       string(e.Amount.Currency),
		Recurrence:     string(e.Recurrence),
		StartDate:      e.StartDate.String(),
		IdempotencyKey: e.IdempotencyKey,
	}
	if !e.EndDate.IsZero() {
		end := e.EndDate.String()
		dto.EndDate = &end
	}
	if e.Kind == generic.EventDeduction && payroll.ClassifyDescription(e.Description) != payroll.CategoryOther {
		legacy := absence.ParseLegacyDescription(e.Description)
		dto.Absence = &LegacyAbsenceDTO{Type: string(legacy.Kind)}
		if legacy.Kind == absence.KindPermission {
			d := string(legacy.Duration)
			dto.Absence.Duration = &d
		}
	}
	return dto
}

// =============================================================================
// ABSENCES
// =============================================================================

type AbsenceDTO struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	Type            string  `json:"type"`
	Duration        *string `json:"duration"`
	Date            string  `json:"date"`
	DeductionAmount string  `json:"deduction_amount"`
	Currency        string  `json:"currency"`
	Reason          string  `json:"reason,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	Description     string  `json:"description"`
	Editable        bool    `json:"editable"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// CreateAbsenceRequest records a permission or absence. Duration is
// required for PERMISSION and ignored for ABSENCE.
type CreateAbsenceRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=PERMISSION ABSENCE"`
	Duration   string `json:"duration" validate:"omitempty,oneof=HALF_DAY FULL_DAY"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"max=500"`
	Notes      string `json:"notes" validate:"max=1000"`
}

// UpdateAbsenceRequest replaces the editable fields. An empty date keeps
// the current one.
type UpdateAbsenceRequest struct {
	Type     string `json:"type" validate:"required,oneof=PERMISSION ABSENCE"`
	Duration string `json:"duration" validate:"omitempty,oneof=HALF_DAY FULL_DAY"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Reason   string `json:"reason" validate:"max=500"`
	Notes    string `json:"notes" validate:"max=1000"`
}

// PriceAbsenceRequest asks what an absence would deduct, without saving it.
type PriceAbsenceRequest struct {
	Type     string `json:"type" validate:"required,oneof=PERMISSION ABSENCE"`
	Duration string `json:"duration" validate:"omitempty,oneof=HALF_DAY FULL_DAY"`
}

type PriceResponse struct {
	Type     string  `json:"type"`
	Duration *string `json:"duration"`
	Amount   string  `json:"amount"`
	Currency string  `json:"currency"`
	Display  string  `json:"display"`
}

type AbsenceSummaryDTO struct {
	Permissions     int    `json:"permissions"`
	Absences        int    `json:"absences"`
	TotalDeductions string `json:"total_deductions"`
}

// AbsenceListResponse is an employee's absences with their counters.
type AbsenceListResponse struct {
	Absences []AbsenceDTO      `json:"absences"`
	Summary  AbsenceSummaryDTO `json:"summary"`
}

type EditableResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Editable    bool   `json:"editable"`
	LockedSince string `json:"locked_since"`
}

func toAbsenceDTO(v absence.View) AbsenceDTO {
	dto := AbsenceDTO{
		ID:              string(v.ID),
		EmployeeID:      string(v.EmployeeID),
		Type:            string(v.Kind),
		Date:            v.Date.String(),
		DeductionAmount: amount(v.Deduction),
		Currency:        string(v.Deduction.Currency),
		Reason:          v.Reason,
		Notes:           v.Notes,
		Description:     v.Description,
		Editable:        v.Editable,
	}
	if v.Duration != nil {
		d := string(*v.Duration)
		dto.Duration = &d
	}
	if !v.CreatedAt.IsZero() {
		dto.CreatedAt = v.CreatedAt.Format(time.RFC3339)
	}
	if !v.UpdatedAt.IsZero() {
		dto.UpdatedAt = v.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// PAYROLL
// =============================================================================

type PeriodDTO struct {
	Key   int    `json:"key"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// DeductionBucketDTO is one payslip deduction line: {type, quantity, total}.
type DeductionBucketDTO struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
}

// PayrollDTO is a computed payslip.
type PayrollDTO struct {
	EmployeeID           string               `json:"employee_id"`
	EmployeeName         string               `json:"employee_name,omitempty"`
	Period               PeriodDTO            `json:"period"`
	AsOf                 string               `json:"as_of"`
	Currency             string               `json:"currency"`
	BaseSalary           string               `json:"base_salary"`
	YearsWorked          int                  `json:"years_worked"`
	SeniorityPercentage  string               `json:"seniority_percentage"`
	SeniorityBonus       string               `json:"seniority_bonus"`
	GrossAmount          string               `json:"gross_amount"`
	StatutoryLabel       string               `json:"statutory_label"`
	StatutoryPercentage  string               `json:"statutory_percentage"`
	StatutoryDeduction   string               `json:"statutory_deduction"`
	Deductions           []DeductionBucketDTO `json:"deductions"`
	OtherDeductionsTotal string               `json:"other_deductions_total"`
	TotalDeductions      string               `json:"total_deductions"`
	NetAmount            string               `json:"net_amount"`
	NetDisplay           string               `json:"net_display"`
	Warnings             []string             `json:"warnings"`
}

// PayrollRunLineDTO is one employee in a batch run. Exactly one of
// Payroll and Error is set.
type PayrollRunLineDTO struct {
	EmployeeID   string         `json:"employee_id"`
	EmployeeName string         `json:"employee_name"`
	Payroll      *PayrollDTO    `json:"payroll,omitempty"`
	Error        *ErrorResponse `json:"error,omitempty"`
}

type PayrollRunResponse struct {
	AsOf     string              `json:"as_of"`
	Computed int                 `json:"computed"`
	Failed   int                 `json:"failed"`
	Lines    []PayrollRunLineDTO `json:"lines"`
}

func toPayrollDTO(b payroll.Breakdown, statutoryLabel string) PayrollDTO {
	dto := PayrollDTO{
		EmployeeID:   string(b.Employee.ID),
		EmployeeName: b.Employee.Name,
		Period: PeriodDTO{
			Key:   b.Period.Key(),
			Start: b.Period.Start.String(),
			End:   b.Period.End.String(),
		},
		AsOf:                 b.AsOf.String(),
		Currency:             string(b.BaseSalary.Currency),
		BaseSalary:           amount(b.BaseSalary),
		YearsWorked:          b.YearsWorked,
		SeniorityPercentage:  b.SeniorityRate.Percent().StringFixed(2),
		SeniorityBonus:       amount(b.SeniorityBonus),
		GrossAmount:          amount(b.GrossAmount),
		StatutoryLabel:       statutoryLabel,
		StatutoryPercentage:  b.StatutoryRate.Percent().StringFixed(2),
		StatutoryDeduction:   amount(b.StatutoryDeduction),
		OtherDeductionsTotal: amount(b.OtherDeductionsTotal),
		TotalDeductions:      amount(b.TotalDeductions),
		NetAmount:            amount(b.NetAmount),
		NetDisplay:           payslip.Display(b.NetAmount),
		Warnings:             append([]string{}, b.Warnings...),
	}
	for _, bucket := range b.Buckets {
		dto.Deductions = append(dto.Deductions, DeductionBucketDTO{
			Type:     string(bucket.Category),
			Quantity: bucket.Count,
			Total:    amount(bucket.Total),
		})
	}
	return dto
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// amount renders money the way it crosses the wire.
func amount(m generic.Money) string {
	return m.Value.StringFixed(2)
}
