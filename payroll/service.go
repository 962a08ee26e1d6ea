package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/generic"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// SERVICE - Fetch snapshot, run calculator
// =============================================================================

// Service wires the Calculator to a store. The store reads are the only
// blocking part of a payroll run; they honour ctx and run concurrently.
type Service struct {
	Store      generic.Store
	Calculator *Calculator
	Clock      generic.Clock
	Log        *logrus.Entry
}

func NewService(store generic.Store, calc *Calculator, clock generic.Clock, log *logrus.Logger) *Service {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		Store:      store,
		Calculator: calc,
		Clock:      clock,
		Log:        log.WithField("component", "payroll"),
	}
}

// Snapshot is everything the calculator needs for one employee and period.
type Snapshot struct {
	Employee     generic.Employee
	BaseSalary   *generic.BaseSalary
	SalaryEvents []generic.SalaryEvent
	Absences     []generic.Absence
}

// Deductions merges legacy deduction events and typed absences.
func (s Snapshot) Deductions() []DeductionEvent {
	return append(FromSalaryEvents(s.SalaryEvents), FromAbsences(s.Absences)...)
}

// LoadSnapshot reads the employee, the base salary in effect on asOf,
// deduction events and absences for the period concurrently. A missing base
// salary is not an error here; it surfaces as ErrNoBaseSalary from Compute.
func (s *Service) LoadSnapshot(ctx context.Context, employeeID generic.EmployeeID, period generic.Period, asOf generic.TimePoint) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		emp, err := s.Store.GetEmployee(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("load employee %s: %w", employeeID, err)
		}
		snap.Employee = *emp
		return nil
	})
	g.Go(func() error {
		salary, err := s.Store.BaseSalaryForDate(ctx, employeeID, asOf)
		if errors.Is(err, generic.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load base salary for %s: %w", employeeID, err)
		}
		snap.BaseSalary = salary
		return nil
	})
	g.Go(func() error {
		events, err := s.Store.ListSalaryEvents(ctx, employeeID, generic.SalaryEventFilter{
			Kind:   generic.EventDeduction,
			Period: &period,
		})
		if err != nil {
			return fmt.Errorf("load deductions for %s: %w", employeeID, err)
		}
		snap.SalaryEvents = events
		return nil
	})
	g.Go(func() error {
		absences, err := s.Store.ListAbsences(ctx, employeeID, &period)
		if err != nil {
			return fmt.Errorf("load absences for %s: %w", employeeID, err)
		}
		snap.Absences = absences
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Compute runs payroll for one employee for the month containing asOf, on
// the base salary in effect on asOf's calendar date.
func (s *Service) Compute(ctx context.Context, employeeID generic.EmployeeID, asOf time.Time) (Breakdown, error) {
	period := generic.PeriodForInstant(asOf)
	snap, err := s.LoadSnapshot(ctx, employeeID, period, generic.DateOf(asOf))
	if err != nil {
		return Breakdown{}, err
	}

	b, err := s.Calculator.Compute(Input{
		Employee:   snap.Employee,
		BaseSalary: snap.BaseSalary,
		Deductions: snap.Deductions(),
		Period:     period,
		Today:      asOf,
	})
	recordComputation(b, err)

	log := s.Log.WithFields(logrus.Fields{"employee_id": employeeID, "period": period.Key()})
	if err != nil {
		log.WithError(err).Info("payroll not computed")
		return Breakdown{}, err
	}
	if b.IsNegative() {
		log.WithField("net", b.NetAmount.String()).Warn("payroll computed with negative net")
	} else {
		log.WithField("net", b.NetAmount.String()).Debug("payroll computed")
	}
	return b, nil
}

// EmployeeResult is one line of a batch payroll run.
type EmployeeResult struct {
	Employee  generic.Employee
	Breakdown *Breakdown
	Err       error
}

// ComputeAll runs payroll for every employee. Per-employee failures such as
// a missing base salary are reported on the line, not returned.
func (s *Service) ComputeAll(ctx context.Context, asOf time.Time) ([]EmployeeResult, error) {
	employees, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	results := make([]EmployeeResult, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			b, err := s.Compute(gctx, emp.ID, asOf)
			results[i] = EmployeeResult{Employee: emp}
			if err != nil {
				if generic.IsNotFound(err) || generic.IsClientError(err) {
					results[i].Err = err
					return nil
				}
				return err
			}
			results[i].Breakdown = &b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// =============================================================================
// BASE SALARY AND SALARY EVENTS
// =============================================================================

// SetBaseSalary makes amount the employee's active salary from start.
// An existing active salary is closed the day before start, atomically when
// the store supports transactions.
func (s *Service) SetBaseSalary(ctx context.Context, employeeID generic.EmployeeID, amount generic.Money, start generic.TimePoint) (generic.BaseSalary, error) {
	if err := generic.CheckPositiveAmount("amount", amount); err != nil {
		return generic.BaseSalary{}, err
	}
	if amount.Currency == "" {
		amount.Currency = s.Calculator.Policy.Currency
	}

	salary := generic.BaseSalary{
		ID:         generic.BaseSalaryID(uuid.NewString()),
		EmployeeID: employeeID,
		Amount:     amount,
		StartDate:  start,
		CreatedAt:  s.Clock.Now().UTC(),
	}

	replace := func(st generic.Store) error {
		if _, err := st.GetEmployee(ctx, employeeID); err != nil {
			return err
		}
		current, err := st.ActiveBaseSalary(ctx, employeeID)
		switch {
		case errors.Is(err, generic.ErrNotFound):
		case err != nil:
			return err
		default:
			end := start.AddDays(-1)
			if end.Before(current.StartDate) {
				end = current.StartDate
			}
			if err := st.CloseBaseSalary(ctx, current.ID, end); err != nil {
				return err
			}
		}
		return st.CreateBaseSalary(ctx, salary)
	}

	var err error
	if tx, ok := s.Store.(generic.TxStore); ok {
		err = tx.WithTx(ctx, replace)
	} else {
		err = replace(s.Store)
	}
	if err != nil {
		return generic.BaseSalary{}, err
	}

	s.Log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"amount":      salary.Amount.String(),
		"start":       start.String(),
	}).Info("base salary set")
	return salary, nil
}

// SalaryEventInput is a request to record a bonus, deduction or advance.
type SalaryEventInput struct {
	EmployeeID     generic.EmployeeID
	Kind           generic.SalaryEventKind
	Description    string
	Amount         generic.Money
	Recurrence     generic.Recurrence
	StartDate      generic.TimePoint
	EndDate        generic.TimePoint
	IdempotencyKey string
}

// RecordSalaryEvent validates and stores a salary event.
func (s *Service) RecordSalaryEvent(ctx context.Context, in SalaryEventInput) (generic.SalaryEvent, error) {
	if err := generic.CheckPositiveAmount("amount", in.Amount); err != nil {
		return generic.SalaryEvent{}, err
	}
	if in.Recurrence == "" {
		in.Recurrence = generic.RecurrenceOneTime
	}
	if in.Recurrence == generic.RecurrenceOneTime && in.EndDate.IsZero() {
		in.EndDate = in.StartDate
	}
	if !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return generic.SalaryEvent{}, generic.ErrInvalidPeriod
	}
	if in.Amount.Currency == "" {
		in.Amount.Currency = s.Calculator.Policy.Currency
	}
	if _, err := s.Store.GetEmployee(ctx, in.EmployeeID); err != nil {
		return generic.SalaryEvent{}, err
	}

	event := generic.SalaryEvent{
		ID:             generic.SalaryEventID(uuid.NewString()),
		EmployeeID:     in.EmployeeID,
		Kind:           in.Kind,
		Description:    in.Description,
		Amount:         in.Amount,
		Recurrence:     in.Recurrence,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      s.Clock.Now().UTC(),
	}
	if err := s.Store.CreateSalaryEvent(ctx, event); err != nil {
		return generic.SalaryEvent{}, err
	}
	return event, nil
}
