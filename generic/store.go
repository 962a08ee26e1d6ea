/*
store.go - Persistence interfaces for payroll input data

PURPOSE:
  Defines the boundary between the engine and whatever holds employees,
  base salaries, salary events and absences. The calculators never touch a
  store; services fetch a snapshot through these interfaces and hand plain
  records to the pure functions.

KEY INTERFACES:
  EmployeeStore:    Employee lookup (hire date)
  BaseSalaryStore:  Base salaries, at most one active per employee, with history
  SalaryEventStore: Bonuses, deductions, advances (create + list)
  AbsenceStore:     Typed absences/permissions (editable within a window)
  TxStore:          Atomic multi-write (replace active base salary)

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

EXAMPLE:
  salary, err := store.BaseSalaryForDate(ctx, "emp-1", generic.NewTimePoint(2024, time.March, 15))
  if errors.Is(err, generic.ErrNotFound) {
      // no salary that day: payroll cannot run
  }

SEE ALSO:
  - records.go: Record types
  - payroll/service.go: Concurrent snapshot fetch
*/
package generic

import "context"

type EmployeeStore interface {
	SaveEmployee(ctx context.Context, emp Employee) error

	// GetEmployee returns ErrNotFound if the employee doesn't exist.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	ListEmployees(ctx context.Context) ([]Employee, error)
}

type BaseSalaryStore interface {
	// CreateBaseSalary persists a salary. Returns ErrActiveBaseSalaryExists if
	// the record is active and the employee already has an active one.
	CreateBaseSalary(ctx context.Context, salary BaseSalary) error

	// ActiveBaseSalary returns ErrNotFound if the employee has no active salary.
	ActiveBaseSalary(ctx context.Context, employeeID EmployeeID) (*BaseSalary, error)

	// BaseSalaryForDate returns the salary in effect on date. On the day a
	// replacement starts both records cover it and the later start wins.
	// Returns ErrNotFound if no salary covers date.
	BaseSalaryForDate(ctx context.Context, employeeID EmployeeID, date TimePoint) (*BaseSalary, error)

	// CloseBaseSalary sets the end date of a salary, making it inactive.
	CloseBaseSalary(ctx context.Context, id BaseSalaryID, end TimePoint) error

	// ListBaseSalaries returns salary history, newest start date first.
	ListBaseSalaries(ctx context.Context, employeeID EmployeeID) ([]BaseSalary, error)
}

// SalaryEventFilter narrows ListSalaryEvents. Zero value returns everything.
type SalaryEventFilter struct {
	Kind   SalaryEventKind
	Period *Period
}

type SalaryEventStore interface {
	// CreateSalaryEvent persists an event. Returns ErrDuplicateIdempotencyKey
	// if the key was already used.
	CreateSalaryEvent(ctx context.Context, event SalaryEvent) error

	// ListSalaryEvents returns events ordered by start date.
	ListSalaryEvents(ctx context.Context, employeeID EmployeeID, filter SalaryEventFilter) ([]SalaryEvent, error)
}

type AbsenceStore interface {
	// SaveAbsence inserts or replaces an absence by ID.
	SaveAbsence(ctx context.Context, a Absence) error

	// GetAbsence returns ErrNotFound if the absence doesn't exist.
	GetAbsence(ctx context.Context, id AbsenceID) (*Absence, error)

	// ListAbsences returns absences ordered by date, newest first.
	// A nil period returns all of them.
	ListAbsences(ctx context.Context, employeeID EmployeeID, period *Period) ([]Absence, error)

	DeleteAbsence(ctx context.Context, id AbsenceID) error
}

// Store is everything the services need.
type Store interface {
	EmployeeStore
	BaseSalaryStore
	SalaryEventStore
	AbsenceStore
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
// Used when replacing an active base salary (close old + create new).
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
