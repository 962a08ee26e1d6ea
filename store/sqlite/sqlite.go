/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.TxStore (employees, base salaries, salary events,
  absences) using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees:      Hire date is all payroll needs
  base_salaries:  Salary history; end_date NULL = active
  salary_events:  Bonuses, deductions, advances (idempotency_key UNIQUE)
  absences:       Priced permissions and absences

INVARIANTS ENFORCED BY THE SCHEMA:
  - idx_base_salaries_active: at most one active salary per employee
    (partial unique index on employee_id WHERE end_date IS NULL)
  - salary_events.idempotency_key UNIQUE: form double-submits are rejected
  - Foreign keys from every table to employees

STORAGE FORMATS:
  Dates are "YYYY-MM-DD" text so range filters are plain string compares.
  Amounts are decimal strings plus a currency column; nothing passes
  through float64.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole transaction and hands fn a view bound to the *sql.Tx.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block
  each other and a single writer proceeds at a time. ":memory:" databases
  are limited to one connection, since each connection would otherwise
  see its own empty database.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := payroll.NewService(store, calc, clock, log)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Store implements generic.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
	q  queries
}

var _ generic.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, q: queries{db: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		hire_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS base_salaries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		created_at TEXT NOT NULL
	);

	-- At most one active base salary per employee
	CREATE UNIQUE INDEX IF NOT EXISTS idx_base_salaries_active
		ON base_salaries(employee_id) WHERE end_date IS NULL;

	CREATE INDEX IF NOT EXISTS idx_base_salaries_employee
		ON base_salaries(employee_id, start_date DESC);

	CREATE TABLE IF NOT EXISTS salary_events (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		recurrence TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	-- Hot path: deductions for one employee in one period
	CREATE INDEX IF NOT EXISTS idx_salary_events_employee_kind_date
		ON salary_events(employee_id, kind, start_date);

	CREATE TABLE IF NOT EXISTS absences (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		duration TEXT,
		date TEXT NOT NULL,
		deduction TEXT NOT NULL,
		currency TEXT NOT NULL,
		reason TEXT,
		notes TEXT,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_absences_employee_date
		ON absences(employee_id, date DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset removes all data. Used when loading demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"absences", "salary_events", "base_salaries", "employees"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// LOCKED ENTRY POINTS (generic.Store interface)
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.saveEmployee(ctx, emp)
}

func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.getEmployee(ctx, id)
}

func (s *Store) ListEmployees(ctx context.Context) ([]generic.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listEmployees(ctx)
}

func (s *Store) CreateBaseSalary(ctx context.Context, salary generic.BaseSalary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.createBaseSalary(ctx, salary)
}

func (s *Store) ActiveBaseSalary(ctx context.Context, employeeID generic.EmployeeID) (*generic.BaseSalary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.activeBaseSalary(ctx, employeeID)
}

func (s *Store) BaseSalaryForDate(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.BaseSalary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.baseSalaryForDate(ctx, employeeID, date)
}

func (s *Store) CloseBaseSalary(ctx context.Context, id generic.BaseSalaryID, end generic.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.closeBaseSalary(ctx, id, end)
}

func (s *Store) ListBaseSalaries(ctx context.Context, employeeID generic.EmployeeID) ([]generic.BaseSalary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listBaseSalaries(ctx, employeeID)
}

func (s *Store) CreateSalaryEvent(ctx context.Context, event generic.SalaryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.createSalaryEvent(ctx, event)
}

func (s *Store) ListSalaryEvents(ctx context.Context, employeeID generic.EmployeeID, filter generic.SalaryEventFilter) ([]generic.SalaryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listSalaryEvents(ctx, employeeID, filter)
}

func (s *Store) SaveAbsence(ctx context.Context, a generic.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.saveAbsence(ctx, a)
}

func (s *Store) GetAbsence(ctx context.Context, id generic.AbsenceID) (*generic.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.getAbsence(ctx, id)
}

func (s *Store) ListAbsences(ctx context.Context, employeeID generic.EmployeeID, period *generic.Period) ([]generic.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listAbsences(ctx, employeeID, period)
}

func (s *Store) DeleteAbsence(ctx context.Context, id generic.AbsenceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.deleteAbsence(ctx, id)
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: queries{db: sqlTx}}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every query on the open *sql.Tx. The parent lock is already
// held by WithTx, so nothing here locks.
type txStore struct {
	q queries
}

func (ts *txStore) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	return ts.q.saveEmployee(ctx, emp)
}

func (ts *txStore) GetEmployee(ctx context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	return ts.q.getEmployee(ctx, id)
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]generic.Employee, error) {
	return ts.q.listEmployees(ctx)
}

func (ts *txStore) CreateBaseSalary(ctx context.Context, salary generic.BaseSalary) error {
	return ts.q.createBaseSalary(ctx, salary)
}

func (ts *txStore) ActiveBaseSalary(ctx context.Context, employeeID generic.EmployeeID) (*generic.BaseSalary, error) {
	return ts.q.activeBaseSalary(ctx, employeeID)
}

func (ts *txStore) BaseSalaryForDate(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.BaseSalary, error) {
	return ts.q.baseSalaryForDate(ctx, employeeID, date)
}

func (ts *txStore) CloseBaseSalary(ctx context.Context, id generic.BaseSalaryID, end generic.TimePoint) error {
	return ts.q.closeBaseSalary(ctx, id, end)
}

func (ts *txStore) ListBaseSalaries(ctx context.Context, employeeID generic.EmployeeID) ([]generic.BaseSalary, error) {
	return ts.q.listBaseSalaries(ctx, employeeID)
}

func (ts *txStore) CreateSalaryEvent(ctx context.Context, event generic.SalaryEvent) error {
	return ts.q.createSalaryEvent(ctx, event)
}

func (ts *txStore) ListSalaryEvents(ctx context.Context, employeeID generic.EmployeeID, filter generic.SalaryEventFilter) ([]generic.SalaryEvent, error) {
	return ts.q.listSalaryEvents(ctx, employeeID, filter)
}

func (ts *txStore) SaveAbsence(ctx context.Context, a generic.Absence) error {
	return ts.q.saveAbsence(ctx, a)
}

func (ts *txStore) GetAbsence(ctx context.Context, id generic.AbsenceID) (*generic.Absence, error) {
	return ts.q.getAbsence(ctx, id)
}

func (ts *txStore) ListAbsences(ctx context.Context, employeeID generic.EmployeeID, period *generic.Period) ([]generic.Absence, error) {
	return ts.q.listAbsences(ctx, employeeID, period)
}

func (ts *txStore) DeleteAbsence(ctx context.Context, id generic.AbsenceID) error {
	return ts.q.deleteAbsence(ctx, id)
}

// =============================================================================
// QUERIES - Shared by Store and txStore
// =============================================================================

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db querier
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// --- employees ---

func (q queries) saveEmployee(ctx context.Context, emp generic.Employee) error {
	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO employees (id, name, email, hire_date, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			hire_date = excluded.hire_date
	`

	_, err := q.db.ExecContext(ctx, query,
		emp.ID, emp.Name, nullString(emp.Email),
		formatDate(emp.HireDate),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

const employeeColumns = "id, name, email, hire_date, created_at"

func scanEmployee(row rowScanner) (generic.Employee, error) {
	var (
		emp       generic.Employee
		email     sql.NullString
		hireDate  string
		createdAt string
	)
	if err := row.Scan(&emp.ID, &emp.Name, &email, &hireDate, &createdAt); err != nil {
		return emp, err
	}
	emp.Email = email.String
	var err error
	if emp.HireDate, err = parseDate("hire_date", hireDate); err != nil {
		return emp, err
	}
	if emp.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return emp, err
	}
	return emp, nil
}

func (q queries) getEmployee(ctx context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &generic.NotFoundError{Kind: "employee", ID: string(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &emp, nil
}

func (q queries) listEmployees(ctx context.Context) ([]generic.Employee, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []generic.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// --- base salaries ---

func (q queries) createBaseSalary(ctx context.Context, salary generic.BaseSalary) error {
	query := `
		INSERT INTO base_salaries (id, employee_id, amount, currency, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query,
		salary.ID,
		salary.EmployeeID,
		salary.Amount.Value.String(),
		salary.Amount.Currency,
		formatDate(salary.StartDate),
		nullDate(salary.EndDate),
		createdAtOrNow(salary.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrActiveBaseSalaryExists
		}
		if isForeignKeyError(err) {
			return &generic.NotFoundError{Kind: "employee", ID: string(salary.EmployeeID)}
		}
		return fmt.Errorf("failed to create base salary: %w", err)
	}
	return nil
}

const baseSalaryColumns = "id, employee_id, amount, currency, start_date, end_date, created_at"

func scanBaseSalary(row rowScanner) (generic.BaseSalary, error) {
	var (
		b         generic.BaseSalary
		amount    string
		currency  string
		startDate string
		endDate   sql.NullString
		createdAt string
	)
	if err := row.Scan(&b.ID, &b.EmployeeID, &amount, &currency, &startDate, &endDate, &createdAt); err != nil {
		return b, err
	}
	var err error
	if b.Amount, err = parseMoney("amount", amount, currency); err != nil {
		return b, err
	}
	if b.StartDate, err = parseDate("start_date", startDate); err != nil {
		return b, err
	}
	if endDate.Valid {
		end, err := parseDate("end_date", endDate.String)
		if err != nil {
			return b, err
		}
		b.EndDate = &end
	}
	if b.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return b, err
	}
	return b, nil
}

func (q queries) activeBaseSalary(ctx context.Context, employeeID generic.EmployeeID) (*generic.BaseSalary, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+baseSalaryColumns+" FROM base_salaries WHERE employee_id = ? AND end_date IS NULL",
		employeeID,
	)
	b, err := scanBaseSalary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &generic.NotFoundError{Kind: "active base salary for employee", ID: string(employeeID)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active base salary: %w", err)
	}
	return &b, nil
}

// Dates are stored as YYYY-MM-DD, so text comparison is date order.
func (q queries) baseSalaryForDate(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.BaseSalary, error) {
	day := formatDate(date)
	row := q.db.QueryRowContext(ctx, `
		SELECT `+baseSalaryColumns+` FROM base_salaries
		WHERE employee_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY start_date DESC, created_at DESC
		LIMIT 1`,
		employeeID, day, day,
	)
	b, err := scanBaseSalary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &generic.NotFoundError{Kind: "base salary on " + day + " for employee", ID: string(employeeID)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get base salary for date: %w", err)
	}
	return &b, nil
}

func (q queries) closeBaseSalary(ctx context.Context, id generic.BaseSalaryID, end generic.TimePoint) error {
	res, err := q.db.ExecContext(ctx, "UPDATE base_salaries SET end_date = ? WHERE id = ?", formatDate(end), id)
	if err != nil {
		return fmt.Errorf("failed to close base salary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "base salary", ID: string(id)}
	}
	return nil
}

func (q queries) listBaseSalaries(ctx context.Context, employeeID generic.EmployeeID) ([]generic.BaseSalary, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+baseSalaryColumns+" FROM base_salaries WHERE employee_id = ? ORDER BY start_date DESC, created_at DESC",
		employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query base salaries: %w", err)
	}
	defer rows.Close()

	var salaries []generic.BaseSalary
	for rows.Next() {
		b, err := scanBaseSalary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan base salary: %w", err)
		}
		salaries = append(salaries, b)
	}
	return salaries, rows.Err()
}

// --- salary events ---

func (q queries) createSalaryEvent(ctx context.Context, e generic.SalaryEvent) error {
	query := `
		INSERT INTO salary_events
		(id, employee_id, kind, description, amount, currency, recurrence,
		 start_date, end_date, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var end *generic.TimePoint
	if !e.EndDate.IsZero() {
		end = &e.EndDate
	}

	_, err := q.db.ExecContext(ctx, query,
		e.ID,
		e.EmployeeID,
		e.Kind,
		e.Description,
		e.Amount.Value.String(),
		e.Amount.Currency,
		e.Recurrence,
		formatDate(e.StartDate),
		nullDate(end),
		nullString(e.IdempotencyKey),
		createdAtOrNow(e.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		if isForeignKeyError(err) {
			return &generic.NotFoundError{Kind: "employee", ID: string(e.EmployeeID)}
		}
		return fmt.Errorf("failed to create salary event: %w", err)
	}
	return nil
}

// listSalaryEvents narrows by kind and start date in SQL, then applies
// SalaryEvent.AffectsPeriod so recurrence rules live in one place.
func (q queries) listSalaryEvents(ctx context.Context, employeeID generic.EmployeeID, filter generic.SalaryEventFilter) ([]generic.SalaryEvent, error) {
	query := `
		SELECT id, employee_id, kind, description, amount, currency, recurrence,
		       start_date, end_date, idempotency_key, created_at
		FROM salary_events
		WHERE employee_id = ?
	`
	args := []any{employeeID}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if filter.Period != nil {
		query += " AND start_date <= ?"
		args = append(args, formatDate(filter.Period.End))
	}
	query += " ORDER BY start_date ASC, created_at ASC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query salary events: %w", err)
	}
	defer rows.Close()

	var events []generic.SalaryEvent
	for rows.Next() {
		var (
			e              generic.SalaryEvent
			description    sql.NullString
			amount         string
			currency       string
			startDate      string
			endDate        sql.NullString
			idempotencyKey sql.NullString
			createdAt      string
		)
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Kind, &description, &amount, &currency,
			&e.Recurrence, &startDate, &endDate, &idempotencyKey, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan salary event: %w", err)
		}
		e.Description = description.String
		e.IdempotencyKey = idempotencyKey.String
		if err := decodeSalaryEvent(&e, amount, currency, startDate, endDate, createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan salary event %s: %w", e.ID, err)
		}

		if filter.Period != nil && !e.AffectsPeriod(*filter.Period) {
			continue
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func decodeSalaryEvent(e *generic.SalaryEvent, amount, currency, startDate string, endDate sql.NullString, createdAt string) error {
	var err error
	if e.Amount, err = parseMoney("amount", amount, currency); err != nil {
		return err
	}
	if e.StartDate, err = parseDate("start_date", startDate); err != nil {
		return err
	}
	if endDate.Valid {
		if e.EndDate, err = parseDate("end_date", endDate.String); err != nil {
			return err
		}
	}
	e.CreatedAt, err = parseTimestamp("created_at", createdAt)
	return err
}

// --- absences ---

func (q queries) saveAbsence(ctx context.Context, a generic.Absence) error {
	query := `
		INSERT INTO absences
		(id, employee_id, kind, duration, date, deduction, currency, reason, notes,
		 description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			duration = excluded.duration,
			date = excluded.date,
			deduction = excluded.deduction,
			currency = excluded.currency,
			reason = excluded.reason,
			notes = excluded.notes,
			description = excluded.description,
			updated_at = excluded.updated_at
	`
	var duration sql.NullString
	if a.Duration != nil {
		duration = nullString(string(*a.Duration))
	}
	createdAt := createdAtOrNow(a.CreatedAt)
	updatedAt := createdAt
	if !a.UpdatedAt.IsZero() {
		updatedAt = a.UpdatedAt.UTC().Format(time.RFC3339)
	}

	_, err := q.db.ExecContext(ctx, query,
		a.ID,
		a.EmployeeID,
		a.Kind,
		duration,
		formatDate(a.Date),
		a.Deduction.Value.String(),
		a.Deduction.Currency,
		nullString(a.Reason),
		nullString(a.Notes),
		a.Description,
		createdAt,
		updatedAt,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return &generic.NotFoundError{Kind: "employee", ID: string(a.EmployeeID)}
		}
		return fmt.Errorf("failed to save absence: %w", err)
	}
	return nil
}

const absenceColumns = `id, employee_id, kind, duration, date, deduction, currency, reason, notes,
	description, created_at, updated_at`

func scanAbsence(row rowScanner) (generic.Absence, error) {
	var (
		a         generic.Absence
		duration  sql.NullString
		date      string
		deduction string
		currency  string
		reason    sql.NullString
		notes     sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&a.ID, &a.EmployeeID, &a.Kind, &duration, &date, &deduction, &currency,
		&reason, &notes, &a.Description, &createdAt, &updatedAt); err != nil {
		return a, err
	}
	if duration.Valid {
		d := generic.AbsenceDuration(duration.String)
		a.Duration = &d
	}
	a.Reason = reason.String
	a.Notes = notes.String
	var err error
	if a.Date, err = parseDate("date", date); err != nil {
		return a, err
	}
	if a.Deduction, err = parseMoney("deduction", deduction, currency); err != nil {
		return a, err
	}
	if a.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return a, err
	}
	if a.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return a, err
	}
	return a, nil
}

func (q queries) getAbsence(ctx context.Context, id generic.AbsenceID) (*generic.Absence, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+absenceColumns+" FROM absences WHERE id = ?", id)
	a, err := scanAbsence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &generic.NotFoundError{Kind: "absence", ID: string(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get absence: %w", err)
	}
	return &a, nil
}

func (q queries) listAbsences(ctx context.Context, employeeID generic.EmployeeID, period *generic.Period) ([]generic.Absence, error) {
	query := "SELECT " + absenceColumns + " FROM absences WHERE employee_id = ?"
	args := []any{employeeID}
	if period != nil {
		query += " AND date >= ? AND date <= ?"
		args = append(args, formatDate(period.Start), formatDate(period.End))
	}
	query += " ORDER BY date DESC, id ASC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []generic.Absence
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

func (q queries) deleteAbsence(ctx context.Context, id generic.AbsenceID) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM absences WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete absence: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "absence", ID: string(id)}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatDate(tp generic.TimePoint) string {
	return tp.Time.Format(generic.DateLayout)
}

func nullDate(tp *generic.TimePoint) sql.NullString {
	if tp == nil || tp.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*tp), Valid: true}
}

// ErrCorruptRow is returned when a stored column cannot be decoded.
var ErrCorruptRow = errors.New("corrupt stored value")

func parseDate(column, s string) (generic.TimePoint, error) {
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("%w: %s %q", ErrCorruptRow, column, s)
	}
	return tp, nil
}

func parseTimestamp(column, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", ErrCorruptRow, column, s)
	}
	return t, nil
}

func parseMoney(column, value, currency string) (generic.Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil || currency == "" {
		return generic.Money{}, fmt.Errorf("%w: %s %q %q", ErrCorruptRow, column, value, currency)
	}
	return generic.NewMoney(d, generic.Currency(currency)), nil
}

func createdAtOrNow(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
