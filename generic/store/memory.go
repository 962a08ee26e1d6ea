// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	employees    map[generic.EmployeeID]generic.Employee
	baseSalaries map[generic.EmployeeID][]generic.BaseSalary
	events       map[generic.EmployeeID][]generic.SalaryEvent
	absences     map[generic.AbsenceID]generic.Absence
	idempotency  map[string]bool
}

var _ generic.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		employees:    make(map[generic.EmployeeID]generic.Employee),
		baseSalaries: make(map[generic.EmployeeID][]generic.BaseSalary),
		events:       make(map[generic.EmployeeID][]generic.SalaryEvent),
		absences:     make(map[generic.AbsenceID]generic.Absence),
		idempotency:  make(map[string]bool),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, emp generic.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "employee", ID: string(id)}
	}
	return &emp, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]generic.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		result = append(result, emp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// =============================================================================
// BASE SALARIES
// =============================================================================

func (m *Memory) CreateBaseSalary(_ context.Context, salary generic.BaseSalary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createBaseSalaryLocked(salary)
}

func (m *Memory) createBaseSalaryLocked(salary generic.BaseSalary) error {
	if salary.IsActive() {
		for _, s := range m.baseSalaries[salary.EmployeeID] {
			if s.IsActive() {
				return generic.ErrActiveBaseSalaryExists
			}
		}
	}
	m.baseSalaries[salary.EmployeeID] = append(m.baseSalaries[salary.EmployeeID], salary)
	return nil
}

func (m *Memory) ActiveBaseSalary(_ context.Context, employeeID generic.EmployeeID) (*generic.BaseSalary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeBaseSalaryLocked(employeeID)
}

func (m *Memory) activeBaseSalaryLocked(employeeID generic.EmployeeID) (*generic.BaseSalary, error) {
	for _, s := range m.baseSalaries[employeeID] {
		if s.IsActive() {
			salary := s
			return &salary, nil
		}
	}
	return nil, &generic.NotFoundError{Kind: "active base salary for employee", ID: string(employeeID)}
}

func (m *Memory) BaseSalaryForDate(_ context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.BaseSalary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseSalaryForDateLocked(employeeID, date)
}

func (m *Memory) baseSalaryForDateLocked(employeeID generic.EmployeeID, date generic.TimePoint) (*generic.BaseSalary, error) {
	var found *generic.BaseSalary
	for _, s := range m.baseSalaries[employeeID] {
		if !s.InEffectOn(date) {
			continue
		}
		if found == nil || s.StartDate.After(found.StartDate) {
			salary := s
			found = &salary
		}
	}
	if found == nil {
		return nil, &generic.NotFoundError{Kind: "base salary on " + date.String() + " for employee", ID: string(employeeID)}
	}
	return found, nil
}

func (m *Memory) CloseBaseSalary(_ context.Context, id generic.BaseSalaryID, end generic.TimePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeBaseSalaryLocked(id, end)
}

func (m *Memory) closeBaseSalaryLocked(id generic.BaseSalaryID, end generic.TimePoint) error {
	for empID, salaries := range m.baseSalaries {
		for i := range salaries {
			if salaries[i].ID == id {
				e := end
				salaries[i].EndDate = &e
				m.baseSalaries[empID] = salaries
				return nil
			}
		}
	}
	return &generic.NotFoundError{Kind: "base salary", ID: string(id)}
}

func (m *Memory) ListBaseSalaries(_ context.Context, employeeID generic.EmployeeID) ([]generic.BaseSalary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := append([]generic.BaseSalary{}, m.baseSalaries[employeeID]...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

// =============================================================================
// SALARY EVENTS
// =============================================================================

func (m *Memory) CreateSalaryEvent(_ context.Context, event generic.SalaryEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createSalaryEventLocked(event)
}

func (m *Memory) createSalaryEventLocked(event generic.SalaryEvent) error {
	if event.IdempotencyKey != "" && m.idempotency[event.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}

	events := m.events[event.EmployeeID]

	// Binary search for insertion point keeps the slice ordered by start date
	i := sort.Search(len(events), func(i int) bool {
		return events[i].StartDate.After(event.StartDate)
	})
	events = append(events, generic.SalaryEvent{})
	copy(events[i+1:], events[i:])
	events[i] = event
	m.events[event.EmployeeID] = events

	if event.IdempotencyKey != "" {
		m.idempotency[event.IdempotencyKey] = true
	}
	return nil
}

func (m *Memory) ListSalaryEvents(_ context.Context, employeeID generic.EmployeeID, filter generic.SalaryEventFilter) ([]generic.SalaryEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.SalaryEvent
	for _, e := range m.events[employeeID] {
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if filter.Period != nil && !e.AffectsPeriod(*filter.Period) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

// =============================================================================
// ABSENCES
// =============================================================================

func (m *Memory) SaveAbsence(_ context.Context, a generic.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.absences[a.ID] = a
	return nil
}

func (m *Memory) GetAbsence(_ context.Context, id generic.AbsenceID) (*generic.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.absences[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "absence", ID: string(id)}
	}
	return &a, nil
}

func (m *Memory) ListAbsences(_ context.Context, employeeID generic.EmployeeID, period *generic.Period) ([]generic.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Absence
	for _, a := range m.absences {
		if a.EmployeeID != employeeID {
			continue
		}
		if period != nil && !period.Contains(a.Date) {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID < result[j].ID
		}
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (m *Memory) DeleteAbsence(_ context.Context, id generic.AbsenceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.absences[id]; !ok {
		return &generic.NotFoundError{Kind: "absence", ID: string(id)}
	}
	delete(m.absences, id)
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

var _ generic.TxStore = (*TxMemory)(nil)

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The view passed to fn must not be retained after fn returns.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	employees    map[generic.EmployeeID]generic.Employee
	baseSalaries map[generic.EmployeeID][]generic.BaseSalary
	events       map[generic.EmployeeID][]generic.SalaryEvent
	absences     map[generic.AbsenceID]generic.Absence
	idempotency  map[string]bool
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		employees:    make(map[generic.EmployeeID]generic.Employee, len(tm.employees)),
		baseSalaries: make(map[generic.EmployeeID][]generic.BaseSalary, len(tm.baseSalaries)),
		events:       make(map[generic.EmployeeID][]generic.SalaryEvent, len(tm.events)),
		absences:     make(map[generic.AbsenceID]generic.Absence, len(tm.absences)),
		idempotency:  make(map[string]bool, len(tm.idempotency)),
	}
	for k, v := range tm.employees {
		s.employees[k] = v
	}
	for k, v := range tm.baseSalaries {
		s.baseSalaries[k] = append([]generic.BaseSalary{}, v...)
	}
	for k, v := range tm.events {
		s.events[k] = append([]generic.SalaryEvent{}, v...)
	}
	for k, v := range tm.absences {
		s.absences[k] = v
	}
	for k, v := range tm.idempotency {
		s.idempotency[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.employees = s.employees
	tm.baseSalaries = s.baseSalaries
	tm.events = s.events
	tm.absences = s.absences
	tm.idempotency = s.idempotency
}

// txMemoryView runs against the parent's maps while the parent lock is held.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) SaveEmployee(_ context.Context, emp generic.Employee) error {
	tv.parent.employees[emp.ID] = emp
	return nil
}

func (tv *txMemoryView) GetEmployee(_ context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	emp, ok := tv.parent.employees[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "employee", ID: string(id)}
	}
	return &emp, nil
}

func (tv *txMemoryView) ListEmployees(_ context.Context) ([]generic.Employee, error) {
	result := make([]generic.Employee, 0, len(tv.parent.employees))
	for _, emp := range tv.parent.employees {
		result = append(result, emp)
	}
	return result, nil
}

func (tv *txMemoryView) CreateBaseSalary(_ context.Context, salary generic.BaseSalary) error {
	return tv.parent.createBaseSalaryLocked(salary)
}

func (tv *txMemoryView) ActiveBaseSalary(_ context.Context, employeeID generic.EmployeeID) (*generic.BaseSalary, error) {
	return tv.parent.activeBaseSalaryLocked(employeeID)
}

func (tv *txMemoryView) BaseSalaryForDate(_ context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.BaseSalary, error) {
	return tv.parent.baseSalaryForDateLocked(employeeID, date)
}

func (tv *txMemoryView) CloseBaseSalary(_ context.Context, id generic.BaseSalaryID, end generic.TimePoint) error {
	return tv.parent.closeBaseSalaryLocked(id, end)
}

func (tv *txMemoryView) ListBaseSalaries(_ context.Context, employeeID generic.EmployeeID) ([]generic.BaseSalary, error) {
	return append([]generic.BaseSalary{}, tv.parent.baseSalaries[employeeID]...), nil
}

func (tv *txMemoryView) CreateSalaryEvent(_ context.Context, event generic.SalaryEvent) error {
	return tv.parent.createSalaryEventLocked(event)
}

func (tv *txMemoryView) ListSalaryEvents(_ context.Context, employeeID generic.EmployeeID, filter generic.SalaryEventFilter) ([]generic.SalaryEvent, error) {
	var result []generic.SalaryEvent
	for _, e := range tv.parent.events[employeeID] {
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if filter.Period != nil && !e.AffectsPeriod(*filter.Period) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (tv *txMemoryView) SaveAbsence(_ context.Context, a generic.Absence) error {
	tv.parent.absences[a.ID] = a
	return nil
}

func (tv *txMemoryView) GetAbsence(_ context.Context, id generic.AbsenceID) (*generic.Absence, error) {
	a, ok := tv.parent.absences[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "absence", ID: string(id)}
	}
	return &a, nil
}

func (tv *txMemoryView) ListAbsences(_ context.Context, employeeID generic.EmployeeID, period *generic.Period) ([]generic.Absence, error) {
	var result []generic.Absence
	for _, a := range tv.parent.absences {
		if a.EmployeeID == employeeID && (period == nil || period.Contains(a.Date)) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (tv *txMemoryView) DeleteAbsence(_ context.Context, id generic.AbsenceID) error {
	if _, ok := tv.parent.absences[id]; !ok {
		return &generic.NotFoundError{Kind: "absence", ID: string(id)}
	}
	delete(tv.parent.absences, id)
	return nil
}
