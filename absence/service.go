package absence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// SERVICE - Absence lifecycle guarded by the edit window
// =============================================================================

// Store is the persistence the service needs.
type Store interface {
	generic.EmployeeStore
	generic.AbsenceStore
}

type Service struct {
	Store   Store
	Pricing Pricing
	Window  Window
	Clock   generic.Clock
	Log     *logrus.Entry
}

func NewService(store Store, pricing Pricing, window Window, clock generic.Clock, log *logrus.Logger) *Service {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		Store:   store,
		Pricing: pricing,
		Window:  window,
		Clock:   clock,
		Log:     log.WithField("component", "absence"),
	}
}

// CreateInput is what a client may submit. There is no amount: the
// deduction is always priced here.
type CreateInput struct {
	EmployeeID generic.EmployeeID
	Kind       Kind
	Duration   *Duration
	Date       generic.TimePoint
	Reason     string
	Notes      string
}

// UpdateInput replaces the editable fields of an absence.
type UpdateInput struct {
	Kind     Kind
	Duration *Duration
	Date     generic.TimePoint
	Reason   string
	Notes    string
}

// Create prices, describes and stores a new absence.
func (s *Service) Create(ctx context.Context, in CreateInput) (Absence, error) {
	if _, err := s.Store.GetEmployee(ctx, in.EmployeeID); err != nil {
		return Absence{}, err
	}

	now := s.Clock.Now()
	a := Absence{
		ID:         generic.AbsenceID(uuid.NewString()),
		EmployeeID: in.EmployeeID,
		CreatedAt:  now.UTC(),
	}
	if err := s.apply(&a, in.Kind, in.Duration, in.Date, in.Reason, in.Notes); err != nil {
		return Absence{}, err
	}
	a.UpdatedAt = a.CreatedAt

	if err := s.Store.SaveAbsence(ctx, a); err != nil {
		return Absence{}, fmt.Errorf("save absence: %w", err)
	}

	recorded.WithLabelValues(string(a.Kind)).Inc()
	s.logFor(a).WithField("deduction", a.Deduction.String()).Info("absence recorded")
	return a, nil
}

// Update changes an absence. Both its current date and the new date must be
// inside the edit window at now; otherwise a *generic.LockedError is returned.
func (s *Service) Update(ctx context.Context, id generic.AbsenceID, in UpdateInput, now time.Time) (Absence, error) {
	a, err := s.Store.GetAbsence(ctx, id)
	if err != nil {
		return Absence{}, err
	}
	if err := s.Window.Check(*a, now); err != nil {
		lockedRejections.WithLabelValues("update").Inc()
		return Absence{}, err
	}
	if !in.Date.IsZero() && !s.Window.IsEditable(in.Date, now) {
		lockedRejections.WithLabelValues("update").Inc()
		return Absence{}, &generic.LockedError{
			ID:          a.ID,
			EventDate:   in.Date,
			LockedSince: s.Window.LockedSince(in.Date, now.Location()),
		}
	}

	updated := *a
	date := in.Date
	if date.IsZero() {
		date = a.Date
	}
	if err := s.apply(&updated, in.Kind, in.Duration, date, in.Reason, in.Notes); err != nil {
		return Absence{}, err
	}
	updated.UpdatedAt = now.UTC()

	if err := s.Store.SaveAbsence(ctx, updated); err != nil {
		return Absence{}, fmt.Errorf("save absence: %w", err)
	}
	s.logFor(updated).Info("absence updated")
	return updated, nil
}

// Delete removes an absence if it is still inside its edit window.
func (s *Service) Delete(ctx context.Context, id generic.AbsenceID, now time.Time) error {
	a, err := s.Store.GetAbsence(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Window.Check(*a, now); err != nil {
		lockedRejections.WithLabelValues("delete").Inc()
		return err
	}
	if err := s.Store.DeleteAbsence(ctx, id); err != nil {
		return err
	}
	s.logFor(*a).Info("absence deleted")
	return nil
}

// Get returns one absence with its editability at now.
func (s *Service) Get(ctx context.Context, id generic.AbsenceID, now time.Time) (View, error) {
	a, err := s.Store.GetAbsence(ctx, id)
	if err != nil {
		return View{}, err
	}
	return View{Absence: *a, Editable: s.Window.IsEditable(a.Date, now)}, nil
}

// List returns an employee's absences, newest first, each marked editable
// or locked as of now. A nil period lists everything.
func (s *Service) List(ctx context.Context, employeeID generic.EmployeeID, period *generic.Period, now time.Time) ([]View, error) {
	absences, err := s.Store.ListAbsences(ctx, employeeID, period)
	if err != nil {
		return nil, err
	}
	views := make([]View, len(absences))
	for i, a := range absences {
		views[i] = View{Absence: a, Editable: s.Window.IsEditable(a.Date, now)}
	}
	return views, nil
}

// apply validates the user-editable fields and derives deduction and description.
func (s *Service) apply(a *Absence, kind Kind, duration *Duration, date generic.TimePoint, reason, notes string) error {
	if kind != KindPermission && kind != KindAbsence {
		return &generic.ValidationError{Field: "type", Message: "must be PERMISSION or ABSENCE"}
	}
	if date.IsZero() {
		return &generic.ValidationError{Field: "date", Message: "is required"}
	}
	if kind == KindAbsence {
		// An absence is always a full day at the penalty rate.
		duration = nil
	}

	deduction, err := s.Pricing.Price(kind, duration)
	if err != nil {
		return err
	}

	a.Kind = kind
	if duration != nil {
		d := *duration
		a.Duration = &d
	} else {
		a.Duration = nil
	}
	a.Date = date
	a.Reason = strings.TrimSpace(reason)
	a.Notes = strings.TrimSpace(notes)
	a.Deduction = deduction
	a.Description = Describe(kind, duration, a.Reason, a.Notes)
	return nil
}

func (s *Service) logFor(a Absence) *logrus.Entry {
	return s.Log.WithFields(logrus.Fields{
		"absence_id":  a.ID,
		"employee_id": a.EmployeeID,
		"type":        a.Kind,
		"date":        a.Date.String(),
	})
}
