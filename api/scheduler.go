/*
scheduler.go - Periodic payroll readiness check

PURPOSE:
  Runs the batch payroll computation in the background so problems show up
  before payday rather than on it: employees without a base salary and
  payslips with a negative net are logged and kept in the last run summary.
  Nothing is written; the check only reads.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - Keeps the latest RunSummary for GET /api/payrolls/check

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := api.NewPayrollScheduler(handler)
  scheduler.Start(ctx)
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: CalculateAll (same computation, on demand)
  - payroll/service.go: ComputeAll
*/
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/generic"
)

// RunSummary is the outcome of one readiness check.
type RunSummary struct {
	RanAt         time.Time            `json:"ran_at"`
	PeriodKey     int                  `json:"period_key"`
	Computed      int                  `json:"computed"`
	MissingSalary []generic.EmployeeID `json:"missing_salary"`
	NegativeNet   []generic.EmployeeID `json:"negative_net"`
	Failed        []generic.EmployeeID `json:"failed"`
}

// PayrollScheduler periodically checks that the current period computes.
type PayrollScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	last   *RunSummary
}

// NewPayrollScheduler creates a new scheduler.
func NewPayrollScheduler(h *Handler) *PayrollScheduler {
	return &PayrollScheduler{
		Handler:       h,
		CheckInterval: time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler. It stops when ctx is cancelled or Stop is called.
func (ps *PayrollScheduler) Start(ctx context.Context) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	log := ps.Handler.Log.WithField("component", "scheduler")
	if !ps.Enabled || ps.cancel != nil {
		log.Info("payroll check disabled or already running")
		return
	}

	ctx, ps.cancel = context.WithCancel(ctx)
	ps.wg.Add(1)
	go ps.run(ctx)

	log.WithField("interval", ps.CheckInterval.String()).Info("payroll check started")
}

// Stop halts the scheduler and waits for an in-flight check.
func (ps *PayrollScheduler) Stop() {
	ps.mu.Lock()
	cancel := ps.cancel
	ps.cancel = nil
	ps.mu.Unlock()

	if cancel != nil {
		cancel()
		ps.wg.Wait()
	}
}

func (ps *PayrollScheduler) run(ctx context.Context) {
	defer ps.wg.Done()

	ticker := time.NewTicker(ps.CheckInterval)
	defer ticker.Stop()

	ps.RunNow(ctx)
	for {
		select {
		case <-ticker.C:
			ps.RunNow(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunNow runs one check and stores its summary.
func (ps *PayrollScheduler) RunNow(ctx context.Context) (RunSummary, error) {
	h := ps.Handler
	now := h.now()
	log := h.Log.WithField("component", "scheduler")

	results, err := h.Payroll.ComputeAll(ctx, now)
	if err != nil {
		log.WithError(err).Error("payroll check failed")
		return RunSummary{}, err
	}

	summary := RunSummary{
		RanAt:     now,
		PeriodKey: generic.PeriodForInstant(now).Key(),
	}
	for _, res := range results {
		switch {
		case res.Err == nil && res.Breakdown.IsNegative():
			summary.Computed++
			summary.NegativeNet = append(summary.NegativeNet, res.Employee.ID)
		case res.Err == nil:
			summary.Computed++
		case generic.IsNotFound(res.Err):
			summary.MissingSalary = append(summary.MissingSalary, res.Employee.ID)
		default:
			summary.Failed = append(summary.Failed, res.Employee.ID)
		}
	}

	ps.mu.Lock()
	ps.last = &summary
	ps.mu.Unlock()

	entry := log.WithFields(logrus.Fields{
		"period":         summary.PeriodKey,
		"computed":       summary.Computed,
		"missing_salary": len(summary.MissingSalary),
		"negative_net":   len(summary.NegativeNet),
		"failed":         len(summary.Failed),
	})
	if len(summary.MissingSalary)+len(summary.NegativeNet)+len(summary.Failed) > 0 {
		entry.Warn("payroll check found problems")
	} else {
		entry.Info("payroll check completed")
	}
	return summary, nil
}

// Last returns the most recent summary, or nil before the first run.
func (ps *PayrollScheduler) Last() *RunSummary {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.last
}

// GetLastCheck serves the most recent summary.
// GET /api/payrolls/check
func (ps *PayrollScheduler) GetLastCheck(w http.ResponseWriter, r *http.Request) {
	last := ps.Last()
	if last == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "No payroll check has run yet", nil)
		return
	}
	writeJSON(w, http.StatusOK, last)
}
