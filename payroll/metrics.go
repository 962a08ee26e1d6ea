package payroll

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/payroll-engine/generic"
)

var (
	computations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payroll",
		Subsystem: "engine",
		Name:      "computations_total",
		Help:      "Total number of payroll computations broken down by result.",
	}, []string{"result"})

	negativeNets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "payroll",
		Subsystem: "engine",
		Name:      "negative_net_total",
		Help:      "Total number of payslips computed with a negative net amount.",
	})
)

func recordComputation(b Breakdown, err error) {
	result := "ok"
	switch {
	case errors.Is(err, generic.ErrNoBaseSalary):
		result = "no_base_salary"
	case errors.Is(err, generic.ErrInvalidAmount):
		result = "invalid_amount"
	case err != nil:
		result = "error"
	}
	computations.WithLabelValues(result).Inc()
	if err == nil && b.IsNegative() {
		negativeNets.Inc()
	}
}
