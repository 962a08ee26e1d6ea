package absence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payroll",
		Subsystem: "absence",
		Name:      "recorded_total",
		Help:      "Total number of absences and permissions recorded, by type.",
	}, []string{"type"})

	lockedRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payroll",
		Subsystem: "absence",
		Name:      "locked_rejections_total",
		Help:      "Total number of changes rejected because the absence was locked.",
	}, []string{"operation"})
)
