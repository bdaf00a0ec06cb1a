package audit

import (
	"github.com/prometheus/client_golang/prometheus"
)

var auditsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audits_total",
		Help: "Completed audit pipeline runs by terminal status.",
	},
	[]string{"status"},
)

var auditStageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "audit_stage_duration_seconds",
		Help:    "Wall clock duration of each audit pipeline stage.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	},
	[]string{"stage"},
)

func init() {
	prometheus.MustRegister(auditsTotal, auditStageDuration)
}
