package llm

import "github.com/prometheus/client_golang/prometheus"

var (
	// retriesTotal counts individual backoff-and-retry cycles by stage and
	// error classification.
	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_retries_total",
			Help: "Total number of model-call retries, by stage and classification.",
		},
		[]string{"stage", "classification"},
	)

	// retriesExhausted counts calls that gave up after the budget ran out.
	retriesExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_retries_exhausted_total",
			Help: "Total number of model calls abandoned after exhausting their retry budget.",
		},
		[]string{"stage", "classification"},
	)
)

func init() {
	prometheus.MustRegister(retriesTotal, retriesExhausted)
}
