package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dappdir_mutations_total",
		Help: "Record writes by operation (upsert, delete) and result (ok, error)",
	}, []string{"op", "result"})

	degradedReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dappdir_degraded_reads_total",
		Help: "Read paths that absorbed a store error and returned empty or zero results",
	}, []string{"op"})

	revalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dappdir_revalidations_total",
		Help: "Revalidation requests by kind and terminal state",
	}, []string{"kind", "state"})

	httpDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dappdir_http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"route", "method", "status"})
)

func ObserveMutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mutations.WithLabelValues(op, result).Inc()
}

func IncDegradedRead(op string) {
	degradedReads.WithLabelValues(op).Inc()
}

func ObserveRevalidation(kind, state string) {
	revalidations.WithLabelValues(kind, state).Inc()
}

func ObserveHTTP(route, method, status string, d time.Duration) {
	httpDurationMs.WithLabelValues(route, method, status).Observe(float64(d.Microseconds()) / 1000.0)
}
