package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics are the pipeline counters exposed next to /api/health: one
// counter per job outcome plus a gauge tracking jobs currently running,
// all under a dedicated registry so a test building multiple Servers in
// one process doesn't panic on a duplicate default-registry registration.
type metrics struct {
	jobsEnqueued  prometheus.Counter
	jobsCompleted prometheus.Counter
	jobsFailed    prometheus.Counter
	jobsRunning   prometheus.Gauge
	registry      *prometheus.Registry
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metrics{
		jobsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "zerorepo_jobs_enqueued_total",
			Help: "Generate requests accepted by the job facade.",
		}),
		jobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "zerorepo_jobs_completed_total",
			Help: "Pipeline runs that finished with success=true.",
		}),
		jobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "zerorepo_jobs_failed_total",
			Help: "Pipeline runs that errored or finished with success=false.",
		}),
		jobsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "zerorepo_jobs_running",
			Help: "Pipeline runs currently executing.",
		}),
		registry: reg,
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
