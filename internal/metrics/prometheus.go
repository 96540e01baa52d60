package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusSink registers and serves the same metric families the
// DataDog sink reports, via client_golang/promauto like the teacher's
// middleware package.
type PrometheusSink struct {
	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec
	cacheResults    *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	writerSlotHeld  prometheus.Gauge
	gitOperations   *prometheus.CounterVec
}

// NewPrometheusSink registers all collectors against reg. Pass
// prometheus.NewRegistry() for isolated tests, or
// prometheus.DefaultRegisterer for the process-wide registry.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hoganserver_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		requestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hoganserver_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		cacheResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hoganserver_cache_results_total",
			Help: "Cache lookups by tier and outcome (hit, miss, promote)",
		}, []string{"tier", "outcome"}),
		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hoganserver_render_duration_seconds",
			Help:    "Template render duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"environment"}),
		writerSlotHeld: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hoganserver_writer_slot_held",
			Help: "1 if the single writer slot is currently held, else 0",
		}),
		gitOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hoganserver_git_operations_total",
			Help: "Git coordinator operations by kind and outcome",
		}, []string{"op", "outcome"}),
	}
}

// Handler returns the /metrics scrape endpoint.
func (s *PrometheusSink) Handler() http.Handler { return promhttp.Handler() }

func (s *PrometheusSink) IncRequest(route, method, status string) {
	s.requestCount.WithLabelValues(route, method, status).Inc()
}

func (s *PrometheusSink) ObserveRequestDuration(route, method, status string, d time.Duration) {
	s.requestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

func (s *PrometheusSink) IncCacheResult(tier, outcome string) {
	s.cacheResults.WithLabelValues(tier, outcome).Inc()
}

func (s *PrometheusSink) ObserveRenderDuration(env string, d time.Duration) {
	s.renderDuration.WithLabelValues(env).Observe(d.Seconds())
}

func (s *PrometheusSink) SetWriterSlotHeld(held bool) {
	if held {
		s.writerSlotHeld.Set(1)
		return
	}
	s.writerSlotHeld.Set(0)
}

func (s *PrometheusSink) IncGitOperation(op, outcome string) {
	s.gitOperations.WithLabelValues(op, outcome).Inc()
}
