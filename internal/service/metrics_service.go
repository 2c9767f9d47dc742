package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// expiry sweep.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	sweepRuns       prometheus.Counter
	sweepArchived   prometheus.Counter
	entriesByState  *prometheus.GaugeVec
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	sweepRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kos_sweep_runs_total",
		Help: "Total expiry sweep executions",
	})

	sweepArchived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kos_sweep_archived_total",
		Help: "Total entries archived by the expiry sweep",
	})

	entriesByState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kos_entries",
		Help: "Current KOS entry counts by lifecycle state",
	}, []string{"state"})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		sweepRuns,
		sweepArchived,
		entriesByState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		sweepRuns:       sweepRuns,
		sweepArchived:   sweepArchived,
		entriesByState:  entriesByState,
	}
}

// Handler exposes the scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveSweep records one sweep run.
func (s *MetricsService) ObserveSweep(archived int) {
	s.sweepRuns.Inc()
	s.sweepArchived.Add(float64(archived))
}

// SetEntryGauges publishes the current lifecycle counts.
func (s *MetricsService) SetEntryGauges(active, archived int) {
	s.entriesByState.WithLabelValues("active").Set(float64(active))
	s.entriesByState.WithLabelValues("archived").Set(float64(archived))
}
