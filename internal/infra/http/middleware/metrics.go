package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	leadsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_leads_rejected_total",
			Help: "Leads filtered out before execution, by reason",
		},
		[]string{"reason"},
	)

	platformOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_platform_operations_total",
			Help: "Platform API operations by type and status",
		},
		[]string{"operation", "status"},
	)

	trackersProvisioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_trackers_provisioned_total",
			Help: "Tracker spreadsheets provisioned, by status",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onboarding_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordRejection(reason string) {
	leadsRejected.WithLabelValues(reason).Inc()
}

func RecordPlatformOperation(operation, status string) {
	platformOperations.WithLabelValues(operation, status).Inc()
}

func RecordTracker(status string) {
	trackersProvisioned.WithLabelValues(status).Inc()
}

func ObserveRunDuration(seconds float64) {
	runDuration.Observe(seconds)
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
