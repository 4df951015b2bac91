package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopify_app"

var (
	// Registry holds the application collectors
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"route", "method"},
	)

	adminAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin_api",
			Name:      "calls_total",
			Help:      "Total number of Admin GraphQL API calls.",
		},
		[]string{"operation", "kind", "outcome"},
	)

	adminAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "admin_api",
			Name:      "call_duration_seconds",
			Help:      "Duration of Admin GraphQL API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
		},
		[]string{"kind"},
	)

	webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhooks",
			Name:      "received_total",
			Help:      "Total number of webhook deliveries by topic and result.",
		},
		[]string{"topic", "result"},
	)
)

// Outcome labels for admin API calls
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Fixed webhook labels for deliveries whose topic header is not trusted or not registered
const (
	TopicUnverified        = "unverified"
	TopicUnhandled         = "unhandled"
	ResultInvalidSignature = "invalid_signature"
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		adminAPICalls,
		adminAPIDuration,
		webhooks,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// RecordAdminCall records one Admin GraphQL API call
func RecordAdminCall(operation, kind, outcome string, duration time.Duration) {
	if operation == "" {
		operation = "anonymous"
	}
	adminAPICalls.WithLabelValues(operation, kind, outcome).Inc()
	adminAPIDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordWebhook records a webhook delivery
func RecordWebhook(topic, result string) {
	webhooks.WithLabelValues(topic, result).Inc()
}
