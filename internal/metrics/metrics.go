package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bank_transfer"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"method", "route"},
	)

	// Исход перевода: successful, blocked_fraud, blocked_policy, rejected, failed
	TransferOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "outcomes_total",
			Help:      "Transfer requests by outcome",
		},
		[]string{"outcome"},
	)

	FraudScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fraud",
			Name:      "probability",
			Help:      "Final anomaly probability of scored transfers",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	FraudScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fraud",
			Name:      "scoring_duration_seconds",
			Help:      "Feature lookup plus scoring latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	FraudScoringErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fraud",
			Name:      "scoring_errors_total",
			Help:      "Scoring failures absorbed as non-anomalous",
		},
		[]string{"stage"},
	)

	FraudBypassed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fraud",
			Name:      "bypassed_total",
			Help:      "Transfers that skipped scoring after PIN re-authentication",
		},
	)

	FeatureUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "updates_total",
			Help:      "Feature recomputations by entity and result",
		},
		[]string{"entity", "result"},
	)

	FeatureQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "queue_dropped_total",
			Help:      "Feature update jobs dropped because the queue was full",
		},
	)

	FeatureCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "cache_lookups_total",
			Help:      "Feature cache lookups by result",
		},
		[]string{"result"},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "dropped_total",
			Help:      "Transfer events not delivered: queue full or producer error",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware учитывает запросы по шаблону маршрута chi, а не по сырому пути
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
