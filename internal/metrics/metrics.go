package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "supportdesk"

var (
	// Inbound messages by final outcome: auto_sent, enqueued, duplicate, failed.
	InboundProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_processed_total",
			Help:      "Inbound messages processed, by outcome",
		},
		[]string{"source", "outcome"},
	)

	// Route decisions by route and reason.
	RouteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_decisions_total",
			Help:      "Draft routing decisions, by route and reason",
		},
		[]string{"route", "reason"},
	)

	ReviewActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_actions_total",
			Help:      "Reviewer actions, by action and result",
		},
		[]string{"action", "result"},
	)

	// LLM latency in seconds.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "LLM completion latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9), // 250ms to ~64s
		},
		[]string{"provider", "operation", "status"},
	)

	CommerceLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commerce_lookups_total",
			Help:      "Store lookups, by kind and whether a record was found",
		},
		[]string{"kind", "result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"method", "route", "status"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func RecordInbound(source, outcome string) {
	InboundProcessed.WithLabelValues(source, outcome).Inc()
}

func RecordRoute(route, reason string) {
	RouteDecisions.WithLabelValues(route, reason).Inc()
}

func RecordReviewAction(action string, err error) {
	ReviewActions.WithLabelValues(action, status(err)).Inc()
}

func RecordLLMCall(provider, operation string, duration time.Duration, err error) {
	LLMCallDuration.WithLabelValues(provider, operation, status(err)).Observe(duration.Seconds())
}

// RecordLookup counts a commerce lookup; found is false for misses and swallowed errors.
func RecordLookup(kind string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	CommerceLookups.WithLabelValues(kind, result).Inc()
}

func RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, statusText(statusCode)).Observe(duration.Seconds())
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
