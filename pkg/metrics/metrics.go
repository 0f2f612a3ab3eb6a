// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal counts completed chat turns by resolved intent.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total chat turns processed",
		},
		[]string{"intent"},
	)

	// TurnDuration tracks end-to-end turn latency, NLU included.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_turn_duration_seconds",
			Help:    "Chat turn processing duration",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// NLURequestsTotal counts classifier calls by provider and outcome.
	NLURequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlu_requests_total",
			Help: "Total NLU classification requests",
		},
		[]string{"provider", "outcome"},
	)

	// NLURequestDuration tracks classifier latency.
	NLURequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlu_request_duration_seconds",
			Help:    "NLU classification duration",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"provider"},
	)

	// ConversationsTotal tracks conversations created, by first owner kind.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
		[]string{"origin"},
	)

	// ConversationUpgradesTotal counts anonymous conversations claimed by an identity.
	ConversationUpgradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_owner_upgrades_total",
			Help: "Anonymous conversations upgraded to an identified owner",
		},
	)

	// MessagesTotal tracks total messages stored.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages stored",
		},
		[]string{"sender"},
	)

	// LoginAttemptsTotal counts login attempts by result.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total login attempts",
		},
		[]string{"result"},
	)

	// TurnEventsPublished counts audit events sent to JetStream.
	TurnEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turn_events_published_total",
			Help: "Turn audit events published",
		},
		[]string{"result"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTurn records a completed turn.
func RecordTurn(intent string, duration float64) {
	TurnsTotal.WithLabelValues(intent).Inc()
	TurnDuration.Observe(duration)
}

// RecordNLU records one classifier call.
func RecordNLU(provider, outcome string, duration float64) {
	NLURequestsTotal.WithLabelValues(provider, outcome).Inc()
	NLURequestDuration.WithLabelValues(provider).Observe(duration)
}
