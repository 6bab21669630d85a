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

	// InboundMessagesTotal counts chat messages by transport.
	InboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_messages_total",
			Help: "Total inbound chat messages",
		},
		[]string{"transport"},
	)

	// DispatchDuration tracks time spent producing a reply.
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Time to turn one inbound message into a reply",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"command"},
	)

	// ReservationsTotal counts create attempts by outcome (created, conflict).
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_total",
			Help: "Reservation create attempts",
		},
		[]string{"outcome"},
	)

	// CancellationsTotal counts cancel attempts by outcome (cancelled, not_found).
	CancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cancellations_total",
			Help: "Reservation cancel attempts",
		},
		[]string{"outcome"},
	)

	// ReservationsStored tracks the number of reservations held in memory.
	ReservationsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservations_stored",
			Help: "Reservations currently held by the store",
		},
	)

	// SessionStepsTotal counts session transitions by source step and reply kind.
	SessionStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_steps_total",
			Help: "Conversation steps processed",
		},
		[]string{"step", "reply"},
	)

	// SessionsTracked tracks the number of users with a session.
	SessionsTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_tracked",
			Help: "Users with a conversation session",
		},
	)

	// EventsPublishedTotal counts reservation events sent to NATS.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_events_published_total",
			Help: "Reservation events published to JetStream",
		},
		[]string{"type", "status"},
	)

	// LLMClassifyDuration tracks LLM command classification latency.
	LLMClassifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_classify_duration_seconds",
			Help:    "LLM command classification duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"provider", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordDispatch records one inbound message turned into a reply.
func RecordDispatch(transport, command string, duration float64) {
	InboundMessagesTotal.WithLabelValues(transport).Inc()
	DispatchDuration.WithLabelValues(command).Observe(duration)
}
