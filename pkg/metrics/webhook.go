package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for processed webhook events.
const (
	OutcomeApplied   = "applied"
	OutcomeNoop      = "noop"
	OutcomeDuplicate = "duplicate"
	OutcomeInFlight  = "in_flight"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// WebhookMetrics records how inbound payment events were handled.
type WebhookMetrics struct {
	events        *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	notifications *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on reg. A nil registerer
// yields a recorder that drops every observation.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Payment webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_event_duration_seconds",
		Help:    "Time spent reconciling a payment webhook event.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_notification_failures_total",
		Help: "Best-effort notification emails that failed to send.",
	}, []string{"kind"})
	reg.MustRegister(events, duration, notifications)
	return &WebhookMetrics{
		events:        events,
		duration:      duration,
		notifications: notifications,
	}
}

func (m *WebhookMetrics) ObserveEvent(eventType, outcome string, elapsed time.Duration) {
	if m == nil || m.events == nil {
		return
	}
	eventType = normalizeLabel(eventType)
	m.events.WithLabelValues(eventType, normalizeLabel(outcome)).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(eventType).Observe(elapsed.Seconds())
	}
}

func (m *WebhookMetrics) IncNotificationFailure(kind string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
