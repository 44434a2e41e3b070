package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// EventingMetrics tracks outbox publishing and webhook processing outcomes.
type EventingMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	webhooks  *prometheus.CounterVec
}

// NewEventingMetrics registers the eventing counters on the provided registerer.
func NewEventingMetrics(reg prometheus.Registerer) *EventingMetrics {
	if reg == nil {
		return &EventingMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published",
		Help: "Outbox events published to the realtime transport.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed",
		Help: "Outbox publish attempts that failed.",
	}, []string{"event_type"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events",
		Help: "Stripe webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(published, failed, webhooks)
	return &EventingMetrics{
		published: published,
		failed:    failed,
		webhooks:  webhooks,
	}
}

// IncPublished increments the published counter for the event type.
func (m *EventingMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed increments the failure counter for the event type.
func (m *EventingMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncWebhook records a webhook processing outcome.
func (m *EventingMetrics) IncWebhook(eventType, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return strings.ReplaceAll(trimmed, " ", "_")
}
