package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch metrics
var (
	// EventsHandled tracks events processed by the dispatch loop, by kind.
	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertbot_events_handled_total",
			Help: "Total events handled by kind",
		},
		[]string{"kind"},
	)

	// EventPanics tracks events whose handling panicked and was recovered.
	EventPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alertbot_event_panics_total",
			Help: "Total recovered panics while handling an event",
		},
	)

	PolicyDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertbot_policy_denials_total",
			Help: "Total rule invocations rejected by policy, by reason",
		},
		[]string{"reason"},
	)

	// EffectsEmitted tracks outbound effects by type (chat, overlay, persist).
	EffectsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertbot_effects_emitted_total",
			Help: "Total outbound effects by type",
		},
		[]string{"type"},
	)
)

// Collaborator metrics
var (
	ChatSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alertbot_chat_send_failures_total",
			Help: "Total chat messages that could not be queued or sent",
		},
	)

	// PersistWrites tracks persistence jobs by status (ok, error, dropped).
	PersistWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertbot_persist_writes_total",
			Help: "Total persistence writes by status",
		},
		[]string{"status"},
	)

	OverlayClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alertbot_overlay_clients_current",
			Help: "Current connected overlay clients",
		},
	)

	// WebhookNotifications tracks EventSub deliveries by subscription type and status.
	WebhookNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertbot_webhook_notifications_total",
			Help: "Total EventSub webhook deliveries by type and status",
		},
		[]string{"type", "status"},
	)
)
