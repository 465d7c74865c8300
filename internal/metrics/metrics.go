package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bastion_sessions_created_total",
			Help: "Total number of protected sessions created",
		},
	)

	StatusChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bastion_status_checks_total",
			Help: "Total number of security status checks by outcome",
		},
		[]string{"outcome"}, // "secure", "breach", "invalid_session", "error"
	)

	ThreatsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bastion_threats_detected_total",
			Help: "Total number of threats detected by detector kind",
		},
		[]string{"kind"},
	)

	BreachActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bastion_breach_actions_total",
			Help: "Total number of breach responses by action taken",
		},
		[]string{"action"}, // "terminate", "degrade", "warning"
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bastion_notification_failures_total",
			Help: "Total number of failed breach notification deliveries",
		},
	)

	CheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bastion_check_duration_seconds",
			Help:    "Duration of full security status checks",
			Buckets: prometheus.DefBuckets,
		},
	)
)
