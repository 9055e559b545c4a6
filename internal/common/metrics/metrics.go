// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notification rows persisted",
		},
		[]string{"type"},
	)

	NotificationsDeduplicated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_deduplicated_total",
			Help: "Total number of recipients skipped by the duplicate guard",
		},
		[]string{"type"},
	)

	DeliveriesAttempted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_attempted_total",
			Help: "Total number of channel delivery attempts",
		},
		[]string{"channel"},
	)

	DeliveriesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_failed_total",
			Help: "Total number of failed channel delivery attempts",
		},
		[]string{"channel"},
	)

	SendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_send_duration_seconds",
			Help: "Duration of sendNotification invocations in seconds",
		},
		[]string{"type"},
	)

	ExpiredCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_expired_cleaned_total",
			Help: "Total number of expired notification rows deleted",
		},
	)
)
