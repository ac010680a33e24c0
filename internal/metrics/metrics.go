package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notification rows persisted, by channel",
		},
		[]string{"channel"},
	)

	NotificationWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_write_failures_total",
			Help: "Notification rows that failed to persist",
		},
	)

	Publishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_publishes_total",
			Help: "Messages handed to the fan-out bus, by addressing mode",
		},
		[]string{"mode"},
	)

	PublishDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_publish_drops_total",
			Help: "Messages that never reached the fan-out bus, by reason",
		},
		[]string{"reason"},
	)

	Deliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Messages queued onto live connections",
		},
	)

	DeliveryDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_delivery_drops_total",
			Help: "Messages dropped because a connection did not drain in time",
		},
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_ws_connections",
			Help: "Subscribed real-time connections",
		},
	)

	PreferenceLookupErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_preference_lookup_errors_total",
			Help: "Preference lookups that failed open",
		},
	)
)
