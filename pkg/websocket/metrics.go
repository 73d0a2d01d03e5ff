package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks whether the stream connection is open.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybot_ws_active_connections",
		Help: "Number of active WebSocket connections (0 or 1)",
	})

	// SubscriptionCount tracks the size of the desired subscription set.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybot_ws_subscriptions",
		Help: "Number of asset ids in the desired subscription set",
	})

	// MessagesReceivedTotal tracks inbound events by type.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polybot_ws_messages_received_total",
			Help: "Total number of stream events received",
		},
		[]string{"event_type"},
	)

	// FramesDroppedTotal tracks dropped frames by reason.
	FramesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polybot_ws_frames_dropped_total",
			Help: "Total number of inbound frames dropped",
		},
		[]string{"reason"},
	)

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybot_ws_reconnect_attempts_total",
		Help: "Total number of reconnection attempts",
	})

	// ReconnectFailuresTotal tracks failed reconnection attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybot_ws_reconnect_failures_total",
		Help: "Total number of failed reconnection attempts",
	})
)
