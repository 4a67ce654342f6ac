package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebSocketConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of WebSocket connections",
		},
		[]string{"role"},
	)

	EventsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Total number of real-time events handled by the hub",
		},
		[]string{"status"},
	)

	RoomMembers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_room_members",
			Help: "Current number of room memberships across all clients",
		},
	)
)

// RegisterMetrics registers all hub metrics
func RegisterMetrics() {
	prometheus.MustRegister(WebSocketConnections)
	prometheus.MustRegister(EventsEmittedTotal)
	prometheus.MustRegister(RoomMembers)
}
