package repository

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BrokerEventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_events_published_total",
			Help: "Total number of real-time events handed to RabbitMQ",
		},
		[]string{"status"},
	)

	BrokerEventsConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_events_consumed_total",
			Help: "Total number of real-time events consumed from RabbitMQ",
		},
		[]string{"status"},
	)

	BrokerConsumeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rabbitmq_consume_duration_seconds",
			Help:    "Duration of RabbitMQ message consumption",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"status"},
	)
)

// RegisterBrokerMetrics registers the event relay metrics
func RegisterBrokerMetrics() {
	prometheus.MustRegister(BrokerEventsPublishedTotal)
	prometheus.MustRegister(BrokerEventsConsumedTotal)
	prometheus.MustRegister(BrokerConsumeDuration)
}
