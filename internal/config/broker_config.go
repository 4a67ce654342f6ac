package config

import "os"

// BrokerConfig configures the RabbitMQ event relay shared by API replicas
type BrokerConfig struct {
	RabbitMQURL string
	// Exchange is a fanout exchange, every replica binds its own queue
	Exchange string
	// QueuePrefix names the per-replica exclusive queue
	QueuePrefix string
	// BufferSize bounds events waiting to be published
	BufferSize int
}

// Enabled reports whether events should leave the process
func (b BrokerConfig) Enabled() bool {
	return b.RabbitMQURL != ""
}

// LoadBrokerConfig reads the broker settings. There is no default URL:
// without RABBITMQ_URL events stay on the local hub.
func LoadBrokerConfig() BrokerConfig {
	return BrokerConfig{
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		Exchange:    envString("EVENTS_EXCHANGE", "care.events"),
		QueuePrefix: envString("EVENTS_QUEUE_PREFIX", "care.events.replica"),
		BufferSize:  envInt("EVENTS_BUFFER_SIZE", 256),
	}
}
