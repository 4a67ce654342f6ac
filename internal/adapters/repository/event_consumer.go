package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IANDYI/eldercare-service/internal/config"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventConsumer receives the events published by any replica and hands them
// to this replica's hub. Each replica binds its own exclusive queue to the
// fanout exchange, so every replica sees every event.
type EventConsumer struct {
	url            string
	exchange       string
	queuePrefix    string
	queueName      string
	local          ports.EventEmitter
	conn           *amqp091.Connection
	channel        *amqp091.Channel
	connMutex      sync.RWMutex
	reconnectCh    chan bool
	stopReconnect  chan bool
	closeOnce      sync.Once
	maxRetries     int
	retryDelay     time.Duration
	consumingCtx   context.Context
	consumingMutex sync.Mutex
	isConsuming    bool
	logger         *zap.Logger
}

// NewEventConsumer connects to RabbitMQ and binds this replica's queue
func NewEventConsumer(cfg config.BrokerConfig, local ports.EventEmitter, logger *zap.Logger) (*EventConsumer, error) {
	c := newEventConsumer(cfg, local, logger)
	if err := c.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go c.handleReconnection()

	return c, nil
}

func newEventConsumer(cfg config.BrokerConfig, local ports.EventEmitter, logger *zap.Logger) *EventConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventConsumer{
		url:           cfg.RabbitMQURL,
		exchange:      cfg.Exchange,
		queuePrefix:   cfg.QueuePrefix,
		local:         local,
		maxRetries:    3,
		retryDelay:    1 * time.Second,
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
		logger:        logger.With(zap.String("component", "event_consumer")),
	}
}

// connect dials RabbitMQ and declares a fresh exclusive queue bound to the exchange
func (c *EventConsumer) connect() error {
	var conn *amqp091.Connection
	var err error
	for i := 0; i < c.maxRetries; i++ {
		conn, err = amqp091.Dial(c.url)
		if err == nil {
			break
		}
		c.logger.Warn("failed to connect to RabbitMQ",
			zap.Int("attempt", i+1), zap.Int("max_attempts", c.maxRetries), zap.Error(err))
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay)
		}
	}
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := declareExchange(ch, c.exchange); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	q, err := ch.QueueDeclare(
		c.queuePrefix+"."+uuid.NewString(), // name
		false,                              // durable
		true,                               // delete when unused
		true,                               // exclusive
		false,                              // no-wait
		nil,                                // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	if err := ch.QueueBind(q.Name, "", c.exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	c.connMutex.Lock()
	c.conn = conn
	c.channel = ch
	c.queueName = q.Name
	c.connMutex.Unlock()

	c.logger.Info("event consumer connected to RabbitMQ",
		zap.String("exchange", c.exchange), zap.String("queue", q.Name))
	return nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (c *EventConsumer) handleReconnection() {
	for {
		select {
		case <-c.reconnectCh:
			c.logger.Info("attempting to reconnect to RabbitMQ")
			c.connMutex.Lock()
			if c.channel != nil && !c.channel.IsClosed() {
				c.channel.Close()
			}
			if c.conn != nil && !c.conn.IsClosed() {
				c.conn.Close()
			}
			c.connMutex.Unlock()

			if err := c.connect(); err != nil {
				c.logger.Error("reconnection failed", zap.Error(err))
				select {
				case <-time.After(5 * time.Second):
					c.requestReconnect()
				case <-c.stopReconnect:
					return
				}
				continue
			}

			c.consumingMutex.Lock()
			if c.consumingCtx != nil && c.consumingCtx.Err() == nil && !c.isConsuming {
				go c.StartConsuming(c.consumingCtx)
			}
			c.consumingMutex.Unlock()
		case <-c.stopReconnect:
			return
		}
	}
}

func (c *EventConsumer) requestReconnect() {
	select {
	case c.reconnectCh <- true:
	default:
	}
}

// StartConsuming delivers events to the local hub until ctx is cancelled.
// Messages are auto-acked: a lost event is never redelivered.
func (c *EventConsumer) StartConsuming(ctx context.Context) error {
	c.consumingMutex.Lock()
	if c.isConsuming {
		c.consumingMutex.Unlock()
		return nil
	}
	c.isConsuming = true
	c.consumingCtx = ctx
	c.consumingMutex.Unlock()

	stopConsuming := func() {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
	}

	c.connMutex.RLock()
	channel := c.channel
	conn := c.conn
	queue := c.queueName
	c.connMutex.RUnlock()

	if channel == nil || channel.IsClosed() || conn == nil || conn.IsClosed() {
		stopConsuming()
		c.requestReconnect()
		return fmt.Errorf("RabbitMQ connection is closed")
	}

	consumerTag := fmt.Sprintf("event-consumer-%s", uuid.NewString())
	msgs, err := channel.Consume(
		queue,       // queue
		consumerTag, // consumer tag
		true,        // auto-ack
		true,        // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		stopConsuming()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("event consumer started", zap.String("tag", consumerTag), zap.String("queue", queue))

	go func() {
		defer stopConsuming()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("event consumer context cancelled")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("event consumer channel closed, attempting reconnection")
					stopConsuming()
					c.requestReconnect()
					return
				}
				c.processMessage(ctx, msg.Body)
			}
		}
	}()

	return nil
}

// processMessage hands one envelope to the local hub, false when it is malformed
func (c *EventConsumer) processMessage(ctx context.Context, body []byte) bool {
	start := time.Now()
	recipient, event, err := decodeEnvelope(body)
	if err != nil {
		BrokerEventsConsumedTotal.WithLabelValues("invalid").Inc()
		BrokerConsumeDuration.WithLabelValues("invalid").Observe(time.Since(start).Seconds())
		c.logger.Warn("discarding malformed event", zap.Error(err))
		return false
	}

	c.local.Emit(ctx, recipient, event)

	BrokerEventsConsumedTotal.WithLabelValues("delivered").Inc()
	BrokerConsumeDuration.WithLabelValues("delivered").Observe(time.Since(start).Seconds())
	return true
}

// Close closes the RabbitMQ connection; the exclusive queue goes with it
func (c *EventConsumer) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopReconnect)

		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()

		c.connMutex.Lock()
		defer c.connMutex.Unlock()
		if c.channel != nil && !c.channel.IsClosed() {
			if err := c.channel.Close(); err != nil {
				c.logger.Warn("error closing RabbitMQ channel", zap.Error(err))
			}
		}
		if c.conn != nil && !c.conn.IsClosed() {
			if err := c.conn.Close(); err != nil {
				c.logger.Warn("error closing RabbitMQ connection", zap.Error(err))
			}
		}
		c.logger.Info("event consumer closed")
	})
	return nil
}
