package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IANDYI/eldercare-service/internal/config"
	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// RabbitMQPublisher relays real-time events to every API replica through a
// fanout exchange. Emit never blocks: events wait in a bounded outbox and a
// single goroutine publishes them. A full outbox drops the event.
type RabbitMQPublisher struct {
	url           string
	exchange      string
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	connMutex     sync.RWMutex
	cb            *gobreaker.CircuitBreaker
	maxRetries    int
	retryDelay    time.Duration
	outbox        chan []byte
	reconnectCh   chan bool
	stopReconnect chan bool
	stop          chan struct{}
	closeOnce     sync.Once
	logger        *zap.Logger

	// publish is swapped in tests
	publish func(ctx context.Context, body []byte) error
}

var _ ports.EventEmitter = (*RabbitMQPublisher)(nil)

// NewRabbitMQPublisher connects to RabbitMQ, declares the exchange and starts publishing
func NewRabbitMQPublisher(cfg config.BrokerConfig, settings gobreaker.Settings, logger *zap.Logger) (*RabbitMQPublisher, error) {
	p := newRabbitMQPublisher(cfg, settings, logger)
	if err := p.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go p.handleReconnection()
	go p.run()

	return p, nil
}

func newRabbitMQPublisher(cfg config.BrokerConfig, settings gobreaker.Settings, logger *zap.Logger) *RabbitMQPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 256
	}
	settings.Name = "rabbitmq-publisher"

	p := &RabbitMQPublisher{
		url:           cfg.RabbitMQURL,
		exchange:      cfg.Exchange,
		cb:            gobreaker.NewCircuitBreaker(settings),
		maxRetries:    3,
		retryDelay:    1 * time.Second,
		outbox:        make(chan []byte, size),
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
		stop:          make(chan struct{}),
		logger:        logger.With(zap.String("component", "rabbitmq_publisher")),
	}
	p.publish = p.publishWithRetry
	return p
}

// connect establishes connection to RabbitMQ and declares the fanout exchange
func (p *RabbitMQPublisher) connect() error {
	var conn *amqp091.Connection
	var err error
	for i := 0; i < p.maxRetries; i++ {
		conn, err = amqp091.Dial(p.url)
		if err == nil {
			break
		}
		p.logger.Warn("failed to connect to RabbitMQ",
			zap.Int("attempt", i+1), zap.Int("max_attempts", p.maxRetries), zap.Error(err))
		if i < p.maxRetries-1 {
			time.Sleep(p.retryDelay)
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

	if err := declareExchange(ch, p.exchange); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	p.connMutex.Lock()
	p.conn = conn
	p.channel = ch
	p.connMutex.Unlock()

	p.logger.Info("connected to RabbitMQ", zap.String("exchange", p.exchange))
	return nil
}

// declareExchange is idempotent
func declareExchange(ch *amqp091.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (p *RabbitMQPublisher) handleReconnection() {
	for {
		select {
		case <-p.reconnectCh:
			p.logger.Info("attempting to reconnect to RabbitMQ")
			p.connMutex.Lock()
			if p.channel != nil {
				p.channel.Close()
			}
			if p.conn != nil {
				p.conn.Close()
			}
			p.connMutex.Unlock()

			if err := p.connect(); err != nil {
				p.logger.Error("reconnection failed", zap.Error(err))
			}
		case <-p.stopReconnect:
			return
		}
	}
}

// Emit queues the event for publishing
func (p *RabbitMQPublisher) Emit(_ context.Context, recipientUserID int64, event domain.Event) {
	body, err := encodeEnvelope(recipientUserID, event)
	if err != nil {
		BrokerEventsPublishedTotal.WithLabelValues("invalid").Inc()
		p.logger.Warn("dropping event that cannot be encoded", zap.String("event", event.Name), zap.Error(err))
		return
	}

	select {
	case p.outbox <- body:
	default:
		BrokerEventsPublishedTotal.WithLabelValues("dropped").Inc()
		p.logger.Warn("event outbox full, dropping event",
			zap.String("event", event.Name), zap.Int64("recipient_user_id", recipientUserID))
	}
}

// run publishes queued events until Close
func (p *RabbitMQPublisher) run() {
	for {
		select {
		case <-p.stop:
			return
		case body := <-p.outbox:
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			_, err := p.cb.Execute(func() (interface{}, error) {
				return nil, p.publish(ctx, body)
			})
			cancel()
			if err != nil {
				BrokerEventsPublishedTotal.WithLabelValues("failed").Inc()
				p.logger.Warn("failed to publish event", zap.Error(err))
				continue
			}
			BrokerEventsPublishedTotal.WithLabelValues("published").Inc()
		}
	}
}

// publishWithRetry publishes one envelope as a transient message
func (p *RabbitMQPublisher) publishWithRetry(ctx context.Context, body []byte) error {
	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		p.connMutex.RLock()
		ch := p.channel
		conn := p.conn
		p.connMutex.RUnlock()

		if ch == nil || conn == nil || conn.IsClosed() {
			p.requestReconnect()
			lastErr = fmt.Errorf("RabbitMQ connection is closed")
			if !p.wait(ctx) {
				break
			}
			continue
		}

		err := ch.PublishWithContext(
			ctx,
			p.exchange, // exchange
			"",         // routing key, ignored by fanout
			false,      // mandatory
			false,      // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp091.Transient,
				Timestamp:    time.Now(),
			},
		)
		if err == nil {
			return nil
		}

		lastErr = err
		p.logger.Warn("failed to publish event",
			zap.Int("attempt", i+1), zap.Int("max_attempts", p.maxRetries), zap.Error(err))
		if i < p.maxRetries-1 {
			p.requestReconnect()
			if !p.wait(ctx) {
				break
			}
		}
	}

	return fmt.Errorf("failed to publish event after %d retries: %w", p.maxRetries, lastErr)
}

func (p *RabbitMQPublisher) requestReconnect() {
	select {
	case p.reconnectCh <- true:
	default:
	}
}

// wait sleeps retryDelay, false when ctx ends first
func (p *RabbitMQPublisher) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(p.retryDelay):
		return true
	}
}

// Close stops publishing and closes the RabbitMQ connection.
// Events still queued are discarded.
func (p *RabbitMQPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.stop)
		close(p.stopReconnect)

		p.connMutex.Lock()
		defer p.connMutex.Unlock()
		if p.channel != nil {
			p.channel.Close()
		}
		if p.conn != nil {
			err = p.conn.Close()
		}
	})
	return err
}
