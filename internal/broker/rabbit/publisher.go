// Package rabbit publishes order events to a durable RabbitMQ queue.
//
// The broker holds a transient, non-authoritative copy of an order's creation
// payload: the relational store remains the single source of truth and a lost
// message is not data loss.
package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// Config holds broker connection settings.
type Config struct {
	URL   string
	Queue string
}

// OrderEvent is the serialized snapshot sent on order creation.
type OrderEvent struct {
	Event string       `json:"event"`
	Order domain.Order `json:"order"`
}

// Publisher owns one connection and one channel, reused across all publishes.
type Publisher struct {
	conn   *amqp.Connection
	queue  string
	logger *zap.Logger

	// amqp channels are not safe for concurrent publish.
	mu sync.Mutex
	ch *amqp.Channel
}

// New dials the broker and declares the durable order queue.
func New(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("broker url is required")
	}
	if cfg.Queue == "" {
		return nil, fmt.Errorf("queue name is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	return &Publisher{
		conn:   conn,
		ch:     ch,
		queue:  cfg.Queue,
		logger: logger,
	}, nil
}

// PublishOrder sends a persistent order-created event to the queue.
func (p *Publisher) PublishOrder(ctx context.Context, o domain.Order) error {
	body, err := json.Marshal(OrderEvent{Event: "order.created", Order: o})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return classify(fmt.Errorf("publish order %s: %w", o.ID, err))
	}
	return nil
}

// QueueStats inspects queue depth via a passive declare.
func (p *Publisher) QueueStats(ctx context.Context) (domain.QueueStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, err := p.ch.QueueDeclarePassive(p.queue, true, false, false, false, nil)
	if err != nil {
		return domain.QueueStats{}, classify(fmt.Errorf("inspect queue %s: %w", p.queue, err))
	}
	return domain.QueueStats{
		MessageCount:  q.Messages,
		ConsumerCount: q.Consumers,
	}, nil
}

// HealthCheck reports broker liveness.
func (p *Publisher) HealthCheck(ctx context.Context) error {
	if p.conn.IsClosed() {
		return domain.ErrBrokerUnavailable
	}
	return nil
}

// Close shuts down the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		p.logger.Warn("close channel", zap.Error(err))
	}
	if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("close broker connection: %w", err)
	}
	return nil
}

// classify maps closed-connection failures to domain.ErrBrokerUnavailable so
// callers can separate an outage from a protocol error.
func classify(err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("%w: %v", domain.ErrBrokerUnavailable, err)
	}
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) && (amqpErr.Code == amqp.ChannelError || amqpErr.Code == amqp.ConnectionForced) {
		return fmt.Errorf("%w: %v", domain.ErrBrokerUnavailable, err)
	}
	return err
}
