package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finstress/internal/core"
)

// Client publishes and consumes recommendation requests. Publishing goes
// through a circuit breaker and reconnects after connection errors.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu          sync.Mutex
	conn        *amqp091.Connection
	channel     *amqp091.Channel
	lastFailure time.Time

	state        int32
	failureCount int64
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{url: url, exchangeName: exchangeName, queueName: queueName}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

// reconnect retries connect with exponential backoff until it succeeds, ctx
// ends, or attempts run out.
func (c *Client) reconnect(ctx context.Context, attempts int) error {
	c.closeConn()
	var err error
	for i := 0; i < attempts; i++ {
		if err = c.connect(); err == nil {
			slog.InfoContext(ctx, "Reconnected to AMQP", "attempt", i+1)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(exponentialBackoff(i)):
		}
	}
	return fmt.Errorf("reconnect after %d attempts: %w", attempts, err)
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key is the queue name on the direct exchange
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishRecommendationRequest enqueues a recommendation job for snapshotID.
func (c *Client) PublishRecommendationRequest(ctx context.Context, snapshotID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", snapshotID, errCircuitOpen)
	}

	body, err := NewRecommendationRequest(snapshotID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		c.recordFailure()
		return errors.New("publish message: channel/connection is not open")
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(pctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			go func() {
				if rerr := c.reconnect(context.Background(), 5); rerr != nil {
					slog.Error("AMQP reconnect failed", "error", rerr)
				}
			}()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published recommendation request",
		"snapshot_id", snapshotID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// ConsumeRecommendationRequests delivers each request to handler until ctx
// is cancelled. Settlement follows deliveryAction.
func (c *Client) ConsumeRecommendationRequests(ctx context.Context, prefetch int, handler func(context.Context, *RecommendationRequest) error) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return errors.New("consume: channel/connection is not open")
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming recommendation requests", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			settle(ctx, delivery, handler)
		}
	}
}

func settle(ctx context.Context, d amqp091.Delivery, handler func(context.Context, *RecommendationRequest) error) {
	msg, err := RecommendationRequestFromJSON(d.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	herr := handler(ctx, msg)
	switch deliveryAction(herr, d.Redelivered) {
	case ack:
		_ = d.Ack(false)
		slog.InfoContext(ctx, "Processed recommendation request", "snapshot_id", msg.SnapshotID)
	case requeue:
		slog.WarnContext(ctx, "Requeueing recommendation request", "snapshot_id", msg.SnapshotID, "error", herr)
		_ = d.Nack(false, true)
	case drop:
		slog.ErrorContext(ctx, "Dropping recommendation request", "snapshot_id", msg.SnapshotID, "error", herr)
		_ = d.Nack(false, false)
	}
}

type action int

const (
	ack action = iota
	requeue
	drop
)

// deliveryAction decides how to settle a delivery. Failures that cannot
// succeed on retry are dropped. Others are requeued once; a redelivered
// message that fails again is dropped and left to the periodic sweep.
func deliveryAction(err error, redelivered bool) action {
	switch {
	case err == nil:
		return ack
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrDivisionUndefined):
		return drop
	case redelivered:
		return drop
	default:
		return requeue
	}
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.closeConn()
	return nil
}
