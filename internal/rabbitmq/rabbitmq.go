package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iyhunko/product-manager/internal/config"
	"github.com/iyhunko/product-manager/internal/model"
	amqp "github.com/streadway/amqp"
)

// Channel is the subset of *amqp.Channel used by Client.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client publishes and consumes product events on a single durable queue.
type Client struct {
	conn    *amqp.Connection
	channel Channel
	queue   string
}

// NewClient connects to RabbitMQ, opens a channel and declares the events queue.
func NewClient(cfg config.RabbitMQConfig) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	client, err := newClient(ch, cfg.Queue)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	client.conn = conn

	slog.Info("RabbitMQ client connected", slog.String("queue", cfg.Queue))

	return client, nil
}

func newClient(ch Channel, queue string) (*Client, error) {
	if err := declareQueue(ch, queue); err != nil {
		return nil, err
	}
	return &Client{channel: ch, queue: queue}, nil
}

func declareQueue(ch Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishProductEvent publishes the event as a persistent JSON message on the events queue.
func (c *Client) PublishProductEvent(_ context.Context, event model.ProductEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         string(event.Action),
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// Consume delivers events from the queue to handler until ctx is cancelled.
// Messages are acknowledged after the handler succeeds. Handler failures are
// requeued; undecodable messages are dropped.
func (c *Client) Consume(ctx context.Context, handler model.ProductEventHandler) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("Starting RabbitMQ consumer", slog.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping RabbitMQ consumer")
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handleDelivery(ctx, msg, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, msg amqp.Delivery, handler model.ProductEventHandler) {
	var event model.ProductEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		slog.Error("Error decoding message", slog.Uint64("delivery_tag", msg.DeliveryTag), slog.Any("err", err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			slog.Error("Error nacking message", slog.Uint64("delivery_tag", msg.DeliveryTag), slog.Any("err", nackErr))
		}
		return
	}

	if err := handler(ctx, event); err != nil {
		slog.Error("Error processing message", slog.Uint64("delivery_tag", msg.DeliveryTag), slog.Any("err", err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			slog.Error("Error nacking message", slog.Uint64("delivery_tag", msg.DeliveryTag), slog.Any("err", nackErr))
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("Error acking message", slog.Uint64("delivery_tag", msg.DeliveryTag), slog.Any("err", err))
	}
}
