// Package amqp publishes and consumes record change events over RabbitMQ.
package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/log"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *log.Logger
}

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

// setup declares a durable direct exchange and queue, bound with the queue
// name as routing key. Declarations are idempotent so publisher and worker
// can both run it.
func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(c.queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishRecordEvent sends one change event as a persistent message.
func (c *Client) PublishRecordEvent(ctx context.Context, ev *RecordEvent) error {
	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	c.logger.InfoContext(ctx, "published record event",
		log.FieldRecordKind, ev.Kind,
		log.FieldOperation, ev.Op,
		log.FieldRecordID, ev.ID,
		log.FieldUserID, ev.UserID)

	return nil
}

// ConsumeRecordEvents delivers events to handler until ctx is cancelled.
// Undecodable messages are dropped; handler errors requeue the delivery.
func (c *Client) ConsumeRecordEvents(ctx context.Context, handler func(*RecordEvent) error) error {
	msgs, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "consuming record events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "stopping consumer", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			ev, err := RecordEventFromJSON(delivery.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "undecodable event", log.FieldError, err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ev); err != nil {
				c.logger.ErrorContext(ctx, "event handler failed",
					log.FieldError, err,
					log.FieldRecordKind, ev.Kind,
					log.FieldRecordID, ev.ID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
