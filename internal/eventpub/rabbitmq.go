// Package eventpub publishes transaction events to RabbitMQ.
package eventpub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ExchangeKind is the type of the exchange events are published to.
const ExchangeKind = "topic"

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQ publishes JSON encoded events to a single exchange.
type RabbitMQ struct {
	channel  Channel
	exchange string
	now      func() time.Time
}

// NewRabbitMQ declares a durable topic exchange on ch and returns a publisher bound to it.
func NewRabbitMQ(ch Channel, exchange string) (*RabbitMQ, error) {
	if err := ch.ExchangeDeclare(exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}

	return &RabbitMQ{
		channel:  ch,
		exchange: exchange,
		now:      time.Now,
	}, nil
}

// Publish sends body as a persistent JSON message with the given routing key.
func (p *RabbitMQ) Publish(ctx context.Context, routingKey string, body any) error {
	msg, err := p.message(body)
	if err != nil {
		return err
	}

	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %q: %w", routingKey, err)
	}

	zerolog.Ctx(ctx).Debug().Str("exchange", p.exchange).Str("routing_key", routingKey).Msg("event published")

	return nil
}

func (p *RabbitMQ) message(body any) (amqp.Publishing, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Body:         b,
	}, nil
}

// Connection owns the broker connection and channel behind a RabbitMQ publisher.
type Connection struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	*RabbitMQ
}

// Dial connects to the broker at url and returns a publisher for exchange.
func Dial(url, exchange string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := NewRabbitMQ(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Connection{conn: conn, ch: ch, RabbitMQ: p}, nil
}

// Close closes the channel and the connection.
func (c *Connection) Close() error {
	if err := c.ch.Close(); err != nil {
		_ = c.conn.Close()
		return err
	}

	return c.conn.Close()
}
