// Package events publishes booking lifecycle messages to RabbitMQ for the
// notification dispatcher and other downstream consumers. Publishing is
// best-effort: a broker outage must never fail a booking request.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queues declared on first use. Routing key == queue name.
const (
	QueueBookingCreated   = "booking.created"
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// Publisher maintains a single AMQP connection and declares durable
// queues lazily. It satisfies booking.EventPublisher.
type Publisher struct {
	url string

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

// NewPublisher dials the broker. The connection is re-established on
// demand when a publish finds it closed.
func NewPublisher(url string) (*Publisher, error) {
	p := &Publisher{url: url, declared: make(map[string]bool)}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	p.conn = conn
	p.ch = ch
	p.declared = make(map[string]bool)
	return nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.conn == nil || p.conn.IsClosed() {
		if err := p.connect(); err != nil {
			return nil, err
		}
	}
	return p.ch, nil
}

// Publish sends a persistent JSON message to the queue named by the
// routing key, declaring the queue when it has not been seen yet.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if !p.declared[routingKey] {
		if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
			return err
		}
		p.declared[routingKey] = true
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",         // default exchange
		routingKey, // routing key = queue name
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
