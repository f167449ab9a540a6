// Package amqp announces catalog changes on a RabbitMQ fanout exchange.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"moviecatalog/internal/domain"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the fanout exchange catalog events go to.
const ExchangeName = "catalog.events"

var errClosed = errors.New("publisher closed")

// Publisher implements domain.EventPublisher.
type Publisher struct {
	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
	breaker circuitbreaker.CircuitBreaker[struct{}]
	log     *slog.Logger
}

var _ domain.EventPublisher = (*Publisher)(nil)

// Dial connects to the broker and declares the exchange.
func Dial(rawURL string, log *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		ExchangeName,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := &Publisher{conn: conn, channel: ch, log: log}
	p.breaker = circuitbreaker.New[struct{}](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("event publisher circuit state change", "from", from.String(), "to", to.String())
		},
	})

	log.Info("connected to RabbitMQ", "host", redactURL(rawURL), "exchange", ExchangeName)
	return p, nil
}

// Publish sends ev as persistent JSON, routed by its type.
func (p *Publisher) Publish(ctx context.Context, ev domain.MovieEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		p.mu.RLock()
		defer p.mu.RUnlock()
		if p.closed {
			return struct{}{}, errClosed
		}
		return struct{}{}, p.channel.PublishWithContext(
			ctx,
			ExchangeName,
			ev.Type, // routing key, ignored by fanout bindings
			false,   // mandatory
			false,   // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    ev.At,
				Type:         ev.Type,
				Body:         body,
			},
		)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// redactURL keeps only the host for logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Host
}
