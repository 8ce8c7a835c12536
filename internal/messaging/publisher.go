// Package messaging provides the event publisher adapters: an AMQP
// topic-exchange publisher for deployments with a broker, and a structured-
// log publisher used when no broker is configured. Both satisfy
// service.EventPublisher.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// Exchange is the topic exchange trip events are published to.
// Routing keys are "trip.<kind>", e.g. "trip.checkpointreached".
const Exchange = "trip_events"

// AMQPPublisher publishes trip events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	channel *amqp.Channel
	log     *slog.Logger
}

// NewAMQPPublisher dials the broker, declares the durable topic exchange, and
// returns a ready publisher. Close releases the channel.
func NewAMQPPublisher(url string, log *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("messaging.NewAMQPPublisher: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("messaging.NewAMQPPublisher: channel: %w", err)
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("messaging.NewAMQPPublisher: declare exchange: %w", err)
	}

	return &AMQPPublisher{channel: ch, log: log}, nil
}

// Publish sends each event as its own message, in recorded order.
func (p *AMQPPublisher) Publish(ctx context.Context, events []domain.Event) error {
	for _, event := range events {
		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("messaging.AMQPPublisher.Publish: marshal %s: %w", event.Kind(), err)
		}

		routingKey := "trip." + strings.ToLower(string(event.Kind()))
		err = p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, amqp.Publishing{
			ContentType: "application/json",
			Type:        string(event.Kind()),
			Timestamp:   event.Time(),
			Body:        body,
		})
		if err != nil {
			return fmt.Errorf("messaging.AMQPPublisher.Publish: %s: %w", routingKey, err)
		}

		p.log.DebugContext(ctx, "trip event published",
			"kind", event.Kind(), "trip_id", event.Trip(), "routing_key", routingKey)
	}
	return nil
}

// Close releases the underlying channel.
func (p *AMQPPublisher) Close() error {
	return p.channel.Close()
}

// LogPublisher writes each event as one structured log line. It is the
// default publisher when AMQP_URL is not configured.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher constructs a LogPublisher writing to log.
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish logs each event in recorded order. It never fails.
func (p *LogPublisher) Publish(ctx context.Context, events []domain.Event) error {
	for _, event := range events {
		p.log.InfoContext(ctx, "trip event",
			"kind", event.Kind(), "trip_id", event.Trip(), "occurred_at", event.Time())
	}
	return nil
}
