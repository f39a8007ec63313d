package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const publishTimeout = 5 * time.Second

// Publisher sends domain events to downstream services.
type Publisher interface {
	PublishResultFinalized(ctx context.Context, ev *ResultFinalizedEvent) error
}

// EventPublisher publishes JSON events to a durable topic exchange.
type EventPublisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	enabled      bool
	log          zerolog.Logger
}

// NewEventPublisher connects to RabbitMQ. An empty uri yields a disabled
// publisher that drops every event.
func NewEventPublisher(uri, exchangeName string, log zerolog.Logger) (*EventPublisher, error) {
	log = log.With().Str("component", "event_publisher").Logger()
	if uri == "" {
		log.Warn().Msg("AMQP_URL is empty, result event publishing is disabled")
		return &EventPublisher{enabled: false, log: log}, nil
	}

	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info().Str("exchange", exchangeName).Msg("Connected to RabbitMQ")
	return &EventPublisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		enabled:      true,
		log:          log,
	}, nil
}

// Enabled reports whether events actually leave the process.
func (p *EventPublisher) Enabled() bool { return p.enabled }

func (p *EventPublisher) publish(ctx context.Context, routingKey string, event any) error {
	if !p.enabled {
		p.log.Debug().Str("routing_key", routingKey).Msg("Publishing disabled, event dropped")
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.log.Debug().Str("routing_key", routingKey).Msg("Event published")
	return nil
}

// PublishResultFinalized publishes ev under its routing key.
func (p *EventPublisher) PublishResultFinalized(ctx context.Context, ev *ResultFinalizedEvent) error {
	return p.publish(ctx, string(EventTypeResultFinalized), ev)
}

// Close releases the channel and the connection.
func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn().Err(err).Msg("Error closing RabbitMQ channel")
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
