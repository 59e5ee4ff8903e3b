package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher exports relay events to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// labeled is implemented by the relay's envelopes so broker messages carry
// their event name in the AMQP type field.
type labeled interface {
	EventLabel() string
}

// NewPublisher dials the broker and declares exchange. Any failure yields a
// publisher that only logs, so the relay keeps serving without a broker.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		return disabled("empty amqp url")
	}

	p, err := dialTopic(amqpURL, exchange)
	if err != nil {
		return disabled(err.Error())
	}
	log.Printf("rabbitmq: publishing to exchange=%s", exchange)
	return p
}

func disabled(reason string) Publisher {
	log.Printf("rabbitmq: broker disabled, events are only logged: %s", reason)
	return logOnlyPublisher{reason: reason}
}

func dialTopic(amqpURL, exchange string) (*topicPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &topicPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

type topicPublisher struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch *amqp.Channel
}

func (p *topicPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", routingKey, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         eventLabel(event),
		Body:         body,
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *topicPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}

type logOnlyPublisher struct {
	reason string
}

func (logOnlyPublisher) Publish(_ context.Context, routingKey string, event any) error {
	log.Printf("rabbitmq: dropped routing_key=%s event=%s", routingKey, eventLabel(event))
	return nil
}

func (logOnlyPublisher) Close() error {
	return nil
}

func eventLabel(event any) string {
	if l, ok := event.(labeled); ok {
		return l.EventLabel()
	}
	return fmt.Sprintf("%T", event)
}

// PublisherMode reports "amqp" or "noop" for startup logging.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *topicPublisher:
		return "amqp"
	case logOnlyPublisher:
		return "noop"
	default:
		return "unknown"
	}
}

// PublisherNoopReason explains why events are only logged.
func PublisherNoopReason(p Publisher) string {
	if lp, ok := p.(logOnlyPublisher); ok {
		return lp.reason
	}
	return ""
}
