/**
 * @description
 * This package provides a producer for publishing cause-service events to
 * RabbitMQ. Downstream consumers (the notification feed, analytics, admin
 * dashboards) bind to the topic exchange and react to donation settlements,
 * verification decisions, goal-reached milestones, and published updates
 * without this service knowing about them.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// EventExchange is the durable topic exchange all cause-service events go to.
const EventExchange = "careconnect.events"

// Routing keys published by this service.
const (
	RouteVerificationRequested = "cause.verification.requested"
	RouteVerificationDecided   = "cause.verification.decided"
	RouteDonationCompleted     = "donation.completed"
	RouteGoalReached           = "cause.goal.reached"
	RouteDisbursementRecorded  = "cause.disbursement.recorded"
	RouteUpdatePublished       = "cause.update.published"
)

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
	Close()
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// NoopPublisher is a minimal no-op publisher used when RabbitMQ is unavailable
// at startup. Event delivery degrades; the service itself keeps working.
type NoopPublisher struct{}

func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, body any) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"publish skipped\" routing_key=%s", routingKey)
	return nil
}

func (p *NoopPublisher) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch}, nil
}

// Publish sends a message to the event exchange with the given routing key.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body any) error {
	if err := p.declareExchange(); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error component=rabbitmq_producer msg=\"json marshal failed\" routing_key=%s err=%v", routingKey, err)
		return err
	}

	publishing := amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        jsonBody,
	}

	err = p.channel.PublishWithContext(ctx, EventExchange, routingKey, false, false, publishing)
	if err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"publish failed; reopening channel\" routing_key=%s err=%v", routingKey, err)
		// One-shot retry: reopen channel and try again
		if reopenErr := p.reopenChannel(); reopenErr != nil {
			return err
		}
		return p.channel.PublishWithContext(ctx, EventExchange, routingKey, false, false, publishing)
	}
	return nil
}

func (p *EventProducer) declareExchange() error {
	err := p.channel.ExchangeDeclare(EventExchange, "topic", true, false, false, false, nil)
	if err == nil {
		return nil
	}
	log.Printf("level=warn component=rabbitmq_producer msg=\"exchange declare failed; reopening channel\" exchange=%s err=%v", EventExchange, err)
	if reopenErr := p.reopenChannel(); reopenErr != nil {
		return reopenErr
	}
	return p.channel.ExchangeDeclare(EventExchange, "topic", true, false, false, false, nil)
}

func (p *EventProducer) reopenChannel() error {
	if p.conn == nil {
		return errors.New("no rabbitmq connection")
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	p.channel = ch
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
