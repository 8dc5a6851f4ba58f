/**
 * @description
 * This file contains the core business logic entry point for the cause-service.
 * The `Service` struct orchestrates the cause lifecycle, the donation payment
 * pipeline, the disbursement ledger, and transparency updates, coordinating
 * between the database repository, the payment gateway client, the mail
 * delivery client, and the message broker.
 *
 * @dependencies
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/gatewayclient, pkg/mailerclient, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"log"

	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/store"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/gatewayclient"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/rabbitmq"
)

// Role carried by users who review submitted causes.
const VerifierRole = "verifier"

var (
	// ErrCauseNotActive is returned when a donation is attempted against a
	// cause that is not accepting donations.
	ErrCauseNotActive = errors.New("cause is not active")
	// ErrAnonymousNotAllowed is returned when an anonymous donation is made to
	// a cause whose organizer disabled anonymous giving.
	ErrAnonymousNotAllowed = errors.New("cause does not accept anonymous donations")
	// ErrInvalidDecision is returned for a verification verdict other than
	// approve or reject.
	ErrInvalidDecision = errors.New("verification decision must be approve or reject")
)

// PaymentGateway is the slice of the gateway client the donation pipeline uses.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req gatewayclient.CreateIntentRequest) (*gatewayclient.Intent, error)
	InitializePayment(ctx context.Context, intentID string) (*gatewayclient.RedirectDetails, error)
}

// Mailer delivers one templated message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, template string, data map[string]any) error
}

// Service provides the core business logic for the cause subsystem.
type Service struct {
	repo          store.Repository
	gateway       PaymentGateway
	mailer        Mailer
	eventProducer rabbitmq.Publisher
	shareBaseURL  string
	stalenessDays int
}

// NewService creates a new cause service instance.
func NewService(repo store.Repository, gateway PaymentGateway, mailer Mailer, producer rabbitmq.Publisher, shareBaseURL string, stalenessDays int) *Service {
	if stalenessDays <= 0 {
		stalenessDays = 30
	}
	return &Service{
		repo:          repo,
		gateway:       gateway,
		mailer:        mailer,
		eventProducer: producer,
		shareBaseURL:  shareBaseURL,
		stalenessDays: stalenessDays,
	}
}

// publishEvent sends an event to the broker, logging and swallowing failures:
// event delivery is best-effort and never blocks or rolls back a core write.
func (s *Service) publishEvent(ctx context.Context, routingKey string, body any) {
	if s.eventProducer == nil {
		return
	}
	if err := s.eventProducer.Publish(ctx, routingKey, body); err != nil {
		log.Printf("level=warn component=service msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}

// sendMail delivers one message, logging and swallowing failures so a bad
// address or a mailer outage never aborts the operation that triggered it.
func (s *Service) sendMail(ctx context.Context, to, template string, data map[string]any) {
	if s.mailer == nil || to == "" {
		return
	}
	if err := s.mailer.Send(ctx, to, template, data); err != nil {
		log.Printf("level=warn component=service msg=\"email send failed\" template=%s recipient=%s err=%v", template, to, err)
	}
}
