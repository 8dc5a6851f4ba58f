/**
 * @description
 * This file defines the payloads this service exchanges asynchronously:
 * the webhook events received from the payment gateway, and the internal
 * events published to RabbitMQ for decoupled processing by other services
 * (dashboards, analytics, the in-app notification feed).
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Gateway webhook event names this service reacts to. Anything else is
// acknowledged and dropped so the gateway stops retrying.
const (
	GatewayEventPaymentSucceeded = "payment_intent.succeeded"
	GatewayEventPaymentFailed    = "payment_intent.failed"
)

// GatewayWebhookEvent represents the top-level structure of a webhook payload
// from the payment gateway.
type GatewayWebhookEvent struct {
	ID        string               `json:"id"` // delivery id, used for replay suppression
	Event     string               `json:"event"`
	Data      GatewayEventResource `json:"data"`
	CreatedAt time.Time            `json:"created_at"`
}

// GatewayEventResource is the `data` object within the webhook payload.
type GatewayEventResource struct {
	ID         string            `json:"id"`   // the payment intent id
	Type       string            `json:"type"` // e.g., "PaymentIntent"
	Attributes map[string]any    `json:"attributes,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"` // echoes what we set at intent creation
}

// FailureReason extracts a human-readable failure message from the event
// attributes, if the gateway supplied one.
func (r GatewayEventResource) FailureReason() string {
	if r.Attributes == nil {
		return ""
	}
	if v, ok := r.Attributes["message"].(string); ok {
		return v
	}
	if v, ok := r.Attributes["failure_reason"].(string); ok {
		return v
	}
	return ""
}

// DonationCompletedEvent is published when a donation settles.
type DonationCompletedEvent struct {
	DonationID uuid.UUID `json:"donation_id"`
	CauseID    uuid.UUID `json:"cause_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	NewRaised  int64     `json:"new_raised"`
	Timestamp  time.Time `json:"timestamp"`
}

// GoalReachedEvent is published exactly once per cause, on the settlement
// whose increment crossed the target.
type GoalReachedEvent struct {
	CauseID      uuid.UUID `json:"cause_id"`
	Title        string    `json:"title"`
	TargetAmount int64     `json:"target_amount"`
	RaisedAmount int64     `json:"raised_amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// VerificationDecidedEvent is published when an administrator approves or
// rejects a submitted cause.
type VerificationDecidedEvent struct {
	CauseID    uuid.UUID            `json:"cause_id"`
	Decision   VerificationDecision `json:"decision"`
	VerifierID uuid.UUID            `json:"verifier_id"`
	Timestamp  time.Time            `json:"timestamp"`
}

// DisbursementRecordedEvent is published when an outflow is appended to a
// cause's transparency ledger.
type DisbursementRecordedEvent struct {
	CauseID         uuid.UUID `json:"cause_id"`
	DisbursementID  uuid.UUID `json:"disbursement_id"`
	Amount          int64     `json:"amount"`
	ReferenceNumber string    `json:"reference_number"`
	Timestamp       time.Time `json:"timestamp"`
}

// UpdatePublishedEvent is published when a transparency update goes out.
type UpdatePublishedEvent struct {
	CauseID     uuid.UUID `json:"cause_id"`
	UpdateID    uuid.UUID `json:"update_id"`
	IsMilestone bool      `json:"is_milestone"`
	Recipients  int       `json:"recipients"`
	Timestamp   time.Time `json:"timestamp"`
}
