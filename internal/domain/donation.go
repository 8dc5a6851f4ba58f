/**
 * @description
 * Domain models for the donation payment pipeline. A Donation is one
 * contribution attempt tied to a payment intent at the external gateway; it is
 * created `pending` and only the gateway's asynchronous webhook may move it to
 * `completed` or `failed`.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus describes where a donation sits in the two-phase payment protocol.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Donation represents a single contribution attempt against a cause. This
// struct maps directly to the `donations` table in the database.
type Donation struct {
	ID              uuid.UUID     `json:"id"`
	CauseID         uuid.UUID     `json:"cause_id"`
	DonorName       string        `json:"donor_name"`
	DonorEmail      string        `json:"donor_email"`
	Anonymous       bool          `json:"anonymous"`
	Amount          int64         `json:"amount"` // in cents
	Currency        string        `json:"currency"`
	Message         string        `json:"message"`
	PaymentIntentID *string       `json:"payment_intent_id,omitempty"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// CreateDonationRequest is the DTO for incoming donation API requests.
type CreateDonationRequest struct {
	DonorName  string `json:"donor_name"`
	DonorEmail string `json:"donor_email"`
	Anonymous  bool   `json:"anonymous"`
	Amount     int64  `json:"amount"` // in cents
	Message    string `json:"message"`
}

// DonationInitiation is returned to the caller after phase one: the donation
// record exists in `pending` and the donor must follow the redirect URL to pay.
type DonationInitiation struct {
	DonationID      uuid.UUID `json:"donation_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	RedirectURL     string    `json:"redirect_url"`
}

// SettlementResult carries the cause totals as they stood immediately after a
// donation's amount was folded in. NewRaised and NewDonorCount come back from
// the same atomic update that applied the increment, so concurrent settlements
// on one cause each observe their own distinct totals.
type SettlementResult struct {
	Donation      Donation
	NewRaised     int64
	NewDonorCount int64
	TargetAmount  int64
	// CrossedGoal is true only for the settlement whose increment moved the
	// cause from below target to at-or-above target.
	CrossedGoal bool
}
