/**
 * @description
 * This file defines the core domain models for the cause-service: fundraising
 * causes, their beneficiaries, and the lifecycle states a cause moves through
 * from draft to verified, donation-accepting campaign.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (cents), which
 *   avoids floating-point inaccuracies with financial data.
 * - Cause status transitions are restricted to the table in AllowedCauseTransitions;
 *   the store enforces the table with guarded updates so no code path can skip a state.
 */

package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CauseStatus describes where a cause is in its fundraising lifecycle.
type CauseStatus string

const (
	CauseStatusDraft               CauseStatus = "draft"
	CauseStatusPendingVerification CauseStatus = "pending_verification"
	CauseStatusActive              CauseStatus = "active"
	CauseStatusPaused              CauseStatus = "paused"
	CauseStatusCompleted           CauseStatus = "completed"
	CauseStatusCancelled           CauseStatus = "cancelled"
	CauseStatusSuspended           CauseStatus = "suspended"
)

// VerificationStatus describes the review state of a cause's beneficiary.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// AllowedCauseTransitions is the authoritative cause state machine. A transition
// absent from this table is rejected by the store with ErrInvalidCauseState.
var AllowedCauseTransitions = map[CauseStatus][]CauseStatus{
	CauseStatusDraft:               {CauseStatusPendingVerification},
	CauseStatusPendingVerification: {CauseStatusActive, CauseStatusCancelled},
	CauseStatusActive:              {CauseStatusPaused, CauseStatusCompleted, CauseStatusSuspended},
	CauseStatusPaused:              {CauseStatusActive, CauseStatusCompleted, CauseStatusSuspended},
}

// CanTransition reports whether moving a cause from one status to another is permitted.
func CanTransition(from, to CauseStatus) bool {
	for _, allowed := range AllowedCauseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AdministrativeCauseTransitions is the subset of the state machine reachable
// through the status endpoint: pause, resume, complete, suspend. Verification
// edges (draft submission, pending_verification approval and rejection) are
// excluded so a cause cannot be activated without a verification decision.
var AdministrativeCauseTransitions = map[CauseStatus][]CauseStatus{
	CauseStatusActive: {CauseStatusPaused, CauseStatusCompleted, CauseStatusSuspended},
	CauseStatusPaused: {CauseStatusActive, CauseStatusCompleted, CauseStatusSuspended},
}

// CanTransitionAdministratively reports whether a transition may be made
// through the status endpoint, as opposed to the verification flow.
func CanTransitionAdministratively(from, to CauseStatus) bool {
	for _, allowed := range AdministrativeCauseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Beneficiary identifies who raised funds are ultimately for.
type Beneficiary struct {
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	Phone              string             `json:"phone"`
	Address            string             `json:"address"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	BankName           *string            `json:"bank_name,omitempty"`
	BankAccountNumber  *string            `json:"bank_account_number,omitempty"`
}

// Cause represents a fundraising campaign. This struct maps directly to the
// `causes` table in the database.
type Cause struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Story       string    `json:"story"`
	Category    string    `json:"category"`

	TargetAmount int64  `json:"target_amount"` // in cents
	RaisedAmount int64  `json:"raised_amount"` // in cents, maintained by atomic increments
	Currency     string `json:"currency"`

	Beneficiary Beneficiary `json:"beneficiary"`

	OrganizerID       uuid.UUID `json:"organizer_id"`
	OrganizerName     string    `json:"organizer_name"`
	OrganizerVerified bool      `json:"organizer_verified"`

	Status            CauseStatus `json:"status"`
	StartDate         time.Time   `json:"start_date"`
	EndDate           *time.Time  `json:"end_date,omitempty"`
	VerificationNotes *string     `json:"verification_notes,omitempty"`
	VerifiedBy        *uuid.UUID  `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time  `json:"verified_at,omitempty"`

	Documents      []string   `json:"documents,omitempty"`
	LastUpdateSent *time.Time `json:"last_update_sent,omitempty"`

	AllowAnonymousDonations bool `json:"allow_anonymous_donations"`
	ShowDonationAmounts     bool `json:"show_donation_amounts"`
	InKindRequests          bool `json:"in_kind_requests"`

	DonorCount int64 `json:"donor_count"`
	ShareCount int64 `json:"share_count"`
	ViewCount  int64 `json:"view_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoalReached reports whether the cause has met or exceeded its target.
func (c *Cause) GoalReached() bool {
	return c.TargetAmount > 0 && c.RaisedAmount >= c.TargetAmount
}

// CreateCauseRequest is the DTO for incoming cause creation API requests.
type CreateCauseRequest struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Story        string      `json:"story"`
	Category     string      `json:"category"`
	TargetAmount int64       `json:"target_amount"` // in cents
	Currency     string      `json:"currency"`
	Beneficiary  Beneficiary `json:"beneficiary"`
	StartDate    *time.Time  `json:"start_date,omitempty"`
	EndDate      *time.Time  `json:"end_date,omitempty"`

	AllowAnonymousDonations bool `json:"allow_anonymous_donations"`
	ShowDonationAmounts     bool `json:"show_donation_amounts"`
	InKindRequests          bool `json:"in_kind_requests"`
}

// VerificationDecision is an administrator's verdict on a submitted cause.
type VerificationDecision string

const (
	DecisionApprove VerificationDecision = "approve"
	DecisionReject  VerificationDecision = "reject"
)

// VerifyCauseRequest is the DTO for the verification decision endpoint.
type VerifyCauseRequest struct {
	Decision VerificationDecision `json:"decision"`
	Notes    string               `json:"notes"`
}

// User is the slim projection of a platform user this service needs:
// organizers who own causes and administrators who verify them.
type User struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"` // e.g., 'organizer', 'verifier', 'admin'
	Verified bool      `json:"verified"`
}

// AuditEntry is one append-only row in the audit log. Verification decisions
// and disbursement approvals are always audited.
type AuditEntry struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Action    string          `json:"action"`
	Target    string          `json:"target"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
