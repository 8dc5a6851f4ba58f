/**
 * @description
 * Domain models for the disbursement ledger: approved outflows of raised funds
 * to a recipient, recorded for transparency. Entries are append-only -
 * a correction is a new entry, never an edit of an existing one.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DisbursementStatus describes the administrative state of a ledger entry.
type DisbursementStatus string

const (
	DisbursementStatusPending   DisbursementStatus = "pending"
	DisbursementStatusApproved  DisbursementStatus = "approved"
	DisbursementStatusDisbursed DisbursementStatus = "disbursed"
	DisbursementStatusRejected  DisbursementStatus = "rejected"
)

// DisbursementEntry is one immutable row in a cause's transparency ledger.
// Entries live in their own `disbursements` table keyed by cause_id so the
// ledger stays independently queryable and the disbursed-never-exceeds-raised
// invariant can be enforced at write time.
type DisbursementEntry struct {
	ID               uuid.UUID          `json:"id"`
	CauseID          uuid.UUID          `json:"cause_id"`
	Amount           int64              `json:"amount"` // in cents
	Purpose          string             `json:"purpose"`
	Recipient        string             `json:"recipient"`
	DisbursementDate time.Time          `json:"disbursement_date"`
	Status           DisbursementStatus `json:"status"`
	ReferenceNumber  string             `json:"reference_number"`
	ReceiptURL       *string            `json:"receipt_url,omitempty"`
	ApprovedBy       uuid.UUID          `json:"approved_by"`
	ApprovedAt       time.Time          `json:"approved_at"`
	CreatedAt        time.Time          `json:"created_at"`
}

// CreateDisbursementRequest is the DTO for recording a disbursement.
type CreateDisbursementRequest struct {
	Amount           int64      `json:"amount"` // in cents
	Purpose          string     `json:"purpose"`
	Recipient        string     `json:"recipient"`
	DisbursementDate *time.Time `json:"disbursement_date,omitempty"`
	ReceiptURL       *string    `json:"receipt_url,omitempty"`
}
