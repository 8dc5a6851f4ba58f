/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the cause-service. By defining an interface,
 * we decouple the application's business logic from the specific database
 * implementation (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation and handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	FindUsersByRole(ctx context.Context, role string) ([]domain.User, error)

	// Cause lifecycle methods
	CreateCause(ctx context.Context, cause *domain.Cause) error
	FindCauseByID(ctx context.Context, causeID uuid.UUID) (*domain.Cause, error)
	ListCauses(ctx context.Context, status *domain.CauseStatus, limit, offset int) ([]domain.Cause, error)
	// SubmitCauseForVerification performs the guarded draft -> pending_verification
	// transition and attaches the supporting documents in one statement.
	SubmitCauseForVerification(ctx context.Context, causeID uuid.UUID, documents []string) (*domain.Cause, error)
	// ApplyVerificationDecision performs the guarded pending_verification -> active
	// (or cancelled) transition, stamping the verifier and notes. Only this method
	// can move a cause into the active, donation-accepting state.
	ApplyVerificationDecision(ctx context.Context, causeID uuid.UUID, target domain.CauseStatus, beneficiary domain.VerificationStatus, notes string, verifierID uuid.UUID) (*domain.Cause, error)
	// TransitionCauseStatus applies an administrative state change, rejecting any
	// move not present in domain.AdministrativeCauseTransitions.
	TransitionCauseStatus(ctx context.Context, causeID uuid.UUID, target domain.CauseStatus) (*domain.Cause, error)
	IncrementShareCount(ctx context.Context, causeID uuid.UUID) error
	IncrementViewCount(ctx context.Context, causeID uuid.UUID) error

	// Donation methods
	CreateDonation(ctx context.Context, donation *domain.Donation) error
	AttachPaymentIntent(ctx context.Context, donationID uuid.UUID, intentID string) error
	FindDonationByID(ctx context.Context, donationID uuid.UUID) (*domain.Donation, error)
	FindDonationByPaymentIntentID(ctx context.Context, intentID string) (*domain.Donation, error)
	ListDonationsByCause(ctx context.Context, causeID uuid.UUID, limit, offset int) ([]domain.Donation, error)
	ListCompletedDonations(ctx context.Context, causeID uuid.UUID) ([]domain.Donation, error)
	// SettleDonation atomically flips a pending donation to completed and folds its
	// amount into the cause totals in the same database transaction, returning the
	// totals as they stood immediately after this increment. Replays return
	// ErrDonationAlreadyFinalized without touching the totals.
	SettleDonation(ctx context.Context, donationID uuid.UUID) (*domain.SettlementResult, error)
	// MarkDonationFailed flips a pending donation to failed. Like SettleDonation it
	// refuses to move a donation that has already left the pending state.
	MarkDonationFailed(ctx context.Context, donationID uuid.UUID) error

	// Disbursement ledger methods
	// InsertDisbursement appends one immutable ledger entry, enforcing at write
	// time that the cause's disbursed total never exceeds its raised total.
	InsertDisbursement(ctx context.Context, entry *domain.DisbursementEntry) error
	ListDisbursementsByCause(ctx context.Context, causeID uuid.UUID) ([]domain.DisbursementEntry, error)
	SumDisbursed(ctx context.Context, causeID uuid.UUID) (int64, error)

	// Transparency update methods
	CreateCauseUpdate(ctx context.Context, update *domain.CauseUpdate) error
	MarkUpdateSentToDonors(ctx context.Context, updateID uuid.UUID) error
	ListUpdatesByCause(ctx context.Context, causeID uuid.UUID) ([]domain.CauseUpdate, error)
	HasUpdateSince(ctx context.Context, causeID uuid.UUID, since time.Time) (bool, error)
	FindStaleActiveCauses(ctx context.Context, olderThan time.Time) ([]domain.Cause, error)
	StampLastUpdateSent(ctx context.Context, causeID uuid.UUID, at time.Time) error

	// Audit log methods
	InsertAuditEntry(ctx context.Context, entry domain.AuditEntry) error
}
