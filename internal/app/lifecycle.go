/**
 * @description
 * Cause lifecycle management: creation, submission for verification, the
 * administrative verification decision, and post-verification status changes.
 * Approval is the only path that can move a cause into the active,
 * donation-accepting state; the store's guarded transitions enforce the rest
 * of the state machine.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/mailerclient"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/rabbitmq"
)

// CreateCause validates the organizer and persists a new draft cause.
func (s *Service) CreateCause(ctx context.Context, organizerID uuid.UUID, req domain.CreateCauseRequest) (*domain.Cause, error) {
	organizer, err := s.repo.FindUserByID(ctx, organizerID)
	if err != nil {
		log.Printf("level=error component=lifecycle msg=\"organizer lookup failed\" organizer_id=%s err=%v", organizerID, err)
		return nil, fmt.Errorf("failed to find organizer: %w", err)
	}

	startDate := time.Now().UTC()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	cause := &domain.Cause{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Story:        req.Story,
		Category:     req.Category,
		TargetAmount: req.TargetAmount,
		RaisedAmount: 0,
		Currency:     req.Currency,
		Beneficiary:  req.Beneficiary,

		OrganizerID:       organizer.ID,
		OrganizerName:     organizer.FullName,
		OrganizerVerified: organizer.Verified,

		Status:    domain.CauseStatusDraft,
		StartDate: startDate,
		EndDate:   req.EndDate,

		AllowAnonymousDonations: req.AllowAnonymousDonations,
		ShowDonationAmounts:     req.ShowDonationAmounts,
		InKindRequests:          req.InKindRequests,
	}
	cause.Beneficiary.VerificationStatus = domain.VerificationPending

	if err := s.repo.CreateCause(ctx, cause); err != nil {
		log.Printf("level=error component=lifecycle msg=\"cause create failed\" organizer_id=%s err=%v", organizerID, err)
		return nil, fmt.Errorf("failed to create cause: %w", err)
	}

	log.Printf("level=info component=lifecycle msg=\"cause created\" cause_id=%s organizer_id=%s", cause.ID, organizer.ID)
	return cause, nil
}

// SubmitForVerification moves a draft cause into review, attaches the
// supporting documents, and alerts every verification-capable administrator.
// Per-recipient email failures are logged and skipped so one bad address does
// not abort the rest of the fan-out.
func (s *Service) SubmitForVerification(ctx context.Context, causeID uuid.UUID, documents []string) (*domain.Cause, error) {
	cause, err := s.repo.SubmitCauseForVerification(ctx, causeID, documents)
	if err != nil {
		log.Printf("level=error component=lifecycle msg=\"verification submission failed\" cause_id=%s err=%v", causeID, err)
		return nil, fmt.Errorf("failed to submit cause for verification: %w", err)
	}

	verifiers, err := s.repo.FindUsersByRole(ctx, VerifierRole)
	if err != nil {
		log.Printf("level=warn component=lifecycle msg=\"verifier lookup failed; review team not alerted\" cause_id=%s err=%v", causeID, err)
	}
	for _, verifier := range verifiers {
		s.sendMail(ctx, verifier.Email, mailerclient.TemplateVerificationRequested, map[string]any{
			"verifier_name": verifier.FullName,
			"cause_id":      cause.ID.String(),
			"cause_title":   cause.Title,
			"organizer":     cause.OrganizerName,
		})
	}

	s.publishEvent(ctx, rabbitmq.RouteVerificationRequested, map[string]any{
		"cause_id": cause.ID, "title": cause.Title, "organizer_id": cause.OrganizerID,
	})

	log.Printf("level=info component=lifecycle msg=\"cause submitted for verification\" cause_id=%s verifiers_notified=%d", cause.ID, len(verifiers))
	return cause, nil
}

// VerifyCause records an administrator's verdict on a submitted cause. Approval
// activates the cause and marks its beneficiary verified; rejection cancels it.
// Either way the decision is audited and the organizer is told by email.
// A cause that was never submitted (still draft) is rejected with
// ErrInvalidCauseState rather than silently accepted.
func (s *Service) VerifyCause(ctx context.Context, causeID uuid.UUID, decision domain.VerificationDecision, notes string, verifierID uuid.UUID) (*domain.Cause, error) {
	var target domain.CauseStatus
	var beneficiary domain.VerificationStatus
	switch decision {
	case domain.DecisionApprove:
		target = domain.CauseStatusActive
		beneficiary = domain.VerificationVerified
	case domain.DecisionReject:
		target = domain.CauseStatusCancelled
		beneficiary = domain.VerificationRejected
	default:
		return nil, ErrInvalidDecision
	}

	cause, err := s.repo.ApplyVerificationDecision(ctx, causeID, target, beneficiary, notes, verifierID)
	if err != nil {
		log.Printf("level=error component=lifecycle msg=\"verification decision failed\" cause_id=%s decision=%s err=%v", causeID, decision, err)
		return nil, fmt.Errorf("failed to apply verification decision: %w", err)
	}

	auditData, _ := json.Marshal(map[string]any{"decision": decision, "notes": notes})
	audit := domain.AuditEntry{
		ID:        uuid.New(),
		UserID:    verifierID,
		Action:    "cause.verification." + string(decision),
		Target:    cause.ID.String(),
		Data:      auditData,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.InsertAuditEntry(ctx, audit); err != nil {
		log.Printf("level=error component=lifecycle msg=\"audit insert failed\" cause_id=%s err=%v", causeID, err)
		return nil, fmt.Errorf("failed to record audit entry: %w", err)
	}

	organizer, err := s.repo.FindUserByID(ctx, cause.OrganizerID)
	if err != nil {
		log.Printf("level=warn component=lifecycle msg=\"organizer lookup failed; decision mail skipped\" cause_id=%s err=%v", causeID, err)
	} else {
		s.sendMail(ctx, organizer.Email, mailerclient.TemplateVerificationDecision, map[string]any{
			"organizer_name": organizer.FullName,
			"cause_title":    cause.Title,
			"decision":       string(decision),
			"notes":          notes,
		})
	}

	s.publishEvent(ctx, rabbitmq.RouteVerificationDecided, domain.VerificationDecidedEvent{
		CauseID:    cause.ID,
		Decision:   decision,
		VerifierID: verifierID,
		Timestamp:  time.Now().UTC(),
	})

	log.Printf("level=info component=lifecycle msg=\"verification decided\" cause_id=%s decision=%s verifier_id=%s", cause.ID, decision, verifierID)
	return cause, nil
}

// ChangeCauseStatus applies an administrative pause/resume/complete/suspend.
// The store rejects any move absent from the administrative transition table,
// so verification edges cannot be taken through this path.
func (s *Service) ChangeCauseStatus(ctx context.Context, causeID uuid.UUID, target domain.CauseStatus, actorID uuid.UUID) (*domain.Cause, error) {
	cause, err := s.repo.TransitionCauseStatus(ctx, causeID, target)
	if err != nil {
		log.Printf("level=error component=lifecycle msg=\"status change failed\" cause_id=%s target=%s err=%v", causeID, target, err)
		return nil, fmt.Errorf("failed to change cause status: %w", err)
	}

	auditData, _ := json.Marshal(map[string]any{"status": target})
	audit := domain.AuditEntry{
		ID:        uuid.New(),
		UserID:    actorID,
		Action:    "cause.status_change",
		Target:    cause.ID.String(),
		Data:      auditData,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.InsertAuditEntry(ctx, audit); err != nil {
		log.Printf("level=error component=lifecycle msg=\"audit insert failed\" cause_id=%s err=%v", causeID, err)
		return nil, fmt.Errorf("failed to record audit entry: %w", err)
	}

	return cause, nil
}

// GetCause retrieves a single cause.
func (s *Service) GetCause(ctx context.Context, causeID uuid.UUID) (*domain.Cause, error) {
	return s.repo.FindCauseByID(ctx, causeID)
}

// GetUser retrieves a single platform user.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.repo.FindUserByID(ctx, userID)
}

// ListCauses lists causes, optionally filtered by status.
func (s *Service) ListCauses(ctx context.Context, status *domain.CauseStatus, limit, offset int) ([]domain.Cause, error) {
	return s.repo.ListCauses(ctx, status, limit, offset)
}

// RecordCauseView bumps the monotonic view counter.
func (s *Service) RecordCauseView(ctx context.Context, causeID uuid.UUID) error {
	return s.repo.IncrementViewCount(ctx, causeID)
}

// RecordCauseShare bumps the monotonic share counter.
func (s *Service) RecordCauseShare(ctx context.Context, causeID uuid.UUID) error {
	return s.repo.IncrementShareCount(ctx, causeID)
}
