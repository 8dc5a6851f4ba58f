/**
 * @description
 * The disbursement ledger: recording approved outflows of raised funds against
 * a cause. Approval and disbursement are a single administrative action, so
 * entries are written already disbursed. The ledger is append-only; the store
 * refuses any entry that would push the disbursed total past the raised total.
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
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/rabbitmq"
)

// newDisbursementReference generates the ledger entry reference number:
// a DISB- prefix with a time-based suffix.
func newDisbursementReference(now time.Time) string {
	return fmt.Sprintf("DISB-%d", now.UnixNano())
}

// CreateDisbursement appends one entry to a cause's transparency ledger. The
// owning cause must exist and the new entry, together with everything already
// disbursed, must fit inside the cause's raised amount.
func (s *Service) CreateDisbursement(ctx context.Context, causeID uuid.UUID, approverID uuid.UUID, req domain.CreateDisbursementRequest) (*domain.DisbursementEntry, error) {
	disbursementDate := time.Now().UTC()
	if req.DisbursementDate != nil {
		disbursementDate = *req.DisbursementDate
	}

	entry := &domain.DisbursementEntry{
		ID:               uuid.New(),
		CauseID:          causeID,
		Amount:           req.Amount,
		Purpose:          req.Purpose,
		Recipient:        req.Recipient,
		DisbursementDate: disbursementDate,
		Status:           domain.DisbursementStatusDisbursed,
		ReferenceNumber:  newDisbursementReference(time.Now()),
		ReceiptURL:       req.ReceiptURL,
		ApprovedBy:       approverID,
	}

	if err := s.repo.InsertDisbursement(ctx, entry); err != nil {
		log.Printf("level=error component=disbursements msg=\"ledger append failed\" cause_id=%s amount=%d err=%v", causeID, req.Amount, err)
		return nil, fmt.Errorf("failed to record disbursement: %w", err)
	}

	auditData, _ := json.Marshal(map[string]any{
		"amount":           entry.Amount,
		"recipient":        entry.Recipient,
		"reference_number": entry.ReferenceNumber,
	})
	audit := domain.AuditEntry{
		ID:        uuid.New(),
		UserID:    approverID,
		Action:    "cause.disbursement.recorded",
		Target:    causeID.String(),
		Data:      auditData,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.InsertAuditEntry(ctx, audit); err != nil {
		log.Printf("level=error component=disbursements msg=\"audit insert failed\" cause_id=%s err=%v", causeID, err)
		return nil, fmt.Errorf("failed to record audit entry: %w", err)
	}

	s.publishEvent(ctx, rabbitmq.RouteDisbursementRecorded, domain.DisbursementRecordedEvent{
		CauseID:         causeID,
		DisbursementID:  entry.ID,
		Amount:          entry.Amount,
		ReferenceNumber: entry.ReferenceNumber,
		Timestamp:       time.Now().UTC(),
	})

	log.Printf("level=info component=disbursements msg=\"disbursement recorded\" cause_id=%s reference=%s amount=%d", causeID, entry.ReferenceNumber, entry.Amount)
	return entry, nil
}

// ListDisbursements returns a cause's transparency ledger in append order.
func (s *Service) ListDisbursements(ctx context.Context, causeID uuid.UUID) ([]domain.DisbursementEntry, error) {
	return s.repo.ListDisbursementsByCause(ctx, causeID)
}
