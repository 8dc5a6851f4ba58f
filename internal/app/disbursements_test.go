package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/store"
)

type disbursementRepoStub struct {
	store.Repository

	insertErr error
	entries   []domain.DisbursementEntry

	auditEntries []domain.AuditEntry
}

func (s *disbursementRepoStub) InsertDisbursement(ctx context.Context, entry *domain.DisbursementEntry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *disbursementRepoStub) ListDisbursementsByCause(ctx context.Context, causeID uuid.UUID) ([]domain.DisbursementEntry, error) {
	return s.entries, nil
}

func (s *disbursementRepoStub) InsertAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	s.auditEntries = append(s.auditEntries, entry)
	return nil
}

func TestCreateDisbursement_RecordsEntryAsDisbursedWithReference(t *testing.T) {
	repo := &disbursementRepoStub{}
	svc := NewService(repo, &gatewayStub{}, nil, nil, "", 30)

	causeID := uuid.New()
	approverID := uuid.New()
	entry, err := svc.CreateDisbursement(context.Background(), causeID, approverID, domain.CreateDisbursementRequest{
		Amount:    25000,
		Purpose:   "Hospital invoice 4471",
		Recipient: "St. Mary's Hospital",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if entry.Status != domain.DisbursementStatusDisbursed {
		t.Fatalf("expected entry written as disbursed, got %s", entry.Status)
	}
	if !strings.HasPrefix(entry.ReferenceNumber, "DISB-") {
		t.Fatalf("expected DISB- reference, got %q", entry.ReferenceNumber)
	}
	if entry.ApprovedBy != approverID {
		t.Fatalf("expected approver stamped, got %s", entry.ApprovedBy)
	}
	if len(repo.auditEntries) != 1 || repo.auditEntries[0].Action != "cause.disbursement.recorded" {
		t.Fatalf("expected the disbursement audited, got %+v", repo.auditEntries)
	}
	if repo.auditEntries[0].Timestamp.IsZero() {
		t.Fatal("expected the audit entry to carry a timestamp")
	}
}

func TestCreateDisbursement_HonorsProvidedDate(t *testing.T) {
	repo := &disbursementRepoStub{}
	svc := NewService(repo, &gatewayStub{}, nil, nil, "", 30)

	when := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	entry, err := svc.CreateDisbursement(context.Background(), uuid.New(), uuid.New(), domain.CreateDisbursementRequest{
		Amount:           1000,
		Purpose:          "Transport",
		Recipient:        "Beneficiary family",
		DisbursementDate: &when,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !entry.DisbursementDate.Equal(when) {
		t.Fatalf("expected provided date kept, got %s", entry.DisbursementDate)
	}
}

func TestCreateDisbursement_OverdrawIsRefused(t *testing.T) {
	repo := &disbursementRepoStub{insertErr: store.ErrDisbursementExceedsRaised}
	svc := NewService(repo, &gatewayStub{}, nil, nil, "", 30)

	_, err := svc.CreateDisbursement(context.Background(), uuid.New(), uuid.New(), domain.CreateDisbursementRequest{
		Amount:    999999,
		Purpose:   "Overdraw attempt",
		Recipient: "Anyone",
	})
	if !errors.Is(err, store.ErrDisbursementExceedsRaised) {
		t.Fatalf("expected ErrDisbursementExceedsRaised, got %v", err)
	}
	if len(repo.auditEntries) != 0 {
		t.Fatal("did not expect an audit entry for a refused disbursement")
	}
}

func TestNewDisbursementReference_IsTimeOrdered(t *testing.T) {
	earlier := newDisbursementReference(time.Unix(0, 1000))
	later := newDisbursementReference(time.Unix(0, 2000))
	if earlier == later {
		t.Fatal("expected distinct references for distinct instants")
	}
	if !strings.HasPrefix(earlier, "DISB-") || !strings.HasPrefix(later, "DISB-") {
		t.Fatalf("expected DISB- prefix, got %q and %q", earlier, later)
	}
}
