package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/store"
)

type updatesRepoStub struct {
	store.Repository

	cause      *domain.Cause
	donations  []domain.Donation
	stale      []domain.Cause
	hasRecent  map[uuid.UUID]bool
	created    []*domain.CauseUpdate
	sentFlags  []uuid.UUID
	stamped    []uuid.UUID
	stampTimes []time.Time
}

func (s *updatesRepoStub) FindCauseByID(ctx context.Context, causeID uuid.UUID) (*domain.Cause, error) {
	if s.cause != nil && s.cause.ID == causeID {
		return s.cause, nil
	}
	for i := range s.stale {
		if s.stale[i].ID == causeID {
			return &s.stale[i], nil
		}
	}
	return nil, store.ErrCauseNotFound
}

func (s *updatesRepoStub) ListCompletedDonations(ctx context.Context, causeID uuid.UUID) ([]domain.Donation, error) {
	return s.donations, nil
}

func (s *updatesRepoStub) CreateCauseUpdate(ctx context.Context, update *domain.CauseUpdate) error {
	s.created = append(s.created, update)
	return nil
}

func (s *updatesRepoStub) MarkUpdateSentToDonors(ctx context.Context, updateID uuid.UUID) error {
	s.sentFlags = append(s.sentFlags, updateID)
	return nil
}

func (s *updatesRepoStub) FindStaleActiveCauses(ctx context.Context, olderThan time.Time) ([]domain.Cause, error) {
	return s.stale, nil
}

func (s *updatesRepoStub) HasUpdateSince(ctx context.Context, causeID uuid.UUID, since time.Time) (bool, error) {
	return s.hasRecent[causeID], nil
}

func (s *updatesRepoStub) StampLastUpdateSent(ctx context.Context, causeID uuid.UUID, at time.Time) error {
	s.stamped = append(s.stamped, causeID)
	s.stampTimes = append(s.stampTimes, at)
	return nil
}

func TestPublishCauseUpdate_FanOutDeduplicatesAndSkipsAnonymous(t *testing.T) {
	cause := activeCause()
	repo := &updatesRepoStub{
		cause: cause,
		donations: []domain.Donation{
			{DonorName: "Jordan Doe", DonorEmail: "jordan@example.com"},
			{DonorName: "Jordan Doe", DonorEmail: "JORDAN@example.com"}, // same donor, different case
			{DonorName: "Riley Smith", DonorEmail: "riley@example.com", Anonymous: true},
			{DonorName: "No Email", DonorEmail: ""},
			{DonorName: "Casey Lee", DonorEmail: "casey@example.com"},
		},
	}
	mailer := &mailerStub{}
	svc := NewService(repo, &gatewayStub{}, mailer, nil, "https://careconnect.health/causes", 30)

	update, err := svc.PublishCauseUpdate(context.Background(), cause.ID, domain.CreateCauseUpdateRequest{
		Title:   "Week three",
		Content: "Treatment is underway.",
	}, "Test Organizer")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("expected two unique non-anonymous recipients, got %v", mailer.sent)
	}
	if !update.SentToDonors {
		t.Fatal("expected the update marked sent after fan-out")
	}
	if len(repo.sentFlags) != 1 || repo.sentFlags[0] != update.ID {
		t.Fatalf("expected sent flag persisted for the update, got %v", repo.sentFlags)
	}
}

func TestPublishCauseUpdate_PersistsAuthorAndMilestone(t *testing.T) {
	cause := activeCause()
	repo := &updatesRepoStub{cause: cause}
	svc := NewService(repo, &gatewayStub{}, nil, nil, "", 30)

	update, err := svc.PublishCauseUpdate(context.Background(), cause.ID, domain.CreateCauseUpdateRequest{
		Title:       "Goal reached",
		Content:     "Thank you all.",
		IsMilestone: true,
	}, "CareConnect")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if update.Author != "CareConnect" || !update.IsMilestone {
		t.Fatalf("expected milestone authored by CareConnect, got %+v", update)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one persisted update, got %d", len(repo.created))
	}
}

func TestTruncate_LimitsByRunesNotBytes(t *testing.T) {
	short := "brief"
	if got := truncate(short, excerptRunes); got != short {
		t.Fatalf("expected short content untouched, got %q", got)
	}

	long := strings.Repeat("è", excerptRunes+50)
	got := truncate(long, excerptRunes)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != excerptRunes {
		t.Fatalf("expected %d runes of excerpt, got %d", excerptRunes, n)
	}
}

func TestSendMonthlyUpdates_SynthesizesForQuietCausesOnly(t *testing.T) {
	quiet := domain.Cause{
		ID:           uuid.New(),
		Title:        "Quiet cause",
		Status:       domain.CauseStatusActive,
		TargetAmount: 100000,
		RaisedAmount: 40000,
		DonorCount:   12,
		Currency:     "USD",
	}
	recentlyUpdated := domain.Cause{
		ID:     uuid.New(),
		Title:  "Chatty cause",
		Status: domain.CauseStatusActive,
	}
	repo := &updatesRepoStub{
		stale:     []domain.Cause{quiet, recentlyUpdated},
		hasRecent: map[uuid.UUID]bool{recentlyUpdated.ID: true},
	}
	svc := NewService(repo, &gatewayStub{}, nil, nil, "", 30)

	if err := svc.SendMonthlyUpdates(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one synthesized update, got %d", len(repo.created))
	}
	if repo.created[0].CauseID != quiet.ID {
		t.Fatalf("expected the quiet cause updated, got %s", repo.created[0].CauseID)
	}
	if !strings.Contains(repo.created[0].Content, "USD 400.00") {
		t.Fatalf("expected raised amount in the synthesized copy, got %q", repo.created[0].Content)
	}

	// Both causes are stamped so neither is re-scanned next run.
	if len(repo.stamped) != 2 {
		t.Fatalf("expected both causes stamped, got %v", repo.stamped)
	}
}

func TestSendMonthlyUpdates_NoStaleCausesIsANoOp(t *testing.T) {
	repo := &updatesRepoStub{}
	svc := NewService(repo, &gatewayStub{}, nil, nil, "", 30)

	if err := svc.SendMonthlyUpdates(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(repo.created) != 0 || len(repo.stamped) != 0 {
		t.Fatal("expected no writes when nothing is stale")
	}
}

func TestFormatAmount(t *testing.T) {
	if got := formatAmount(123456, "USD"); got != "USD 1234.56" {
		t.Fatalf("unexpected formatting %q", got)
	}
	if got := formatAmount(5, "NGN"); got != "NGN 0.05" {
		t.Fatalf("unexpected formatting %q", got)
	}
}
