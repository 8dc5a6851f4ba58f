package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/store"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/gatewayclient"
)

type donationRepoStub struct {
	store.Repository

	cause    *domain.Cause
	donation *domain.Donation

	settleResult *domain.SettlementResult
	settleErr    error

	createDonationCalled bool
	markFailedCalled     bool
	attachedIntentID     string
	settleCalled         int
}

func (s *donationRepoStub) FindCauseByID(ctx context.Context, causeID uuid.UUID) (*domain.Cause, error) {
	if s.cause == nil {
		return nil, store.ErrCauseNotFound
	}
	return s.cause, nil
}

func (s *donationRepoStub) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	s.createDonationCalled = true
	s.donation = donation
	return nil
}

func (s *donationRepoStub) AttachPaymentIntent(ctx context.Context, donationID uuid.UUID, intentID string) error {
	s.attachedIntentID = intentID
	return nil
}

func (s *donationRepoStub) MarkDonationFailed(ctx context.Context, donationID uuid.UUID) error {
	s.markFailedCalled = true
	return nil
}

func (s *donationRepoStub) SettleDonation(ctx context.Context, donationID uuid.UUID) (*domain.SettlementResult, error) {
	s.settleCalled++
	if s.settleErr != nil {
		return nil, s.settleErr
	}
	return s.settleResult, nil
}

func (s *donationRepoStub) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return &domain.User{ID: userID, FullName: "Test Organizer", Email: "organizer@example.com"}, nil
}

func (s *donationRepoStub) ListCompletedDonations(ctx context.Context, causeID uuid.UUID) ([]domain.Donation, error) {
	return nil, nil
}

func (s *donationRepoStub) CreateCauseUpdate(ctx context.Context, update *domain.CauseUpdate) error {
	return nil
}

func (s *donationRepoStub) MarkUpdateSentToDonors(ctx context.Context, updateID uuid.UUID) error {
	return nil
}

type gatewayStub struct {
	createErr     error
	initErr       error
	intentID      string
	createCalled  int
	initCalled    int
	lastIntentReq gatewayclient.CreateIntentRequest
}

func (g *gatewayStub) CreatePaymentIntent(ctx context.Context, req gatewayclient.CreateIntentRequest) (*gatewayclient.Intent, error) {
	g.createCalled++
	g.lastIntentReq = req
	if g.createErr != nil {
		return nil, g.createErr
	}
	id := g.intentID
	if id == "" {
		id = "pi_test"
	}
	return &gatewayclient.Intent{ID: id}, nil
}

func (g *gatewayStub) InitializePayment(ctx context.Context, intentID string) (*gatewayclient.RedirectDetails, error) {
	g.initCalled++
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &gatewayclient.RedirectDetails{RedirectURL: "https://gateway.example.com/pay/" + intentID}, nil
}

type mailerStub struct {
	sent []string
}

func (m *mailerStub) Send(ctx context.Context, to, template string, data map[string]any) error {
	m.sent = append(m.sent, template+":"+to)
	return nil
}

func activeCause() *domain.Cause {
	return &domain.Cause{
		ID:                      uuid.New(),
		Title:                   "Surgery for Amina",
		Status:                  domain.CauseStatusActive,
		TargetAmount:            100000,
		Currency:                "USD",
		AllowAnonymousDonations: true,
	}
}

func TestCreateDonation_RefusesInactiveCauseBeforeGatewayCall(t *testing.T) {
	inactive := []domain.CauseStatus{
		domain.CauseStatusDraft,
		domain.CauseStatusPendingVerification,
		domain.CauseStatusPaused,
		domain.CauseStatusCompleted,
		domain.CauseStatusCancelled,
		domain.CauseStatusSuspended,
	}

	for _, status := range inactive {
		t.Run(string(status), func(t *testing.T) {
			cause := activeCause()
			cause.Status = status
			repo := &donationRepoStub{cause: cause}
			gateway := &gatewayStub{}
			svc := NewService(repo, gateway, nil, nil, "", 30)

			_, err := svc.CreateDonation(context.Background(), cause.ID, domain.CreateDonationRequest{Amount: 5000})
			if !errors.Is(err, ErrCauseNotActive) {
				t.Fatalf("expected ErrCauseNotActive, got %v", err)
			}
			if repo.createDonationCalled {
				t.Fatal("did not expect a donation record for an inactive cause")
			}
			if gateway.createCalled != 0 {
				t.Fatal("did not expect a gateway call for an inactive cause")
			}
		})
	}
}

func TestCreateDonation_RefusesAnonymousWhenDisallowed(t *testing.T) {
	cause := activeCause()
	cause.AllowAnonymousDonations = false
	repo := &donationRepoStub{cause: cause}
	gateway := &gatewayStub{}
	svc := NewService(repo, gateway, nil, nil, "", 30)

	_, err := svc.CreateDonation(context.Background(), cause.ID, domain.CreateDonationRequest{Amount: 5000, Anonymous: true})
	if !errors.Is(err, ErrAnonymousNotAllowed) {
		t.Fatalf("expected ErrAnonymousNotAllowed, got %v", err)
	}
	if gateway.createCalled != 0 {
		t.Fatal("did not expect a gateway call for a refused donation")
	}
}

func TestCreateDonation_ReturnsRedirectAndTagsIntentMetadata(t *testing.T) {
	cause := activeCause()
	repo := &donationRepoStub{cause: cause}
	gateway := &gatewayStub{intentID: "pi_123"}
	svc := NewService(repo, gateway, nil, nil, "", 30)

	initiation, err := svc.CreateDonation(context.Background(), cause.ID, domain.CreateDonationRequest{
		DonorName:  "Jordan Doe",
		DonorEmail: "jordan@example.com",
		Amount:     5000,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if initiation.PaymentIntentID != "pi_123" {
		t.Fatalf("expected intent id pi_123, got %q", initiation.PaymentIntentID)
	}
	if initiation.RedirectURL == "" {
		t.Fatal("expected a redirect URL")
	}
	if repo.attachedIntentID != "pi_123" {
		t.Fatalf("expected intent attached to donation, got %q", repo.attachedIntentID)
	}
	if repo.donation.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected donation to stay pending, got %s", repo.donation.PaymentStatus)
	}
	if got := gateway.lastIntentReq.Metadata["donation_id"]; got != repo.donation.ID.String() {
		t.Fatalf("expected donation id in intent metadata, got %q", got)
	}
	if got := gateway.lastIntentReq.Metadata["cause_id"]; got != cause.ID.String() {
		t.Fatalf("expected cause id in intent metadata, got %q", got)
	}
}

func TestCreateDonation_MarksDonationFailedWhenIntentCreationFails(t *testing.T) {
	cause := activeCause()
	repo := &donationRepoStub{cause: cause}
	gateway := &gatewayStub{createErr: errors.New("gateway down")}
	svc := NewService(repo, gateway, nil, nil, "", 30)

	_, err := svc.CreateDonation(context.Background(), cause.ID, domain.CreateDonationRequest{Amount: 5000})
	if err == nil {
		t.Fatal("expected an error when intent creation fails")
	}
	if !repo.markFailedCalled {
		t.Fatal("expected the pending donation to be marked failed")
	}
	if gateway.initCalled != 0 {
		t.Fatal("did not expect payment initialization after intent failure")
	}
}

func TestCompleteDonation_ReplayIsAcknowledgedWithoutSideEffects(t *testing.T) {
	repo := &donationRepoStub{settleErr: store.ErrDonationAlreadyFinalized}
	mailer := &mailerStub{}
	svc := NewService(repo, &gatewayStub{}, mailer, nil, "", 30)

	if err := svc.CompleteDonation(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected replay to be acknowledged, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("did not expect receipt mail on replay, got %v", mailer.sent)
	}
}

func TestCompleteDonation_SendsReceiptAndSkipsGoalBelowTarget(t *testing.T) {
	cause := activeCause()
	repo := &donationRepoStub{
		cause: cause,
		settleResult: &domain.SettlementResult{
			Donation: domain.Donation{
				ID:         uuid.New(),
				CauseID:    cause.ID,
				DonorName:  "Jordan Doe",
				DonorEmail: "jordan@example.com",
				Amount:     5000,
				Currency:   "USD",
			},
			NewRaised:     5000,
			NewDonorCount: 1,
			TargetAmount:  100000,
			CrossedGoal:   false,
		},
	}
	mailer := &mailerStub{}
	svc := NewService(repo, &gatewayStub{}, mailer, nil, "", 30)

	if err := svc.CompleteDonation(context.Background(), repo.settleResult.Donation.ID); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected only the donor receipt, got %v", mailer.sent)
	}
}

func TestCompleteDonation_GoalCrossingTriggersMilestoneOnce(t *testing.T) {
	cause := activeCause()
	cause.RaisedAmount = 103000
	repo := &donationRepoStub{
		cause: cause,
		settleResult: &domain.SettlementResult{
			Donation: domain.Donation{
				ID:         uuid.New(),
				CauseID:    cause.ID,
				DonorEmail: "donor@example.com",
				Amount:     8000,
				Currency:   "USD",
			},
			NewRaised:     103000,
			NewDonorCount: 3,
			TargetAmount:  100000,
			CrossedGoal:   true,
		},
	}
	mailer := &mailerStub{}
	svc := NewService(repo, &gatewayStub{}, mailer, nil, "https://careconnect.health/causes", 30)

	if err := svc.CompleteDonation(context.Background(), repo.settleResult.Donation.ID); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	// Receipt to the donor plus the goal-reached mail to the organizer.
	if len(mailer.sent) != 2 {
		t.Fatalf("expected receipt and organizer goal mail, got %v", mailer.sent)
	}
}

func TestFailDonation_ReplayIsAcknowledged(t *testing.T) {
	repo := &donationRepoStub{}
	svc := NewService(repo, &gatewayStub{}, nil, nil, "", 30)

	// First failure marks the donation; the stub always succeeds.
	if err := svc.FailDonation(context.Background(), uuid.New(), "card declined"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !repo.markFailedCalled {
		t.Fatal("expected the donation to be marked failed")
	}
}

func TestListDonations_RedactsAnonymousDonors(t *testing.T) {
	causeID := uuid.New()
	repo := &listDonationsRepoStub{
		donations: []domain.Donation{
			{ID: uuid.New(), CauseID: causeID, DonorName: "Jordan Doe", DonorEmail: "jordan@example.com", Anonymous: false},
			{ID: uuid.New(), CauseID: causeID, DonorName: "Riley Smith", DonorEmail: "riley@example.com", Anonymous: true},
		},
	}
	svc := NewService(repo, &gatewayStub{}, nil, nil, "", 30)

	donations, err := svc.ListDonations(context.Background(), causeID, 20, 0)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if donations[0].DonorName != "Jordan Doe" {
		t.Fatalf("expected named donor untouched, got %q", donations[0].DonorName)
	}
	if donations[1].DonorName != "Anonymous" || donations[1].DonorEmail != "" {
		t.Fatalf("expected anonymous donor redacted, got %q %q", donations[1].DonorName, donations[1].DonorEmail)
	}
}

type listDonationsRepoStub struct {
	store.Repository
	donations []domain.Donation
}

func (s *listDonationsRepoStub) ListDonationsByCause(ctx context.Context, causeID uuid.UUID, limit, offset int) ([]domain.Donation, error) {
	return s.donations, nil
}
