/**
 * @description
 * The donation payment pipeline. Phase one creates a pending donation and a
 * payment intent at the gateway, handing the donor a redirect URL; no cause
 * totals move. Phase two runs when the gateway's webhook confirms settlement:
 * the donation is finalized and the cause totals are updated atomically, with
 * goal-reached detection derived from the post-increment totals so it fires
 * exactly once per cause.
 *
 * The gateway is the source of truth for whether money moved: nothing in the
 * donor-facing flow can complete a donation.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/store"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/gatewayclient"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/mailerclient"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/rabbitmq"
)

// CreateDonation starts a donation against an active cause. It persists the
// donation as pending, registers a payment intent with the gateway, and
// returns the redirect URL the donor must follow to pay. Cause totals are not
// touched here; funds are only counted once the gateway confirms settlement.
func (s *Service) CreateDonation(ctx context.Context, causeID uuid.UUID, req domain.CreateDonationRequest) (*domain.DonationInitiation, error) {
	cause, err := s.repo.FindCauseByID(ctx, causeID)
	if err != nil {
		log.Printf("level=error component=donations msg=\"cause lookup failed\" cause_id=%s err=%v", causeID, err)
		return nil, fmt.Errorf("failed to find cause: %w", err)
	}

	// The gate on donations: anything but active is refused before any
	// gateway call is made.
	if cause.Status != domain.CauseStatusActive {
		log.Printf("level=warn component=donations msg=\"donation refused for inactive cause\" cause_id=%s status=%s", cause.ID, cause.Status)
		return nil, ErrCauseNotActive
	}
	if req.Anonymous && !cause.AllowAnonymousDonations {
		return nil, ErrAnonymousNotAllowed
	}

	donation := &domain.Donation{
		ID:            uuid.New(),
		CauseID:       cause.ID,
		DonorName:     req.DonorName,
		DonorEmail:    req.DonorEmail,
		Anonymous:     req.Anonymous,
		Amount:        req.Amount,
		Currency:      cause.Currency,
		Message:       req.Message,
		PaymentStatus: domain.PaymentStatusPending,
	}
	if err := s.repo.CreateDonation(ctx, donation); err != nil {
		log.Printf("level=error component=donations msg=\"donation create failed\" cause_id=%s err=%v", cause.ID, err)
		return nil, fmt.Errorf("failed to create donation record: %w", err)
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, gatewayclient.CreateIntentRequest{
		Amount:   donation.Amount,
		Currency: donation.Currency,
		Customer: gatewayclient.Customer{Name: req.DonorName, Email: req.DonorEmail},
		Metadata: map[string]string{
			"donation_id": donation.ID.String(),
			"cause_id":    cause.ID.String(),
			"cause_title": cause.Title,
		},
	})
	if err != nil {
		// The donation never left pending and carries no intent; mark it
		// failed so it cannot be settled later.
		if failErr := s.repo.MarkDonationFailed(ctx, donation.ID); failErr != nil {
			log.Printf("level=error component=donations msg=\"orphaned pending donation after intent failure\" donation_id=%s err=%v", donation.ID, failErr)
		}
		log.Printf("level=error component=donations msg=\"payment intent creation failed\" donation_id=%s err=%v", donation.ID, err)
		return nil, fmt.Errorf("gateway intent creation failed: %w", err)
	}

	if err := s.repo.AttachPaymentIntent(ctx, donation.ID, intent.ID); err != nil {
		log.Printf("level=error component=donations msg=\"intent attach failed\" donation_id=%s intent_id=%s err=%v", donation.ID, intent.ID, err)
		return nil, fmt.Errorf("failed to attach payment intent: %w", err)
	}

	redirect, err := s.gateway.InitializePayment(ctx, intent.ID)
	if err != nil {
		log.Printf("level=error component=donations msg=\"payment initialization failed\" donation_id=%s intent_id=%s err=%v", donation.ID, intent.ID, err)
		return nil, fmt.Errorf("gateway payment initialization failed: %w", err)
	}

	log.Printf("level=info component=donations msg=\"donation initiated\" donation_id=%s cause_id=%s amount=%d", donation.ID, cause.ID, donation.Amount)
	return &domain.DonationInitiation{
		DonationID:      donation.ID,
		PaymentIntentID: intent.ID,
		RedirectURL:     redirect.RedirectURL,
	}, nil
}

// CompleteDonation finalizes a donation after the gateway confirms settlement.
// It is safe to call repeatedly: webhook retries for an already-settled
// donation are acknowledged without moving the cause totals again. Receipt
// mail, events, and the goal-reached side effects are best-effort; once the
// settlement transaction commits the donation is never left half-finalized
// because a notification failed.
func (s *Service) CompleteDonation(ctx context.Context, donationID uuid.UUID) error {
	result, err := s.repo.SettleDonation(ctx, donationID)
	if err != nil {
		if errors.Is(err, store.ErrDonationAlreadyFinalized) {
			log.Printf("level=info component=donations msg=\"settlement replay ignored\" donation_id=%s", donationID)
			return nil
		}
		log.Printf("level=error component=donations msg=\"settlement failed\" donation_id=%s err=%v", donationID, err)
		return fmt.Errorf("failed to settle donation: %w", err)
	}

	donation := result.Donation
	log.Printf("level=info component=donations msg=\"donation completed\" donation_id=%s cause_id=%s amount=%d new_raised=%d donor_count=%d",
		donation.ID, donation.CauseID, donation.Amount, result.NewRaised, result.NewDonorCount)

	s.sendMail(ctx, donation.DonorEmail, mailerclient.TemplateDonationReceipt, map[string]any{
		"donor_name": donation.DonorName,
		"amount":     donation.Amount,
		"currency":   donation.Currency,
		"cause_id":   donation.CauseID.String(),
	})

	s.publishEvent(ctx, rabbitmq.RouteDonationCompleted, domain.DonationCompletedEvent{
		DonationID: donation.ID,
		CauseID:    donation.CauseID,
		Amount:     donation.Amount,
		Currency:   donation.Currency,
		NewRaised:  result.NewRaised,
		Timestamp:  time.Now().UTC(),
	})

	if result.CrossedGoal {
		s.handleGoalReached(ctx, donation.CauseID, result)
	}
	return nil
}

// handleGoalReached runs the one-time milestone path for the settlement whose
// increment crossed the cause's target. All of it is best-effort.
func (s *Service) handleGoalReached(ctx context.Context, causeID uuid.UUID, result *domain.SettlementResult) {
	log.Printf("level=info component=donations msg=\"funding goal reached\" cause_id=%s raised=%d target=%d", causeID, result.NewRaised, result.TargetAmount)

	cause, err := s.repo.FindCauseByID(ctx, causeID)
	if err != nil {
		log.Printf("level=warn component=donations msg=\"cause lookup failed after goal crossing\" cause_id=%s err=%v", causeID, err)
		return
	}

	organizer, err := s.repo.FindUserByID(ctx, cause.OrganizerID)
	if err != nil {
		log.Printf("level=warn component=donations msg=\"organizer lookup failed; goal mail skipped\" cause_id=%s err=%v", causeID, err)
	} else {
		s.sendMail(ctx, organizer.Email, mailerclient.TemplateGoalReached, map[string]any{
			"organizer_name": organizer.FullName,
			"cause_title":    cause.Title,
			"raised_amount":  result.NewRaised,
			"target_amount":  result.TargetAmount,
		})
	}

	// Author the milestone update through the normal publishing path so donors
	// hear about it the same way they hear about any other update.
	milestone := domain.CreateCauseUpdateRequest{
		Title:       "Funding goal reached!",
		Content:     fmt.Sprintf("%s has reached its funding goal. Thank you to every donor who made this possible.", cause.Title),
		IsMilestone: true,
	}
	if _, err := s.PublishCauseUpdate(ctx, cause.ID, milestone, "CareConnect"); err != nil {
		log.Printf("level=warn component=donations msg=\"milestone update failed\" cause_id=%s err=%v", cause.ID, err)
	}

	s.publishEvent(ctx, rabbitmq.RouteGoalReached, domain.GoalReachedEvent{
		CauseID:      cause.ID,
		Title:        cause.Title,
		TargetAmount: result.TargetAmount,
		RaisedAmount: result.NewRaised,
		Timestamp:    time.Now().UTC(),
	})
}

// FailDonation marks a pending donation failed after the gateway reports the
// payment did not settle. Replays for an already-finalized donation are
// acknowledged without effect.
func (s *Service) FailDonation(ctx context.Context, donationID uuid.UUID, reason string) error {
	if err := s.repo.MarkDonationFailed(ctx, donationID); err != nil {
		if errors.Is(err, store.ErrDonationAlreadyFinalized) {
			log.Printf("level=info component=donations msg=\"failure replay ignored\" donation_id=%s", donationID)
			return nil
		}
		log.Printf("level=error component=donations msg=\"failure marking failed\" donation_id=%s err=%v", donationID, err)
		return fmt.Errorf("failed to mark donation failed: %w", err)
	}
	log.Printf("level=info component=donations msg=\"donation failed\" donation_id=%s reason=%q", donationID, reason)
	return nil
}

// DonationByPaymentIntent resolves a donation from the gateway's intent id,
// which is what webhook payloads carry.
func (s *Service) DonationByPaymentIntent(ctx context.Context, intentID string) (*domain.Donation, error) {
	return s.repo.FindDonationByPaymentIntentID(ctx, intentID)
}

// ListDonations returns a cause's donations with anonymous donor identities
// redacted.
func (s *Service) ListDonations(ctx context.Context, causeID uuid.UUID, limit, offset int) ([]domain.Donation, error) {
	donations, err := s.repo.ListDonationsByCause(ctx, causeID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range donations {
		if donations[i].Anonymous {
			donations[i].DonorName = "Anonymous"
			donations[i].DonorEmail = ""
		}
	}
	return donations, nil
}
