/**
 * @description
 * Transparency updates: publishing posts on a cause and fanning them out by
 * email to the cause's donors, plus the monthly batch pass that synthesizes a
 * progress update for active causes that have gone quiet.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/mailerclient"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/rabbitmq"
)

// excerptRunes is how much of an update's content goes into the fan-out email.
const excerptRunes = 200

// PublishCauseUpdate persists a transparency post and fans it out to every
// unique donor of the cause. Anonymous donations are excluded from the
// recipient set, recipients are de-duplicated by email, and each send failure
// is logged and skipped so the rest of the fan-out proceeds. The update is
// marked sent_to_donors after the fan-out attempt.
func (s *Service) PublishCauseUpdate(ctx context.Context, causeID uuid.UUID, req domain.CreateCauseUpdateRequest, author string) (*domain.CauseUpdate, error) {
	cause, err := s.repo.FindCauseByID(ctx, causeID)
	if err != nil {
		log.Printf("level=error component=updates msg=\"cause lookup failed\" cause_id=%s err=%v", causeID, err)
		return nil, fmt.Errorf("failed to find cause: %w", err)
	}

	update := &domain.CauseUpdate{
		ID:          uuid.New(),
		CauseID:     cause.ID,
		Title:       req.Title,
		Content:     req.Content,
		Images:      req.Images,
		Author:      author,
		IsMilestone: req.IsMilestone,
	}
	if err := s.repo.CreateCauseUpdate(ctx, update); err != nil {
		log.Printf("level=error component=updates msg=\"update create failed\" cause_id=%s err=%v", causeID, err)
		return nil, fmt.Errorf("failed to create cause update: %w", err)
	}

	recipients := s.fanOutUpdate(ctx, cause, update)

	if err := s.repo.MarkUpdateSentToDonors(ctx, update.ID); err != nil {
		log.Printf("level=warn component=updates msg=\"sent flag update failed\" update_id=%s err=%v", update.ID, err)
	} else {
		update.SentToDonors = true
	}

	s.publishEvent(ctx, rabbitmq.RouteUpdatePublished, domain.UpdatePublishedEvent{
		CauseID:     cause.ID,
		UpdateID:    update.ID,
		IsMilestone: update.IsMilestone,
		Recipients:  recipients,
		Timestamp:   time.Now().UTC(),
	})

	log.Printf("level=info component=updates msg=\"update published\" cause_id=%s update_id=%s recipients=%d", cause.ID, update.ID, recipients)
	return update, nil
}

// fanOutUpdate emails the update excerpt to every unique, non-anonymous donor
// of the cause. Returns the number of recipients attempted.
func (s *Service) fanOutUpdate(ctx context.Context, cause *domain.Cause, update *domain.CauseUpdate) int {
	donations, err := s.repo.ListCompletedDonations(ctx, cause.ID)
	if err != nil {
		log.Printf("level=warn component=updates msg=\"donor listing failed; fan-out skipped\" cause_id=%s err=%v", cause.ID, err)
		return 0
	}

	seen := make(map[string]bool)
	recipients := 0
	for _, donation := range donations {
		if donation.Anonymous {
			continue
		}
		email := strings.ToLower(strings.TrimSpace(donation.DonorEmail))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		recipients++

		s.sendMail(ctx, donation.DonorEmail, mailerclient.TemplateCauseUpdate, map[string]any{
			"donor_name":  donation.DonorName,
			"cause_title": cause.Title,
			"title":       update.Title,
			"excerpt":     truncate(update.Content, excerptRunes),
			"link":        fmt.Sprintf("%s/%s", strings.TrimRight(s.shareBaseURL, "/"), cause.ID),
		})
	}
	return recipients
}

func truncate(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

// ListUpdates returns a cause's transparency posts, newest first.
func (s *Service) ListUpdates(ctx context.Context, causeID uuid.UUID) ([]domain.CauseUpdate, error) {
	return s.repo.ListUpdatesByCause(ctx, causeID)
}

// SendMonthlyUpdates is the batch pass over active causes that have not had an
// update delivered inside the staleness window. Causes with a recent
// human-authored update are only re-stamped; everything else gets a
// synthesized progress update. The stamp is written regardless so the same
// cause is not re-scanned every run. Per-cause failures are logged and the
// scan continues.
func (s *Service) SendMonthlyUpdates(ctx context.Context) error {
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -s.stalenessDays)

	causes, err := s.repo.FindStaleActiveCauses(ctx, cutoff)
	if err != nil {
		log.Printf("level=error component=updates msg=\"stale cause scan failed\" err=%v", err)
		return fmt.Errorf("failed to scan stale causes: %w", err)
	}
	if len(causes) == 0 {
		log.Printf("level=info component=updates msg=\"no stale causes\"")
		return nil
	}

	for _, cause := range causes {
		hasRecent, err := s.repo.HasUpdateSince(ctx, cause.ID, cutoff)
		if err != nil {
			log.Printf("level=warn component=updates msg=\"recent update check failed\" cause_id=%s err=%v", cause.ID, err)
			continue
		}

		if !hasRecent {
			progress := domain.CreateCauseUpdateRequest{
				Title: fmt.Sprintf("Progress update: %s", cause.Title),
				Content: fmt.Sprintf("So far this cause has raised %s of its %s goal, thanks to %d donors. Every contribution brings the beneficiary closer to the care they need.",
					formatAmount(cause.RaisedAmount, cause.Currency), formatAmount(cause.TargetAmount, cause.Currency), cause.DonorCount),
			}
			if _, err := s.PublishCauseUpdate(ctx, cause.ID, progress, "CareConnect"); err != nil {
				log.Printf("level=warn component=updates msg=\"synthetic update failed\" cause_id=%s err=%v", cause.ID, err)
				continue
			}
		}

		if err := s.repo.StampLastUpdateSent(ctx, cause.ID, now); err != nil {
			log.Printf("level=warn component=updates msg=\"last_update_sent stamp failed\" cause_id=%s err=%v", cause.ID, err)
		}
	}

	log.Printf("level=info component=updates msg=\"monthly update pass finished\" causes=%d", len(causes))
	return nil
}

// formatAmount renders a cent amount as a whole-unit figure for update copy.
func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}
