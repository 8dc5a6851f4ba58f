/**
 * @description
 * Domain models for transparency updates: posts published on a cause and
 * fanned out by email to its donors. Updates can be human-authored, or
 * synthesized by the monthly batch job when a cause has gone quiet.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// CauseUpdate is a transparency post on a cause. SentToDonors flips exactly
// once, from false to true, after the donor fan-out attempt.
type CauseUpdate struct {
	ID           uuid.UUID `json:"id"`
	CauseID      uuid.UUID `json:"cause_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Images       []string  `json:"images,omitempty"`
	Author       string    `json:"author"`
	IsMilestone  bool      `json:"is_milestone"`
	PublishedAt  time.Time `json:"published_at"`
	SentToDonors bool      `json:"sent_to_donors"`
}

// CreateCauseUpdateRequest is the DTO for publishing an update on a cause.
type CreateCauseUpdateRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Images      []string `json:"images,omitempty"`
	IsMilestone bool     `json:"is_milestone"`
}
