/**
 * @description
 * This package provides a client for the platform's transactional mail API.
 * Every notification this service sends - verification-team alerts, organizer
 * decisions, donation receipts, goal-reached alerts, and update fan-out - goes
 * through the same templated Send call.
 */
package mailerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Template names understood by the mail delivery service.
const (
	TemplateVerificationRequested = "cause_verification_requested"
	TemplateVerificationDecision  = "cause_verification_decision"
	TemplateDonationReceipt       = "donation_receipt"
	TemplateGoalReached           = "cause_goal_reached"
	TemplateCauseUpdate           = "cause_update"
)

// Client is a client for the mail delivery API.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewClient creates a new mailer client. From is the sender address stamped on
// every message.
func NewClient(baseURL, apiKey, from string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type sendRequest struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

// Send delivers one templated message. A nil client is a no-op so callers can
// run without a configured mailer in local development.
func (c *Client) Send(ctx context.Context, to, template string, data map[string]any) error {
	if c == nil {
		return nil
	}
	if c.baseURL == "" {
		return fmt.Errorf("mailer base url is empty")
	}

	body, err := json.Marshal(sendRequest{From: c.from, To: to, Template: template, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute mail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mailer returned error status %d", resp.StatusCode)
	}
	return nil
}
