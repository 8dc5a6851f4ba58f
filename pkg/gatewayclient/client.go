/**
 * @description
 * This package provides a client for the payment gateway's REST API. It
 * encapsulates the two calls the donation pipeline needs: creating a payment
 * intent for an amount/currency/customer, and initializing the hosted payment
 * page for an intent to obtain the donor-facing redirect URL.
 *
 * Settlement is never reported through these calls; the gateway confirms it
 * asynchronously via webhook, and that webhook is the source of truth for
 * whether money actually moved.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the payment gateway API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new payment gateway client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Customer identifies the paying donor to the gateway.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateIntentRequest is the payload for creating a payment intent.
type CreateIntentRequest struct {
	Amount   int64             `json:"amount"` // in cents
	Currency string            `json:"currency"`
	Customer Customer          `json:"customer"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Intent is the gateway's record of a payment attempt.
type Intent struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// RedirectDetails carries the hosted payment page URL the donor is sent to.
type RedirectDetails struct {
	RedirectURL string `json:"redirect_url"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// ErrorResponse represents an error envelope from the gateway API.
type ErrorResponse struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Status string `json:"status"`
	} `json:"errors"`
}

func (e *ErrorResponse) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("gateway api error: %s - %s", e.Errors[0].Title, e.Errors[0].Detail)
	}
	return "unknown gateway api error"
}

// CreatePaymentIntent registers a payment attempt with the gateway and returns
// the intent that settlement webhooks will later reference.
func (c *Client) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	var intent Intent
	if err := c.do(ctx, http.MethodPost, "/v1/payment-intents", req, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// InitializePayment asks the gateway for the hosted payment page of an intent.
func (c *Client) InitializePayment(ctx context.Context, intentID string) (*RedirectDetails, error) {
	var details RedirectDetails
	path := fmt.Sprintf("/v1/payment-intents/%s/initialize", intentID)
	if err := c.do(ctx, http.MethodPost, path, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && len(apiErr.Errors) > 0 {
			return &apiErr
		}
		return fmt.Errorf("gateway returned error status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
