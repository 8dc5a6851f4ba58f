/**
 * @description
 * This file contains the HTTP handler for processing incoming webhooks from the
 * payment gateway. It is the only entry point through which a pending donation
 * becomes completed or failed.
 *
 * Key features:
 * - Security: Validates the HMAC-SHA256 signature of incoming webhooks.
 * - Replay suppression: A Redis reservation on the delivery id drops duplicate
 *   deliveries before they hit the database. The settlement itself is also
 *   idempotent, so a missed reservation is still safe.
 * - Acknowledgement: Handled, duplicate, and unknown events all return 200 so
 *   the gateway stops retrying; only transient processing failures return 5xx.
 *
 * @dependencies
 * - crypto/hmac, crypto/sha256, encoding/hex: For webhook signature validation.
 * - internal/app, internal/domain, internal/store: For settlement logic and models.
 */

package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/app"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/store"
)

// SignatureHeader carries the gateway's HMAC-SHA256 hex digest of the raw body.
const SignatureHeader = "X-Gateway-Signature"

// WebhookHandler processes payment lifecycle webhooks from the gateway.
type WebhookHandler struct {
	service *app.Service
	deduper app.WebhookDeduper
	secret  string
}

// NewWebhookHandler creates a new handler for the gateway webhook endpoint.
func NewWebhookHandler(service *app.Service, deduper app.WebhookDeduper, secret string) *WebhookHandler {
	return &WebhookHandler{service: service, deduper: deduper, secret: secret}
}

// ServeHTTP implements the http.Handler interface.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Read the raw body once; the signature covers the exact bytes sent.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("level=error component=webhook msg=\"cannot read body\" err=%v", err)
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}

	// 2. Validate the signature before touching the payload.
	if !h.isValidSignature(r.Header.Get(SignatureHeader), body) {
		log.Printf("level=warn component=webhook outcome=reject reason=invalid_signature remote=%s", r.RemoteAddr)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	// 3. Decode the webhook payload.
	var event domain.GatewayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=warn component=webhook outcome=reject reason=bad_json err=%v", err)
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	log.Printf("level=info component=webhook msg=\"event received\" delivery_id=%s event=%s intent_id=%s", event.ID, event.Event, event.Data.ID)

	ctx := r.Context()

	// 4. Reserve the delivery id. Losing Redis degrades to the database
	// guards, so a reservation error is logged and processing continues.
	if event.ID != "" && h.deduper != nil {
		fresh, err := h.deduper.Reserve(ctx, event.ID)
		if err != nil {
			log.Printf("level=warn component=webhook msg=\"dedup reservation failed, continuing\" delivery_id=%s err=%v", event.ID, err)
		} else if !fresh {
			log.Printf("level=info component=webhook outcome=duplicate delivery_id=%s", event.ID)
			h.ack(w, "Duplicate delivery ignored")
			return
		}
	}

	// 5. Process the event based on its type.
	switch event.Event {
	case domain.GatewayEventPaymentSucceeded:
		err = h.handlePaymentSucceeded(ctx, event)
	case domain.GatewayEventPaymentFailed:
		err = h.handlePaymentFailed(ctx, event)
	default:
		log.Printf("level=info component=webhook outcome=ignored reason=unhandled_event event=%s", event.Event)
		h.ack(w, "Webhook received")
		return
	}

	if err != nil {
		// An unknown intent id means the donation is not ours to settle.
		// Acknowledge it so the gateway stops retrying a lost cause.
		if errors.Is(err, store.ErrDonationNotFound) {
			log.Printf("level=warn component=webhook outcome=ignored reason=unknown_intent intent_id=%s", event.Data.ID)
			h.ack(w, "Webhook received")
			return
		}
		log.Printf("level=error component=webhook outcome=failed event=%s intent_id=%s err=%v", event.Event, event.Data.ID, err)
		http.Error(w, "Internal server error during event processing", http.StatusInternalServerError)
		return
	}

	h.ack(w, "Webhook processed")
}

func (h *WebhookHandler) handlePaymentSucceeded(ctx context.Context, event domain.GatewayWebhookEvent) error {
	donation, err := h.service.DonationByPaymentIntent(ctx, event.Data.ID)
	if err != nil {
		return err
	}
	return h.service.CompleteDonation(ctx, donation.ID)
}

func (h *WebhookHandler) handlePaymentFailed(ctx context.Context, event domain.GatewayWebhookEvent) error {
	donation, err := h.service.DonationByPaymentIntent(ctx, event.Data.ID)
	if err != nil {
		return err
	}
	return h.service.FailDonation(ctx, donation.ID, event.Data.FailureReason())
}

// isValidSignature validates the HMAC-SHA256 hex signature of the webhook body.
func (h *WebhookHandler) isValidSignature(signatureHeader string, body []byte) bool {
	if h.secret == "" {
		log.Printf("level=warn component=webhook msg=\"GATEWAY_WEBHOOK_SECRET is not set, skipping signature validation\"")
		return true
	}

	header := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(signatureHeader), "sha256="))
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(header)
	if err != nil {
		return false
	}
	return hmac.Equal(provided, expected)
}

func (h *WebhookHandler) ack(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(message))
}
