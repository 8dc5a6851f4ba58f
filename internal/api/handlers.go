/**
 * @description
 * This file contains the HTTP handlers for the cause-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/app"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/store"
)

// CauseHandlers holds the application service that handlers will use.
type CauseHandlers struct {
	service *app.Service
}

// NewCauseHandlers creates a new instance of CauseHandlers.
func NewCauseHandlers(service *app.Service) *CauseHandlers {
	return &CauseHandlers{service: service}
}

// CreateCauseHandler handles requests to create a new cause in draft state.
func (h *CauseHandlers) CreateCauseHandler(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var req domain.CreateCauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		h.writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.TargetAmount <= 0 {
		h.writeError(w, http.StatusBadRequest, "Target amount must be positive")
		return
	}

	cause, err := h.service.CreateCause(r.Context(), organizerID, req)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "Organizer not found")
			return
		}
		log.Printf("level=error component=api endpoint=create_cause outcome=failed organizer_id=%s err=%v", organizerID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not create cause")
		return
	}

	h.writeJSON(w, http.StatusCreated, cause)
}

// SubmitCauseHandler handles requests to submit a draft cause for verification.
func (h *CauseHandlers) SubmitCauseHandler(w http.ResponseWriter, r *http.Request) {
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Documents []string `json:"documents"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	cause, err := h.service.SubmitForVerification(r.Context(), causeID, req.Documents)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCauseNotFound):
			h.writeError(w, http.StatusNotFound, "Cause not found")
		case errors.Is(err, store.ErrInvalidCauseState):
			h.writeError(w, http.StatusConflict, "Cause cannot be submitted from its current state")
		default:
			log.Printf("level=error component=api endpoint=submit_cause outcome=failed cause_id=%s err=%v", causeID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not submit cause")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, cause)
}

// VerifyCauseHandler handles an administrator's verification decision.
func (h *CauseHandlers) VerifyCauseHandler(w http.ResponseWriter, r *http.Request) {
	verifierID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	var req domain.VerifyCauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cause, err := h.service.VerifyCause(r.Context(), causeID, req.Decision, req.Notes, verifierID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidDecision):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrCauseNotFound):
			h.writeError(w, http.StatusNotFound, "Cause not found")
		case errors.Is(err, store.ErrInvalidCauseState):
			h.writeError(w, http.StatusConflict, "Cause is not pending verification")
		default:
			log.Printf("level=error component=api endpoint=verify_cause outcome=failed cause_id=%s verifier_id=%s err=%v", causeID, verifierID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not record verification decision")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, cause)
}

// ChangeCauseStatusHandler handles administrative status transitions
// (pause, resume, complete, suspend a cause).
func (h *CauseHandlers) ChangeCauseStatusHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Status domain.CauseStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status == "" {
		h.writeError(w, http.StatusBadRequest, "Status is required")
		return
	}

	cause, err := h.service.ChangeCauseStatus(r.Context(), causeID, req.Status, actorID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCauseNotFound):
			h.writeError(w, http.StatusNotFound, "Cause not found")
		case errors.Is(err, store.ErrInvalidCauseState):
			h.writeError(w, http.StatusConflict, "Transition not permitted from the cause's current state")
		default:
			log.Printf("level=error component=api endpoint=change_cause_status outcome=failed cause_id=%s target=%s err=%v", causeID, req.Status, err)
			h.writeError(w, http.StatusInternalServerError, "Could not change cause status")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, cause)
}

// GetCauseHandler returns one cause and counts the view.
func (h *CauseHandlers) GetCauseHandler(w http.ResponseWriter, r *http.Request) {
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	cause, err := h.service.GetCause(r.Context(), causeID)
	if err != nil {
		if errors.Is(err, store.ErrCauseNotFound) {
			h.writeError(w, http.StatusNotFound, "Cause not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_cause outcome=failed cause_id=%s err=%v", causeID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not fetch cause")
		return
	}

	// View counting is best-effort and never fails the read.
	if err := h.service.RecordCauseView(r.Context(), causeID); err != nil {
		log.Printf("level=warn component=api endpoint=get_cause msg=\"view count increment failed\" cause_id=%s err=%v", causeID, err)
	}

	h.writeJSON(w, http.StatusOK, cause)
}

// ListCausesHandler returns a page of causes, optionally filtered by status.
func (h *CauseHandlers) ListCausesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseOptionalInt(r.URL.Query().Get("limit"), 20)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	offset, err := parseOptionalInt(r.URL.Query().Get("offset"), 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid offset")
		return
	}

	var status *domain.CauseStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s := domain.CauseStatus(raw)
		status = &s
	}

	causes, err := h.service.ListCauses(r.Context(), status, limit, offset)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_causes outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not list causes")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"causes": causes,
		"limit":  limit,
		"offset": offset,
	})
}

// ShareCauseHandler counts a share of the cause's public page.
func (h *CauseHandlers) ShareCauseHandler(w http.ResponseWriter, r *http.Request) {
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.RecordCauseShare(r.Context(), causeID); err != nil {
		if errors.Is(err, store.ErrCauseNotFound) {
			h.writeError(w, http.StatusNotFound, "Cause not found")
			return
		}
		log.Printf("level=error component=api endpoint=share_cause outcome=failed cause_id=%s err=%v", causeID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not record share")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// CreateDonationHandler starts phase one of the donation pipeline: a pending
// donation record plus a payment intent whose redirect URL the donor follows.
func (h *CauseHandlers) CreateDonationHandler(w http.ResponseWriter, r *http.Request) {
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	var req domain.CreateDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		h.writeError(w, http.StatusBadRequest, "Donation amount must be positive")
		return
	}

	initiation, err := h.service.CreateDonation(r.Context(), causeID, req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCauseNotFound):
			h.writeError(w, http.StatusNotFound, "Cause not found")
		case errors.Is(err, app.ErrCauseNotActive):
			h.writeError(w, http.StatusConflict, "Cause is not accepting donations")
		case errors.Is(err, app.ErrAnonymousNotAllowed):
			h.writeError(w, http.StatusBadRequest, "This cause does not accept anonymous donations")
		default:
			log.Printf("level=error component=api endpoint=create_donation outcome=failed cause_id=%s err=%v", causeID, err)
			h.writeError(w, http.StatusBadGateway, "Could not initiate payment")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, initiation)
}

// ListDonationsHandler returns a page of a cause's donations. Anonymous donors
// come back redacted.
func (h *CauseHandlers) ListDonationsHandler(w http.ResponseWriter, r *http.Request) {
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}
	limit, err := parseOptionalInt(r.URL.Query().Get("limit"), 20)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	offset, err := parseOptionalInt(r.URL.Query().Get("offset"), 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid offset")
		return
	}

	donations, err := h.service.ListDonations(r.Context(), causeID, limit, offset)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_donations outcome=failed cause_id=%s err=%v", causeID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not list donations")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"donations": donations,
		"limit":     limit,
		"offset":    offset,
	})
}

// CreateDisbursementHandler appends an approved outflow to the cause's
// transparency ledger.
func (h *CauseHandlers) CreateDisbursementHandler(w http.ResponseWriter, r *http.Request) {
	approverID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	var req domain.CreateDisbursementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		h.writeError(w, http.StatusBadRequest, "Disbursement amount must be positive")
		return
	}
	if strings.TrimSpace(req.Purpose) == "" || strings.TrimSpace(req.Recipient) == "" {
		h.writeError(w, http.StatusBadRequest, "Purpose and recipient are required")
		return
	}

	entry, err := h.service.CreateDisbursement(r.Context(), causeID, approverID, req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCauseNotFound):
			h.writeError(w, http.StatusNotFound, "Cause not found")
		case errors.Is(err, store.ErrDisbursementExceedsRaised):
			h.writeError(w, http.StatusConflict, "Disbursement would exceed the amount raised")
		default:
			log.Printf("level=error component=api endpoint=create_disbursement outcome=failed cause_id=%s approver_id=%s err=%v", causeID, approverID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not record disbursement")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, entry)
}

// ListDisbursementsHandler returns a cause's full transparency ledger with
// running totals.
func (h *CauseHandlers) ListDisbursementsHandler(w http.ResponseWriter, r *http.Request) {
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListDisbursements(r.Context(), causeID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_disbursements outcome=failed cause_id=%s err=%v", causeID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not list disbursements")
		return
	}

	var total int64
	for _, e := range entries {
		total += e.Amount
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"disbursements":   entries,
		"total_disbursed": total,
	})
}

// CreateUpdateHandler publishes a transparency update and fans it out to the
// cause's donors by email.
func (h *CauseHandlers) CreateUpdateHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	var req domain.CreateCauseUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		h.writeError(w, http.StatusBadRequest, "Title and content are required")
		return
	}

	author := userID.String()
	if user, err := h.service.GetUser(r.Context(), userID); err == nil {
		author = user.FullName
	}

	update, err := h.service.PublishCauseUpdate(r.Context(), causeID, req, author)
	if err != nil {
		if errors.Is(err, store.ErrCauseNotFound) {
			h.writeError(w, http.StatusNotFound, "Cause not found")
			return
		}
		log.Printf("level=error component=api endpoint=create_update outcome=failed cause_id=%s err=%v", causeID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not publish update")
		return
	}

	h.writeJSON(w, http.StatusCreated, update)
}

// ListUpdatesHandler returns a cause's published updates, newest first.
func (h *CauseHandlers) ListUpdatesHandler(w http.ResponseWriter, r *http.Request) {
	causeID, ok := h.causeIDParam(w, r)
	if !ok {
		return
	}

	updates, err := h.service.ListUpdates(r.Context(), causeID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_updates outcome=failed cause_id=%s err=%v", causeID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not list updates")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"updates": updates})
}

// authenticatedUserID pulls the caller's id from the request context and
// parses it, writing the error response itself on failure.
func (h *CauseHandlers) authenticatedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}

// causeIDParam parses the {causeID} URL parameter, writing the error response
// itself on failure.
func (h *CauseHandlers) causeIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	causeID, err := uuid.Parse(chi.URLParam(r, "causeID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid cause ID format")
		return uuid.Nil, false
	}
	return causeID, true
}

// parseOptionalInt parses a query parameter that may be absent, falling back
// to the given default. Negative values are rejected.
func parseOptionalInt(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid integer")
	}
	return v, nil
}

// writeJSON is a helper for writing JSON responses.
func (h *CauseHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *CauseHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
