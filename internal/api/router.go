/**
 * @description
 * This file sets up the HTTP router for the cause-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS handling for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// AdminRole gates verification, status, and disbursement endpoints.
const AdminRole = "admin"

// CauseRoutes creates and returns a new router for the cause service.
func CauseRoutes(h *CauseHandlers, webhook *WebhookHandler, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// The gateway authenticates with an HMAC signature, not a bearer token.
	r.Post("/webhooks/gateway", webhook.ServeHTTP)

	// Public read endpoints and the donation entry point. Donors are not
	// required to hold platform accounts.
	r.Get("/causes", h.ListCausesHandler)
	r.Get("/causes/{causeID}", h.GetCauseHandler)
	r.Get("/causes/{causeID}/donations", h.ListDonationsHandler)
	r.Get("/causes/{causeID}/disbursements", h.ListDisbursementsHandler)
	r.Get("/causes/{causeID}/updates", h.ListUpdatesHandler)
	r.Post("/causes/{causeID}/donations", h.CreateDonationHandler)
	r.Post("/causes/{causeID}/share", h.ShareCauseHandler)

	// Routes that require an authenticated platform user.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		r.Post("/causes", h.CreateCauseHandler)
		r.Post("/causes/{causeID}/submit", h.SubmitCauseHandler)
		r.Post("/causes/{causeID}/updates", h.CreateUpdateHandler)

		// Administrative endpoints.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(AdminRole))

			r.Post("/causes/{causeID}/verify", h.VerifyCauseHandler)
			r.Post("/causes/{causeID}/status", h.ChangeCauseStatusHandler)
			r.Post("/causes/{causeID}/disbursements", h.CreateDisbursementHandler)
		})
	})

	return r
}
