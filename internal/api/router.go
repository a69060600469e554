package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Validation and hook dispatch.
	r.Post("/validate", h.Validate)
	r.Post("/hooks/{kind}", h.DispatchHook)

	// Rule management.
	r.Get("/rules", h.ListRules)
	r.Patch("/rules/{id}", h.PatchRule)

	// Execution statistics.
	r.Get("/stats/operations", h.OperationStats)
	r.Get("/stats/slow", h.SlowOperations)

	// Execution audit log.
	r.Get("/audit", h.AuditLog)

	// Runtime settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
