package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/submanager/internal/api/middleware"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/dvloznov/submanager/internal/results"
	"github.com/rs/zerolog"
)

// SubscriptionsHandler serves and edits the session's detection result.
type SubscriptionsHandler struct {
	store *results.Store
	log   zerolog.Logger
}

// NewSubscriptionsHandler creates a new subscriptions handler.
func NewSubscriptionsHandler(store *results.Store, log zerolog.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{
		store: store,
		log:   log,
	}
}

// List handles GET /api/subscriptions
func (h *SubscriptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.session(w, r)
	if !ok {
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":        rs.RunID,
		"subscriptions": rs.Subscriptions,
		"count":         len(rs.Subscriptions),
	})
}

// Statistics handles GET /api/statistics
func (h *SubscriptionsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.session(w, r)
	if !ok {
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rs.Summary())
}

// Cancel handles POST /api/subscriptions/{id}/cancel
func (h *SubscriptionsHandler) Cancel(w http.ResponseWriter, r *http.Request, id string) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	sub, err := h.store.MarkCancelled(r.Context(), sessionID, id)
	if err != nil {
		h.writeStoreError(w, err, id)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sub)
}

// Delete handles DELETE /api/subscriptions/{id}
func (h *SubscriptionsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := h.store.Remove(r.Context(), sessionID, id); err != nil {
		h.writeStoreError(w, err, id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SubscriptionsHandler) session(w http.ResponseWriter, r *http.Request) (*results.ResultSet, bool) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return nil, false
	}

	rs, found := h.store.Get(r.Context(), sessionID)
	if !found {
		middleware.WriteError(w, http.StatusNotFound, "No detection results for session")
		return nil, false
	}
	return rs, true
}

func (h *SubscriptionsHandler) writeStoreError(w http.ResponseWriter, err error, id string) {
	if errors.Is(err, domain.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Subscription not found")
		return
	}
	h.log.Error().Err(err).Str("subscription_id", id).Msg("Failed to update subscription")
	middleware.WriteError(w, http.StatusInternalServerError, "Failed to update subscription")
}

func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, middleware.SessionIDHeader+" header is required")
		return "", false
	}
	return sessionID, true
}
