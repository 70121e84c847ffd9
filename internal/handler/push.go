package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/metrics"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/store"
)

type PushHandler struct {
	responder
	pushStore *store.PushStore
	publicKey string
}

// NewPushHandler serves subscription management. An empty publicKey means
// push is not configured.
func NewPushHandler(ps *store.PushStore, publicKey string, m *metrics.Metrics, logger *slog.Logger) *PushHandler {
	return &PushHandler{responder: responder{logger: logger, metrics: m}, pushStore: ps, publicKey: publicKey}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ac := caller(r)

	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		h.badRequest(w, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.pushStore.CreateSubscription(r.Context(), ac.MemberID, ac.FamilyID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ac := caller(r)
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	sub, err := h.pushStore.GetByID(r.Context(), ac.FamilyID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if sub == nil || (sub.MemberID != ac.MemberID && !ac.IsParent()) {
		h.fail(w, r, apperr.NotFound("subscription %d not found", id))
		return
	}
	if err := h.pushStore.DeleteSubscription(r.Context(), ac.FamilyID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSubscriptions handles GET /api/push/subscriptions
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	ac := caller(r)
	subs, err := h.pushStore.ListByMembers(r.Context(), ac.FamilyID, []int64{ac.MemberID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// GetVAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.publicKey == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "push notifications are not configured", "code": string(apperr.KindNotFound)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.publicKey})
}
