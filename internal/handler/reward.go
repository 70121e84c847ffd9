package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/homebase/internal/ledger"
	"github.com/dukerupert/homebase/internal/metrics"
	"github.com/dukerupert/homebase/internal/model"
)

type RewardHandler struct {
	responder
	ledger *ledger.Service
}

func NewRewardHandler(svc *ledger.Service, m *metrics.Metrics, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{responder: responder{logger: logger, metrics: m}, ledger: svc}
}

// Create handles POST /api/rewards
func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Cost        decimal.Decimal `json:"cost"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	reward, err := h.ledger.CreateReward(r.Context(), caller(r), req.Title, req.Description, req.Cost)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

// List handles GET /api/rewards?all=true. Only parents see inactive rewards.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	rewards, err := h.ledger.ListRewards(r.Context(), caller(r), all)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

// Delete handles DELETE /api/rewards/{id}
func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	if err := h.ledger.DeleteReward(r.Context(), caller(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Redeem handles POST /api/rewards/{id}/redeem. The member defaults to the
// caller.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	var req struct {
		MemberID int64 `json:"member_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	ac := caller(r)
	if req.MemberID == 0 {
		req.MemberID = ac.MemberID
	}
	res, err := h.ledger.Redeem(r.Context(), ac, id, req.MemberID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Redemptions handles GET /api/members/{id}/redemptions
func (h *RewardHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	list, err := h.ledger.Redemptions(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []model.RewardRedemption{}
	}
	writeJSON(w, http.StatusOK, list)
}
