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

type GamificationHandler struct {
	responder
	ledger *ledger.Service
}

func NewGamificationHandler(svc *ledger.Service, m *metrics.Metrics, logger *slog.Logger) *GamificationHandler {
	return &GamificationHandler{responder: responder{logger: logger, metrics: m}, ledger: svc}
}

type awardRequest struct {
	Amount      decimal.Decimal   `json:"amount"`
	Reason      model.AwardReason `json:"reason"`
	SourceRef   string            `json:"source_ref"`
	Description string            `json:"description"`
}

type awardResponse struct {
	FamilyBucks       decimal.Decimal   `json:"family_bucks"`
	TotalPointsEarned decimal.Decimal   `json:"total_points_earned"`
	Event             *model.AwardEvent `json:"event"`
	Duplicate         bool              `json:"duplicate,omitempty"`
}

// Award handles POST /api/members/{id}/awards
func (h *GamificationHandler) Award(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	var req awardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if req.Reason == "" {
		req.Reason = model.ReasonManualAward
	}

	res, err := h.ledger.AwardPoints(r.Context(), caller(r), ledger.Award{
		MemberID:    id,
		Amount:      req.Amount,
		Reason:      req.Reason,
		SourceRef:   req.SourceRef,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, awardResponse{
		FamilyBucks:       res.Balance.FamilyBucks,
		TotalPointsEarned: res.Balance.TotalPointsEarned,
		Event:             res.Event,
		Duplicate:         res.Duplicate,
	})
}

// History handles GET /api/members/{id}/awards?limit=
func (h *GamificationHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			h.badRequest(w, "invalid limit")
			return
		}
	}
	events, err := h.ledger.History(r.Context(), caller(r), id, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if events == nil {
		events = []model.AwardEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// State handles GET /api/members/{id}/gamification
func (h *GamificationHandler) State(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	st, err := h.ledger.GetState(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Configure handles PATCH /api/members/{id}/gamification
func (h *GamificationHandler) Configure(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	var req model.MemberSettings
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	m, err := h.ledger.ConfigureMember(r.Context(), caller(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.StateOf(m))
}

// Reconcile handles GET /api/members/{id}/reconcile
func (h *GamificationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	rec, err := h.ledger.Reconcile(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Leaderboard handles GET /api/leaderboard
func (h *GamificationHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.Leaderboard(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
