package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/homebase/internal/chore"
	"github.com/dukerupert/homebase/internal/metrics"
	"github.com/dukerupert/homebase/internal/model"
)

type ChoreHandler struct {
	responder
	svc *chore.Service
}

func NewChoreHandler(svc *chore.Service, m *metrics.Metrics, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{responder: responder{logger: logger, metrics: m}, svc: svc}
}

// Create handles POST /api/chores
func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ChoreInput
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	c, err := h.svc.CreateChore(r.Context(), caller(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// List handles GET /api/chores
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.svc.ListChores(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

// Get handles GET /api/chores/{id}
func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	c, err := h.svc.GetChore(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Update handles PUT /api/chores/{id}
func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	var req model.ChoreInput
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	c, err := h.svc.UpdateChore(r.Context(), caller(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/chores/{id}. The response reports how many
// unverified assignments went with the chore.
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	res, err := h.svc.DeleteChore(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Assign handles POST /api/chores/{id}/assignments
func (h *ChoreHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	var req struct {
		AssigneeID int64  `json:"assignee_id"`
		DueDate    string `json:"due_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if req.AssigneeID <= 0 {
		h.badRequest(w, "assignee_id is required")
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.svc.Assign(r.Context(), caller(r), id, req.AssigneeID, due)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListAssignments handles GET /api/assignments?assignee=&status=&chore=
func (h *ChoreHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.AssignmentFilter{Status: model.AssignmentStatus(q.Get("status"))}
	for key, dst := range map[string]*int64{"assignee": &f.AssignedTo, "chore": &f.ChoreID} {
		if v := q.Get(key); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				h.badRequest(w, "invalid "+key)
				return
			}
			*dst = n
		}
	}
	list, err := h.svc.ListAssignments(r.Context(), caller(r), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetAssignment handles GET /api/assignments/{id}
func (h *ChoreHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	a, err := h.svc.GetAssignment(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Complete handles POST /api/assignments/{id}/complete
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	a, err := h.svc.Complete(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Verify handles POST /api/assignments/{id}/verify
func (h *ChoreHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	var req struct {
		Approved *bool  `json:"approved"`
		Reason   string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if req.Approved == nil {
		h.badRequest(w, "approved is required")
		return
	}
	res, err := h.svc.Verify(r.Context(), caller(r), id, *req.Approved, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reassign handles POST /api/assignments/{id}/reassign
func (h *ChoreHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	var req struct {
		DueDate string `json:"due_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.svc.Reassign(r.Context(), caller(r), id, due)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
