package handler

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/metrics"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/store"
)

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type MemberHandler struct {
	responder
	store *store.FamilyStore
}

func NewMemberHandler(s *store.FamilyStore, m *metrics.Metrics, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{responder: responder{logger: logger, metrics: m}, store: s}
}

// List handles GET /api/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.ListMembers(r.Context(), caller(r).FamilyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// Create handles POST /api/members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := caller(r)
	if !ac.IsParent() {
		h.fail(w, r, apperr.Forbidden("only a parent can add members"))
		return
	}

	var req struct {
		Name        string `json:"name"`
		Role        string `json:"role"`
		Color       string `json:"color"`
		AvatarEmoji string `json:"avatar_emoji"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.badRequest(w, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleChild
	}
	if !model.ValidRole(req.Role) {
		h.badRequest(w, "role must be parent, admin, child or member")
		return
	}
	if req.Color == "" {
		req.Color = "#3B82F6"
	}
	if !hexColorRegexp.MatchString(req.Color) {
		h.badRequest(w, "color must be a hex color (e.g. #FF0000)")
		return
	}
	if req.AvatarEmoji == "" {
		req.AvatarEmoji = "😀"
	}

	member, err := h.store.CreateMember(r.Context(), ac.FamilyID, req.Name, req.Role, req.Color, req.AvatarEmoji)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// Delete handles DELETE /api/members/{id}. Award history is kept.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := caller(r)
	if !ac.IsParent() {
		h.fail(w, r, apperr.Forbidden("only a parent can remove members"))
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	if id == ac.MemberID {
		h.badRequest(w, "cannot remove yourself")
		return
	}
	if _, ok := h.member(w, r, id); !ok {
		return
	}
	if err := h.store.DeleteMember(r.Context(), ac.FamilyID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPIN handles PUT /api/members/{id}/pin. Members set their own PIN;
// parents may set anyone's.
func (h *MemberHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	ac := caller(r)
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	if !ac.IsParent() && ac.MemberID != id {
		h.fail(w, r, apperr.Forbidden("cannot change another member's PIN"))
		return
	}
	if _, ok := h.member(w, r, id); !ok {
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if len(req.PIN) != 4 || !isDigits(req.PIN) {
		h.badRequest(w, "PIN must be exactly 4 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.SetPIN(r.Context(), ac.FamilyID, id, string(hash)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin set"})
}

// ClearPIN handles DELETE /api/members/{id}/pin
func (h *MemberHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	ac := caller(r)
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	if !ac.IsParent() && ac.MemberID != id {
		h.fail(w, r, apperr.Forbidden("cannot change another member's PIN"))
		return
	}
	if err := h.store.ClearPIN(r.Context(), ac.FamilyID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin cleared"})
}

// VerifyPIN handles POST /api/members/{id}/pin/verify
func (h *MemberHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	var req struct {
		PIN string `json:"pin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}

	hash, err := h.store.GetPINHash(r.Context(), caller(r).FamilyID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if hash == "" {
		h.badRequest(w, "no PIN set for this member")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect PIN", "code": "incorrect_pin"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// member loads id from the caller's family, writing 404 when it is absent.
func (h *MemberHandler) member(w http.ResponseWriter, r *http.Request, id int64) (*model.Member, bool) {
	m, err := h.store.GetMember(r.Context(), caller(r).FamilyID, id)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if m == nil {
		h.fail(w, r, apperr.NotFound("member %d not found", id))
		return nil, false
	}
	return m, true
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
