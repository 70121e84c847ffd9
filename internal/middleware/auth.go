package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/model"
)

// Identity headers set by the upstream authentication layer.
const (
	HeaderMemberID = "X-Member-ID"
	HeaderFamilyID = "X-Family-ID"
)

// MemberLookup is satisfied by *store.FamilyStore.
type MemberLookup interface {
	GetMember(ctx context.Context, familyID, id int64) (*model.Member, error)
}

// RequireIdentity resolves the caller named by the identity headers and
// populates AuthContext. The role always comes from the store, never from
// the request.
func RequireIdentity(members MemberLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			memberID, err1 := strconv.ParseInt(r.Header.Get(HeaderMemberID), 10, 64)
			familyID, err2 := strconv.ParseInt(r.Header.Get(HeaderFamilyID), 10, 64)
			if err1 != nil || err2 != nil || memberID <= 0 || familyID <= 0 {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "missing or malformed identity headers")
				return
			}

			member, err := members.GetMember(r.Context(), familyID, memberID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal", "internal error")
				return
			}
			if member == nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "unknown member")
				return
			}

			ac := auth.AuthContext{
				MemberID: member.ID,
				FamilyID: member.FamilyID,
				Role:     member.Role,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireParent rejects callers who are not a parent or admin.
func RequireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsParent(r.Context()) {
			writeError(w, http.StatusForbidden, "forbidden", "parent role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
