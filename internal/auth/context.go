package auth

import (
	"context"

	"github.com/dukerupert/homebase/internal/model"
)

type contextKey struct{}

// AuthContext is the caller identity resolved once per request. Services
// take it as an explicit argument; nothing below the handlers reads it from
// the request context.
type AuthContext struct {
	MemberID int64
	FamilyID int64
	Role     string
}

// IsParent reports whether the caller may manage chores and the ledger.
func (ac AuthContext) IsParent() bool {
	return ac.Role == model.RoleParent || ac.Role == model.RoleAdmin
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func FamilyID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.FamilyID
}

func MemberID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.MemberID
}

func IsParent(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.IsParent()
}
