package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member roles. Parents and admins manage chores and the ledger.
const (
	RoleParent = "parent"
	RoleAdmin  = "admin"
	RoleChild  = "child"
	RoleMember = "member"
)

// ValidRole reports whether role is one of the known member roles.
func ValidRole(role string) bool {
	switch role {
	case RoleParent, RoleAdmin, RoleChild, RoleMember:
		return true
	}
	return false
}

type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is a family member together with their ledger account.
type Member struct {
	ID                  int64           `json:"id"`
	FamilyID            int64           `json:"family_id"`
	Name                string          `json:"name"`
	Role                string          `json:"role"`
	Color               string          `json:"color"`
	AvatarEmoji         string          `json:"avatar_emoji"`
	HasPIN              bool            `json:"has_pin"`
	SortOrder           int             `json:"sort_order"`
	FamilyBucks         decimal.Decimal `json:"family_bucks"`
	TotalPointsEarned   decimal.Decimal `json:"total_points_earned"`
	PointsPerTask       int             `json:"points_per_task"`
	GamificationEnabled bool            `json:"gamification_enabled"`
	AllowedPages        []string        `json:"allowed_pages"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// IsParent reports whether the member may manage chores and awards.
func (m *Member) IsParent() bool {
	return m.Role == RoleParent || m.Role == RoleAdmin
}

// MemberSettings is a partial update of a member's gamification settings.
// Nil fields are left unchanged.
type MemberSettings struct {
	GamificationEnabled *bool     `json:"gamification_enabled,omitempty"`
	PointsPerTask       *int      `json:"points_per_task,omitempty"`
	AllowedPages        *[]string `json:"allowed_pages,omitempty"`
}
