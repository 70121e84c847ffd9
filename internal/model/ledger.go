package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AwardReason tags why a ledger credit happened.
type AwardReason string

const (
	ReasonChoreVerified AwardReason = "chore_verified"
	ReasonManualAward   AwardReason = "manual_award"
	ReasonTaskCompleted AwardReason = "task_completed"
)

func (r AwardReason) Valid() bool {
	switch r {
	case ReasonChoreVerified, ReasonManualAward, ReasonTaskCompleted:
		return true
	}
	return false
}

// AwardEvent is an immutable record of one ledger credit.
type AwardEvent struct {
	ID             int64           `json:"id"`
	UID            string          `json:"uid"`
	FamilyID       int64           `json:"family_id"`
	MemberID       int64           `json:"member_id"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         AwardReason     `json:"reason"`
	SourceRef      *string         `json:"source_ref"`
	Description    string          `json:"description"`
	AllowanceCents int             `json:"allowance_cents"`
	AwardedBy      *int64          `json:"awarded_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Balance is the pair of ledger counters after a mutation.
type Balance struct {
	FamilyBucks       decimal.Decimal `json:"family_bucks"`
	TotalPointsEarned decimal.Decimal `json:"total_points_earned"`
}

// GamificationState is what the dashboard renders for one member.
type GamificationState struct {
	MemberID            int64           `json:"member_id"`
	FamilyBucks         decimal.Decimal `json:"family_bucks"`
	TotalPointsEarned   decimal.Decimal `json:"total_points_earned"`
	Level               int64           `json:"level"`
	ProgressPercent     decimal.Decimal `json:"progress_percent"`
	PointsToNextLevel   decimal.Decimal `json:"points_to_next_level"`
	GamificationEnabled bool            `json:"gamification_enabled"`
	PointsPerTask       int             `json:"points_per_task"`
}

type LeaderboardEntry struct {
	MemberID          int64           `json:"member_id"`
	MemberName        string          `json:"member_name"`
	FamilyBucks       decimal.Decimal `json:"family_bucks"`
	TotalPointsEarned decimal.Decimal `json:"total_points_earned"`
	Level             int64           `json:"level"`
}

// Reconciliation compares stored counters with the totals implied by the
// award and redemption history.
type Reconciliation struct {
	MemberID      int64           `json:"member_id"`
	StoredBucks   decimal.Decimal `json:"stored_family_bucks"`
	StoredTotal   decimal.Decimal `json:"stored_total_points_earned"`
	Awarded       decimal.Decimal `json:"awarded"`
	Redeemed      decimal.Decimal `json:"redeemed"`
	ExpectedBucks decimal.Decimal `json:"expected_family_bucks"`
	Balanced      bool            `json:"balanced"`
}

// DecimalFromCents converts a stored hundredths value to a decimal.
func DecimalFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// CentsFromDecimal converts a decimal to stored hundredths, truncating any
// digits past the second decimal place. Callers validate precision first.
func CentsFromDecimal(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}
