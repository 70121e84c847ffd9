package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Reward struct {
	ID          int64           `json:"id"`
	FamilyID    int64           `json:"family_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

type RewardRedemption struct {
	ID        int64           `json:"id"`
	FamilyID  int64           `json:"family_id"`
	RewardID  *int64          `json:"reward_id"`
	MemberID  int64           `json:"member_id"`
	Amount    decimal.Decimal `json:"amount"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
}
