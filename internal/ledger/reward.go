package ledger

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/notify"
	"github.com/dukerupert/homebase/internal/store"
)

// RedeemResult pairs a redemption with the member's balance after it.
type RedeemResult struct {
	Redemption *model.RewardRedemption `json:"redemption"`
	Balance    *model.Balance          `json:"balance"`
}

func (s *Service) CreateReward(ctx context.Context, caller auth.AuthContext, title, description string, cost decimal.Decimal) (*model.Reward, error) {
	if !caller.IsParent() {
		return nil, apperr.Forbidden("only a parent can create rewards")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.InvalidInput("title is required")
	}
	if err := ValidateAmount(cost); err != nil {
		return nil, err
	}
	r, err := s.rewards.Create(ctx, caller.FamilyID, title, description, model.CentsFromDecimal(cost), true)
	if err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, notify.Event{
		Entity:   notify.EntityReward,
		Action:   notify.ActionCreated,
		FamilyID: caller.FamilyID,
		EntityID: r.ID,
	})
	return r, nil
}

// ListRewards returns the family's rewards. Children only ever see the
// active ones.
func (s *Service) ListRewards(ctx context.Context, caller auth.AuthContext, includeInactive bool) ([]model.Reward, error) {
	return s.rewards.List(ctx, caller.FamilyID, !(includeInactive && caller.IsParent()))
}

// DeleteReward removes a reward. Past redemptions keep their title and
// amount snapshots.
func (s *Service) DeleteReward(ctx context.Context, caller auth.AuthContext, rewardID int64) error {
	if !caller.IsParent() {
		return apperr.Forbidden("only a parent can delete rewards")
	}
	r, err := s.rewards.GetByID(ctx, caller.FamilyID, rewardID)
	if err != nil {
		return err
	}
	if r == nil {
		return apperr.NotFound("reward %d not found", rewardID)
	}
	if err := s.rewards.Delete(ctx, caller.FamilyID, rewardID); err != nil {
		return err
	}
	s.dispatcher.Dispatch(ctx, notify.Event{
		Entity:   notify.EntityReward,
		Action:   notify.ActionDeleted,
		FamilyID: caller.FamilyID,
		EntityID: rewardID,
	})
	return nil
}

// Redeem spends Family Bucks on a reward. It is the only debit of the
// spendable balance and never lowers lifetime points.
func (s *Service) Redeem(ctx context.Context, caller auth.AuthContext, rewardID, memberID int64) (*RedeemResult, error) {
	if !caller.IsParent() && caller.MemberID != memberID {
		return nil, apperr.Forbidden("members can only redeem rewards for themselves")
	}

	var result RedeemResult
	var title string
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rs := store.NewRewardStore(tx)
		reward, err := rs.GetByID(ctx, caller.FamilyID, rewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return apperr.NotFound("reward %d not found", rewardID)
		}
		if !reward.Active {
			return apperr.InvalidInput("reward %q is not available", reward.Title)
		}
		title = reward.Title

		cost := model.CentsFromDecimal(reward.Cost)
		bal, err := store.NewLedgerStore(tx).Debit(ctx, caller.FamilyID, memberID, cost)
		if err != nil {
			return err
		}
		red, err := rs.CreateRedemption(ctx, caller.FamilyID, &reward.ID, memberID, cost, reward.Title)
		if err != nil {
			return err
		}
		result = RedeemResult{Redemption: red, Balance: bal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveRedemption()
	s.logger.Info("reward redeemed",
		"family_id", caller.FamilyID,
		"member_id", memberID,
		"reward", title,
		"amount", result.Redemption.Amount.String(),
	)
	s.dispatcher.Dispatch(ctx, notify.Event{
		Entity:   notify.EntityReward,
		Action:   notify.ActionRedeemed,
		FamilyID: caller.FamilyID,
		MemberID: memberID,
		EntityID: result.Redemption.ID,
		Extra: map[string]any{
			"title":        title,
			"amount":       result.Redemption.Amount.String(),
			"family_bucks": result.Balance.FamilyBucks.String(),
		},
	})
	return &result, nil
}

// Redemptions lists a member's past spends, newest first.
func (s *Service) Redemptions(ctx context.Context, caller auth.AuthContext, memberID int64) ([]model.RewardRedemption, error) {
	if !caller.IsParent() && caller.MemberID != memberID {
		return nil, apperr.Forbidden("cannot view another member's redemptions")
	}
	return s.rewards.ListRedemptionsByMember(ctx, caller.FamilyID, memberID)
}
