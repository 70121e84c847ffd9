package store

import (
	"context"
	"testing"
)

func TestRewardCRUD(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	rs := NewRewardStore(f.db)

	reward, err := rs.Create(ctx, f.familyID, "Ice Cream Trip", "Go get ice cream!", 5000, true)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	if reward.Cost.String() != "50" {
		t.Errorf("cost = %s, want 50", reward.Cost)
	}
	if !reward.Active {
		t.Error("expected active")
	}

	if _, err := rs.Create(ctx, f.familyID, "Retired", "", 100, false); err != nil {
		t.Fatalf("create reward: %v", err)
	}

	active, err := rs.List(ctx, f.familyID, true)
	if err != nil {
		t.Fatalf("list rewards: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("active = %d, want 1", len(active))
	}
	all, _ := rs.List(ctx, f.familyID, false)
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}

	if err := rs.Delete(ctx, f.familyID, reward.ID); err != nil {
		t.Fatalf("delete reward: %v", err)
	}
	got, err := rs.GetByID(ctx, f.familyID, reward.ID)
	if err != nil {
		t.Fatalf("get reward: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestRedemptionSurvivesRewardDelete(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	rs := NewRewardStore(f.db)

	reward, _ := rs.Create(ctx, f.familyID, "Movie", "", 300, true)
	red, err := rs.CreateRedemption(ctx, f.familyID, &reward.ID, f.child.ID, 300, reward.Title)
	if err != nil {
		t.Fatalf("create redemption: %v", err)
	}
	if red.RewardID == nil || *red.RewardID != reward.ID {
		t.Errorf("reward_id = %v, want %d", red.RewardID, reward.ID)
	}

	rs.Delete(ctx, f.familyID, reward.ID)

	list, err := rs.ListRedemptionsByMember(ctx, f.familyID, f.child.ID)
	if err != nil {
		t.Fatalf("list redemptions: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if list[0].RewardID != nil {
		t.Errorf("reward_id = %v, want nil", *list[0].RewardID)
	}
	if list[0].Title != "Movie" || list[0].Amount.String() != "3" {
		t.Errorf("redemption = %+v", list[0])
	}
}
