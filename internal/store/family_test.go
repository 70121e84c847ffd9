package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/model"
)

func TestCreateMemberDefaults(t *testing.T) {
	f := setupTestDB(t)

	m := f.child
	if m.FamilyID != f.familyID {
		t.Errorf("family_id = %d, want %d", m.FamilyID, f.familyID)
	}
	if !m.FamilyBucks.IsZero() || !m.TotalPointsEarned.IsZero() {
		t.Errorf("balances = %s/%s, want 0/0", m.FamilyBucks, m.TotalPointsEarned)
	}
	if m.PointsPerTask != 10 {
		t.Errorf("points_per_task = %d, want 10", m.PointsPerTask)
	}
	if !m.GamificationEnabled {
		t.Error("expected gamification enabled by default")
	}
	if len(m.AllowedPages) != 0 {
		t.Errorf("allowed_pages = %v, want empty", m.AllowedPages)
	}
	if m.SortOrder != 1 {
		t.Errorf("sort_order = %d, want 1", m.SortOrder)
	}
}

func TestCreateMemberDuplicateName(t *testing.T) {
	f := setupTestDB(t)

	_, err := NewFamilyStore(f.db).CreateMember(context.Background(), f.familyID, "Kid", model.RoleChild, "", "")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestGetMemberScopedToFamily(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	fs := NewFamilyStore(f.db)

	other, err := fs.CreateFamily(ctx, "Other")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	got, err := fs.GetMember(ctx, other.ID, f.child.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for member of another family, got %+v", got)
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	fs := NewFamilyStore(f.db)

	ppt := 25
	m, err := fs.UpdateSettings(ctx, f.familyID, f.child.ID, model.MemberSettings{PointsPerTask: &ppt})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if m.PointsPerTask != 25 {
		t.Errorf("points_per_task = %d, want 25", m.PointsPerTask)
	}
	if !m.GamificationEnabled {
		t.Error("gamification_enabled changed by partial update")
	}

	off := false
	pages := []string{"chores", "calendar"}
	m, err = fs.UpdateSettings(ctx, f.familyID, f.child.ID, model.MemberSettings{GamificationEnabled: &off, AllowedPages: &pages})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if m.GamificationEnabled {
		t.Error("expected gamification disabled")
	}
	if m.PointsPerTask != 25 {
		t.Errorf("points_per_task = %d, want 25", m.PointsPerTask)
	}
	if len(m.AllowedPages) != 2 || m.AllowedPages[0] != "chores" {
		t.Errorf("allowed_pages = %v, want [chores calendar]", m.AllowedPages)
	}
}

func TestPointsPerTaskCheckConstraint(t *testing.T) {
	f := setupTestDB(t)

	bad := 101
	_, err := NewFamilyStore(f.db).UpdateSettings(context.Background(), f.familyID, f.child.ID, model.MemberSettings{PointsPerTask: &bad})
	if err == nil {
		t.Fatal("expected check constraint error for points_per_task = 101")
	}
}

func TestPIN(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	fs := NewFamilyStore(f.db)

	hash, err := fs.GetPINHash(ctx, f.familyID, f.child.ID)
	if err != nil {
		t.Fatalf("get pin hash: %v", err)
	}
	if hash != "" {
		t.Errorf("hash = %q, want empty", hash)
	}

	if err := fs.SetPIN(ctx, f.familyID, f.child.ID, "hashed"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	m, _ := fs.GetMember(ctx, f.familyID, f.child.ID)
	if !m.HasPIN {
		t.Error("expected has_pin after SetPIN")
	}

	if err := fs.ClearPIN(ctx, f.familyID, f.child.ID); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	m, _ = fs.GetMember(ctx, f.familyID, f.child.ID)
	if m.HasPIN {
		t.Error("expected no pin after ClearPIN")
	}
}

func TestListParentIDs(t *testing.T) {
	f := setupTestDB(t)

	ids, err := NewFamilyStore(f.db).ListParentIDs(context.Background(), f.familyID)
	if err != nil {
		t.Fatalf("list parent ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != f.parent.ID {
		t.Errorf("parent ids = %v, want [%d]", ids, f.parent.ID)
	}
}
