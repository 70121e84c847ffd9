package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/homebase/internal/model"
)

func createTestChore(t *testing.T, f *fixture, reward *int) *model.Chore {
	t.Helper()
	c, err := NewChoreStore(f.db).Create(context.Background(), f.familyID, &f.parent.ID, model.ChoreInput{
		Title:        "Dishes",
		Difficulty:   model.DifficultyEasy,
		PointsReward: reward,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	return c
}

func TestChoreCRUD(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	cs := NewChoreStore(f.db)

	reward := 25
	c := createTestChore(t, f, &reward)
	if c.PointsReward == nil || *c.PointsReward != 25 {
		t.Errorf("points_reward = %v, want 25", c.PointsReward)
	}
	if c.CreatedBy == nil || *c.CreatedBy != f.parent.ID {
		t.Errorf("created_by = %v, want %d", c.CreatedBy, f.parent.ID)
	}

	updated, err := cs.Update(ctx, f.familyID, c.ID, model.ChoreInput{
		Title:          "Dishes and counters",
		Difficulty:     model.DifficultyMedium,
		AllowanceCents: 50,
	})
	if err != nil {
		t.Fatalf("update chore: %v", err)
	}
	if updated.Title != "Dishes and counters" {
		t.Errorf("title = %q, want %q", updated.Title, "Dishes and counters")
	}
	if updated.PointsReward != nil {
		t.Errorf("points_reward = %v, want nil", *updated.PointsReward)
	}
	if updated.AllowanceCents != 50 {
		t.Errorf("allowance_cents = %d, want 50", updated.AllowanceCents)
	}

	list, err := cs.List(ctx, f.familyID)
	if err != nil {
		t.Fatalf("list chores: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}

	got, err := cs.GetByID(ctx, f.familyID+1, c.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for another family")
	}
}

func TestAssignmentTransitions(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	cs := NewChoreStore(f.db)
	c := createTestChore(t, f, nil)

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a, err := cs.CreateAssignment(ctx, f.familyID, c.ID, f.child.ID, &f.parent.ID, &due)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	if a.Status != model.StatusAssigned {
		t.Errorf("status = %q, want assigned", a.Status)
	}
	if a.ChoreTitle != "Dishes" {
		t.Errorf("chore_title = %q, want Dishes", a.ChoreTitle)
	}
	if a.DueDate == nil || !a.DueDate.Equal(due) {
		t.Errorf("due_date = %v, want %v", a.DueDate, due)
	}

	now := time.Now()

	// Verifying before completion must not apply.
	ok, err := cs.MarkVerified(ctx, f.familyID, a.ID, f.parent.ID, now)
	if err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	if ok {
		t.Error("verify applied to an assigned row")
	}

	ok, err = cs.MarkCompleted(ctx, f.familyID, a.ID, f.child.ID, now)
	if err != nil || !ok {
		t.Fatalf("mark completed = %v, %v", ok, err)
	}
	ok, _ = cs.MarkCompleted(ctx, f.familyID, a.ID, f.child.ID, now)
	if ok {
		t.Error("second completion applied")
	}

	ok, err = cs.MarkRejected(ctx, f.familyID, a.ID, f.parent.ID, "streaks on plates", now)
	if err != nil || !ok {
		t.Fatalf("mark rejected = %v, %v", ok, err)
	}
	a, _ = cs.GetAssignment(ctx, f.familyID, a.ID)
	if a.Status != model.StatusRejected || a.RejectionReason != "streaks on plates" {
		t.Errorf("status/reason = %q/%q", a.Status, a.RejectionReason)
	}

	ok, err = cs.Reopen(ctx, f.familyID, a.ID, nil, now)
	if err != nil || !ok {
		t.Fatalf("reopen = %v, %v", ok, err)
	}
	a, _ = cs.GetAssignment(ctx, f.familyID, a.ID)
	if a.Status != model.StatusAssigned {
		t.Errorf("status = %q, want assigned", a.Status)
	}
	if a.CompletedAt != nil || a.ReviewedAt != nil || a.RejectionReason != "" {
		t.Errorf("completion/review fields not cleared: %+v", a)
	}
	if a.DueDate == nil || !a.DueDate.Equal(due) {
		t.Errorf("due_date = %v, want kept %v", a.DueDate, due)
	}

	cs.MarkCompleted(ctx, f.familyID, a.ID, f.child.ID, now)
	ok, err = cs.MarkVerified(ctx, f.familyID, a.ID, f.parent.ID, now)
	if err != nil || !ok {
		t.Fatalf("mark verified = %v, %v", ok, err)
	}
	ok, _ = cs.MarkVerified(ctx, f.familyID, a.ID, f.parent.ID, now)
	if ok {
		t.Error("second verification applied")
	}
}

func TestListAssignmentsFilter(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	cs := NewChoreStore(f.db)
	c := createTestChore(t, f, nil)

	a1, _ := cs.CreateAssignment(ctx, f.familyID, c.ID, f.child.ID, &f.parent.ID, nil)
	cs.CreateAssignment(ctx, f.familyID, c.ID, f.parent.ID, &f.parent.ID, nil)
	cs.MarkCompleted(ctx, f.familyID, a1.ID, f.child.ID, time.Now())

	all, err := cs.ListAssignments(ctx, f.familyID, model.AssignmentFilter{})
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len = %d, want 2", len(all))
	}

	mine, _ := cs.ListAssignments(ctx, f.familyID, model.AssignmentFilter{AssignedTo: f.child.ID})
	if len(mine) != 1 || mine[0].ID != a1.ID {
		t.Errorf("assignee filter = %+v", mine)
	}

	done, _ := cs.ListAssignments(ctx, f.familyID, model.AssignmentFilter{Status: model.StatusCompleted})
	if len(done) != 1 || done[0].ID != a1.ID {
		t.Errorf("status filter = %+v", done)
	}
}

func TestDeleteChoreCountsOpenAssignments(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	cs := NewChoreStore(f.db)
	c := createTestChore(t, f, nil)

	a1, _ := cs.CreateAssignment(ctx, f.familyID, c.ID, f.child.ID, &f.parent.ID, nil)
	cs.CreateAssignment(ctx, f.familyID, c.ID, f.child.ID, &f.parent.ID, nil)
	now := time.Now()
	cs.MarkCompleted(ctx, f.familyID, a1.ID, f.child.ID, now)
	cs.MarkVerified(ctx, f.familyID, a1.ID, f.parent.ID, now)

	open, err := cs.Delete(ctx, f.familyID, c.ID)
	if err != nil {
		t.Fatalf("delete chore: %v", err)
	}
	if open != 1 {
		t.Errorf("open = %d, want 1", open)
	}

	left, _ := cs.ListAssignments(ctx, f.familyID, model.AssignmentFilter{})
	if len(left) != 0 {
		t.Errorf("assignments left = %d, want 0", len(left))
	}
}
