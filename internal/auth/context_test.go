package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		MemberID: 1,
		FamilyID: 2,
		Role:     "parent",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.MemberID != 1 {
		t.Errorf("MemberID = %d, want 1", got.MemberID)
	}
	if got.FamilyID != 2 {
		t.Errorf("FamilyID = %d, want 2", got.FamilyID)
	}
	if got.Role != "parent" {
		t.Errorf("Role = %q, want %q", got.Role, "parent")
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestFamilyID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{FamilyID: 42})
	if FamilyID(ctx) != 42 {
		t.Errorf("FamilyID = %d, want 42", FamilyID(ctx))
	}
	if FamilyID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}

func TestMemberID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{MemberID: 7})
	if MemberID(ctx) != 7 {
		t.Errorf("MemberID = %d, want 7", MemberID(ctx))
	}
	if MemberID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}

func TestIsParent(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"parent", true},
		{"admin", true},
		{"child", false},
		{"member", false},
		{"", false},
	}
	for _, tt := range tests {
		ctx := WithAuth(context.Background(), AuthContext{Role: tt.role})
		if got := IsParent(ctx); got != tt.want {
			t.Errorf("IsParent(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
	if IsParent(context.Background()) {
		t.Error("expected false for missing context")
	}
}
