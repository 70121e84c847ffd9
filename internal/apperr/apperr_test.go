package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	err := New(KindAlreadyVerified, "assignment %d already verified", 7)
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Error("expected errors.Is to match sentinel of the same kind")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is not to match a different kind")
	}
	if err.Error() != "assignment 7 already verified" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", NotFound("assignment not found"))
	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf = %q, want %q", got, KindNotFound)
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("expected wrapped error to match ErrNotFound")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("disk on fire")); got != KindInternal {
		t.Errorf("KindOf = %q, want %q", got, KindInternal)
	}
	if got := KindOf(nil); got != KindInternal {
		t.Errorf("KindOf(nil) = %q, want %q", got, KindInternal)
	}
}
