package chore

import (
	"errors"
	"testing"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/model"
)

func TestNextLegalEdges(t *testing.T) {
	tests := []struct {
		from  model.AssignmentStatus
		event Event
		want  model.AssignmentStatus
	}{
		{model.StatusAssigned, EventComplete, model.StatusCompleted},
		{model.StatusCompleted, EventApprove, model.StatusVerified},
		{model.StatusCompleted, EventReject, model.StatusRejected},
		{model.StatusRejected, EventReassign, model.StatusAssigned},
	}
	for _, tt := range tests {
		got, err := Next(tt.from, tt.event)
		if err != nil {
			t.Errorf("Next(%s, %s) error: %v", tt.from, tt.event, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Next(%s, %s) = %q, want %q", tt.from, tt.event, got, tt.want)
		}
	}
}

func TestNextIllegalEdges(t *testing.T) {
	statuses := []model.AssignmentStatus{model.StatusAssigned, model.StatusCompleted, model.StatusVerified, model.StatusRejected}
	events := []Event{EventComplete, EventApprove, EventReject, EventReassign}

	for _, from := range statuses {
		for _, ev := range events {
			if _, ok := transitions[edge{from, ev}]; ok {
				continue
			}
			_, err := Next(from, ev)
			want := apperr.ErrInvalidStateTransition
			if from == model.StatusVerified && (ev == EventApprove || ev == EventReject) {
				want = apperr.ErrAlreadyVerified
			}
			if !errors.Is(err, want) {
				t.Errorf("Next(%s, %s) error = %v, want kind %s", from, ev, err, want.Kind)
			}
		}
	}
}

func TestReviewEvent(t *testing.T) {
	if reviewEvent(true) != EventApprove {
		t.Errorf("reviewEvent(true) = %q, want %q", reviewEvent(true), EventApprove)
	}
	if reviewEvent(false) != EventReject {
		t.Errorf("reviewEvent(false) = %q, want %q", reviewEvent(false), EventReject)
	}
}
