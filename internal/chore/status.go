package chore

import (
	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/model"
)

// Event is something that happens to an assignment.
type Event string

const (
	EventComplete Event = "complete"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventReassign Event = "reassign"
)

type edge struct {
	from  model.AssignmentStatus
	event Event
}

var transitions = map[edge]model.AssignmentStatus{
	{model.StatusAssigned, EventComplete}: model.StatusCompleted,
	{model.StatusCompleted, EventApprove}: model.StatusVerified,
	{model.StatusCompleted, EventReject}:  model.StatusRejected,
	{model.StatusRejected, EventReassign}: model.StatusAssigned,
}

// Next returns the status an assignment moves to when event happens in
// from. Any review of a verified assignment is AlreadyVerified; every other
// missing edge is InvalidStateTransition.
func Next(from model.AssignmentStatus, event Event) (model.AssignmentStatus, error) {
	if to, ok := transitions[edge{from, event}]; ok {
		return to, nil
	}
	if from == model.StatusVerified && (event == EventApprove || event == EventReject) {
		return "", apperr.New(apperr.KindAlreadyVerified, "assignment is already verified")
	}
	return "", apperr.New(apperr.KindInvalidStateTransition, "cannot %s an assignment that is %s", event, from)
}

// reviewEvent maps a verification decision to its event.
func reviewEvent(approved bool) Event {
	if approved {
		return EventApprove
	}
	return EventReject
}
