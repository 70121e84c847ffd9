// Package notify fans domain events out to connected clients, the message
// bus and members' devices. Dispatch never fails the caller: delivery
// problems are logged by the individual dispatchers.
package notify

import (
	"context"
)

const (
	EntityChore      = "chore"
	EntityAssignment = "assignment"
	EntityLedger     = "ledger"
	EntityMember     = "member"
	EntityReward     = "reward"
)

const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionCompleted  = "completed"
	ActionVerified   = "verified"
	ActionRejected   = "rejected"
	ActionReassigned = "reassigned"
	ActionCredited   = "credited"
	ActionRedeemed   = "redeemed"
	ActionConfigured = "configured"
)

// Event describes one committed state change.
type Event struct {
	Entity   string         `json:"entity"`
	Action   string         `json:"action"`
	FamilyID int64          `json:"family_id"`
	MemberID int64          `json:"member_id,omitempty"`
	EntityID int64          `json:"entity_id,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Type is the wire name of the event, e.g. "assignment_completed".
func (e Event) Type() string {
	return e.Entity + "_" + e.Action
}

type Dispatcher interface {
	Dispatch(ctx context.Context, e Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Dispatch(context.Context, Event) {}

// Multi dispatches to each dispatcher in order.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, e Event) {
	for _, d := range m {
		if d != nil {
			d.Dispatch(ctx, e)
		}
	}
}

// Func adapts a plain function to Dispatcher.
type Func func(ctx context.Context, e Event)

func (f Func) Dispatch(ctx context.Context, e Event) {
	f(ctx, e)
}
