package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/homebase/internal/push"
)

// MemberNotifier is satisfied by *push.Notifier.
type MemberNotifier interface {
	NotifyMembers(ctx context.Context, familyID int64, memberIDs []int64, payload push.Payload) int
}

// ParentLister is satisfied by *store.FamilyStore.
type ParentLister interface {
	ListParentIDs(ctx context.Context, familyID int64) ([]int64, error)
}

// PushDispatcher turns review-related events into web push notifications:
// parents hear about work pending verification, the assignee hears the
// verdict. Other events are ignored.
type PushDispatcher struct {
	notifier MemberNotifier
	parents  ParentLister
	logger   *slog.Logger
}

func NewPushDispatcher(notifier MemberNotifier, parents ParentLister, logger *slog.Logger) *PushDispatcher {
	return &PushDispatcher{notifier: notifier, parents: parents, logger: logger}
}

func (d *PushDispatcher) Dispatch(ctx context.Context, e Event) {
	if e.Entity != EntityAssignment {
		return
	}
	title, _ := e.Extra["chore_title"].(string)
	tag := fmt.Sprintf("assignment-%d", e.EntityID)

	switch e.Action {
	case ActionCompleted:
		ids, err := d.parents.ListParentIDs(ctx, e.FamilyID)
		if err != nil {
			d.logger.Error("list parents for push", "family_id", e.FamilyID, "error", err)
			return
		}
		d.notifier.NotifyMembers(ctx, e.FamilyID, ids, push.Payload{
			Title: "Pending verification",
			Body:  fmt.Sprintf("%s is ready for review", title),
			URL:   "/chores",
			Tag:   tag,
		})
	case ActionVerified:
		body := fmt.Sprintf("%s was approved", title)
		if pts, ok := e.Extra["amount"].(string); ok {
			body = fmt.Sprintf("%s was approved: +%s points", title, pts)
		}
		d.notifier.NotifyMembers(ctx, e.FamilyID, []int64{e.MemberID}, push.Payload{
			Title: "Chore approved",
			Body:  body,
			URL:   "/chores",
			Tag:   tag,
		})
	case ActionRejected:
		d.notifier.NotifyMembers(ctx, e.FamilyID, []int64{e.MemberID}, push.Payload{
			Title: "Chore needs another try",
			Body:  fmt.Sprintf("%s was not approved", title),
			URL:   "/chores",
			Tag:   tag,
		})
	}
}
