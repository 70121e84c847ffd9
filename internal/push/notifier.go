package push

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/store"
)

// Sender is the part of Service the Notifier needs.
type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

// Notifier delivers a payload to every device of a set of members and
// prunes subscriptions the push service reports as gone.
type Notifier struct {
	sender Sender
	subs   *store.PushStore
	logger *slog.Logger
}

func NewNotifier(sender Sender, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, subs: subs, logger: logger}
}

// NotifyMembers returns the number of devices the payload reached.
func (n *Notifier) NotifyMembers(ctx context.Context, familyID int64, memberIDs []int64, payload Payload) int {
	subs, err := n.subs.ListByMembers(ctx, familyID, memberIDs)
	if err != nil {
		n.logger.Error("list push subscriptions", "family_id", familyID, "error", err)
		return 0
	}

	sent := 0
	for i := range subs {
		sub := &subs[i]
		if err := n.sender.Send(ctx, sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := n.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
					n.logger.Error("delete expired subscription", "id", sub.ID, "error", err)
				}
				continue
			}
			n.logger.Warn("send push", "subscription_id", sub.ID, "error", err)
			continue
		}
		sent++
	}
	return sent
}
