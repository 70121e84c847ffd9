package notify

import (
	"context"

	"github.com/dukerupert/homebase/internal/websocket"
)

// HubDispatcher broadcasts events to the family's websocket clients.
type HubDispatcher struct {
	hub *websocket.Hub
}

func NewHubDispatcher(hub *websocket.Hub) *HubDispatcher {
	return &HubDispatcher{hub: hub}
}

func (d *HubDispatcher) Dispatch(_ context.Context, e Event) {
	if d == nil || d.hub == nil {
		return
	}
	d.hub.Broadcast(e.FamilyID, websocket.Message{
		Type:     e.Type(),
		Entity:   e.Entity,
		Action:   e.Action,
		ID:       e.EntityID,
		MemberID: e.MemberID,
		Extra:    e.Extra,
	})
}
