package websocket

import (
	"context"

	"github.com/dukerupert/tuckborough/internal/event"
)

// Bridge relays domain events onto the hub so connected clients refresh
// without polling. It runs until the context is cancelled.
func Bridge(ctx context.Context, bus *event.Bus, hub *Hub) {
	tasksChanged := bus.Subscribe(event.KindTasksChanged)
	added := bus.Subscribe(event.KindAssignmentsAdded)
	updated := bus.Subscribe(event.KindAssignmentsUpdated)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-tasksChanged:
				hub.Broadcast(NewMessage("task", "changed", e.TaskIDs...))
			case e := <-added:
				hub.Broadcast(NewMessage("assignment", "added", e.AssignmentIDs...))
			case e := <-updated:
				hub.Broadcast(NewMessage("assignment", "updated", e.AssignmentIDs...))
			}
		}
	}()
}
