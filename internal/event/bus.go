package event

import (
	"log/slog"
	"sync"
	"time"
)

// Kind identifies a domain event.
type Kind string

const (
	// KindTaskNeedsAssignments signals that tasks should be re-evaluated
	// for new assignments; the repeat scheduler resets its watermark on it.
	KindTaskNeedsAssignments Kind = "task_needs_assignments"
	// KindTasksChanged carries the ids of tasks changed by the CRUD layer.
	KindTasksChanged Kind = "tasks_changed"
	// KindAssignmentsAdded carries the ids of newly created assignments.
	KindAssignmentsAdded Kind = "assignments_added"
	// KindAssignmentsUpdated carries the ids of assignments whose progress
	// status changed.
	KindAssignmentsUpdated Kind = "assignments_updated"
)

// Event is one domain event. TaskIDs and AssignmentIDs are populated
// depending on the kind.
type Event struct {
	Kind          Kind
	TaskIDs       []int64
	AssignmentIDs []int64
	At            time.Time
}

const subscriberBufferSize = 16

// Bus is a small in-process pub/sub bus. Publish never blocks: a
// subscriber whose buffer is full misses the event, so consumers that
// need completeness must be able to catch up from storage (the repeat
// scheduler does, via its periodic tick).
type Bus struct {
	mu     sync.RWMutex
	subs   map[Kind][]chan Event
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[Kind][]chan Event),
		logger: logger,
	}
}

// Subscribe returns a channel receiving every future event of the given
// kind. The channel is never closed by the bus.
func (b *Bus) Subscribe(kind Kind) <-chan Event {
	ch := make(chan Event, subscriberBufferSize)
	b.mu.Lock()
	b.subs[kind] = append(b.subs[kind], ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers the event to all subscribers of its kind.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.Kind] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event dropped, subscriber buffer full", "kind", e.Kind)
		}
	}
}

// SubscriberCount returns the number of subscribers for a kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
