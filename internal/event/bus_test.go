package event

import (
	"log/slog"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus(slog.Default())

	ch := bus.Subscribe(KindTasksChanged)
	bus.Publish(Event{Kind: KindTasksChanged, TaskIDs: []int64{1, 2}})

	select {
	case e := <-ch:
		if e.Kind != KindTasksChanged {
			t.Errorf("kind = %s, want %s", e.Kind, KindTasksChanged)
		}
		if len(e.TaskIDs) != 2 {
			t.Errorf("task ids = %v, want [1 2]", e.TaskIDs)
		}
		if e.At.IsZero() {
			t.Error("publish must stamp the event time")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
}

func TestPublishOnlyMatchingKind(t *testing.T) {
	bus := NewBus(slog.Default())

	tasks := bus.Subscribe(KindTasksChanged)
	assignments := bus.Subscribe(KindAssignmentsAdded)

	bus.Publish(Event{Kind: KindAssignmentsAdded, AssignmentIDs: []int64{7}})

	select {
	case e := <-tasks:
		t.Errorf("unexpected event on tasks channel: %+v", e)
	default:
	}
	select {
	case e := <-assignments:
		if len(e.AssignmentIDs) != 1 || e.AssignmentIDs[0] != 7 {
			t.Errorf("assignment ids = %v, want [7]", e.AssignmentIDs)
		}
	default:
		t.Error("expected an event on the assignments channel")
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	bus := NewBus(slog.Default())
	// Should not panic or block.
	bus.Publish(Event{Kind: KindTaskNeedsAssignments})
}

func TestPublishDoesNotBlockOnFullBuffer(t *testing.T) {
	bus := NewBus(slog.Default())

	ch := bus.Subscribe(KindTasksChanged)
	for i := 0; i < subscriberBufferSize+5; i++ {
		bus.Publish(Event{Kind: KindTasksChanged, TaskIDs: []int64{int64(i)}})
	}

	// The slow subscriber lost the overflow but kept the first events.
	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			if count != subscriberBufferSize {
				t.Errorf("buffered events = %d, want %d", count, subscriberBufferSize)
			}
			return
		}
	}
}

func TestSubscriberCount(t *testing.T) {
	bus := NewBus(slog.Default())

	if got := bus.SubscriberCount(KindTasksChanged); got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
	bus.Subscribe(KindTasksChanged)
	bus.Subscribe(KindTasksChanged)
	if got := bus.SubscriberCount(KindTasksChanged); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
	if got := bus.SubscriberCount(KindAssignmentsAdded); got != 0 {
		t.Errorf("count for other kind = %d, want 0", got)
	}
}

func TestPublishFanOut(t *testing.T) {
	bus := NewBus(slog.Default())

	a := bus.Subscribe(KindAssignmentsUpdated)
	b := bus.Subscribe(KindAssignmentsUpdated)

	bus.Publish(Event{Kind: KindAssignmentsUpdated, AssignmentIDs: []int64{3}})

	for i, ch := range []<-chan Event{a, b} {
		select {
		case <-ch:
		default:
			t.Errorf("subscriber %d never received the event", i)
		}
	}
}
