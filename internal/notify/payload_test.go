package notify

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/tuckborough/internal/database"
	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/store"
)

type notifyFixture struct {
	members     *store.MemberStore
	houses      *store.HouseStore
	tasks       *store.TaskStore
	assignments *store.AssignmentStore
	tokens      *store.PushTokenStore
	gen         *Generator

	merry  *model.Member
	pippin *model.Member
	house  *model.House
	task   *model.Task
}

func setupNotifyTest(t *testing.T) *notifyFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &notifyFixture{
		members:     store.NewMemberStore(db),
		houses:      store.NewHouseStore(db),
		tasks:       store.NewTaskStore(db),
		assignments: store.NewAssignmentStore(db),
		tokens:      store.NewPushTokenStore(db),
	}
	f.gen = NewGenerator(f.tasks, f.assignments, f.houses, f.tokens, slog.Default())

	if f.merry, err = f.members.Create("Merry"); err != nil {
		t.Fatalf("create member: %v", err)
	}
	if f.pippin, err = f.members.Create("Pippin"); err != nil {
		t.Fatalf("create member: %v", err)
	}
	if f.house, err = f.houses.Create("Bag End", f.merry.ID); err != nil {
		t.Fatalf("create house: %v", err)
	}
	if _, err = f.houses.AddMember(f.house.ID, f.pippin.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if f.task, err = f.tasks.Create("Take out bins", "", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), 1, model.RepeatWeek, nil, f.house.ID, f.merry.ID, true); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return f
}

func (f *notifyFixture) register(t *testing.T, memberID int64, deviceID string) {
	t.Helper()
	endpoint := fmt.Sprintf("https://push.example.org/%d/%s", memberID, deviceID)
	if _, err := f.tokens.Register(memberID, deviceID, endpoint, "p256dh", "auth"); err != nil {
		t.Fatalf("register token: %v", err)
	}
}

func TestForTasksOneMessagePerDevice(t *testing.T) {
	f := setupNotifyTest(t)
	f.register(t, f.merry.ID, "phone")
	f.register(t, f.merry.ID, "tablet")
	f.register(t, f.pippin.ID, "phone")

	messages, err := f.gen.ForTasks([]int64{f.task.ID}, time.Now().UTC())
	if err != nil {
		t.Fatalf("for tasks: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages (one per device), got %d", len(messages))
	}

	perMember := make(map[int64]int)
	for _, m := range messages {
		perMember[m.Token.MemberID]++
		if m.Payload.Action != ActionTaskUpdate {
			t.Errorf("action = %q, want %q", m.Payload.Action, ActionTaskUpdate)
		}
		if len(m.Payload.CompletedByOthers) != 0 || len(m.Payload.DeclinedByOthers) != 0 {
			t.Errorf("task update payloads carry no name lists, got %+v", m.Payload)
		}
	}
	if perMember[f.merry.ID] != 2 {
		t.Errorf("Merry has 2 devices, got %d messages", perMember[f.merry.ID])
	}
	if perMember[f.pippin.ID] != 1 {
		t.Errorf("Pippin has 1 device, got %d messages", perMember[f.pippin.ID])
	}
}

func TestForTasksNoTokensNoMessages(t *testing.T) {
	f := setupNotifyTest(t)

	messages, err := f.gen.ForTasks([]int64{f.task.ID}, time.Now().UTC())
	if err != nil {
		t.Fatalf("for tasks: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages without registered devices, got %d", len(messages))
	}
}

func TestForTasksMissingTaskSkipped(t *testing.T) {
	f := setupNotifyTest(t)
	f.register(t, f.merry.ID, "phone")

	messages, err := f.gen.ForTasks([]int64{9999}, time.Now().UTC())
	if err != nil {
		t.Fatalf("for tasks: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("a deleted task produces nothing, got %d messages", len(messages))
	}
}

func TestForAssignmentsOwnerSeesWhoFinishedIt(t *testing.T) {
	f := setupNotifyTest(t)
	f.register(t, f.merry.ID, "phone")
	f.register(t, f.pippin.ID, "phone")

	// Merry owns the assignment; Pippin marks it done instead.
	a, err := f.assignments.Create(f.task.ID, f.merry.ID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.ProgressTodo)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	if _, err := f.assignments.UpdateStatus(a.ID, model.ProgressDone, f.pippin.ID, time.Now().UTC()); err != nil {
		t.Fatalf("update status: %v", err)
	}

	messages, err := f.gen.ForAssignments([]int64{a.ID}, time.Now().UTC())
	if err != nil {
		t.Fatalf("for assignments: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	for _, m := range messages {
		if m.Payload.Action != ActionAssignmentUpdate {
			t.Errorf("action = %q, want %q", m.Payload.Action, ActionAssignmentUpdate)
		}
		switch m.Token.MemberID {
		case f.merry.ID:
			if len(m.Payload.CompletedByOthers) != 1 || m.Payload.CompletedByOthers[0] != f.task.Name {
				t.Errorf("owner payload completed list = %v, want [%q]", m.Payload.CompletedByOthers, f.task.Name)
			}
		case f.pippin.ID:
			if len(m.Payload.CompletedByOthers) != 0 {
				t.Errorf("the member who made the change gets no name list, got %v", m.Payload.CompletedByOthers)
			}
		}
	}
}

func TestForAssignmentsDeclinedList(t *testing.T) {
	f := setupNotifyTest(t)
	f.register(t, f.merry.ID, "phone")

	a, err := f.assignments.Create(f.task.ID, f.merry.ID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.ProgressTodo)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	if _, err := f.assignments.UpdateStatus(a.ID, model.ProgressWontDo, f.pippin.ID, time.Now().UTC()); err != nil {
		t.Fatalf("update status: %v", err)
	}

	messages, err := f.gen.ForAssignments([]int64{a.ID}, time.Now().UTC())
	if err != nil {
		t.Fatalf("for assignments: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	p := messages[0].Payload
	if len(p.DeclinedByOthers) != 1 || p.DeclinedByOthers[0] != f.task.Name {
		t.Errorf("declined list = %v, want [%q]", p.DeclinedByOthers, f.task.Name)
	}
	if len(p.CompletedByOthers) != 0 {
		t.Errorf("completed list = %v, want empty", p.CompletedByOthers)
	}
}

func TestForAssignmentsSelfChangeNoNameList(t *testing.T) {
	f := setupNotifyTest(t)
	f.register(t, f.merry.ID, "phone")

	a, err := f.assignments.Create(f.task.ID, f.merry.ID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.ProgressTodo)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	// Merry completes the assignment Merry owns.
	if _, err := f.assignments.UpdateStatus(a.ID, model.ProgressDone, f.merry.ID, time.Now().UTC()); err != nil {
		t.Fatalf("update status: %v", err)
	}

	messages, err := f.gen.ForAssignments([]int64{a.ID}, time.Now().UTC())
	if err != nil {
		t.Fatalf("for assignments: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	p := messages[0].Payload
	if len(p.CompletedByOthers) != 0 || len(p.DeclinedByOthers) != 0 {
		t.Errorf("self-completion carries no name lists, got %+v", p)
	}
}

func TestForAssignmentsBatchAggregates(t *testing.T) {
	f := setupNotifyTest(t)
	f.register(t, f.merry.ID, "phone")

	other, err := f.tasks.Create("Sweep the step", "", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), 1, model.RepeatDay, nil, f.house.ID, f.merry.ID, false)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	var ids []int64
	for _, task := range []*model.Task{f.task, other} {
		a, err := f.assignments.Create(task.ID, f.merry.ID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.ProgressTodo)
		if err != nil {
			t.Fatalf("create assignment: %v", err)
		}
		if _, err := f.assignments.UpdateStatus(a.ID, model.ProgressDone, f.pippin.ID, time.Now().UTC()); err != nil {
			t.Fatalf("update status: %v", err)
		}
		ids = append(ids, a.ID)
	}

	messages, err := f.gen.ForAssignments(ids, time.Now().UTC())
	if err != nil {
		t.Fatalf("for assignments: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("one device, one message per batch: got %d", len(messages))
	}
	if got := len(messages[0].Payload.CompletedByOthers); got != 2 {
		t.Errorf("completed list has %d entries, want 2", got)
	}
}
