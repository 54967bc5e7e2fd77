package store

import (
	"testing"
	"time"

	"github.com/dukerupert/tuckborough/internal/model"
)

func setupTaskTest(t *testing.T) (*TaskStore, int64, int64) {
	t.Helper()
	db := setupTestDB(t)
	ms := NewMemberStore(db)
	hs := NewHouseStore(db)

	m, err := ms.Create("Sam")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	h, err := hs.Create("Bag End", m.ID)
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	return NewTaskStore(db), h.ID, m.ID
}

func TestTaskCreateRoundTrip(t *testing.T) {
	ts, houseID, memberID := setupTaskTest(t)

	due := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	task, err := ts.Create("Water the garden", "front beds only", due, 2, model.RepeatDay, &end, houseID, memberID, true)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if task.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if !task.DueAt.Equal(due) {
		t.Errorf("due at = %v, want %v", task.DueAt, due)
	}
	if task.RepeatValue != 2 || task.RepeatUnit != model.RepeatDay {
		t.Errorf("repeat = %d %s, want 2 day", task.RepeatValue, task.RepeatUnit)
	}
	if task.RepeatEndAt == nil || !task.RepeatEndAt.Equal(end) {
		t.Errorf("repeat end = %v, want %v", task.RepeatEndAt, end)
	}
	if !task.RotateMember {
		t.Error("rotate member flag lost")
	}
	if !task.Active {
		t.Error("new tasks start active")
	}
}

func TestTaskNilRepeatEnd(t *testing.T) {
	ts, houseID, memberID := setupTaskTest(t)

	task, err := ts.Create("Dust the shelves", "", time.Now().UTC(), 1, model.RepeatNone, nil, houseID, memberID, false)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.RepeatEndAt != nil {
		t.Errorf("repeat end = %v, want nil", task.RepeatEndAt)
	}
}

func TestTaskGetByIDNotFound(t *testing.T) {
	ts, _, _ := setupTaskTest(t)

	task, err := ts.GetByID(999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if task != nil {
		t.Errorf("expected nil for missing task, got %+v", task)
	}
}

func TestTaskListByHouses(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMemberStore(db)
	hs := NewHouseStore(db)
	ts := NewTaskStore(db)

	sam, _ := ms.Create("Sam")
	bagEnd, err := hs.Create("Bag End", sam.ID)
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	crickhollow, err := hs.Create("Crickhollow", sam.ID)
	if err != nil {
		t.Fatalf("create house: %v", err)
	}

	if _, err := ts.Create("Sweep", "", time.Now().UTC(), 1, model.RepeatWeek, nil, bagEnd.ID, sam.ID, false); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := ts.Create("Mop", "", time.Now().UTC(), 1, model.RepeatWeek, nil, crickhollow.ID, sam.ID, false); err != nil {
		t.Fatalf("create task: %v", err)
	}

	tasks, err := ts.ListByHouses([]int64{bagEnd.ID})
	if err != nil {
		t.Fatalf("list by houses: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "Sweep" {
		t.Errorf("tasks = %+v, want just Sweep", tasks)
	}

	tasks, err = ts.ListByHouses(nil)
	if err != nil {
		t.Fatalf("list by empty houses: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks for an empty house list, got %d", len(tasks))
	}
}

func TestTaskSetActive(t *testing.T) {
	ts, houseID, memberID := setupTaskTest(t)

	task, err := ts.Create("Sweep", "", time.Now().UTC(), 1, model.RepeatWeek, nil, houseID, memberID, false)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	updated, err := ts.SetActive(task.ID, false)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}
	if updated.Active {
		t.Error("task still active after deactivation")
	}

	updated, err = ts.SetActive(task.ID, true)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}
	if !updated.Active {
		t.Error("task inactive after reactivation")
	}
}

func TestTaskUpdate(t *testing.T) {
	ts, houseID, memberID := setupTaskTest(t)

	task, err := ts.Create("Sweep", "", time.Now().UTC(), 1, model.RepeatWeek, nil, houseID, memberID, false)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	due := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	updated, err := ts.Update(task.ID, "Sweep the hall", "including the cellar stairs", due, 2, model.RepeatWeek, nil, memberID, true)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Name != "Sweep the hall" {
		t.Errorf("name = %q, want %q", updated.Name, "Sweep the hall")
	}
	if updated.RepeatValue != 2 {
		t.Errorf("repeat value = %d, want 2", updated.RepeatValue)
	}
	if !updated.RotateMember {
		t.Error("rotate member flag not updated")
	}
}

func TestTaskDelete(t *testing.T) {
	ts, houseID, memberID := setupTaskTest(t)

	task, err := ts.Create("Sweep", "", time.Now().UTC(), 1, model.RepeatWeek, nil, houseID, memberID, false)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := ts.Delete(task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	got, err := ts.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}
