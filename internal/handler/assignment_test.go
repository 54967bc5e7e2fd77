package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/tuckborough/internal/auth"
	"github.com/dukerupert/tuckborough/internal/database"
	"github.com/dukerupert/tuckborough/internal/event"
	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/store"
)

type assignmentHandlerFixture struct {
	handler     *AssignmentHandler
	assignments *store.AssignmentStore
	bus         *event.Bus
	memberID    int64
	otherID     int64
	taskID      int64
}

func setupAssignmentHandler(t *testing.T, unit model.RepeatUnit) *assignmentHandlerFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	members := store.NewMemberStore(db)
	houses := store.NewHouseStore(db)
	tasks := store.NewTaskStore(db)
	assignments := store.NewAssignmentStore(db)
	bus := event.NewBus(slog.Default())

	sam, err := members.Create("Sam")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	merry, err := members.Create("Merry")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	house, err := houses.Create("Bag End", sam.ID)
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	task, err := tasks.Create("Sweep", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1, unit, nil, house.ID, sam.ID, false)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	return &assignmentHandlerFixture{
		handler:     NewAssignmentHandler(assignments, tasks, members, bus, slog.Default()),
		assignments: assignments,
		bus:         bus,
		memberID:    sam.ID,
		otherID:     merry.ID,
		taskID:      task.ID,
	}
}

func (f *assignmentHandlerFixture) statusRequest(t *testing.T, assignmentID int64, actor int64, status model.ProgressStatus) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"status":%q}`, status)
	id := strconv.FormatInt(assignmentID, 10)
	req := httptest.NewRequest("PUT", "/api/assignments/"+id+"/status", strings.NewReader(body))
	req.SetPathValue("id", id)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{MemberID: actor}))
	rec := httptest.NewRecorder()
	f.handler.UpdateStatus(rec, req)
	return rec
}

func TestUpdateStatusRecordsActor(t *testing.T) {
	f := setupAssignmentHandler(t, model.RepeatWeek)

	a, err := f.assignments.Create(f.taskID, f.memberID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.ProgressTodo)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	updated := f.bus.Subscribe(event.KindAssignmentsUpdated)

	rec := f.statusRequest(t, a.ID, f.otherID, model.ProgressDone)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var got model.TaskAssignment
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != model.ProgressDone {
		t.Errorf("status = %s, want %s", got.Status, model.ProgressDone)
	}
	if got.ChangedBy == nil || *got.ChangedBy != f.otherID {
		t.Errorf("changed by = %v, want %d", got.ChangedBy, f.otherID)
	}

	select {
	case e := <-updated:
		if len(e.AssignmentIDs) != 1 || e.AssignmentIDs[0] != a.ID {
			t.Errorf("event ids = %v, want [%d]", e.AssignmentIDs, a.ID)
		}
	default:
		t.Error("expected an assignments-updated event")
	}
}

func TestUpdateStatusInvalid(t *testing.T) {
	f := setupAssignmentHandler(t, model.RepeatWeek)

	a, err := f.assignments.Create(f.taskID, f.memberID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.ProgressTodo)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	rec := f.statusRequest(t, a.ID, f.memberID, model.ProgressStatus("finished"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	f := setupAssignmentHandler(t, model.RepeatWeek)

	rec := f.statusRequest(t, 999, f.memberID, model.ProgressDone)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCompletingOnCompleteTaskSignalsRepeat(t *testing.T) {
	f := setupAssignmentHandler(t, model.RepeatOnComplete)

	a, err := f.assignments.Create(f.taskID, f.memberID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.ProgressTodo)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	resets := f.bus.Subscribe(event.KindTaskNeedsAssignments)

	rec := f.statusRequest(t, a.ID, f.memberID, model.ProgressDone)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	select {
	case <-resets:
	default:
		t.Error("completing an on-complete task must signal the repeat engine")
	}
}

func TestCompletingWeeklyTaskDoesNotSignalRepeat(t *testing.T) {
	f := setupAssignmentHandler(t, model.RepeatWeek)

	a, err := f.assignments.Create(f.taskID, f.memberID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.ProgressTodo)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	resets := f.bus.Subscribe(event.KindTaskNeedsAssignments)

	rec := f.statusRequest(t, a.ID, f.memberID, model.ProgressDone)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	select {
	case e := <-resets:
		t.Errorf("unexpected repeat signal %+v for a periodic task", e)
	default:
	}
}
