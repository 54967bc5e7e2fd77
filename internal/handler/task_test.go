package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/tuckborough/internal/database"
	"github.com/dukerupert/tuckborough/internal/event"
	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/store"
)

type taskHandlerFixture struct {
	handler *TaskHandler
	bus     *event.Bus
	taskID  int64
}

func setupTaskHandler(t *testing.T) *taskHandlerFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	members := store.NewMemberStore(db)
	houses := store.NewHouseStore(db)
	tasks := store.NewTaskStore(db)
	bus := event.NewBus(slog.Default())

	sam, err := members.Create("Sam")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	house, err := houses.Create("Bag End", sam.ID)
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	task, err := tasks.Create("Sweep", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1, model.RepeatWeek, nil, house.ID, sam.ID, false)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	return &taskHandlerFixture{
		handler: NewTaskHandler(tasks, members, houses, bus, slog.Default()),
		bus:     bus,
		taskID:  task.ID,
	}
}

func (f *taskHandlerFixture) setActive(t *testing.T, active bool) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"active":` + strconv.FormatBool(active) + `}`
	id := strconv.FormatInt(f.taskID, 10)
	req := httptest.NewRequest("PUT", "/api/tasks/"+id+"/active", strings.NewReader(body))
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	f.handler.SetActive(rec, req)
	return rec
}

func TestSetActiveDeactivationPublishesTasksChanged(t *testing.T) {
	f := setupTaskHandler(t)

	changed := f.bus.Subscribe(event.KindTasksChanged)
	resets := f.bus.Subscribe(event.KindTaskNeedsAssignments)

	rec := f.setActive(t, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	select {
	case e := <-changed:
		if len(e.TaskIDs) != 1 || e.TaskIDs[0] != f.taskID {
			t.Errorf("event ids = %v, want [%d]", e.TaskIDs, f.taskID)
		}
	default:
		t.Error("deactivation must publish a tasks-changed event")
	}
	select {
	case e := <-resets:
		t.Errorf("unexpected repeat signal %+v on deactivation", e)
	default:
	}
}

func TestSetActiveActivationPublishesBoth(t *testing.T) {
	f := setupTaskHandler(t)
	f.setActive(t, false)

	changed := f.bus.Subscribe(event.KindTasksChanged)
	resets := f.bus.Subscribe(event.KindTaskNeedsAssignments)

	rec := f.setActive(t, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	select {
	case <-changed:
	default:
		t.Error("activation must publish a tasks-changed event")
	}
	select {
	case <-resets:
	default:
		t.Error("activation must signal the repeat engine")
	}
}
