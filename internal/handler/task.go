package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/tuckborough/internal/event"
	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/store"
)

type TaskHandler struct {
	tasks   *store.TaskStore
	members *store.MemberStore
	houses  *store.HouseStore
	bus     *event.Bus
	logger  *slog.Logger
}

func NewTaskHandler(taskStore *store.TaskStore, memberStore *store.MemberStore, houseStore *store.HouseStore, bus *event.Bus, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: taskStore, members: memberStore, houses: houseStore, bus: bus, logger: logger}
}

type taskRequest struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	DueAt        time.Time        `json:"due_at"`
	RepeatValue  int              `json:"repeat_value"`
	RepeatUnit   model.RepeatUnit `json:"repeat_unit"`
	RepeatEndAt  *time.Time       `json:"repeat_end_at"`
	HouseID      int64            `json:"house_id"`
	AssigneeID   int64            `json:"assignee_id"`
	RotateMember bool             `json:"rotate_member"`
}

func (req *taskRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.DueAt.IsZero() {
		return "due_at is required"
	}
	if req.RepeatUnit == "" {
		req.RepeatUnit = model.RepeatNone
	}
	if !model.ValidRepeatUnit(req.RepeatUnit) {
		return "invalid repeat_unit"
	}
	if req.RepeatValue < 1 {
		req.RepeatValue = 1
	}
	return ""
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	house, err := h.houses.GetByID(req.HouseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check house")
		return
	}
	if house == nil {
		writeError(w, http.StatusBadRequest, "house not found")
		return
	}

	member, err := h.members.GetByID(req.AssigneeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check member")
		return
	}
	if member == nil {
		writeError(w, http.StatusBadRequest, "assignee not found")
		return
	}

	task, err := h.tasks.Create(req.Name, req.Description, req.DueAt, req.RepeatValue, req.RepeatUnit, req.RepeatEndAt, req.HouseID, req.AssigneeID, req.RotateMember)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	// A new task should get its first assignment without waiting for the
	// next natural period.
	h.bus.Publish(event.Event{Kind: event.KindTasksChanged, TaskIDs: []int64{task.ID}})
	h.bus.Publish(event.Event{Kind: event.KindTaskNeedsAssignments})

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	task, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	task, err := h.tasks.Update(id, req.Name, req.Description, req.DueAt, req.RepeatValue, req.RepeatUnit, req.RepeatEndAt, req.AssigneeID, req.RotateMember)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	h.bus.Publish(event.Event{Kind: event.KindTasksChanged, TaskIDs: []int64{id}})
	h.bus.Publish(event.Event{Kind: event.KindTaskNeedsAssignments})

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	existing, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	task, err := h.tasks.SetActive(id, req.Active)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set active")
		return
	}

	h.bus.Publish(event.Event{Kind: event.KindTasksChanged, TaskIDs: []int64{id}})
	if req.Active {
		h.bus.Publish(event.Event{Kind: event.KindTaskNeedsAssignments})
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.tasks.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.bus.Publish(event.Event{Kind: event.KindTasksChanged, TaskIDs: []int64{id}})

	w.WriteHeader(http.StatusNoContent)
}
