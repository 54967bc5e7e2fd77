package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tuckborough/internal/auth"
	"github.com/dukerupert/tuckborough/internal/event"
	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/store"
)

type AssignmentHandler struct {
	assignments *store.AssignmentStore
	tasks       *store.TaskStore
	members     *store.MemberStore
	bus         *event.Bus
	logger      *slog.Logger
}

func NewAssignmentHandler(assignmentStore *store.AssignmentStore, taskStore *store.TaskStore, memberStore *store.MemberStore, bus *event.Bus, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignmentStore, tasks: taskStore, members: memberStore, bus: bus, logger: logger}
}

// Create makes a manual assignment outside the repeat engine.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID   int64     `json:"task_id"`
		MemberID int64     `json:"member_id"`
		DueAt    time.Time `json:"due_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.DueAt.IsZero() {
		writeError(w, http.StatusBadRequest, "due_at is required")
		return
	}

	task, err := h.tasks.GetByID(req.TaskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check task")
		return
	}
	if task == nil {
		writeError(w, http.StatusBadRequest, "task not found")
		return
	}

	member, err := h.members.GetByID(req.MemberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check member")
		return
	}
	if member == nil {
		writeError(w, http.StatusBadRequest, "member not found")
		return
	}

	a, err := h.assignments.Create(req.TaskID, req.MemberID, req.DueAt, model.ProgressTodo)
	if err != nil {
		h.logger.Error("create assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create assignment")
		return
	}

	h.bus.Publish(event.Event{Kind: event.KindAssignmentsAdded, AssignmentIDs: []int64{a.ID}})

	writeJSON(w, http.StatusCreated, a)
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.assignments.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) ListByTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	assignments, err := h.assignments.ListByTask(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.TaskAssignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	memberID := auth.MemberID(r.Context())
	assignments, err := h.assignments.ListByMember(memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.TaskAssignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

// UpdateStatus transitions an assignment's progress status. The
// authenticated member is recorded as the one who made the change, which
// drives the "completed/declined by others" push payloads.
func (h *AssignmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Status model.ProgressStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !model.ValidProgressStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	existing, err := h.assignments.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	changedBy := auth.MemberID(r.Context())
	a, err := h.assignments.UpdateStatus(id, req.Status, changedBy, time.Now().UTC())
	if err != nil {
		h.logger.Error("update assignment status", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	h.bus.Publish(event.Event{Kind: event.KindAssignmentsUpdated, AssignmentIDs: []int64{id}})

	// Completing an on-complete task makes its successor due immediately.
	if req.Status == model.ProgressDone && a.Task != nil && a.Task.RepeatUnit == model.RepeatOnComplete {
		h.bus.Publish(event.Event{Kind: event.KindTaskNeedsAssignments})
	}

	writeJSON(w, http.StatusOK, a)
}
