package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/tuckborough/internal/auth"
	"github.com/dukerupert/tuckborough/internal/event"
	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/store"
)

type HouseHandler struct {
	houses  *store.HouseStore
	members *store.MemberStore
	bus     *event.Bus
	logger  *slog.Logger
}

func NewHouseHandler(houseStore *store.HouseStore, memberStore *store.MemberStore, bus *event.Bus, logger *slog.Logger) *HouseHandler {
	return &HouseHandler{houses: houseStore, members: memberStore, bus: bus, logger: logger}
}

type houseRequest struct {
	Name string `json:"name"`
}

func (h *HouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req houseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	creatorID := auth.MemberID(r.Context())
	house, err := h.houses.Create(req.Name, creatorID)
	if err != nil {
		h.logger.Error("create house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create house")
		return
	}

	writeJSON(w, http.StatusCreated, house)
}

func (h *HouseHandler) List(w http.ResponseWriter, r *http.Request) {
	houses, err := h.houses.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list houses")
		return
	}
	if houses == nil {
		houses = []model.House{}
	}
	writeJSON(w, http.StatusOK, houses)
}

func (h *HouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	house, err := h.houses.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get house")
		return
	}
	if house == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return
	}
	writeJSON(w, http.StatusOK, house)
}

func (h *HouseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req houseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.houses.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get house")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return
	}

	house, err := h.houses.Update(id, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update house")
		return
	}
	writeJSON(w, http.StatusOK, house)
}

// SetStatus transitions a house between active, paused, and inactive.
// Reactivating a house re-triggers task evaluation.
func (h *HouseHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Status model.HouseStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !model.ValidHouseStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	existing, err := h.houses.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get house")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return
	}

	house, err := h.houses.SetStatus(id, req.Status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set status")
		return
	}

	if req.Status == model.HouseStatusActive || req.Status == model.HouseStatusPaused {
		h.bus.Publish(event.Event{Kind: event.KindTaskNeedsAssignments})
	}

	writeJSON(w, http.StatusOK, house)
}

func (h *HouseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.houses.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete house")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Roster ---

func (h *HouseHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		MemberID int64 `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
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

	entry, err := h.houses.AddMember(id, req.MemberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *HouseHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		MemberID int64 `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.houses.RemoveMember(id, req.MemberID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseHandler) ListRoster(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	roster, err := h.houses.ListRoster(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list roster")
		return
	}
	if roster == nil {
		roster = []model.Member{}
	}
	writeJSON(w, http.StatusOK, roster)
}
