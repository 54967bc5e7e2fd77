package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tuckborough/internal/auth"
	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/notify"
	"github.com/dukerupert/tuckborough/internal/store"

	"github.com/google/uuid"
)

type PushHandler struct {
	tokens  *store.PushTokenStore
	service *notify.Service
	logger  *slog.Logger
}

func NewPushHandler(tokenStore *store.PushTokenStore, service *notify.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{tokens: tokenStore, service: service, logger: logger}
}

// VAPIDKey returns the public key clients need to subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

// Register stores a push subscription for the authenticated member's
// device. A device registering again replaces its previous token.
func (h *PushHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceID string `json:"device_id"`
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = uuid.NewString()
	}

	memberID := auth.MemberID(r.Context())
	token, err := h.tokens.Register(memberID, req.DeviceID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.logger.Error("register push token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	memberID := auth.MemberID(r.Context())
	tokens, err := h.tokens.ListByMember(memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tokens")
		return
	}
	if tokens == nil {
		tokens = []model.PushToken{}
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *PushHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	token, err := h.tokens.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get token")
		return
	}
	if token == nil || token.MemberID != auth.MemberID(r.Context()) {
		writeError(w, http.StatusNotFound, "token not found")
		return
	}

	if err := h.tokens.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to unregister")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
