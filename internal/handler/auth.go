package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tuckborough/internal/auth"
	"github.com/dukerupert/tuckborough/internal/store"

	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	members *store.MemberStore
	secret  []byte
	logger  *slog.Logger
}

func NewAuthHandler(memberStore *store.MemberStore, secret []byte, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{members: memberStore, secret: secret, logger: logger}
}

// Login exchanges a member id and auth key for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID int64  `json:"member_id"`
		Key      string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash, err := h.members.GetAuthKeyHash(req.MemberID)
	if err != nil || hash == "" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Key)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.IssueToken(h.secret, req.MemberID, time.Now().UTC())
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
