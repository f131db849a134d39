package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quarrylabs/quarry-cms/internal/server"
)

// maxRequestBodySize is the maximum allowed size for JSON request bodies
// (1 MB).
const maxRequestBodySize = 1 << 20

// Handler provides HTTP handlers for authentication endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// loginRequest is the expected JSON body for POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login. It validates the credentials and
// returns an access token scoped to the default stage.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", nil)
		return
	}

	if req.Email == "" || req.Password == "" {
		server.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required", nil)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password", nil)
			return
		}
		slog.Error("login failed", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
		return
	}

	server.JSON(w, http.StatusOK, map[string]string{
		"access_token": token,
	})
}

// SwitchStage handles POST /api/auth/switch-stage/{stageKey}. It reissues
// the caller's token scoped to the requested stage.
func (h *Handler) SwitchStage(w http.ResponseWriter, r *http.Request) {
	stageKey := chi.URLParam(r, "stageKey")
	if stageKey == "" {
		server.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "stage key is required", nil)
		return
	}

	identity := IdentityFromContext(r.Context())
	token, err := h.service.SwitchStage(r.Context(), identity, stageKey)
	if err != nil {
		if errors.Is(err, ErrUnknownStage) {
			server.Error(w, http.StatusNotFound, "STAGE_NOT_FOUND", "stage not found", nil)
			return
		}
		slog.Error("stage switch failed", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
		return
	}

	server.JSON(w, http.StatusOK, map[string]string{
		"access_token": token,
	})
}

// Me handles GET /api/auth/me. It returns the authenticated identity and
// the active stage from the request context.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity.UserID == "" {
		server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated", nil)
		return
	}

	server.JSON(w, http.StatusOK, map[string]string{
		"id":          identity.UserID,
		"email":       identity.Email,
		"stage_id":    identity.StageID,
		"stage_key":   identity.StageKey,
		"stage_label": identity.StageLabel,
	})
}
