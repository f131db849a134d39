package stage

import (
	"log/slog"
	"net/http"

	"github.com/quarrylabs/quarry-cms/internal/server"
)

// Handler provides the HTTP handler for listing stages.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new stage Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /api/stages.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	stages, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("failed to list stages", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
		return
	}
	server.JSON(w, http.StatusOK, stages)
}
