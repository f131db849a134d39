package history

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quarrylabs/quarry-cms/internal/server"
)

// Handler provides the HTTP handler for reading an item's change log.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new history Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /api/collections/{collectionID}/items/{itemID}/history.
// Changes are returned newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	itemID := chi.URLParam(r, "itemID")
	if uuid.Validate(collectionID) != nil || uuid.Validate(itemID) != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "ids must be valid UUIDs", nil)
		return
	}

	page, perPage, err := parsePagination(r)
	if err != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_PARAMS", err.Error(), nil)
		return
	}

	changes, total, err := h.repo.ListByItem(r.Context(), collectionID, itemID, page, perPage)
	if err != nil {
		slog.Error("failed to list item changes", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
		return
	}

	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}

	server.Paginated(w, changes, server.PaginationMeta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

func parsePagination(r *http.Request) (page, perPage int, err error) {
	page, perPage = 1, 20
	query := r.URL.Query()

	if v := query.Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
	}
	if v := query.Get("per_page"); v != "" {
		perPage, err = strconv.Atoi(v)
		if err != nil || perPage < 1 {
			return 0, 0, fmt.Errorf("per_page must be a positive integer")
		}
		if perPage > 100 {
			perPage = 100
		}
	}
	return page, perPage, nil
}
