package item

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quarrylabs/quarry-cms/internal/auth"
	"github.com/quarrylabs/quarry-cms/internal/server"
)

// maxBodySize is the maximum allowed request body size (1 MiB).
const maxBodySize = 1 << 20

// Handler provides HTTP handlers for item CRUD operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new item Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// decodeBody reads and decodes a JSON request body into a map.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var data map[string]any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&data); err != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_JSON",
			"invalid or too-large JSON body", nil)
		return nil, false
	}
	return data, true
}

// pathIDs extracts and validates the collection and item UUIDs from the
// request path. wantItem controls whether the item id is expected.
func pathIDs(w http.ResponseWriter, r *http.Request, wantItem bool) (collectionID, itemID string, ok bool) {
	collectionID = chi.URLParam(r, "collectionID")
	if uuid.Validate(collectionID) != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "collection id must be a valid UUID", nil)
		return "", "", false
	}
	if !wantItem {
		return collectionID, "", true
	}

	itemID = chi.URLParam(r, "itemID")
	if uuid.Validate(itemID) != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "item id must be a valid UUID", nil)
		return "", "", false
	}
	return collectionID, itemID, true
}

// List handles GET /api/collections/{collectionID}/items.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	collectionID, _, ok := pathIDs(w, r, false)
	if !ok {
		return
	}

	q, err := ParseQueryParams(r)
	if err != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_PARAMS", err.Error(), nil)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	docs, columns, total, err := h.service.List(r.Context(), identity.StageID, collectionID, q)
	if err != nil {
		server.NotifyError(w, err)
		return
	}

	totalPages := 0
	if q.PerPage > 0 {
		totalPages = (total + q.PerPage - 1) / q.PerPage
	}

	payload := struct {
		Items   []map[string]any `json:"items"`
		Columns []Column         `json:"columns"`
	}{Items: docs, Columns: columns}

	server.Paginated(w, payload, server.PaginationMeta{
		Page:       q.Page,
		PerPage:    q.PerPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get handles GET /api/collections/{collectionID}/items/{itemID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	collectionID, itemID, ok := pathIDs(w, r, true)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	doc, err := h.service.Get(r.Context(), identity.StageID, collectionID, itemID)
	if err != nil {
		server.NotifyError(w, err)
		return
	}

	server.JSON(w, http.StatusOK, doc)
}

// Create handles POST /api/collections/{collectionID}/items.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	collectionID, _, ok := pathIDs(w, r, false)
	if !ok {
		return
	}

	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	doc, err := h.service.Create(r.Context(), identity.StageID, collectionID, identity.UserID, payload)
	if err != nil {
		server.NotifyError(w, err)
		return
	}

	server.JSON(w, http.StatusCreated, doc)
}

// Update handles PUT /api/collections/{collectionID}/items/{itemID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	collectionID, itemID, ok := pathIDs(w, r, true)
	if !ok {
		return
	}

	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	doc, err := h.service.Update(r.Context(), identity.StageID, collectionID, itemID, identity.UserID, payload)
	if err != nil {
		server.NotifyError(w, err)
		return
	}

	server.JSON(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/collections/{collectionID}/items/{itemID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	collectionID, itemID, ok := pathIDs(w, r, true)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), identity.StageID, collectionID, itemID, identity.UserID); err != nil {
		server.NotifyError(w, err)
		return
	}

	server.JSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}
