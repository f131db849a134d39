package collection

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

// Handler provides HTTP handlers for collection schema management.
type Handler struct {
	service *Service
}

// NewHandler creates a new collection Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// collectionRequest is the expected JSON body for create and update.
type collectionRequest struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

func decodeBody(w http.ResponseWriter, r *http.Request) (collectionRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_JSON",
			"invalid or too-large JSON body", nil)
		return collectionRequest{}, false
	}
	return req, true
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "collectionID")
	if uuid.Validate(id) != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "collection id must be a valid UUID", nil)
		return "", false
	}
	return id, true
}

// List handles GET /api/collections.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	cols, err := h.service.List(r.Context(), identity.StageID)
	if err != nil {
		server.NotifyError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, cols)
}

// Get handles GET /api/collections/{collectionID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	col, err := h.service.Get(r.Context(), identity.StageID, id)
	if err != nil {
		server.NotifyError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, col)
}

// Fields handles GET /api/collections/{collectionID}/fields. It returns
// just the field definitions, for clients rendering entry forms.
func (h *Handler) Fields(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	col, err := h.service.Get(r.Context(), identity.StageID, id)
	if err != nil {
		server.NotifyError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, col.Fields)
}

// Create handles POST /api/collections.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody(w, r)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	col, err := h.service.Create(r.Context(), identity.StageID, identity.StageKey, req.Name, req.Fields)
	if err != nil {
		server.NotifyError(w, err)
		return
	}
	server.JSON(w, http.StatusCreated, col)
}

// Update handles PUT /api/collections/{collectionID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody(w, r)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	col, err := h.service.Update(r.Context(), identity.StageID, id, req.Name, req.Fields)
	if err != nil {
		server.NotifyError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, col)
}

// Delete handles DELETE /api/collections/{collectionID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), identity.StageID, id); err != nil {
		server.NotifyError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, map[string]string{"message": "collection deleted"})
}
