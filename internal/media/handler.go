package media

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quarrylabs/quarry-cms/internal/auth"
	"github.com/quarrylabs/quarry-cms/internal/server"
)

// maxFormSize is the maximum size for ParseMultipartForm (10 MiB + 1 MiB overhead).
const maxFormSize = 11 << 20

// Handler provides HTTP handlers for media operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new media Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload handles POST /api/media. Tags may be supplied as a repeated "tags"
// form field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)

	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_UPLOAD",
			"failed to parse multipart form: file may be too large", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		server.Error(w, http.StatusBadRequest, "MISSING_FILE",
			"missing 'file' field in multipart form", nil)
		return
	}
	defer file.Close()

	identity := auth.IdentityFromContext(r.Context())
	m, err := h.service.Upload(r.Context(), identity.StageID, header, r.MultipartForm.Value["tags"])
	if err != nil {
		var ue *UploadError
		if errors.As(err, &ue) {
			server.Error(w, http.StatusBadRequest, "UPLOAD_ERROR", ue.Message, nil)
			return
		}
		slog.Error("media upload failed", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"an internal error occurred", nil)
		return
	}

	server.JSON(w, http.StatusCreated, m)
}

// List handles GET /api/media.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)

	identity := auth.IdentityFromContext(r.Context())
	items, total, err := h.service.List(r.Context(), identity.StageID, page, perPage)
	if err != nil {
		slog.Error("media list failed", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"an internal error occurred", nil)
		return
	}

	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}

	server.Paginated(w, items, server.PaginationMeta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get handles GET /api/media/{mediaID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "mediaID")
	if uuid.Validate(id) != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_ID",
			"id must be a valid UUID", nil)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	m, err := h.service.Get(r.Context(), identity.StageID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			server.Error(w, http.StatusNotFound, "MEDIA_NOT_FOUND", "media not found", nil)
			return
		}
		slog.Error("media lookup failed", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"an internal error occurred", nil)
		return
	}

	server.JSON(w, http.StatusOK, m)
}

// Delete handles DELETE /api/media/{mediaID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "mediaID")
	if uuid.Validate(id) != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_ID",
			"id must be a valid UUID", nil)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), identity.StageID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			server.Error(w, http.StatusNotFound, "MEDIA_NOT_FOUND", "media not found", nil)
			return
		}
		slog.Error("media delete failed", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"an internal error occurred", nil)
		return
	}

	server.JSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Serve handles GET /media/{filename}. Served files are public; storage
// names are generated UUIDs, so the lookup is global rather than
// stage-scoped.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		server.Error(w, http.StatusBadRequest, "MISSING_FILENAME",
			"filename is required", nil)
		return
	}

	m, err := h.service.repo.GetAnyByStorageName(r.Context(), filename)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			server.Error(w, http.StatusNotFound, "NOT_FOUND", "media not found", nil)
			return
		}
		slog.Error("media lookup failed", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"an internal error occurred", nil)
		return
	}

	variant := r.URL.Query().Get("v")
	if variant == "" {
		variant = "original"
	}
	if !validVariants[variant] {
		server.Error(w, http.StatusBadRequest, "INVALID_VARIANT",
			"variant must be one of: original, sm, md, lg", nil)
		return
	}

	filePath := h.service.storage.Path(variant, filename)
	if filePath == "" {
		server.Error(w, http.StatusBadRequest, "INVALID_FILENAME",
			"invalid filename", nil)
		return
	}

	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) && variant != "original" {
			// Requested variant was never generated; fall back.
			filePath = h.service.storage.Path("original", filename)
			_, err = os.Stat(filePath)
		}
		if err != nil {
			server.Error(w, http.StatusNotFound, "NOT_FOUND", "media file not found on disk", nil)
			return
		}
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")

	// Force download for non-image types so the browser never renders
	// potentially dangerous content inline.
	if !imageMIMETypes[m.ContentType] {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(m.FileName)))
	}

	w.Header().Set("Content-Type", m.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	http.ServeFile(w, r, filePath)
}

// sanitizeFilename removes characters that are problematic in
// Content-Disposition headers.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `"`, "")
	name = strings.ReplaceAll(name, `\`, "")
	if name == "" {
		name = "download"
	}
	return name
}

// parsePagination extracts page and per_page query parameters with defaults.
func parsePagination(r *http.Request) (page, perPage int) {
	page = 1
	perPage = 20

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			perPage = n
			if perPage > 100 {
				perPage = 100
			}
		}
	}
	return page, perPage
}
