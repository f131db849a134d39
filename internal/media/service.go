package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	// Register standard image decoders so image.Decode recognizes them.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// maxUploadSize is the maximum allowed upload file size (10 MiB).
const maxUploadSize = 10 << 20

// allowedMIMETypes is the set of MIME types accepted for upload.
var allowedMIMETypes = map[string]bool{
	"image/jpeg":       true,
	"image/png":        true,
	"image/gif":        true,
	"image/webp":       true,
	"application/pdf":  true,
	"text/plain":       true,
	"text/csv":         true,
	"application/json": true,
}

// imageMIMETypes is the subset of allowed types that are images and support
// variant generation.
var imageMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// mimeToExtension maps validated MIME types to canonical file extensions.
// Extensions are derived from the MIME type, not user input.
var mimeToExtension = map[string]string{
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
	"application/pdf":  ".pdf",
	"text/plain":       ".txt",
	"text/csv":         ".csv",
	"application/json": ".json",
}

// imageVariant defines a resizing target for image variants.
type imageVariant struct {
	Name     string
	MaxWidth int
}

var imageVariants = []imageVariant{
	{Name: "sm", MaxWidth: 480},
	{Name: "md", MaxWidth: 1024},
	{Name: "lg", MaxWidth: 1920},
}

// Service implements the business logic for media upload, processing, and
// deletion. All records are stage-scoped.
type Service struct {
	repo    *Repository
	storage *LocalStorage
	baseURL string
}

// NewService creates a new media Service. baseURL is the public address
// media files are served from.
func NewService(repo *Repository, storage *LocalStorage, baseURL string) *Service {
	return &Service{
		repo:    repo,
		storage: storage,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// UploadError represents a user-facing upload validation error.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

// Upload processes a multipart file upload into the given stage. It
// validates the file, saves the original and any image variants under a
// generated storage name, and creates the database record.
func (s *Service) Upload(ctx context.Context, stageID string, fh *multipart.FileHeader, tags []string) (*Media, error) {
	if fh.Size > maxUploadSize {
		return nil, &UploadError{Message: fmt.Sprintf("file size %d exceeds maximum of %d bytes", fh.Size, maxUploadSize)}
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening uploaded file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading uploaded file: %w", err)
	}
	if int64(len(data)) > maxUploadSize {
		return nil, &UploadError{Message: fmt.Sprintf("file size exceeds maximum of %d bytes", maxUploadSize)}
	}

	mimeType, err := detectMIME(data, fh.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	// Storage name comes from a fresh UUID, never from client input.
	ext := mimeToExtension[mimeType]
	storageName := uuid.NewString() + ext

	if err := s.storage.Save("original", storageName, data); err != nil {
		return nil, fmt.Errorf("saving original file: %w", err)
	}

	m := &Media{
		FileName:    fh.Filename,
		FileNameURL: storageName,
		ContentType: mimeType,
		FileSize:    int64(len(data)),
		URL:         s.baseURL + "/media/" + storageName,
		Tags:        tags,
		Extension:   strings.TrimPrefix(ext, "."),
		StageID:     stageID,
	}

	var generated []string
	if imageMIMETypes[mimeType] {
		generated = s.processImageVariants(storageName, data, mimeType)
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.cleanupFiles(storageName, generated)
		return nil, fmt.Errorf("creating media record: %w", err)
	}

	slog.Info("media uploaded",
		"id", m.ID, "stage_id", stageID, "file_name_url", storageName, "content_type", mimeType)
	return m, nil
}

// detectMIME determines the validated MIME type from file content, with the
// client header as a tiebreaker. Content that is neither identifiable nor
// allowlisted is rejected.
func detectMIME(data []byte, headerMIME string) (string, error) {
	detected := http.DetectContentType(data[:min(512, len(data))])
	if idx := strings.IndexByte(detected, ';'); idx != -1 {
		detected = strings.TrimSpace(detected[:idx])
	}
	if idx := strings.IndexByte(headerMIME, ';'); idx != -1 {
		headerMIME = strings.TrimSpace(headerMIME[:idx])
	}

	mimeType := detected
	if detected == "application/octet-stream" {
		// Sniffing could not identify the content; trust the client header
		// only when it is allowlisted.
		if allowedMIMETypes[headerMIME] {
			mimeType = headerMIME
		}
	} else if allowedMIMETypes[detected] {
		// Prefer the header type when it is also allowed and more specific,
		// e.g. text/csv over text/plain.
		if headerMIME != "" && allowedMIMETypes[headerMIME] {
			mimeType = headerMIME
		}
	}

	if !allowedMIMETypes[mimeType] {
		return "", &UploadError{Message: fmt.Sprintf("MIME type '%s' is not allowed", mimeType)}
	}
	return mimeType, nil
}

// processImageVariants decodes the image and generates resized variants for
// each target width smaller than the original. It returns the names of the
// variants actually written. A recover guard prevents panics from malformed
// images propagating to the HTTP handler.
func (s *Service) processImageVariants(storageName string, data []byte, mimeType string) (generated []string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic during image variant processing",
				"file_name_url", storageName, "panic", fmt.Sprintf("%v", r))
		}
	}()

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Warn("failed to decode image for variant generation",
			"file_name_url", storageName, "error", err)
		return nil
	}

	width := img.Bounds().Dx()
	variantFormat := formatFromMIME(mimeType)

	for _, v := range imageVariants {
		if width <= v.MaxWidth {
			continue
		}

		resized := imaging.Resize(img, v.MaxWidth, 0, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, variantFormat); err != nil {
			slog.Warn("failed to encode image variant",
				"variant", v.Name, "file_name_url", storageName, "error", err)
			continue
		}

		if err := s.storage.Save(v.Name, storageName, buf.Bytes()); err != nil {
			slog.Warn("failed to save image variant",
				"variant", v.Name, "file_name_url", storageName, "error", err)
			continue
		}
		generated = append(generated, v.Name)
	}
	return generated
}

// cleanupFiles removes the original and the given variant files from storage.
func (s *Service) cleanupFiles(storageName string, generatedVariants []string) {
	if err := s.storage.Delete("original", storageName); err != nil {
		slog.Warn("failed to clean up original file", "file_name_url", storageName, "error", err)
	}
	for _, v := range generatedVariants {
		if err := s.storage.Delete(v, storageName); err != nil {
			slog.Warn("failed to clean up variant file",
				"variant", v, "file_name_url", storageName, "error", err)
		}
	}
}

// Delete removes a media record and all associated files from storage.
func (s *Service) Delete(ctx context.Context, stageID, id string) error {
	m, err := s.repo.GetByID(ctx, stageID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, stageID, id); err != nil {
		return err
	}

	// File cleanup is best-effort; the variant set is unknown at this point
	// so every variant directory is tried.
	for _, v := range variants {
		if err := s.storage.Delete(v, m.FileNameURL); err != nil {
			slog.Warn("failed to clean up media file",
				"variant", v, "file_name_url", m.FileNameURL, "error", err)
		}
	}

	slog.Info("media deleted", "id", id, "stage_id", stageID)
	return nil
}

// List retrieves a paginated list of a stage's media records.
func (s *Service) List(ctx context.Context, stageID string, page, perPage int) ([]*Media, int, error) {
	return s.repo.List(ctx, stageID, page, perPage)
}

// Get retrieves one media record by UUID within a stage.
func (s *Service) Get(ctx context.Context, stageID, id string) (*Media, error) {
	return s.repo.GetByID(ctx, stageID, id)
}

// GetByStorageName retrieves a media record by its generated storage name.
func (s *Service) GetByStorageName(ctx context.Context, stageID, storageName string) (*Media, error) {
	return s.repo.GetByStorageName(ctx, stageID, storageName)
}

// formatFromMIME returns the imaging format to use for encoding variants.
// WebP is not natively encodable by the imaging library, so PNG is used
// instead to preserve transparency.
func formatFromMIME(mimeType string) imaging.Format {
	switch mimeType {
	case "image/jpeg":
		return imaging.JPEG
	case "image/png":
		return imaging.PNG
	case "image/gif":
		return imaging.GIF
	case "image/webp":
		return imaging.PNG
	default:
		return imaging.JPEG
	}
}
