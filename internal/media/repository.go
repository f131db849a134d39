// Package media provides stage-scoped media upload, storage, and serving,
// plus the resolver that turns stored file-field references into full media
// objects.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quarrylabs/quarry-cms/internal/database"
)

// ErrNotFound is returned when a media record does not exist.
var ErrNotFound = errors.New("media not found")

// Media represents a stored media file with its metadata. FileName is the
// name the client uploaded; FileNameURL is the generated storage name the
// file is addressed by, and URL is the public address it is served from.
type Media struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	FileNameURL string    `json:"fileNameUrl"`
	ContentType string    `json:"contentType"`
	FileSize    int64     `json:"fileSize"`
	URL         string    `json:"url"`
	Tags        []string  `json:"tags"`
	Extension   string    `json:"extension"`
	StageID     string    `json:"stageId"`
	CreatedAt   time.Time `json:"createdAt"`
}

const mediaColumns = "id, file_name, file_name_url, content_type, file_size, url, tags, extension, stage_id, created_at"

// Repository handles database operations for media records.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new media Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new media record. The ID and CreatedAt fields are
// populated from the database after insertion.
func (r *Repository) Create(ctx context.Context, m *Media) error {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}

	err := r.db.Pool().QueryRow(ctx, `
		INSERT INTO media (file_name, file_name_url, content_type, file_size, url, tags, extension, stage_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		m.FileName, m.FileNameURL, m.ContentType, m.FileSize, m.URL, tags, m.Extension, m.StageID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting media record: %w", err)
	}
	return nil
}

// GetByID retrieves a media record by UUID within a stage.
func (r *Repository) GetByID(ctx context.Context, stageID, id string) (*Media, error) {
	return r.get(ctx,
		fmt.Sprintf("SELECT %s FROM media WHERE stage_id = $1 AND id = $2", mediaColumns),
		stageID, id)
}

// GetByURL retrieves a media record by its public URL within a stage.
func (r *Repository) GetByURL(ctx context.Context, stageID, url string) (*Media, error) {
	return r.get(ctx,
		fmt.Sprintf("SELECT %s FROM media WHERE stage_id = $1 AND url = $2", mediaColumns),
		stageID, url)
}

// GetByStorageName retrieves a media record by its generated storage name
// within a stage.
func (r *Repository) GetByStorageName(ctx context.Context, stageID, fileNameURL string) (*Media, error) {
	return r.get(ctx,
		fmt.Sprintf("SELECT %s FROM media WHERE stage_id = $1 AND file_name_url = $2", mediaColumns),
		stageID, fileNameURL)
}

// GetAnyByStorageName retrieves a media record by storage name across all
// stages. Storage names are generated UUIDs, so at most one record matches;
// the public file server uses this since it has no session stage.
func (r *Repository) GetAnyByStorageName(ctx context.Context, fileNameURL string) (*Media, error) {
	return r.get(ctx,
		fmt.Sprintf("SELECT %s FROM media WHERE file_name_url = $1", mediaColumns),
		fileNameURL)
}

func (r *Repository) get(ctx context.Context, sql string, args ...any) (*Media, error) {
	m := &Media{}
	err := r.db.Pool().QueryRow(ctx, sql, args...).Scan(
		&m.ID, &m.FileName, &m.FileNameURL, &m.ContentType, &m.FileSize,
		&m.URL, &m.Tags, &m.Extension, &m.StageID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying media: %w", err)
	}
	return m, nil
}

// List retrieves a paginated list of a stage's media records ordered by
// created_at desc. Returns the records and the total count.
func (r *Repository) List(ctx context.Context, stageID string, page, perPage int) ([]*Media, int, error) {
	var total int
	err := r.db.Pool().QueryRow(ctx,
		`SELECT count(*) FROM media WHERE stage_id = $1`, stageID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting media: %w", err)
	}

	if total == 0 {
		return []*Media{}, 0, nil
	}

	offset := (page - 1) * perPage
	rows, err := r.db.Pool().Query(ctx, fmt.Sprintf(`
		SELECT %s FROM media
		WHERE stage_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, mediaColumns), stageID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing media: %w", err)
	}
	defer rows.Close()

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Media, error) {
		m := &Media{}
		if err := row.Scan(&m.ID, &m.FileName, &m.FileNameURL, &m.ContentType, &m.FileSize,
			&m.URL, &m.Tags, &m.Extension, &m.StageID, &m.CreatedAt); err != nil {
			return nil, err
		}
		return m, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scanning media rows: %w", err)
	}

	return results, total, nil
}

// Delete removes a media record by UUID within a stage. Returns ErrNotFound
// if the record does not exist.
func (r *Repository) Delete(ctx context.Context, stageID, id string) error {
	tag, err := r.db.Pool().Exec(ctx,
		`DELETE FROM media WHERE stage_id = $1 AND id = $2`, stageID, id)
	if err != nil {
		return fmt.Errorf("deleting media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
