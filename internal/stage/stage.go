// Package stage provides the isolated environments of Quarry. Every
// collection, item, and media record belongs to exactly one stage; the
// authenticated session carries the active stage and all reads and writes
// are scoped to it.
package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quarrylabs/quarry-cms/internal/database"
)

// ErrNotFound is returned when a stage does not exist.
var ErrNotFound = errors.New("stage not found")

// Stage is one isolated environment, addressed by its short key.
type Stage struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository provides database access for stages.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new stage Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// List returns all stages ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]*Stage, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT id, key, label, created_at FROM stages ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("querying stages: %w", err)
	}
	defer rows.Close()

	stages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Stage, error) {
		var s Stage
		if err := row.Scan(&s.ID, &s.Key, &s.Label, &s.CreatedAt); err != nil {
			return nil, err
		}
		return &s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning stages: %w", err)
	}
	return stages, nil
}

// GetByKey returns the stage with the given key, or ErrNotFound.
func (r *Repository) GetByKey(ctx context.Context, key string) (*Stage, error) {
	return r.get(ctx, `SELECT id, key, label, created_at FROM stages WHERE key = $1`, key)
}

// GetByID returns the stage with the given UUID, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*Stage, error) {
	return r.get(ctx, `SELECT id, key, label, created_at FROM stages WHERE id = $1`, id)
}

func (r *Repository) get(ctx context.Context, sql, arg string) (*Stage, error) {
	var s Stage
	err := r.db.Pool().QueryRow(ctx, sql, arg).Scan(&s.ID, &s.Key, &s.Label, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying stage: %w", err)
	}
	return &s, nil
}

// Ensure creates a stage with the given key and label when it does not yet
// exist, returning the stored stage either way.
func (r *Repository) Ensure(ctx context.Context, key, label string) (*Stage, error) {
	var s Stage
	err := r.db.Pool().QueryRow(ctx,
		`INSERT INTO stages (key, label) VALUES ($1, $2)
		 ON CONFLICT (key) DO NOTHING
		 RETURNING id, key, label, created_at`,
		key, label,
	).Scan(&s.ID, &s.Key, &s.Label, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.GetByKey(ctx, key)
		}
		return nil, fmt.Errorf("ensuring stage: %w", err)
	}
	return &s, nil
}
