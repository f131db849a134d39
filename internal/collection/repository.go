package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quarrylabs/quarry-cms/internal/database"
	"github.com/quarrylabs/quarry-cms/internal/slug"
)

// ErrNotFound is returned when a collection does not exist in the stage.
var ErrNotFound = errors.New("collection not found")

// Repository handles persistence of collection schema records. Item
// documents live elsewhere, in each collection's dynamic backing store.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new collection Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Insert persists a new collection with its embedded fields.
func (r *Repository) Insert(ctx context.Context, c *Collection) error {
	fieldsJSON, err := json.Marshal(c.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}

	_, err = r.db.Pool().Exec(ctx,
		`INSERT INTO collections (id, stage_id, name, slug, backing_store_name, fields, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		c.ID, c.StageID, c.Name, c.Slug, c.BackingStoreName, fieldsJSON, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting collection: %w", err)
	}
	return nil
}

// Update replaces a collection's name, slug, and field list.
func (r *Repository) Update(ctx context.Context, c *Collection) error {
	fieldsJSON, err := json.Marshal(c.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}

	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE collections SET name = $1, slug = $2, fields = $3, updated_at = $4 WHERE id = $5`,
		c.Name, c.Slug, fieldsJSON, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBackingStoreName writes the generated backing-store name back onto
// an already persisted collection row. This is the second phase of create:
// the row's id exists before the backing name does.
func (r *Repository) UpdateBackingStoreName(ctx context.Context, id, name string) error {
	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE collections SET backing_store_name = $1 WHERE id = $2`,
		name, id,
	)
	if err != nil {
		return fmt.Errorf("updating backing store name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a collection record. The caller is responsible for dropping
// the backing store first.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a collection by id within a stage.
func (r *Repository) GetByID(ctx context.Context, stageID, id string) (*Collection, error) {
	row := r.db.Pool().QueryRow(ctx,
		`SELECT id, stage_id, name, slug, COALESCE(backing_store_name, ''), fields, created_at, updated_at
		 FROM collections WHERE stage_id = $1 AND id = $2`,
		stageID, id,
	)
	return scanCollection(row)
}

// List returns every collection of a stage ordered by name.
func (r *Repository) List(ctx context.Context, stageID string) ([]*Collection, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT id, stage_id, name, slug, COALESCE(backing_store_name, ''), fields, created_at, updated_at
		 FROM collections WHERE stage_id = $1 ORDER BY name`,
		stageID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var result []*Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collection rows: %w", err)
	}
	return result, nil
}

// NameExists reports whether another collection in the stage already uses
// the given display name. excludeID skips the collection being updated.
func (r *Repository) NameExists(ctx context.Context, stageID, name, excludeID string) (bool, error) {
	var exists bool
	err := r.db.Pool().QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM collections
			WHERE stage_id = $1 AND lower(name) = lower($2) AND id <> $3
		)`,
		stageID, name, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking collection name: %w", err)
	}
	return exists, nil
}

// familySuffix extracts the numeric suffix of a slug relative to a candidate.
func familySuffix(candidate, s string) (int, bool) {
	rest, ok := strings.CutPrefix(s, candidate+"_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SlugLookup returns a slug.LookupFunc scoped to one stage. For an occupied
// candidate it reports the family member with the highest numeric suffix, so
// the resolver can continue numbering past gaps.
func (r *Repository) SlugLookup(stageID string) slug.LookupFunc {
	return func(ctx context.Context, candidate string) (string, bool, error) {
		rows, err := r.db.Pool().Query(ctx,
			`SELECT slug FROM collections
			 WHERE stage_id = $1 AND (slug = $2 OR slug LIKE $2 || '\_%')`,
			stageID, candidate,
		)
		if err != nil {
			return "", false, fmt.Errorf("querying slug family: %w", err)
		}
		defer rows.Close()

		var exactTaken bool
		occupant := candidate
		best := -1
		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				return "", false, fmt.Errorf("scanning slug: %w", err)
			}
			if s == candidate {
				exactTaken = true
			}
			if n, ok := familySuffix(candidate, s); ok && n > best {
				best = n
				occupant = s
			}
		}
		if err := rows.Err(); err != nil {
			return "", false, fmt.Errorf("iterating slug rows: %w", err)
		}
		if !exactTaken {
			return "", false, nil
		}
		return occupant, true, nil
	}
}

// BackingNameExists returns a slug.ExistsFunc scoped to one stage's
// backing-store names.
func (r *Repository) BackingNameExists(stageID string) slug.ExistsFunc {
	return func(ctx context.Context, name string) (bool, error) {
		var exists bool
		err := r.db.Pool().QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM collections WHERE stage_id = $1 AND backing_store_name = $2
			)`,
			stageID, name,
		).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("checking backing store name: %w", err)
		}
		return exists, nil
	}
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCollection scans one collection row including its embedded fields.
func scanCollection(row rowScanner) (*Collection, error) {
	var c Collection
	var fieldsJSON []byte

	err := row.Scan(&c.ID, &c.StageID, &c.Name, &c.Slug, &c.BackingStoreName,
		&fieldsJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning collection row: %w", err)
	}

	if err := json.Unmarshal(fieldsJSON, &c.Fields); err != nil {
		return nil, fmt.Errorf("unmarshaling fields for %q: %w", c.Name, err)
	}
	return &c, nil
}

// backingNamePattern restricts backing-store names to safe identifiers; it
// mirrors what the slug generator can emit plus the stage-key prefix.
var backingNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidBackingName reports whether a generated backing-store name is a safe
// SQL identifier.
func ValidBackingName(name string) bool {
	return backingNamePattern.MatchString(name) && len(name) <= 63
}
