package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/quarrylabs/quarry-cms/internal/database"
)

// Repository provides database operations for the collection_item_changes
// table.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new history Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one change row. Empty UserID and nil snapshots are stored
// as NULL.
func (r *Repository) Insert(ctx context.Context, c Change) error {
	before, err := nullableJSON(c.BeforeData)
	if err != nil {
		return fmt.Errorf("marshaling before snapshot: %w", err)
	}
	after, err := nullableJSON(c.AfterData)
	if err != nil {
		return fmt.Errorf("marshaling after snapshot: %w", err)
	}

	_, err = r.db.Pool().Exec(ctx,
		`INSERT INTO collection_item_changes (id, collection_id, item_id, user_id, change_type, before_data, after_data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID,
		c.CollectionID,
		c.ItemID,
		nullIfEmpty(c.UserID),
		c.ChangeType,
		before,
		after,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting item change: %w", err)
	}
	return nil
}

// ListByItem retrieves a page of an item's changes, newest first, plus the
// total count.
func (r *Repository) ListByItem(ctx context.Context, collectionID, itemID string, page, perPage int) ([]*Change, int, error) {
	var total int
	err := r.db.Pool().QueryRow(ctx,
		"SELECT COUNT(*) FROM collection_item_changes WHERE collection_id = $1 AND item_id = $2",
		collectionID, itemID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting item changes: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := r.db.Pool().Query(ctx,
		`SELECT id, collection_id, item_id, user_id, change_type, before_data, after_data, created_at
		 FROM collection_item_changes
		 WHERE collection_id = $1 AND item_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		collectionID, itemID, perPage, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying item changes: %w", err)
	}
	defer rows.Close()

	changes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Change, error) {
		var (
			c             Change
			userID        *string
			before, after []byte
		)
		if err := row.Scan(&c.ID, &c.CollectionID, &c.ItemID, &userID, &c.ChangeType, &before, &after, &c.CreatedAt); err != nil {
			return nil, err
		}
		if userID != nil {
			c.UserID = *userID
		}
		if before != nil {
			if err := json.Unmarshal(before, &c.BeforeData); err != nil {
				return nil, fmt.Errorf("unmarshaling before snapshot: %w", err)
			}
		}
		if after != nil {
			if err := json.Unmarshal(after, &c.AfterData); err != nil {
				return nil, fmt.Errorf("unmarshaling after snapshot: %w", err)
			}
		}
		return &c, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scanning item changes: %w", err)
	}

	return changes, total, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableJSON(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return b, nil
}
