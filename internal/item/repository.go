package item

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quarrylabs/quarry-cms/internal/database"
	"github.com/quarrylabs/quarry-cms/internal/search"
)

// ErrNotFound is returned when an item does not exist in its backing store.
var ErrNotFound = errors.New("item not found")

// System keys merged into every document returned by the repository. Field
// values live alongside them keyed by field slug.
const (
	KeyID        = "_id"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

// pgDuplicateTable is the PostgreSQL error code for "relation already
// exists", raised when two creates race for the same backing store.
const pgDuplicateTable = "42P07"

// Repository executes dynamic SQL against per-collection backing stores and
// owns their lifecycle. Each backing store is a table holding one JSONB
// document per item plus system timestamps.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new item Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateBackingStore provisions the table for a collection. It returns true
// when the table was created and false when a table of that name already
// existed, which the caller treats as a provisioning failure rather than an
// error. A concurrent create losing the race is reported the same way.
func (r *Repository) CreateBackingStore(ctx context.Context, name string) (bool, error) {
	var existing *string
	if err := r.db.Pool().QueryRow(ctx, "SELECT to_regclass($1)::text", name).Scan(&existing); err != nil {
		return false, fmt.Errorf("checking backing store %s: %w", name, err)
	}
	if existing != nil {
		return false, nil
	}

	ddl := fmt.Sprintf(`CREATE TABLE %s (
		id UUID PRIMARY KEY,
		data JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, quoteIdent(name))

	if _, err := r.db.Pool().Exec(ctx, ddl); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgDuplicateTable {
			return false, nil
		}
		return false, fmt.Errorf("creating backing store %s: %w", name, err)
	}
	return true, nil
}

// DropBackingStore removes a collection's table. Dropping a store that does
// not exist is not an error.
func (r *Repository) DropBackingStore(ctx context.Context, name string) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(name))
	if _, err := r.db.Pool().Exec(ctx, sql); err != nil {
		return fmt.Errorf("dropping backing store %s: %w", name, err)
	}
	return nil
}

// InsertDocument stores a new item and returns the full stored document.
func (r *Repository) InsertDocument(ctx context.Context, tableName, id string, data map[string]any) (map[string]any, error) {
	sql := fmt.Sprintf("INSERT INTO %s (id, data) VALUES ($1, $2) RETURNING id, data, created_at, updated_at",
		quoteIdent(tableName))

	doc, err := r.scanDocument(ctx, sql, id, data)
	if err != nil {
		return nil, fmt.Errorf("inserting item: %w", err)
	}
	return doc, nil
}

// GetDocument retrieves a single item by UUID.
func (r *Repository) GetDocument(ctx context.Context, tableName, id string) (map[string]any, error) {
	sql := fmt.Sprintf("SELECT id, data, created_at, updated_at FROM %s WHERE id = $1",
		quoteIdent(tableName))

	doc, err := r.scanDocument(ctx, sql, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return doc, nil
}

// UpdateDocument merges a patch into an item's document. Keys present in
// the patch replace the stored values; keys absent from the patch survive
// untouched. Returns the full updated document.
func (r *Repository) UpdateDocument(ctx context.Context, tableName, id string, patch map[string]any) (map[string]any, error) {
	sql := fmt.Sprintf("UPDATE %s SET data = data || $2::jsonb, updated_at = now() WHERE id = $1 RETURNING id, data, created_at, updated_at",
		quoteIdent(tableName))

	doc, err := r.scanDocument(ctx, sql, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating item: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes an item by UUID.
func (r *Repository) DeleteDocument(ctx context.Context, tableName, id string) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = $1", quoteIdent(tableName))

	tag, err := r.db.Pool().Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDocuments retrieves a page of items, newest first. When q.Search is
// set, rows are filtered by full-text match over the document's string
// values and ranked by relevance before recency.
func (r *Repository) ListDocuments(ctx context.Context, tableName string, q QueryParams) ([]map[string]any, int, error) {
	qTable := quoteIdent(tableName)

	var whereClause string
	var args []any
	argIdx := 1

	searchWhere, searchOrder, searchArgs := search.BuildDocumentSearch(q.Search, argIdx)
	if searchWhere != "" {
		whereClause = "WHERE " + searchWhere
		args = append(args, searchArgs...)
		argIdx += len(searchArgs)
	}

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", qTable, whereClause)
	var total int
	if err := r.db.Pool().QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting items: %w", err)
	}

	orderParts := []string{"created_at DESC"}
	if searchOrder != "" {
		orderParts = append([]string{searchOrder}, orderParts...)
	}

	offset := (q.Page - 1) * q.PerPage
	dataSQL := fmt.Sprintf("SELECT id, data, created_at, updated_at FROM %s %s ORDER BY %s LIMIT $%d OFFSET $%d",
		qTable,
		whereClause,
		strings.Join(orderParts, ", "),
		argIdx,
		argIdx+1,
	)
	args = append(args, q.PerPage, offset)

	rows, err := r.db.Pool().Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var docs []map[string]any
	for rows.Next() {
		var (
			id                   string
			data                 map[string]any
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &data, &createdAt, &updatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning item: %w", err)
		}
		docs = append(docs, composeDocument(id, data, createdAt, updatedAt))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading items: %w", err)
	}

	return docs, total, nil
}

// scanDocument runs a single-row query over the standard document columns
// and composes the result.
func (r *Repository) scanDocument(ctx context.Context, sql string, args ...any) (map[string]any, error) {
	var (
		id                   string
		data                 map[string]any
		createdAt, updatedAt time.Time
	)
	if err := r.db.Pool().QueryRow(ctx, sql, args...).Scan(&id, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return composeDocument(id, data, createdAt, updatedAt), nil
}

// composeDocument flattens a stored row into the document shape clients see:
// field values keyed by slug with the system keys merged alongside them.
func composeDocument(id string, data map[string]any, createdAt, updatedAt time.Time) map[string]any {
	doc := make(map[string]any, len(data)+3)
	for k, v := range data {
		doc[k] = v
	}
	doc[KeyID] = id
	doc[KeyCreatedAt] = createdAt
	doc[KeyUpdatedAt] = updatedAt
	return doc
}
