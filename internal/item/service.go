package item

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quarrylabs/quarry-cms/internal/collection"
	"github.com/quarrylabs/quarry-cms/internal/history"
	"github.com/quarrylabs/quarry-cms/internal/notify"
)

// Collections resolves the schema an item operation runs against.
// *collection.Service implements it.
type Collections interface {
	Get(ctx context.Context, stageID, id string) (*collection.Collection, error)
}

// Store is the document persistence surface. *Repository implements it;
// tests substitute an in-memory fake.
type Store interface {
	InsertDocument(ctx context.Context, tableName, id string, data map[string]any) (map[string]any, error)
	GetDocument(ctx context.Context, tableName, id string) (map[string]any, error)
	UpdateDocument(ctx context.Context, tableName, id string, patch map[string]any) (map[string]any, error)
	DeleteDocument(ctx context.Context, tableName, id string) error
	ListDocuments(ctx context.Context, tableName string, q QueryParams) ([]map[string]any, int, error)
}

// ChangeRecorder appends entries to the item change log. *history.Recorder
// implements it.
type ChangeRecorder interface {
	Record(ctx context.Context, c history.Change)
}

// MediaResolver turns stored file-field references into full media objects
// on read. *media.Resolver implements it.
type MediaResolver interface {
	Resolve(ctx context.Context, stageID string, value any) any
	IsPopulated(value any) bool
}

// Service implements item CRUD against a collection's backing store. Every
// write validates the payload against the collection's field definitions,
// collecting all violations before rejecting, and records one change-log
// entry on success.
type Service struct {
	collections Collections
	store       Store
	changes     ChangeRecorder
	media       MediaResolver
}

// NewService creates a new item Service.
func NewService(collections Collections, store Store, changes ChangeRecorder, media MediaResolver) *Service {
	return &Service{collections: collections, store: store, changes: changes, media: media}
}

// Create validates and stores a new item, returning the full stored
// document.
func (s *Service) Create(ctx context.Context, stageID, collectionID, userID string, payload map[string]any) (map[string]any, error) {
	col, err := s.resolveCollection(ctx, stageID, collectionID)
	if err != nil {
		return nil, err
	}

	var bag notify.Bag
	data := make(map[string]any, len(payload))
	for _, f := range col.Fields {
		value := payload[f.Slug]
		for _, n := range ValidateValue(f, value) {
			bag.Add(n)
		}
		if _, present := payload[f.Slug]; present {
			data[f.Slug] = normalize(value)
		}
	}
	if err := bag.Err(); err != nil {
		return nil, err
	}

	doc, err := s.store.InsertDocument(ctx, col.BackingStoreName, uuid.NewString(), data)
	if err != nil {
		return nil, s.serverError("storing item", err)
	}

	s.changes.Record(ctx, history.Change{
		CollectionID: col.ID,
		ItemID:       doc[KeyID].(string),
		UserID:       userID,
		ChangeType:   history.ChangeAdd,
		AfterData:    snapshot(doc),
	})

	slog.Info("item created", "collection_id", col.ID, "item_id", doc[KeyID], "stage_id", stageID)
	return s.enrich(ctx, stageID, col, doc), nil
}

// Column is one display column of an item listing, projected from the
// collection's field definitions so clients can render a table without a
// second schema fetch.
type Column struct {
	Slug string               `json:"slug"`
	Name string               `json:"name"`
	Type collection.FieldType `json:"type"`
}

// List returns a page of a collection's items, newest first, with file
// fields resolved to media objects, plus the schema's fields projected as
// display columns.
func (s *Service) List(ctx context.Context, stageID, collectionID string, q QueryParams) ([]map[string]any, []Column, int, error) {
	col, err := s.resolveCollection(ctx, stageID, collectionID)
	if err != nil {
		return nil, nil, 0, err
	}

	docs, total, err := s.store.ListDocuments(ctx, col.BackingStoreName, q)
	if err != nil {
		return nil, nil, 0, s.serverError("listing items", err)
	}

	for i, doc := range docs {
		docs[i] = s.enrich(ctx, stageID, col, doc)
	}

	columns := make([]Column, len(col.Fields))
	for i, f := range col.Fields {
		columns[i] = Column{Slug: f.Slug, Name: f.Name, Type: f.Type}
	}
	return docs, columns, total, nil
}

// Get retrieves one item with file fields resolved.
func (s *Service) Get(ctx context.Context, stageID, collectionID, itemID string) (map[string]any, error) {
	col, err := s.resolveCollection(ctx, stageID, collectionID)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.GetDocument(ctx, col.BackingStoreName, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notify.Single(notify.Client(CodeItemNotFound, "id", "item not found"))
		}
		return nil, s.serverError("loading item", err)
	}
	return s.enrich(ctx, stageID, col, doc), nil
}

// Update validates the submitted fields and merges them into the stored
// document. Fields absent from the payload keep their stored values; only
// the submitted ones are validated and patched.
func (s *Service) Update(ctx context.Context, stageID, collectionID, itemID, userID string, payload map[string]any) (map[string]any, error) {
	col, err := s.resolveCollection(ctx, stageID, collectionID)
	if err != nil {
		return nil, err
	}

	before, err := s.store.GetDocument(ctx, col.BackingStoreName, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notify.Single(notify.Client(CodeItemNotFound, "id", "item not found"))
		}
		return nil, s.serverError("loading item", err)
	}

	var bag notify.Bag
	patch := make(map[string]any, len(payload))
	for _, f := range col.Fields {
		value, present := payload[f.Slug]
		if !present {
			continue
		}
		for _, n := range ValidateValue(f, value) {
			bag.Add(n)
		}
		patch[f.Slug] = normalize(value)
	}
	if err := bag.Err(); err != nil {
		return nil, err
	}

	after, err := s.store.UpdateDocument(ctx, col.BackingStoreName, itemID, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notify.Single(notify.Client(CodeItemNotFound, "id", "item not found"))
		}
		return nil, s.serverError("storing item", err)
	}

	s.changes.Record(ctx, history.Change{
		CollectionID: col.ID,
		ItemID:       itemID,
		UserID:       userID,
		ChangeType:   history.ChangeEdit,
		BeforeData:   snapshot(before),
		AfterData:    snapshot(after),
	})

	slog.Info("item updated", "collection_id", col.ID, "item_id", itemID, "stage_id", stageID)
	return s.enrich(ctx, stageID, col, after), nil
}

// Delete removes an item. Deleting an item that does not exist is a client
// error, never a silent success.
func (s *Service) Delete(ctx context.Context, stageID, collectionID, itemID, userID string) error {
	col, err := s.resolveCollection(ctx, stageID, collectionID)
	if err != nil {
		return err
	}

	before, err := s.store.GetDocument(ctx, col.BackingStoreName, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notify.Single(notify.Client(CodeItemNotFound, "id", "item not found"))
		}
		return s.serverError("loading item", err)
	}

	if err := s.store.DeleteDocument(ctx, col.BackingStoreName, itemID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notify.Single(notify.Client(CodeItemNotFound, "id", "item not found"))
		}
		return s.serverError("deleting item", err)
	}

	s.changes.Record(ctx, history.Change{
		CollectionID: col.ID,
		ItemID:       itemID,
		UserID:       userID,
		ChangeType:   history.ChangeDelete,
		BeforeData:   snapshot(before),
	})

	slog.Info("item deleted", "collection_id", col.ID, "item_id", itemID, "stage_id", stageID)
	return nil
}

// resolveCollection loads the target collection and rejects operations
// against one whose backing store was never provisioned.
func (s *Service) resolveCollection(ctx context.Context, stageID, collectionID string) (*collection.Collection, error) {
	col, err := s.collections.Get(ctx, stageID, collectionID)
	if err != nil {
		return nil, err
	}
	if col.BackingStoreName == "" {
		return nil, notify.Single(notify.Client(CodeNotProvisioned, "collection_id",
			"collection has no backing store and cannot hold items"))
	}
	return col, nil
}

// enrich resolves every file-field value of a document into a full media
// object. Values already carrying a populated media object are left alone.
func (s *Service) enrich(ctx context.Context, stageID string, col *collection.Collection, doc map[string]any) map[string]any {
	for _, f := range col.Fields {
		if f.Type != collection.FieldTypeFile {
			continue
		}
		value, ok := doc[f.Slug]
		if !ok || value == nil || s.media.IsPopulated(value) {
			continue
		}
		doc[f.Slug] = s.media.Resolve(ctx, stageID, value)
	}
	return doc
}

// normalize strips client payload envelopes so stored values are plain
// scalars or lists. List elements are unwrapped individually.
func normalize(value any) any {
	value = unwrapEnvelope(value)
	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, el := range list {
			out[i] = normalize(el)
		}
		return out
	}
	return value
}

// snapshot copies the field-value portion of a document for the change log,
// dropping the system keys that restate the row identity and timestamps.
func snapshot(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == KeyID || k == KeyCreatedAt || k == KeyUpdatedAt {
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Service) serverError(op string, err error) error {
	slog.Error("item storage failure", "op", op, "error", err)
	return notify.Single(notify.Server(CodeItemStorageFailure, "item storage is unavailable"))
}
