package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quarrylabs/quarry-cms/internal/notify"
	"github.com/quarrylabs/quarry-cms/internal/slug"
)

// Store is the persistence surface the schema manager needs. *Repository
// implements it; tests substitute an in-memory fake.
type Store interface {
	Insert(ctx context.Context, c *Collection) error
	Update(ctx context.Context, c *Collection) error
	UpdateBackingStoreName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, stageID, id string) (*Collection, error)
	List(ctx context.Context, stageID string) ([]*Collection, error)
	NameExists(ctx context.Context, stageID, name, excludeID string) (bool, error)
	SlugLookup(stageID string) slug.LookupFunc
	BackingNameExists(stageID string) slug.ExistsFunc
}

// BackingStores provisions and tears down the dynamic per-collection item
// stores. Creation is idempotent: provisioning a name that already exists
// reports false without error.
type BackingStores interface {
	CreateBackingStore(ctx context.Context, name string) (created bool, err error)
	DropBackingStore(ctx context.Context, name string) error
}

// Service is the collection schema manager. All expected failures surface
// as *notify.Error values; nothing is thrown across the operation boundary.
type Service struct {
	repo   Store
	stores BackingStores
}

// NewService creates a new schema manager.
func NewService(repo Store, stores BackingStores) *Service {
	return &Service{repo: repo, stores: stores}
}

// Create validates and persists a new collection in the given stage, then
// provisions its backing store. Persist and provision are deliberately two
// phases: the collection row (and its id) exists before the backing-store
// name, which is independent of the row id, is generated and written back.
// A provisioning failure leaves the row without a backing name; item
// operations reject such collections until provisioning is repaired.
func (s *Service) Create(ctx context.Context, stageID, stageKey, name string, fields []Field) (*Collection, error) {
	if n := ValidateDefinition(name, fields); n != nil {
		return nil, notify.Single(*n)
	}

	taken, err := s.repo.NameExists(ctx, stageID, name, "")
	if err != nil {
		return nil, s.serverError("checking collection name", err)
	}
	if taken {
		return nil, notify.Single(notify.Client(CodeNameTaken, "name",
			fmt.Sprintf("a collection named %q already exists in this stage", name)))
	}

	base := slug.Generate(name)
	if base == "" {
		return nil, notify.Single(notify.Client(CodeNameInvalid, "name",
			"collection name contains no usable characters"))
	}

	colSlug, err := slug.ResolveSlug(ctx, base, s.repo.SlugLookup(stageID))
	if err != nil {
		return nil, s.serverError("resolving collection slug", err)
	}

	now := time.Now().UTC()
	c := &Collection{
		ID:        uuid.NewString(),
		StageID:   stageID,
		Name:      name,
		Slug:      colSlug,
		Fields:    prepareFields(fields, nil, now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, s.serverError("persisting collection", err)
	}

	backing, err := slug.ResolveBackingName(ctx, stageKey, colSlug, s.repo.BackingNameExists(stageID))
	if err != nil {
		return nil, s.serverError("resolving backing store name", err)
	}

	created, err := s.stores.CreateBackingStore(ctx, backing)
	if err != nil {
		return nil, s.serverError("provisioning backing store", err)
	}
	if !created {
		// A concurrent creator got there first; the store is usable either way.
		slog.Warn("backing store already existed", "name", backing)
	}

	if err := s.repo.UpdateBackingStoreName(ctx, c.ID, backing); err != nil {
		return nil, s.serverError("recording backing store name", err)
	}
	c.BackingStoreName = backing

	slog.Info("collection created",
		"id", c.ID, "stage_id", stageID, "slug", colSlug, "backing_store", backing)
	return c, nil
}

// Update validates and applies changes to an existing collection. The slug
// is re-derived only when the name changed, since downstream URLs depend on
// slug stability. The field list is replaced wholesale; fields whose slug
// survives keep their original creation timestamp.
func (s *Service) Update(ctx context.Context, stageID, id, name string, fields []Field) (*Collection, error) {
	existing, err := s.repo.GetByID(ctx, stageID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notify.Single(notify.Client(CodeNotFound, "id", "collection not found"))
		}
		return nil, s.serverError("loading collection", err)
	}

	if n := ValidateDefinition(name, fields); n != nil {
		return nil, notify.Single(*n)
	}

	newSlug := existing.Slug
	if !strings.EqualFold(name, existing.Name) {
		taken, err := s.repo.NameExists(ctx, stageID, name, id)
		if err != nil {
			return nil, s.serverError("checking collection name", err)
		}
		if taken {
			return nil, notify.Single(notify.Client(CodeNameTaken, "name",
				fmt.Sprintf("a collection named %q already exists in this stage", name)))
		}

		base := slug.Generate(name)
		if base == "" {
			return nil, notify.Single(notify.Client(CodeNameInvalid, "name",
				"collection name contains no usable characters"))
		}
		newSlug, err = slug.ResolveSlug(ctx, base, s.repo.SlugLookup(stageID))
		if err != nil {
			return nil, s.serverError("resolving collection slug", err)
		}
	}

	now := time.Now().UTC()
	updated := &Collection{
		ID:               existing.ID,
		StageID:          existing.StageID,
		Name:             name,
		Slug:             newSlug,
		BackingStoreName: existing.BackingStoreName,
		Fields:           prepareFields(fields, existing.Fields, now),
		CreatedAt:        existing.CreatedAt,
		UpdatedAt:        now,
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, s.serverError("persisting collection", err)
	}

	slog.Info("collection updated", "id", id, "stage_id", stageID, "slug", newSlug)
	return updated, nil
}

// Delete drops the collection's backing store and removes its record. The
// drop is best-effort: a failure is logged but does not block the delete.
func (s *Service) Delete(ctx context.Context, stageID, id string) error {
	existing, err := s.repo.GetByID(ctx, stageID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notify.Single(notify.Client(CodeNotFound, "id", "collection not found"))
		}
		return s.serverError("loading collection", err)
	}

	if existing.BackingStoreName != "" {
		if err := s.stores.DropBackingStore(ctx, existing.BackingStoreName); err != nil {
			slog.Warn("failed to drop backing store, continuing with delete",
				"name", existing.BackingStoreName, "error", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.serverError("deleting collection", err)
	}

	slog.Info("collection deleted", "id", id, "stage_id", stageID)
	return nil
}

// Get retrieves one collection by id.
func (s *Service) Get(ctx context.Context, stageID, id string) (*Collection, error) {
	c, err := s.repo.GetByID(ctx, stageID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notify.Single(notify.Client(CodeNotFound, "id", "collection not found"))
		}
		return nil, s.serverError("loading collection", err)
	}
	return c, nil
}

// List returns every collection of a stage.
func (s *Service) List(ctx context.Context, stageID string) ([]*Collection, error) {
	cols, err := s.repo.List(ctx, stageID)
	if err != nil {
		return nil, s.serverError("listing collections", err)
	}
	return cols, nil
}

// serverError logs the full failure and returns a client-safe server
// notification.
func (s *Service) serverError(op string, err error) error {
	slog.Error("collection storage failure", "op", op, "error", err)
	return notify.Single(notify.Server(CodeStorageFailure, "collection storage is unavailable"))
}

// prepareFields assigns slugs and timestamps to a submitted field list.
// When previous fields are given (update), a field whose slug already
// existed keeps its original creation time.
func prepareFields(fields []Field, previous []Field, now time.Time) []Field {
	prevBySlug := make(map[string]Field, len(previous))
	for _, p := range previous {
		prevBySlug[p.Slug] = p
	}

	out := make([]Field, len(fields))
	for i, f := range fields {
		f.Slug = slug.Generate(f.Name)
		f.CreatedAt = now
		f.UpdatedAt = now
		if prev, ok := prevBySlug[f.Slug]; ok {
			f.CreatedAt = prev.CreatedAt
		}
		out[i] = f
	}
	return out
}
