package media

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// populatedKeys are the members a fully resolved media object carries. A
// stored value with all of them present needs no re-resolution.
var populatedKeys = []string{"id", "fileName", "fileNameUrl", "contentType", "fileSize", "url"}

// Lookups is the repository surface the resolver needs. *Repository
// implements it; tests substitute an in-memory fake.
type Lookups interface {
	GetByID(ctx context.Context, stageID, id string) (*Media, error)
	GetByURL(ctx context.Context, stageID, url string) (*Media, error)
	GetByStorageName(ctx context.Context, stageID, fileNameURL string) (*Media, error)
}

// Resolver turns stored file-field references into full media objects.
// References come in several historical shapes: a media UUID, a public URL,
// a bare storage name, or a partially populated object. Resolution tries
// each interpretation in order and never fails an item read; a reference
// that matches nothing is passed through (strings) or degraded to an empty
// string (objects).
type Resolver struct {
	repo    Lookups
	baseURL string
}

// NewResolver creates a media Resolver. baseURL is the public address media
// URLs are rooted at, used to interpret bare storage names as URLs.
func NewResolver(repo Lookups, baseURL string) *Resolver {
	return &Resolver{repo: repo, baseURL: strings.TrimRight(baseURL, "/")}
}

// IsPopulated reports whether a stored value is already a full media object.
func (r *Resolver) IsPopulated(value any) bool {
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	for _, key := range populatedKeys {
		if _, ok := m[key]; !ok {
			return false
		}
	}
	return true
}

// Resolve interprets a stored file-field value and returns the matching
// media object. A string that matches nothing is returned unchanged; an
// object that matches nothing becomes an empty string.
func (r *Resolver) Resolve(ctx context.Context, stageID string, value any) any {
	switch v := value.(type) {
	case string:
		if m := r.resolveReference(ctx, stageID, v); m != nil {
			return m
		}
		return v
	case map[string]any:
		for _, key := range []string{"_id", "id", "fileNameUrl", "url"} {
			ref, ok := v[key].(string)
			if !ok || ref == "" {
				continue
			}
			if m := r.resolveReference(ctx, stageID, ref); m != nil {
				return m
			}
		}
		return ""
	default:
		return value
	}
}

// resolveReference tries each interpretation of a string reference in order:
// media UUID, public URL, storage name, then storage name joined onto the
// base URL. The first hit wins; nil means no interpretation matched.
func (r *Resolver) resolveReference(ctx context.Context, stageID, ref string) *Media {
	if ref == "" {
		return nil
	}

	if uuid.Validate(ref) == nil {
		if m := r.hit(r.repo.GetByID(ctx, stageID, ref)); m != nil {
			return m
		}
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return r.hit(r.repo.GetByURL(ctx, stageID, ref))
	}

	if m := r.hit(r.repo.GetByStorageName(ctx, stageID, ref)); m != nil {
		return m
	}

	if r.baseURL != "" {
		joined := r.baseURL + "/" + strings.TrimLeft(ref, "/")
		if m := r.hit(r.repo.GetByURL(ctx, stageID, joined)); m != nil {
			return m
		}
	}

	return nil
}

// hit unwraps one lookup attempt. A not-found simply means the next
// interpretation is tried; any other failure is logged, so an unreachable
// store never masquerades as a clean miss.
func (r *Resolver) hit(m *Media, err error) *Media {
	if err == nil {
		return m
	}
	if !errors.Is(err, ErrNotFound) {
		slog.Error("media lookup failed", "error", err)
	}
	return nil
}
