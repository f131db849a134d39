package slug

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// trailingNumber extracts a numeric suffix from an occupied slug, e.g.
// "posts_3" -> base "posts", number 3.
var trailingNumber = regexp.MustCompile(`^(.+)_(\d+)$`)

// LookupFunc probes one slug candidate within a uniqueness scope.
// found reports whether the candidate itself is taken. When it is, occupant
// must be the slug of the record with the highest numeric suffix among the
// candidate and its numbered variants (candidate_1, candidate_2, ...), so
// the resolver can continue past gaps left by deletions and renames instead
// of probing every intermediate suffix.
type LookupFunc func(ctx context.Context, candidate string) (occupant string, found bool, err error)

// ExistsFunc reports whether a backing-store name is taken within a stage.
type ExistsFunc func(ctx context.Context, name string) (bool, error)

// ResolveSlug returns base if it is free, otherwise the first free
// "{base}_{n}" candidate. The counter is not a simple loop from 1: it is
// re-derived from each occupying record's trailing number, so a scope
// holding {posts, posts_1, posts_3} resolves base "posts" to "posts_4".
func ResolveSlug(ctx context.Context, base string, lookup LookupFunc) (string, error) {
	base = strings.ToLower(base)

	occupant, found, err := lookup(ctx, base)
	if err != nil {
		return "", fmt.Errorf("probing slug %q: %w", base, err)
	}
	if !found {
		return base, nil
	}

	counter := nextCounter(occupant)
	for {
		candidate := fmt.Sprintf("%s_%d", base, counter)
		occupant, found, err = lookup(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probing slug %q: %w", candidate, err)
		}
		if !found {
			return strings.ToLower(candidate), nil
		}
		counter = nextCounter(occupant)
	}
}

// nextCounter derives the next suffix counter from an occupying slug: one
// past its trailing number when present, otherwise 1.
func nextCounter(occupant string) int {
	if m := trailingNumber.FindStringSubmatch(occupant); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil {
			return n + 1
		}
	}
	return 1
}

// ResolveBackingName returns a backing-store name unique within the owning
// stage. The base is "{stageKey}_{collectionSlug}", lowercased; the stage
// key embedded in the name is what allows the same collection slug to repeat
// across stages. On collision the name is suffixed with single letters a-z,
// then with numbers 1, 2, 3, ... once the alphabet is exhausted.
func ResolveBackingName(ctx context.Context, stageKey, collectionSlug string, exists ExistsFunc) (string, error) {
	base := strings.ToLower(stageKey) + "_" + strings.ToLower(collectionSlug)

	taken, err := exists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("probing backing name %q: %w", base, err)
	}
	if !taken {
		return base, nil
	}

	for c := 'a'; c <= 'z'; c++ {
		candidate := base + "_" + string(c)
		taken, err = exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probing backing name %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		taken, err = exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probing backing name %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}
