// Package slug derives URL- and identifier-safe slugs from display names and
// resolves collisions against per-stage uniqueness scopes.
package slug

import (
	"regexp"
	"strings"
)

var (
	// disallowed matches everything outside the characters a slug may be
	// built from. Accented and special characters are removed outright,
	// not transliterated.
	disallowed = regexp.MustCompile(`[^a-z0-9\s_-]`)

	// separators matches runs of whitespace and hyphens, which collapse
	// into a single underscore.
	separators = regexp.MustCompile(`[\s-]+`)

	// repeats matches runs of underscores.
	repeats = regexp.MustCompile(`_+`)
)

// Generate converts a display name into a lowercase identifier slug.
// It is pure and idempotent: Generate(Generate(s)) == Generate(s).
// Input with no usable characters yields the empty string.
func Generate(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "_")
	s = repeats.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
