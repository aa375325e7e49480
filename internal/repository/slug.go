package repository

import "strings"

// NormalizeSlug lowercases the source, replaces spaces with underscores and
// strips apostrophes. It is idempotent and is applied explicitly on every
// product create and update, never through a persistence hook.
func NormalizeSlug(source string) string {
	slug := strings.ToLower(source)
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, "'", "")
	return slug
}
