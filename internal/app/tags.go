package app

import (
	"fmt"
	"strings"

	"photoshare/pkg/domain"
)

// NormalizeTagNames trims each name and drops empty results, preserving the
// caller's order. No case folding: names differing only in case are distinct
// tags.
func NormalizeTagNames(names []string) []string {
	res := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		res = append(res, name)
	}
	return res
}

// SplitTagList splits a comma-separated tag string as submitted by clients.
func SplitTagList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTagNames(strings.Split(s, ","))
}

// ResolveTags maps free-text tag names to tag records, creating any that do
// not exist yet. Resolving the same name twice yields the same id; a
// concurrent duplicate creation is recovered inside the store, never
// surfaced.
func (a *App) ResolveTags(names []string) ([]domain.Tag, error) {
	normalized := NormalizeTagNames(names)
	if len(normalized) == 0 {
		return nil, nil
	}
	tags, err := a.store.EnsureTags(normalized)
	if err != nil {
		return nil, fmt.Errorf("resolve tags: %w", err)
	}
	return tags, nil
}

// ListTags returns the full tag catalog.
func (a *App) ListTags() ([]domain.Tag, error) {
	return a.store.ListTags()
}
