// Package filter implements lesson matching by group.
package filter

import (
	"strings"

	"timetable/internal/model"
)

// MatchGroup reports whether group contains query, ignoring case.
// Matching is by substring, so "И-25" matches both "И-25-1" and "И-25-2".
func MatchGroup(group, query string) bool {
	return strings.Contains(strings.ToLower(group), strings.ToLower(query))
}

// ByGroup returns the entries whose group matches query, in their original order.
// The result is never nil.
func ByGroup(entries []model.LessonEntry, query string) []model.LessonEntry {
	matched := make([]model.LessonEntry, 0)
	for _, e := range entries {
		if MatchGroup(e.Group, query) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Groups returns the distinct non-blank group labels of entries in first-seen order.
func Groups(entries []model.LessonEntry) []string {
	seen := make(map[string]struct{})
	var groups []string
	for _, e := range entries {
		if strings.TrimSpace(e.Group) == "" {
			continue
		}
		if _, ok := seen[e.Group]; ok {
			continue
		}
		seen[e.Group] = struct{}{}
		groups = append(groups, e.Group)
	}
	return groups
}
