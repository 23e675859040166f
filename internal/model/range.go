package model

import "strings"

// IsRangeLabel reports whether a display label spans more than one day.
func IsRangeLabel(label string) bool {
	return strings.Contains(label, ",")
}

// RangeLabels splits a range label into its trimmed day labels.
func RangeLabels(label string) []string {
	parts := strings.Split(label, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
