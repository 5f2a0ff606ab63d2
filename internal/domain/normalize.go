package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for fullName normalization.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeText trims surrounding whitespace but keeps internal line breaks (history fields).
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}
