// Package names turns raw party, list and station labels into stable
// identifiers and display names for output columns.
package names

import "strings"

// Characters replaced with an underscore when slugging.
var slugReplaced = []string{" ", "-", "/", "(", ")", "’", "'", "„", "”"}

// Characters removed outright when slugging.
var slugStripped = []string{",", ".", ":", ";"}

// Slugify converts a display label into a lowercase token safe as a column
// name suffix. The result never has leading, trailing or doubled underscores
// and is never empty: an absent or unusable label yields "unknown".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	for _, ch := range slugReplaced {
		s = strings.ReplaceAll(s, ch, "_")
	}

	for _, ch := range slugStripped {
		s = strings.ReplaceAll(s, ch, "")
	}

	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}

	s = strings.Trim(s, "_")
	if s == "" {
		return "unknown"
	}

	return s
}
