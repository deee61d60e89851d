// internal/app/system/search/search.go
package search

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Query folds a raw ?q= value for Matches.
func Query(q string) string {
	return text.Fold(strings.TrimSpace(q))
}

// Matches reports whether fq (from Query) is a prefix of any field, or of
// any space-separated word in one. Fields must already be folded; the
// *_ci columns are. An empty fq matches everything.
func Matches(fq string, fields ...string) bool {
	if fq == "" {
		return true
	}
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.HasPrefix(f, fq) {
			return true
		}
		for _, w := range strings.Fields(f) {
			if strings.HasPrefix(w, fq) {
				return true
			}
		}
	}
	return false
}

// IsEmailQuery reports whether the user is clearly searching by email, in
// which case lists sort by email rather than name.
func IsEmailQuery(q string) bool {
	return strings.Contains(q, "@")
}
