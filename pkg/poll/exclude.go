package poll

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sdejongh/ftpwatch/pkg/models"
)

// Excluder drops entries whose name matches one of its patterns.
// Patterns support:
//   - Simple glob patterns: *.tmp, ~$*
//   - Brace alternatives: *.{part,crdownload}
//   - Directory patterns: .git/, node_modules/ (folders only)
//
// Only direct children are watched, so patterns apply to base names.
type Excluder struct {
	patterns []string
}

// NewExcluder compiles and validates the patterns
func NewExcluder(patterns ...[]string) (*Excluder, error) {
	e := &Excluder{}
	for _, list := range patterns {
		for _, p := range list {
			if p == "" {
				continue
			}
			if !doublestar.ValidatePattern(strings.TrimSuffix(p, "/")) {
				return nil, fmt.Errorf("invalid exclude pattern: %q", p)
			}
			e.patterns = append(e.patterns, p)
		}
	}
	return e, nil
}

// Excluded checks if an entry should be ignored
func (e *Excluder) Excluded(entry *models.Entry) bool {
	if e == nil {
		return false
	}

	for _, pattern := range e.patterns {
		if dirPattern, ok := strings.CutSuffix(pattern, "/"); ok {
			if entry.Kind() != models.KindDirectory {
				continue
			}
			pattern = dirPattern
		}
		if matched, _ := doublestar.Match(pattern, entry.Name); matched {
			return true
		}
	}
	return false
}

// Filter returns the entries that are not excluded
func (e *Excluder) Filter(entries []models.Entry) []models.Entry {
	if e == nil || len(e.patterns) == 0 {
		return entries
	}

	out := make([]models.Entry, 0, len(entries))
	for i := range entries {
		if !e.Excluded(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out
}
