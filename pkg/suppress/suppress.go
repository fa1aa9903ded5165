// Package suppress implements name-based suppression of unused resource findings.
package suppress

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Checker holds keep patterns. A resource whose name matches one is never
// reported unused, e.g. app icons referenced only from Info.plist.
type Checker struct {
	// patterns are doublestar patterns matched against resource names
	patterns []string
}

// NewChecker creates a new suppression checker. Every pattern must be a valid
// doublestar pattern.
func NewChecker(patterns []string) (*Checker, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid keep pattern %q", p)
		}
	}
	return &Checker{patterns: patterns}, nil
}

// IsSuppressed reports whether name matches a keep pattern, and which one.
func (sc *Checker) IsSuppressed(name string) (bool, string) {
	if sc == nil {
		return false, ""
	}
	for _, p := range sc.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true, p
		}
	}
	return false, ""
}

// Split separates names into the ones a keep pattern matches and the rest,
// preserving order.
func (sc *Checker) Split(names []string) (kept, rest []string) {
	rest = make([]string, 0, len(names))
	for _, n := range names {
		if ok, _ := sc.IsSuppressed(n); ok {
			kept = append(kept, n)
			continue
		}
		rest = append(rest, n)
	}
	return kept, rest
}
