// Package analysis decides whether a resource name is referenced by source text.
package analysis

import (
	"regexp"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

// fragmentSeparator matches the runs that split a digit-bearing name into
// fragments: digits, underscores and hyphens.
var fragmentSeparator = regexp.MustCompile(`[0-9_\-]+`)

// Matcher applies the usage policy and caches the fragment split of every
// name it sees. It is safe for concurrent use.
type Matcher struct {
	fragments *xsync.Map[string, []string]
}

// NewMatcher creates a Matcher with an empty fragment cache.
func NewMatcher() *Matcher {
	return &Matcher{
		fragments: xsync.NewMap[string, []string](),
	}
}

// IsUsed reports whether name is referenced by content.
//
// A literal occurrence is always a hit. Names containing a digit are also
// treated as used when every non-empty fragment left after removing digits,
// '_' and '-' occurs somewhere in content. A name with no fragments falls
// back to the literal check only.
func (m *Matcher) IsUsed(name, content string) bool {
	return isUsed(name, content, m.Fragments)
}

// Fragments returns the non-empty pieces of name between separator runs.
func (m *Matcher) Fragments(name string) []string {
	frags, _ := m.fragments.LoadOrCompute(name, func() ([]string, bool) {
		return splitFragments(name), false
	})
	return frags
}

// IsUsed applies the usage policy without a shared cache.
func IsUsed(name, content string) bool {
	return isUsed(name, content, splitFragments)
}

func isUsed(name, content string, fragments func(string) []string) bool {
	if strings.Contains(content, name) {
		return true
	}
	if !hasDigit(name) {
		return false
	}
	frags := fragments(name)
	if len(frags) == 0 {
		return false
	}
	for _, frag := range frags {
		if !strings.Contains(content, frag) {
			return false
		}
	}
	return true
}

func splitFragments(name string) []string {
	parts := fragmentSeparator.Split(name, -1)
	frags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			frags = append(frags, p)
		}
	}
	return frags
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}
