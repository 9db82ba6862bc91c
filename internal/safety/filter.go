// Package safety provides filtering, confirmation, and audit logging for
// tools that change OptiSigns fleet state.
package safety

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Filter decides which devices mutating tools may touch, by device name.
// Patterns use filepath.Match syntax and are compared case-insensitively.
//
// The denylist always wins. An empty allowlist admits every name that was
// not denied; a non-empty one admits only names matching one of its
// patterns.
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter. Either list may be nil.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: lowerAll(allowlist),
		denylist:  lowerAll(denylist),
	}
}

// IsAllowed reports whether name is permitted. A nil Filter allows all.
func (f *Filter) IsAllowed(name string) bool {
	if f == nil {
		return true
	}
	name = strings.ToLower(name)

	for _, pattern := range f.denylist {
		if matchGlob(pattern, name) {
			return false
		}
	}
	if len(f.allowlist) == 0 {
		return true
	}
	for _, pattern := range f.allowlist {
		if matchGlob(pattern, name) {
			return true
		}
	}
	return false
}

// Check is IsAllowed returning a descriptive error for denied names.
func (f *Filter) Check(name string) error {
	if !f.IsAllowed(name) {
		return fmt.Errorf("device %q is blocked by the safety filter", name)
	}
	return nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// matchGlob treats malformed patterns as non-matching.
func matchGlob(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}
