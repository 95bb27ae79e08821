// Package complete implements prefix completion over a fixed command vocabulary.
package complete

import (
	"sort"
	"strings"
)

// Completer answers indexed prefix queries the way readline-style completers
// are driven: index 0 starts a new query, later indexes walk the same matches.
type Completer struct {
	options []string

	cached     bool
	lastPrefix string
	matches    []string
}

// New sorts a copy of options.
func New(options []string) *Completer {
	sorted := make([]string, 0, len(options))
	for _, opt := range options {
		if opt != "" {
			sorted = append(sorted, opt)
		}
	}
	sort.Strings(sorted)
	return &Completer{options: sorted}
}

// Complete returns the index-th option starting with prefix.
func (c *Completer) Complete(prefix string, index int) (string, bool) {
	if index < 0 {
		return "", false
	}
	matches := c.matchesFor(prefix)
	if index >= len(matches) {
		return "", false
	}
	return matches[index], true
}

// Matches returns every option starting with prefix, in sorted order.
func (c *Completer) Matches(prefix string) []string {
	matches := c.matchesFor(prefix)
	out := make([]string, len(matches))
	copy(out, matches)
	return out
}

func (c *Completer) matchesFor(prefix string) []string {
	if c.cached && prefix == c.lastPrefix {
		return c.matches
	}

	matches := make([]string, 0, len(c.options))
	for _, opt := range c.options {
		if strings.HasPrefix(opt, prefix) {
			matches = append(matches, opt)
		}
	}

	c.cached = true
	c.lastPrefix = prefix
	c.matches = matches
	return matches
}
