package dedup

import "strings"

// DefaultInternalPrefixes are the URL prefixes of browser-internal pages
// that are never considered duplicates.
var DefaultInternalPrefixes = []string{
	"chrome://",
	"about:",
	"chrome-extension://",
	"edge://",
}

// Classifier decides whether a tab may participate in deduplication.
type Classifier struct {
	prefixes []string
}

// NewClassifier builds a classifier over the given internal prefixes. A nil
// or empty slice falls back to DefaultInternalPrefixes.
func NewClassifier(prefixes []string) *Classifier {
	if len(prefixes) == 0 {
		prefixes = DefaultInternalPrefixes
	}
	return &Classifier{prefixes: prefixes}
}

// Eligible reports whether the tab's URL is a regular page URL. Matching is
// a plain prefix test against the raw URL, before any normalization.
func (c *Classifier) Eligible(t Tab) bool {
	for _, p := range c.prefixes {
		if strings.HasPrefix(t.URL, p) {
			return false
		}
	}
	return true
}

// FilterEligible returns the eligible tabs in their original order.
func (c *Classifier) FilterEligible(tabs []Tab) []Tab {
	out := make([]Tab, 0, len(tabs))
	for _, t := range tabs {
		if c.Eligible(t) {
			out = append(out, t)
		}
	}
	return out
}
