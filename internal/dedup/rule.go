package dedup

import (
	"fmt"
	"regexp"
)

// RuleKind discriminates the two grouping strategies.
type RuleKind string

const (
	// KindDefault groups by normalized base URL.
	KindDefault RuleKind = "default"
	// KindCustom groups every tab whose URL matches a regular expression
	// into one group.
	KindCustom RuleKind = "custom"
)

// Rule describes how tabs are keyed into duplicate groups.
type Rule struct {
	Kind    RuleKind
	Name    string
	Pattern string
}

// DefaultRule returns the built-in base-URL rule.
func DefaultRule() Rule {
	return Rule{Kind: KindDefault}
}

// CustomRule returns a pattern rule. The pattern is not validated here;
// KeyFunc reports compilation failures.
func CustomRule(name, pattern string) Rule {
	return Rule{Kind: KindCustom, Name: name, Pattern: pattern}
}

// KeyFunc maps a tab to its group key. ok=false excludes the tab from
// grouping entirely.
type KeyFunc func(t Tab) (key string, ok bool)

// KeyFunc compiles the rule into a key function. For custom rules an invalid
// pattern is reported here, before the caller has taken any action, so a bad
// rule can never cause a partial sweep. All tabs matching a custom pattern
// share the single key r.Pattern.
func (r Rule) KeyFunc() (KeyFunc, error) {
	switch r.Kind {
	case KindCustom:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", r.Pattern, err)
		}
		pattern := r.Pattern
		return func(t Tab) (string, bool) {
			return pattern, re.MatchString(t.URL)
		}, nil
	default:
		return func(t Tab) (string, bool) {
			return BaseURL(t.URL), true
		}, nil
	}
}
