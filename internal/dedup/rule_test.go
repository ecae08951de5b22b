package dedup

import "testing"

func TestDefaultRuleKeyFunc(t *testing.T) {
	keyFn, err := DefaultRule().KeyFunc()
	if err != nil {
		t.Fatalf("KeyFunc() error = %v", err)
	}
	key, ok := keyFn(Tab{ID: 1, URL: "https://example.com/a?x=1#y"})
	if !ok {
		t.Fatal("default rule must include every tab")
	}
	if key != "https://example.com/a" {
		t.Fatalf("key = %q, want %q", key, "https://example.com/a")
	}
}

func TestCustomRuleKeyFunc(t *testing.T) {
	rule := CustomRule("docs", `^https://docs\.`)
	keyFn, err := rule.KeyFunc()
	if err != nil {
		t.Fatalf("KeyFunc() error = %v", err)
	}
	if key, ok := keyFn(Tab{URL: "https://docs.example.com/page"}); !ok || key != rule.Pattern {
		t.Fatalf("match: key = %q ok = %v, want pattern key and true", key, ok)
	}
	if _, ok := keyFn(Tab{URL: "https://example.com"}); ok {
		t.Fatal("non-matching tab must be excluded")
	}
}

func TestCustomRuleInvalidPattern(t *testing.T) {
	if _, err := CustomRule("bad", "[unclosed").KeyFunc(); err == nil {
		t.Fatal("KeyFunc() expected error for invalid pattern")
	}
}
