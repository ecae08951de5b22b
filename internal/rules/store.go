// Package rules persists named custom grouping rules on disk.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/dgnsrekt/tab_janitor/internal/cdptab"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

// Rule is a stored custom grouping rule.
type Rule struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// Store manages the rule file on disk. The full rule set lives in one JSON
// document; writes go through a temp file and rename so a crash never leaves
// a truncated store behind.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a Store and ensures the parent directory exists.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("rule store: mkdir %s: %w", filepath.Dir(path), err)
	}
	return &Store{path: path}, nil
}

func validateName(name string) error {
	if !nameRe.MatchString(name) {
		return cdptab.NewError(cdptab.CodeValidation, fmt.Sprintf("invalid rule name: %q", name), nil)
	}
	return nil
}

// Put stores or replaces a rule. The pattern is compiled here so an invalid
// rule can never reach the store.
func (s *Store) Put(r Rule) error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	if _, err := regexp.Compile(r.Pattern); err != nil {
		return cdptab.NewError(cdptab.CodeValidation, "invalid rule pattern", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.readLocked()
	if err != nil {
		return err
	}
	set[r.Name] = r
	return s.writeLocked(set)
}

// Get reads one rule by name.
func (s *Store) Get(name string) (Rule, error) {
	if err := validateName(name); err != nil {
		return Rule{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	set, err := s.readLocked()
	if err != nil {
		return Rule{}, err
	}
	r, ok := set[name]
	if !ok {
		return Rule{}, cdptab.NewError(cdptab.CodeRuleNotFound, "rule not found: "+name, nil)
	}
	return r, nil
}

// List returns all rules sorted by name.
func (s *Store) List() ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	out := make([]Rule, 0, len(set))
	for _, r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a rule by name. A missing rule is an error so callers can
// distinguish a typo from a successful delete.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, ok := set[name]; !ok {
		return cdptab.NewError(cdptab.CodeRuleNotFound, "rule not found: "+name, nil)
	}
	delete(set, name)
	return s.writeLocked(set)
}

func (s *Store) readLocked() (map[string]Rule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]Rule), nil
		}
		return nil, fmt.Errorf("rule store: read: %w", err)
	}

	var list []Rule
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("rule store: unmarshal: %w", err)
	}
	set := make(map[string]Rule, len(list))
	for _, r := range list {
		set[r.Name] = r
	}
	return set, nil
}

func (s *Store) writeLocked(set map[string]Rule) error {
	list := make([]Rule, 0, len(set))
	for _, r := range set {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("rule store: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("rule store: write temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rule store: rename: %w", err)
	}
	return nil
}
