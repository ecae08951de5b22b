// Package batch persists the single-slot record of the most recent sweep so
// its tabs can be restored. Each new sweep overwrites the previous batch.
package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ClosedTab is the snapshot taken of a tab just before it closed.
type ClosedTab struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Batch is one sweep's worth of closed tabs, in the order they were closed.
type Batch struct {
	ID        string      `json:"id"`
	Rule      string      `json:"rule"`
	CreatedAt time.Time   `json:"created_at"`
	Tabs      []ClosedTab `json:"tabs"`
	Count     int         `json:"count"`
}

// New builds a batch with a fresh id and timestamp.
func New(rule string, tabs []ClosedTab) Batch {
	return Batch{
		ID:        uuid.NewString(),
		Rule:      rule,
		CreatedAt: time.Now().UTC(),
		Tabs:      tabs,
		Count:     len(tabs),
	}
}

// Store holds the batch file on disk.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a Store and ensures the parent directory exists.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("batch store: mkdir %s: %w", filepath.Dir(path), err)
	}
	return &Store{path: path}, nil
}

// Save overwrites the slot with the given batch.
func (s *Store) Save(b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("batch store: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("batch store: write temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("batch store: rename: %w", err)
	}
	return nil
}

// Load reads the current batch. ok is false when the slot is empty.
func (s *Store) Load() (Batch, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Batch{}, false, nil
		}
		return Batch{}, false, fmt.Errorf("batch store: read: %w", err)
	}

	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return Batch{}, false, fmt.Errorf("batch store: unmarshal: %w", err)
	}
	return b, true, nil
}

// Clear empties the slot. Clearing an already empty slot is fine.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("batch store: clear: %w", err)
	}
	return nil
}
