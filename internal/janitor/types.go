package janitor

import (
	"time"

	"github.com/dgnsrekt/tab_janitor/internal/batch"
)

// TabView is one open tab as reported by ListTabs.
type TabView struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	BaseURL  string `json:"base_url"`
	Eligible bool   `json:"eligible"`
	Focused  bool   `json:"focused"`
}

// DuplicateGroup is one group from a dry-run preview.
type DuplicateGroup struct {
	Key      string  `json:"key"`
	TabIDs   []int64 `json:"tab_ids"`
	CloseIDs []int64 `json:"close_ids"`
	KeepID   int64   `json:"keep_id"`
}

// Preview is the dry-run view of what a default-rule sweep would do.
type Preview struct {
	Groups     []DuplicateGroup `json:"groups"`
	CloseCount int              `json:"close_count"`
	TabsSeen   int              `json:"tabs_seen"`
}

// ClosedTabView is one tab a sweep closed.
type ClosedTabView struct {
	ID    int64  `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Rule        string          `json:"rule"`
	BatchID     string          `json:"batch_id,omitempty"`
	Closed      []ClosedTabView `json:"closed"`
	ClosedCount int             `json:"closed_count"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	Groups      int             `json:"groups"`
	TabsSeen    int             `json:"tabs_seen"`
}

// TestResult is the outcome of a pattern dry run.
type TestResult struct {
	Pattern    string  `json:"pattern"`
	MatchIDs   []int64 `json:"match_ids"`
	MatchCount int     `json:"match_count"`
}

// RestoreResult summarises one batch restore.
type RestoreResult struct {
	BatchID       string   `json:"batch_id,omitempty"`
	Restored      []string `json:"restored"`
	RestoredCount int      `json:"restored_count"`
}

// BatchView is the outstanding batch as reported by LastBatch.
type BatchView struct {
	ID        string            `json:"id"`
	Rule      string            `json:"rule"`
	CreatedAt time.Time         `json:"created_at"`
	Tabs      []batch.ClosedTab `json:"tabs"`
	Count     int               `json:"count"`
}

// Health reports service liveness.
type Health struct {
	Status       string `json:"status"`
	Tabs         int    `json:"tabs"`
	BatchPending bool   `json:"batch_pending"`
}
