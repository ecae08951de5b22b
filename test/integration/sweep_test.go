//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestHealth(t *testing.T) {
	var health struct {
		Status string `json:"status"`
	}
	getJSON(t, "/api/v1/health", &health)
	if health.Status != "ok" {
		t.Fatalf("health status = %q, want ok", health.Status)
	}
}

func TestListTabs(t *testing.T) {
	var listing struct {
		Tabs []struct {
			ID      int64  `json:"id"`
			URL     string `json:"url"`
			BaseURL string `json:"base_url"`
		} `json:"tabs"`
		Count int `json:"count"`
	}
	getJSON(t, "/api/v1/tabs", &listing)
	if listing.Count != len(listing.Tabs) {
		t.Fatalf("count = %d, tabs = %d", listing.Count, len(listing.Tabs))
	}
	for _, tab := range listing.Tabs {
		if tab.ID <= 0 {
			t.Fatalf("tab without ordinal: %+v", tab)
		}
	}
}

func TestSweepAndRestoreRoundTrip(t *testing.T) {
	var before struct {
		Count int `json:"count"`
	}
	getJSON(t, "/api/v1/tabs", &before)

	var sweep struct {
		ClosedCount int `json:"closed_count"`
	}
	if status := postJSON(t, "/api/v1/sweep", nil, &sweep); status != http.StatusOK {
		t.Fatalf("POST /api/v1/sweep status = %d", status)
	}

	var after struct {
		Count int `json:"count"`
	}
	getJSON(t, "/api/v1/tabs", &after)
	if after.Count != before.Count-sweep.ClosedCount {
		t.Fatalf("tab count %d after closing %d of %d", after.Count, sweep.ClosedCount, before.Count)
	}

	if sweep.ClosedCount == 0 {
		t.Skip("no duplicates open, restore has nothing to verify")
	}

	var restore struct {
		RestoredCount int `json:"restored_count"`
	}
	if status := postJSON(t, "/api/v1/batch/restore", nil, &restore); status != http.StatusOK {
		t.Fatalf("POST /api/v1/batch/restore status = %d", status)
	}
	if restore.RestoredCount != sweep.ClosedCount {
		t.Fatalf("restored %d, closed %d", restore.RestoredCount, sweep.ClosedCount)
	}

	// The slot is consumed; a second restore is a no-op.
	var again struct {
		RestoredCount int `json:"restored_count"`
	}
	postJSON(t, "/api/v1/batch/restore", nil, &again)
	if again.RestoredCount != 0 {
		t.Fatalf("second restore reopened %d tab(s)", again.RestoredCount)
	}
}

func TestInvalidPatternRejected(t *testing.T) {
	body := map[string]string{"pattern": "[unclosed"}
	if status := postJSON(t, "/api/v1/sweep/pattern", body, nil); status != http.StatusBadRequest {
		t.Fatalf("POST /api/v1/sweep/pattern status = %d, want 400", status)
	}
}
