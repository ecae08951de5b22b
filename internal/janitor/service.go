// Package janitor orchestrates sweeps: it snapshots the browser, runs the
// duplicate selection engine, persists the closed batch, and closes tabs.
package janitor

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dgnsrekt/tab_janitor/internal/batch"
	"github.com/dgnsrekt/tab_janitor/internal/cdptab"
	"github.com/dgnsrekt/tab_janitor/internal/dedup"
	"github.com/dgnsrekt/tab_janitor/internal/history"
	"github.com/dgnsrekt/tab_janitor/internal/notify"
	"github.com/dgnsrekt/tab_janitor/internal/rules"
)

// Host is the browser side the service drives.
type Host interface {
	Snapshot(ctx context.Context) ([]cdptab.TabInfo, int64, error)
	CloseTab(ctx context.Context, id int64) error
	CreateTab(ctx context.Context, url string) (int64, error)
}

// Service wraps sweep and restore operations. Triggers are serialized with a
// mutex: the batch slot holds exactly one sweep, so concurrent triggers would
// otherwise race over it.
type Service struct {
	host    Host
	rules   *rules.Store
	batch   *batch.Store
	journal *history.Journal
	cls     *dedup.Classifier

	// notifier is optional; nil drops every message.
	notifier *notify.Notifier

	mu sync.Mutex
}

func NewService(host Host, ruleStore *rules.Store, batchStore *batch.Store, journal *history.Journal, cls *dedup.Classifier) *Service {
	if cls == nil {
		cls = dedup.NewClassifier(nil)
	}
	return &Service{host: host, rules: ruleStore, batch: batchStore, journal: journal, cls: cls}
}

// SetNotifier enables push notifications for sweeps and restores.
func (s *Service) SetNotifier(n *notify.Notifier) {
	s.notifier = n
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &cdptab.CodedError{Code: cdptab.CodeValidation, Message: fieldName + " is required"}
	}
	return nil
}

// ListTabs returns every open tab with its grouping key and eligibility.
func (s *Service) ListTabs(ctx context.Context) ([]TabView, error) {
	tabs, focusedID, err := s.host.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TabView, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, TabView{
			ID:       t.ID,
			URL:      t.URL,
			Title:    t.Title,
			BaseURL:  dedup.BaseURL(t.URL),
			Eligible: s.cls.Eligible(dedup.Tab{ID: t.ID, URL: t.URL}),
			Focused:  t.ID == focusedID,
		})
	}
	return out, nil
}

// PreviewSweep reports what a default-rule sweep would close without touching
// anything.
func (s *Service) PreviewSweep(ctx context.Context) (Preview, error) {
	tabs, focusedID, err := s.host.Snapshot(ctx)
	if err != nil {
		return Preview{}, err
	}

	engineTabs := toEngineTabs(tabs)
	keyFn, err := dedup.DefaultRule().KeyFunc()
	if err != nil {
		return Preview{}, err
	}
	groups := dedup.GroupBy(s.cls.FilterEligible(engineTabs), keyFn)

	preview := Preview{TabsSeen: len(tabs)}
	for key, group := range groups {
		closeIDs := dedup.SelectToClose(group, focusedID)
		if len(closeIDs) == 0 {
			continue
		}
		closing := make(map[int64]bool, len(closeIDs))
		for _, id := range closeIDs {
			closing[id] = true
		}
		g := DuplicateGroup{Key: key, CloseIDs: closeIDs}
		for _, t := range group {
			g.TabIDs = append(g.TabIDs, t.ID)
			if !closing[t.ID] {
				g.KeepID = t.ID
			}
		}
		preview.Groups = append(preview.Groups, g)
		preview.CloseCount += len(closeIDs)
	}

	sort.Slice(preview.Groups, func(i, j int) bool { return preview.Groups[i].Key < preview.Groups[j].Key })
	return preview, nil
}

// SweepDefault closes duplicates under the base-URL rule.
func (s *Service) SweepDefault(ctx context.Context) (SweepResult, error) {
	return s.sweep(ctx, dedup.DefaultRule(), "default")
}

// SweepPattern closes duplicates under an ad-hoc custom rule. An invalid
// pattern aborts before anything is snapshotted, stored, or closed.
func (s *Service) SweepPattern(ctx context.Context, name, pattern string) (SweepResult, error) {
	if err := s.requireNonEmpty(pattern, "pattern"); err != nil {
		return SweepResult{}, err
	}
	label := strings.TrimSpace(name)
	if label == "" {
		label = "pattern"
	}
	return s.sweep(ctx, dedup.CustomRule(label, pattern), label)
}

// SweepSaved runs a stored rule by name.
func (s *Service) SweepSaved(ctx context.Context, name string) (SweepResult, error) {
	if err := s.requireNonEmpty(name, "name"); err != nil {
		return SweepResult{}, err
	}
	r, err := s.rules.Get(strings.TrimSpace(name))
	if err != nil {
		return SweepResult{}, err
	}
	return s.sweep(ctx, dedup.CustomRule(r.Name, r.Pattern), r.Name)
}

// TestPattern reports which tabs a pattern would group, without closing.
func (s *Service) TestPattern(ctx context.Context, pattern string) (TestResult, error) {
	if err := s.requireNonEmpty(pattern, "pattern"); err != nil {
		return TestResult{}, err
	}
	keyFn, err := dedup.CustomRule("test", pattern).KeyFunc()
	if err != nil {
		return TestResult{}, cdptab.NewError(cdptab.CodeValidation, "invalid pattern", err)
	}

	tabs, _, err := s.host.Snapshot(ctx)
	if err != nil {
		return TestResult{}, err
	}

	result := TestResult{Pattern: pattern, MatchIDs: []int64{}}
	for _, t := range s.cls.FilterEligible(toEngineTabs(tabs)) {
		if _, ok := keyFn(t); ok {
			result.MatchIDs = append(result.MatchIDs, t.ID)
		}
	}
	result.MatchCount = len(result.MatchIDs)
	return result, nil
}

// RestoreLast reopens the tabs of the outstanding batch in their stored order
// and clears the slot. An empty slot is a silent no-op. If any tab fails to
// reopen the batch is kept so the restore can be retried.
func (s *Service) RestoreLast(ctx context.Context) (RestoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok, err := s.batch.Load()
	if err != nil {
		return RestoreResult{}, err
	}
	if !ok || len(b.Tabs) == 0 {
		slog.Debug("janitor restore skipped, no batch")
		return RestoreResult{Restored: []string{}}, nil
	}

	restored := make([]string, 0, len(b.Tabs))
	for _, t := range b.Tabs {
		if _, err := s.host.CreateTab(ctx, t.URL); err != nil {
			slog.Error("janitor restore failed", "batch_id", b.ID, "url", t.URL, "error", err)
			return RestoreResult{}, err
		}
		restored = append(restored, t.URL)
	}

	if err := s.batch.Clear(); err != nil {
		return RestoreResult{}, err
	}

	s.journal.Record(history.Entry{Op: "restore", Rule: b.Rule, Restored: restored, Count: len(restored)})
	if err := s.notifier.RestoreDone(ctx, len(restored)); err != nil {
		slog.Warn("janitor restore notification failed", "error", err)
	}
	slog.Info("janitor restore ok", "batch_id", b.ID, "count", len(restored))
	return RestoreResult{BatchID: b.ID, Restored: restored, RestoredCount: len(restored)}, nil
}

// LastBatch peeks at the outstanding batch without consuming it.
func (s *Service) LastBatch(ctx context.Context) (BatchView, bool, error) {
	_ = ctx
	b, ok, err := s.batch.Load()
	if err != nil || !ok {
		return BatchView{}, false, err
	}
	return BatchView{ID: b.ID, Rule: b.Rule, CreatedAt: b.CreatedAt, Tabs: b.Tabs, Count: b.Count}, true, nil
}

// ListRules returns the stored custom rules.
func (s *Service) ListRules(ctx context.Context) ([]rules.Rule, error) {
	_ = ctx
	return s.rules.List()
}

// PutRule stores or replaces a custom rule.
func (s *Service) PutRule(ctx context.Context, name, pattern string) (rules.Rule, error) {
	_ = ctx
	if err := s.requireNonEmpty(pattern, "pattern"); err != nil {
		return rules.Rule{}, err
	}
	r := rules.Rule{Name: strings.TrimSpace(name), Pattern: pattern}
	if err := s.rules.Put(r); err != nil {
		return rules.Rule{}, err
	}
	return r, nil
}

// DeleteRule removes a custom rule.
func (s *Service) DeleteRule(ctx context.Context, name string) error {
	_ = ctx
	if err := s.requireNonEmpty(name, "name"); err != nil {
		return err
	}
	return s.rules.Delete(strings.TrimSpace(name))
}

// Health reports liveness and the pending batch state.
func (s *Service) Health(ctx context.Context) (Health, error) {
	tabs, _, err := s.host.Snapshot(ctx)
	if err != nil {
		return Health{Status: "degraded"}, nil
	}
	_, pending, _ := s.batch.Load()
	return Health{Status: "ok", Tabs: len(tabs), BatchPending: pending}, nil
}

// sweep is the shared close path. The ordering contract is fixed: snapshot,
// persist the batch, then close. The batch write happening before any close
// means a crash mid-sweep can lose at most the sweep itself, never the
// restore data for tabs already closed.
func (s *Service) sweep(ctx context.Context, rule dedup.Rule, label string) (SweepResult, error) {
	// Compile before taking the lock so a bad pattern has no side effects.
	if _, err := rule.KeyFunc(); err != nil {
		return SweepResult{}, cdptab.NewError(cdptab.CodeValidation, "invalid pattern", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tabs, focusedID, err := s.host.Snapshot(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	plan, err := dedup.BuildPlan(toEngineTabs(tabs), focusedID, rule, s.cls)
	if err != nil {
		return SweepResult{}, cdptab.NewError(cdptab.CodeValidation, "invalid pattern", err)
	}

	result := SweepResult{Rule: label, Closed: []ClosedTabView{}, Groups: plan.Groups, TabsSeen: len(tabs)}
	if len(plan.Close) == 0 {
		slog.Info("janitor sweep no duplicates", "rule", label, "tabs", len(tabs))
		return result, nil
	}

	byID := make(map[int64]cdptab.TabInfo, len(tabs))
	for _, t := range tabs {
		byID[t.ID] = t
	}

	closedTabs := make([]batch.ClosedTab, 0, len(plan.Close))
	for _, t := range plan.Close {
		info := byID[t.ID]
		closedTabs = append(closedTabs, batch.ClosedTab{URL: info.URL, Title: info.Title})
	}

	b := batch.New(label, closedTabs)
	if err := s.batch.Save(b); err != nil {
		slog.Error("janitor batch save failed, sweep aborted", "rule", label, "error", err)
		return SweepResult{}, err
	}

	closedURLs := make([]string, 0, len(plan.Close))
	for _, t := range plan.Close {
		info := byID[t.ID]
		if err := s.host.CloseTab(ctx, t.ID); err != nil {
			var coded *cdptab.CodedError
			if errors.As(err, &coded) && coded.Code == cdptab.CodeTabNotFound {
				slog.Debug("janitor stale tab skipped", "id", t.ID, "url", info.URL)
				result.Skipped++
				continue
			}
			slog.Warn("janitor close failed", "id", t.ID, "url", info.URL, "error", err)
			result.Failed++
			continue
		}
		result.Closed = append(result.Closed, ClosedTabView{ID: t.ID, URL: info.URL, Title: info.Title})
		closedURLs = append(closedURLs, info.URL)
	}
	result.BatchID = b.ID
	result.ClosedCount = len(result.Closed)

	s.journal.Record(history.Entry{
		Op:      "sweep",
		Rule:    label,
		Pattern: rule.Pattern,
		Closed:  closedURLs,
		Count:   result.ClosedCount,
	})
	if result.ClosedCount > 0 {
		if err := s.notifier.SweepDone(ctx, label, result.ClosedCount); err != nil {
			slog.Warn("janitor sweep notification failed", "error", err)
		}
	}
	slog.Info("janitor sweep ok", "rule", label, "closed", result.ClosedCount, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func toEngineTabs(tabs []cdptab.TabInfo) []dedup.Tab {
	out := make([]dedup.Tab, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, dedup.Tab{ID: t.ID, URL: t.URL})
	}
	return out
}
