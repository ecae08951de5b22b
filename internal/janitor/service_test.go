package janitor

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dgnsrekt/tab_janitor/internal/batch"
	"github.com/dgnsrekt/tab_janitor/internal/cdptab"
	"github.com/dgnsrekt/tab_janitor/internal/dedup"
	"github.com/dgnsrekt/tab_janitor/internal/history"
	"github.com/dgnsrekt/tab_janitor/internal/rules"
)

// fakeHost is an in-memory Host for exercising the orchestration paths.
type fakeHost struct {
	tabs      []cdptab.TabInfo
	focusedID int64

	snapshots int
	closed    []int64
	created   []string

	closeErr  map[int64]error
	createErr map[string]error
	onClose   func(id int64)
}

func (f *fakeHost) Snapshot(ctx context.Context) ([]cdptab.TabInfo, int64, error) {
	f.snapshots++
	out := make([]cdptab.TabInfo, len(f.tabs))
	copy(out, f.tabs)
	return out, f.focusedID, nil
}

func (f *fakeHost) CloseTab(ctx context.Context, id int64) error {
	if err, ok := f.closeErr[id]; ok {
		return err
	}
	if f.onClose != nil {
		f.onClose(id)
	}
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeHost) CreateTab(ctx context.Context, url string) (int64, error) {
	if err, ok := f.createErr[url]; ok {
		return 0, err
	}
	f.created = append(f.created, url)
	return int64(100 + len(f.created)), nil
}

func newTestService(t *testing.T, host *fakeHost) (*Service, *batch.Store) {
	t.Helper()
	dir := t.TempDir()
	ruleStore, err := rules.NewStore(filepath.Join(dir, "rules.json"))
	if err != nil {
		t.Fatalf("rules.NewStore() error = %v", err)
	}
	batchStore, err := batch.NewStore(filepath.Join(dir, "batch.json"))
	if err != nil {
		t.Fatalf("batch.NewStore() error = %v", err)
	}
	journal := history.NewJournal(filepath.Join(dir, "sweeps.jsonl"), 1)
	t.Cleanup(func() { _ = journal.Close() })
	return NewService(host, ruleStore, batchStore, journal, dedup.NewClassifier(nil)), batchStore
}

func dupTabs() []cdptab.TabInfo {
	return []cdptab.TabInfo{
		{ID: 1, URL: "https://example.com/a?x=1", Title: "A1"},
		{ID: 2, URL: "https://example.com/a", Title: "A2"},
		{ID: 3, URL: "https://example.com/b", Title: "B"},
		{ID: 4, URL: "https://example.com/a#frag", Title: "A3"},
		{ID: 5, URL: "chrome://settings", Title: "Settings"},
	}
}

func TestSweepDefaultClosesDuplicates(t *testing.T) {
	host := &fakeHost{tabs: dupTabs()}
	svc, _ := newTestService(t, host)

	res, err := svc.SweepDefault(context.Background())
	if err != nil {
		t.Fatalf("SweepDefault() error = %v", err)
	}
	if got, want := host.closed, []int64{1, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("closed = %v, want %v", got, want)
	}
	if res.ClosedCount != 2 || res.Groups != 1 || res.BatchID == "" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSweepKeepsFocusedTab(t *testing.T) {
	host := &fakeHost{tabs: dupTabs(), focusedID: 1}
	svc, _ := newTestService(t, host)

	if _, err := svc.SweepDefault(context.Background()); err != nil {
		t.Fatalf("SweepDefault() error = %v", err)
	}
	for _, id := range host.closed {
		if id == 1 {
			t.Fatal("focused tab was closed")
		}
	}
	if got, want := host.closed, []int64{2, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("closed = %v, want %v", got, want)
	}
}

func TestSweepPersistsBatchBeforeClosing(t *testing.T) {
	host := &fakeHost{tabs: dupTabs()}
	svc, batchStore := newTestService(t, host)

	host.onClose = func(id int64) {
		if _, ok, err := batchStore.Load(); err != nil || !ok {
			t.Fatalf("batch not persisted before closing tab %d (ok=%v err=%v)", id, ok, err)
		}
	}

	if _, err := svc.SweepDefault(context.Background()); err != nil {
		t.Fatalf("SweepDefault() error = %v", err)
	}

	b, ok, err := batchStore.Load()
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v", ok, err)
	}
	// Batch snapshots the full close set, losers ascending by id.
	want := []batch.ClosedTab{
		{URL: "https://example.com/a?x=1", Title: "A1"},
		{URL: "https://example.com/a", Title: "A2"},
	}
	if !reflect.DeepEqual(b.Tabs, want) {
		t.Fatalf("batch tabs = %v, want %v", b.Tabs, want)
	}
}

func TestSweepNoDuplicatesLeavesBatchAlone(t *testing.T) {
	host := &fakeHost{tabs: dupTabs()}
	svc, batchStore := newTestService(t, host)

	// Seed the slot with a previous sweep.
	if _, err := svc.SweepDefault(context.Background()); err != nil {
		t.Fatalf("SweepDefault() error = %v", err)
	}
	prev, ok, _ := batchStore.Load()
	if !ok {
		t.Fatal("expected a batch after the first sweep")
	}

	host.tabs = []cdptab.TabInfo{
		{ID: 10, URL: "https://a.com"},
		{ID: 11, URL: "https://b.com"},
	}
	res, err := svc.SweepDefault(context.Background())
	if err != nil {
		t.Fatalf("SweepDefault() error = %v", err)
	}
	if res.ClosedCount != 0 {
		t.Fatalf("ClosedCount = %d, want 0", res.ClosedCount)
	}

	cur, ok, _ := batchStore.Load()
	if !ok || cur.ID != prev.ID {
		t.Fatalf("empty sweep replaced the batch: %+v", cur)
	}
}

func TestSweepPatternInvalidHasNoSideEffects(t *testing.T) {
	host := &fakeHost{tabs: dupTabs()}
	svc, batchStore := newTestService(t, host)

	_, err := svc.SweepPattern(context.Background(), "bad", "[unclosed")
	var coded *cdptab.CodedError
	if !errors.As(err, &coded) || coded.Code != cdptab.CodeValidation {
		t.Fatalf("SweepPattern() error = %v, want VALIDATION", err)
	}
	if host.snapshots != 0 || len(host.closed) != 0 {
		t.Fatalf("invalid pattern touched the host: snapshots=%d closed=%v", host.snapshots, host.closed)
	}
	if _, ok, _ := batchStore.Load(); ok {
		t.Fatal("invalid pattern wrote a batch")
	}
}

func TestSweepPatternSingleGroup(t *testing.T) {
	host := &fakeHost{tabs: []cdptab.TabInfo{
		{ID: 1, URL: "https://github.com/org/a"},
		{ID: 2, URL: "https://example.com"},
		{ID: 3, URL: "https://github.com/org/b"},
	}}
	svc, _ := newTestService(t, host)

	res, err := svc.SweepPattern(context.Background(), "gh", `^https://github\.com/`)
	if err != nil {
		t.Fatalf("SweepPattern() error = %v", err)
	}
	if got, want := host.closed, []int64{1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("closed = %v, want %v", got, want)
	}
	if res.Rule != "gh" {
		t.Fatalf("rule = %q, want %q", res.Rule, "gh")
	}
}

func TestSweepSkipsStaleTabs(t *testing.T) {
	host := &fakeHost{
		tabs: dupTabs(),
		closeErr: map[int64]error{
			1: cdptab.NewError(cdptab.CodeTabNotFound, "tab already gone", nil),
		},
	}
	svc, _ := newTestService(t, host)

	res, err := svc.SweepDefault(context.Background())
	if err != nil {
		t.Fatalf("SweepDefault() error = %v", err)
	}
	if res.Skipped != 1 || res.ClosedCount != 1 {
		t.Fatalf("result = %+v, want skipped 1 closed 1", res)
	}
	if got, want := host.closed, []int64{2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("closed = %v, want %v", got, want)
	}
}

func TestRestoreLastRecreatesInOrderAndClears(t *testing.T) {
	host := &fakeHost{tabs: dupTabs()}
	svc, batchStore := newTestService(t, host)

	if _, err := svc.SweepDefault(context.Background()); err != nil {
		t.Fatalf("SweepDefault() error = %v", err)
	}

	res, err := svc.RestoreLast(context.Background())
	if err != nil {
		t.Fatalf("RestoreLast() error = %v", err)
	}
	want := []string{"https://example.com/a?x=1", "https://example.com/a"}
	if !reflect.DeepEqual(host.created, want) {
		t.Fatalf("created = %v, want %v", host.created, want)
	}
	if res.RestoredCount != 2 {
		t.Fatalf("RestoredCount = %d, want 2", res.RestoredCount)
	}
	if _, ok, _ := batchStore.Load(); ok {
		t.Fatal("batch not cleared after restore")
	}
}

func TestRestoreLastEmptyIsNoOp(t *testing.T) {
	host := &fakeHost{}
	svc, _ := newTestService(t, host)

	res, err := svc.RestoreLast(context.Background())
	if err != nil {
		t.Fatalf("RestoreLast() error = %v", err)
	}
	if res.RestoredCount != 0 || len(host.created) != 0 {
		t.Fatalf("empty restore did work: %+v created=%v", res, host.created)
	}
}

func TestRestoreLastKeepsBatchOnFailure(t *testing.T) {
	host := &fakeHost{tabs: dupTabs()}
	svc, batchStore := newTestService(t, host)

	if _, err := svc.SweepDefault(context.Background()); err != nil {
		t.Fatalf("SweepDefault() error = %v", err)
	}

	host.createErr = map[string]error{
		"https://example.com/a": cdptab.NewError(cdptab.CodeCDPUnavailable, "create tab failed", nil),
	}
	if _, err := svc.RestoreLast(context.Background()); err == nil {
		t.Fatal("RestoreLast() expected error")
	}
	if _, ok, _ := batchStore.Load(); !ok {
		t.Fatal("failed restore cleared the batch")
	}
}

func TestSweepSavedUnknownRule(t *testing.T) {
	host := &fakeHost{tabs: dupTabs()}
	svc, _ := newTestService(t, host)

	_, err := svc.SweepSaved(context.Background(), "nope")
	var coded *cdptab.CodedError
	if !errors.As(err, &coded) || coded.Code != cdptab.CodeRuleNotFound {
		t.Fatalf("SweepSaved() error = %v, want RULE_NOT_FOUND", err)
	}
	if host.snapshots != 0 {
		t.Fatal("unknown rule touched the host")
	}
}

func TestSweepSavedRunsStoredRule(t *testing.T) {
	host := &fakeHost{tabs: []cdptab.TabInfo{
		{ID: 1, URL: "https://docs.example.com/a"},
		{ID: 2, URL: "https://docs.example.com/b"},
	}}
	svc, _ := newTestService(t, host)

	if _, err := svc.PutRule(context.Background(), "docs", `^https://docs\.`); err != nil {
		t.Fatalf("PutRule() error = %v", err)
	}

	res, err := svc.SweepSaved(context.Background(), "docs")
	if err != nil {
		t.Fatalf("SweepSaved() error = %v", err)
	}
	if res.ClosedCount != 1 || res.Rule != "docs" {
		t.Fatalf("result = %+v", res)
	}
}

func TestTestPatternMatchesWithoutClosing(t *testing.T) {
	host := &fakeHost{tabs: dupTabs()}
	svc, _ := newTestService(t, host)

	res, err := svc.TestPattern(context.Background(), `example\.com/a`)
	if err != nil {
		t.Fatalf("TestPattern() error = %v", err)
	}
	if got, want := res.MatchIDs, []int64{1, 2, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("MatchIDs = %v, want %v", got, want)
	}
	if len(host.closed) != 0 {
		t.Fatalf("TestPattern closed tabs: %v", host.closed)
	}
}

func TestPreviewSweepNoMutation(t *testing.T) {
	host := &fakeHost{tabs: dupTabs()}
	svc, batchStore := newTestService(t, host)

	preview, err := svc.PreviewSweep(context.Background())
	if err != nil {
		t.Fatalf("PreviewSweep() error = %v", err)
	}
	if preview.CloseCount != 2 || len(preview.Groups) != 1 {
		t.Fatalf("preview = %+v", preview)
	}
	g := preview.Groups[0]
	if g.KeepID != 4 || !reflect.DeepEqual(g.CloseIDs, []int64{1, 2}) {
		t.Fatalf("group = %+v", g)
	}
	if len(host.closed) != 0 {
		t.Fatalf("preview closed tabs: %v", host.closed)
	}
	if _, ok, _ := batchStore.Load(); ok {
		t.Fatal("preview wrote a batch")
	}
}

func TestListTabsAnnotations(t *testing.T) {
	host := &fakeHost{tabs: dupTabs(), focusedID: 3}
	svc, _ := newTestService(t, host)

	tabs, err := svc.ListTabs(context.Background())
	if err != nil {
		t.Fatalf("ListTabs() error = %v", err)
	}
	if len(tabs) != 5 {
		t.Fatalf("ListTabs() returned %d tabs, want 5", len(tabs))
	}
	if tabs[0].BaseURL != "https://example.com/a" || !tabs[0].Eligible {
		t.Fatalf("tab[0] = %+v", tabs[0])
	}
	if !tabs[2].Focused {
		t.Fatalf("tab id 3 not marked focused: %+v", tabs[2])
	}
	if tabs[4].Eligible {
		t.Fatalf("internal tab marked eligible: %+v", tabs[4])
	}
}
