package cdptab

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Watcher keeps the ordinal registry aligned with the browser's live target
// set by listening for Target discovery events over a chromedp browser
// connection. Tabs created while the watcher runs are registered the moment
// the browser announces them, so their ordinals reflect true creation order.
type Watcher struct {
	cdpURL   string
	registry *Registry

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
}

func NewWatcher(cdpURL string, registry *Registry) *Watcher {
	return &Watcher{cdpURL: cdpURL, registry: registry}
}

// Start connects to the browser and enables target discovery. Events are
// handled until Stop is called or the browser goes away.
func (w *Watcher) Start(ctx context.Context) error {
	_ = ctx
	wsURL := deriveWSURL(w.cdpURL)
	slog.Info("cdptab watcher connecting", "url", wsURL)

	w.allocCtx, w.allocCancel = chromedp.NewRemoteAllocator(context.Background(), wsURL)
	w.browserCtx, w.browserStop = chromedp.NewContext(w.allocCtx)

	chromedp.ListenBrowser(w.browserCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *target.EventTargetCreated:
			w.observe(e.TargetInfo)
		case *target.EventTargetInfoChanged:
			w.observe(e.TargetInfo)
		case *target.EventTargetDestroyed:
			w.registry.Remove(e.TargetID)
			slog.Debug("cdptab watcher target destroyed", "target_id", e.TargetID)
		}
	})

	err := chromedp.Run(w.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.SetDiscoverTargets(true).Do(ctx)
	}))
	if err != nil {
		w.Stop()
		return fmt.Errorf("enable target discovery: %w", err)
	}

	slog.Info("cdptab watcher started")
	return nil
}

func (w *Watcher) observe(info *target.Info) {
	if info == nil || info.Type != "page" {
		return
	}
	id := w.registry.Observe(info.TargetID, info.URL, info.Title)
	slog.Debug("cdptab watcher target observed", "id", id, "url", info.URL)
}

func (w *Watcher) Stop() {
	if w.browserStop != nil {
		w.browserStop()
		w.browserStop = nil
	}
	if w.allocCancel != nil {
		w.allocCancel()
		w.allocCancel = nil
	}
	slog.Info("cdptab watcher stopped")
}

// deriveWSURL turns an http://host:port CDP base into the ws:// form the
// remote allocator expects.
func deriveWSURL(httpBase string) string {
	switch {
	case len(httpBase) >= 8 && httpBase[:8] == "https://":
		return "wss://" + httpBase[8:]
	case len(httpBase) >= 7 && httpBase[:7] == "http://":
		return "ws://" + httpBase[7:]
	default:
		return httpBase
	}
}
