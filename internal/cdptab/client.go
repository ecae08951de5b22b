package cdptab

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/target"
)

// transientHints are substrings in error causes that indicate a transient
// failure worth retrying (e.g. broken connection, closed session).
var transientHints = []string{
	"context canceled",
	"target closed",
	"session closed",
	"websocket",
	"connection reset",
	"broken pipe",
	"eof",
	"connection refused",
	"connection closed",
}

// Client is the browser-facing host: it lists, closes, creates, and activates
// tabs over CDP and keeps the ordinal registry in sync with the live target
// set.
type Client struct {
	cdpURL   string
	registry *Registry

	mu  sync.Mutex
	cdp *rawCDP
}

func NewClient(cdpURL string, registry *Registry) *Client {
	return &Client{cdpURL: cdpURL, registry: registry}
}

// Registry exposes the ordinal registry so the target watcher can feed it.
func (c *Client) Registry() *Registry { return c.registry }

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.cdpURL == "" {
		return NewError(CodeCDPUnavailable, "missing CDP URL", nil)
	}

	slog.Info("cdptab connect start", "cdp_url", c.cdpURL)
	c.cleanupLocked()

	c.cdp = newRawCDP(c.cdpURL)
	if err := c.cdp.connect(ctx); err != nil {
		c.cdp = nil
		return NewError(CodeCDPUnavailable, "connect to CDP failed", err)
	}

	if err := c.syncLocked(ctx); err != nil {
		slog.Error("cdptab initial tab sync failed", "error", err)
		c.cleanupLocked()
		return NewError(CodeCDPUnavailable, "connect to CDP failed", err)
	}

	slog.Info("cdptab connect ok", "cdp_url", c.cdpURL, "tabs", c.registry.Count())
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
	return nil
}

func (c *Client) cleanupLocked() {
	if c.cdp != nil {
		c.cdp.close()
		c.cdp = nil
	}
}

// Snapshot returns all open page tabs ascending by ordinal together with the
// ordinal of the focused tab. focusedID is 0 when no page tab is open. Both
// values come from a single /json/list call so they describe one consistent
// moment.
func (c *Client) Snapshot(ctx context.Context) ([]TabInfo, int64, error) {
	var targets []*target.Info
	err := c.do(ctx, func(r *rawCDP) error {
		var listErr error
		targets, listErr = r.listTargets(ctx)
		return listErr
	})
	if err != nil {
		slog.Warn("cdptab snapshot failed", "error", err)
		return nil, 0, NewError(CodeCDPUnavailable, "failed to list targets", err)
	}

	var focusedID int64
	live := make(map[target.ID]bool, len(targets))
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		live[t.TargetID] = true
		id := c.registry.Observe(t.TargetID, t.URL, t.Title)
		// DevTools lists targets most-recently-focused first.
		if focusedID == 0 {
			focusedID = id
		}
	}

	for _, info := range c.registry.All() {
		if !live[target.ID(info.TargetID)] {
			c.registry.Remove(target.ID(info.TargetID))
		}
	}

	tabs := c.registry.All()
	sort.Slice(tabs, func(i, j int) bool { return tabs[i].ID < tabs[j].ID })
	slog.Debug("cdptab snapshot", "tabs", len(tabs), "focused_id", focusedID)
	return tabs, focusedID, nil
}

// CloseTab closes the tab with the given ordinal. An ordinal the registry or
// browser no longer knows yields CodeTabNotFound, which callers treat as a
// benign skip.
func (c *Client) CloseTab(ctx context.Context, id int64) error {
	targetID, ok := c.registry.Lookup(id)
	if !ok {
		return NewError(CodeTabNotFound, "tab not found", nil)
	}

	err := c.do(ctx, func(r *rawCDP) error {
		return r.closeTarget(ctx, targetID)
	})
	if err != nil {
		if errors.Is(err, errNoSuchTarget) {
			c.registry.Remove(targetID)
			return NewError(CodeTabNotFound, "tab already gone", err)
		}
		return NewError(CodeCloseFailure, "close tab failed", err)
	}

	c.registry.Remove(targetID)
	slog.Debug("cdptab tab closed", "id", id, "target_id", targetID)
	return nil
}

// CreateTab opens a new tab at the given URL and returns its ordinal.
func (c *Client) CreateTab(ctx context.Context, url string) (int64, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return 0, NewError(CodeValidation, "url is required", nil)
	}

	var targetID target.ID
	err := c.do(ctx, func(r *rawCDP) error {
		var createErr error
		targetID, createErr = r.createTarget(ctx, url)
		return createErr
	})
	if err != nil {
		return 0, NewError(CodeCDPUnavailable, "create tab failed", err)
	}

	id := c.registry.Observe(targetID, url, "")
	slog.Debug("cdptab tab created", "id", id, "url", url)
	return id, nil
}

// ActivateTab brings the tab with the given ordinal to the foreground.
func (c *Client) ActivateTab(ctx context.Context, id int64) error {
	targetID, ok := c.registry.Lookup(id)
	if !ok {
		return NewError(CodeTabNotFound, "tab not found", nil)
	}

	err := c.do(ctx, func(r *rawCDP) error {
		return r.activateTarget(ctx, targetID)
	})
	if err != nil {
		return NewError(CodeCDPUnavailable, "activate tab failed", err)
	}
	return nil
}

// do runs fn against the live connection, reconnecting and retrying once when
// the failure looks transient.
func (c *Client) do(ctx context.Context, fn func(*rawCDP) error) error {
	cdp, err := c.ensureConnected(ctx)
	if err != nil {
		return err
	}

	err = fn(cdp)
	if err == nil || !isTransient(err) {
		return err
	}

	slog.Warn("cdptab retry after transient failure", "error", err)
	if recErr := c.reconnect(ctx); recErr != nil {
		slog.Error("cdptab reconnect failed during retry", "error", recErr)
		return recErr
	}

	c.mu.Lock()
	cdp = c.cdp
	c.mu.Unlock()
	return fn(cdp)
}

func (c *Client) ensureConnected(ctx context.Context) (*rawCDP, error) {
	c.mu.Lock()
	cdp := c.cdp
	c.mu.Unlock()
	if cdp != nil {
		return cdp, nil
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cdp, nil
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// syncLocked seeds the registry from the current target list. Pre-existing
// tabs are assigned ordinals in listing order; exact creation ordering only
// holds for tabs the watcher sees created.
func (c *Client) syncLocked(ctx context.Context) error {
	targets, err := c.cdp.listTargets(ctx)
	if err != nil {
		return err
	}
	pages := 0
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		pages++
		c.registry.Observe(t.TargetID, t.URL, t.Title)
	}
	slog.Debug("cdptab tab sync", "targets", len(targets), "pages", pages)
	return nil
}

func isTransient(err error) bool {
	if errors.Is(err, errNoSuchTarget) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range transientHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
