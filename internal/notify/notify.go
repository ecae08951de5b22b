// Package notify pushes one-line event summaries to an ntfy-compatible
// endpoint. Notifications are best effort: callers log failures and never
// fail the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Notifier posts plain-text messages to a single ntfy endpoint. A nil
// Notifier is valid and silently drops every message.
type Notifier struct {
	endpoint string
	client   *http.Client
}

// New returns a Notifier for the given endpoint, or nil when the endpoint
// is empty.
func New(endpoint string, client *http.Client) *Notifier {
	if endpoint == "" {
		return nil
	}
	return &Notifier{endpoint: endpoint, client: client}
}

// SweepDone announces a completed sweep.
func (n *Notifier) SweepDone(ctx context.Context, rule string, closed int) error {
	if n == nil {
		return nil
	}
	return Send(ctx, n.client, n.endpoint, fmt.Sprintf("tab janitor: closed %d duplicate tab(s) (rule %s)", closed, rule))
}

// RestoreDone announces a completed restore.
func (n *Notifier) RestoreDone(ctx context.Context, restored int) error {
	if n == nil {
		return nil
	}
	return Send(ctx, n.client, n.endpoint, fmt.Sprintf("tab janitor: reopened %d tab(s)", restored))
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
