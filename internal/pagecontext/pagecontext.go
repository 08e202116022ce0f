// Package pagecontext retrieves the readable text of the page the user is
// looking at, through the in-page agent bridge.
package pagecontext

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	app_errors "pagechat/backend/internal/errors"
)

// Provider returns the text of the active page. An empty string means the
// page had nothing to offer; an error means the agent could not be reached.
type Provider interface {
	PageContent(ctx context.Context) (string, error)
}

// Bridge actions.
const (
	actionGetPageContent = "getPageContent"
	actionInjectAgent    = "injectAgent"
)

// noReceiverMarker is what the bridge reports when no agent listens in the
// active tab.
const noReceiverMarker = "Receiving end does not exist"

// Defaults used when AgentClient is built with zero values.
const (
	DefaultRetries    = 1
	DefaultRetryDelay = 100 * time.Millisecond
)

type bridgeRequest struct {
	Action string `json:"action"`
}

type bridgeResponse struct {
	Content *string `json:"content"`
	Error   string  `json:"error"`
}

// errNoReceiver is returned by a single fetch when the agent is absent.
var errNoReceiver = errors.New(noReceiverMarker)

// AgentClient talks to the bridge over HTTP. When the agent is missing from
// the page it asks the bridge to install it, waits RetryDelay and tries again,
// at most Retries times.
type AgentClient struct {
	client     *http.Client
	url        string
	retries    int
	retryDelay time.Duration
}

// NewAgentClient returns an AgentClient for the bridge rooted at baseURL.
// A negative retries value disables re-injection.
func NewAgentClient(baseURL string, retries int, retryDelay time.Duration, timeout time.Duration) *AgentClient {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if retries < 0 {
		retries = 0
	}
	return &AgentClient{
		client:     &http.Client{Timeout: timeout},
		url:        strings.TrimRight(baseURL, "/"),
		retries:    retries,
		retryDelay: retryDelay,
	}
}

func (c *AgentClient) PageContent(ctx context.Context) (string, error) {
	attemptsLeft := c.retries
	for {
		content, err := c.fetch(ctx)
		if err == nil {
			return collapseWhitespace(content), nil
		}
		if !errors.Is(err, errNoReceiver) || attemptsLeft == 0 {
			return "", fmt.Errorf("%w: %v", app_errors.ErrCollaboratorUnavailable, err)
		}
		attemptsLeft--

		slog.Debug("Page agent not present, injecting it.", "retries_left", attemptsLeft)
		if injectErr := c.inject(ctx); injectErr != nil {
			slog.Warn("Failed to inject page agent.", "error", injectErr)
			return "", fmt.Errorf("%w: %v", app_errors.ErrCollaboratorUnavailable, err)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *AgentClient) fetch(ctx context.Context) (string, error) {
	resp, err := c.post(ctx, "/message", actionGetPageContent)
	if err != nil {
		return "", err
	}
	if resp.Content == nil {
		return "", errors.New("page agent sent no content")
	}
	return *resp.Content, nil
}

func (c *AgentClient) inject(ctx context.Context) error {
	_, err := c.post(ctx, "/inject", actionInjectAgent)
	return err
}

func (c *AgentClient) post(ctx context.Context, path, action string) (*bridgeResponse, error) {
	body, err := json.Marshal(bridgeRequest{Action: action})
	if err != nil {
		return nil, fmt.Errorf("could not marshal bridge request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach page agent: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read bridge response: %w", err)
	}

	var out bridgeResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("could not decode bridge response: %w", err)
		}
	}
	if strings.Contains(out.Error, noReceiverMarker) {
		return nil, errNoReceiver
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if out.Error != "" {
			return nil, fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}
	return &out, nil
}

// collapseWhitespace turns every whitespace run into a single space and trims
// the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Noop is used when no bridge is configured. It never has page content.
type Noop struct{}

func (Noop) PageContent(context.Context) (string, error) {
	return "", nil
}
