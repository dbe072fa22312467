// Package scrape calls the external n8n workflow that scrapes venue data
// into a spreadsheet. The workflow is fire-and-forget from the app's point
// of view: the webhook response may carry a sheet URL, a plain message, or
// nothing parseable at all, and all three are success.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client triggers the scraping workflow over its webhook URL. A zero
// webhook URL means the integration is not configured; callers check
// Configured before triggering.
type Client struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(webhookURL string, logger *slog.Logger) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// Configured reports whether a webhook URL was provided.
func (c *Client) Configured() bool {
	return c.webhookURL != ""
}

// TriggerRequest is the payload posted to the workflow.
type TriggerRequest struct {
	City        string    `json:"city"`
	Keyword     string    `json:"keyword"`
	UserEmail   string    `json:"userEmail"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

// TriggerResult is what the workflow reported back, best effort.
type TriggerResult struct {
	SheetURL string `json:"sheetUrl,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Trigger posts the request to the webhook and decodes whatever comes
// back. A non-2xx status is an error; an unparseable 2xx body is not,
// because some workflow versions respond with plain text.
func (c *Client) Trigger(ctx context.Context, req TriggerRequest) (*TriggerResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("scrape: encoding trigger payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scrape: building webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("scrape: calling webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("scrape: reading webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("scrape webhook returned non-success status",
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("scrape: webhook returned status %d", resp.StatusCode)
	}

	result := &TriggerResult{}
	if err := json.Unmarshal(raw, result); err != nil {
		// Plain-text or empty responses are fine, keep the text as the
		// message when it's short enough to be one.
		if len(raw) > 0 && len(raw) <= 500 {
			result.Message = string(raw)
		}
		c.logger.Debug("scrape webhook responded with non-JSON body",
			slog.Int("bytes", len(raw)),
		)
	}

	return result, nil
}
