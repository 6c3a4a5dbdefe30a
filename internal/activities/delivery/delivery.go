// Package delivery sends indicative term sheets and trade
// confirmations to a client-facing gateway over HTTP, retrying
// transient failures with bounded backoff.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/segmentio/encoding/json"
)

// Client delivers documents to a configured client gateway endpoint.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
}

// New builds a delivery Client pointed at baseURL, with retryablehttp's
// exponential backoff bounded to a few attempts. The workflow's own
// delivery retry policy is the outer safety net; this is the inner
// one, for transient network blips within a single attempt.
func New(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	return &Client{http: rc, baseURL: baseURL}
}

// SendIndicative posts a term sheet document to the client gateway,
// idempotent by document hash.
func (c *Client) SendIndicative(ctx context.Context, documentHash string, document []byte) error {
	return c.post(ctx, fmt.Sprintf("%s/indicative/%s", c.baseURL, documentHash), document)
}

// SendConfirmation posts a trade confirmation to the client gateway,
// idempotent by trade ID.
func (c *Client) SendConfirmation(ctx context.Context, tradeID string, confirmation interface{}) error {
	body, err := json.Marshal(confirmation)
	if err != nil {
		return fmt.Errorf("delivery: marshal confirmation: %w", err)
	}
	return c.post(ctx, fmt.Sprintf("%s/confirmation/%s", c.baseURL, tradeID), body)
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("delivery: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delivery: post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("delivery: post %s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}
