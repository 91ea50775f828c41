package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds each individual oracle call so a hung oracle never
// blocks submission indefinitely.
const DefaultTimeout = 30 * time.Second

// Client is an Evaluator that speaks the oracle's HTTP contract:
// POST {content, intent} and receive an Evaluation.
type Client struct {
	url    string
	client *http.Client
}

// NewClient constructs a Client for the oracle endpoint at the specified
// URL.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Evaluate performs one oracle call. Any transport failure, non-OK status,
// or response missing required fields is returned as an error so the caller
// records an abstention.
func (c *Client) Evaluate(ctx context.Context, content string, intent string) (Evaluation, error) {
	body := struct {
		Content string `json:"content"`
		Intent  string `json:"intent"`
	}{
		Content: content,
		Intent:  intent,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Evaluation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return Evaluation{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Evaluation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bound the read; a misbehaving oracle must not balloon memory.
		msg, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return Evaluation{}, err
		}
		return Evaluation{}, fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, msg)
	}

	var eval Evaluation
	if err := json.NewDecoder(resp.Body).Decode(&eval); err != nil {
		return Evaluation{}, fmt.Errorf("decoding oracle response: %w", err)
	}

	if err := eval.validate(); err != nil {
		return Evaluation{}, err
	}

	return eval, nil
}
