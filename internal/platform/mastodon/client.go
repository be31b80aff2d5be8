// Package mastodon publishes posts ("statuses") to a Mastodon server through
// its REST API using a pre-issued access token.
package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aatumaykin/crosspost/internal/config"
	"github.com/aatumaykin/crosspost/internal/logger"
	"github.com/aatumaykin/crosspost/internal/platform"
	"github.com/google/uuid"
)

// maxStatusLength is the default Mastodon status limit in characters.
const maxStatusLength = 500

// Client publishes statuses to a Mastodon account.
type Client struct {
	cfg    config.MastodonConfig
	http   *http.Client
	logger *logger.Logger
}

// New creates a Mastodon client from configuration.
func New(cfg config.MastodonConfig, log *logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log,
	}
}

// ID returns the platform identifier.
func (c *Client) ID() string {
	return platform.IDMastodon
}

// MaxContentLength returns the Mastodon character limit.
func (c *Client) MaxContentLength() int {
	return maxStatusLength
}

// Publish creates a status and returns its public URL. Every call carries a
// fresh Idempotency-Key so an ambiguous network failure followed by a manual
// operator retry cannot double-post within the server's dedup window.
func (c *Client) Publish(ctx context.Context, content string) (string, error) {
	form := url.Values{}
	form.Set("status", content)

	endpoint := strings.TrimSuffix(c.cfg.Server, "/") + "/api/v1/statuses"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("mastodon returned %d: %s", res.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("mastodon returned unexpected status %d", res.StatusCode)
	}

	var status struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info("published to mastodon",
		logger.Field{Key: "status_id", Value: status.ID},
		logger.Field{Key: "url", Value: status.URL})

	return status.URL, nil
}
