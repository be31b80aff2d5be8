// Package bluesky publishes posts to Bluesky over the AT Protocol XRPC API.
// It manages an app-password session (createSession), builds rich text facets
// for links, hashtags and mentions, and creates app.bsky.feed.post records.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aatumaykin/crosspost/internal/config"
	"github.com/aatumaykin/crosspost/internal/logger"
	"github.com/aatumaykin/crosspost/internal/platform"
	"github.com/aatumaykin/crosspost/internal/retry"
)

// maxPostLength is the Bluesky post limit in characters.
const maxPostLength = 300

const postCollection = "app.bsky.feed.post"

// Client publishes posts to a Bluesky account.
type Client struct {
	cfg    config.BlueskyConfig
	http   *http.Client
	logger *logger.Logger

	mu      sync.Mutex
	session *session
}

type session struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

// xrpcError is the error body XRPC endpoints return on failure.
type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// New creates a Bluesky client from configuration. No network calls are made
// until the first publish; login is lazy so a misconfigured platform fails
// the affected post rather than startup.
func New(cfg config.BlueskyConfig, log *logger.Logger) *Client {
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
	return platform.IDBluesky
}

// MaxContentLength returns the Bluesky character limit.
func (c *Client) MaxContentLength() int {
	return maxPostLength
}

// Publish creates a post record and returns a bsky.app link to it.
func (c *Client) Publish(ctx context.Context, content string) (string, error) {
	sess, err := c.ensureSession(ctx)
	if err != nil {
		return "", fmt.Errorf("bluesky login failed: %w", err)
	}

	facets := detectFacets(ctx, content, c.resolveHandle)

	record := map[string]any{
		"$type":     postCollection,
		"text":      content,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if len(facets) > 0 {
		record["facets"] = facets
	}

	reqBody := map[string]any{
		"repo":       sess.DID,
		"collection": postCollection,
		"record":     record,
	}

	var resp struct {
		URI string `json:"uri"`
		CID string `json:"cid"`
	}

	err = c.xrpcPost(ctx, "com.atproto.repo.createRecord", sess.AccessJwt, reqBody, &resp)
	if isExpiredSession(err) {
		// Session aged out; log in again and retry the record once.
		// Nothing was posted, so this cannot duplicate.
		c.clearSession()
		sess, err = c.ensureSession(ctx)
		if err != nil {
			return "", fmt.Errorf("bluesky re-login failed: %w", err)
		}
		reqBody["repo"] = sess.DID
		err = c.xrpcPost(ctx, "com.atproto.repo.createRecord", sess.AccessJwt, reqBody, &resp)
	}
	if err != nil {
		return "", fmt.Errorf("bluesky create record failed: %w", err)
	}

	link := postLink(resp.URI)

	c.logger.Info("published to bluesky",
		logger.Field{Key: "uri", Value: resp.URI},
		logger.Field{Key: "link", Value: link})

	return link, nil
}

// ensureSession returns the current session, logging in if needed.
func (c *Client) ensureSession(ctx context.Context) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	var sess session

	// Session creation is idempotent, so transient failures are retried.
	_, err := retry.DoWithRetry(ctx, func() (string, error) {
		sess = session{}
		err := c.xrpcPost(ctx, "com.atproto.server.createSession", "", map[string]string{
			"identifier": c.cfg.Identifier,
			"password":   c.cfg.Password,
		}, &sess)
		if err != nil {
			return "", err
		}
		return sess.AccessJwt, nil
	}, retry.Config{}, c.logger)
	if err != nil {
		return nil, err
	}

	c.session = &sess

	c.logger.Info("logged in to bluesky",
		logger.Field{Key: "handle", Value: sess.Handle},
		logger.Field{Key: "did", Value: sess.DID})

	return c.session, nil
}

func (c *Client) clearSession() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// resolveHandle resolves a mentioned handle to its DID via getProfile.
func (c *Client) resolveHandle(ctx context.Context, handle string) (string, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return "", fmt.Errorf("no session")
	}

	endpoint := fmt.Sprintf("%s/xrpc/app.bsky.actor.getProfile?actor=%s",
		strings.TrimSuffix(c.cfg.Host, "/"), url.QueryEscape(handle))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessJwt)

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("getProfile returned %d", res.StatusCode)
	}

	var profile struct {
		DID string `json:"did"`
	}
	if err := json.NewDecoder(res.Body).Decode(&profile); err != nil {
		return "", err
	}

	return profile.DID, nil
}

// xrpcPost performs a JSON POST against an XRPC endpoint.
func (c *Client) xrpcPost(ctx context.Context, method, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/xrpc/%s", strings.TrimSuffix(c.cfg.Host, "/"), method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		var xerr xrpcError
		if json.Unmarshal(data, &xerr) == nil && xerr.Error != "" {
			return fmt.Errorf("%s: %d %s: %s", method, res.StatusCode, xerr.Error, xerr.Message)
		}
		return fmt.Errorf("%s: unexpected status %d", method, res.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// isExpiredSession reports whether the error is an ExpiredToken XRPC error.
func isExpiredSession(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ExpiredToken")
}

// postLink converts an AT-URI (at://did/collection/rkey) into a public
// bsky.app link. Returns the empty string when the URI is unexpected.
func postLink(uri string) string {
	parts := strings.Split(strings.TrimPrefix(uri, "at://"), "/")
	if len(parts) != 3 {
		return ""
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", parts[0], parts[2])
}
