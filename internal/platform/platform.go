// Package platform defines the publishing boundary between the bot core and
// the external social networks. Each target platform implements Publisher;
// the dispatcher treats every platform independently, so one platform's
// failure never blocks another.
package platform

import (
	"context"
	"fmt"
	"sort"
)

// Platform identifiers used in post targets and configuration.
const (
	IDBluesky  = "bluesky"
	IDMastodon = "mastodon"
)

// Publisher publishes text content to a single external platform.
type Publisher interface {
	// ID returns the stable platform identifier (e.g. "bluesky").
	ID() string

	// MaxContentLength returns the platform's content limit in characters
	// after NFC normalization.
	MaxContentLength() int

	// Publish posts the content and returns a link to the created post when
	// the platform provides one. The context bounds the whole attempt.
	Publish(ctx context.Context, content string) (string, error)
}

// Registry holds the configured publishers keyed by platform id.
type Registry struct {
	publishers map[string]Publisher
}

// NewRegistry builds a registry from the given publishers.
func NewRegistry(publishers ...Publisher) *Registry {
	r := &Registry{publishers: make(map[string]Publisher)}
	for _, p := range publishers {
		r.publishers[p.ID()] = p
	}
	return r
}

// Get returns the publisher for the given platform id.
func (r *Registry) Get(id string) (Publisher, error) {
	p, ok := r.publishers[id]
	if !ok {
		return nil, fmt.Errorf("unknown platform: %s", id)
	}
	return p, nil
}

// IDs returns the configured platform ids in stable order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.publishers))
	for id := range r.publishers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CheckLength verifies the content fits every requested target platform.
// Returns the first violated platform, its limit and the measured length.
func (r *Registry) CheckLength(content string, targets []string) (string, int, int, bool) {
	n := ContentLength(content)
	for _, id := range targets {
		p, ok := r.publishers[id]
		if !ok {
			continue
		}
		if n > p.MaxContentLength() {
			return id, p.MaxContentLength(), n, false
		}
	}
	return "", 0, n, true
}
