package store

import (
	"time"
)

// Status describes where a scheduled post is in its lifecycle. Posts
// are removed from the store when claimed for dispatch, so pending is
// the only status a persisted post ever holds.
type Status string

const (
	// StatusPending means the post is waiting for its scheduled time.
	StatusPending Status = "pending"
)

// ScheduledPost is the only persisted entity: a post waiting to be published.
// Posts are immutable after creation.
type ScheduledPost struct {
	ID          string     `json:"id"`                     // Unique post identifier, assigned by Add
	AuthorID    string     `json:"author_id"`              // Telegram user id of the creator
	Content     string     `json:"content"`                // Text body
	MediaRef    string     `json:"media_ref,omitempty"`    // Optional media reference
	Targets     []string   `json:"targets"`                // Platform ids to publish to
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"` // UTC due time; nil means immediate publish
	Status      Status     `json:"status"`                 // Always pending while persisted
	CreatedAt   time.Time  `json:"created_at"`             // When the post was accepted
}

// HasTarget reports whether the post should be published to the given platform.
func (p *ScheduledPost) HasTarget(platformID string) bool {
	for _, t := range p.Targets {
		if t == platformID {
			return true
		}
	}
	return false
}

// Due reports whether the post's scheduled time has passed.
func (p *ScheduledPost) Due(now time.Time) bool {
	return p.ScheduledAt != nil && !p.ScheduledAt.After(now)
}
