// Package store owns the durable queue of scheduled posts. The backing file
// is the authoritative and sole copy of pending posts: the full set is loaded
// into memory at startup and written back synchronously on every mutation, so
// a crash never loses more than the in-flight operation.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aatumaykin/crosspost/internal/logger"
	"github.com/google/uuid"
)

// ErrCorruptStore marks a posts file that exists but cannot be parsed.
// Callers treat this as fatal at startup rather than silently losing data.
var ErrCorruptStore = errors.New("scheduled posts file is corrupted")

// Store provides persistent storage for scheduled posts.
// All operations are serialized by a single mutex; mutating operations
// persist the complete set before returning.
type Store struct {
	filePath string
	logger   *logger.Logger

	mu    sync.Mutex
	posts []ScheduledPost
}

// New creates a Store backed by the given file and loads the existing posts.
// A missing file is a valid empty store; a malformed file is an error.
func New(filePath string, log *logger.Logger) (*Store, error) {
	s := &Store{
		filePath: filePath,
		logger:   log,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Add assigns a fresh id to the post, appends it and persists the store.
// On persistence failure the in-memory state is rolled back and the error
// returned, so memory and disk never drift.
func (s *Store) Add(post ScheduledPost) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = uuid.NewString()
	post.Status = StatusPending
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	s.posts = append(s.posts, post)

	if err := s.save(); err != nil {
		s.posts = s.posts[:len(s.posts)-1]
		s.logger.Error("failed to persist scheduled post", err,
			logger.Field{Key: "post_id", Value: post.ID})
		return "", fmt.Errorf("failed to persist scheduled post: %w", err)
	}

	s.logger.Info("scheduled post added",
		logger.Field{Key: "post_id", Value: post.ID},
		logger.Field{Key: "author_id", Value: post.AuthorID},
		logger.Field{Key: "scheduled_at", Value: post.ScheduledAt})

	return post.ID, nil
}

// List returns the author's pending posts ordered by scheduled time ascending.
func (s *Store) List(authorID string) []ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ScheduledPost
	for _, p := range s.posts {
		if p.AuthorID == authorID && p.Status == StatusPending {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ScheduledAt, out[j].ScheduledAt
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})

	return out
}

// Remove deletes the post if it exists, is pending and belongs to authorID,
// then persists the store. A missing or foreign id is a normal operator
// mistake: it returns false with no error and no state change.
func (s *Store) Remove(id, authorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.posts {
		if p.ID == id && p.AuthorID == authorID && p.Status == StatusPending {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	rest := make([]ScheduledPost, 0, len(s.posts)-1)
	rest = append(rest, s.posts[:idx]...)
	rest = append(rest, s.posts[idx+1:]...)

	prev := s.posts
	s.posts = rest

	if err := s.save(); err != nil {
		s.posts = prev
		s.logger.Error("failed to persist removal", err,
			logger.Field{Key: "post_id", Value: id})
		return false, fmt.Errorf("failed to persist removal: %w", err)
	}

	s.logger.Info("scheduled post removed",
		logger.Field{Key: "post_id", Value: id},
		logger.Field{Key: "author_id", Value: authorID})

	return true, nil
}

// TakeDue removes and returns every pending post that is due at now,
// persisting the shrunken set once. Because claiming and removal happen
// under the same lock, a post can be claimed by at most one caller.
func (s *Store) TakeDue(now time.Time) ([]ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []ScheduledPost
	var rest []ScheduledPost
	for _, p := range s.posts {
		if p.Status == StatusPending && p.Due(now) {
			due = append(due, p)
		} else {
			rest = append(rest, p)
		}
	}

	if len(due) == 0 {
		return nil, nil
	}

	prev := s.posts
	s.posts = rest

	if err := s.save(); err != nil {
		s.posts = prev
		s.logger.Error("failed to persist due post removal", err,
			logger.Field{Key: "due_count", Value: len(due)})
		return nil, fmt.Errorf("failed to persist due post removal: %w", err)
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].ScheduledAt.Before(*due[j].ScheduledAt)
	})

	return due, nil
}

// Len returns the number of pending posts across all authors.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, p := range s.posts {
		if p.Status == StatusPending {
			n++
		}
	}
	return n
}

// load reads the posts file into memory. Missing file means empty store.
func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.posts = nil
			return nil
		}
		return fmt.Errorf("failed to read posts file: %w", err)
	}

	var posts []ScheduledPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.filePath, err)
	}

	s.posts = posts

	s.logger.Info("scheduled posts loaded",
		logger.Field{Key: "count", Value: len(posts)},
		logger.Field{Key: "file", Value: s.filePath})

	return nil
}

// save writes the complete post set using an atomic write: a temporary file
// is created, synced, then renamed over the actual file.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := json.MarshalIndent(s.posts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal posts: %w", err)
	}

	tmpPath := s.filePath + ".tmp"

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary posts file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write posts: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync posts file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close posts file: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temporary posts file: %w", err)
	}

	return nil
}
