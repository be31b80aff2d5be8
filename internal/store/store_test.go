package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/crosspost/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scheduled_posts.json")
	s, err := New(path, testLogger(t))
	require.NoError(t, err)
	return s, path
}

func futureTime(d time.Duration) *time.Time {
	ts := time.Now().UTC().Add(d)
	return &ts
}

func TestNewMissingFileIsEmptyStore(t *testing.T) {
	s, path := newTestStore(t)

	assert.Equal(t, 0, s.Len())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "store file should not be created before the first write")
}

func TestNewMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduled_posts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path, testLogger(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptStore)
}

func TestAddAssignsIDAndPersists(t *testing.T) {
	s, path := newTestStore(t)

	id, err := s.Add(ScheduledPost{
		AuthorID:    "42",
		Content:     "hello",
		Targets:     []string{"bluesky"},
		ScheduledAt: futureTime(time.Hour),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// A second store over the same file sees the post.
	reloaded, err := New(path, testLogger(t))
	require.NoError(t, err)

	posts := reloaded.List("42")
	require.Len(t, posts, 1)
	assert.Equal(t, id, posts[0].ID)
	assert.Equal(t, "hello", posts[0].Content)
	assert.Equal(t, StatusPending, posts[0].Status)
	assert.False(t, posts[0].CreatedAt.IsZero())
}

func TestAddUniqueIDs(t *testing.T) {
	s, _ := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := s.Add(ScheduledPost{AuthorID: "1", Content: "x", Targets: []string{"mastodon"}, ScheduledAt: futureTime(time.Hour)})
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestListFiltersByAuthorAndSorts(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add(ScheduledPost{AuthorID: "1", Content: "later", Targets: []string{"bluesky"}, ScheduledAt: futureTime(2 * time.Hour)})
	require.NoError(t, err)
	_, err = s.Add(ScheduledPost{AuthorID: "1", Content: "sooner", Targets: []string{"bluesky"}, ScheduledAt: futureTime(time.Hour)})
	require.NoError(t, err)
	_, err = s.Add(ScheduledPost{AuthorID: "2", Content: "other author", Targets: []string{"bluesky"}, ScheduledAt: futureTime(time.Hour)})
	require.NoError(t, err)

	posts := s.List("1")
	require.Len(t, posts, 2)
	assert.Equal(t, "sooner", posts[0].Content)
	assert.Equal(t, "later", posts[1].Content)

	assert.Empty(t, s.List("unknown"))
}

func TestRemoveOwnPost(t *testing.T) {
	s, path := newTestStore(t)

	id, err := s.Add(ScheduledPost{AuthorID: "1", Content: "x", Targets: []string{"bluesky"}, ScheduledAt: futureTime(time.Hour)})
	require.NoError(t, err)

	removed, err := s.Remove(id, "1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, s.Len())

	// Removal is durable.
	reloaded, err := New(path, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Len())
}

func TestRemoveForeignPostIsRefused(t *testing.T) {
	s, _ := newTestStore(t)

	id, err := s.Add(ScheduledPost{AuthorID: "1", Content: "x", Targets: []string{"bluesky"}, ScheduledAt: futureTime(time.Hour)})
	require.NoError(t, err)

	removed, err := s.Remove(id, "2")
	require.NoError(t, err)
	assert.False(t, removed, "another author must not be able to delete the post")
	assert.Equal(t, 1, s.Len())
}

func TestRemoveUnknownID(t *testing.T) {
	s, _ := newTestStore(t)

	removed, err := s.Remove("does-not-exist", "1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestTakeDueIgnoresFuturePosts(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add(ScheduledPost{AuthorID: "1", Content: "x", Targets: []string{"bluesky"}, ScheduledAt: futureTime(time.Hour)})
	require.NoError(t, err)

	due, err := s.TakeDue(time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.Equal(t, 1, s.Len())
}

func TestTakeDueClaimsAtMostOnce(t *testing.T) {
	s, path := newTestStore(t)

	past := time.Now().UTC().Add(-time.Minute)
	id, err := s.Add(ScheduledPost{AuthorID: "1", Content: "due", Targets: []string{"bluesky"}, ScheduledAt: &past})
	require.NoError(t, err)

	now := time.Now().UTC()
	due, err := s.TakeDue(now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID)

	// A second tick at the same instant claims nothing.
	again, err := s.TakeDue(now)
	require.NoError(t, err)
	assert.Empty(t, again)

	// The claim is persisted: a restart does not resurrect the post.
	reloaded, err := New(path, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Len())
}

func TestTakeDueSortsByScheduledTime(t *testing.T) {
	s, _ := newTestStore(t)

	older := time.Now().UTC().Add(-2 * time.Hour)
	newer := time.Now().UTC().Add(-time.Hour)
	_, err := s.Add(ScheduledPost{AuthorID: "1", Content: "second", Targets: []string{"bluesky"}, ScheduledAt: &newer})
	require.NoError(t, err)
	_, err = s.Add(ScheduledPost{AuthorID: "1", Content: "first", Targets: []string{"bluesky"}, ScheduledAt: &older})
	require.NoError(t, err)

	due, err := s.TakeDue(time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "first", due[0].Content)
	assert.Equal(t, "second", due[1].Content)
}

func TestAddRollbackOnPersistFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "sub", "posts.json"), testLogger(t))
	require.NoError(t, err)

	// Occupy the parent directory path with a regular file so save fails.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub"), []byte("blocker"), 0o644))

	_, err = s.Add(ScheduledPost{AuthorID: "1", Content: "x", Targets: []string{"bluesky"}, ScheduledAt: futureTime(time.Hour)})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len(), "failed add must not leave the post in memory")
}

func TestHasTarget(t *testing.T) {
	p := ScheduledPost{Targets: []string{"bluesky", "mastodon"}}
	assert.True(t, p.HasTarget("bluesky"))
	assert.True(t, p.HasTarget("mastodon"))
	assert.False(t, p.HasTarget("twitter"))
}

func TestDue(t *testing.T) {
	now := time.Now().UTC()

	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.True(t, (&ScheduledPost{ScheduledAt: &past}).Due(now))
	assert.True(t, (&ScheduledPost{ScheduledAt: &now}).Due(now))
	assert.False(t, (&ScheduledPost{ScheduledAt: &future}).Due(now))
	assert.False(t, (&ScheduledPost{}).Due(now), "posts without a schedule are never due")
}
