package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/crosspost/internal/config"
	"github.com/aatumaykin/crosspost/internal/logger"
	"github.com/aatumaykin/crosspost/internal/metrics"
	"github.com/aatumaykin/crosspost/internal/platform"
	"github.com/aatumaykin/crosspost/internal/store"
)

type fakePublisher struct {
	id    string
	limit int
	link  string
	err   error

	mu    sync.Mutex
	calls []string
}

func (f *fakePublisher) ID() string            { return f.id }
func (f *fakePublisher) MaxContentLength() int { return f.limit }

func (f *fakePublisher) Publish(_ context.Context, content string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, content)
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	return f.link, nil
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingNotifier struct {
	mu       sync.Mutex
	authors  []string
	messages []string
	err      error
}

func (n *recordingNotifier) NotifyAuthor(_ context.Context, authorID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.authors = append(n.authors, authorID)
	n.messages = append(n.messages, message)
	return n.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	return log
}

func testStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "posts.json"), testLogger(t))
	require.NoError(t, err)

	return st
}

func testDispatcher(t *testing.T, st *store.Store, pubs ...platform.Publisher) *Dispatcher {
	t.Helper()

	d := New(st, platform.NewRegistry(pubs...), metrics.New("test"), testLogger(t), config.SchedulerConfig{
		IntervalSeconds:       60,
		PublishTimeoutSeconds: 5,
	})
	d.ctx = t.Context()

	return d
}

func addScheduled(t *testing.T, st *store.Store, authorID, content string, targets []string, at time.Time) string {
	t.Helper()

	id, err := st.Add(store.ScheduledPost{
		AuthorID:    authorID,
		Content:     content,
		Targets:     targets,
		ScheduledAt: &at,
	})
	require.NoError(t, err)

	return id
}

func TestPublishAllTargetsSucceed(t *testing.T) {
	bsky := &fakePublisher{id: "bluesky", limit: 300, link: "https://bsky.app/profile/me/post/1"}
	masto := &fakePublisher{id: "mastodon", limit: 500, link: "https://social.example/@me/2"}
	d := testDispatcher(t, testStore(t), bsky, masto)

	results := d.Publish(t.Context(), store.ScheduledPost{
		ID:      "p1",
		Content: "hello world",
		Targets: []string{"bluesky", "mastodon"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, "bluesky", results[0].Platform)
	assert.Equal(t, bsky.link, results[0].Link)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "mastodon", results[1].Platform)
	assert.Equal(t, masto.link, results[1].Link)
	assert.Equal(t, 1, bsky.callCount())
	assert.Equal(t, 1, masto.callCount())
}

func TestPublishOneFailureDoesNotBlockOthers(t *testing.T) {
	bsky := &fakePublisher{id: "bluesky", limit: 300, err: errors.New("server unavailable")}
	masto := &fakePublisher{id: "mastodon", limit: 500, link: "https://social.example/@me/3"}
	d := testDispatcher(t, testStore(t), bsky, masto)

	results := d.Publish(t.Context(), store.ScheduledPost{
		ID:      "p2",
		Content: "partial",
		Targets: []string{"bluesky", "mastodon"},
	})

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Equal(t, masto.link, results[1].Link)
}

func TestPublishUnknownTarget(t *testing.T) {
	masto := &fakePublisher{id: "mastodon", limit: 500, link: "https://social.example/@me/4"}
	d := testDispatcher(t, testStore(t), masto)

	results := d.Publish(t.Context(), store.ScheduledPost{
		ID:      "p3",
		Content: "stale target",
		Targets: []string{"bluesky", "mastodon"},
	})

	require.Len(t, results, 2)
	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "unknown platform")
	assert.NoError(t, results[1].Err)
}

func TestTickPublishesDuePostsAndNotifies(t *testing.T) {
	st := testStore(t)
	bsky := &fakePublisher{id: "bluesky", limit: 300, link: "https://bsky.app/profile/me/post/5"}
	d := testDispatcher(t, st, bsky)

	notifier := &recordingNotifier{}
	d.SetNotifier(notifier)

	now := time.Now().UTC()
	id := addScheduled(t, st, "42", "due post", []string{"bluesky"}, now.Add(-time.Minute))
	addScheduled(t, st, "42", "future post", []string{"bluesky"}, now.Add(time.Hour))

	d.Tick(now)

	assert.Equal(t, 1, bsky.callCount())
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "42", notifier.authors[0])
	assert.Contains(t, notifier.messages[0], id)
	assert.Contains(t, notifier.messages[0], "✅ Posted to Bluesky successfully")
	assert.Equal(t, 1, st.Len())
}

func TestTickClaimsPostsAtMostOnce(t *testing.T) {
	st := testStore(t)
	bsky := &fakePublisher{id: "bluesky", limit: 300, link: "https://bsky.app/profile/me/post/6"}
	d := testDispatcher(t, st, bsky)
	d.SetNotifier(&recordingNotifier{})

	now := time.Now().UTC()
	addScheduled(t, st, "42", "once only", []string{"bluesky"}, now.Add(-time.Second))

	d.Tick(now)
	d.Tick(now)

	assert.Equal(t, 1, bsky.callCount())
	assert.Equal(t, 0, st.Len())
}

func TestTickDropsPostAfterFailedPublish(t *testing.T) {
	st := testStore(t)
	bsky := &fakePublisher{id: "bluesky", limit: 300, err: errors.New("boom")}
	d := testDispatcher(t, st, bsky)

	notifier := &recordingNotifier{}
	d.SetNotifier(notifier)

	now := time.Now().UTC()
	addScheduled(t, st, "7", "doomed", []string{"bluesky"}, now.Add(-time.Second))

	d.Tick(now)

	// The post is gone from the store; the author learns about the failure
	// from the report instead of a silent retry loop.
	assert.Equal(t, 0, st.Len())
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "❌ Failed to post to Bluesky: boom")
}

func TestTickWithoutNotifierStillPublishes(t *testing.T) {
	st := testStore(t)
	bsky := &fakePublisher{id: "bluesky", limit: 300, link: "https://bsky.app/profile/me/post/7"}
	d := testDispatcher(t, st, bsky)

	now := time.Now().UTC()
	addScheduled(t, st, "9", "no notifier", []string{"bluesky"}, now.Add(-time.Second))

	d.Tick(now)

	assert.Equal(t, 1, bsky.callCount())
	assert.Equal(t, 0, st.Len())
}

func TestStartAndStop(t *testing.T) {
	st := testStore(t)
	d := testDispatcher(t, st, &fakePublisher{id: "bluesky", limit: 300})
	d.SetNotifier(&recordingNotifier{})

	require.NoError(t, d.Start(t.Context()))
	assert.Error(t, d.Start(t.Context()))

	d.Stop()
	d.Stop()
}

// blockingPublisher parks inside Publish until released, so a tick can
// be held mid-flight while the dispatcher is stopped.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingPublisher) ID() string            { return "bluesky" }
func (b *blockingPublisher) MaxContentLength() int { return 300 }

func (b *blockingPublisher) Publish(ctx context.Context, _ string) (string, error) {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
		return "https://bsky.app/profile/me/post/9", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestStopWaitsForRunningTick(t *testing.T) {
	st := testStore(t)
	pub := &blockingPublisher{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := New(st, platform.NewRegistry(pub), metrics.New("test"), testLogger(t), config.SchedulerConfig{
		IntervalSeconds:       1,
		PublishTimeoutSeconds: 5,
	})
	notifier := &recordingNotifier{}
	d.SetNotifier(notifier)

	addScheduled(t, st, "42", "slow post", []string{"bluesky"}, time.Now().UTC().Add(-time.Minute))

	require.NoError(t, d.Start(t.Context()))

	select {
	case <-pub.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("tick never reached the publisher")
	}

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the running tick finished")
	case <-time.After(100 * time.Millisecond):
	}

	close(pub.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the tick finished")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "https://bsky.app/profile/me/post/9")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Bluesky", DisplayName("bluesky"))
	assert.Equal(t, "Mastodon", DisplayName("mastodon"))
	assert.Equal(t, "pixelfed", DisplayName("pixelfed"))
}

func TestFormatResults(t *testing.T) {
	out := FormatResults([]Result{
		{Platform: "bluesky", Link: "https://bsky.app/profile/me/post/8"},
		{Platform: "mastodon", Err: errors.New("429 rate limited")},
	})

	assert.Contains(t, out, "Post results:\n")
	assert.Contains(t, out, "✅ Posted to Bluesky successfully\n")
	assert.Contains(t, out, "🔗 https://bsky.app/profile/me/post/8\n")
	assert.Contains(t, out, "❌ Failed to post to Mastodon: 429 rate limited\n")
}

func TestFormatResultsNoLink(t *testing.T) {
	out := FormatResults([]Result{{Platform: "mastodon"}})

	assert.Contains(t, out, "✅ Posted to Mastodon successfully\n")
	assert.NotContains(t, out, "🔗")
}

func TestFormatScheduledReport(t *testing.T) {
	out := FormatScheduledReport("abc-123", []Result{{Platform: "bluesky", Link: "https://bsky.app/x"}})

	assert.Equal(t, fmt.Sprintf("Your scheduled post (ID: abc-123) has been published:\n\n%s",
		FormatResults([]Result{{Platform: "bluesky", Link: "https://bsky.app/x"}})), out)
}
