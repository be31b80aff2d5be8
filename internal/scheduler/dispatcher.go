// Package scheduler drives publication of scheduled posts.
// A cron-backed loop periodically claims due posts from the store and
// publishes them to every selected platform, reporting the outcome back
// to the post's author.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aatumaykin/crosspost/internal/config"
	"github.com/aatumaykin/crosspost/internal/logger"
	"github.com/aatumaykin/crosspost/internal/metrics"
	"github.com/aatumaykin/crosspost/internal/platform"
	"github.com/aatumaykin/crosspost/internal/store"
)

// Notifier delivers publication reports to a post's author.
type Notifier interface {
	NotifyAuthor(ctx context.Context, authorID, message string) error
}

// Dispatcher periodically claims due posts and publishes them.
type Dispatcher struct {
	cron     *cron.Cron
	store    *store.Store
	registry *platform.Registry
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logger.Logger
	cfg      config.SchedulerConfig

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// New creates a new dispatcher. The notifier is attached later via
// SetNotifier because the messaging front-end is constructed after the
// dispatcher.
func New(st *store.Store, registry *platform.Registry, m *metrics.Metrics, log *logger.Logger, cfg config.SchedulerConfig) *Dispatcher {
	return &Dispatcher{
		store:    st,
		registry: registry,
		metrics:  m,
		logger:   log,
		cfg:      cfg,
	}
}

// SetNotifier attaches the notifier used for author reports.
// Must be called before Start.
func (d *Dispatcher) SetNotifier(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifier = n
}

// Start launches the dispatch loop. Ticks are serialized: if a tick is
// still running when the next one fires, the new tick is skipped.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return fmt.Errorf("dispatcher already started")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	d.cron = cron.New(cron.WithChain(
		cron.Recover(newCronLogger(d.logger)),
		cron.SkipIfStillRunning(newCronLogger(d.logger)),
	))

	spec := fmt.Sprintf("@every %ds", d.cfg.IntervalSeconds)
	if _, err := d.cron.AddFunc(spec, func() {
		d.Tick(time.Now().UTC())
	}); err != nil {
		return fmt.Errorf("failed to schedule dispatch loop: %w", err)
	}

	d.cron.Start()
	d.started = true

	d.logger.Info("dispatcher started",
		logger.Field{Key: "interval_seconds", Value: d.cfg.IntervalSeconds})

	return nil
}

// Stop stops the dispatch loop and waits for a running tick to finish.
// The wait happens outside the mutex so a tick that is delivering an
// author report can still acquire it.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	c := d.cron
	cancel := d.cancel
	d.mu.Unlock()

	stopCtx := c.Stop()
	<-stopCtx.Done()

	if cancel != nil {
		cancel()
	}

	d.logger.Info("dispatcher stopped")
}

// Tick claims every post due at now and publishes each one. Claimed
// posts are removed from the store before publishing starts, so a post
// is attempted at most once even if a tick overlaps a restart.
func (d *Dispatcher) Tick(now time.Time) {
	start := time.Now()
	defer func() {
		d.metrics.ObserveTick(time.Since(start))
	}()

	due, err := d.store.TakeDue(now)
	if err != nil {
		d.logger.Error("failed to claim due posts", err)
		return
	}
	if len(due) == 0 {
		return
	}

	d.logger.Info("dispatching due posts", logger.Field{Key: "count", Value: len(due)})

	for _, post := range due {
		results := d.Publish(d.ctx, post)
		d.notifyAuthor(post, results)
	}

	d.metrics.SetPendingPosts(d.store.Len())
}

// Publish sends the post's content to every selected platform and
// returns one result per target. Each attempt runs under its own
// timeout so one slow platform cannot stall the others. Failed targets
// are reported, not retried.
func (d *Dispatcher) Publish(ctx context.Context, post store.ScheduledPost) []Result {
	results := make([]Result, 0, len(post.Targets))

	for _, target := range post.Targets {
		pub, err := d.registry.Get(target)
		if err != nil {
			d.logger.Error("unknown publish target", err,
				logger.Field{Key: "post_id", Value: post.ID},
				logger.Field{Key: "target", Value: target})
			results = append(results, Result{Platform: target, Err: err})
			d.metrics.RecordPublish(target, false)
			continue
		}

		pubCtx, cancel := context.WithTimeout(ctx, time.Duration(d.cfg.PublishTimeoutSeconds)*time.Second)
		link, err := pub.Publish(pubCtx, post.Content)
		cancel()

		if err != nil {
			d.logger.Error("publish failed", err,
				logger.Field{Key: "post_id", Value: post.ID},
				logger.Field{Key: "platform", Value: target})
			results = append(results, Result{Platform: target, Err: err})
			d.metrics.RecordPublish(target, false)
			continue
		}

		d.logger.Info("post published",
			logger.Field{Key: "post_id", Value: post.ID},
			logger.Field{Key: "platform", Value: target},
			logger.Field{Key: "link", Value: link})
		results = append(results, Result{Platform: target, Link: link})
		d.metrics.RecordPublish(target, true)
	}

	return results
}

func (d *Dispatcher) notifyAuthor(post store.ScheduledPost, results []Result) {
	d.mu.Lock()
	notifier := d.notifier
	d.mu.Unlock()

	if notifier == nil {
		d.logger.Warn("no notifier configured, skipping author report",
			logger.Field{Key: "post_id", Value: post.ID})
		return
	}

	message := FormatScheduledReport(post.ID, results)
	if err := notifier.NotifyAuthor(d.ctx, post.AuthorID, message); err != nil {
		d.logger.Error("failed to notify author", err,
			logger.Field{Key: "post_id", Value: post.ID},
			logger.Field{Key: "author_id", Value: post.AuthorID})
	}
}
