package app

import (
	"context"
	"fmt"

	"github.com/aatumaykin/crosspost/internal/channels/telegram"
	"github.com/aatumaykin/crosspost/internal/constants"
	"github.com/aatumaykin/crosspost/internal/metrics"
	"github.com/aatumaykin/crosspost/internal/platform"
	"github.com/aatumaykin/crosspost/internal/platform/bluesky"
	"github.com/aatumaykin/crosspost/internal/platform/mastodon"
	"github.com/aatumaykin/crosspost/internal/preview"
	"github.com/aatumaykin/crosspost/internal/scheduler"
	"github.com/aatumaykin/crosspost/internal/store"
	"github.com/aatumaykin/crosspost/internal/template"
)

// Initialize builds and starts all application components: post store,
// platform publishers, dispatcher, Telegram connector and the metrics
// server. A corrupt posts file aborts startup.
func (a *App) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("application already started")
	}

	// 1. Create application context
	a.ctx, a.cancel = context.WithCancel(ctx)

	// 2. Metrics registry. Always constructed, the HTTP server only
	// runs when enabled.
	a.metrics = metrics.New("crosspost")

	// 3. Open the scheduled post store
	st, err := store.New(a.config.Storage.PostsFile(constants.PostsFile), a.logger)
	if err != nil {
		return fmt.Errorf("failed to open post store: %w", err)
	}
	a.store = st
	a.metrics.SetPendingPosts(st.Len())

	// 4. Build platform publishers
	var publishers []platform.Publisher
	if a.config.Platforms.Bluesky.Enabled {
		publishers = append(publishers, bluesky.New(a.config.Platforms.Bluesky, a.logger))
	}
	if a.config.Platforms.Mastodon.Enabled {
		publishers = append(publishers, mastodon.New(a.config.Platforms.Mastodon, a.logger))
	}
	if len(publishers) == 0 {
		return fmt.Errorf("no platforms enabled")
	}
	a.registry = platform.NewRegistry(publishers...)

	// 5. Post templates and link previews
	a.templates = template.NewLoader(a.config.Templates.Dir)
	if _, err := a.templates.Load(); err != nil {
		return fmt.Errorf("failed to load post templates: %w", err)
	}
	a.previews = preview.NewFetcher(a.config.Preview, a.logger)

	// 6. Dispatcher for scheduled posts
	a.dispatcher = scheduler.New(a.store, a.registry, a.metrics, a.logger, a.config.Scheduler)

	// 7. Telegram connector
	a.telegram = telegram.New(a.config.Telegram, a.logger, telegram.Deps{
		Store:     a.store,
		Registry:  a.registry,
		Publisher: a.dispatcher,
		Templates: a.templates,
		Previews:  a.previews,
		Metrics:   a.metrics,
	})
	a.dispatcher.SetNotifier(a.telegram)

	if err := a.telegram.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start telegram connector: %w", err)
	}

	// 8. Start the dispatch loop after the connector so author
	// notifications have somewhere to go.
	if err := a.dispatcher.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	// 9. Metrics server
	if a.config.Metrics.Enabled {
		a.metricsServer = metrics.NewServer(a.config.Metrics.ListenAddr, a.metrics, a.logger)
		a.metricsServer.Start()
	}

	a.started = true

	return nil
}
