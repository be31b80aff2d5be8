// Package app provides the main application structure for the
// cross-posting bot. It coordinates the scheduled post store, platform
// publishers, the dispatcher, the Telegram connector and the metrics
// server.
package app

import (
	"context"
	"sync"

	"github.com/aatumaykin/crosspost/internal/channels/telegram"
	"github.com/aatumaykin/crosspost/internal/config"
	"github.com/aatumaykin/crosspost/internal/logger"
	"github.com/aatumaykin/crosspost/internal/metrics"
	"github.com/aatumaykin/crosspost/internal/platform"
	"github.com/aatumaykin/crosspost/internal/preview"
	"github.com/aatumaykin/crosspost/internal/scheduler"
	"github.com/aatumaykin/crosspost/internal/store"
	"github.com/aatumaykin/crosspost/internal/template"
)

// App represents the main application structure.
// It holds references to all major components and manages their lifecycle.
type App struct {
	config *config.Config
	logger *logger.Logger

	store      *store.Store
	registry   *platform.Registry
	dispatcher *scheduler.Dispatcher
	templates  *template.Loader
	previews   *preview.Fetcher
	telegram   *telegram.Connector

	metrics       *metrics.Metrics
	metricsServer *metrics.Server

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// New creates a new App instance with the provided configuration and
// logger. Components are built in Initialize.
func New(cfg *config.Config, log *logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

// Run starts the application and blocks until the context is cancelled,
// then performs a graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		return err
	}

	a.logger.Info("application is running")

	<-ctx.Done()

	return a.Shutdown()
}

// Store exposes the scheduled post store, mainly for tests.
func (a *App) Store() *store.Store {
	return a.store
}
