// Package app provides graceful shutdown for the application.
package app

import (
	"context"
	"time"
)

// shutdownTimeout bounds how long the metrics server gets to drain.
const shutdownTimeout = 5 * time.Second

// Shutdown performs graceful shutdown of all components.
// It stops the application in the following order:
//  1. Stops the dispatcher, waiting for a running tick to finish so
//     in-flight author reports still reach Telegram
//  2. Stops the Telegram connector
//  3. Cancels the application context
//  4. Stops the metrics server
//
// The method is thread-safe and can be called from multiple goroutines.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	a.logger.Info("shutting down application")

	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}

	if a.telegram != nil {
		if err := a.telegram.Stop(); err != nil {
			a.logger.Error("failed to stop telegram connector", err)
		}
	}

	a.cancel()

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.metricsServer.Stop(ctx); err != nil {
			a.logger.Error("failed to stop metrics server", err)
		}
	}

	a.started = false

	a.logger.Info("application stopped")

	return nil
}
