// Package metrics exposes Prometheus instrumentation for the dispatcher and
// the scheduled post store, plus an optional /metrics HTTP listener.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/aatumaykin/crosspost/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for the bot.
type Metrics struct {
	registry *prometheus.Registry

	publishTotal  *prometheus.CounterVec
	pendingPosts  prometheus.Gauge
	tickDuration  prometheus.Histogram
	commandsTotal *prometheus.CounterVec
}

// New creates and registers the bot's collectors on a fresh registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publish_total",
				Help:      "Publish attempts by platform and outcome",
			},
			[]string{"platform", "status"},
		),
		pendingPosts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_posts",
				Help:      "Number of pending scheduled posts",
			},
		),
		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Duration of dispatcher ticks",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Handled bot commands by name",
			},
			[]string{"command"},
		),
	}

	reg.MustRegister(m.publishTotal, m.pendingPosts, m.tickDuration, m.commandsTotal)

	return m
}

// RecordPublish counts one publish attempt outcome for a platform.
func (m *Metrics) RecordPublish(platformID string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.publishTotal.WithLabelValues(platformID, status).Inc()
}

// SetPendingPosts updates the pending post gauge.
func (m *Metrics) SetPendingPosts(n int) {
	m.pendingPosts.Set(float64(n))
}

// ObserveTick records the duration of one dispatcher tick.
func (m *Metrics) ObserveTick(d time.Duration) {
	m.tickDuration.Observe(d.Seconds())
}

// RecordCommand counts one handled bot command.
func (m *Metrics) RecordCommand(command string) {
	m.commandsTotal.WithLabelValues(command).Inc()
}

// Server serves the registry on /metrics.
type Server struct {
	srv    *http.Server
	logger *logger.Logger
}

// NewServer builds a /metrics HTTP server for the given metrics.
func NewServer(addr string, m *Metrics, log *logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	return &Server{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: log,
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics listener started",
			logger.Field{Key: "addr", Value: s.srv.Addr})
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics listener failed", err)
		}
	}()
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
