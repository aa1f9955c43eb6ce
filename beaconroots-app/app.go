package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/compose-network/beaconroots/beaconroots-app/config"
	"github.com/compose-network/beaconroots/metrics"
	apisrv "github.com/compose-network/beaconroots/server/api"
	apimw "github.com/compose-network/beaconroots/server/api/middleware"
	"github.com/compose-network/beaconroots/x/authority"
	"github.com/compose-network/beaconroots/x/ringstore"
	storehttp "github.com/compose-network/beaconroots/x/ringstore/http"
)

// App represents the beacon roots application
type App struct {
	cfg  *config.Config
	log  zerolog.Logger
	ctrl context.CancelFunc

	store  *ringstore.Store
	writer *authority.Authority

	// API server (HTTP)
	apiServer *apisrv.Server
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log.With().Str("component", "app").Logger(),
	}

	if err := app.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	return app, nil
}

// initialize sets up the ring store, write authority, and HTTP surface.
func (a *App) initialize() error {
	storeOpts := []ringstore.Option{}
	authorityOpts := []authority.Option{}
	if a.cfg.Metrics.Enabled {
		storeOpts = append(storeOpts, ringstore.WithMetrics(ringstore.NewMetrics()))
		authorityOpts = append(authorityOpts, authority.WithMetrics(authority.NewMetrics()))
	}

	store, err := ringstore.New(a.cfg.Store, a.log, storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to create ring store: %w", err)
	}
	a.store = store

	writer, err := authority.New(store, a.cfg.Authority, a.log, authorityOpts...)
	if err != nil {
		return fmt.Errorf("failed to create write authority: %w", err)
	}
	a.writer = writer

	apiCfg := apisrv.Config{
		ListenAddr:        a.cfg.API.ListenAddr,
		ReadHeaderTimeout: a.cfg.API.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.API.ReadTimeout,
		WriteTimeout:      a.cfg.API.WriteTimeout,
		IdleTimeout:       a.cfg.API.IdleTimeout,
		MaxHeaderBytes:    a.cfg.API.MaxHeaderBytes,
	}
	s := apisrv.NewServer(apiCfg, a.log)
	s.Use(apimw.Recover(a.log))
	s.Use(apimw.RequestID())
	s.Use(apimw.Logger(a.log))

	// Health/readiness/stats
	s.Router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	s.Router.HandleFunc("/ready", a.handleReady).Methods(http.MethodGet)
	s.Router.HandleFunc("/stats", a.handleStats).Methods(http.MethodGet)

	// Metrics
	if a.cfg.Metrics.Enabled {
		s.Router.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	// Query contract + write path
	storehttp.NewHandler(a.store, a.writer, a.log).RegisterMux(s.Router)

	a.apiServer = s

	return nil
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.ctrl = cancel

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.apiServer.Start(runCtx)
	}()

	go a.statsReporter(runCtx)

	return a.runWithGracefulShutdown(runCtx, errCh)
}

// runWithGracefulShutdown handles shutdown signals.
func (a *App) runWithGracefulShutdown(ctx context.Context, errCh <-chan error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info().Msg("Beacon roots store started successfully")

	select {
	case <-ctx.Done():
		a.log.Info().Msg("Context canceled, initiating shutdown")
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			a.log.Error().Err(err).Msg("API server error")
			a.ctrl()
			return err
		}
	}

	a.ctrl()

	// Give the HTTP server a moment to drain in-flight requests.
	select {
	case <-errCh:
	case <-time.After(15 * time.Second):
		a.log.Warn().Msg("API server did not stop in time")
	}

	a.log.Info().Msg("Graceful shutdown complete")
	return nil
}

// handleHealth responds to health check requests.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	_, _, hasHead := a.store.Head()

	status := "ready"
	if !hasHead {
		status = "awaiting_first_head"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":%q}`, status)
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.GetStats())
}

// GetStats returns application statistics.
func (a *App) GetStats() map[string]interface{} {
	stats := a.store.Stats()
	for k, v := range a.writer.Stats() {
		stats[k] = v
	}
	stats["app_version"] = Version
	stats["app_build_time"] = BuildTime
	stats["app_git_commit"] = GitCommit
	return stats
}

// statsReporter periodically reports store statistics.
func (a *App) statsReporter(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := a.store.Stats()

			a.log.Info().
				Uint64("writes_total", stats["writes_total"].(uint64)).
				Int("index_entries", stats["index_entries"].(int)).
				Str("head_step", stats["head_step"].(string)).
				Msg("Beacon roots store statistics")
		}
	}
}
