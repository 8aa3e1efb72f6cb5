// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/civitas/internal/api"
	"github.com/tomtom215/civitas/internal/badges"
	"github.com/tomtom215/civitas/internal/config"
	"github.com/tomtom215/civitas/internal/detection"
	"github.com/tomtom215/civitas/internal/economy"
	"github.com/tomtom215/civitas/internal/events"
	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/reputation"
	"github.com/tomtom215/civitas/internal/storage"
	"github.com/tomtom215/civitas/internal/supervisor"
	"github.com/tomtom215/civitas/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.LoggingSettings())
	logging.Info().
		Str("realm", cfg.Engine.RealmID).
		Str("storage_path", cfg.Storage.Path).
		Bool("in_memory", cfg.Storage.InMemory).
		Msg("Starting Civitas with supervisor tree")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Civitas stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component and blocks until a shutdown signal. Deferred
// closes run in reverse order: bus, then storage.
func run(cfg *config.Config) error {
	db, err := storage.Open(cfg.StorageSettings())
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()
	logging.Info().Msg("Storage opened successfully")

	eventsCfg := cfg.EventsSettings()
	bus, err := events.NewBus(eventsCfg)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	realm := cfg.Engine.RealmID

	layers, err := reputation.NewLayerSet(cfg.LayerConfigs())
	if err != nil {
		return fmt.Errorf("invalid layer configuration: %w", err)
	}
	repEngine := reputation.NewEngine(
		reputation.NewBadgerStore(db, realm, cfg.Storage.TransactionRetention),
		layers,
		cfg.ReputationSettings(),
	)

	detStore := detection.NewBadgerStore(db, realm, cfg.Storage.EventRetention)
	detEngine, err := detection.NewEngine(detStore, detStore, cfg.DetectionSettings(), detection.WithPublisher(bus))
	if err != nil {
		return fmt.Errorf("failed to create detection engine: %w", err)
	}

	calculator, err := economy.NewCalculator(repEngine, cfg.EconomySettings())
	if err != nil {
		return fmt.Errorf("failed to create reward calculator: %w", err)
	}

	trigger, err := badges.NewTrigger(repEngine, badges.NewBadgerStore(db, realm), cfg.BadgeLadders(), badges.WithPublisher(bus))
	if err != nil {
		return fmt.Errorf("failed to create badge trigger: %w", err)
	}
	logging.Info().
		Int("layers", len(layers.All())).
		Int("tiers", len(calculator.Tiers())).
		Int("ladders", len(trigger.Ladders())).
		Msg("Engines initialized")

	handler, err := api.NewHandler(api.Dependencies{
		Reputation:         repEngine,
		Detection:          detEngine,
		Rewards:            calculator,
		Badges:             trigger,
		Health:             db,
		CheckBadgesOnEvent: cfg.Badges.CheckOnEvent,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewRouter(handler, api.RouterConfig{
			RealmID:           realm,
			CORSOrigins:       cfg.Server.CORSOrigins,
			RateLimitRequests: cfg.Server.RateLimitReqs,
			RateLimitWindow:   cfg.Server.RateLimitWindow,
			RateLimitDisabled: cfg.Server.RateLimitDisabled,
		}),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddDataService(services.NewStorageGCService(db))

	tree.AddAnalysisService(services.NewDetectionScanService(detEngine))
	if len(eventsCfg.FeedTopics) > 0 {
		tree.AddAnalysisService(services.NewEventFeedService(events.NewFeed(bus, eventsCfg.FeedTopics, nil)))
		logging.Info().Strs("topics", eventsCfg.FeedTopics).Msg("Event feed logger added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	watchConfig()

	// === START SUPERVISOR TREE ===

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel receives exactly one value, when the root supervisor stops.
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		err = <-errCh
	case err = <-errCh:
		stop()
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil {
		return fmt.Errorf("supervisor tree failed: %w", err)
	}
	return nil
}

// watchConfig reloads the log level when the config file changes. Other
// settings need a restart.
func watchConfig() {
	path := config.ConfigFile()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		reloaded, err := config.Load()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid configuration change")
			return
		}
		logging.SetLevelString(reloaded.Logging.Level)
		logging.Info().Str("level", reloaded.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch disabled")
	}
}
