// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/api"
	"github.com/tomtom215/tidewatch/internal/config"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/dispatch"
	"github.com/tomtom215/tidewatch/internal/ingest"
	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/supervisor"
	"github.com/tomtom215/tidewatch/internal/supervisor/services"
	"github.com/tomtom215/tidewatch/internal/tracking"
	ws "github.com/tomtom215/tidewatch/internal/websocket"
)

// alertStreamBuffer sizes the websocket and archive subscriptions to the
// correlator's change stream.
const alertStreamBuffer = 256

//nolint:gocyclo // sequential wiring of every component
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("addr", cfg.Server.ListenAddr()).
		Str("feed", cfg.Feed.Source).
		Bool("archive", cfg.Archive.Enabled).
		Msg("Starting Tidewatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core state.
	store := tracking.NewStore(
		tracking.WithHistoryCapacity(cfg.Tracking.HistoryCapacity),
		tracking.WithGridCellKm(cfg.Tracking.GridCellKm),
	)
	zones, err := loadZones(cfg.Zones)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load restricted zones")
	}
	correlator := alerts.NewCorrelator(correlatorOptions(zones)...)
	engine := detection.NewDefaultEngine(store, zones)
	if err := configureDetectors(engine, cfg.Detection); err != nil {
		logging.Fatal().Err(err).Msg("Invalid detector configuration")
	}

	var hub *ws.Hub
	if cfg.WebSocket.Enabled {
		hub = ws.NewHub()
	}

	dispatcher := dispatch.NewDispatcher(dispatchConfigFrom(cfg.Dispatch), buildSinks(cfg, hub))
	ingestor := ingest.NewIngestor(store, engine, correlator, dispatcher)

	archiveDB, err := openArchive(cfg.Archive)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open alert archive")
	}
	defer func() {
		if archiveDB == nil {
			return
		}
		if err := archiveDB.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing alert archive")
		}
	}()

	// Supervisor tree.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewRunnerService("dispatcher", dispatcher))
	if archiveDB != nil {
		tree.AddDataService(services.NewRunnerService("archive-recorder", archiveDB.Recorder(correlator)))
	}

	if hub != nil {
		tree.AddMessagingService(services.NewRunnerService("websocket-hub", hub))
		tree.AddMessagingService(services.NewRunnerService("alert-stream", ws.NewAlertStream(hub, correlator, alertStreamBuffer)))
	}

	feedParts, err := initFeed(ctx, cfg.Feed, ingestor, correlator, tree)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize feed")
	}
	defer feedParts.close()

	handler := api.NewHandler(api.Deps{
		Store:      store,
		Ingestor:   ingestor,
		Correlator: correlator,
		Engine:     engine,
		Dispatcher: dispatcher,
		Archive:    archiveDB,
		Hub:        hub,
		Config:     cfg,
		Checks:     feedParts.checks,
	})
	router := api.NewRouter(handler, nil)

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().
		Int("vessels", store.Len()).
		Int("pending_notifications", dispatcher.Pending()).
		Msg("Tidewatch stopped")
}
