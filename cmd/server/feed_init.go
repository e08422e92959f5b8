// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/api"
	"github.com/tomtom215/tidewatch/internal/config"
	"github.com/tomtom215/tidewatch/internal/feed"
	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/supervisor"
	"github.com/tomtom215/tidewatch/internal/supervisor/services"
)

// feedComponents is what initFeed hands back to main: services already
// added to the tree, a readiness probe when the source has one, and a
// cleanup to run after the tree stops.
type feedComponents struct {
	checks []api.ReadinessCheck
	close  func()
}

// initFeed builds the configured inbound report source and adds its pump
// (and the alert publisher, for NATS) to the messaging layer.
func initFeed(ctx context.Context, cfg config.FeedConfig, ingester feed.Ingester, correlator *alerts.Correlator, tree *supervisor.SupervisorTree) (*feedComponents, error) {
	out := &feedComponents{close: func() {}}

	switch cfg.Source {
	case config.FeedSourceNone, "":
		logging.Info().Msg("No feed source configured; reports arrive over HTTP only")
		return out, nil

	case config.FeedSourceSimulator:
		sim := feed.NewSimulator(feed.SimulatorConfig{
			Vessels:  cfg.Simulator.Vessels,
			Interval: cfg.Simulator.Interval,
			Seed:     cfg.Simulator.Seed,
		})
		tree.AddMessagingService(services.NewRunnerService("feed-pump", feed.NewPump(sim, ingester)))
		logging.Info().
			Int("vessels", cfg.Simulator.Vessels).
			Dur("interval", cfg.Simulator.Interval).
			Msg("Simulator feed added to supervisor tree")
		return out, nil

	case config.FeedSourceNATS:
		transport, err := feed.NewNATSTransport(ctx, feed.NATSConfig{
			URL:            cfg.NATS.URL,
			EmbeddedServer: cfg.NATS.EmbeddedServer,
			StoreDir:       cfg.NATS.StoreDir,
			MaxMemory:      cfg.NATS.MaxMemory,
			MaxStore:       cfg.NATS.MaxStore,
			ReportsTopic:   cfg.NATS.ReportsTopic,
			AlertsTopic:    cfg.NATS.AlertsTopic,
			DurableName:    cfg.NATS.DurableName,
			QueueGroup:     cfg.NATS.QueueGroup,
		}, feed.NewWatermillLogger())
		if err != nil {
			return nil, fmt.Errorf("init NATS feed: %w", err)
		}
		out.close = transport.Close
		out.checks = append(out.checks, api.ReadinessCheck{Name: "nats", Check: transport.Ping})

		source := feed.NewMessageSource(transport.Subscriber, cfg.NATS.ReportsTopic, "nats")
		tree.AddMessagingService(services.NewRunnerService("feed-pump", feed.NewPump(source, ingester)))

		if cfg.PublishAlerts {
			publisher := feed.NewAlertPublisher(transport.Publisher, correlator, cfg.NATS.AlertsTopic)
			tree.AddMessagingService(services.NewRunnerService("alert-publisher", publisher))
		}
		logging.Info().
			Str("url", cfg.NATS.URL).
			Bool("embedded", cfg.NATS.EmbeddedServer).
			Str("topic", cfg.NATS.ReportsTopic).
			Bool("publish_alerts", cfg.PublishAlerts).
			Msg("NATS feed added to supervisor tree")
		return out, nil

	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.Source)
	}
}
