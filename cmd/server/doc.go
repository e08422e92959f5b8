// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package main is the entry point for the Tidewatch server.

Tidewatch keeps the latest known track of every vessel reporting on a
position feed, runs hazard detectors (collision risk, loitering, grounding,
illegal discharge, position-jump anomalies) on each accepted report, folds
the findings into deduplicated alerts with a lifecycle, and pushes high and
critical alerts to notification sinks.

# Process Layout

	RootSupervisor ("tidewatch")
	├── DataSupervisor ("data-layer")
	│   ├── dispatcher
	│   └── archive-recorder (ARCHIVE_ENABLED=true)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub
	│   ├── alert-stream
	│   ├── feed-pump (FEED_SOURCE=simulator|nats)
	│   └── alert-publisher (FEED_PUBLISH_ALERTS=true, nats only)
	└── APISupervisor ("api-layer")
	    └── http-server

# Configuration

Configuration is loaded with koanf: built-in defaults, then the YAML file
named by CONFIG_PATH (or ./config.yaml, /etc/tidewatch/config.yaml), then
environment variables. Invalid configuration aborts startup.

# Build Tags

	go build ./cmd/server               # simulator or HTTP-only ingest
	go build -tags nats ./cmd/server    # NATS JetStream feed (embedded server optional)

# Examples

Run the built-in simulator with 50 vessels and console logs:

	FEED_SOURCE=simulator SIMULATOR_VESSELS=50 LOG_FORMAT=console ./tidewatch

Consume reports from NATS and keep an alert archive:

	FEED_SOURCE=nats NATS_URL=nats://nats:4222 NATS_EMBEDDED=false \
	ARCHIVE_ENABLED=true ARCHIVE_PATH=/data/archive ./tidewatch

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
its shutdown timeout and the dispatcher finishes the delivery in flight.
The archive and the NATS transport are closed after the tree has stopped.
*/
package main
