// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package supervisor runs Tidewatch's long-lived components under a suture v4
supervisor tree.

	RootSupervisor ("tidewatch")
	├── DataSupervisor ("data-layer")
	│   ├── dispatcher
	│   └── archive-recorder (if archive.enabled)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub
	│   ├── alert-stream
	│   ├── feed-pump (simulator or NATS source)
	│   └── alert-publisher (if feed.publish_alerts)
	└── APISupervisor ("api-layer")
	    └── http-server

Each component exposes RunWithContext(ctx) error and is wrapped by
services.NewRunnerService; the HTTP server is wrapped by
services.NewHTTPServerService. Supervisor events (restarts, backoff,
timeouts) are logged through sutureslog into the zerolog-backed slog
handler from internal/logging.

A service that returns an error is restarted. After FailureThreshold
failures within the decay window the supervisor backs off for
FailureBackoff before trying again. Returning suture.ErrDoNotRestart stops
a service permanently.
*/
package supervisor
