// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package websocket pushes alert changes and notifications to browser
clients.

A Hub owns the set of connected clients and fans every message out to
them. Each Client runs a read pump (answers application pings, enforces
the pong deadline) and a write pump (drains the client's send buffer,
sends keepalive pings). A client whose buffer is full is disconnected
rather than allowed to slow the hub down.

Message types:

  - alert_changed: an alert was created, refreshed, escalated,
    acknowledged or resolved (payload: AlertChangedData)
  - notification: a high or critical alert was dispatched to the UI sink
  - ping / pong: application-level keepalive

AlertStream bridges the correlator's change stream into the hub and is
run as a supervised service:

	hub := websocket.NewHub()
	stream := websocket.NewAlertStream(hub, correlator, 256)
	// both expose RunWithContext(ctx) error
*/
package websocket
