// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package dispatch fans new and escalated alerts out to notification sinks.

OnAlertChanged never blocks: qualifying alerts (high or critical, newly
created or escalated) become NotificationEvents on a bounded priority
queue and a single worker delivers them. Ordering rules:

  - critical before high, then oldest alert first
  - events of the same alert leave in the order their transitions
    happened, regardless of severity

At most one event is ever produced per (alert id, transition). Each
sink delivery is retried with exponential backoff behind a per-sink
circuit breaker; after the last attempt the event is recorded as
undelivered for that sink and the worker moves on.

Sinks:

  - WebhookSink: generic JSON POST
  - DiscordSink: Discord webhook embed
  - VoiceSink: spoken announcement through a Speaker
  - BroadcastSink: UI notification feed (websocket hub)
*/
package dispatch
