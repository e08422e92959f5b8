// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package feed connects Tidewatch to its inbound and outbound message
streams.

Inbound, a Source yields position reports one at a time and a Pump drives
them through the ingestor:

  - Simulator generates a fleet of jittering vessels (deterministic when
    seeded)
  - SliceSource replays a fixed list, mostly for tests and fixtures
  - MessageSource decodes JSON reports from any watermill Subscriber

Outbound, AlertPublisher publishes every alert change to a watermill
Publisher topic so downstream consumers can follow the alert lifecycle.

With the nats build tag, NewNATSTransport connects both directions to
NATS JetStream, optionally backed by an embedded server. Without the
tag it returns ErrNATSDisabled.
*/
package feed
