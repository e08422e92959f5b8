// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package alerts correlates detector candidates into canonical alerts and
owns their lifecycle.

At most one alert is open (active or acknowledged) per vessel and kind.
A candidate for an open pair refreshes that alert in place; severity is
recomputed from the new confidence and a rise is reported as an
escalation. Status only moves forward:

	active -> acknowledged -> resolved
	active -> resolved

Resolving twice is a no-op. Resolved alerts are retained for history.

Every change is published to subscribers in the order it happened, so a
subscriber can rebuild the alert set from Snapshot plus the stream.
*/
package alerts
