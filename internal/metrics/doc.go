// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

// Package metrics registers the Prometheus instruments for Tidewatch and
// exposes small Record* helpers so call sites stay one line long.
//
// All collectors are registered on the default registry via promauto and
// served by promhttp at /metrics.
package metrics
