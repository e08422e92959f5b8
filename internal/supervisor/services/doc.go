// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

// Package services adapts Tidewatch components to suture.Service.
//
// RunnerService wraps anything with RunWithContext(ctx) error (hub, alert
// stream, dispatcher, archive recorder, feed pump, alert publisher).
// HTTPServerService translates http.Server's ListenAndServe/Shutdown pair
// into a context-driven Serve with a bounded graceful shutdown.
package services
