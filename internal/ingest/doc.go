// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

// Package ingest is the position report pipeline: validate, upsert into
// the vessel store, run the detectors, correlate candidates into alerts
// and hand qualifying alerts to the dispatcher.
//
// Reports for the same vessel are processed one at a time; reports for
// different vessels may run concurrently. Delivery of notifications is
// asynchronous and never holds up ingestion.
package ingest
