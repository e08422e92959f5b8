// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

// Package archive keeps a durable history of alert changes in BadgerDB.
//
// The correlator itself is in-memory; the archive subscribes to its
// change stream and records the latest state of every alert plus the
// ordered list of changes, so operators can audit how an alert evolved
// after the process restarts.
//
// Key layout:
//
//	alert:<id>                     latest alert JSON
//	event:<id>:<unix nanos>:<seq>  one change record
package archive
