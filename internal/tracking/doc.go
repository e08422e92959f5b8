// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

// Package tracking is the authoritative in-memory state of every vessel.
//
// A VesselTrack is created by the first position report for a vessel id
// and mutated by every later one. Each track keeps a bounded, ordered
// position history; the oldest sample is evicted when capacity is reached.
//
// All mutation goes through Store.Upsert. Readers receive deep copies:
//
//	track, ok := store.Get("366999001")
//	all := store.SnapshotAll()                 // point-in-time copy of every track
//	near := store.Neighbors(track, 25)         // consistent neighbour scan
//
// Neighbour queries use a spatial hash grid so that collision screening
// does not compare every pair of vessels.
package tracking
