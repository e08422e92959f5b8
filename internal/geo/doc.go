// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

// Package geo holds the navigation math shared by the store and the
// hazard detectors: great-circle distance, course arithmetic, linear
// closest-point-of-approach projection and restricted-zone lookup.
//
// Distances are kilometres, speeds knots, angles degrees clockwise from
// true north. Zones are GeoJSON polygons evaluated with paulmach/orb.
package geo
