// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package detection implements the hazard detectors that turn vessel state
into candidate alerts.

Detectors are pure functions of a track snapshot. They never mutate the
store and never return errors for missing data: a track with too little
history simply yields no candidate. The Engine runs every enabled
detector after each applied report and keeps per-detector counters.

Built-in detectors:

  - CollisionDetector: projected closest point of approach against
    spatial neighbours. One candidate per vessel pair, keyed on the
    lexically smaller vessel id.
  - LoiteringDetector: samples confined to a small radius at low average
    speed across a trailing window of data time.
  - GroundingDetector: a sharp stop inside a restricted zone.
  - AnomalyDetector: a position jump whose implied speed over ground is
    not physically plausible.
  - DischargeDetector: thresholds externally supplied discharge
    observations (satellite, aerial or sensor reports).

All windows use the timestamps carried by the reports, never the wall
clock, so replaying a recorded feed yields the same candidates.
*/
package detection
