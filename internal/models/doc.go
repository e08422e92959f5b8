// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package models defines the HTTP request and response payloads of the
Tidewatch API.

Domain types (tracking.VesselTrack, alerts.Alert, dispatch.NotificationEvent)
are serialized as-is; this package only holds the envelope and the views
that combine several components:

  - APIResponse, Metadata, APIError: the envelope every endpoint returns
  - VesselView: a track plus its derived display status
  - Statistics: correlator counters plus the tracked vessel count
  - IngestResponse, BatchResponse, DischargeResponse: ingest outcomes
  - DetectorUpdate: body of PUT /api/v1/detectors/{name}
  - HealthStatus: readiness report
*/
package models
