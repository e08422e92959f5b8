// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package api provides the HTTP surface of Tidewatch using the chi router.

Endpoints:

	POST /api/v1/reports                     ingest one position report (202)
	POST /api/v1/reports/batch               ingest an ordered array of reports
	POST /api/v1/observations/discharge      feed a discharge observation
	GET  /api/v1/vessels                     all tracks with display status
	GET  /api/v1/vessels/silent              vessels past the silence period
	GET  /api/v1/vessels/{id}                one track with its open alerts
	GET  /api/v1/alerts                      filter by kind, severity, status, vessel, q, limit
	GET  /api/v1/alerts/{id}                 one alert
	GET  /api/v1/alerts/{id}/history         archived changes (archive enabled only)
	POST /api/v1/alerts/{id}/acknowledge
	POST /api/v1/alerts/{id}/resolve
	GET  /api/v1/statistics
	GET  /api/v1/notifications/undelivered
	GET  /api/v1/notifications/recent
	GET  /api/v1/detectors
	PUT  /api/v1/detectors/{name}            enable/disable or replace thresholds
	GET  /api/v1/ws                          alert_changed and notification stream
	GET  /metrics                            Prometheus exposition
	GET  /health/live, /health/ready

Every JSON endpoint answers with the models.APIResponse envelope. Errors
carry a machine-readable code; see models.APIError.

Middleware stack (outermost first): request ID, real IP, panic recovery,
CORS, security headers, Prometheus metrics, and a per-IP rate limit on the
ingest routes.
*/
package api
