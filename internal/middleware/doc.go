// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

/*
Package middleware provides infrastructure HTTP middleware shared by the
API router.

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    correlation ID for the request
  - PrometheusMetrics: records request count and latency per chi route
    pattern

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Get("/vessels", h.ListVessels)
	})

Route labels use the matched pattern ("/api/v1/alerts/{id}"), never the
raw path, so metric cardinality stays bounded by the route table.
*/
package middleware
