// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tidewatch/internal/middleware"
)

// Router binds the handlers to chi routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil middleware config uses the server
// section of the handler's configuration.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	if mwConfig == nil {
		mwConfig = ChiMiddlewareConfigFromServer(handler.config.Server)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("no route for " + r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeBadRequest, "method not allowed")
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		// Ingest
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.IngestRateLimit())
			r.Post("/reports", h.IngestReport)
			r.Post("/reports/batch", h.IngestBatch)
			r.Post("/observations/discharge", h.ObserveDischarge)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Compress(5, "application/json"))

			// Vessels
			r.Get("/vessels", h.ListVessels)
			r.Get("/vessels/silent", h.SilentVessels)
			r.Get("/vessels/{id}", h.GetVessel)

			// Alerts
			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", h.ListAlerts)
				r.Get("/{id}", h.GetAlert)
				r.Get("/{id}/history", h.AlertHistory)
				r.Post("/{id}/acknowledge", h.AcknowledgeAlert)
				r.Post("/{id}/resolve", h.ResolveAlert)
			})

			r.Get("/statistics", h.Statistics)
			r.Get("/reports/summary", h.ReportSummary)
			r.Get("/notifications/undelivered", h.UndeliveredNotifications)
			r.Get("/notifications/recent", h.RecentNotifications)

			// Detector administration
			r.Get("/detectors", h.ListDetectors)
			r.Put("/detectors/{name}", h.UpdateDetector)
		})

		r.Get("/ws", h.WebSocket)
	})

	return r
}
