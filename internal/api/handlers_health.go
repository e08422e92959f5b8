// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/tidewatch/internal/models"
)

// readinessTimeout bounds all probes of one /health/ready request.
const readinessTimeout = 2 * time.Second

// HealthLive handles GET /health/live. It only proves the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status":         "alive",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /health/ready. It answers 503 while any
// component probe fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := models.HealthStatus{
		Uptime:     time.Since(h.startTime).Seconds(),
		Components: map[string]models.ComponentCheck{},
	}

	status.Components["store"] = models.ComponentCheck{Healthy: h.store != nil}
	status.Components["correlator"] = models.ComponentCheck{Healthy: h.correlator != nil}
	if h.dispatcher != nil {
		status.Sinks = h.dispatcher.SinkStates()
		status.Components["dispatcher"] = models.ComponentCheck{Healthy: true}
	}
	if h.archive != nil {
		status.Components["archive"] = probe(ctx, func(ctx context.Context) error {
			_, err := h.archive.List(ctx, 1)
			return err
		})
	}
	for _, c := range h.checks {
		status.Components[c.Name] = probe(ctx, c.Check)
	}

	status.Status = status.HealthyStatus()
	rw := NewResponseWriter(w, r)
	if status.Status != "ready" {
		rw.write(http.StatusServiceUnavailable, status, rw.metadata())
		return
	}
	rw.Success(status)
}

func probe(ctx context.Context, check func(context.Context) error) models.ComponentCheck {
	if err := check(ctx); err != nil {
		return models.ComponentCheck{Healthy: false, Error: err.Error()}
	}
	return models.ComponentCheck{Healthy: true}
}
