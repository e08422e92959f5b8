// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/dispatch"
	"github.com/tomtom215/tidewatch/internal/models"
)

// Statistics handles GET /api/v1/statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats := models.Statistics{
		TotalVessels:    h.store.Len(),
		Statistics:      h.correlator.Statistics(h.now()),
		HistoryCapacity: h.store.Capacity(),
	}
	if h.dispatcher != nil {
		stats.PendingNotifications = h.dispatcher.Pending()
	}
	NewResponseWriter(w, r).Success(stats)
}

// UndeliveredNotifications handles GET /api/v1/notifications/undelivered.
func (h *Handler) UndeliveredNotifications(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.dispatcher == nil {
		rw.ServiceUnavailable("notification dispatcher is not running")
		return
	}

	list := h.dispatcher.Undelivered()
	if list == nil {
		list = []dispatch.Undelivered{}
	}
	rw.List(list, len(list))
}

// RecentNotifications handles GET /api/v1/notifications/recent.
func (h *Handler) RecentNotifications(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.dispatcher == nil {
		rw.ServiceUnavailable("notification dispatcher is not running")
		return
	}

	list := h.dispatcher.Recent()
	if list == nil {
		list = []dispatch.NotificationEvent{}
	}
	rw.List(list, len(list))
}

// ListDetectors handles GET /api/v1/detectors.
func (h *Handler) ListDetectors(w http.ResponseWriter, r *http.Request) {
	list := h.engine.Detectors()
	NewResponseWriter(w, r).List(list, len(list))
}

// UpdateDetector handles PUT /api/v1/detectors/{name}. Thresholds are
// applied before the enabled flag so a rejected config changes nothing.
func (h *Handler) UpdateDetector(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	name := chi.URLParam(r, "name")

	var req models.DetectorUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if req.Enabled == nil && len(req.Config) == 0 {
		rw.BadRequest("set enabled, config or both")
		return
	}
	if _, ok := h.engine.GetRule(name); !ok {
		rw.NotFound("detector " + name + " is not registered")
		return
	}

	if len(req.Config) > 0 {
		if err := h.engine.ConfigureDetector(name, req.Config); err != nil {
			if errors.Is(err, detection.ErrUnknownDetector) {
				rw.NotFound("detector " + name + " is not registered")
				return
			}
			rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, err.Error(),
				map[string]interface{}{"field": "config"})
			return
		}
	}
	if req.Enabled != nil {
		if err := h.engine.SetDetectorEnabled(name, *req.Enabled); err != nil {
			rw.NotFound(err.Error())
			return
		}
	}

	for _, info := range h.engine.Detectors() {
		if info.Name == name {
			rw.Success(info)
			return
		}
	}
	rw.NotFound("detector " + name + " is not registered")
}
