// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/models"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

// ListVessels handles GET /api/v1/vessels. Position history is omitted
// unless ?history=true. ?status= filters by display status.
func (h *Handler) ListVessels(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := alerts.VesselStatus(r.URL.Query().Get("status"))
	if status != "" && !validVesselStatus(status) {
		rw.InvalidParam("status", string(status), "status must be one of normal, warning, danger")
		return
	}
	withHistory := r.URL.Query().Get("history") == "true"

	statuses := h.correlator.VesselStatuses()
	tracks := h.store.SnapshotAll()
	out := make([]models.VesselView, 0, len(tracks))
	for _, t := range tracks {
		s, ok := statuses[t.ID]
		if !ok {
			s = alerts.VesselNormal
		}
		if status != "" && s != status {
			continue
		}
		if !withHistory {
			t.History = nil
		}
		out = append(out, models.VesselView{VesselTrack: t, Status: s})
	}

	rw.List(out, len(out))
}

func validVesselStatus(s alerts.VesselStatus) bool {
	return s == alerts.VesselNormal || s == alerts.VesselWarning || s == alerts.VesselDanger
}

// GetVessel handles GET /api/v1/vessels/{id}.
func (h *Handler) GetVessel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	track, ok := h.store.Get(id)
	if !ok {
		rw.NotFound("vessel " + id + " is not tracked")
		return
	}

	rw.Success(models.VesselView{
		VesselTrack: track,
		Status:      h.correlator.VesselStatus(id),
		OpenAlerts:  h.correlator.List(alerts.Filter{VesselID: id, OpenOnly: true}),
	})
}

// SilentVessels handles GET /api/v1/vessels/silent. ?period= overrides
// the configured silence period (Go duration syntax).
func (h *Handler) SilentVessels(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	period := h.config.Tracking.SilencePeriod
	if raw := r.URL.Query().Get("period"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			rw.InvalidParam("period", raw, "period must be a positive duration such as 30m")
			return
		}
		period = d
	}

	silent := h.store.Silent(h.now(), period)
	for i := range silent {
		silent[i].History = nil
	}
	if silent == nil {
		silent = []tracking.VesselTrack{}
	}
	rw.List(silent, len(silent))
}
