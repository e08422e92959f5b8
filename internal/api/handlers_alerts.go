// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/archive"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/logging"
)

const (
	defaultAlertLimit = 100
	maxAlertLimit     = 1000
)

// paramError names the query parameter that failed to parse.
type paramError struct {
	param   string
	value   string
	message string
}

func (e *paramError) Error() string { return e.message }

// parseAlertFilter reads kind, severity, status, vessel, q, open and limit.
func parseAlertFilter(q url.Values) (alerts.Filter, error) {
	f := alerts.Filter{
		Kind:     detection.Kind(q.Get("kind")),
		Severity: alerts.Severity(q.Get("severity")),
		Status:   alerts.Status(q.Get("status")),
		VesselID: q.Get("vessel"),
		Query:    q.Get("q"),
		OpenOnly: q.Get("open") == "true",
		Limit:    defaultAlertLimit,
	}

	if f.Kind != "" && !f.Kind.Valid() {
		return f, &paramError{"kind", q.Get("kind"), "unknown alert kind"}
	}
	if f.Severity != "" && !f.Severity.Valid() {
		return f, &paramError{"severity", q.Get("severity"), "severity must be one of low, medium, high, critical"}
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, &paramError{"status", q.Get("status"), "status must be one of active, acknowledged, resolved"}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAlertLimit {
			return f, &paramError{"limit", raw, "limit must be between 1 and 1000"}
		}
		f.Limit = n
	}
	return f, nil
}

// ListAlerts handles GET /api/v1/alerts. Results are newest first.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	f, err := parseAlertFilter(r.URL.Query())
	if err != nil {
		var pe *paramError
		if errors.As(err, &pe) {
			rw.InvalidParam(pe.param, pe.value, pe.message)
			return
		}
		rw.BadRequest(err.Error())
		return
	}

	list := h.correlator.List(f)
	if list == nil {
		list = []alerts.Alert{}
	}
	rw.List(list, len(list))
}

// GetAlert handles GET /api/v1/alerts/{id}.
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	a, ok := h.correlator.Get(id)
	if !ok {
		rw.NotFound("alert " + id + " not found")
		return
	}
	rw.Success(a)
}

// AlertHistory handles GET /api/v1/alerts/{id}/history from the archive.
func (h *Handler) AlertHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	if h.archive == nil {
		rw.NotFound("alert archive is disabled")
		return
	}

	records, err := h.archive.History(r.Context(), id)
	switch {
	case errors.Is(err, archive.ErrNotFound):
		rw.NotFound("alert " + id + " has no archived history")
	case errors.Is(err, archive.ErrClosed):
		rw.ServiceUnavailable("alert archive is closed")
	case err != nil:
		rw.InternalError(err)
	default:
		rw.List(records, len(records))
	}
}

// AcknowledgeAlert handles POST /api/v1/alerts/{id}/acknowledge.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "acknowledge", h.correlator.Acknowledge)
}

// ResolveAlert handles POST /api/v1/alerts/{id}/resolve. Resolving a
// resolved alert succeeds and returns it unchanged.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "resolve", h.correlator.Resolve)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action string, apply func(string) (alerts.Alert, error)) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	a, err := apply(id)
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		rw.NotFound("alert " + id + " not found")
	case errors.Is(err, alerts.ErrInvalidTransition):
		rw.Conflict(err.Error())
	case err != nil:
		rw.InternalError(err)
	default:
		logging.Ctx(r.Context()).Info().
			Str("alert_id", id).
			Str("action", action).
			Str("status", string(a.Status)).
			Msg("alert status changed by operator")
		rw.Success(a)
	}
}
