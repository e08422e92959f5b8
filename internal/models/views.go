// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package models

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

// VesselView is a track with its display status. OpenAlerts is only
// populated on the single-vessel endpoint.
type VesselView struct {
	tracking.VesselTrack
	Status     alerts.VesselStatus `json:"status"`
	OpenAlerts []alerts.Alert      `json:"openAlerts,omitempty"`
}

// Statistics is the dashboard summary.
type Statistics struct {
	TotalVessels int `json:"totalVessels"`
	alerts.Statistics
	PendingNotifications int `json:"pendingNotifications"`
	// HistoryCapacity is the number of reports kept per vessel track.
	HistoryCapacity int `json:"historyCapacity"`
}

// AlertChange summarises one correlation caused by an ingested report.
type AlertChange struct {
	AlertID  string          `json:"alertId"`
	Kind     detection.Kind  `json:"kind"`
	Severity alerts.Severity `json:"severity"`
	Change   alerts.Change   `json:"change"`
}

// IngestResponse is returned by POST /api/v1/reports.
type IngestResponse struct {
	Outcome  string          `json:"outcome"`
	VesselID string          `json:"vesselId"`
	Deltas   tracking.Deltas `json:"deltas"`
	Alerts   []AlertChange   `json:"alerts"`
}

// BatchResponse is returned by POST /api/v1/reports/batch.
type BatchResponse struct {
	Applied int `json:"applied"`
	Stale   int `json:"stale"`
	Invalid int `json:"invalid"`
}

// DischargeResponse is returned by POST /api/v1/observations/discharge.
type DischargeResponse struct {
	Triggered bool          `json:"triggered"`
	Change    alerts.Change `json:"change,omitempty"`
	Alert     *alerts.Alert `json:"alert,omitempty"`
}

// DetectorUpdate is the body of PUT /api/v1/detectors/{name}. At least
// one field must be set.
type DetectorUpdate struct {
	Enabled *bool           `json:"enabled,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// ComponentCheck is one readiness probe result.
type ComponentCheck struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthStatus represents the readiness check response.
type HealthStatus struct {
	Status     string                    `json:"status"`
	Uptime     float64                   `json:"uptime_seconds"`
	Components map[string]ComponentCheck `json:"components"`
	Sinks      map[string]string         `json:"sinks,omitempty"`
}

// NewAlertChanges summarises correlation results for a response body.
func NewAlertChanges(results []alerts.Result) []AlertChange {
	out := make([]AlertChange, 0, len(results))
	for _, r := range results {
		out = append(out, AlertChange{
			AlertID:  r.Alert.ID,
			Kind:     r.Alert.Kind,
			Severity: r.Alert.Severity,
			Change:   r.Change,
		})
	}
	return out
}

// HealthyStatus returns "ready" when every component is healthy, else "degraded".
func (h *HealthStatus) HealthyStatus() string {
	for _, c := range h.Components {
		if !c.Healthy {
			return "degraded"
		}
	}
	return "ready"
}

