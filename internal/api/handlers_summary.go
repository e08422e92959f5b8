// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package api

import (
	"net/http"
	"strconv"
	"time"
)

const (
	defaultReportPeriod = "7d"
	maxReportTop        = 50
)

// reportPeriods are the selectable summary windows.
var reportPeriods = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// ReportSummary handles GET /api/v1/reports/summary.
//
// Query parameters:
//   - period: 24h, 7d (default), 30d or 90d
//   - top: length of the vessel ranking, 1-50 (default 5)
func (h *Handler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	periodName := q.Get("period")
	if periodName == "" {
		periodName = defaultReportPeriod
	}
	period, ok := reportPeriods[periodName]
	if !ok {
		rw.InvalidParam("period", periodName, "period must be one of 24h, 7d, 30d, 90d")
		return
	}

	top := 0
	if raw := q.Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxReportTop {
			rw.InvalidParam("top", raw, "top must be between 1 and 50")
			return
		}
		top = n
	}

	report := h.correlator.Report(h.now(), period, top)
	for i := range report.TopVessels {
		if track, ok := h.store.Get(report.TopVessels[i].VesselID); ok {
			report.TopVessels[i].Name = track.Name
		}
	}
	rw.Success(report)
}
