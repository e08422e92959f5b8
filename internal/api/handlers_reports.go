// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/ingest"
	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/models"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

// maxBatchSize bounds POST /reports/batch.
const maxBatchSize = 1000

// IngestReport handles POST /api/v1/reports.
//
// A stale report is still a 202 with outcome "stale"; only malformed or
// out-of-range reports are rejected.
func (h *Handler) IngestReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var report tracking.Report
	if err := decodeJSON(w, r, &report); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	ack, err := h.ingestor.Ingest(r.Context(), report)
	if err != nil {
		h.writeIngestError(rw, err)
		return
	}

	rw.Accepted(models.IngestResponse{
		Outcome:  string(ack.Outcome),
		VesselID: report.VesselID,
		Deltas:   ack.Deltas,
		Alerts:   models.NewAlertChanges(ack.Alerts),
	})
}

func (h *Handler) writeIngestError(rw *ResponseWriter, err error) {
	var invalid *ingest.InvalidReportError
	switch {
	case errors.As(err, &invalid):
		details := map[string]interface{}{}
		if len(invalid.Fields) > 0 {
			details["fields"] = invalid.Fields
		}
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeInvalidReport, invalid.Error(), details)
	case errors.Is(err, tracking.ErrInvalidReport):
		rw.Error(http.StatusBadRequest, ErrCodeInvalidReport, err.Error())
	default:
		rw.InternalError(err)
	}
}

// IngestBatch handles POST /api/v1/reports/batch. Reports are applied
// in array order; invalid entries are counted, not fatal.
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var reports []tracking.Report
	if err := decodeJSON(w, r, &reports); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if len(reports) > maxBatchSize {
		rw.InvalidParam("reports", fmt.Sprint(len(reports)), fmt.Sprintf("batch holds at most %d reports", maxBatchSize))
		return
	}

	applied, stale, invalid, err := h.ingestor.IngestBatch(r.Context(), reports)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int("applied", applied).Msg("batch interrupted")
		rw.ServiceUnavailable(err.Error())
		return
	}

	rw.Success(models.BatchResponse{Applied: applied, Stale: stale, Invalid: invalid})
}

// ObserveDischarge handles POST /api/v1/observations/discharge.
func (h *Handler) ObserveDischarge(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var obs detection.Observation
	if err := decodeJSON(w, r, &obs); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	res, err := h.ingestor.ObserveDischarge(r.Context(), obs)
	if err != nil {
		var invalid *ingest.InvalidReportError
		if errors.As(err, &invalid) && len(invalid.Fields) > 0 {
			rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, invalid.Error(),
				map[string]interface{}{"fields": invalid.Fields})
			return
		}
		h.writeIngestError(rw, err)
		return
	}

	out := models.DischargeResponse{}
	if res != nil {
		alert := res.Alert
		out = models.DischargeResponse{Triggered: true, Change: res.Change, Alert: &alert}
	}
	rw.Accepted(out)
}
