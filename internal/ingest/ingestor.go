// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package ingest

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/metrics"
	"github.com/tomtom215/tidewatch/internal/tracking"
	"github.com/tomtom215/tidewatch/internal/validation"
)

// lockStripes is the number of per-vessel lock stripes.
const lockStripes = 64

// Outcome is the non-error result of ingesting one report.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeStale   Outcome = "stale"
)

// InvalidReportError describes why a report was rejected. It matches
// tracking.ErrInvalidReport under errors.Is.
type InvalidReportError struct {
	// Fields is set when struct validation failed.
	Fields []validation.FieldError
	Err    error
}

func (e *InvalidReportError) Error() string {
	return "invalid report: " + e.Err.Error()
}

func (e *InvalidReportError) Unwrap() []error {
	return []error{tracking.ErrInvalidReport, e.Err}
}

// Ack is the result of an accepted report.
type Ack struct {
	Outcome Outcome              `json:"outcome"`
	Track   tracking.VesselTrack `json:"-"`
	Deltas  tracking.Deltas      `json:"deltas"`

	// Alerts holds one result per correlated candidate.
	Alerts []alerts.Result `json:"-"`
}

// Notifier receives correlation results for dispatch.
type Notifier interface {
	HandleResult(res alerts.Result) bool
}

// Ingestor runs the report pipeline.
type Ingestor struct {
	store      *tracking.Store
	engine     *detection.Engine
	correlator *alerts.Correlator
	notifier   Notifier

	locks [lockStripes]sync.Mutex
}

// NewIngestor wires the pipeline stages. notifier may be nil.
func NewIngestor(store *tracking.Store, engine *detection.Engine, correlator *alerts.Correlator, notifier Notifier) *Ingestor {
	return &Ingestor{
		store:      store,
		engine:     engine,
		correlator: correlator,
		notifier:   notifier,
	}
}

func (in *Ingestor) lockFor(vesselID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(vesselID))
	return &in.locks[h.Sum32()%lockStripes]
}

// Ingest validates and applies one report. A report older than the
// vessel's last report is dropped and reported as OutcomeStale with a
// nil error; a malformed report returns an *InvalidReportError and
// leaves all state unchanged.
func (in *Ingestor) Ingest(ctx context.Context, report tracking.Report) (Ack, error) {
	start := time.Now()

	if verr := validation.ValidateStruct(report); verr != nil {
		metrics.RecordIngest("invalid", time.Since(start))
		logging.Warn().Str("vessel_id", report.VesselID).Str("reason", verr.Error()).Msg("report rejected")
		return Ack{}, &InvalidReportError{Fields: verr.Fields, Err: verr}
	}

	ctx = logging.ContextWithVesselID(ctx, report.VesselID)
	mu := in.lockFor(report.VesselID)
	mu.Lock()
	defer mu.Unlock()

	track, err := in.store.Upsert(report)
	switch {
	case errors.Is(err, tracking.ErrStaleReport):
		metrics.RecordIngest(string(OutcomeStale), time.Since(start))
		logging.Ctx(ctx).Debug().
			Time("report_at", report.Timestamp).
			Time("last_report_at", track.LastReportAt).
			Msg("stale report dropped")
		return Ack{Outcome: OutcomeStale, Track: track}, nil
	case err != nil:
		metrics.RecordIngest("invalid", time.Since(start))
		logging.Ctx(ctx).Warn().Err(err).Msg("report rejected")
		return Ack{}, &InvalidReportError{Err: err}
	}

	ack := Ack{Outcome: OutcomeApplied, Track: track, Deltas: track.Deltas()}
	if in.engine != nil {
		for _, c := range in.engine.Evaluate(ctx, track) {
			ack.Alerts = append(ack.Alerts, in.correlate(c))
		}
	}

	metrics.RecordIngest(string(OutcomeApplied), time.Since(start))
	return ack, nil
}

// ObserveDischarge feeds an external discharge observation through the
// discharge rule and the correlator. It returns nil when the rule
// produced no candidate.
func (in *Ingestor) ObserveDischarge(ctx context.Context, obs detection.Observation) (*alerts.Result, error) {
	if verr := validation.ValidateStruct(obs); verr != nil {
		return nil, &InvalidReportError{Fields: verr.Fields, Err: verr}
	}
	if in.engine == nil {
		return nil, nil
	}

	ctx = logging.ContextWithVesselID(ctx, obs.VesselID)
	c := in.engine.EvaluateDischarge(ctx, obs.VesselID, obs)
	if c == nil {
		return nil, nil
	}
	res := in.correlate(*c)
	return &res, nil
}

func (in *Ingestor) correlate(c detection.Candidate) alerts.Result {
	res := in.correlator.Correlate(c)
	if in.notifier != nil {
		in.notifier.HandleResult(res)
	}
	return res
}

// IngestBatch ingests reports in order and stops at the first context
// cancellation. Invalid reports are counted and skipped.
func (in *Ingestor) IngestBatch(ctx context.Context, reports []tracking.Report) (applied, stale, invalid int, err error) {
	for i := range reports {
		if ctx.Err() != nil {
			return applied, stale, invalid, fmt.Errorf("batch interrupted after %d reports: %w", i, ctx.Err())
		}
		ack, ierr := in.Ingest(ctx, reports[i])
		switch {
		case ierr != nil:
			invalid++
		case ack.Outcome == OutcomeStale:
			stale++
		default:
			applied++
		}
	}
	return applied, stale, invalid, nil
}
