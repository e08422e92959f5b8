// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/geo"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const shoalZones = `{"type":"FeatureCollection","features":[{"type":"Feature",
"properties":{"name":"Reef Shoal"},"geometry":{"type":"Polygon",
"coordinates":[[[69.9,9.9],[70.1,9.9],[70.1,10.1],[69.9,10.1],[69.9,9.9]]]}}]}`

type recordingNotifier struct {
	mu      sync.Mutex
	results []alerts.Result
}

func (n *recordingNotifier) HandleResult(res alerts.Result) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, res)
	return true
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

type pipeline struct {
	ingestor   *Ingestor
	store      *tracking.Store
	correlator *alerts.Correlator
	notifier   *recordingNotifier
}

func newPipeline(t *testing.T, zones detection.ZoneLookup) *pipeline {
	t.Helper()
	store := tracking.NewStore()
	correlator := alerts.NewCorrelator()
	notifier := &recordingNotifier{}
	engine := detection.NewDefaultEngine(store, zones)
	return &pipeline{
		ingestor:   NewIngestor(store, engine, correlator, notifier),
		store:      store,
		correlator: correlator,
		notifier:   notifier,
	}
}

func (p *pipeline) ingest(t *testing.T, r tracking.Report) Ack {
	t.Helper()
	ack, err := p.ingestor.Ingest(context.Background(), r)
	if err != nil {
		t.Fatalf("Ingest(%s @ %s) error = %v", r.VesselID, r.Timestamp.Format(time.RFC3339), err)
	}
	return ack
}

func (p *pipeline) alertsOfKind(kind detection.Kind) []alerts.Alert {
	return p.correlator.List(alerts.Filter{Kind: kind})
}

func report(id string, lat, lon, speed, course float64, at time.Time) tracking.Report {
	return tracking.Report{
		VesselID:       id,
		Latitude:       lat,
		Longitude:      lon,
		SpeedKnots:     speed,
		CourseDegrees:  course,
		HeadingDegrees: course,
		Timestamp:      at,
	}
}

func TestIngestLoiteringScenario(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	for i := 0; i < 6; i++ {
		// Small drift, well inside 100 m.
		lat := 10.0 + float64(i%2)*0.0003
		p.ingest(t, report("V9", lat, 70.0, 0.3, 10, t0.Add(time.Duration(i)*6*time.Minute)))
	}

	got := p.alertsOfKind(detection.KindLoitering)
	if len(got) != 1 {
		t.Fatalf("got %d loitering alerts, want 1", len(got))
	}
	if got[0].VesselID != "V9" || got[0].Detections != 1 {
		t.Errorf("alert = %+v", got[0])
	}
	if n := len(p.correlator.Snapshot()); n != 1 {
		t.Errorf("total alerts = %d, want 1", n)
	}
}

func TestIngestLoiteringFiveMinuteCadence(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	for i := 0; i < 6; i++ {
		p.ingest(t, report("V1", 10.0, 70.0, 0.2, 0, t0.Add(time.Duration(i)*5*time.Minute)))
	}

	got := p.alertsOfKind(detection.KindLoitering)
	if len(got) != 1 {
		t.Fatalf("got %d loitering alerts, want 1", len(got))
	}
	if got[0].Status != alerts.StatusActive || got[0].Detections != 1 {
		t.Errorf("alert = %+v, want one active detection", got[0])
	}
}

func TestIngestCollisionScenario(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	first := p.ingest(t, report("V1", 10.0, 70.0, 15, 90, t0))
	if len(first.Alerts) != 0 {
		t.Fatalf("lone vessel produced %d alerts", len(first.Alerts))
	}
	second := p.ingest(t, report("V2", 10.0, 70.2, 15, 270, t0))
	if len(second.Alerts) != 1 {
		t.Fatalf("got %d alerts for the pair, want 1", len(second.Alerts))
	}

	got := p.alertsOfKind(detection.KindCollisionRisk)
	if len(got) != 1 {
		t.Fatalf("got %d collision alerts, want 1", len(got))
	}
	a := got[0]
	if a.VesselID != "V1" || a.Counterpart != "V2" {
		t.Errorf("pair = %s/%s, want V1/V2", a.VesselID, a.Counterpart)
	}
	if ch := second.Alerts[0].Change; ch != alerts.ChangeCreated {
		t.Errorf("Change = %s, want created", ch)
	}

	// The next report from V1 refreshes rather than duplicates.
	p.ingest(t, report("V1", 10.0, 70.005, 15, 90, t0.Add(time.Minute)))
	got = p.alertsOfKind(detection.KindCollisionRisk)
	if len(got) != 1 {
		t.Fatalf("after refresh: %d collision alerts, want 1", len(got))
	}
	if got[0].Detections != 2 {
		t.Errorf("Detections = %d, want 2", got[0].Detections)
	}
}

func TestIngestGroundingScenario(t *testing.T) {
	t.Parallel()

	zones, err := geo.ParseZones([]byte(shoalZones))
	if err != nil {
		t.Fatalf("ParseZones() error = %v", err)
	}
	p := newPipeline(t, zones)

	for i, speed := range []float64{12, 0.1, 0.1} {
		p.ingest(t, report("V3", 10.0, 70.0, speed, 45, t0.Add(time.Duration(i)*time.Minute)))
	}

	got := p.alertsOfKind(detection.KindGrounding)
	if len(got) != 1 {
		t.Fatalf("got %d grounding alerts, want 1", len(got))
	}
	if got[0].Detections != 1 {
		t.Errorf("Detections = %d, want 1", got[0].Detections)
	}
}

func TestIngestStaleReport(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	p.ingest(t, report("V4", 10.0, 70.0, 8, 0, t0))

	ack, err := p.ingestor.Ingest(context.Background(), report("V4", 10.5, 70.5, 8, 0, t0.Add(-time.Minute)))
	if err != nil {
		t.Fatalf("stale report error = %v, want nil", err)
	}
	if ack.Outcome != OutcomeStale {
		t.Errorf("Outcome = %s, want stale", ack.Outcome)
	}

	track, ok := p.store.Get("V4")
	if !ok {
		t.Fatal("V4 missing")
	}
	if track.ReportCount != 1 || !track.LastReportAt.Equal(t0) || track.Position.Lat != 10.0 {
		t.Errorf("track changed by stale report: %+v", track)
	}
}

func TestIngestEqualTimestampApplied(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	p.ingest(t, report("V5", 10.0, 70.0, 8, 0, t0))
	ack := p.ingest(t, report("V5", 10.0, 70.0, 9, 0, t0))
	if ack.Outcome != OutcomeApplied {
		t.Errorf("Outcome = %s, want applied", ack.Outcome)
	}
	if !ack.Deltas.Valid || ack.Deltas.SpeedDelta != 1 {
		t.Errorf("Deltas = %+v", ack.Deltas)
	}
}

func TestIngestFullCircleCourse(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	ack := p.ingest(t, report("V6", 10, 70, 5, 360, t0))
	if ack.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied", ack.Outcome)
	}
	if ack.Track.CourseDegrees != 0 || ack.Track.HeadingDegrees != 0 {
		t.Errorf("course/heading = %v/%v, want 360 stored as 0", ack.Track.CourseDegrees, ack.Track.HeadingDegrees)
	}
}

func TestIngestInvalidReports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		report tracking.Report
		field  string
	}{
		{name: "latitude out of range", report: report("V6", 95, 70, 5, 0, t0), field: "Latitude"},
		{name: "longitude out of range", report: report("V6", 10, 181, 5, 0, t0), field: "Longitude"},
		{name: "blank vessel", report: report("  ", 10, 70, 5, 0, t0), field: "VesselID"},
		{name: "negative speed", report: report("V6", 10, 70, -1, 0, t0), field: "SpeedKnots"},
		{name: "missing timestamp", report: report("V6", 10, 70, 5, 0, time.Time{}), field: "Timestamp"},
		{name: "course above 360", report: report("V6", 10, 70, 5, 361, t0), field: "CourseDegrees"},
		{name: "negative heading", report: func() tracking.Report {
			r := report("V6", 10, 70, 5, 0, t0)
			r.HeadingDegrees = -5
			return r
		}(), field: "HeadingDegrees"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newPipeline(t, nil)

			_, err := p.ingestor.Ingest(context.Background(), tt.report)
			if !errors.Is(err, tracking.ErrInvalidReport) {
				t.Fatalf("error = %v, want ErrInvalidReport", err)
			}
			var ire *InvalidReportError
			if !errors.As(err, &ire) {
				t.Fatalf("error %T is not *InvalidReportError", err)
			}
			found := false
			for _, f := range ire.Fields {
				if f.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("fields = %+v, want %s", ire.Fields, tt.field)
			}
			if p.store.Len() != 0 {
				t.Errorf("store has %d vessels after invalid report", p.store.Len())
			}
		})
	}
}

func TestIngestNotifiesEveryCorrelation(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	p.ingest(t, report("V1", 10.0, 70.0, 15, 90, t0))
	p.ingest(t, report("V2", 10.0, 70.2, 15, 270, t0))
	p.ingest(t, report("V2", 10.0, 70.195, 15, 270, t0.Add(time.Minute)))

	if got := p.notifier.count(); got != 2 {
		t.Errorf("notifier saw %d results, want 2", got)
	}
}

func TestObserveDischarge(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	p.ingest(t, report("V7", 11.0, 71.0, 6, 180, t0))

	res, err := p.ingestor.ObserveDischarge(context.Background(), detection.Observation{
		VesselID:   "V7",
		Confidence: 0.9,
		Source:     "sar",
		ObservedAt: t0.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("ObserveDischarge() error = %v", err)
	}
	if res == nil {
		t.Fatal("ObserveDischarge() = nil, want result")
	}
	if res.Alert.Kind != detection.KindIllegalDischarge || res.Alert.Severity != alerts.SeverityCritical {
		t.Errorf("alert = %s/%s", res.Alert.Kind, res.Alert.Severity)
	}
	if res.Alert.Position == nil || res.Alert.Position.Lat != 11.0 {
		t.Errorf("Position = %v, want track position", res.Alert.Position)
	}
	if p.notifier.count() != 1 {
		t.Errorf("notifier saw %d results, want 1", p.notifier.count())
	}

	weak, err := p.ingestor.ObserveDischarge(context.Background(), detection.Observation{
		VesselID:   "V7",
		Confidence: 0.05,
		Source:     "sar",
		ObservedAt: t0.Add(2 * time.Minute),
	})
	if err != nil || weak != nil {
		t.Errorf("weak observation = %v, %v; want nil, nil", weak, err)
	}

	_, err = p.ingestor.ObserveDischarge(context.Background(), detection.Observation{VesselID: "V7", Confidence: 2})
	if !errors.Is(err, tracking.ErrInvalidReport) {
		t.Errorf("invalid observation error = %v", err)
	}
}

func TestIngestConcurrentVessels(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	const vessels, reports = 16, 20

	var wg sync.WaitGroup
	for v := 0; v < vessels; v++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			id := fmt.Sprintf("C%02d", v)
			// Spread vessels far apart so no detector fires.
			lat := -60.0 + float64(v)*7
			for i := 0; i < reports; i++ {
				r := report(id, lat, float64(v)*10, 10, 0, t0.Add(time.Duration(i)*time.Minute))
				r.Latitude += float64(i) * 0.002
				if _, err := p.ingestor.Ingest(context.Background(), r); err != nil {
					t.Errorf("Ingest(%s) error = %v", id, err)
					return
				}
			}
		}(v)
	}
	wg.Wait()

	if p.store.Len() != vessels {
		t.Fatalf("store has %d vessels, want %d", p.store.Len(), vessels)
	}
	for _, tr := range p.store.SnapshotAll() {
		if tr.ReportCount != reports {
			t.Errorf("%s ReportCount = %d, want %d", tr.ID, tr.ReportCount, reports)
		}
	}
}

func TestIngestBatch(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	batch := []tracking.Report{
		report("B1", 10, 70, 5, 0, t0),
		report("B1", 10, 70, 5, 0, t0.Add(-time.Minute)),
		report("B2", 95, 70, 5, 0, t0),
		report("B2", 10, 71, 5, 0, t0),
	}
	applied, stale, invalid, err := p.ingestor.IngestBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}
	if applied != 2 || stale != 1 || invalid != 1 {
		t.Errorf("applied/stale/invalid = %d/%d/%d, want 2/1/1", applied, stale, invalid)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := p.ingestor.IngestBatch(ctx, batch); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled batch error = %v", err)
	}
}
