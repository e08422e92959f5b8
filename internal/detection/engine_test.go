// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package detection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/tracking"
)

// stubDetector emits a fixed candidate list.
type stubDetector struct {
	name    string
	emit    []Candidate
	enabled bool
	calls   int
	seen    Input
}

func (s *stubDetector) Name() string { return s.name }
func (s *stubDetector) Kind() Kind { return KindAnomaly }
func (s *stubDetector) Enabled() bool { return s.enabled }
func (s *stubDetector) SetEnabled(enabled bool) { s.enabled = enabled }
func (s *stubDetector) Configure(json.RawMessage) error { return nil }
func (s *stubDetector) Settings() interface{} { return nil }
func (s *stubDetector) Evaluate(in Input) []Candidate {
	s.calls++
	s.seen = in
	return s.emit
}

func TestEngineEvaluateHeadOn(t *testing.T) {
	t.Parallel()

	s := tracking.NewStore()
	e := NewDefaultEngine(s, nil)
	ctx := context.Background()

	v1 := upsert(t, s, rep("V1", 10.0, 70.0, 15, 90, t0))
	if got := e.Evaluate(ctx, v1); len(got) != 0 {
		t.Fatalf("lone vessel produced %d candidates", len(got))
	}
	v2 := upsert(t, s, rep("V2", 10.0, 70.2, 15, 270, t0))

	got := e.Evaluate(ctx, v2)
	if len(got) != 1 || got[0].Kind != KindCollisionRisk {
		t.Fatalf("candidates = %+v, want one collision_risk", got)
	}
	reverse := e.Evaluate(ctx, v1)
	if len(reverse) != 1 || reverse[0].Key() != got[0].Key() {
		t.Fatalf("reverse candidates = %+v", reverse)
	}
}

func TestEngineLoiteringScenario(t *testing.T) {
	t.Parallel()

	s := tracking.NewStore()
	e := NewDefaultEngine(s, nil)

	var all []Candidate
	for _, tr := range loiterTrack(t, s) {
		all = append(all, e.Evaluate(context.Background(), tr)...)
	}
	if len(all) != 1 || all[0].Kind != KindLoitering {
		t.Fatalf("candidates = %+v, want exactly one loitering", all)
	}
}

func TestEngineDeduplicatesAcrossDetectors(t *testing.T) {
	t.Parallel()

	c := Candidate{VesselID: "A", Kind: KindAnomaly}
	a := &stubDetector{name: "a", enabled: true, emit: []Candidate{c}}
	b := &stubDetector{name: "b", enabled: true, emit: []Candidate{c, c}}

	e := NewEngine(nil)
	e.RegisterDetector(a)
	e.RegisterDetector(b)

	got := e.Evaluate(context.Background(), tracking.VesselTrack{ID: "A"})
	if len(got) != 1 {
		t.Errorf("got %d candidates, want 1", len(got))
	}
}

func TestEngineSkipsDisabled(t *testing.T) {
	t.Parallel()

	on := &stubDetector{name: "on", enabled: true}
	off := &stubDetector{name: "off", enabled: false}

	e := NewEngine(nil)
	e.RegisterDetector(on)
	e.RegisterDetector(off)
	e.Evaluate(context.Background(), tracking.VesselTrack{ID: "A"})

	if on.calls != 1 || off.calls != 0 {
		t.Errorf("calls on=%d off=%d, want 1/0", on.calls, off.calls)
	}
}

func TestEngineNeighborsOnlyForNeighborAware(t *testing.T) {
	t.Parallel()

	s := tracking.NewStore()
	a := upsert(t, s, rep("A", 10.0, 70.0, 1, 0, t0))
	upsert(t, s, rep("B", 10.0, 70.01, 1, 0, t0))

	plain := &stubDetector{name: "plain", enabled: true}
	e := NewEngine(s)
	e.RegisterDetector(plain)
	e.Evaluate(context.Background(), a)
	if plain.seen.Neighbors != nil {
		t.Errorf("plain detector received neighbours: %v", plain.seen.Neighbors)
	}
}

func TestEngineEmptyIDPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewEngine(nil).Evaluate(context.Background(), tracking.VesselTrack{})
}

func TestEngineRegisterReplaces(t *testing.T) {
	t.Parallel()

	first := &stubDetector{name: "dup", enabled: true}
	second := &stubDetector{name: "dup", enabled: true}

	e := NewEngine(nil)
	e.RegisterDetector(first)
	e.RegisterDetector(second)
	e.Evaluate(context.Background(), tracking.VesselTrack{ID: "A"})

	if first.calls != 0 || second.calls != 1 {
		t.Errorf("calls first=%d second=%d, want 0/1", first.calls, second.calls)
	}
}

func TestEngineStats(t *testing.T) {
	t.Parallel()

	hit := &stubDetector{name: "hit", enabled: true, emit: []Candidate{{VesselID: "A", Kind: KindAnomaly}}}
	e := NewEngine(nil)
	e.RegisterDetector(hit)
	e.Evaluate(context.Background(), tracking.VesselTrack{ID: "A"})
	e.Evaluate(context.Background(), tracking.VesselTrack{ID: "A"})

	infos := e.Detectors()
	if len(infos) != 1 {
		t.Fatalf("Detectors() = %+v", infos)
	}
	st := infos[0].Stats
	if st.Evaluations != 2 || st.Candidates != 2 || st.LastTriggeredAt == nil {
		t.Errorf("Stats = %+v", st)
	}
}

func TestEngineAdmin(t *testing.T) {
	t.Parallel()

	e := NewDefaultEngine(tracking.NewStore(), nil)

	names := make([]string, 0)
	for _, info := range e.Detectors() {
		names = append(names, info.Name)
	}
	want := []string{"anomaly", "collision", "discharge", "grounding", "loitering"}
	if len(names) != len(want) {
		t.Fatalf("Detectors() names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if err := e.SetDetectorEnabled("nope", false); !errors.Is(err, ErrUnknownDetector) {
		t.Errorf("SetDetectorEnabled(unknown) error = %v", err)
	}
	if err := e.ConfigureDetector("nope", json.RawMessage(`{}`)); !errors.Is(err, ErrUnknownDetector) {
		t.Errorf("ConfigureDetector(unknown) error = %v", err)
	}
	if err := e.ConfigureDetector("collision", json.RawMessage(`{"search_radius_km":-1}`)); err == nil {
		t.Error("ConfigureDetector accepted invalid settings")
	}

	if err := e.ConfigureDetector("collision", json.RawMessage(`{"search_radius_km":5,"cpa_threshold_km":0.5,"horizon_minutes":10}`)); err != nil {
		t.Fatalf("ConfigureDetector() error = %v", err)
	}
	r, _ := e.GetRule("collision")
	if got := r.Settings().(CollisionConfig); got.SearchRadiusKm != 5 {
		t.Errorf("settings = %+v", got)
	}

	if err := e.SetDetectorEnabled("loitering", false); err != nil {
		t.Fatalf("SetDetectorEnabled() error = %v", err)
	}
	for _, info := range e.Detectors() {
		if info.Name == "loitering" && info.Enabled {
			t.Error("loitering still enabled")
		}
	}
}

func TestEngineEvaluateDischargeFillsPosition(t *testing.T) {
	t.Parallel()

	s := tracking.NewStore()
	upsert(t, s, rep("V7", 12.5, 71.5, 6, 0, t0))
	e := NewDefaultEngine(s, nil)

	c := e.EvaluateDischarge(context.Background(), "V7", Observation{
		VesselID:   "V7",
		Confidence: 0.7,
		Source:     "sentinel-1",
		ObservedAt: t0.Add(time.Minute),
	})
	if c == nil {
		t.Fatal("expected candidate")
	}
	if c.Position == nil || c.Position.Lat != 12.5 || c.Position.Lon != 71.5 {
		t.Errorf("Position = %v, want track position", c.Position)
	}

	if c := e.EvaluateDischarge(context.Background(), "V7", Observation{Confidence: 0.05, Source: "x", ObservedAt: t0}); c != nil {
		t.Errorf("low-confidence observation produced %+v", c)
	}
	if c := NewEngine(s).EvaluateDischarge(context.Background(), "V7", Observation{Confidence: 1}); c != nil {
		t.Error("engine without discharge detector produced a candidate")
	}
}
