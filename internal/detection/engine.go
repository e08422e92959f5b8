// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/metrics"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

// ErrUnknownDetector is returned by the admin operations for an
// unregistered detector name.
var ErrUnknownDetector = errors.New("unknown detector")

// DetectorStats tracks individual detector activity.
type DetectorStats struct {
	Evaluations     int64      `json:"evaluations"`
	Candidates      int64      `json:"candidates"`
	LastTriggeredAt *time.Time `json:"lastTriggeredAt,omitempty"`
}

// DetectorInfo describes a registered detector for the admin API.
type DetectorInfo struct {
	Name     string        `json:"name"`
	Kind     Kind          `json:"kind"`
	Enabled  bool          `json:"enabled"`
	Settings interface{}   `json:"settings"`
	Stats    DetectorStats `json:"stats"`
}

// Engine runs the registered detectors against vessel tracks.
type Engine struct {
	tracks    TrackSource
	detectors []Detector
	discharge *DischargeDetector
	rules     map[string]Rule
	mu        sync.RWMutex

	stats   map[string]*DetectorStats
	statsMu sync.Mutex
}

// NewEngine creates an engine with no detectors. tracks supplies
// neighbours for NeighborAware detectors and positions for discharge
// observations that carry none.
func NewEngine(tracks TrackSource) *Engine {
	return &Engine{
		tracks: tracks,
		rules:  make(map[string]Rule),
		stats:  make(map[string]*DetectorStats),
	}
}

// NewDefaultEngine creates an engine with every built-in detector.
func NewDefaultEngine(tracks TrackSource, zones ZoneLookup) *Engine {
	e := NewEngine(tracks)
	e.RegisterDetector(NewCollisionDetector())
	e.RegisterDetector(NewLoiteringDetector())
	e.RegisterDetector(NewGroundingDetector(zones))
	e.RegisterDetector(NewAnomalyDetector())
	e.SetDischargeDetector(NewDischargeDetector())
	return e
}

// RegisterDetector adds a track detector. Detectors run in registration
// order; registering a name twice replaces the earlier detector.
func (e *Engine) RegisterDetector(detector Detector) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := detector.Name()
	if _, exists := e.rules[name]; exists {
		for i, d := range e.detectors {
			if d.Name() == name {
				e.detectors = append(e.detectors[:i], e.detectors[i+1:]...)
				break
			}
		}
	}
	e.detectors = append(e.detectors, detector)
	e.rules[name] = detector
	e.initStats(name)

	logging.Info().Str("detector", name).Str("kind", string(detector.Kind())).Msg("registered detector")
}

// SetDischargeDetector installs the discharge observation rule.
func (e *Engine) SetDischargeDetector(detector *DischargeDetector) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.discharge = detector
	e.rules[detector.Name()] = detector
	e.initStats(detector.Name())
}

func (e *Engine) initStats(name string) {
	e.statsMu.Lock()
	e.stats[name] = &DetectorStats{}
	e.statsMu.Unlock()
}

// getEnabledDetectors returns the enabled track detectors.
func (e *Engine) getEnabledDetectors() []Detector {
	e.mu.RLock()
	defer e.mu.RUnlock()

	detectors := make([]Detector, 0, len(e.detectors))
	for _, d := range e.detectors {
		if d.Enabled() {
			detectors = append(detectors, d)
		}
	}
	return detectors
}

// Evaluate runs every enabled detector against track. Candidates with the
// same kind, vessel and counterpart are emitted once. It panics when the
// track has no id.
func (e *Engine) Evaluate(ctx context.Context, track tracking.VesselTrack) []Candidate {
	if track.ID == "" {
		panic("detection: evaluate called with empty vessel id")
	}

	detectors := e.getEnabledDetectors()
	if len(detectors) == 0 {
		return nil
	}

	in := Input{Track: track}
	var neighborsLoaded bool

	var out []Candidate
	seen := make(map[string]struct{})
	for _, d := range detectors {
		if ctx.Err() != nil {
			break
		}
		if na, ok := d.(NeighborAware); ok && !neighborsLoaded && e.tracks != nil {
			in.Neighbors = e.tracks.Neighbors(track.ID, na.SearchRadiusKm())
			neighborsLoaded = true
		}

		for _, c := range e.runSingleDetector(ctx, d, in) {
			key := c.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// runSingleDetector executes one detector and updates its statistics.
func (e *Engine) runSingleDetector(ctx context.Context, d Detector, in Input) []Candidate {
	start := time.Now()
	candidates := d.Evaluate(in)
	metrics.RecordDetector(d.Name(), time.Since(start), len(candidates), string(d.Kind()))
	e.record(d.Name(), len(candidates))

	if len(candidates) > 0 {
		logging.Ctx(ctx).Debug().
			Str("detector", d.Name()).
			Int("candidates", len(candidates)).
			Msg("detector triggered")
	}
	return candidates
}

func (e *Engine) record(name string, candidates int) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	s, ok := e.stats[name]
	if !ok {
		return
	}
	s.Evaluations++
	if candidates > 0 {
		s.Candidates += int64(candidates)
		now := time.Now()
		s.LastTriggeredAt = &now
	}
}

// EvaluateDischarge runs the discharge rule for an observation. When the
// observation has no position the vessel's last known position is used.
// It returns nil when no discharge detector is installed, it is
// disabled, or the observation is below its confidence floor.
func (e *Engine) EvaluateDischarge(ctx context.Context, vesselID string, obs Observation) *Candidate {
	e.mu.RLock()
	d := e.discharge
	e.mu.RUnlock()
	if d == nil {
		return nil
	}

	if obs.Position == nil && e.tracks != nil {
		if track, ok := e.tracks.Get(vesselID); ok {
			p := track.Position
			obs.Position = &p
		}
	}

	start := time.Now()
	c := d.Evaluate(vesselID, obs)
	n := 0
	if c != nil {
		n = 1
		logging.Ctx(ctx).Debug().Str("source", obs.Source).Float64("confidence", obs.Confidence).Msg("discharge observation accepted")
	}
	metrics.RecordDetector(d.Name(), time.Since(start), n, string(d.Kind()))
	e.record(d.Name(), n)
	return c
}

// GetRule returns a registered rule by name.
func (e *Engine) GetRule(name string) (Rule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rules[name]
	return r, ok
}

// Detectors describes every registered rule, sorted by name.
func (e *Engine) Detectors() []DetectorInfo {
	e.mu.RLock()
	rules := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		rules = append(rules, r)
	}
	e.mu.RUnlock()

	sort.Slice(rules, func(i, j int) bool { return rules[i].Name() < rules[j].Name() })

	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	out := make([]DetectorInfo, 0, len(rules))
	for _, r := range rules {
		info := DetectorInfo{
			Name:     r.Name(),
			Kind:     r.Kind(),
			Enabled:  r.Enabled(),
			Settings: r.Settings(),
		}
		if s, ok := e.stats[r.Name()]; ok {
			info.Stats = *s
			if s.LastTriggeredAt != nil {
				t := *s.LastTriggeredAt
				info.Stats.LastTriggeredAt = &t
			}
		}
		out = append(out, info)
	}
	return out
}

// SetDetectorEnabled enables or disables a rule by name.
func (e *Engine) SetDetectorEnabled(name string, enabled bool) error {
	r, ok := e.GetRule(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDetector, name)
	}
	r.SetEnabled(enabled)
	logging.Info().Str("detector", name).Bool("enabled", enabled).Msg("detector toggled")
	return nil
}

// ConfigureDetector replaces a rule's thresholds from JSON.
func (e *Engine) ConfigureDetector(name string, raw json.RawMessage) error {
	r, ok := e.GetRule(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDetector, name)
	}
	if err := r.Configure(raw); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	logging.Info().Str("detector", name).RawJSON("settings", raw).Msg("detector reconfigured")
	return nil
}
