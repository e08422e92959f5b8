// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package detection

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/geo"
)

// GroundingConfig holds grounding thresholds.
type GroundingConfig struct {
	// FromSpeedKnots is the speed the vessel must have been making.
	FromSpeedKnots float64 `json:"from_speed_knots"`

	// StopSpeedKnots is the speed that counts as stopped.
	StopSpeedKnots float64 `json:"stop_speed_knots"`
}

// DefaultGroundingConfig returns the default thresholds.
func DefaultGroundingConfig() GroundingConfig {
	return GroundingConfig{
		FromSpeedKnots: 5,
		StopSpeedKnots: 0.5,
	}
}

// Validate checks the thresholds for consistency.
func (c GroundingConfig) Validate() error {
	if c.StopSpeedKnots < 0 {
		return fmt.Errorf("stop_speed_knots cannot be negative")
	}
	if c.StopSpeedKnots >= c.FromSpeedKnots {
		return fmt.Errorf("stop_speed_knots must be below from_speed_knots")
	}
	return nil
}

// GroundingEvidence is attached to grounding candidates.
type GroundingEvidence struct {
	Zone            string    `json:"zone,omitempty"`
	Position        geo.Point `json:"position"`
	FromSpeedKnots  float64   `json:"from_speed_knots"`
	ToSpeedKnots    float64   `json:"to_speed_knots"`
	IntervalSeconds float64   `json:"interval_seconds"`
}

// GroundingDetector flags a vessel that stops abruptly inside a
// restricted or shallow-water zone.
type GroundingDetector struct {
	config  GroundingConfig
	zones   ZoneLookup
	enabled bool
	mu      sync.RWMutex
}

// NewGroundingDetector creates a grounding detector. A nil zone lookup
// disables detection since no position is ever in a zone.
func NewGroundingDetector(zones ZoneLookup) *GroundingDetector {
	return &GroundingDetector{
		config:  DefaultGroundingConfig(),
		zones:   zones,
		enabled: true,
	}
}

// Name returns the detector name.
func (d *GroundingDetector) Name() string { return "grounding" }

// Kind returns the alert kind produced.
func (d *GroundingDetector) Kind() Kind { return KindGrounding }

// Evaluate compares the two most recent samples.
func (d *GroundingDetector) Evaluate(in Input) []Candidate {
	d.mu.RLock()
	config := d.config
	zones := d.zones
	d.mu.RUnlock()

	if zones == nil {
		return nil
	}
	n := len(in.Track.History)
	if n < 2 {
		return nil
	}
	prev, cur := in.Track.History[n-2], in.Track.History[n-1]
	if prev.SpeedKnots <= config.FromSpeedKnots || cur.SpeedKnots >= config.StopSpeedKnots {
		return nil
	}
	if !zones.IsInRestrictedZone(cur.Position) {
		return nil
	}

	var zone string
	if namer, ok := zones.(zoneNamer); ok {
		zone, _ = namer.ZoneAt(cur.Position)
	}

	drop := prev.SpeedKnots - cur.SpeedKnots
	evidence := GroundingEvidence{
		Zone:            zone,
		Position:        cur.Position,
		FromSpeedKnots:  prev.SpeedKnots,
		ToSpeedKnots:    cur.SpeedKnots,
		IntervalSeconds: round2(cur.At.Sub(prev.At).Seconds()),
	}

	where := "a restricted zone"
	if zone != "" {
		where = zone
	}

	return []Candidate{{
		VesselID:   in.Track.ID,
		Kind:       KindGrounding,
		Confidence: clamp01(0.6 + 0.02*drop),
		Title:      fmt.Sprintf("Possible grounding: %s", in.Track.ID),
		Description: fmt.Sprintf(
			"Vessel %s dropped from %.1f kn to %.1f kn inside %s",
			in.Track.ID, prev.SpeedKnots, cur.SpeedKnots, where,
		),
		Evidence:   marshalEvidence(evidence),
		Position:   pointPtr(cur.Position),
		DetectedAt: cur.At,
	}}
}

// Configure updates the detector configuration.
func (d *GroundingDetector) Configure(raw json.RawMessage) error {
	var config GroundingConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	d.SetConfig(config)
	return nil
}

// SetConfig replaces the thresholds without validation.
func (d *GroundingDetector) SetConfig(config GroundingConfig) {
	d.mu.Lock()
	d.config = config
	d.mu.Unlock()
}

// SetZones replaces the zone lookup.
func (d *GroundingDetector) SetZones(zones ZoneLookup) {
	d.mu.Lock()
	d.zones = zones
	d.mu.Unlock()
}

// Config returns the current configuration.
func (d *GroundingDetector) Config() GroundingConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Settings returns the current configuration for display.
func (d *GroundingDetector) Settings() interface{} { return d.Config() }

// Enabled returns whether this detector is enabled.
func (d *GroundingDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *GroundingDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
