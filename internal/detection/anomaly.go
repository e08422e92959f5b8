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

// AnomalyConfig holds position-jump thresholds.
type AnomalyConfig struct {
	// MaxImpliedSpeedKnots is the fastest plausible speed over ground.
	MaxImpliedSpeedKnots float64 `json:"max_implied_speed_knots"`

	// MinJumpKm ignores small jumps caused by GPS noise.
	MinJumpKm float64 `json:"min_jump_km"`
}

// DefaultAnomalyConfig returns the default thresholds.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		MaxImpliedSpeedKnots: 60,
		MinJumpKm:            1,
	}
}

// Validate checks the thresholds for consistency.
func (c AnomalyConfig) Validate() error {
	if c.MaxImpliedSpeedKnots <= 0 {
		return fmt.Errorf("max_implied_speed_knots must be positive")
	}
	if c.MinJumpKm < 0 {
		return fmt.Errorf("min_jump_km cannot be negative")
	}
	return nil
}

// AnomalyEvidence is attached to anomaly candidates. ImpliedSpeedKnots
// is omitted when both samples share a timestamp.
type AnomalyEvidence struct {
	From              geo.Point `json:"from"`
	To                geo.Point `json:"to"`
	JumpKm            float64   `json:"jump_km"`
	IntervalSeconds   float64   `json:"interval_seconds"`
	ImpliedSpeedKnots *float64  `json:"implied_speed_knots,omitempty"`
	ReportedSpeed     float64   `json:"reported_speed_knots"`
}

// AnomalyDetector flags position jumps no vessel could physically make,
// typically a spoofed or corrupted fix.
type AnomalyDetector struct {
	config  AnomalyConfig
	enabled bool
	mu      sync.RWMutex
}

// NewAnomalyDetector creates an anomaly detector with default thresholds.
func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{
		config:  DefaultAnomalyConfig(),
		enabled: true,
	}
}

// Name returns the detector name.
func (d *AnomalyDetector) Name() string { return "anomaly" }

// Kind returns the alert kind produced.
func (d *AnomalyDetector) Kind() Kind { return KindAnomaly }

// Evaluate compares the two most recent samples.
func (d *AnomalyDetector) Evaluate(in Input) []Candidate {
	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	n := len(in.Track.History)
	if n < 2 {
		return nil
	}
	prev, cur := in.Track.History[n-2], in.Track.History[n-1]

	jumpKm := geo.DistanceKm(prev.Position, cur.Position)
	if jumpKm < config.MinJumpKm {
		return nil
	}

	interval := cur.At.Sub(prev.At)
	evidence := AnomalyEvidence{
		From:            prev.Position,
		To:              cur.Position,
		JumpKm:          round2(jumpKm),
		IntervalSeconds: round2(interval.Seconds()),
		ReportedSpeed:   cur.SpeedKnots,
	}

	confidence := 1.0
	speedText := "with no elapsed time"
	if interval > 0 {
		implied := jumpKm / geo.KmPerKnotHour / interval.Hours()
		if implied <= config.MaxImpliedSpeedKnots {
			return nil
		}
		rounded := round2(implied)
		evidence.ImpliedSpeedKnots = &rounded
		confidence = 0.5 + 0.5*(1-config.MaxImpliedSpeedKnots/implied)
		speedText = fmt.Sprintf("implying %.0f kn", implied)
	}

	return []Candidate{{
		VesselID:   in.Track.ID,
		Kind:       KindAnomaly,
		Confidence: clamp01(confidence),
		Title:      fmt.Sprintf("Position jump: %s", in.Track.ID),
		Description: fmt.Sprintf(
			"Vessel %s moved %.1f km in %.0f s, %s",
			in.Track.ID, jumpKm, interval.Seconds(), speedText,
		),
		Evidence:   marshalEvidence(evidence),
		Position:   pointPtr(cur.Position),
		DetectedAt: cur.At,
	}}
}

// Configure updates the detector configuration.
func (d *AnomalyDetector) Configure(raw json.RawMessage) error {
	var config AnomalyConfig
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
func (d *AnomalyDetector) SetConfig(config AnomalyConfig) {
	d.mu.Lock()
	d.config = config
	d.mu.Unlock()
}

// Config returns the current configuration.
func (d *AnomalyDetector) Config() AnomalyConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Settings returns the current configuration for display.
func (d *AnomalyDetector) Settings() interface{} { return d.Config() }

// Enabled returns whether this detector is enabled.
func (d *AnomalyDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *AnomalyDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
