// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package detection

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/geo"
)

// LoiteringConfig holds loitering thresholds.
type LoiteringConfig struct {
	// WindowMinutes is the trailing window of history examined.
	WindowMinutes float64 `json:"window_minutes"`

	// RadiusMeters bounds every sample's distance from the window centroid.
	RadiusMeters float64 `json:"radius_meters"`

	// MaxAvgSpeedKnots is the average reported speed below which the
	// vessel counts as stationary.
	MaxAvgSpeedKnots float64 `json:"max_avg_speed_knots"`

	// MinSamples is the minimum number of samples in the window.
	MinSamples int `json:"min_samples"`

	// MinSpanMinutes is how long the vessel must have been observed
	// inside the window, first to last sample.
	MinSpanMinutes float64 `json:"min_span_minutes"`
}

// DefaultLoiteringConfig returns the default thresholds.
func DefaultLoiteringConfig() LoiteringConfig {
	return LoiteringConfig{
		WindowMinutes:    30,
		RadiusMeters:     500,
		MaxAvgSpeedKnots: 1,
		MinSamples:       5,
		MinSpanMinutes:   25,
	}
}

// Validate checks the thresholds for consistency.
func (c LoiteringConfig) Validate() error {
	if c.WindowMinutes <= 0 {
		return fmt.Errorf("window_minutes must be positive")
	}
	if c.RadiusMeters <= 0 {
		return fmt.Errorf("radius_meters must be positive")
	}
	if c.MaxAvgSpeedKnots <= 0 {
		return fmt.Errorf("max_avg_speed_knots must be positive")
	}
	if c.MinSamples < 2 {
		return fmt.Errorf("min_samples must be at least 2")
	}
	if c.MinSpanMinutes < 0 || c.MinSpanMinutes > c.WindowMinutes {
		return fmt.Errorf("min_span_minutes must be within [0,window_minutes]")
	}
	return nil
}

// LoiteringEvidence is attached to loitering candidates.
type LoiteringEvidence struct {
	Centroid          geo.Point `json:"centroid"`
	Samples           int       `json:"samples"`
	SpanMinutes       float64   `json:"span_minutes"`
	MaxDistanceMeters float64   `json:"max_distance_meters"`
	AvgSpeedKnots     float64   `json:"avg_speed_knots"`
	WindowStart       time.Time `json:"window_start"`
	WindowEnd         time.Time `json:"window_end"`
}

// LoiteringDetector flags vessels holding position at low speed.
type LoiteringDetector struct {
	config  LoiteringConfig
	enabled bool
	mu      sync.RWMutex
}

// NewLoiteringDetector creates a loitering detector with default thresholds.
func NewLoiteringDetector() *LoiteringDetector {
	return &LoiteringDetector{
		config:  DefaultLoiteringConfig(),
		enabled: true,
	}
}

// Name returns the detector name.
func (d *LoiteringDetector) Name() string { return "loitering" }

// Kind returns the alert kind produced.
func (d *LoiteringDetector) Kind() Kind { return KindLoitering }

// Evaluate checks the trailing window of the track's history.
func (d *LoiteringDetector) Evaluate(in Input) []Candidate {
	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	latest, ok := in.Track.Latest()
	if !ok {
		return nil
	}
	window := time.Duration(config.WindowMinutes * float64(time.Minute))
	samples := in.Track.Since(latest.At.Add(-window))
	if len(samples) < config.MinSamples {
		return nil
	}

	span := samples[len(samples)-1].At.Sub(samples[0].At)
	if span.Minutes() < config.MinSpanMinutes {
		return nil
	}

	points := make([]geo.Point, len(samples))
	var speedSum float64
	for i, s := range samples {
		points[i] = s.Position
		speedSum += s.SpeedKnots
	}
	avgSpeed := speedSum / float64(len(samples))
	if avgSpeed >= config.MaxAvgSpeedKnots {
		return nil
	}

	centroid := geo.Centroid(points)
	var maxDist float64
	for _, p := range points {
		maxDist = math.Max(maxDist, geo.DistanceKm(centroid, p)*1000)
	}
	if maxDist > config.RadiusMeters {
		return nil
	}

	confidence := 0.3 +
		0.25*(1-maxDist/config.RadiusMeters) +
		0.25*(1-avgSpeed/config.MaxAvgSpeedKnots)

	evidence := LoiteringEvidence{
		Centroid:          centroid,
		Samples:           len(samples),
		SpanMinutes:       round2(span.Minutes()),
		MaxDistanceMeters: round2(maxDist),
		AvgSpeedKnots:     round2(avgSpeed),
		WindowStart:       samples[0].At,
		WindowEnd:         latest.At,
	}

	return []Candidate{{
		VesselID:   in.Track.ID,
		Kind:       KindLoitering,
		Confidence: clamp01(confidence),
		Title:      fmt.Sprintf("Loitering: %s", in.Track.ID),
		Description: fmt.Sprintf(
			"Vessel %s has stayed within %.0f m for %.0f min at an average of %.1f kn",
			in.Track.ID, maxDist, span.Minutes(), avgSpeed,
		),
		Evidence:   marshalEvidence(evidence),
		Position:   pointPtr(centroid),
		DetectedAt: latest.At,
	}}
}

// Configure updates the detector configuration.
func (d *LoiteringDetector) Configure(raw json.RawMessage) error {
	var config LoiteringConfig
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
func (d *LoiteringDetector) SetConfig(config LoiteringConfig) {
	d.mu.Lock()
	d.config = config
	d.mu.Unlock()
}

// Config returns the current configuration.
func (d *LoiteringDetector) Config() LoiteringConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Settings returns the current configuration for display.
func (d *LoiteringDetector) Settings() interface{} { return d.Config() }

// Enabled returns whether this detector is enabled.
func (d *LoiteringDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *LoiteringDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
