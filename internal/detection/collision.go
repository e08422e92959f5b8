// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package detection

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/geo"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

// CollisionConfig holds collision-risk thresholds.
type CollisionConfig struct {
	// SearchRadiusKm bounds the neighbour scan.
	SearchRadiusKm float64 `json:"search_radius_km"`

	// CPAThresholdKm is the closest-approach distance that counts as a risk.
	CPAThresholdKm float64 `json:"cpa_threshold_km"`

	// HorizonMinutes bounds how far ahead the projection looks.
	HorizonMinutes float64 `json:"horizon_minutes"`
}

// DefaultCollisionConfig returns the default thresholds.
func DefaultCollisionConfig() CollisionConfig {
	return CollisionConfig{
		SearchRadiusKm: 25,
		CPAThresholdKm: 1,
		HorizonMinutes: 30,
	}
}

// Validate checks the thresholds for consistency.
func (c CollisionConfig) Validate() error {
	if c.SearchRadiusKm <= 0 {
		return fmt.Errorf("search_radius_km must be positive")
	}
	if c.CPAThresholdKm <= 0 || c.CPAThresholdKm > c.SearchRadiusKm {
		return fmt.Errorf("cpa_threshold_km must be positive and not exceed search_radius_km")
	}
	if c.HorizonMinutes <= 0 {
		return fmt.Errorf("horizon_minutes must be positive")
	}
	return nil
}

// CollisionEvidence is attached to collision-risk candidates.
type CollisionEvidence struct {
	VesselA          string    `json:"vessel_a"`
	VesselB          string    `json:"vessel_b"`
	PositionA        geo.Point `json:"position_a"`
	PositionB        geo.Point `json:"position_b"`
	SpeedA           float64   `json:"speed_a_knots"`
	SpeedB           float64   `json:"speed_b_knots"`
	CourseA          float64   `json:"course_a"`
	CourseB          float64   `json:"course_b"`
	RangeKm          float64   `json:"range_km"`
	CPAKm            float64   `json:"cpa_km"`
	TimeToCPAMinutes float64   `json:"time_to_cpa_minutes"`
}

// CollisionDetector flags pairs of vessels on a closing course whose
// projected closest point of approach falls under a threshold.
type CollisionDetector struct {
	config  CollisionConfig
	enabled bool
	mu      sync.RWMutex
}

// NewCollisionDetector creates a collision detector with default thresholds.
func NewCollisionDetector() *CollisionDetector {
	return &CollisionDetector{
		config:  DefaultCollisionConfig(),
		enabled: true,
	}
}

// Name returns the detector name.
func (d *CollisionDetector) Name() string { return "collision" }

// Kind returns the alert kind produced.
func (d *CollisionDetector) Kind() Kind { return KindCollisionRisk }

// SearchRadiusKm returns the neighbour radius the engine should query.
func (d *CollisionDetector) SearchRadiusKm() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config.SearchRadiusKm
}

// Evaluate returns one candidate per qualifying neighbour. The pair is
// canonicalised so that (A,B) and (B,A) produce the same candidate.
func (d *CollisionDetector) Evaluate(in Input) []Candidate {
	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	own := in.Track
	horizon := time.Duration(config.HorizonMinutes * float64(time.Minute))

	var out []Candidate
	seen := make(map[string]struct{}, len(in.Neighbors))
	for i := range in.Neighbors {
		other := &in.Neighbors[i]
		if other.ID == own.ID {
			continue
		}
		if _, dup := seen[other.ID]; dup {
			continue
		}
		seen[other.ID] = struct{}{}

		approach := geo.ClosestApproach(own.Motion(), other.Motion())
		if approach.RangeKm > config.SearchRadiusKm {
			continue
		}
		if !approach.Closing || approach.CPAKm >= config.CPAThresholdKm || approach.TimeToCPA > horizon {
			continue
		}
		out = append(out, d.candidate(config, &own, other, approach, horizon))
	}
	return out
}

func (d *CollisionDetector) candidate(config CollisionConfig, own, other *tracking.VesselTrack, ap geo.Approach, horizon time.Duration) Candidate {
	a, b := own, other
	if b.ID < a.ID {
		a, b = b, a
	}

	confidence := 0.6*(1-ap.CPAKm/config.CPAThresholdKm) +
		0.4*(1-ap.TimeToCPA.Seconds()/horizon.Seconds())

	evidence := CollisionEvidence{
		VesselA:          a.ID,
		VesselB:          b.ID,
		PositionA:        a.Position,
		PositionB:        b.Position,
		SpeedA:           a.SpeedKnots,
		SpeedB:           b.SpeedKnots,
		CourseA:          a.CourseDegrees,
		CourseB:          b.CourseDegrees,
		RangeKm:          round2(ap.RangeKm),
		CPAKm:            round2(ap.CPAKm),
		TimeToCPAMinutes: round2(ap.TimeToCPA.Minutes()),
	}

	detectedAt := own.LastReportAt
	if other.LastReportAt.After(detectedAt) {
		detectedAt = other.LastReportAt
	}

	return Candidate{
		VesselID:   a.ID,
		Kind:       KindCollisionRisk,
		Confidence: clamp01(confidence),
		Title:      fmt.Sprintf("Collision risk: %s / %s", a.ID, b.ID),
		Description: fmt.Sprintf(
			"Vessels %s and %s are %.2f km apart on closing courses; projected CPA %.2f km in %.1f min",
			a.ID, b.ID, ap.RangeKm, ap.CPAKm, ap.TimeToCPA.Minutes(),
		),
		Evidence:    marshalEvidence(evidence),
		Position:    pointPtr(a.Position),
		DetectedAt:  detectedAt,
		Counterpart: b.ID,
	}
}

// Configure updates the detector configuration.
func (d *CollisionDetector) Configure(raw json.RawMessage) error {
	var config CollisionConfig
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
func (d *CollisionDetector) SetConfig(config CollisionConfig) {
	d.mu.Lock()
	d.config = config
	d.mu.Unlock()
}

// Config returns the current configuration.
func (d *CollisionDetector) Config() CollisionConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Settings returns the current configuration for display.
func (d *CollisionDetector) Settings() interface{} { return d.Config() }

// Enabled returns whether this detector is enabled.
func (d *CollisionDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *CollisionDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
