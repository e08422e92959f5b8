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
)

// Observation is an externally supplied discharge sighting, for example
// a satellite slick correlated to a vessel's track.
type Observation struct {
	VesselID   string     `json:"vesselId" validate:"vesselid"`
	Confidence float64    `json:"confidence" validate:"gte=0,lte=1"`
	Source     string     `json:"source" validate:"required,max=64"`
	Detail     string     `json:"detail,omitempty" validate:"max=500"`
	ObservedAt time.Time  `json:"observedAt" validate:"required"`
	Position   *geo.Point `json:"position,omitempty"`
}

// DischargeConfig holds discharge thresholds.
type DischargeConfig struct {
	// MinConfidence drops observations the source itself doubts.
	MinConfidence float64 `json:"min_confidence"`
}

// DefaultDischargeConfig returns the default thresholds.
func DefaultDischargeConfig() DischargeConfig {
	return DischargeConfig{MinConfidence: 0.2}
}

// Validate checks the thresholds for consistency.
func (c DischargeConfig) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0,1]")
	}
	return nil
}

// DischargeEvidence is attached to discharge candidates.
type DischargeEvidence struct {
	Source     string    `json:"source"`
	Detail     string    `json:"detail,omitempty"`
	Confidence float64   `json:"observation_confidence"`
	ObservedAt time.Time `json:"observed_at"`
}

// DischargeDetector turns discharge observations into candidates. The
// imagery or sensor analysis itself happens upstream.
type DischargeDetector struct {
	config  DischargeConfig
	enabled bool
	mu      sync.RWMutex
}

// NewDischargeDetector creates a discharge detector with default thresholds.
func NewDischargeDetector() *DischargeDetector {
	return &DischargeDetector{
		config:  DefaultDischargeConfig(),
		enabled: true,
	}
}

// Name returns the detector name.
func (d *DischargeDetector) Name() string { return "discharge" }

// Kind returns the alert kind produced.
func (d *DischargeDetector) Kind() Kind { return KindIllegalDischarge }

// Evaluate returns a candidate for obs, or nil when the detector is
// disabled or the observation is below the confidence floor. It panics
// when vesselID is empty.
func (d *DischargeDetector) Evaluate(vesselID string, obs Observation) *Candidate {
	if vesselID == "" {
		panic("detection: discharge evaluation without vessel id")
	}

	d.mu.RLock()
	config := d.config
	enabled := d.enabled
	d.mu.RUnlock()

	if !enabled || obs.Confidence < config.MinConfidence {
		return nil
	}

	evidence := DischargeEvidence{
		Source:     obs.Source,
		Detail:     obs.Detail,
		Confidence: obs.Confidence,
		ObservedAt: obs.ObservedAt,
	}

	desc := fmt.Sprintf("Possible illegal discharge by vessel %s reported by %s", vesselID, obs.Source)
	if obs.Detail != "" {
		desc += ": " + obs.Detail
	}

	c := &Candidate{
		VesselID:    vesselID,
		Kind:        KindIllegalDischarge,
		Confidence:  clamp01(obs.Confidence),
		Title:       fmt.Sprintf("Illegal discharge: %s", vesselID),
		Description: desc,
		Evidence:    marshalEvidence(evidence),
		DetectedAt:  obs.ObservedAt,
	}
	if obs.Position != nil {
		c.Position = pointPtr(*obs.Position)
	}
	return c
}

// Configure updates the detector configuration.
func (d *DischargeDetector) Configure(raw json.RawMessage) error {
	var config DischargeConfig
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
func (d *DischargeDetector) SetConfig(config DischargeConfig) {
	d.mu.Lock()
	d.config = config
	d.mu.Unlock()
}

// Config returns the current configuration.
func (d *DischargeDetector) Config() DischargeConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Settings returns the current configuration for display.
func (d *DischargeDetector) Settings() interface{} { return d.Config() }

// Enabled returns whether this detector is enabled.
func (d *DischargeDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *DischargeDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
