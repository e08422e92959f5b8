// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package detection

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/geo"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

// Kind identifies the hazard an alert describes.
type Kind string

const (
	KindCollisionRisk    Kind = "collision_risk"
	KindIllegalDischarge Kind = "illegal_discharge"
	KindLoitering        Kind = "loitering"
	KindGrounding        Kind = "grounding"
	KindAnomaly          Kind = "anomaly"
)

// AllKinds lists every alert kind in display order.
var AllKinds = []Kind{
	KindCollisionRisk,
	KindIllegalDischarge,
	KindLoitering,
	KindGrounding,
	KindAnomaly,
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCollisionRisk, KindIllegalDischarge, KindLoitering, KindGrounding, KindAnomaly:
		return true
	}
	return false
}

// Candidate is an unconfirmed hazard signal handed to the correlator.
type Candidate struct {
	VesselID    string          `json:"vesselId"`
	Kind        Kind            `json:"kind"`
	Confidence  float64         `json:"confidence"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Evidence    json.RawMessage `json:"evidence,omitempty"`
	Position    *geo.Point      `json:"position,omitempty"`
	DetectedAt  time.Time       `json:"detectedAt"`

	// Counterpart is the other vessel of a collision pair.
	Counterpart string `json:"counterpart,omitempty"`
}

// Key identifies a candidate for deduplication within one evaluation pass.
func (c *Candidate) Key() string {
	return string(c.Kind) + "|" + c.VesselID + "|" + c.Counterpart
}

// Input is what a track detector sees for one evaluation.
type Input struct {
	Track tracking.VesselTrack

	// Neighbors is only populated for detectors that implement
	// NeighborAware.
	Neighbors []tracking.VesselTrack
}

// Rule is the administrative surface shared by every detector.
type Rule interface {
	// Name is the stable identifier used by the admin API.
	Name() string
	Kind() Kind
	Enabled() bool
	SetEnabled(enabled bool)
	// Configure replaces the rule's thresholds from JSON.
	Configure(raw json.RawMessage) error
	// Settings returns the current thresholds for display.
	Settings() interface{}
}

// Detector evaluates vessel tracks.
type Detector interface {
	Rule
	Evaluate(in Input) []Candidate
}

// NeighborAware detectors need nearby tracks. The engine only queries
// the store for neighbours when an enabled detector asks for them.
type NeighborAware interface {
	SearchRadiusKm() float64
}

// TrackSource is the read side of the vessel store.
type TrackSource interface {
	Get(vesselID string) (tracking.VesselTrack, bool)
	Neighbors(vesselID string, radiusKm float64) []tracking.VesselTrack
	SnapshotAll() []tracking.VesselTrack
}

// ZoneLookup answers restricted-zone membership.
type ZoneLookup interface {
	IsInRestrictedZone(p geo.Point) bool
}

// zoneNamer is implemented by zone sets that can name the matching zone.
type zoneNamer interface {
	ZoneAt(p geo.Point) (string, bool)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func marshalEvidence(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Evidence types are plain structs; this only fails on NaN/Inf.
		return json.RawMessage(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return b
}

func pointPtr(p geo.Point) *geo.Point {
	return &p
}
