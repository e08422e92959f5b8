// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package alerts

import (
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/geo"
)

var (
	// ErrNotFound is returned for an unknown alert id.
	ErrNotFound = errors.New("alert not found")

	// ErrInvalidTransition is returned when a status change would move
	// an alert backwards.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Severity ranks an alert's urgency.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from 1 (low) to 4 (critical); unknown is 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// SeverityFromConfidence maps a detector confidence to a severity.
func SeverityFromConfidence(confidence float64) Severity {
	switch {
	case confidence >= 0.85:
		return SeverityCritical
	case confidence >= 0.6:
		return SeverityHigh
	case confidence >= 0.35:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Status is an alert's lifecycle state.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
)

// Open reports whether the status still counts toward the one-open-alert rule.
func (s Status) Open() bool {
	return s == StatusActive || s == StatusAcknowledged
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusAcknowledged || s == StatusResolved
}

// Alert is the canonical, correlator-owned hazard record.
type Alert struct {
	ID           string          `json:"id"`
	Kind         detection.Kind  `json:"kind"`
	Severity     Severity        `json:"severity"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	VesselID     string          `json:"vesselId,omitempty"`
	Counterpart  string          `json:"counterpart,omitempty"`
	// Counterparts is every vessel paired with this one while the alert
	// has been open, sorted.
	Counterparts []string        `json:"counterparts,omitempty"`
	Position     *geo.Point      `json:"position,omitempty"`
	Confidence   float64         `json:"confidence"`
	Evidence     json.RawMessage `json:"evidence,omitempty"`
	Status       Status          `json:"status"`
	Detections   int             `json:"detections"`

	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DetectedAt     time.Time  `json:"detectedAt"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

func (a *Alert) clone() Alert {
	c := *a
	if a.Position != nil {
		p := *a.Position
		c.Position = &p
	}
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		c.AcknowledgedAt = &t
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	c.Counterparts = append([]string(nil), a.Counterparts...)
	c.Evidence = append(json.RawMessage(nil), a.Evidence...)
	return c
}

// Change names what happened to an alert.
type Change string

const (
	ChangeCreated      Change = "created"
	ChangeRefreshed    Change = "refreshed"
	ChangeEscalated    Change = "escalated"
	ChangeAcknowledged Change = "acknowledged"
	ChangeResolved     Change = "resolved"
)

// NewOrEscalated reports whether the change must be announced.
func (c Change) NewOrEscalated() bool {
	return c == ChangeCreated || c == ChangeEscalated
}

// Event is one entry of the alert change stream.
type Event struct {
	Change Change    `json:"change"`
	Alert  Alert     `json:"alert"`
	At     time.Time `json:"at"`
}

// Filter selects alerts for List. Zero fields match everything.
type Filter struct {
	Kind     detection.Kind
	Severity Severity
	Status   Status
	VesselID string

	// Query is a case-insensitive substring matched against title,
	// description and vessel id.
	Query string

	// OpenOnly restricts to active and acknowledged alerts.
	OpenOnly bool

	Limit int
}

// Statistics summarises the alert set.
type Statistics struct {
	ActiveAlerts     int `json:"activeAlerts"`
	OilSpillRisks    int `json:"oilSpillRisks"`
	Last24hIncidents int `json:"last24hIncidents"`
	TotalAlerts      int `json:"totalAlerts"`

	BySeverity map[Severity]int       `json:"bySeverity"`
	ByKind     map[detection.Kind]int `json:"byKind"`
}

// VesselStatus is the display status derived from a vessel's open alerts.
type VesselStatus string

const (
	VesselNormal  VesselStatus = "normal"
	VesselWarning VesselStatus = "warning"
	VesselDanger  VesselStatus = "danger"
)
