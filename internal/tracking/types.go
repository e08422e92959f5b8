// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package tracking

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/tidewatch/internal/geo"
)

// DefaultHistoryCapacity is the number of samples kept per vessel.
const DefaultHistoryCapacity = 50

var (
	// ErrInvalidReport is returned for out-of-range or malformed reports.
	ErrInvalidReport = errors.New("invalid report")

	// ErrStaleReport is returned when a report is older than the track's last report.
	ErrStaleReport = errors.New("stale report")
)

// Report is one decoded position report.
type Report struct {
	VesselID       string    `json:"vesselId" validate:"vesselid"`
	Name           string    `json:"name,omitempty" validate:"max=120"`
	Latitude       float64   `json:"latitude" validate:"latitude"`
	Longitude      float64   `json:"longitude" validate:"longitude"`
	SpeedKnots     float64   `json:"speedKnots" validate:"gte=0,lte=102.2"`
	CourseDegrees  float64   `json:"courseDegrees" validate:"gte=0,lte=360"`
	HeadingDegrees float64   `json:"headingDegrees" validate:"gte=0,lte=360"`
	Classification string    `json:"classification,omitempty" validate:"max=64"`
	Timestamp      time.Time `json:"timestamp" validate:"required"`
}

// Position returns the report's coordinates.
func (r *Report) Position() geo.Point {
	return geo.Point{Lat: r.Latitude, Lon: r.Longitude}
}

// check enforces the ranges the store relies on.
func (r *Report) check() error {
	if !geo.ValidCoordinates(r.Latitude, r.Longitude) {
		return fmt.Errorf("%w: position (%v, %v) out of range", ErrInvalidReport, r.Latitude, r.Longitude)
	}
	if math.IsNaN(r.SpeedKnots) || math.IsInf(r.SpeedKnots, 0) || r.SpeedKnots < 0 {
		return fmt.Errorf("%w: speed %v knots", ErrInvalidReport, r.SpeedKnots)
	}
	if !finite(r.CourseDegrees) || !finite(r.HeadingDegrees) {
		return fmt.Errorf("%w: course/heading must be finite", ErrInvalidReport)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidReport)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Sample is one entry of a vessel's position history.
type Sample struct {
	Position       geo.Point `json:"position"`
	SpeedKnots     float64   `json:"speedKnots"`
	CourseDegrees  float64   `json:"courseDegrees"`
	HeadingDegrees float64   `json:"headingDegrees"`
	At             time.Time `json:"at"`
}

// Deltas are the kinematic changes between the two most recent samples.
// Valid is false until a track has two samples.
type Deltas struct {
	Valid        bool          `json:"valid"`
	HeadingDelta float64       `json:"headingDelta"`
	CourseDelta  float64       `json:"courseDelta"`
	SpeedDelta   float64       `json:"speedDelta"`
	Interval     time.Duration `json:"interval"`
}

// VesselTrack is the state of one vessel. Values returned by the Store
// are copies and never change underneath the caller.
type VesselTrack struct {
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	Position       geo.Point `json:"position"`
	SpeedKnots     float64   `json:"speedKnots"`
	CourseDegrees  float64   `json:"courseDegrees"`
	HeadingDegrees float64   `json:"headingDegrees"`
	Classification string    `json:"classification,omitempty"`
	LastReportAt   time.Time `json:"lastReportAt"`
	FirstSeenAt    time.Time `json:"firstSeenAt"`
	ReportCount    uint64    `json:"reportCount"`

	// History is oldest-first.
	History []Sample `json:"positionHistory"`
}

// Motion returns the track's current kinematics for CPA projection.
func (t *VesselTrack) Motion() geo.Motion {
	return geo.Motion{Position: t.Position, SpeedKnots: t.SpeedKnots, CourseDeg: t.CourseDegrees}
}

// Latest returns the newest history sample.
func (t *VesselTrack) Latest() (Sample, bool) {
	if len(t.History) == 0 {
		return Sample{}, false
	}
	return t.History[len(t.History)-1], true
}

// Deltas computes heading, course and speed change over the two most
// recent samples.
func (t *VesselTrack) Deltas() Deltas {
	n := len(t.History)
	if n < 2 {
		return Deltas{}
	}
	prev, cur := t.History[n-2], t.History[n-1]
	return Deltas{
		Valid:        true,
		HeadingDelta: geo.AngleDelta(prev.HeadingDegrees, cur.HeadingDegrees),
		CourseDelta:  geo.AngleDelta(prev.CourseDegrees, cur.CourseDegrees),
		SpeedDelta:   cur.SpeedKnots - prev.SpeedKnots,
		Interval:     cur.At.Sub(prev.At),
	}
}

// Since returns the samples taken at or after cutoff, oldest first.
func (t *VesselTrack) Since(cutoff time.Time) []Sample {
	i := len(t.History)
	for i > 0 && !t.History[i-1].At.Before(cutoff) {
		i--
	}
	return t.History[i:]
}

func (t *VesselTrack) clone() VesselTrack {
	c := *t
	c.History = append([]Sample(nil), t.History...)
	return c
}
