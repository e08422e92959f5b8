// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package tracking

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/tidewatch/internal/geo"
	"github.com/tomtom215/tidewatch/internal/metrics"
)

// record is the store-owned mutable form of a track.
type record struct {
	track VesselTrack // History is left nil; samples live in hist
	hist  *history
}

func (r *record) snapshot() VesselTrack {
	t := r.track
	t.History = r.hist.slice()
	return t
}

// Option configures a Store.
type Option func(*Store)

// WithHistoryCapacity sets the number of samples kept per vessel.
func WithHistoryCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithGridCellKm sets the spatial index cell size.
func WithGridCellKm(km float64) Option {
	return func(s *Store) {
		s.grid = newGrid(km)
	}
}

// Store holds one VesselTrack per vessel id.
//
// Upsert takes the write lock for the whole record update, so readers never
// observe a partially written track. Get, SnapshotAll and Neighbors take
// the read lock and return deep copies.
type Store struct {
	mu       sync.RWMutex
	records  map[string]*record
	grid     *grid
	capacity int
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		records:  make(map[string]*record),
		grid:     newGrid(25),
		capacity: DefaultHistoryCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the per-vessel history capacity.
func (s *Store) Capacity() int {
	return s.capacity
}

// Upsert applies report to its vessel's track, creating the track on the
// first report. It returns a copy of the updated track.
//
// Reports with out-of-range fields fail with ErrInvalidReport and reports
// older than the track's LastReportAt fail with ErrStaleReport; in both
// cases the store is unchanged and, for stale reports, the current track
// is returned alongside the error.
//
// Upsert panics if report.VesselID is empty.
func (s *Store) Upsert(report Report) (VesselTrack, error) {
	if report.VesselID == "" {
		panic("tracking: Upsert called with empty vessel id")
	}
	if err := report.check(); err != nil {
		return VesselTrack{}, err
	}

	course := geo.NormalizeDegrees(report.CourseDegrees)
	heading := geo.NormalizeDegrees(report.HeadingDegrees)
	pos := report.Position()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[report.VesselID]
	if exists && report.Timestamp.Before(rec.track.LastReportAt) {
		return rec.snapshot(), ErrStaleReport
	}
	if !exists {
		rec = &record{
			track: VesselTrack{ID: report.VesselID, FirstSeenAt: report.Timestamp},
			hist:  newHistory(s.capacity),
		}
		s.records[report.VesselID] = rec
		metrics.TrackedVessels.Set(float64(len(s.records)))
	}

	t := &rec.track
	t.Position = pos
	t.SpeedKnots = report.SpeedKnots
	t.CourseDegrees = course
	t.HeadingDegrees = heading
	t.LastReportAt = report.Timestamp
	t.ReportCount++
	if report.Name != "" {
		t.Name = report.Name
	}
	if report.Classification != "" {
		t.Classification = report.Classification
	}

	rec.hist.push(Sample{
		Position:       pos,
		SpeedKnots:     report.SpeedKnots,
		CourseDegrees:  course,
		HeadingDegrees: heading,
		At:             report.Timestamp,
	})
	s.grid.move(report.VesselID, pos)

	return rec.snapshot(), nil
}

// Get returns a copy of the vessel's track.
func (s *Store) Get(vesselID string) (VesselTrack, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[vesselID]
	if !ok {
		return VesselTrack{}, false
	}
	return rec.snapshot(), true
}

// SnapshotAll returns a point-in-time copy of every track, ordered by id.
func (s *Store) SnapshotAll() []VesselTrack {
	s.mu.RLock()
	out := make([]VesselTrack, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Neighbors returns copies of every other vessel within radiusKm of the
// current position of vesselID, taken under a single read lock so the
// set is one consistent point-in-time view. Ordered by id.
func (s *Store) Neighbors(vesselID string, radiusKm float64) []VesselTrack {
	s.mu.RLock()
	rec, ok := s.records[vesselID]
	if !ok {
		s.mu.RUnlock()
		return nil
	}
	center := rec.track.Position

	var out []VesselTrack
	for _, id := range s.grid.candidates(center, radiusKm) {
		if id == vesselID {
			continue
		}
		other := s.records[id]
		if other == nil || geo.DistanceKm(center, other.track.Position) > radiusKm {
			continue
		}
		out = append(out, other.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of tracked vessels.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Silent returns the vessels whose last report is older than period at now.
// Silent vessels are reported, never removed.
func (s *Store) Silent(now time.Time, period time.Duration) []VesselTrack {
	cutoff := now.Add(-period)

	s.mu.RLock()
	var out []VesselTrack
	for _, rec := range s.records {
		if rec.track.LastReportAt.Before(cutoff) {
			out = append(out, rec.snapshot())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].LastReportAt.Before(out[j].LastReportAt) })
	return out
}
