// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package feed

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/tomtom215/tidewatch/internal/geo"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

// Vessel classifications produced by the simulator.
var simClassifications = []string{"Cargo", "Tanker", "Fishing", "Passenger", "Military"}

var (
	simNamePrefix = []string{"Ocean", "Sea", "Marine", "Blue", "Deep"}
	simNameSuffix = []string{"Star", "Wave", "Breeze", "Storm", "Dawn"}
)

const (
	simBaseMMSI     = 100000000
	simPositionJit  = 0.005 // degrees, each way
	simSpeedJit     = 1.0   // knots, each way
	simMaxSpeedKn   = 25.0
	simCenterLat    = 20.0
	simCenterLon    = -80.0
	simLatSpreadDeg = 10.0
	simLonSpreadDeg = 20.0
)

// SimulatorConfig sizes the simulated fleet.
type SimulatorConfig struct {
	Vessels  int
	Interval time.Duration

	// Seed makes the fleet reproducible. Zero picks a random seed.
	Seed int64
}

// DefaultSimulatorConfig returns 25 vessels reporting every 5 seconds.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{Vessels: 25, Interval: 5 * time.Second}
}

type simVessel struct {
	id             string
	name           string
	classification string
	pos            geo.Point
	speed          float64
	course         float64
	heading        float64
}

// Simulator generates a fleet of vessels that drift around the
// Caribbean. Each tick every vessel dead-reckons along its course for
// one interval and then jitters its position and speed.
type Simulator struct {
	cfg SimulatorConfig
	now func() time.Time

	mu      sync.Mutex
	rng     *rand.Rand
	vessels []simVessel
	pending []tracking.Report
	ticked  bool
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSimulatorClock sets the source of report timestamps.
func WithSimulatorClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator creates a fleet from cfg.
func NewSimulator(cfg SimulatorConfig, opts ...SimulatorOption) *Simulator {
	def := DefaultSimulatorConfig()
	if cfg.Vessels <= 0 {
		cfg.Vessels = def.Vessels
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	seed := uint64(cfg.Seed)
	if cfg.Seed == 0 {
		seed = rand.Uint64()
	}

	s := &Simulator{
		cfg: cfg,
		now: time.Now,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.vessels = make([]simVessel, cfg.Vessels)
	for i := range s.vessels {
		course := s.rng.Float64() * 360
		s.vessels[i] = simVessel{
			id:             strconv.Itoa(simBaseMMSI + i),
			name:           fmt.Sprintf("MV %s %s", simNamePrefix[i%len(simNamePrefix)], simNameSuffix[i%len(simNameSuffix)]),
			classification: simClassifications[s.rng.IntN(len(simClassifications))],
			pos: geo.Point{
				Lat: simCenterLat + s.spread(simLatSpreadDeg),
				Lon: simCenterLon + s.spread(simLonSpreadDeg),
			},
			speed:   s.rng.Float64() * simMaxSpeedKn,
			course:  course,
			heading: course,
		}
	}
	return s
}

// spread returns a uniform value in [-half, half).
func (s *Simulator) spread(half float64) float64 {
	return (s.rng.Float64() - 0.5) * 2 * half
}

func (s *Simulator) Name() string { return "simulator" }

// Interval is the time between ticks.
func (s *Simulator) Interval() time.Duration { return s.cfg.Interval }

// Tick advances every vessel by one interval and returns one report per
// vessel stamped at.
func (s *Simulator) Tick(at time.Time) []tracking.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked(at)
}

func (s *Simulator) tickLocked(at time.Time) []tracking.Report {
	hours := s.cfg.Interval.Hours()
	reports := make([]tracking.Report, len(s.vessels))
	for i := range s.vessels {
		v := &s.vessels[i]
		if s.ticked {
			moved := geo.Destination(v.pos, v.course, v.speed*geo.KmPerKnotHour*hours)
			v.pos = geo.Point{
				Lat: clampLat(moved.Lat + s.spread(simPositionJit)),
				Lon: geo.NormalizeLongitude(moved.Lon + s.spread(simPositionJit)),
			}
			v.speed = math.Min(simMaxSpeedKn, math.Max(0, v.speed+s.spread(simSpeedJit)))
		}
		reports[i] = tracking.Report{
			VesselID:       v.id,
			Name:           v.name,
			Latitude:       v.pos.Lat,
			Longitude:      v.pos.Lon,
			SpeedKnots:     v.speed,
			CourseDegrees:  v.course,
			HeadingDegrees: v.heading,
			Classification: v.classification,
			Timestamp:      at,
		}
	}
	s.ticked = true
	return reports
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// Next returns the next vessel's report. The first tick is immediate;
// later ticks wait one interval once the previous tick is drained.
func (s *Simulator) Next(ctx context.Context) (tracking.Report, error) {
	s.mu.Lock()
	if len(s.pending) == 0 && s.ticked {
		s.mu.Unlock()
		timer := time.NewTimer(s.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return tracking.Report{}, ctx.Err()
		case <-timer.C:
		}
		s.mu.Lock()
	}
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return tracking.Report{}, err
	}
	if len(s.pending) == 0 {
		s.pending = s.tickLocked(s.now().UTC())
	}
	r := s.pending[0]
	s.pending = s.pending[1:]
	return r, nil
}
