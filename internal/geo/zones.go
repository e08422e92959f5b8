// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Zone is a named restricted area (shallow water, coastal exclusion, port
// approach) loaded from reference data.
type Zone struct {
	Name     string
	Geometry orb.Geometry
	bound    orb.Bound
}

// NewZone builds a Zone from a Polygon or MultiPolygon.
func NewZone(name string, g orb.Geometry) (Zone, error) {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return Zone{}, fmt.Errorf("zone %q: unsupported geometry %s", name, g.GeoJSONType())
	}
	return Zone{Name: name, Geometry: g, bound: g.Bound()}, nil
}

// Contains reports whether p lies inside the zone.
func (z Zone) Contains(p Point) bool {
	pt := orb.Point{p.Lon, p.Lat}
	if !z.bound.Contains(pt) {
		return false
	}
	switch g := z.Geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}

// ZoneSet is an immutable collection of restricted zones.
type ZoneSet struct {
	zones []Zone
}

// NewZoneSet returns a set containing zones.
func NewZoneSet(zones ...Zone) *ZoneSet {
	return &ZoneSet{zones: append([]Zone(nil), zones...)}
}

// ParseZones reads a GeoJSON FeatureCollection. Features without polygon
// geometry are skipped; the "name" property labels each zone.
func ParseZones(data []byte) (*ZoneSet, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse zones: %w", err)
	}

	zones := make([]Zone, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		name := f.Properties.MustString("name", fmt.Sprintf("zone-%d", i))
		z, err := NewZone(name, f.Geometry)
		if err != nil {
			continue
		}
		zones = append(zones, z)
	}
	return &ZoneSet{zones: zones}, nil
}

// LoadZonesFile reads restricted zones from a GeoJSON file.
func LoadZonesFile(path string) (*ZoneSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("read zones %s: %w", path, err)
	}
	return ParseZones(data)
}

// Len returns the number of zones.
func (s *ZoneSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.zones)
}

// IsInRestrictedZone reports whether p falls in any zone. A nil set
// contains nothing.
func (s *ZoneSet) IsInRestrictedZone(p Point) bool {
	_, ok := s.ZoneAt(p)
	return ok
}

// ZoneAt returns the name of the first zone containing p.
func (s *ZoneSet) ZoneAt(p Point) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, z := range s.zones {
		if z.Contains(p) {
			return z.Name, true
		}
	}
	return "", false
}
