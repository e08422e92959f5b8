// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package tracking

import (
	"math"

	"github.com/tomtom215/tidewatch/internal/geo"
)

const degreesPerKm = 1 / 111.195

// cellKey identifies one grid cell.
type cellKey struct {
	x, y int
}

// grid is a spatial hash of vessel ids by current position. Lookups cost
// O(k) in the number of vessels in the surrounding cells instead of O(n).
// It has no lock of its own; the Store's mutex guards it.
type grid struct {
	cellDeg float64
	cells   map[cellKey]map[string]struct{}
	where   map[string]cellKey
}

func newGrid(cellKm float64) *grid {
	if cellKm <= 0 {
		cellKm = 25
	}
	return &grid{
		cellDeg: cellKm * degreesPerKm,
		cells:   make(map[cellKey]map[string]struct{}),
		where:   make(map[string]cellKey),
	}
}

func (g *grid) key(p geo.Point) cellKey {
	lon := geo.NormalizeLongitude(p.Lon)
	return cellKey{
		x: int(math.Floor(lon / g.cellDeg)),
		y: int(math.Floor(p.Lat / g.cellDeg)),
	}
}

// move places id in the cell for p, removing it from its previous cell.
func (g *grid) move(id string, p geo.Point) {
	k := g.key(p)
	if old, ok := g.where[id]; ok {
		if old == k {
			return
		}
		g.remove(id)
	}
	cell, ok := g.cells[k]
	if !ok {
		cell = make(map[string]struct{}, 4)
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
	g.where[id] = k
}

func (g *grid) remove(id string) {
	k, ok := g.where[id]
	if !ok {
		return
	}
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
	delete(g.where, id)
}

// candidates returns ids in every cell that may hold a point within
// radiusKm of p. Callers still filter by exact distance.
func (g *grid) candidates(p geo.Point, radiusKm float64) []string {
	radiusDeg := radiusKm * degreesPerKm
	spanY := int(math.Ceil(radiusDeg/g.cellDeg)) + 1

	// Longitude degrees shrink with latitude; widen the scan accordingly.
	cosLat := math.Cos(math.Abs(p.Lat) * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	spanX := int(math.Ceil(radiusDeg/cosLat/g.cellDeg)) + 1
	maxX := int(math.Ceil(360 / g.cellDeg))
	if spanX > maxX {
		spanX = maxX
	}

	center := g.key(p)
	seen := make(map[cellKey]struct{})
	var ids []string
	for dx := -spanX; dx <= spanX; dx++ {
		for dy := -spanY; dy <= spanY; dy++ {
			k := g.wrap(cellKey{x: center.x + dx, y: center.y + dy})
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			for id := range g.cells[k] {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// wrap folds cell columns across the antimeridian.
func (g *grid) wrap(k cellKey) cellKey {
	minX := int(math.Floor(-180 / g.cellDeg))
	maxX := int(math.Floor(180 / g.cellDeg))
	width := maxX - minX + 1
	for k.x < minX {
		k.x += width
	}
	for k.x > maxX {
		k.x -= width
	}
	return k
}
