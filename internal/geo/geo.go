// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package geo

import (
	"math"
	"time"
)

const (
	// EarthRadiusKm is the mean Earth radius.
	EarthRadiusKm = 6371.0

	// KmPerKnotHour converts knots to km/h.
	KmPerKnotHour = 1.852

	kmPerDegree = EarthRadiusKm * math.Pi / 180
)

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Valid reports whether p is a finite coordinate within ±90/±180.
func (p Point) Valid() bool {
	return ValidCoordinates(p.Lat, p.Lon)
}

// ValidCoordinates reports whether lat/lon are finite and in range.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Destination returns the point reached from p after distKm on an initial
// great-circle bearing of courseDeg.
func Destination(p Point, courseDeg, distKm float64) Point {
	lat1 := toRad(p.Lat)
	lon1 := toRad(p.Lon)
	brg := toRad(courseDeg)
	ang := distKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(math.Sin(brg)*math.Sin(ang)*math.Cos(lat1), math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2))

	return Point{Lat: toDeg(lat2), Lon: NormalizeLongitude(toDeg(lon2))}
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// NormalizeLongitude maps any longitude into [-180, 180].
func NormalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	l := math.Mod(lon+180, 360)
	if l < 0 {
		l += 360
	}
	return l - 180
}

// AngleDelta returns the signed smallest rotation from -> to, in (-180, 180].
func AngleDelta(from, to float64) float64 {
	d := NormalizeDegrees(to - from)
	if d > 180 {
		d -= 360
	}
	return d
}

// Centroid returns the arithmetic mean of points. Adequate for the small
// clusters examined by loitering detection; zero Point for empty input.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return Point{Lat: lat / n, Lon: lon / n}
}

// Motion is a position with a velocity over ground.
type Motion struct {
	Position   Point
	SpeedKnots float64
	CourseDeg  float64
}

// Approach describes the projected closest point of approach between two
// vessels moving on straight lines at constant speed.
type Approach struct {
	// RangeKm is the current separation.
	RangeKm float64
	// CPAKm is the minimum projected separation.
	CPAKm float64
	// TimeToCPA is zero when the vessels are not closing.
	TimeToCPA time.Duration
	// Closing is true when the separation is currently decreasing.
	Closing bool
}

// ClosestApproach projects a and b linearly on a local tangent plane
// centred on a. The plane approximation holds for the tens of kilometres
// collision screening works with.
func ClosestApproach(a, b Motion) Approach {
	cosLat := math.Cos(toRad(a.Position.Lat))
	rx := NormalizeLongitude(b.Position.Lon-a.Position.Lon) * cosLat * kmPerDegree
	ry := (b.Position.Lat - a.Position.Lat) * kmPerDegree

	ax, ay := velocity(a)
	bx, by := velocity(b)
	vx, vy := bx-ax, by-ay

	rng := math.Hypot(rx, ry)
	vv := vx*vx + vy*vy
	if vv < 1e-9 {
		return Approach{RangeKm: rng, CPAKm: rng}
	}

	tHours := -(rx*vx + ry*vy) / vv
	if tHours <= 0 {
		return Approach{RangeKm: rng, CPAKm: rng}
	}

	cx := rx + vx*tHours
	cy := ry + vy*tHours
	return Approach{
		RangeKm:   rng,
		CPAKm:     math.Hypot(cx, cy),
		TimeToCPA: time.Duration(tHours * float64(time.Hour)),
		Closing:   true,
	}
}

// velocity returns the east/north components in km/h.
func velocity(m Motion) (float64, float64) {
	v := m.SpeedKnots * KmPerKnotHour
	c := toRad(m.CourseDeg)
	return v * math.Sin(c), v * math.Cos(c)
}
