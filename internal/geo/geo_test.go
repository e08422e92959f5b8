// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package geo

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestDistanceKm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{"same point", Point{10, 70}, Point{10, 70}, 0, 1e-9},
		{"one degree latitude", Point{0, 0}, Point{1, 0}, 111.195, 0.01},
		{"0.2 deg longitude at 10N", Point{10, 70}, Point{10, 70.2}, 21.90, 0.02},
		{"across antimeridian", Point{0, 179.9}, Point{0, -179.9}, 22.239, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DistanceKm(tt.a, tt.b); !almostEqual(got, tt.want, tt.tol) {
				t.Errorf("DistanceKm() = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestDestinationRoundTrip(t *testing.T) {
	t.Parallel()

	start := Point{Lat: 10, Lon: 70}
	for _, course := range []float64{0, 45, 90, 180, 270, 333} {
		dst := Destination(start, course, 5)
		if d := DistanceKm(start, dst); !almostEqual(d, 5, 1e-6) {
			t.Errorf("course %v: distance = %.6f, want 5", course, d)
		}
	}
}

func TestValidCoordinates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, tt := range tests {
		if got := ValidCoordinates(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}

func TestAngleDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to, want float64
	}{
		{10, 20, 10},
		{350, 10, 20},
		{10, 350, -20},
		{0, 180, 180},
		{90, 90, 0},
	}
	for _, tt := range tests {
		if got := AngleDelta(tt.from, tt.to); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("AngleDelta(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := NormalizeDegrees(-90); got != 270 {
		t.Errorf("NormalizeDegrees(-90) = %v", got)
	}
	if got := NormalizeDegrees(720); got != 0 {
		t.Errorf("NormalizeDegrees(720) = %v", got)
	}
	if got := NormalizeLongitude(190); !almostEqual(got, -170, 1e-9) {
		t.Errorf("NormalizeLongitude(190) = %v", got)
	}
}

func TestClosestApproachHeadOn(t *testing.T) {
	t.Parallel()

	a := Motion{Position: Point{10, 70}, SpeedKnots: 15, CourseDeg: 90}
	b := Motion{Position: Point{10, 70.2}, SpeedKnots: 15, CourseDeg: 270}

	got := ClosestApproach(a, b)
	if !got.Closing {
		t.Fatal("expected closing vessels")
	}
	if got.CPAKm > 0.01 {
		t.Errorf("CPAKm = %.4f, want ~0", got.CPAKm)
	}
	want := 23*time.Minute + 39*time.Second
	if diff := got.TimeToCPA - want; diff < -30*time.Second || diff > 30*time.Second {
		t.Errorf("TimeToCPA = %v, want ~%v", got.TimeToCPA, want)
	}
	if !almostEqual(got.RangeKm, 21.90, 0.05) {
		t.Errorf("RangeKm = %.3f, want ~21.9", got.RangeKm)
	}
}

func TestClosestApproachSymmetric(t *testing.T) {
	t.Parallel()

	a := Motion{Position: Point{10, 70}, SpeedKnots: 12, CourseDeg: 45}
	b := Motion{Position: Point{10.05, 70.08}, SpeedKnots: 9, CourseDeg: 200}

	ab := ClosestApproach(a, b)
	ba := ClosestApproach(b, a)
	if !almostEqual(ab.CPAKm, ba.CPAKm, 0.01) {
		t.Errorf("CPA not symmetric: %.4f vs %.4f", ab.CPAKm, ba.CPAKm)
	}
}

func TestClosestApproachNotClosing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Motion
	}{
		{
			name: "diverging",
			a:    Motion{Position: Point{10, 70}, SpeedKnots: 15, CourseDeg: 270},
			b:    Motion{Position: Point{10, 70.1}, SpeedKnots: 15, CourseDeg: 90},
		},
		{
			name: "parallel same speed",
			a:    Motion{Position: Point{10, 70}, SpeedKnots: 10, CourseDeg: 0},
			b:    Motion{Position: Point{10, 70.01}, SpeedKnots: 10, CourseDeg: 0},
		},
		{
			name: "both stationary",
			a:    Motion{Position: Point{10, 70}},
			b:    Motion{Position: Point{10, 70.001}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ClosestApproach(tt.a, tt.b)
			if got.Closing {
				t.Error("expected not closing")
			}
			if got.TimeToCPA != 0 {
				t.Errorf("TimeToCPA = %v, want 0", got.TimeToCPA)
			}
			if !almostEqual(got.CPAKm, got.RangeKm, 1e-9) {
				t.Errorf("CPAKm %.4f should equal RangeKm %.4f", got.CPAKm, got.RangeKm)
			}
		})
	}
}

func TestCentroid(t *testing.T) {
	t.Parallel()

	c := Centroid([]Point{{0, 0}, {2, 2}})
	if c.Lat != 1 || c.Lon != 1 {
		t.Errorf("Centroid = %+v", c)
	}
	if (Centroid(nil) != Point{}) {
		t.Error("Centroid(nil) should be zero")
	}
}
