package geo

import (
	"math"
	"math/rand/v2"
	"testing"
)

var (
	cityHall    = Coordinate{Lat: 37.5665, Lng: 126.9780}
	gwanghwamun = Coordinate{Lat: 37.5759, Lng: 126.9769}
)

func TestDistanceZeroForIdentical(t *testing.T) {
	coords := []Coordinate{
		{},
		cityHall,
		{Lat: -89.9, Lng: 179.9},
	}
	for _, c := range coords {
		if d := DistanceMeters(c, c); d != 0 {
			t.Errorf("DistanceMeters(%v, %v) = %v, want 0", c, c, d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	ab := DistanceMeters(cityHall, gwanghwamun)
	ba := DistanceMeters(gwanghwamun, cityHall)
	if ab != ba {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// City Hall to Gwanghwamun is roughly 1.05km.
	d := DistanceMeters(cityHall, gwanghwamun)
	if d < 1000 || d > 1110 {
		t.Errorf("DistanceMeters = %v, want ~1050", d)
	}
}

func TestDistanceShortRange(t *testing.T) {
	// ~1.11m per 1e-5 degrees of latitude; no catastrophic cancellation
	// at sub-meter scales.
	a := cityHall
	b := Coordinate{Lat: a.Lat + 1e-5, Lng: a.Lng}
	d := DistanceMeters(a, b)
	if d < 1.0 || d > 1.2 {
		t.Errorf("short-range distance = %v, want ~1.11", d)
	}
}

func TestIsWithinRadius(t *testing.T) {
	if !IsWithinRadius(cityHall, cityHall, 0) {
		t.Error("point should be within zero radius of itself")
	}
	if IsWithinRadius(cityHall, gwanghwamun, 500) {
		t.Error("points ~1km apart reported within 500m")
	}
	if !IsWithinRadius(cityHall, gwanghwamun, 2000) {
		t.Error("points ~1km apart reported outside 2km")
	}
}

func TestFuzzStaysWithinRadius(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	const radius = 150.0
	for i := 0; i < 5000; i++ {
		fuzzed := FuzzLocationRand(cityHall, radius, rng)
		if d := DistanceMeters(cityHall, fuzzed); d > radius+1e-6 {
			t.Fatalf("fuzzed point %v is %vm away, exceeds radius %v", fuzzed, d, radius)
		}
	}
}

func TestFuzzUniformByArea(t *testing.T) {
	// For an area-uniform disk sample, half the points fall within
	// r/sqrt(2) of the center and the mean distance is 2r/3. A
	// center-biased (linear) sampler would put half within r/2 and pull
	// the mean to r/2, so these bounds separate the two cleanly.
	rng := rand.New(rand.NewPCG(7, 9))
	const (
		radius = 150.0
		n      = 20000
	)

	var sum float64
	inner := 0
	for i := 0; i < n; i++ {
		d := DistanceMeters(cityHall, FuzzLocationRand(cityHall, radius, rng))
		sum += d
		if d <= radius/math.Sqrt2 {
			inner++
		}
	}

	mean := sum / n
	if mean < radius*0.63 || mean > radius*0.70 {
		t.Errorf("mean fuzz distance = %v, want ~%v (2r/3)", mean, radius*2/3)
	}
	frac := float64(inner) / n
	if frac < 0.47 || frac > 0.53 {
		t.Errorf("fraction within r/sqrt(2) = %v, want ~0.5", frac)
	}
}

func TestRectZoneContains(t *testing.T) {
	zone := RectZone("ZONE_01", "City Hall", 37.5670, 37.5690, 126.9790, 126.9820)

	tests := []struct {
		name string
		c    Coordinate
		want bool
	}{
		{"center", Coordinate{Lat: 37.5680, Lng: 126.9805}, true},
		{"outside south", Coordinate{Lat: 37.5660, Lng: 126.9805}, false},
		{"outside west", Coordinate{Lat: 37.5680, Lng: 126.9780}, false},
		{"far away", Coordinate{Lat: 35.0, Lng: 129.0}, false},
	}
	for _, tt := range tests {
		if got := zone.Contains(tt.c); got != tt.want {
			t.Errorf("%s: Contains(%v) = %v, want %v", tt.name, tt.c, got, tt.want)
		}
	}
}

func TestNewZoneValidation(t *testing.T) {
	if _, err := NewZone("z", "too few", []Coordinate{{}, {}}); err == nil {
		t.Error("expected error for polygon with fewer than 3 vertices")
	}

	// Triangle zone: inside and outside the hypotenuse.
	tri, err := NewZone("z", "triangle", []Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 0},
	})
	if err != nil {
		t.Fatalf("NewZone: %v", err)
	}
	if !tri.Contains(Coordinate{Lat: 0.2, Lng: 0.2}) {
		t.Error("point inside triangle reported outside")
	}
	if tri.Contains(Coordinate{Lat: 0.8, Lng: 0.8}) {
		t.Error("point beyond hypotenuse reported inside")
	}
}
