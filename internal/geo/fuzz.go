package geo

import (
	"math"
	"math/rand/v2"
)

// DefaultFuzzRadiusMeters is the privacy safe-zone radius applied before a
// position leaves the device.
const DefaultFuzzRadiusMeters = 150

// FuzzLocation returns a coordinate uniformly distributed by area within a
// disk of the given radius around p. The offset is computed on the sphere,
// not with a flat-earth approximation, so it holds up at any latitude.
func FuzzLocation(p Coordinate, radiusMeters float64) Coordinate {
	return fuzz(p, radiusMeters, rand.Float64)
}

// FuzzLocationRand is FuzzLocation with a caller-supplied random source.
func FuzzLocationRand(p Coordinate, radiusMeters float64, rng *rand.Rand) Coordinate {
	return fuzz(p, radiusMeters, rng.Float64)
}

func fuzz(p Coordinate, radiusMeters float64, uniform func() float64) Coordinate {
	// sqrt keeps the distribution uniform by area rather than clustered at
	// the center.
	r := radiusMeters * math.Sqrt(uniform())
	theta := uniform() * 2 * math.Pi

	angular := r / earthRadiusMeters
	latRad := p.Lat * math.Pi / 180
	lngRad := p.Lng * math.Pi / 180

	newLatRad := math.Asin(math.Sin(latRad)*math.Cos(angular) +
		math.Cos(latRad)*math.Sin(angular)*math.Cos(theta))
	newLngRad := lngRad + math.Atan2(
		math.Sin(theta)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(newLatRad))

	return Coordinate{
		Lat: newLatRad * 180 / math.Pi,
		Lng: newLngRad * 180 / math.Pi,
	}
}
