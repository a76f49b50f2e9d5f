// Package geo provides the coordinate math used by the race engine:
// great-circle distances, privacy fuzzing, and zone membership.
package geo

import "math"

// earthRadiusMeters is the mean earth radius used for all great-circle math.
const earthRadiusMeters = 6371e3

// Coordinate is a WGS-84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMeters returns the haversine great-circle distance between two
// coordinates. The haversine form stays numerically stable for the short
// urban-scale distances the engine works with.
func DistanceMeters(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// IsWithinRadius reports whether b lies within radiusMeters of a.
func IsWithinRadius(a, b Coordinate, radiusMeters float64) bool {
	return DistanceMeters(a, b) <= radiusMeters
}
