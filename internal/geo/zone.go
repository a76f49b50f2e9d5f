package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Zone is a contested territory polygon. Membership is a planar ray-cast
// against the ring, which is accurate for the small (sub-kilometer) zones
// the game uses.
type Zone struct {
	ID   string
	Name string
	ring orb.Ring
}

// NewZone builds a zone from at least three vertices. The ring is closed
// automatically when the caller leaves it open.
func NewZone(id, name string, vertices []Coordinate) (*Zone, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("zone %s: need at least 3 vertices, got %d", id, len(vertices))
	}

	ring := make(orb.Ring, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	return &Zone{ID: id, Name: name, ring: ring}, nil
}

// RectZone builds an axis-aligned rectangular zone. The demo zone ships as
// a rectangle; arbitrary polygons go through NewZone.
func RectZone(id, name string, minLat, maxLat, minLng, maxLng float64) *Zone {
	z, _ := NewZone(id, name, []Coordinate{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: maxLng},
		{Lat: maxLat, Lng: maxLng},
		{Lat: maxLat, Lng: minLng},
	})
	return z
}

// Contains reports whether c lies inside the zone (boundary inclusive).
func (z *Zone) Contains(c Coordinate) bool {
	return planar.RingContains(z.ring, orb.Point{c.Lng, c.Lat})
}
