package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_SamePoint(t *testing.T) {
	p := Point{Lat: 12.9716, Lon: 77.5946}
	assert.Equal(t, 0.0, DistanceKm(p, p))
}

func TestDistanceKm_OneDegreeLon(t *testing.T) {
	// One degree of longitude at the equator is ~111 km.
	d := DistanceKm(Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: 1})
	assert.InDelta(t, 111.19, d, 0.5)
}

func TestWithinZone_AtCenter(t *testing.T) {
	center := Point{Lat: 28.6139, Lon: 77.2090}

	assert.True(t, WithinZone(&center, center, 0))
	assert.True(t, WithinZone(&center, center, 0.5))
}

func TestWithinZone_BeyondRadius(t *testing.T) {
	// ~111 km apart, radius half a km.
	p := Point{Lat: 0, Lon: 0}
	assert.False(t, WithinZone(&p, Point{Lat: 0, Lon: 1}, 0.5))
}

func TestWithinZone_JustInside(t *testing.T) {
	center := Point{Lat: 0, Lon: 0}
	near := Point{Lat: 0.001, Lon: 0} // ~111 m north

	assert.True(t, WithinZone(&near, center, 0.5))
	assert.False(t, WithinZone(&near, center, 0.1))
}

func TestWithinZone_NilPointFailsClosed(t *testing.T) {
	assert.False(t, WithinZone(nil, Point{Lat: 0, Lon: 0}, 100))
}

func TestZone_Contains(t *testing.T) {
	z := Zone{Center: Point{Lat: 0, Lon: 0}, RadiusKm: 0.5}

	inside := Point{Lat: 0, Lon: 0}
	outside := Point{Lat: 0, Lon: 1}

	assert.True(t, z.Contains(&inside))
	assert.False(t, z.Contains(&outside))
	assert.False(t, z.Contains(nil))
}
