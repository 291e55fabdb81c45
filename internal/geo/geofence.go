package geo

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Zone is a circular geofence around a center point.
type Zone struct {
	Center   Point
	RadiusKm float64
}

// DistanceKm returns the Haversine distance between two points in km.
func DistanceKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// WithinZone reports whether p lies inside the circle of radiusKm around
// center. A nil point fails closed: missing location data is a normal
// rejection, not an error.
func WithinZone(p *Point, center Point, radiusKm float64) bool {
	if p == nil || radiusKm < 0 {
		return false
	}
	return DistanceKm(*p, center) <= radiusKm
}

// Contains reports whether the zone contains p.
func (z Zone) Contains(p *Point) bool {
	return WithinZone(p, z.Center, z.RadiusKm)
}
