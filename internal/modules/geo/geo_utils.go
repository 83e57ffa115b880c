// Package geo — geo_utils contains pure geographic computation helpers.
package geo

import (
	"math"

	"carpool/internal/types"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// HaversineMeters is HaversineKm in metres, the unit used by the distance
// matrix and the coverage/walking thresholds.
func HaversineMeters(a, b types.Point) float64 {
	return HaversineKm(a, b) * 1000
}

// ClosestPointOnRoute projects p onto the nearest segment of the route and
// returns the projected point. Projection is perpendicular and clamped to
// the segment ends, so points lying between waypoints are still matched.
// An empty route returns p unchanged.
func ClosestPointOnRoute(p types.Point, route []types.Point) types.Point {
	if len(route) == 0 {
		return p
	}
	best := route[0]
	bestKm := HaversineKm(p, best)

	for i := 0; i+1 < len(route); i++ {
		cand := projectOnSegment(p, route[i], route[i+1])
		if d := HaversineKm(p, cand); d < bestKm {
			bestKm = d
			best = cand
		}
	}
	return best
}

// PointToRouteKm returns the minimum distance in kilometres from p to any
// segment of the route. Returns +Inf for an empty route.
func PointToRouteKm(p types.Point, route []types.Point) float64 {
	if len(route) == 0 {
		return math.Inf(1)
	}
	return HaversineKm(p, ClosestPointOnRoute(p, route))
}

// projectOnSegment projects p onto the segment [a, b] in coordinate space,
// clamping the projection parameter to [0, 1]. Working in raw degrees is
// acceptable at pickup-radius scales; distances are then measured with
// haversine.
func projectOnSegment(p, a, b types.Point) types.Point {
	dLat := b.Lat - a.Lat
	dLng := b.Lng - a.Lng
	segLenSq := dLat*dLat + dLng*dLng
	if segLenSq == 0 {
		return a
	}
	t := ((p.Lat-a.Lat)*dLat + (p.Lng-a.Lng)*dLng) / segLenSq
	t = math.Max(0, math.Min(1, t))
	return types.Point{Lat: a.Lat + t*dLat, Lng: a.Lng + t*dLng}
}

// MovePointToward returns the point lying on the straight line from `from`
// to `toward` at exactly maxMeters from `toward`, or `from` unchanged when
// it is already within maxMeters.
func MovePointToward(from, toward types.Point, maxMeters float64) types.Point {
	total := HaversineMeters(from, toward)
	if total <= maxMeters || total == 0 {
		return from
	}
	ratio := maxMeters / total
	return types.Point{
		Lat: toward.Lat + ratio*(from.Lat-toward.Lat),
		Lng: toward.Lng + ratio*(from.Lng-toward.Lng),
	}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
