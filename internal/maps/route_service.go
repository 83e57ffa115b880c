package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"carpool/internal/types"
)

// RouteService fetches driving polylines from the Directions API. It
// implements the engine's routing capability.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(client *maps.Client) *RouteService {
	return &RouteService{client: client}
}

// Route returns the waypoints a driver would pass driving from origin to
// destination, ending at the destination itself. No route found is reported
// as an empty slice with a nil error; callers treat it as "skip this driver
// for now".
func (s *RouteService) Route(ctx context.Context, origin, destination types.Point) ([]types.Point, error) {
	r := &maps.DirectionsRequest{
		Origin:      latLng(origin),
		Destination: latLng(destination),
		Mode:        maps.TravelModeDriving,
	}
	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 {
		return nil, nil
	}

	var points []types.Point
	for _, leg := range routes[0].Legs {
		for _, step := range leg.Steps {
			points = append(points, types.Point{
				Lat: step.StartLocation.Lat,
				Lng: step.StartLocation.Lng,
			})
		}
	}
	points = append(points, destination)
	return points, nil
}

func latLng(p types.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
