package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"carpool/internal/types"
)

// RoadsService snaps raw coordinates onto the nearest drivable road via the
// Roads API. It implements the road-snapping capability.
type RoadsService struct {
	client *maps.Client
}

func NewRoadsService(client *maps.Client) *RoadsService {
	return &RoadsService{client: client}
}

// Snap returns the point moved onto the nearest road, or the original point
// when the API returns nothing for it.
func (s *RoadsService) Snap(ctx context.Context, p types.Point) (types.Point, error) {
	resp, err := s.client.SnapToRoad(ctx, &maps.SnapToRoadRequest{
		Path: []maps.LatLng{{Lat: p.Lat, Lng: p.Lng}},
	})
	if err != nil {
		return p, fmt.Errorf("roads api error: %w", err)
	}
	if len(resp.SnappedPoints) == 0 {
		return p, nil
	}
	loc := resp.SnappedPoints[0].Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
