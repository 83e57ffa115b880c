package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"carpool/internal/types"
)

// TravelService estimates driving durations via the Distance Matrix API.
// It implements the scheduler's travel-time capability.
type TravelService struct {
	client *maps.Client
}

func NewTravelService(client *maps.Client) *TravelService {
	return &TravelService{client: client}
}

// TravelTime returns the driving duration from one point to another.
func (s *TravelService) TravelTime(ctx context.Context, from, to types.Point) (time.Duration, error) {
	resp, err := s.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{latLng(from)},
		Destinations: []string{latLng(to)},
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		return 0, fmt.Errorf("distance matrix error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("distance matrix returned no elements")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, fmt.Errorf("distance matrix element status %q", el.Status)
	}
	return el.Duration, nil
}
