// README: Synthetic pipeline scenarios with deterministic capability fakes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carpool/internal/config"
	"carpool/internal/modules/assign"
	"carpool/internal/modules/compat"
	"carpool/internal/modules/geo"
	"carpool/internal/modules/pickup"
	"carpool/internal/modules/rides"
	"carpool/internal/modules/schedule"
	"carpool/internal/types"
)

type Result struct {
	Name    string
	OK      bool
	Latency time.Duration
	Note    string
}

// straightRouter returns the direct two-point line as the driving route.
type straightRouter struct{}

func (straightRouter) Route(_ context.Context, origin, destination types.Point) ([]types.Point, error) {
	return []types.Point{origin, destination}, nil
}

// identitySnapper pretends every point already lies on a road.
type identitySnapper struct{}

func (identitySnapper) Snap(_ context.Context, p types.Point) (types.Point, error) { return p, nil }

// speedTravel estimates durations from straight-line distance at 40 km/h.
type speedTravel struct{}

func (speedTravel) TravelTime(_ context.Context, from, to types.Point) (time.Duration, error) {
	return time.Duration(geo.HaversineMeters(from, to)/11.1) * time.Second, nil
}

// hashEmbedder gives every distinct genre a stable orthogonal-ish vector.
type hashEmbedder struct{}

func (hashEmbedder) EmbedGenres(_ context.Context, genres []string) ([]float64, error) {
	vec := make([]float64, 8)
	for _, g := range genres {
		h := 0
		for _, c := range g {
			h = h*31 + int(c)
		}
		vec[(h%8+8)%8] += 1
	}
	return vec, nil
}

func newService() *rides.Service {
	logger := slog.New(slog.DiscardHandler)
	cfg := config.LoadEngine()
	provider := geo.NewProvider(straightRouter{}, geo.NewMemoryPairCache(), logger, cfg.Workers, 0)
	scorer := compat.NewScorer(hashEmbedder{}, logger)
	engine := assign.NewEngine(provider, scorer, logger, cfg)
	resolver := pickup.NewResolver(provider, identitySnapper{}, logger, cfg)
	scheduler := schedule.NewScheduler(speedTravel{}, logger, cfg.StopDuration, cfg.ProviderTimeout)
	return rides.NewService(engine, resolver, scheduler, logger, cfg)
}

func RunAll(ctx context.Context) []Result {
	cases := []struct {
		name string
		run  func(ctx context.Context) (string, error)
	}{
		{"single driver, three on-route passengers", runLinearScenario},
		{"promotion from zero drivers", runPromotionScenario},
		{"outlier clustering and placement", runOutlierScenario},
	}

	var results []Result
	for _, tc := range cases {
		start := time.Now()
		note, err := tc.run(ctx)
		r := Result{Name: tc.name, OK: err == nil, Latency: time.Since(start), Note: note}
		if err != nil {
			r.Note = err.Error()
		}
		results = append(results, r)
	}
	return results
}

func entry(id int64, driver bool, lat, lng float64, seats int) rides.Entry {
	radius := 10.0
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	e := rides.Entry{
		ID:           id,
		Driver:       driver,
		PickupLat:    &lat,
		PickupLong:   &lng,
		PickupRadius: &radius,
		User:         rides.User{ID: id, PreferredGenres: []rides.Genre{{ID: 1, Name: "rock"}}},
		Event: rides.Event{
			ID: 1, Latitude: 0, Longitude: 0.2, StartDateTime: &start,
		},
	}
	if driver {
		e.Vehicle = &rides.Vehicle{ID: id, MaxPassengers: seats}
	}
	return e
}

func runLinearScenario(ctx context.Context) (string, error) {
	svc := newService()
	entries := []rides.Entry{
		entry(1, true, 0, 0, 4),
		entry(2, false, 0, 0.05, 0),
		entry(3, false, 0, 0.10, 0),
		entry(4, false, 0, 0.15, 0),
	}
	out, err := svc.AssignUsers(ctx, entries, nil)
	if err != nil {
		return "", err
	}
	assigned := 0
	for _, e := range out {
		if e.Outlier {
			return "", fmt.Errorf("unexpected outlier %d", e.ID)
		}
		if e.DriverID != nil {
			assigned++
		}
	}
	return fmt.Sprintf("assigned=%d", assigned), nil
}

func runPromotionScenario(ctx context.Context) (string, error) {
	svc := newService()
	candidate := entry(1, false, 0, 0, 0)
	candidate.CanBeDriver = true
	candidate.Vehicle = &rides.Vehicle{ID: 1, MaxPassengers: 3}
	entries := []rides.Entry{
		candidate,
		entry(2, false, 0.001, 0.001, 0),
	}
	out, err := svc.AssignUsers(ctx, entries, nil)
	if err != nil {
		return "", err
	}
	for _, e := range out {
		if e.ID == 1 && !e.Driver {
			return "", fmt.Errorf("candidate was not promoted")
		}
		if e.Outlier {
			return "", fmt.Errorf("unexpected outlier %d", e.ID)
		}
	}
	return "promoted=1", nil
}

func runOutlierScenario(ctx context.Context) (string, error) {
	svc := newService()
	far1 := entry(2, false, 0.5, 0.5, 0) // beyond the 10 km pickup radius
	far2 := entry(3, false, 0.501, 0.5, 0)
	entries := []rides.Entry{
		entry(1, true, 0, 0, 4),
		far1,
		far2,
	}
	out, err := svc.AssignUsers(ctx, entries, nil)
	if err != nil {
		return "", err
	}
	placed := 0
	for _, e := range out {
		if e.DriverID != nil {
			placed++
		}
	}
	return fmt.Sprintf("placed=%d of 2 outliers", placed), nil
}
