// README: Assignment engine; greedy global matching with capacity tracking
// and iterative passenger-to-driver promotion.
package assign

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"carpool/internal/config"
	"carpool/internal/modules/compat"
	"carpool/internal/modules/geo"
	"carpool/internal/types"
)

type Engine struct {
	geo    *geo.Provider
	scorer *compat.Scorer
	log    *slog.Logger
	cfg    config.EngineConfig
}

func NewEngine(provider *geo.Provider, scorer *compat.Scorer, log *slog.Logger, cfg config.EngineConfig) *Engine {
	return &Engine{geo: provider, scorer: scorer, log: log, cfg: cfg}
}

// Result carries the engine output. Passengers hold their DriverID when
// assigned; entries that could not be placed are flagged Outlier and also
// listed in Outliers.
type Result struct {
	Passengers []Ride
	Drivers    []Ride
	Outliers   []Ride
}

// candidate is one scored (passenger, driver) pair. Enumeration order is
// preserved by the stable sort, which fixes tie-breaking.
type candidate struct {
	passengerIdx int
	driverIdx    int
	score        float64
	distMeters   float64
}

// Run executes the convergence loop: score and greedily commit assignments,
// then promote an eligible outlier into a new driver and retry, until every
// passenger is assigned or promotion is exhausted. Each promotion strictly
// shrinks the passenger set, so the loop is bounded by the initial
// passenger count.
func (e *Engine) Run(ctx context.Context, passengers, drivers []Ride, event Event, w compat.Weights) Result {
	passengers = append([]Ride(nil), passengers...)
	drivers = append([]Ride(nil), drivers...)

	maxRounds := len(passengers) + 1
	for round := 0; round < maxRounds; round++ {
		e.matchRound(ctx, passengers, drivers, event, w)

		outliers := unassignedIndexes(passengers)
		if len(outliers) == 0 {
			break
		}
		promoted, rest := e.promote(ctx, passengers, event)
		if promoted == nil {
			break
		}
		e.log.Info("promoted passenger to driver",
			"ride_id", promoted.ID, "drivers", len(drivers)+1, "passengers", len(rest))
		drivers = append(drivers, *promoted)
		passengers = rest
	}

	var outliers []Ride
	for i := range passengers {
		if !passengers[i].Assigned() {
			passengers[i].Outlier = true
			outliers = append(outliers, passengers[i])
		}
	}
	return Result{Passengers: passengers, Drivers: drivers, Outliers: outliers}
}

// matchRound recomputes both matrices for the current sets and greedily
// commits the highest-scoring reachable pairs.
func (e *Engine) matchRound(ctx context.Context, passengers, drivers []Ride, event Event, w compat.Weights) {
	if len(passengers) == 0 || len(drivers) == 0 {
		return
	}

	distMatrix := e.geo.Matrix(ctx, pickupPoints(passengers), radiusPoints(drivers))
	musicMatrix := e.scorer.MusicMatrix(ctx, profiles(passengers), profiles(drivers))
	routes := e.geo.Routes(ctx, pickupPoints(drivers), event.Location)

	var candidates []candidate
	for pi := range passengers {
		if passengers[pi].Assigned() {
			continue
		}
		for di := range drivers {
			if drivers[di].SpareSeats() <= 0 {
				continue
			}
			radiusM := drivers[di].PickupRadiusKm * 1000

			// Straight-line distance first; fall back to the distance from
			// the passenger to the driver's actual route when the direct
			// distance is out of reach.
			initial := distMatrix[pi][di]
			dist := initial
			if math.IsInf(initial, 1) || initial > radiusM {
				if route := routes[di]; len(route) > 0 {
					dist = geo.PointToRouteKm(passengers[pi].Pickup, route) * 1000
				} else {
					dist = math.Inf(1)
				}
			}
			if dist > radiusM {
				continue
			}

			sim := e.scorer.Compare(passengers[pi].Profile(), drivers[di].Profile(),
				musicMatrix[pi][di], initial, dist, radiusM)
			candidates = append(candidates, candidate{
				passengerIdx: pi,
				driverIdx:    di,
				score:        sim.Score(w),
				distMeters:   dist,
			})
		}
	}

	// Stable keeps enumeration order for equal scores; tests depend on it.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, c := range candidates {
		if passengers[c.passengerIdx].Assigned() {
			continue
		}
		d := &drivers[c.driverIdx]
		if d.SpareSeats() <= 0 {
			continue
		}
		id := d.ID
		passengers[c.passengerIdx].DriverID = &id
		d.RegisteredCount++
		e.log.Debug("assigned passenger",
			"passenger_id", passengers[c.passengerIdx].ID, "driver_id", d.ID,
			"score", c.score, "distance_m", c.distMeters)
	}
}

// promote searches the unassigned passengers flagged CanBeDriver for the
// first one whose hypothetical route would bring at least one other outlier
// within the coverage threshold. It returns the new driver entry and the
// passenger set without it, or nil when no promotion is possible.
func (e *Engine) promote(ctx context.Context, passengers []Ride, event Event) (*Ride, []Ride) {
	outliers := unassignedIndexes(passengers)

	for _, ci := range outliers {
		cand := passengers[ci]
		if !cand.CanBeDriver {
			continue
		}

		route := e.geo.RouteTo(ctx, cand.Pickup, event.Location)
		coverage := 0
		for _, oi := range outliers {
			if oi == ci {
				continue
			}
			meters := geo.HaversineMeters(passengers[oi].Pickup, cand.Pickup)
			if len(route) > 0 {
				meters = math.Min(meters, geo.PointToRouteKm(passengers[oi].Pickup, route)*1000)
			}
			if meters <= e.cfg.CoverageMeters {
				coverage++
			}
		}
		if coverage == 0 {
			continue
		}

		driver := cand.Promote(e.cfg.DefaultPickupRadiusKm)
		rest := make([]Ride, 0, len(passengers)-1)
		rest = append(rest, passengers[:ci]...)
		rest = append(rest, passengers[ci+1:]...)
		return &driver, rest
	}
	return nil, passengers
}

func unassignedIndexes(passengers []Ride) []int {
	var idx []int
	for i := range passengers {
		if !passengers[i].Assigned() {
			idx = append(idx, i)
		}
	}
	return idx
}

func pickupPoints(rides []Ride) []types.Point {
	pts := make([]types.Point, len(rides))
	for i := range rides {
		pts[i] = rides[i].Pickup
	}
	return pts
}

func radiusPoints(drivers []Ride) []geo.RadiusPoint {
	pts := make([]geo.RadiusPoint, len(drivers))
	for i := range drivers {
		pts[i] = geo.RadiusPoint{Point: drivers[i].Pickup, RadiusKm: drivers[i].PickupRadiusKm}
	}
	return pts
}

func profiles(rides []Ride) []compat.Profile {
	ps := make([]compat.Profile, len(rides))
	for i := range rides {
		ps[i] = rides[i].Profile()
	}
	return ps
}
