// README: Backward time scheduler; derives pickup order and departure
// times by walking the route backward from the event start.
package schedule

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"carpool/internal/modules/assign"
	"carpool/internal/modules/geo"
	"carpool/internal/types"
)

// TravelTimer is the travel-duration capability.
type TravelTimer interface {
	TravelTime(ctx context.Context, from, to types.Point) (time.Duration, error)
}

// Group is one driver with its finalized, owned passenger list.
type Group struct {
	Driver     assign.Ride
	Passengers []assign.Ride
}

const (
	// sameStopToleranceDeg coalesces consecutive pickups into one physical
	// stop: within this tolerance on both axes no extra stop time is paid.
	sameStopToleranceDeg = 0.001
	// fallbackSpeedMps estimates travel time from straight-line distance
	// when the travel-time provider is unavailable (~40 km/h).
	fallbackSpeedMps = 11.1
)

type Scheduler struct {
	travel  TravelTimer
	log     *slog.Logger
	stop    time.Duration
	timeout time.Duration
}

func NewScheduler(travel TravelTimer, log *slog.Logger, stopDuration, providerTimeout time.Duration) *Scheduler {
	return &Scheduler{travel: travel, log: log, stop: stopDuration, timeout: providerTimeout}
}

// Schedule fills in StartAt and PickupSequence for every passenger of every
// group, and StartAt for each driver, so that the last stop arrives at the
// event exactly on time. Input groups are not mutated.
func (s *Scheduler) Schedule(ctx context.Context, groups []Group, eventLocation types.Point, eventStart time.Time) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = s.scheduleGroup(ctx, g, eventLocation, eventStart)
	}
	return out
}

func (s *Scheduler) scheduleGroup(ctx context.Context, g Group, eventLocation types.Point, eventStart time.Time) Group {
	driver := g.Driver
	passengers := append([]assign.Ride(nil), g.Passengers...)

	if len(passengers) == 0 {
		at := eventStart.Add(-s.travelOrEstimate(ctx, driver.Pickup, eventLocation))
		driver.StartAt = &at
		return Group{Driver: driver}
	}

	// Sort farthest-from-event first; that is the order the driver collects
	// passengers in. The durations are only used for this ordering.
	durations := make([]time.Duration, len(passengers))
	for i := range passengers {
		durations[i] = s.travelOrEstimate(ctx, passengers[i].Pickup, eventLocation)
	}
	order := make([]int, len(passengers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return durations[order[a]] > durations[order[b]] })
	sorted := make([]assign.Ride, len(passengers))
	for rank, idx := range order {
		sorted[rank] = passengers[idx]
	}

	// Walk backward from the event: closest-to-event passenger first. Stops
	// coalesce only between consecutive passengers, never with the event
	// itself, so the first step back always pays stop time plus the leg.
	current := eventStart
	last := eventLocation
	for i := len(sorted) - 1; i >= 0; i-- {
		p := &sorted[i]
		if i < len(sorted)-1 && sameStop(p.Pickup, last) {
			// Shared physical stop: no second stop deduction, no travel leg.
		} else {
			current = current.Add(-s.stop)
			current = current.Add(-s.travelOrEstimate(ctx, p.Pickup, last))
		}
		at := current
		p.StartAt = &at
		p.PickupSequence = i + 1
		last = p.Pickup
	}

	departure := current.Add(-s.travelOrEstimate(ctx, driver.Pickup, sorted[0].Pickup))
	driver.StartAt = &departure

	return Group{Driver: driver, Passengers: sorted}
}

// travelOrEstimate degrades a failed or timed-out provider call to a
// straight-line estimate at a fixed speed rather than aborting the group.
// Each call is bounded by the provider timeout so a hanging upstream never
// stalls the request.
func (s *Scheduler) travelOrEstimate(ctx context.Context, from, to types.Point) time.Duration {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	d, err := s.travel.TravelTime(ctx, from, to)
	if err == nil {
		return d
	}
	s.log.Warn("travel time lookup failed, falling back to estimate",
		"from", from, "to", to, "err", err)
	meters := geo.HaversineMeters(from, to)
	return time.Duration(meters/fallbackSpeedMps) * time.Second
}

func sameStop(a, b types.Point) bool {
	return math.Abs(a.Lat-b.Lat) <= sameStopToleranceDeg &&
		math.Abs(a.Lng-b.Lng) <= sameStopToleranceDeg
}
