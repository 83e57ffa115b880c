// README: Rides service; orchestrates matching, outlier resolution,
// grouping and scheduling for one event request.
package rides

import (
	"context"
	"fmt"
	"log/slog"

	"carpool/internal/config"
	"carpool/internal/modules/assign"
	"carpool/internal/modules/compat"
	"carpool/internal/modules/pickup"
	"carpool/internal/modules/schedule"
	"carpool/internal/types"
)

type Service struct {
	engine    *assign.Engine
	resolver  *pickup.Resolver
	scheduler *schedule.Scheduler
	log       *slog.Logger
	cfg       config.EngineConfig
}

func NewService(engine *assign.Engine, resolver *pickup.Resolver, scheduler *schedule.Scheduler, log *slog.Logger, cfg config.EngineConfig) *Service {
	return &Service{engine: engine, resolver: resolver, scheduler: scheduler, log: log, cfg: cfg}
}

// DefaultWeights returns the configured scoring weights.
func (s *Service) DefaultWeights() compat.Weights {
	return compat.Weights{
		Location:     s.cfg.LocationWeight,
		Music:        s.cfg.MusicWeight,
		InitialBonus: s.cfg.InitialWeight,
	}
}

// AssignUsers runs the full pipeline over a flat list of event entries and
// returns the same entries annotated with their assignment, resolved pickup
// coordinate, pickup sequence, departure time and outlier flag. Driver
// entries come first, each followed by its passengers in pickup order;
// unplaceable passengers trail the list flagged as outliers.
func (s *Service) AssignUsers(ctx context.Context, entries []Entry, weights *compat.Weights) ([]Entry, error) {
	if len(entries) == 0 {
		return []Entry{}, nil
	}
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, err
		}
	}
	event, err := eventFrom(entries)
	if err != nil {
		return nil, err
	}

	w := s.DefaultWeights()
	if weights != nil {
		w = *weights
	}

	byID := make(map[types.ID]Entry, len(entries))
	var passengers, drivers []assign.Ride
	for _, e := range entries {
		r := toRide(e)
		byID[r.ID] = e
		if r.IsDriver {
			drivers = append(drivers, r)
		} else {
			passengers = append(passengers, r)
		}
	}

	res := s.engine.Run(ctx, passengers, drivers, event, w)

	var matched []assign.Ride
	for _, p := range res.Passengers {
		if p.Assigned() {
			matched = append(matched, p)
		}
	}
	placed, unplaced, finalDrivers := s.resolver.Resolve(ctx, res.Outliers, res.Drivers, event.Location)
	matched = append(matched, placed...)

	groups := buildGroups(finalDrivers, matched)
	groups = s.scheduler.Schedule(ctx, groups, event.Location, event.StartAt)

	out := make([]Entry, 0, len(entries))
	for _, g := range groups {
		out = append(out, applyRide(byID[g.Driver.ID], g.Driver))
		for _, p := range g.Passengers {
			out = append(out, applyRide(byID[p.ID], p))
		}
	}
	for _, p := range unplaced {
		out = append(out, applyRide(byID[p.ID], p))
	}

	s.log.Info("assignment pipeline finished",
		"entries", len(entries), "drivers", len(finalDrivers),
		"matched", len(matched), "outliers", len(unplaced))
	return out, nil
}

// AssignStartTimes re-runs only the scheduling stage over an already
// grouped driver/passenger tree, for callers that want fresh times without
// re-matching. Each input entry must be a driver carrying its passengers in
// PassengerRides; the event start time is taken from the entries.
func (s *Service) AssignStartTimes(ctx context.Context, entries []Entry) ([]Entry, error) {
	if len(entries) == 0 {
		return []Entry{}, nil
	}
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, err
		}
		for j := range entries[i].PassengerRides {
			if err := entries[i].PassengerRides[j].Validate(); err != nil {
				return nil, err
			}
		}
	}
	event, err := eventFrom(entries)
	if err != nil {
		return nil, err
	}

	groups := make([]schedule.Group, 0, len(entries))
	byID := make(map[types.ID]Entry)
	for _, e := range entries {
		g := schedule.Group{Driver: toRide(e)}
		byID[types.ID(e.ID)] = e
		for _, pe := range e.PassengerRides {
			g.Passengers = append(g.Passengers, toRide(pe))
			byID[types.ID(pe.ID)] = pe
		}
		groups = append(groups, g)
	}

	groups = s.scheduler.Schedule(ctx, groups, event.Location, event.StartAt)

	out := make([]Entry, 0, len(entries))
	for _, g := range groups {
		driver := applyRide(byID[g.Driver.ID], g.Driver)
		for _, p := range g.Passengers {
			driver.PassengerRides = append(driver.PassengerRides, applyRide(byID[p.ID], p))
		}
		out = append(out, driver)
	}
	return out, nil
}

// buildGroups attaches each matched passenger to the driver that owns it.
// A passenger is owned by exactly one driver; the engine and resolver
// guarantee DriverID points into the driver set.
func buildGroups(drivers, passengers []assign.Ride) []schedule.Group {
	groups := make([]schedule.Group, len(drivers))
	index := make(map[types.ID]int, len(drivers))
	for i, d := range drivers {
		groups[i] = schedule.Group{Driver: d}
		index[d.ID] = i
	}
	for _, p := range passengers {
		if p.DriverID == nil {
			continue
		}
		if i, ok := index[*p.DriverID]; ok {
			groups[i].Passengers = append(groups[i].Passengers, p)
		}
	}
	return groups
}

// eventFrom extracts the shared event from the entries, preferring a
// driver's copy as the source of truth.
func eventFrom(entries []Entry) (assign.Event, error) {
	chosen := entries[0]
	for _, e := range entries {
		if e.Driver {
			chosen = e
			break
		}
	}
	if chosen.Event.StartDateTime == nil {
		return assign.Event{}, fmt.Errorf("%w: event %d has no start time", ErrValidation, chosen.Event.ID)
	}
	return assign.Event{
		ID:       types.ID(chosen.Event.ID),
		Location: types.Point{Lat: chosen.Event.Latitude, Lng: chosen.Event.Longitude},
		StartAt:  *chosen.Event.StartDateTime,
	}, nil
}
