package schedule

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"carpool/internal/modules/assign"
	"carpool/internal/types"
)

// tableTravel serves fixed durations keyed by the endpoints of a leg.
type tableTravel struct {
	legs map[[2]types.Point]time.Duration
}

func (t tableTravel) TravelTime(_ context.Context, from, to types.Point) (time.Duration, error) {
	if d, ok := t.legs[[2]types.Point{from, to}]; ok {
		return d, nil
	}
	return 0, errors.New("no leg")
}

type failTravel struct{}

func (failTravel) TravelTime(context.Context, types.Point, types.Point) (time.Duration, error) {
	return 0, errors.New("provider down")
}

func testScheduler(travel TravelTimer) *Scheduler {
	return NewScheduler(travel, slog.New(slog.DiscardHandler), 5*time.Minute, 0)
}

var (
	eventAt  = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	eventLoc = types.Point{Lat: 0, Lng: 0.2}
)

func ride(id int64, lat, lng float64) assign.Ride {
	return assign.Ride{ID: types.ID(id), Pickup: types.Point{Lat: lat, Lng: lng}}
}

func TestSchedule_BackwardWalk(t *testing.T) {
	driverPos := types.Point{Lat: 0, Lng: 0}
	p1 := ride(1, 0, 0.15) // 10 min from the event
	p2 := ride(2, 0, 0.10) // 20 min from the event, picked up first

	travel := tableTravel{legs: map[[2]types.Point]time.Duration{
		{p1.Pickup, eventLoc}:  10 * time.Minute,
		{p2.Pickup, eventLoc}:  20 * time.Minute,
		{p2.Pickup, p1.Pickup}: 8 * time.Minute,
		{driverPos, p2.Pickup}: 12 * time.Minute,
	}}
	s := testScheduler(travel)

	groups := s.Schedule(context.Background(), []Group{{
		Driver:     assign.Ride{ID: 10, IsDriver: true, Pickup: driverPos},
		Passengers: []assign.Ride{p1, p2},
	}}, eventLoc, eventAt)

	got := groups[0]
	if len(got.Passengers) != 2 {
		t.Fatalf("got %d passengers", len(got.Passengers))
	}

	// Farthest from the event is collected first.
	first, second := got.Passengers[0], got.Passengers[1]
	if first.ID != 2 || second.ID != 1 {
		t.Fatalf("pickup order = %d, %d; want 2, 1", first.ID, second.ID)
	}
	if first.PickupSequence != 1 || second.PickupSequence != 2 {
		t.Errorf("sequences = %d, %d; want 1, 2", first.PickupSequence, second.PickupSequence)
	}

	// Last stop: event minus stop time minus the 10 min leg.
	wantSecond := eventAt.Add(-15 * time.Minute)
	if !second.StartAt.Equal(wantSecond) {
		t.Errorf("closest passenger StartAt = %v, want %v", second.StartAt, wantSecond)
	}
	// First stop: another stop deduction plus the 8 min connecting leg.
	wantFirst := wantSecond.Add(-13 * time.Minute)
	if !first.StartAt.Equal(wantFirst) {
		t.Errorf("farthest passenger StartAt = %v, want %v", first.StartAt, wantFirst)
	}
	// Driver leaves early enough to reach the first pickup.
	wantDriver := wantFirst.Add(-12 * time.Minute)
	if got.Driver.StartAt == nil || !got.Driver.StartAt.Equal(wantDriver) {
		t.Errorf("driver StartAt = %v, want %v", got.Driver.StartAt, wantDriver)
	}
}

func TestSchedule_Rescheduling(t *testing.T) {
	driverPos := types.Point{Lat: 0, Lng: 0}
	p1 := ride(1, 0, 0.15)
	p2 := ride(2, 0, 0.10)
	travel := tableTravel{legs: map[[2]types.Point]time.Duration{
		{p1.Pickup, eventLoc}:  10 * time.Minute,
		{p2.Pickup, eventLoc}:  20 * time.Minute,
		{p2.Pickup, p1.Pickup}: 8 * time.Minute,
		{driverPos, p2.Pickup}: 12 * time.Minute,
	}}
	s := testScheduler(travel)

	in := []Group{{
		Driver:     assign.Ride{ID: 10, IsDriver: true, Pickup: driverPos},
		Passengers: []assign.Ride{p1, p2},
	}}
	once := s.Schedule(context.Background(), in, eventLoc, eventAt)
	twice := s.Schedule(context.Background(), once, eventLoc, eventAt)

	for i := range once[0].Passengers {
		a, b := once[0].Passengers[i], twice[0].Passengers[i]
		if a.ID != b.ID || a.PickupSequence != b.PickupSequence || !a.StartAt.Equal(*b.StartAt) {
			t.Errorf("rescheduling changed passenger %d: %+v vs %+v", a.ID, a, b)
		}
	}
	if !once[0].Driver.StartAt.Equal(*twice[0].Driver.StartAt) {
		t.Errorf("rescheduling changed the driver departure")
	}
}

// Passengers sharing a physical stop pay one stop deduction and get the same
// departure time.
func TestSchedule_SharedStop(t *testing.T) {
	driverPos := types.Point{Lat: 0, Lng: 0}
	p1 := ride(1, 0, 0.1)
	p2 := ride(2, 0.0002, 0.1) // within the same-stop tolerance of p1
	travel := tableTravel{legs: map[[2]types.Point]time.Duration{
		{p1.Pickup, eventLoc}:  10 * time.Minute,
		{p2.Pickup, eventLoc}:  10*time.Minute + time.Second,
		{driverPos, p2.Pickup}: 12 * time.Minute,
	}}
	s := testScheduler(travel)

	groups := s.Schedule(context.Background(), []Group{{
		Driver:     assign.Ride{ID: 10, IsDriver: true, Pickup: driverPos},
		Passengers: []assign.Ride{p1, p2},
	}}, eventLoc, eventAt)

	ps := groups[0].Passengers
	if len(ps) != 2 {
		t.Fatalf("got %d passengers", len(ps))
	}
	if !ps[0].StartAt.Equal(*ps[1].StartAt) {
		t.Errorf("shared stop got two departure times: %v vs %v", ps[0].StartAt, ps[1].StartAt)
	}
	want := eventAt.Add(-15 * time.Minute)
	if !ps[1].StartAt.Equal(want) {
		t.Errorf("stop time = %v, want %v (one stop deduction)", ps[1].StartAt, want)
	}
	if ps[0].PickupSequence != 1 || ps[1].PickupSequence != 2 {
		t.Errorf("sequences = %d, %d; want 1, 2", ps[0].PickupSequence, ps[1].PickupSequence)
	}
}

// A pickup within the same-stop tolerance of the event itself must still
// pay the stop deduction and the travel leg; only consecutive passengers
// coalesce.
func TestSchedule_StopNextToEventStillPays(t *testing.T) {
	driverPos := types.Point{Lat: 0, Lng: 0}
	p := ride(1, 0.0005, 0.2) // ~55 m from the event
	travel := tableTravel{legs: map[[2]types.Point]time.Duration{
		{p.Pickup, eventLoc}:  1 * time.Minute,
		{driverPos, p.Pickup}: 12 * time.Minute,
	}}
	s := testScheduler(travel)

	groups := s.Schedule(context.Background(), []Group{{
		Driver:     assign.Ride{ID: 10, IsDriver: true, Pickup: driverPos},
		Passengers: []assign.Ride{p},
	}}, eventLoc, eventAt)

	got := groups[0].Passengers[0]
	want := eventAt.Add(-6 * time.Minute) // 5 min stop + 1 min leg
	if got.StartAt == nil || !got.StartAt.Equal(want) {
		t.Errorf("StartAt = %v, want %v", got.StartAt, want)
	}
	wantDriver := want.Add(-12 * time.Minute)
	if !groups[0].Driver.StartAt.Equal(wantDriver) {
		t.Errorf("driver StartAt = %v, want %v", groups[0].Driver.StartAt, wantDriver)
	}
}

func TestSchedule_DriverWithoutPassengers(t *testing.T) {
	driverPos := types.Point{Lat: 0, Lng: 0}
	travel := tableTravel{legs: map[[2]types.Point]time.Duration{
		{driverPos, eventLoc}: 30 * time.Minute,
	}}
	s := testScheduler(travel)

	groups := s.Schedule(context.Background(), []Group{{
		Driver: assign.Ride{ID: 10, IsDriver: true, Pickup: driverPos},
	}}, eventLoc, eventAt)

	want := eventAt.Add(-30 * time.Minute)
	if got := groups[0].Driver.StartAt; got == nil || !got.Equal(want) {
		t.Errorf("driver StartAt = %v, want %v", got, want)
	}
}

func TestSchedule_EstimateFallback(t *testing.T) {
	s := testScheduler(failTravel{})

	driverPos := types.Point{Lat: 0, Lng: 0}
	p := ride(1, 0, 0.1)
	groups := s.Schedule(context.Background(), []Group{{
		Driver:     assign.Ride{ID: 10, IsDriver: true, Pickup: driverPos},
		Passengers: []assign.Ride{p},
	}}, eventLoc, eventAt)

	got := groups[0].Passengers[0]
	if got.StartAt == nil {
		t.Fatal("no departure time despite fallback estimate")
	}
	if !got.StartAt.Before(eventAt) {
		t.Errorf("StartAt %v is not before the event", got.StartAt)
	}
	// ~11.1 km at ~40 km/h plus the stop: roughly 22 min before the event.
	elapsed := eventAt.Sub(*got.StartAt)
	if elapsed < 15*time.Minute || elapsed > 40*time.Minute {
		t.Errorf("fallback lead time %v outside plausible range", elapsed)
	}
	if groups[0].Driver.StartAt == nil || !groups[0].Driver.StartAt.Before(*got.StartAt) {
		t.Errorf("driver departure %v not before pickup %v", groups[0].Driver.StartAt, got.StartAt)
	}
}

// hangingTravel blocks until the context is cancelled, like a stalled
// upstream would.
type hangingTravel struct{}

func (hangingTravel) TravelTime(ctx context.Context, _, _ types.Point) (time.Duration, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestSchedule_ProviderTimeoutDegrades(t *testing.T) {
	s := NewScheduler(hangingTravel{}, slog.New(slog.DiscardHandler), 5*time.Minute, 10*time.Millisecond)

	driverPos := types.Point{Lat: 0, Lng: 0}
	p := ride(1, 0, 0.1)
	done := make(chan []Group, 1)
	go func() {
		done <- s.Schedule(context.Background(), []Group{{
			Driver:     assign.Ride{ID: 10, IsDriver: true, Pickup: driverPos},
			Passengers: []assign.Ride{p},
		}}, eventLoc, eventAt)
	}()

	var groups []Group
	select {
	case groups = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduling stalled on a hanging travel provider")
	}

	got := groups[0].Passengers[0]
	if got.StartAt == nil || !got.StartAt.Before(eventAt) {
		t.Errorf("no estimated departure after timeout: %v", got.StartAt)
	}
	if groups[0].Driver.StartAt == nil {
		t.Errorf("driver not scheduled after timeout")
	}
}

func TestSchedule_DoesNotMutateInput(t *testing.T) {
	driverPos := types.Point{Lat: 0, Lng: 0}
	p := ride(1, 0, 0.1)
	travel := tableTravel{legs: map[[2]types.Point]time.Duration{
		{p.Pickup, eventLoc}:  10 * time.Minute,
		{driverPos, p.Pickup}: 12 * time.Minute,
	}}
	s := testScheduler(travel)

	in := []Group{{
		Driver:     assign.Ride{ID: 10, IsDriver: true, Pickup: driverPos},
		Passengers: []assign.Ride{p},
	}}
	_ = s.Schedule(context.Background(), in, eventLoc, eventAt)

	if in[0].Passengers[0].StartAt != nil || in[0].Passengers[0].PickupSequence != 0 {
		t.Errorf("input group was mutated: %+v", in[0].Passengers[0])
	}
	if in[0].Driver.StartAt != nil {
		t.Errorf("input driver was mutated")
	}
}
