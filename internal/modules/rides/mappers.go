// README: Mapping between wire entries and the engine's flat ride records.
package rides

import (
	"carpool/internal/modules/assign"
	"carpool/internal/types"
)

// toRide flattens a validated wire entry into the engine record.
func toRide(e Entry) assign.Ride {
	r := assign.Ride{
		ID:          types.ID(e.ID),
		UserID:      types.ID(e.User.ID),
		IsDriver:    e.Driver,
		CanBeDriver: e.CanBeDriver,
		Pickup:      types.Point{Lat: *e.PickupLat, Lng: *e.PickupLong},
		Smoking:     e.User.Smoking,
		Talkative:   e.User.Talkative,
		Genres:      genreNames(e.User.PreferredGenres),
	}
	if e.PickupRadius != nil {
		r.PickupRadiusKm = *e.PickupRadius
	}
	if e.Vehicle != nil {
		r.MaxPassengers = e.Vehicle.MaxPassengers
	}
	if e.DriverID != nil {
		id := types.ID(*e.DriverID)
		r.DriverID = &id
	}
	if e.PickupSequence != nil {
		r.PickupSequence = *e.PickupSequence
	}
	return r
}

// applyRide writes the engine's annotations back onto the original entry,
// leaving the nested user/event/vehicle data untouched.
func applyRide(e Entry, r assign.Ride) Entry {
	e.Driver = r.IsDriver
	lat, lng := r.Pickup.Lat, r.Pickup.Lng
	e.PickupLat = &lat
	e.PickupLong = &lng
	if r.IsDriver && e.PickupRadius == nil && r.PickupRadiusKm > 0 {
		radius := r.PickupRadiusKm
		e.PickupRadius = &radius
	}
	e.Outlier = r.Outlier
	if r.DriverID != nil {
		id := int64(*r.DriverID)
		e.DriverID = &id
	} else {
		e.DriverID = nil
	}
	if r.PickupSequence > 0 {
		seq := r.PickupSequence
		e.PickupSequence = &seq
	}
	if r.StartAt != nil {
		at := *r.StartAt
		e.StartDateTime = &at
	}
	e.PassengerRides = nil
	return e
}

func genreNames(genres []Genre) []string {
	if len(genres) == 0 {
		return nil
	}
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.Name
	}
	return names
}
