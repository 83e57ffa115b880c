// README: Flat ride entry records processed by the assignment pipeline.
package assign

import (
	"time"

	"carpool/internal/modules/compat"
	"carpool/internal/types"
)

// Ride is one attendee's transportation entry for one event, flattened for
// the engine. Entries are constructed once per request, carried by value
// through the pipeline stages and discarded with the response.
type Ride struct {
	ID          types.ID
	UserID      types.ID
	IsDriver    bool
	CanBeDriver bool

	Pickup         types.Point
	PickupRadiusKm float64

	// MaxPassengers is the vehicle capacity; zero for entries without a
	// vehicle.
	MaxPassengers int
	// RegisteredCount tracks passengers currently assigned to this driver.
	RegisteredCount int

	Smoking   *bool
	Talkative *bool
	Genres    []string

	// DriverID is nil while unassigned.
	DriverID       *types.ID
	Outlier        bool
	PickupSequence int
	StartAt        *time.Time
}

// Event is the destination all entries share.
type Event struct {
	ID       types.ID
	Location types.Point
	StartAt  time.Time
}

func (r *Ride) Assigned() bool { return r.DriverID != nil }

func (r *Ride) SpareSeats() int { return r.MaxPassengers - r.RegisteredCount }

func (r *Ride) Profile() compat.Profile {
	return compat.Profile{Smoking: r.Smoking, Talkative: r.Talkative, Genres: r.Genres}
}

// Promote converts a passenger entry into a fresh driver entry. Capacity
// counters are reinitialized; a missing pickup radius gets the default.
func (r Ride) Promote(defaultRadiusKm float64) Ride {
	r.IsDriver = true
	r.DriverID = nil
	r.RegisteredCount = 0
	if r.PickupRadiusKm <= 0 {
		r.PickupRadiusKm = defaultRadiusKm
	}
	return r
}
