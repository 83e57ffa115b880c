// README: Wire-level ride entries exchanged with the caller, mirroring the
// event registration schema.
package rides

import (
	"errors"
	"fmt"
	"time"
)

var ErrValidation = errors.New("validation failed")

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID              int64   `json:"id"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Email           string  `json:"email"`
	Address         string  `json:"address"`
	City            string  `json:"city"`
	Smoking         *bool   `json:"smoking"`
	Talkative       *bool   `json:"talkative"`
	PreferredGenres []Genre `json:"preferredGenres"`
}

type Vehicle struct {
	ID            int64  `json:"id"`
	Brand         string `json:"brand"`
	Model         string `json:"model"`
	Color         string `json:"color"`
	Plate         string `json:"plate"`
	MaxPassengers int    `json:"maxPassengers"`
}

type Event struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	StartDateTime    *time.Time `json:"startDateTime"`
	EndDateTime      *time.Time `json:"endDateTime"`
	Address          string     `json:"address"`
	RegisterDeadline *time.Time `json:"registerDeadline"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
}

// Entry is one attendee's ride registration. Coordinates are pointers so a
// missing value is distinguishable from 0 and can be rejected up front.
type Entry struct {
	ID             int64      `json:"id"`
	Driver         bool       `json:"driver"`
	CanBeDriver    bool       `json:"canBeDriver"`
	VehicleID      *int64     `json:"vehicleId"`
	PickupRadius   *float64   `json:"pickupRadius"`
	PickupLat      *float64   `json:"pickupLat"`
	PickupLong     *float64   `json:"pickupLong"`
	StartDateTime  *time.Time `json:"startDateTime"`
	PickupSequence *int       `json:"pickupSequence"`
	DriverID       *int64     `json:"driverId"`
	Outlier        bool       `json:"outlier"`
	Vehicle        *Vehicle   `json:"vehicle"`
	User           User       `json:"user"`
	Event          Event      `json:"event"`

	// PassengerRides is populated on driver entries in grouped responses
	// and on the scheduling entry point's input.
	PassengerRides []Entry `json:"passengerRides,omitempty"`
}

// Validate rejects malformed entries before the matching loop begins,
// naming the offending entry.
func (e *Entry) Validate() error {
	if e.PickupLat == nil || e.PickupLong == nil {
		return fmt.Errorf("%w: entry %d is missing pickup coordinates", ErrValidation, e.ID)
	}
	if e.Driver {
		if e.Vehicle == nil {
			return fmt.Errorf("%w: driver entry %d has no vehicle", ErrValidation, e.ID)
		}
		if e.Vehicle.MaxPassengers <= 0 {
			return fmt.Errorf("%w: driver entry %d has no passenger capacity", ErrValidation, e.ID)
		}
	}
	return nil
}
