// README: Common value types shared across modules.
package types

import "fmt"

// ID identifies a ride entry, user, vehicle or event.
type ID int64

func (id ID) String() string { return fmt.Sprintf("%d", int64(id)) }

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
