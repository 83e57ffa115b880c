// Package maps adapts the Google Maps Platform APIs to the narrow
// capability interfaces consumed by the engine.
package maps

import (
	"fmt"

	"googlemaps.github.io/maps"
)

// NewClient builds the shared Google Maps client used by all adapters.
func NewClient(apiKey string) (*maps.Client, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}
