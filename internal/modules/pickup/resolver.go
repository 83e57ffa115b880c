// README: Outlier pickup resolver; clusters leftover passengers, picks the
// closest drivers with spare seats and resolves an on-route pickup point.
package pickup

import (
	"context"
	"log/slog"
	"sort"

	"carpool/internal/config"
	"carpool/internal/modules/assign"
	"carpool/internal/modules/geo"
	"carpool/internal/types"
)

// Snapper is the road-snapping capability. Implementations return the
// original point when snapping fails; the resolver additionally guards so a
// hard error only skips the snap, never the placement.
type Snapper interface {
	Snap(ctx context.Context, p types.Point) (types.Point, error)
}

type Resolver struct {
	geo     *geo.Provider
	snapper Snapper
	log     *slog.Logger
	cfg     config.EngineConfig
}

func NewResolver(provider *geo.Provider, snapper Snapper, log *slog.Logger, cfg config.EngineConfig) *Resolver {
	return &Resolver{geo: provider, snapper: snapper, log: log, cfg: cfg}
}

// Resolve places outlier passengers onto drivers with spare seats. It
// returns the placed passengers (pickup coordinate rewritten, DriverID
// set), the passengers no driver could take, and the driver set with
// updated registration counts. Unplaceable passengers keep their Outlier
// flag; they are surfaced, not dropped.
func (r *Resolver) Resolve(ctx context.Context, outliers, drivers []assign.Ride, destination types.Point) (placed, remaining, updatedDrivers []assign.Ride) {
	drivers = append([]assign.Ride(nil), drivers...)
	if len(outliers) == 0 {
		return nil, nil, drivers
	}

	points := make([]types.Point, len(outliers))
	for i := range outliers {
		points[i] = outliers[i].Pickup
	}

	for _, cluster := range clusterIndexes(points, r.cfg.ClusterEpsKm) {
		center := centroid(points, cluster)
		ranked := r.rankDrivers(ctx, drivers, center, destination)

		pending := cluster
		for _, di := range ranked {
			if len(pending) == 0 {
				break
			}
			d := &drivers[di]
			seats := d.SpareSeats()
			if seats <= 0 {
				continue
			}
			route := r.geo.RouteTo(ctx, d.Pickup, destination)
			if len(route) == 0 {
				continue
			}

			take := min(seats, len(pending))
			group := pending[:take]
			pending = pending[take:]

			point := r.resolvePoint(ctx, center, route)
			for _, oi := range group {
				p := outliers[oi]
				p.Pickup = r.enforceWalkingDistance(point, p.Pickup)
				id := d.ID
				p.DriverID = &id
				p.Outlier = false
				placed = append(placed, p)
			}
			d.RegisteredCount += take
			r.log.Info("placed outlier cluster segment",
				"driver_id", d.ID, "passengers", take, "pickup", point)
		}

		for _, oi := range pending {
			remaining = append(remaining, outliers[oi])
		}
	}
	return placed, remaining, drivers
}

// rankDrivers orders driver indexes by the centroid's distance to each
// driver's route, ascending. Drivers whose route cannot be fetched are
// skipped for this round.
func (r *Resolver) rankDrivers(ctx context.Context, drivers []assign.Ride, center, destination types.Point) []int {
	type ranked struct {
		idx    int
		distKm float64
	}
	var list []ranked
	for i := range drivers {
		route := r.geo.RouteTo(ctx, drivers[i].Pickup, destination)
		if len(route) == 0 {
			continue
		}
		list = append(list, ranked{idx: i, distKm: geo.PointToRouteKm(center, route)})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].distKm < list[j].distKm })

	idx := make([]int, len(list))
	for i, e := range list {
		idx[i] = e.idx
	}
	return idx
}

// resolvePoint projects the cluster centroid onto the route, snaps the
// projection to the nearest real road, then re-projects the snapped point
// so the final pickup stays strictly on-path. The snap call is bounded by
// the provider timeout; a failed or timed-out snap falls back to the
// unsnapped projection.
func (r *Resolver) resolvePoint(ctx context.Context, center types.Point, route []types.Point) types.Point {
	onRoute := geo.ClosestPointOnRoute(center, route)
	if r.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ProviderTimeout)
		defer cancel()
	}
	snapped, err := r.snapper.Snap(ctx, onRoute)
	if err != nil {
		r.log.Warn("road snap failed, using route projection", "err", err)
		return onRoute
	}
	return geo.ClosestPointOnRoute(snapped, route)
}

// enforceWalkingDistance keeps the resolved pickup point within the maximum
// walking distance of the passenger's original coordinate, moving it along
// the straight line between the two when necessary.
func (r *Resolver) enforceWalkingDistance(point, passenger types.Point) types.Point {
	return geo.MovePointToward(point, passenger, r.cfg.MaxPickupMeters)
}
