// README: Route and distance provider; wraps the routing capability with
// caching, degrade-on-failure and bounded concurrent fan-out.
package geo

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"carpool/internal/types"
)

// Router is the routing capability. An empty waypoint slice means "no route"
// and callers must skip the driver for this round rather than fail.
type Router interface {
	Route(ctx context.Context, origin, destination types.Point) ([]types.Point, error)
}

// RadiusPoint pairs a driver's position with its pickup radius.
type RadiusPoint struct {
	Point    types.Point
	RadiusKm float64
}

type Provider struct {
	router  Router
	cache   PairCache
	log     *slog.Logger
	workers int
	timeout time.Duration

	// routeMu guards routes, the origin/destination polyline memo that keeps
	// convergence rounds and the pickup resolver from re-fetching the same
	// route. Failed fetches are not memoized so a transient upstream error
	// only skips the driver for one round.
	routeMu sync.Mutex
	routes  map[string][]types.Point
}

func NewProvider(router Router, cache PairCache, log *slog.Logger, workers int, timeout time.Duration) *Provider {
	if workers <= 0 {
		workers = 1
	}
	if cache == nil {
		cache = NewMemoryPairCache()
	}
	return &Provider{
		router:  router,
		cache:   cache,
		log:     log,
		workers: workers,
		timeout: timeout,
		routes:  make(map[string][]types.Point),
	}
}

// RouteTo fetches the driving polyline from origin to destination. Any
// upstream error degrades to an empty route: the driver cannot be
// geometrically evaluated this round, which is not fatal.
func (p *Provider) RouteTo(ctx context.Context, origin, destination types.Point) []types.Point {
	key := PairKey(origin, destination)
	p.routeMu.Lock()
	if route, ok := p.routes[key]; ok {
		p.routeMu.Unlock()
		return route
	}
	p.routeMu.Unlock()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	route, err := p.router.Route(ctx, origin, destination)
	if err != nil {
		p.log.Warn("route fetch failed, treating driver as unroutable",
			"origin", origin, "err", err)
		return nil
	}
	if len(route) > 0 {
		p.routeMu.Lock()
		p.routes[key] = route
		p.routeMu.Unlock()
	}
	return route
}

// Routes fetches one polyline per origin, concurrently and bounded by the
// worker limit. The result slice is index-aligned with origins; failed
// fetches yield nil entries. All lookups complete before Routes returns.
func (p *Provider) Routes(ctx context.Context, origins []types.Point, destination types.Point) [][]types.Point {
	routes := make([][]types.Point, len(origins))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, origin := range origins {
		g.Go(func() error {
			routes[i] = p.RouteTo(gctx, origin, destination)
			return nil
		})
	}
	_ = g.Wait() // workers only degrade, never error
	return routes
}

// Matrix computes the pairwise passenger-to-driver distance matrix in
// metres. A cell holds the straight-line distance when it is within the
// driver's pickup radius, otherwise +Inf — the sentinel meaning "not yet
// known", deferred to route-based evaluation by the scorer. Identical
// rounded pairs are served from the cache.
func (p *Provider) Matrix(ctx context.Context, passengers []types.Point, drivers []RadiusPoint) [][]float64 {
	matrix := make([][]float64, len(passengers))
	for i := range matrix {
		matrix[i] = make([]float64, len(drivers))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for j, d := range drivers {
		g.Go(func() error {
			for i, pass := range passengers {
				matrix[i][j] = p.pairMeters(gctx, pass, d)
			}
			return nil
		})
	}
	_ = g.Wait()
	return matrix
}

// pairMeters caches the raw straight-line distance and applies the radius
// threshold on the way out, so drivers sharing a coordinate but not a
// radius still get correct answers.
func (p *Provider) pairMeters(ctx context.Context, passenger types.Point, d RadiusPoint) float64 {
	key := PairKey(passenger, d.Point)
	meters, ok := p.cache.Get(ctx, key)
	if !ok {
		meters = HaversineMeters(passenger, d.Point)
		p.cache.Set(ctx, key, meters)
	}
	if meters > d.RadiusKm*1000 {
		return math.Inf(1)
	}
	return meters
}
