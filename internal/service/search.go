package service

import (
	"context"
	"log"

	"poolride/internal/domain"
	"poolride/internal/redis"
	"poolride/internal/repository"
)

// RouteFinder resolves route IDs near a pickup point. The concrete
// implementation sits on the Redis geo index; searches must survive it
// being down, so callers degrade rather than fail.
type RouteFinder interface {
	NearbyRouteIDs(ctx context.Context, lat, lng, radiusKm float64) ([]string, error)
}

// GeoRouteFinder is the Redis-backed RouteFinder.
type GeoRouteFinder struct {
	geo redis.RouteGeoStoreInterface
}

// NewGeoRouteFinder creates a new GeoRouteFinder.
func NewGeoRouteFinder(geo redis.RouteGeoStoreInterface) *GeoRouteFinder {
	return &GeoRouteFinder{geo: geo}
}

// NearbyRouteIDs returns the IDs of routes whose origin lies within
// radiusKm of the point, nearest first.
func (f *GeoRouteFinder) NearbyRouteIDs(ctx context.Context, lat, lng, radiusKm float64) ([]string, error) {
	points, err := f.geo.FindNearbyRoutes(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(points))
	for _, p := range points {
		ids = append(ids, p.RouteID)
	}
	return ids, nil
}

// Ensure GeoRouteFinder implements RouteFinder.
var _ RouteFinder = (*GeoRouteFinder)(nil)

// DefaultSearchRadiusKm bounds the nearby-route lookup around a pickup.
const DefaultSearchRadiusKm = 5.0

// SearchService finds joinable trips and prices vehicle options for a
// pickup point.
type SearchService struct {
	finder    RouteFinder
	tripRepo  repository.TripRepository
	routeRepo repository.RouteRepository
	geo       redis.RouteGeoStoreInterface
	pricing   *PricingEngine
}

// NewSearchService creates a new SearchService.
func NewSearchService(
	finder RouteFinder,
	tripRepo repository.TripRepository,
	routeRepo repository.RouteRepository,
	geo redis.RouteGeoStoreInterface,
	pricing *PricingEngine,
) *SearchService {
	return &SearchService{
		finder:    finder,
		tripRepo:  tripRepo,
		routeRepo: routeRepo,
		geo:       geo,
		pricing:   pricing,
	}
}

// SearchRequest contains the parameters for a trip search.
type SearchRequest struct {
	PickupLat   float64
	PickupLng   float64
	RouteID     string // skip geo lookup and search one route
	VehicleType string
	Seats       int
	RadiusKm    float64
}

// TripSummary is a search hit annotated with live pricing.
type TripSummary struct {
	Trip         *domain.Trip  `json:"trip"`
	Route        *domain.Route `json:"route,omitempty"`
	PerHeadPrice float64       `json:"per_head_price"`
	PriceMessage string        `json:"price_message"`
}

// SearchResult bundles the joinable trips with the priced vehicle options
// for opening a new one.
type SearchResult struct {
	Trips   []TripSummary   `json:"trips"`
	Options []VehicleOption `json:"vehicle_options"`
}

// SearchTrips finds open pool trips near the pickup point. A dead geo index
// degrades to an un-scoped search instead of failing the request.
func (s *SearchService) SearchTrips(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	seats := req.Seats
	if seats < 1 {
		seats = 1
	}

	radius := req.RadiusKm
	if radius <= 0 {
		radius = DefaultSearchRadiusKm
	}

	routeIDs := []string{req.RouteID}
	if req.RouteID == "" {
		ids, err := s.finder.NearbyRouteIDs(ctx, req.PickupLat, req.PickupLng, radius)
		if err != nil {
			log.Printf("[SEARCH] geo lookup failed, searching without route scope: %v", err)
			ids = nil
		}
		if len(ids) == 0 {
			// No indexed route nearby; fall through to an un-scoped search.
			ids = []string{""}
		}
		routeIDs = ids
	}

	routes := s.loadRoutes(ctx, routeIDs)

	seen := make(map[string]bool)
	var summaries []TripSummary
	for _, routeID := range routeIDs {
		trips, err := s.tripRepo.FindOpen(ctx, routeID, req.VehicleType, seats)
		if err != nil {
			return nil, err
		}
		for _, trip := range trips {
			if seen[trip.ID] {
				continue
			}
			seen[trip.ID] = true
			summaries = append(summaries, TripSummary{
				Trip:         trip,
				Route:        routes[trip.RouteID],
				PerHeadPrice: s.pricing.ProjectedPerHeadPrice(trip, seats),
				PriceMessage: s.pricing.PriceMessage(trip),
			})
		}
	}

	var optionRoute *domain.Route
	if len(routeIDs) > 0 {
		optionRoute = routes[routeIDs[0]]
	}
	options, err := s.pricing.VehicleOptions(ctx, optionRoute)
	if err != nil {
		return nil, err
	}

	return &SearchResult{Trips: summaries, Options: options}, nil
}

// loadRoutes resolves route IDs in one shot. Missing routes are skipped.
func (s *SearchService) loadRoutes(ctx context.Context, ids []string) map[string]*domain.Route {
	wanted := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			wanted = append(wanted, id)
		}
	}

	routes := make(map[string]*domain.Route, len(wanted))
	if len(wanted) == 0 {
		return routes
	}

	found, err := s.routeRepo.GetByIDs(ctx, wanted)
	if err != nil {
		log.Printf("[SEARCH] route load failed: %v", err)
		return routes
	}
	for _, r := range found {
		routes[r.ID] = r
	}
	return routes
}

// IndexActiveRoutes seeds the geo index with every active route's origin.
// Called at startup and safe to repeat.
func (s *SearchService) IndexActiveRoutes(ctx context.Context) error {
	if s.geo == nil {
		return nil
	}

	routes, err := s.routeRepo.GetAllActive(ctx)
	if err != nil {
		return err
	}

	for _, r := range routes {
		if err := s.geo.IndexRoute(ctx, r.ID, r.OriginLat, r.OriginLng); err != nil {
			log.Printf("[SEARCH] failed to index route %s: %v", r.ID, err)
		}
	}
	return nil
}
