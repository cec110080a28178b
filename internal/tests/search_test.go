package tests

import (
	"context"
	"errors"
	"testing"

	"poolride/internal/domain"
	"poolride/internal/service"
)

func newSearchFixture(finder service.RouteFinder) (*MockTripRepository, *MockRouteRepository, *MockRouteGeoStore, *service.SearchService) {
	trips := NewMockTripRepository()
	routes := NewMockRouteRepository()
	geo := NewMockRouteGeoStore()

	vehicles := NewMockVehicleConfigRepository()
	vehicles.AddConfig(&domain.VehicleConfig{
		VehicleType: "AUTO_4", DisplayName: "Auto (4 seats)",
		Category: domain.VehicleCategoryAuto, TotalPrice: 400, MinSeats: 3, MaxSeats: 4, Active: true,
	})

	pricing := service.NewPricingEngine(vehicles)
	svc := service.NewSearchService(finder, trips, routes, geo, pricing)
	return trips, routes, geo, svc
}

// ──────────────────────────────────────────────
// TRIP SEARCH
// ──────────────────────────────────────────────

func TestSearchTripsScopedByNearbyRoutes(t *testing.T) {
	t.Parallel()

	finder := &MockRouteFinder{RouteIDs: []string{"route-1"}}
	trips, routes, _, svc := newSearchFixture(finder)

	routes.AddRoute(&domain.Route{ID: "route-1", Name: "City - Airport", PriceMultiplier: 1.0, Active: true})

	near := newPoolTrip("trip-near", domain.TripStatusFilling, 4, 1, 3, 400)
	trips.AddTrip(near)

	far := newPoolTrip("trip-far", domain.TripStatusFilling, 4, 1, 3, 400)
	far.RouteID = "route-2"
	trips.AddTrip(far)

	result, err := svc.SearchTrips(context.Background(), service.SearchRequest{
		PickupLat: 12.97, PickupLng: 77.59, Seats: 1,
	})
	if err != nil {
		t.Fatalf("SearchTrips failed: %v", err)
	}

	if len(result.Trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(result.Trips))
	}
	hit := result.Trips[0]
	if hit.Trip.ID != "trip-near" {
		t.Errorf("hit = %s, want trip-near", hit.Trip.ID)
	}
	if hit.Route == nil || hit.Route.Name != "City - Airport" {
		t.Error("hit should carry its route")
	}
	if hit.PerHeadPrice != 200 {
		t.Errorf("per-head price = %v, want 200 for a second rider", hit.PerHeadPrice)
	}
	if len(result.Options) == 0 {
		t.Error("search should always offer vehicle options")
	}
}

func TestSearchSurvivesDeadGeoIndex(t *testing.T) {
	t.Parallel()

	finder := &MockRouteFinder{Err: errors.New("redis down")}
	trips, _, _, svc := newSearchFixture(finder)

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 1, 3, 400)
	trip.RouteID = "route-9"
	trips.AddTrip(trip)

	result, err := svc.SearchTrips(context.Background(), service.SearchRequest{
		PickupLat: 12.97, PickupLng: 77.59, Seats: 1,
	})
	if err != nil {
		t.Fatalf("SearchTrips should degrade, not fail: %v", err)
	}
	if len(result.Trips) != 1 {
		t.Errorf("expected the un-scoped search to find 1 trip, got %d", len(result.Trips))
	}
}

func TestSearchSkipsFullAndTerminalTrips(t *testing.T) {
	t.Parallel()

	finder := &MockRouteFinder{RouteIDs: []string{"route-1"}}
	trips, _, _, svc := newSearchFixture(finder)

	full := newPoolTrip("trip-full", domain.TripStatusMinReached, 4, 4, 3, 400)
	trips.AddTrip(full)

	done := newPoolTrip("trip-done", domain.TripStatusCompleted, 4, 3, 3, 400)
	trips.AddTrip(done)

	private := newPoolTrip("trip-private", domain.TripStatusMinReached, 4, 1, 1, 400)
	private.IsPrivate = true
	trips.AddTrip(private)

	open := newPoolTrip("trip-open", domain.TripStatusFilling, 4, 1, 3, 400)
	trips.AddTrip(open)

	result, err := svc.SearchTrips(context.Background(), service.SearchRequest{RouteID: "route-1", Seats: 1})
	if err != nil {
		t.Fatalf("SearchTrips failed: %v", err)
	}
	if len(result.Trips) != 1 {
		t.Fatalf("expected only the open trip, got %d hits", len(result.Trips))
	}
	if result.Trips[0].Trip.ID != "trip-open" {
		t.Errorf("hit = %s, want trip-open", result.Trips[0].Trip.ID)
	}
}

// ──────────────────────────────────────────────
// GEO INDEX SEEDING
// ──────────────────────────────────────────────

func TestIndexActiveRoutesSeedsGeoStore(t *testing.T) {
	t.Parallel()

	finder := &MockRouteFinder{}
	_, routes, geo, svc := newSearchFixture(finder)

	routes.AddRoute(&domain.Route{ID: "route-1", Name: "A", OriginLat: 12.9, OriginLng: 77.5, Active: true})
	routes.AddRoute(&domain.Route{ID: "route-2", Name: "B", OriginLat: 13.1, OriginLng: 77.7, Active: true})
	routes.AddRoute(&domain.Route{ID: "route-3", Name: "C", Active: false})

	if err := svc.IndexActiveRoutes(context.Background()); err != nil {
		t.Fatalf("IndexActiveRoutes failed: %v", err)
	}
	if geo.CountIndexed() != 2 {
		t.Errorf("indexed routes = %d, want 2 (inactive skipped)", geo.CountIndexed())
	}
}

func TestGeoRouteFinderReturnsRouteIDs(t *testing.T) {
	t.Parallel()

	geo := NewMockRouteGeoStore()
	if err := geo.IndexRoute(context.Background(), "route-1", 12.9, 77.5); err != nil {
		t.Fatalf("IndexRoute failed: %v", err)
	}

	finder := service.NewGeoRouteFinder(geo)
	ids, err := finder.NearbyRouteIDs(context.Background(), 12.9, 77.5, 5)
	if err != nil {
		t.Fatalf("NearbyRouteIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "route-1" {
		t.Errorf("ids = %v, want [route-1]", ids)
	}
}
