package redis

import (
	"context"
	"time"
)

// RouteGeoStoreInterface defines the interface for the route geo index.
type RouteGeoStoreInterface interface {
	IndexRoute(ctx context.Context, routeID string, lat, lng float64) error
	FindNearbyRoutes(ctx context.Context, lat, lng, radiusKm float64) ([]RoutePoint, error)
	RemoveRoute(ctx context.Context, routeID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// CacheStoreInterface defines the interface for trip availability caching.
type CacheStoreInterface interface {
	GetAvailability(ctx context.Context, tripID string) (*CachedAvailability, error)
	SetAvailability(ctx context.Context, a *CachedAvailability) error
	InvalidateAvailability(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ RouteGeoStoreInterface = (*RouteGeoStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ CacheStoreInterface    = (*CacheStore)(nil)
)
