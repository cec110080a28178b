package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const routeOriginKey = "routes:origins"

// RoutePoint represents a route origin in the geo index.
type RoutePoint struct {
	RouteID string
	Lat     float64
	Lng     float64
}

// RouteGeoStore indexes route origin points in Redis for nearby lookups.
type RouteGeoStore struct {
	client *redis.Client
}

// NewRouteGeoStore creates a new RouteGeoStore.
func NewRouteGeoStore(client *redis.Client) *RouteGeoStore {
	return &RouteGeoStore{client: client}
}

// IndexRoute stores a route's origin using GEOADD.
func (s *RouteGeoStore) IndexRoute(ctx context.Context, routeID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, routeOriginKey, &redis.GeoLocation{
		Name:      routeID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyRoutes returns route IDs whose origin lies within the given
// radius (in kilometers), nearest first.
func (s *RouteGeoStore) FindNearbyRoutes(ctx context.Context, lat, lng, radiusKm float64) ([]RoutePoint, error) {
	results, err := s.client.GeoRadius(ctx, routeOriginKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	points := make([]RoutePoint, 0, len(results))
	for _, r := range results {
		points = append(points, RoutePoint{
			RouteID: r.Name,
			Lat:     r.Latitude,
			Lng:     r.Longitude,
		})
	}

	return points, nil
}

// RemoveRoute removes a route's origin from the geo index.
func (s *RouteGeoStore) RemoveRoute(ctx context.Context, routeID string) error {
	return s.client.ZRem(ctx, routeOriginKey, routeID).Err()
}
