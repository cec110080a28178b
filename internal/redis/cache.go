package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles trip availability caching in Redis. Search reads go
// through here; booking mutations invalidate.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// TripAvailabilityTTL is short because seat counts change with every
// booking and sweep.
const TripAvailabilityTTL = 10 * time.Second

const tripAvailabilityPrefix = "cache:trip:availability:"

// CachedAvailability represents the cached seat availability of a trip.
type CachedAvailability struct {
	TripID         string  `json:"trip_id"`
	Status         string  `json:"status"`
	SeatsAvailable int     `json:"seats_available"`
	PerHeadPrice   float64 `json:"per_head_price"`
	PriceMessage   string  `json:"price_message"`
}

// GetAvailability retrieves a trip's cached availability. Returns nil on a
// cache miss.
func (s *CacheStore) GetAvailability(ctx context.Context, tripID string) (*CachedAvailability, error) {
	key := tripAvailabilityPrefix + tripID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var cached CachedAvailability
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

// SetAvailability stores a trip's availability in cache.
func (s *CacheStore) SetAvailability(ctx context.Context, a *CachedAvailability) error {
	key := tripAvailabilityPrefix + a.TripID
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, TripAvailabilityTTL).Err()
}

// InvalidateAvailability removes a trip's availability from cache.
func (s *CacheStore) InvalidateAvailability(ctx context.Context, tripID string) error {
	key := tripAvailabilityPrefix + tripID
	return s.client.Del(ctx, key).Err()
}
