package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"poolride/internal/domain"
	"poolride/internal/repository"
)

// RouteRepository is a PostgreSQL implementation of
// repository.RouteRepository.
type RouteRepository struct {
	q Querier
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

const routeColumns = `
	id, name, origin_lat, origin_lng, dest_lat, dest_lng, distance_km,
	price_multiplier, bidirectional, active`

func scanRoute(s rowScanner) (*domain.Route, error) {
	var route domain.Route
	err := s.Scan(
		&route.ID,
		&route.Name,
		&route.OriginLat,
		&route.OriginLng,
		&route.DestLat,
		&route.DestLng,
		&route.DistanceKm,
		&route.PriceMultiplier,
		&route.Bidirectional,
		&route.Active,
	)
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// GetByID retrieves a route by ID.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `SELECT` + routeColumns + ` FROM routes WHERE id = $1`

	route, err := scanRoute(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return route, nil
}

// GetByIDs retrieves routes by ID, keeping only those that exist.
func (r *RouteRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Route, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT` + routeColumns + ` FROM routes WHERE id = ANY($1)`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, rows.Err()
}

// GetAllActive retrieves all active routes.
func (r *RouteRepository) GetAllActive(ctx context.Context) ([]*domain.Route, error) {
	query := `SELECT` + routeColumns + ` FROM routes WHERE active = TRUE ORDER BY name ASC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, rows.Err()
}

// Ensure RouteRepository implements repository.RouteRepository.
var _ repository.RouteRepository = (*RouteRepository)(nil)
