package repository

import (
	"context"

	"poolride/internal/domain"
)

// RouteRepository defines the persistence operations for routes.
type RouteRepository interface {
	// GetByID retrieves a route by ID.
	GetByID(ctx context.Context, id string) (*domain.Route, error)

	// GetByIDs retrieves routes by ID, preserving only those that exist.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Route, error)

	// GetAllActive retrieves all active routes.
	GetAllActive(ctx context.Context) ([]*domain.Route, error)
}

// VehicleConfigRepository defines the persistence operations for the
// vehicle catalog.
type VehicleConfigRepository interface {
	// GetByType retrieves the active config for a vehicle type.
	GetByType(ctx context.Context, vehicleType string) (*domain.VehicleConfig, error)

	// GetActive retrieves all active vehicle configs.
	GetActive(ctx context.Context) ([]*domain.VehicleConfig, error)
}
