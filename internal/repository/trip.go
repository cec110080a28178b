package repository

import (
	"context"
	"time"

	"poolride/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByIDForUpdate retrieves a trip by ID taking a row lock. Callers
	// must hold a transaction for the lock to outlive the statement.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// FindOpen retrieves joinable pool trips, newest first. routeID and
	// vehicleType are optional filters; seatsNeeded bounds availability.
	FindOpen(ctx context.Context, routeID, vehicleType string, seatsNeeded int) ([]*domain.Trip, error)

	// FindFillingPastCountdown retrieves FILLING trips whose countdown
	// elapsed before now.
	FindFillingPastCountdown(ctx context.Context, now time.Time) ([]*domain.Trip, error)

	// FindReturnCandidate retrieves a PENDING or FILLING trip for the same
	// driver and route departing from the given point (the completed trip's
	// drop). Returns nil if no candidate exists.
	FindReturnCandidate(ctx context.Context, driverID, routeID string, pickupLat, pickupLng float64) (*domain.Trip, error)
}
