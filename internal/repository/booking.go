package repository

import (
	"context"
	"time"

	"poolride/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// Update updates an existing booking.
	Update(ctx context.Context, booking *domain.Booking) error

	// GetByTripID retrieves all bookings on a trip.
	GetByTripID(ctx context.Context, tripID string) ([]*domain.Booking, error)

	// FindConfirmedByTripID retrieves CONFIRMED bookings on a trip, oldest
	// confirmation first.
	FindConfirmedByTripID(ctx context.Context, tripID string) ([]*domain.Booking, error)

	// FindStale retrieves HOLD/PENDING bookings created before cutoff.
	FindStale(ctx context.Context, cutoff time.Time) ([]*domain.Booking, error)

	// FindCashCommissionDue retrieves CASH bookings with completed payment
	// and an undeducted commission, confirmed within [from, to).
	FindCashCommissionDue(ctx context.Context, from, to time.Time) ([]*domain.Booking, error)

	// FindByDriverConfirmedBetween retrieves bookings confirmed within
	// [from, to) on trips assigned to the driver.
	FindByDriverConfirmedBetween(ctx context.Context, driverID string, from, to time.Time) ([]*domain.Booking, error)
}
