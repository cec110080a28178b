package repository

import (
	"context"
	"time"

	"poolride/internal/domain"
)

// ReservationRepository defines the persistence operations for seat
// reservations.
type ReservationRepository interface {
	// Create persists a new seat reservation.
	Create(ctx context.Context, r *domain.SeatReservation) error

	// GetByBookingID retrieves all reservations of a booking.
	GetByBookingID(ctx context.Context, bookingID string) ([]*domain.SeatReservation, error)

	// GetActiveByTripID retrieves LOCKED and BOOKED reservations on a trip,
	// ordered by seat number.
	GetActiveByTripID(ctx context.Context, tripID string) ([]*domain.SeatReservation, error)

	// ConfirmByBookingID moves a booking's LOCKED reservations to BOOKED and
	// clears their lock expiry. Already-BOOKED rows are untouched, so the
	// operation is idempotent.
	ConfirmByBookingID(ctx context.Context, bookingID string) error

	// CancelByBookingID cancels a booking's active reservations and returns
	// how many rows changed.
	CancelByBookingID(ctx context.Context, bookingID string) (int, error)

	// CancelIfLocked cancels a single reservation only if it is still
	// LOCKED. Returns false when another actor already resolved it.
	CancelIfLocked(ctx context.Context, id string) (bool, error)

	// FindExpiredLocked retrieves LOCKED reservations whose lock expiry is
	// before now.
	FindExpiredLocked(ctx context.Context, now time.Time) ([]*domain.SeatReservation, error)

	// CountActiveByBookingID counts a booking's LOCKED and BOOKED rows.
	CountActiveByBookingID(ctx context.Context, bookingID string) (int, error)
}
