package postgres

import (
	"context"
	"database/sql"
	"time"

	"poolride/internal/domain"
	"poolride/internal/repository"
)

// ReservationRepository is a PostgreSQL implementation of
// repository.ReservationRepository.
type ReservationRepository struct {
	q Querier
}

// NewReservationRepository creates a new PostgreSQL reservation repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{q: db}
}

// NewReservationRepositoryWithTx creates a reservation repository using a
// transaction.
func NewReservationRepositoryWithTx(tx *sql.Tx) *ReservationRepository {
	return &ReservationRepository{q: tx}
}

const reservationColumns = `
	id, trip_id, booking_id, user_id, seat_number, status, price_paid,
	passenger_name, passenger_phone, lock_expiry, created_at`

func scanReservation(s rowScanner) (*domain.SeatReservation, error) {
	var r domain.SeatReservation
	var lockExpiry sql.NullTime

	err := s.Scan(
		&r.ID,
		&r.TripID,
		&r.BookingID,
		&r.UserID,
		&r.SeatNumber,
		&r.Status,
		&r.PricePaid,
		&r.PassengerName,
		&r.PassengerPhone,
		&lockExpiry,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lockExpiry.Valid {
		r.LockExpiry = lockExpiry.Time
	}

	return &r, nil
}

// Create persists a new seat reservation.
func (r *ReservationRepository) Create(ctx context.Context, resv *domain.SeatReservation) error {
	query := `
		INSERT INTO seat_reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var lockExpiry sql.NullTime
	if !resv.LockExpiry.IsZero() {
		lockExpiry = sql.NullTime{Time: resv.LockExpiry, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		resv.ID,
		resv.TripID,
		resv.BookingID,
		resv.UserID,
		resv.SeatNumber,
		resv.Status,
		resv.PricePaid,
		resv.PassengerName,
		resv.PassengerPhone,
		lockExpiry,
		resv.CreatedAt,
	)

	return err
}

func (r *ReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]*domain.SeatReservation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*domain.SeatReservation
	for rows.Next() {
		resv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, resv)
	}

	return reservations, rows.Err()
}

// GetByBookingID retrieves all reservations of a booking.
func (r *ReservationRepository) GetByBookingID(ctx context.Context, bookingID string) ([]*domain.SeatReservation, error) {
	query := `
		SELECT` + reservationColumns + `
		FROM seat_reservations
		WHERE booking_id = $1
		ORDER BY seat_number ASC
	`
	return r.queryReservations(ctx, query, bookingID)
}

// GetActiveByTripID retrieves LOCKED and BOOKED reservations on a trip.
func (r *ReservationRepository) GetActiveByTripID(ctx context.Context, tripID string) ([]*domain.SeatReservation, error) {
	query := `
		SELECT` + reservationColumns + `
		FROM seat_reservations
		WHERE trip_id = $1 AND status IN ($2, $3)
		ORDER BY seat_number ASC
	`
	return r.queryReservations(ctx, query, tripID,
		domain.ReservationStatusLocked, domain.ReservationStatusBooked)
}

// ConfirmByBookingID moves a booking's LOCKED reservations to BOOKED and
// clears their lock expiry. Idempotent.
func (r *ReservationRepository) ConfirmByBookingID(ctx context.Context, bookingID string) error {
	query := `
		UPDATE seat_reservations
		SET status = $1, lock_expiry = NULL
		WHERE booking_id = $2 AND status = $3
	`

	_, err := r.q.ExecContext(ctx, query,
		domain.ReservationStatusBooked, bookingID, domain.ReservationStatusLocked)
	return err
}

// CancelByBookingID cancels a booking's active reservations and returns how
// many rows changed.
func (r *ReservationRepository) CancelByBookingID(ctx context.Context, bookingID string) (int, error) {
	query := `
		UPDATE seat_reservations
		SET status = $1, lock_expiry = NULL
		WHERE booking_id = $2 AND status IN ($3, $4)
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.ReservationStatusCancelled, bookingID,
		domain.ReservationStatusLocked, domain.ReservationStatusBooked)
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

// CancelIfLocked cancels a reservation only if it is still LOCKED.
func (r *ReservationRepository) CancelIfLocked(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE seat_reservations
		SET status = $1, lock_expiry = NULL
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.ReservationStatusCancelled, id, domain.ReservationStatusLocked)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// FindExpiredLocked retrieves LOCKED reservations past their lock expiry.
func (r *ReservationRepository) FindExpiredLocked(ctx context.Context, now time.Time) ([]*domain.SeatReservation, error) {
	query := `
		SELECT` + reservationColumns + `
		FROM seat_reservations
		WHERE status = $1 AND lock_expiry IS NOT NULL AND lock_expiry < $2
	`
	return r.queryReservations(ctx, query, domain.ReservationStatusLocked, now)
}

// CountActiveByBookingID counts a booking's LOCKED and BOOKED reservations.
func (r *ReservationRepository) CountActiveByBookingID(ctx context.Context, bookingID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM seat_reservations
		WHERE booking_id = $1 AND status IN ($2, $3)
	`

	var count int
	err := r.q.QueryRowContext(ctx, query, bookingID,
		domain.ReservationStatusLocked, domain.ReservationStatusBooked).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Ensure ReservationRepository implements repository.ReservationRepository.
var _ repository.ReservationRepository = (*ReservationRepository)(nil)
