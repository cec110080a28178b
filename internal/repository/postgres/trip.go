package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"poolride/internal/domain"
	"poolride/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `
	id, code, route_id, vehicle_type, status, total_seats, seats_booked,
	min_seats, total_price, current_per_head_price, scheduled_departure,
	countdown_expiry, pickup_lat, pickup_lng, drop_lat, drop_lng,
	is_private, return_trip, return_trip_guarantee, night_fare_enabled,
	night_fare_start_hour, night_fare_end_hour, night_fare_multiplier,
	driver_id, passengers_onboarded, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(s rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var routeID, driverID sql.NullString
	var countdownExpiry sql.NullTime

	err := s.Scan(
		&trip.ID,
		&trip.Code,
		&routeID,
		&trip.VehicleType,
		&trip.Status,
		&trip.TotalSeats,
		&trip.SeatsBooked,
		&trip.MinSeats,
		&trip.TotalPrice,
		&trip.CurrentPerHeadPrice,
		&trip.ScheduledDeparture,
		&countdownExpiry,
		&trip.PickupLat,
		&trip.PickupLng,
		&trip.DropLat,
		&trip.DropLng,
		&trip.IsPrivate,
		&trip.ReturnTrip,
		&trip.ReturnTripGuarantee,
		&trip.NightFareEnabled,
		&trip.NightFareStartHour,
		&trip.NightFareEndHour,
		&trip.NightFareMultiplier,
		&driverID,
		&trip.PassengersOnboarded,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if routeID.Valid {
		trip.RouteID = routeID.String
	}
	if driverID.Valid {
		trip.DriverID = driverID.String
	}
	if countdownExpiry.Valid {
		trip.CountdownExpiry = countdownExpiry.Time
	}

	return &trip, nil
}

func tripArgs(trip *domain.Trip) []any {
	var routeID, driverID sql.NullString
	if trip.RouteID != "" {
		routeID = sql.NullString{String: trip.RouteID, Valid: true}
	}
	if trip.DriverID != "" {
		driverID = sql.NullString{String: trip.DriverID, Valid: true}
	}

	var countdownExpiry sql.NullTime
	if !trip.CountdownExpiry.IsZero() {
		countdownExpiry = sql.NullTime{Time: trip.CountdownExpiry, Valid: true}
	}

	return []any{
		trip.Code,
		routeID,
		trip.VehicleType,
		trip.Status,
		trip.TotalSeats,
		trip.SeatsBooked,
		trip.MinSeats,
		trip.TotalPrice,
		trip.CurrentPerHeadPrice,
		trip.ScheduledDeparture,
		countdownExpiry,
		trip.PickupLat,
		trip.PickupLng,
		trip.DropLat,
		trip.DropLng,
		trip.IsPrivate,
		trip.ReturnTrip,
		trip.ReturnTripGuarantee,
		trip.NightFareEnabled,
		trip.NightFareStartHour,
		trip.NightFareEndHour,
		trip.NightFareMultiplier,
		driverID,
		trip.PassengersOnboarded,
		trip.CreatedAt,
		trip.UpdatedAt,
	}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($27, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	args := append(tripArgs(trip), trip.ID)
	_, err := r.q.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// GetByIDForUpdate retrieves a trip by ID taking a row lock. Seat counts
// may only be mutated under this lock.
func (r *TripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips SET
			code = $1, route_id = $2, vehicle_type = $3, status = $4,
			total_seats = $5, seats_booked = $6, min_seats = $7,
			total_price = $8, current_per_head_price = $9,
			scheduled_departure = $10, countdown_expiry = $11,
			pickup_lat = $12, pickup_lng = $13, drop_lat = $14, drop_lng = $15,
			is_private = $16, return_trip = $17, return_trip_guarantee = $18,
			night_fare_enabled = $19, night_fare_start_hour = $20,
			night_fare_end_hour = $21, night_fare_multiplier = $22,
			driver_id = $23, passengers_onboarded = $24, created_at = $25,
			updated_at = $26
		WHERE id = $27
	`

	args := append(tripArgs(trip), trip.ID)
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// FindOpen retrieves joinable pool trips, newest first.
func (r *TripRepository) FindOpen(ctx context.Context, routeID, vehicleType string, seatsNeeded int) ([]*domain.Trip, error) {
	query := `
		SELECT` + tripColumns + `
		FROM trips
		WHERE status IN ($1, $2, $3)
		  AND is_private = FALSE
		  AND total_seats - seats_booked >= $4
		  AND ($5 = '' OR route_id = $5)
		  AND ($6 = '' OR vehicle_type = $6)
		ORDER BY created_at DESC
		LIMIT 50
	`

	rows, err := r.q.QueryContext(ctx, query,
		domain.TripStatusPending,
		domain.TripStatusFilling,
		domain.TripStatusMinReached,
		seatsNeeded,
		routeID,
		vehicleType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// FindFillingPastCountdown retrieves FILLING trips with an elapsed countdown.
func (r *TripRepository) FindFillingPastCountdown(ctx context.Context, now time.Time) ([]*domain.Trip, error) {
	query := `
		SELECT` + tripColumns + `
		FROM trips
		WHERE status = $1 AND countdown_expiry IS NOT NULL AND countdown_expiry < $2
	`

	rows, err := r.q.QueryContext(ctx, query, domain.TripStatusFilling, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// FindReturnCandidate retrieves a pending reverse-direction trip for the
// driver on the same route. Returns nil if no candidate exists.
func (r *TripRepository) FindReturnCandidate(ctx context.Context, driverID, routeID string, pickupLat, pickupLng float64) (*domain.Trip, error) {
	query := `
		SELECT` + tripColumns + `
		FROM trips
		WHERE driver_id = $1 AND route_id = $2
		  AND status IN ($3, $4)
		  AND pickup_lat = $5 AND pickup_lng = $6
		ORDER BY scheduled_departure ASC
		LIMIT 1
	`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query,
		driverID, routeID,
		domain.TripStatusPending, domain.TripStatusFilling,
		pickupLat, pickupLng,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
