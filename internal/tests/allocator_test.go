package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"poolride/internal/domain"
	"poolride/internal/service"
)

var tripRowColumns = []string{
	"id", "code", "route_id", "vehicle_type", "status", "total_seats", "seats_booked",
	"min_seats", "total_price", "current_per_head_price", "scheduled_departure",
	"countdown_expiry", "pickup_lat", "pickup_lng", "drop_lat", "drop_lng",
	"is_private", "return_trip", "return_trip_guarantee", "night_fare_enabled",
	"night_fare_start_hour", "night_fare_end_hour", "night_fare_multiplier",
	"driver_id", "passengers_onboarded", "created_at", "updated_at",
}

var reservationRowColumns = []string{
	"id", "trip_id", "booking_id", "user_id", "seat_number", "status", "price_paid",
	"passenger_name", "passenger_phone", "lock_expiry", "created_at",
}

func tripRow(booked int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(tripRowColumns).AddRow(
		"trip-1", "TR-TEST", nil, "AUTO_4", string(domain.TripStatusFilling),
		4, booked, 3, 400.0, 400.0, now.Add(time.Hour),
		nil, 12.97, 77.59, 13.20, 77.71,
		false, false, false, false,
		22, 5, 1.25,
		nil, 0, now, now,
	)
}

// ──────────────────────────────────────────────
// RESERVE
// ──────────────────────────────────────────────

func TestSeatAllocatorReservesUnderRowLock(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	defer db.Close()

	now := time.Now()
	activeRows := sqlmock.NewRows(reservationRowColumns).AddRow(
		"rv-0", "trip-1", "bk-0", "user-0", 1, string(domain.ReservationStatusBooked),
		400.0, "Asha", "9990001111", nil, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow(1))
	mock.ExpectQuery(`FROM seat_reservations`).
		WithArgs("trip-1", string(domain.ReservationStatusLocked), string(domain.ReservationStatusBooked)).
		WillReturnRows(activeRows)
	mock.ExpectExec(`INSERT INTO seat_reservations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO seat_reservations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE trips SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	allocator := service.NewSeatAllocator(db, 10*time.Minute)
	reservations, err := allocator.ReserveSeats(context.Background(), service.ReserveSeatsRequest{
		TripID:       "trip-1",
		BookingID:    "bk-1",
		UserID:       "user-1",
		Count:        2,
		PerSeatPrice: 200,
		DefaultName:  "Ravi",
		DefaultPhone: "9990002222",
	})
	if err != nil {
		t.Fatalf("ReserveSeats failed: %v", err)
	}

	if len(reservations) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(reservations))
	}
	// Seat 1 is taken, so the next free seats are 2 and 3.
	if reservations[0].SeatNumber != 2 || reservations[1].SeatNumber != 3 {
		t.Errorf("seat numbers = %d, %d, want 2, 3", reservations[0].SeatNumber, reservations[1].SeatNumber)
	}
	for _, r := range reservations {
		if r.Status != domain.ReservationStatusLocked {
			t.Errorf("reservation status = %s, want LOCKED", r.Status)
		}
		if r.LockExpiry.IsZero() {
			t.Error("lock expiry should be set")
		}
		if r.PassengerName != "Ravi" {
			t.Errorf("passenger name = %q, want the booking user", r.PassengerName)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSeatAllocatorRollsBackOverCapacity(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow(3))
	mock.ExpectRollback()

	allocator := service.NewSeatAllocator(db, 10*time.Minute)
	_, err = allocator.ReserveSeats(context.Background(), service.ReserveSeatsRequest{
		TripID:    "trip-1",
		BookingID: "bk-1",
		UserID:    "user-1",
		Count:     2,
	})
	if !errors.Is(err, service.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSeatAllocatorValidation(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	defer db.Close()

	allocator := service.NewSeatAllocator(db, 10*time.Minute)

	_, err = allocator.ReserveSeats(context.Background(), service.ReserveSeatsRequest{Count: 1})
	if !errors.Is(err, service.ErrInvalidTripID) {
		t.Errorf("expected ErrInvalidTripID, got %v", err)
	}

	_, err = allocator.ReserveSeats(context.Background(), service.ReserveSeatsRequest{TripID: "trip-1"})
	if !errors.Is(err, service.ErrInvalidSeatCount) {
		t.Errorf("expected ErrInvalidSeatCount, got %v", err)
	}
}

// ──────────────────────────────────────────────
// CONFIRM AND RELEASE
// ──────────────────────────────────────────────

func TestSeatAllocatorConfirmsBookingAtomically(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE seat_reservations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	allocator := service.NewSeatAllocator(db, 10*time.Minute)
	booking := &domain.Booking{
		ID: "bk-1", Code: "BK-TEST", UserID: "user-1", TripID: "trip-1",
		BookingType: domain.BookingTypeSharePool, Status: domain.BookingStatusConfirmed,
		SeatsBooked: 1, TotalAmount: 400, PaymentStatus: domain.PaymentStatusCompleted,
		PaymentMethod: domain.PaymentMethodOnline,
		CreatedAt:     time.Now(), UpdatedAt: time.Now(),
	}

	if err := allocator.ConfirmBookingSeats(context.Background(), booking); err != nil {
		t.Fatalf("ConfirmBookingSeats failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSeatAllocatorReleasesUnderRowLock(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow(1))
	mock.ExpectExec(`UPDATE trips SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	allocator := service.NewSeatAllocator(db, 10*time.Minute)
	// Releasing more than held floors the count at zero instead of failing.
	if err := allocator.ReleaseSeats(context.Background(), "trip-1", 5); err != nil {
		t.Fatalf("ReleaseSeats failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
