package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"poolride/internal/domain"
	"poolride/internal/repository/postgres"
)

// PassengerInfo carries the per-seat passenger details of a reservation.
type PassengerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ReserveSeatsRequest contains the parameters for reserving seats.
type ReserveSeatsRequest struct {
	TripID       string
	BookingID    string
	UserID       string
	Count        int
	PerSeatPrice float64
	// Passengers may be shorter than Count; missing entries fall back to
	// DefaultName/DefaultPhone (the booking user).
	Passengers   []PassengerInfo
	DefaultName  string
	DefaultPhone string
}

// Allocator reserves, confirms and releases seats against trip capacity.
type Allocator interface {
	// ReserveSeats atomically creates Count LOCKED reservations and bumps
	// the trip's seat count. Fails with ErrCapacityExceeded when the trip
	// cannot hold Count more seats at commit time.
	ReserveSeats(ctx context.Context, req ReserveSeatsRequest) ([]*domain.SeatReservation, error)

	// ConfirmBookingSeats persists the booking and moves its LOCKED
	// reservations to BOOKED in a single transaction: both commit or
	// neither does. Idempotent.
	ConfirmBookingSeats(ctx context.Context, booking *domain.Booking) error

	// ReleaseSeats decrements a trip's seat count, floored at zero.
	ReleaseSeats(ctx context.Context, tripID string, count int) error
}

// SeatAllocator is the PostgreSQL-backed Allocator. Every seat-count
// mutation runs under a row lock on the trip (SELECT ... FOR UPDATE), so
// two concurrent reservations serialize and cannot oversell capacity.
type SeatAllocator struct {
	db      *sql.DB
	lockTTL time.Duration
}

// NewSeatAllocator creates a new SeatAllocator. lockTTL bounds how long an
// unconfirmed LOCKED reservation survives.
func NewSeatAllocator(db *sql.DB, lockTTL time.Duration) *SeatAllocator {
	return &SeatAllocator{db: db, lockTTL: lockTTL}
}

// ReserveSeats atomically reserves seats on a trip.
func (a *SeatAllocator) ReserveSeats(ctx context.Context, req ReserveSeatsRequest) ([]*domain.SeatReservation, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.Count < 1 {
		return nil, ErrInvalidSeatCount
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txTripRepo := postgres.NewTripRepositoryWithTx(tx)
	txResvRepo := postgres.NewReservationRepositoryWithTx(tx)

	trip, err := txTripRepo.GetByIDForUpdate(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if trip.IsTerminal() {
		err = ErrTripAlreadyTerminal
		return nil, err
	}

	if trip.AvailableSeats() < req.Count {
		err = fmt.Errorf("trip %s has %d seat(s) left: %w", trip.ID, trip.AvailableSeats(), ErrCapacityExceeded)
		return nil, err
	}

	active, err := txResvRepo.GetActiveByTripID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	seatNumbers := nextSeatNumbers(active, req.Count)

	reservations := make([]*domain.SeatReservation, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		name, phone := req.DefaultName, req.DefaultPhone
		if i < len(req.Passengers) && req.Passengers[i].Name != "" {
			name = req.Passengers[i].Name
			if req.Passengers[i].Phone != "" {
				phone = req.Passengers[i].Phone
			}
		}

		resv := &domain.SeatReservation{
			ID:             uuid.New().String(),
			TripID:         req.TripID,
			BookingID:      req.BookingID,
			UserID:         req.UserID,
			SeatNumber:     seatNumbers[i],
			Status:         domain.ReservationStatusLocked,
			PricePaid:      req.PerSeatPrice,
			PassengerName:  name,
			PassengerPhone: phone,
			LockExpiry:     now.Add(a.lockTTL),
			CreatedAt:      now,
		}

		if err = txResvRepo.Create(ctx, resv); err != nil {
			return nil, err
		}

		reservations = append(reservations, resv)
	}

	trip.SeatsBooked += req.Count
	trip.UpdatedAt = now

	if err = txTripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return reservations, nil
}

// ConfirmBookingSeats commits the booking row and its seat confirmation
// together.
func (a *SeatAllocator) ConfirmBookingSeats(ctx context.Context, booking *domain.Booking) error {
	if booking == nil || booking.ID == "" {
		return ErrInvalidBookingID
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txBookingRepo := postgres.NewBookingRepositoryWithTx(tx)
	txResvRepo := postgres.NewReservationRepositoryWithTx(tx)

	if err = txBookingRepo.Update(ctx, booking); err != nil {
		return err
	}

	if err = txResvRepo.ConfirmByBookingID(ctx, booking.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// ReleaseSeats decrements a trip's seat count under the row lock.
func (a *SeatAllocator) ReleaseSeats(ctx context.Context, tripID string, count int) error {
	if tripID == "" {
		return ErrInvalidTripID
	}
	if count < 1 {
		return ErrInvalidSeatCount
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txTripRepo := postgres.NewTripRepositoryWithTx(tx)

	trip, err := txTripRepo.GetByIDForUpdate(ctx, tripID)
	if err != nil {
		return err
	}

	trip.SeatsBooked -= count
	if trip.SeatsBooked < 0 {
		trip.SeatsBooked = 0
	}
	trip.UpdatedAt = time.Now()

	if err = txTripRepo.Update(ctx, trip); err != nil {
		return err
	}

	return tx.Commit()
}

// nextSeatNumbers returns the count smallest positive seat numbers not held
// by an active reservation.
func nextSeatNumbers(active []*domain.SeatReservation, count int) []int {
	taken := make(map[int]bool, len(active))
	for _, r := range active {
		taken[r.SeatNumber] = true
	}

	numbers := make([]int, 0, count)
	for n := 1; len(numbers) < count; n++ {
		if !taken[n] {
			numbers = append(numbers, n)
		}
	}

	return numbers
}

// Ensure SeatAllocator implements Allocator.
var _ Allocator = (*SeatAllocator)(nil)
