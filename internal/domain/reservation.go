package domain

import "time"

// ReservationStatus represents the lifecycle of a single seat hold.
type ReservationStatus string

const (
	ReservationStatusLocked    ReservationStatus = "LOCKED"
	ReservationStatusBooked    ReservationStatus = "BOOKED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// SeatReservation is a per-seat record on a trip. A LOCKED reservation is a
// time-boxed soft hold pending payment; the sweeper cancels any LOCKED
// reservation that outlives LockExpiry.
type SeatReservation struct {
	ID             string
	TripID         string
	BookingID      string
	UserID         string
	SeatNumber     int
	Status         ReservationStatus
	PricePaid      float64
	PassengerName  string
	PassengerPhone string
	LockExpiry     time.Time // zero once the seat is BOOKED
	CreatedAt      time.Time
}

// Active reports whether the reservation currently holds a seat.
func (r *SeatReservation) Active() bool {
	return r.Status == ReservationStatusLocked || r.Status == ReservationStatusBooked
}
