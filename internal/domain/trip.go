package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusPending    TripStatus = "PENDING"
	TripStatusFilling    TripStatus = "FILLING"
	TripStatusMinReached TripStatus = "MIN_REACHED"
	TripStatusDispatched TripStatus = "DISPATCHED"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
	TripStatusExpired    TripStatus = "EXPIRED"
)

// Trip is the aggregate root of the pooling engine. Seat reservations
// reference it by trip_id; seatsBooked mirrors the count of active
// reservations and must never exceed TotalSeats.
type Trip struct {
	ID                  string
	Code                string
	RouteID             string // empty when the trip is off-route
	VehicleType         string
	Status              TripStatus
	TotalSeats          int
	SeatsBooked         int
	MinSeats            int
	TotalPrice          float64
	CurrentPerHeadPrice float64
	ScheduledDeparture  time.Time
	CountdownExpiry     time.Time // zero when no countdown is running
	PickupLat           float64
	PickupLng           float64
	DropLat             float64
	DropLng             float64
	IsPrivate           bool
	ReturnTrip          bool
	ReturnTripGuarantee bool
	NightFareEnabled    bool
	NightFareStartHour  int
	NightFareEndHour    int
	NightFareMultiplier float64
	DriverID            string // empty until a driver is assigned
	PassengersOnboarded int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AvailableSeats returns the number of seats not currently held.
func (t *Trip) AvailableSeats() int {
	return t.TotalSeats - t.SeatsBooked
}

// MinSeatsMet reports whether the trip has enough seats booked to run.
func (t *Trip) MinSeatsMet() bool {
	return t.SeatsBooked >= t.MinSeats
}

// IsTerminal reports whether the trip is in a terminal state.
func (t *Trip) IsTerminal() bool {
	switch t.Status {
	case TripStatusCompleted, TripStatusCancelled, TripStatusExpired:
		return true
	}
	return false
}

// Joinable reports whether a pool booking may still join this trip.
func (t *Trip) Joinable() bool {
	if t.IsPrivate {
		return false
	}
	switch t.Status {
	case TripStatusPending, TripStatusFilling, TripStatusMinReached:
		return true
	}
	return false
}
