package domain

import "time"

// DriverStatus represents the current status of a driver.
type DriverStatus string

const (
	DriverStatusOnline  DriverStatus = "ONLINE"
	DriverStatusOffline DriverStatus = "OFFLINE"
	DriverStatusOnTrip  DriverStatus = "ON_TRIP"
)

// Driver represents a driver in the system. The mobile number is withheld
// from booking responses until the booking is confirmed.
type Driver struct {
	ID          string
	Name        string
	Phone       string
	VehicleType string
	Status      DriverStatus
	CreatedAt   time.Time
}
