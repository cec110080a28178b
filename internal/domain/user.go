package domain

import "time"

// User represents a customer who books seats on trips.
type User struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}
