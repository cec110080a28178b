package domain

import "time"

// BookingType represents how seats are purchased.
type BookingType string

const (
	BookingTypePrivate   BookingType = "PRIVATE"
	BookingTypeSharePool BookingType = "SHARE_POOL"
)

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusHold      BookingStatus = "HOLD"
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusRefunded  BookingStatus = "REFUNDED"
)

// PaymentStatus represents the payment state of a booking.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// PaymentMethod represents the payment method for a booking.
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodUPI    PaymentMethod = "UPI"
	PaymentMethodWallet PaymentMethod = "WALLET"
	PaymentMethodCash   PaymentMethod = "CASH"
)

// InstantSettlement reports whether the method settles the platform
// commission immediately at confirmation. Cash settles in the daily sweep.
func (m PaymentMethod) InstantSettlement() bool {
	switch m {
	case PaymentMethodOnline, PaymentMethodUPI, PaymentMethodWallet:
		return true
	}
	return false
}

// Booking represents a customer's purchase of seats on a trip.
type Booking struct {
	ID                   string
	Code                 string
	UserID               string
	TripID               string
	BookingType          BookingType
	Status               BookingStatus
	SeatsBooked          int
	TotalAmount          float64
	PerSeatAmount        float64
	PaymentStatus        PaymentStatus
	PaymentMethod        PaymentMethod
	PaymentRef           string
	CommissionAmount     float64 // frozen at confirmation, never recomputed
	CommissionDeducted   bool
	CommissionDeductedAt time.Time
	OTP                  string
	OTPVerified          bool
	OTPVerifiedAt        time.Time
	PassengersOnboarded  int
	RefundAmount         float64
	CancelReason         string
	ConfirmedAt          time.Time
	CancelledAt          time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Cancellable reports whether the booking may still be cancelled.
func (b *Booking) Cancellable() bool {
	switch b.Status {
	case BookingStatusHold, BookingStatusPending, BookingStatusConfirmed:
		return true
	}
	return false
}

// Confirmable reports whether the booking may be confirmed.
func (b *Booking) Confirmable() bool {
	return b.Status == BookingStatusHold || b.Status == BookingStatusPending
}
