package service

import "errors"

var (
	// ErrInvalidUserID is returned when the user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidTripID is returned when the trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidBookingID is returned when the booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidDriverID is returned when the driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location coordinates")

	// ErrInvalidSeatCount is returned when a request asks for fewer than
	// one seat.
	ErrInvalidSeatCount = errors.New("invalid seat count")

	// ErrInvalidVehicleType is returned when the vehicle type is empty.
	ErrInvalidVehicleType = errors.New("invalid vehicle type")

	// ErrInvalidPaymentMethod is returned when the payment method is not
	// one of ONLINE, UPI, WALLET, CASH.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrCapacityExceeded is returned when a reservation asks for more
	// seats than the trip has left. Distinct from the invalid-state errors
	// so callers can offer alternatives.
	ErrCapacityExceeded = errors.New("seat capacity exceeded")

	// ErrTripNotJoinable is returned when a pool booking targets a trip
	// that is private or no longer filling.
	ErrTripNotJoinable = errors.New("trip cannot be joined")

	// ErrBookingNotConfirmable is returned when confirming a booking that
	// is not HOLD or PENDING.
	ErrBookingNotConfirmable = errors.New("booking cannot be confirmed in current state")

	// ErrBookingNotCancellable is returned when cancelling a completed,
	// cancelled or refunded booking.
	ErrBookingNotCancellable = errors.New("booking cannot be cancelled in current state")

	// ErrBookingNotConfirmed is returned when an operation requires a
	// CONFIRMED booking.
	ErrBookingNotConfirmed = errors.New("booking not confirmed")

	// ErrTripNotDispatchable is returned when dispatching a trip that has
	// not reached its minimum seats.
	ErrTripNotDispatchable = errors.New("trip cannot be dispatched in current state")

	// ErrTripNotStartable is returned when starting a trip that is not
	// DISPATCHED.
	ErrTripNotStartable = errors.New("trip cannot be started in current state")

	// ErrTripNotCompletable is returned when completing a trip that is not
	// IN_PROGRESS.
	ErrTripNotCompletable = errors.New("trip cannot be completed in current state")

	// ErrTripAlreadyTerminal is returned when mutating a completed,
	// cancelled or expired trip.
	ErrTripAlreadyTerminal = errors.New("trip already in terminal state")

	// ErrOTPMismatch is returned when the boarding OTP does not match.
	ErrOTPMismatch = errors.New("otp mismatch")

	// ErrOTPAlreadyVerified is returned when the boarding OTP was already
	// used.
	ErrOTPAlreadyVerified = errors.New("otp already verified")

	// ErrInsufficientBalance is returned by wallet debits that exceed the
	// owner's balance.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrSwitchInProgress is returned when another switch already holds the
	// trip lock.
	ErrSwitchInProgress = errors.New("another switch is in progress for this trip")
)
