package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"poolride/internal/domain"
	"poolride/internal/service"
)

func newLifecycleFixture() (*MockTripRepository, *MockBookingRepository, *service.TripLifecycleManager) {
	trips := NewMockTripRepository()
	bookings := NewMockBookingRepository()
	pricing := service.NewPricingEngine(NewMockVehicleConfigRepository())
	lm := service.NewTripLifecycleManager(trips, bookings, pricing, testBookingConfig())
	return trips, bookings, lm
}

// ──────────────────────────────────────────────
// SEAT TRANSITIONS
// ──────────────────────────────────────────────

func TestFirstSeatStartsCountdown(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusPending, 4, 1, 3, 400)
	trips.AddTrip(trip)

	if err := lm.HandleSeatsAdded(context.Background(), trip); err != nil {
		t.Fatalf("HandleSeatsAdded failed: %v", err)
	}

	if trip.Status != domain.TripStatusFilling {
		t.Errorf("status = %s, want FILLING", trip.Status)
	}
	if trip.CountdownExpiry.IsZero() {
		t.Error("countdown should start with the first seat")
	}
	if !trip.CountdownExpiry.After(time.Now()) {
		t.Error("countdown expiry should be in the future")
	}
	if trip.CurrentPerHeadPrice != 400 {
		t.Errorf("per-head price = %v, want 400", trip.CurrentPerHeadPrice)
	}

	stored := trips.GetTrip("trip-1")
	if stored.Status != domain.TripStatusFilling {
		t.Errorf("stored status = %s, want FILLING", stored.Status)
	}
}

func TestMinSeatsReachedPromotesTrip(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 3, 3, 400)
	trip.CountdownExpiry = time.Now().Add(5 * time.Minute)
	trips.AddTrip(trip)

	if err := lm.HandleSeatsAdded(context.Background(), trip); err != nil {
		t.Fatalf("HandleSeatsAdded failed: %v", err)
	}

	if trip.Status != domain.TripStatusMinReached {
		t.Errorf("status = %s, want MIN_REACHED", trip.Status)
	}
	if trip.CurrentPerHeadPrice != 133.34 {
		t.Errorf("per-head price = %v, want 133.34", trip.CurrentPerHeadPrice)
	}
}

func TestPrivateTripIsImmediatelyReady(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusPending, 4, 4, 4, 400)
	trip.IsPrivate = true
	trips.AddTrip(trip)

	if err := lm.HandleSeatsAdded(context.Background(), trip); err != nil {
		t.Fatalf("HandleSeatsAdded failed: %v", err)
	}

	if trip.Status != domain.TripStatusMinReached {
		t.Errorf("status = %s, want MIN_REACHED", trip.Status)
	}
	if !trip.CountdownExpiry.IsZero() {
		t.Error("private trips should not run a fill countdown")
	}
}

func TestSeatsAddedRejectsTerminalTrip(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusCancelled, 4, 1, 3, 400)
	trips.AddTrip(trip)

	err := lm.HandleSeatsAdded(context.Background(), trip)
	if !errors.Is(err, service.ErrTripAlreadyTerminal) {
		t.Errorf("expected ErrTripAlreadyTerminal, got %v", err)
	}
}

func TestSeatsRemovedWalksTripBack(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusMinReached, 4, 2, 3, 400)
	trip.CountdownExpiry = time.Now().Add(5 * time.Minute)
	trips.AddTrip(trip)

	if err := lm.HandleSeatsRemoved(context.Background(), trip); err != nil {
		t.Fatalf("HandleSeatsRemoved failed: %v", err)
	}
	if trip.Status != domain.TripStatusFilling {
		t.Errorf("status = %s, want FILLING", trip.Status)
	}

	trip.SeatsBooked = 0
	if err := lm.HandleSeatsRemoved(context.Background(), trip); err != nil {
		t.Fatalf("HandleSeatsRemoved failed: %v", err)
	}
	if trip.Status != domain.TripStatusPending {
		t.Errorf("status = %s, want PENDING", trip.Status)
	}
	if !trip.CountdownExpiry.IsZero() {
		t.Error("countdown should clear when the trip empties")
	}
}

// ──────────────────────────────────────────────
// AUTO-CONFIRM HEURISTIC
// ──────────────────────────────────────────────

func TestAutoConfirmHoldsTripWithEnoughConfirmedSeats(t *testing.T) {
	t.Parallel()
	trips, bookings, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 8, 3, 6, 1600)
	trips.AddTrip(trip)

	now := time.Now()
	bookings.AddBooking(&domain.Booking{
		ID: "bk-1", TripID: "trip-1", UserID: "user-1",
		Status: domain.BookingStatusConfirmed, SeatsBooked: 2, ConfirmedAt: now.Add(-10 * time.Minute),
	})
	bookings.AddBooking(&domain.Booking{
		ID: "bk-2", TripID: "trip-1", UserID: "user-2",
		Status: domain.BookingStatusConfirmed, SeatsBooked: 1, ConfirmedAt: now,
	})

	if err := lm.MaybeAutoConfirm(context.Background(), trip); err != nil {
		t.Fatalf("MaybeAutoConfirm failed: %v", err)
	}
	if trip.Status != domain.TripStatusMinReached {
		t.Errorf("status = %s, want MIN_REACHED", trip.Status)
	}
}

func TestAutoConfirmNeedsSeatsInBand(t *testing.T) {
	t.Parallel()
	trips, bookings, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 8, 2, 6, 1600)
	trips.AddTrip(trip)

	bookings.AddBooking(&domain.Booking{
		ID: "bk-1", TripID: "trip-1", UserID: "user-1",
		Status: domain.BookingStatusConfirmed, SeatsBooked: 2, ConfirmedAt: time.Now(),
	})

	if err := lm.MaybeAutoConfirm(context.Background(), trip); err != nil {
		t.Fatalf("MaybeAutoConfirm failed: %v", err)
	}
	if trip.Status != domain.TripStatusFilling {
		t.Errorf("status = %s, want FILLING (only 2 confirmed seats)", trip.Status)
	}
}

func TestAutoConfirmNeedsConfirmationsInsideWindow(t *testing.T) {
	t.Parallel()
	trips, bookings, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 8, 3, 6, 1600)
	trips.AddTrip(trip)

	now := time.Now()
	bookings.AddBooking(&domain.Booking{
		ID: "bk-1", TripID: "trip-1", UserID: "user-1",
		Status: domain.BookingStatusConfirmed, SeatsBooked: 2, ConfirmedAt: now.Add(-2 * time.Hour),
	})
	bookings.AddBooking(&domain.Booking{
		ID: "bk-2", TripID: "trip-1", UserID: "user-2",
		Status: domain.BookingStatusConfirmed, SeatsBooked: 1, ConfirmedAt: now,
	})

	if err := lm.MaybeAutoConfirm(context.Background(), trip); err != nil {
		t.Fatalf("MaybeAutoConfirm failed: %v", err)
	}
	if trip.Status != domain.TripStatusFilling {
		t.Errorf("status = %s, want FILLING (confirmations 2h apart)", trip.Status)
	}
}

// ──────────────────────────────────────────────
// DISPATCH, START, COMPLETE, CANCEL
// ──────────────────────────────────────────────

func TestDispatchAssignsDriver(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusMinReached, 4, 3, 3, 400)
	trips.AddTrip(trip)

	if err := lm.Dispatch(context.Background(), trip, "driver-1"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if trip.Status != domain.TripStatusDispatched {
		t.Errorf("status = %s, want DISPATCHED", trip.Status)
	}
	if trip.DriverID != "driver-1" {
		t.Errorf("driver = %s, want driver-1", trip.DriverID)
	}
}

func TestDispatchRequiresMinReached(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 1, 3, 400)
	trips.AddTrip(trip)

	err := lm.Dispatch(context.Background(), trip, "driver-1")
	if !errors.Is(err, service.ErrTripNotDispatchable) {
		t.Errorf("expected ErrTripNotDispatchable, got %v", err)
	}
}

func TestDispatchRequiresDriver(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusMinReached, 4, 3, 3, 400)
	trips.AddTrip(trip)

	err := lm.Dispatch(context.Background(), trip, "")
	if !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}
}

func TestStartAndCompleteGating(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusDispatched, 4, 3, 3, 400)
	trip.DriverID = "driver-1"
	trips.AddTrip(trip)

	if err := lm.Complete(context.Background(), trip); !errors.Is(err, service.ErrTripNotCompletable) {
		t.Errorf("expected ErrTripNotCompletable before start, got %v", err)
	}

	if err := lm.Start(context.Background(), trip); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if trip.Status != domain.TripStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", trip.Status)
	}

	if err := lm.Start(context.Background(), trip); !errors.Is(err, service.ErrTripNotStartable) {
		t.Errorf("expected ErrTripNotStartable on a running trip, got %v", err)
	}

	if err := lm.Complete(context.Background(), trip); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if trip.Status != domain.TripStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", trip.Status)
	}
}

func TestCancelClearsCountdown(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 1, 3, 400)
	trip.CountdownExpiry = time.Now().Add(5 * time.Minute)
	trips.AddTrip(trip)

	if err := lm.Cancel(context.Background(), trip); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if trip.Status != domain.TripStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", trip.Status)
	}
	if !trip.CountdownExpiry.IsZero() {
		t.Error("countdown should clear on cancellation")
	}

	if err := lm.Cancel(context.Background(), trip); !errors.Is(err, service.ErrTripAlreadyTerminal) {
		t.Errorf("expected ErrTripAlreadyTerminal on double cancel, got %v", err)
	}
}

// ──────────────────────────────────────────────
// RETURN-TRIP GUARANTEE
// ──────────────────────────────────────────────

func TestCompleteGrantsReturnGuarantee(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	outbound := newPoolTrip("trip-out", domain.TripStatusInProgress, 4, 3, 3, 400)
	outbound.DriverID = "driver-1"
	outbound.ReturnTrip = true
	outbound.DropLat = 13.20
	outbound.DropLng = 77.71
	trips.AddTrip(outbound)

	ret := newPoolTrip("trip-ret", domain.TripStatusPending, 4, 0, 1, 400)
	ret.DriverID = "driver-1"
	ret.PickupLat = 13.20
	ret.PickupLng = 77.71
	trips.AddTrip(ret)

	if err := lm.Complete(context.Background(), outbound); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	stored := trips.GetTrip("trip-ret")
	if !stored.ReturnTripGuarantee {
		t.Error("return trip should be guaranteed after the outbound completes")
	}
	if stored.MinSeats != 2 {
		t.Errorf("return trip minSeats = %d, want raised to 2", stored.MinSeats)
	}
}

func TestReturnGuaranteeNeverLowersMinSeats(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	outbound := newPoolTrip("trip-out", domain.TripStatusInProgress, 4, 3, 3, 400)
	outbound.DriverID = "driver-1"
	outbound.ReturnTrip = true
	outbound.DropLat = 13.20
	outbound.DropLng = 77.71
	trips.AddTrip(outbound)

	ret := newPoolTrip("trip-ret", domain.TripStatusPending, 4, 0, 3, 400)
	ret.DriverID = "driver-1"
	ret.PickupLat = 13.20
	ret.PickupLng = 77.71
	trips.AddTrip(ret)

	if err := lm.Complete(context.Background(), outbound); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	stored := trips.GetTrip("trip-ret")
	if !stored.ReturnTripGuarantee {
		t.Error("return trip should be guaranteed")
	}
	if stored.MinSeats != 3 {
		t.Errorf("return trip minSeats = %d, want unchanged 3", stored.MinSeats)
	}
}

func TestCompleteWithoutReturnFlagSkipsGuarantee(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	outbound := newPoolTrip("trip-out", domain.TripStatusInProgress, 4, 3, 3, 400)
	outbound.DriverID = "driver-1"
	outbound.DropLat = 13.20
	outbound.DropLng = 77.71
	trips.AddTrip(outbound)

	ret := newPoolTrip("trip-ret", domain.TripStatusPending, 4, 0, 1, 400)
	ret.DriverID = "driver-1"
	ret.PickupLat = 13.20
	ret.PickupLng = 77.71
	trips.AddTrip(ret)

	if err := lm.Complete(context.Background(), outbound); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	stored := trips.GetTrip("trip-ret")
	if stored.ReturnTripGuarantee {
		t.Error("an outbound without the return flag must not grant the guarantee")
	}
	if stored.MinSeats != 1 {
		t.Errorf("return trip minSeats = %d, want untouched 1", stored.MinSeats)
	}
}

func TestCompleteUnderfilledSkipsGuarantee(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	// Auto-confirmed trips can run with fewer seats than minSeats; those
	// runs earn no guarantee for the trip back.
	outbound := newPoolTrip("trip-out", domain.TripStatusInProgress, 4, 1, 3, 400)
	outbound.DriverID = "driver-1"
	outbound.ReturnTrip = true
	outbound.DropLat = 13.20
	outbound.DropLng = 77.71
	trips.AddTrip(outbound)

	ret := newPoolTrip("trip-ret", domain.TripStatusPending, 4, 0, 1, 400)
	ret.DriverID = "driver-1"
	ret.PickupLat = 13.20
	ret.PickupLng = 77.71
	trips.AddTrip(ret)

	if err := lm.Complete(context.Background(), outbound); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	stored := trips.GetTrip("trip-ret")
	if stored.ReturnTripGuarantee {
		t.Error("an underfilled outbound must not grant the guarantee")
	}
	if stored.MinSeats != 1 {
		t.Errorf("return trip minSeats = %d, want untouched 1", stored.MinSeats)
	}
}

// ──────────────────────────────────────────────
// COUNTDOWN RESOLUTION
// ──────────────────────────────────────────────

func TestCountdownExpiryPromotesWhenMinMet(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 3, 3, 400)
	trip.CountdownExpiry = time.Now().Add(-time.Minute)
	trips.AddTrip(trip)

	status, err := lm.HandleCountdownExpired(context.Background(), trip)
	if err != nil {
		t.Fatalf("HandleCountdownExpired failed: %v", err)
	}
	if status != domain.TripStatusMinReached {
		t.Errorf("landed status = %s, want MIN_REACHED", status)
	}
	if !trip.CountdownExpiry.IsZero() {
		t.Error("countdown should clear on resolution")
	}
}

func TestCountdownExpiryExpiresUnderfilledTrip(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 1, 3, 400)
	trip.CountdownExpiry = time.Now().Add(-time.Minute)
	trips.AddTrip(trip)

	status, err := lm.HandleCountdownExpired(context.Background(), trip)
	if err != nil {
		t.Fatalf("HandleCountdownExpired failed: %v", err)
	}
	if status != domain.TripStatusExpired {
		t.Errorf("landed status = %s, want EXPIRED", status)
	}
}

func TestCountdownExpiryIgnoresNonFillingTrips(t *testing.T) {
	t.Parallel()
	trips, _, lm := newLifecycleFixture()

	trip := newPoolTrip("trip-1", domain.TripStatusMinReached, 4, 3, 3, 400)
	trips.AddTrip(trip)

	status, err := lm.HandleCountdownExpired(context.Background(), trip)
	if err != nil {
		t.Fatalf("HandleCountdownExpired failed: %v", err)
	}
	if status != domain.TripStatusMinReached {
		t.Errorf("landed status = %s, want MIN_REACHED untouched", status)
	}
	if updates := trips.UpdateCallCount; updates != 0 {
		t.Errorf("expected no repository update, got %d", updates)
	}
}
