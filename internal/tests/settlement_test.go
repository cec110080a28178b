package tests

import (
	"context"
	"testing"
	"time"

	"poolride/internal/domain"
	"poolride/internal/service"
)

type settlementHarness struct {
	*bookingHarness
	reconciler *service.SettlementReconciler
}

func newSettlementHarness() *settlementHarness {
	h := newBookingHarness()
	reconciler := service.NewSettlementReconciler(
		h.trips, h.bookings, h.resv, h.allocator, h.lifecycle, h.service,
		h.wallet, service.NewNotificationService(), testSettlementConfig(),
	)
	return &settlementHarness{bookingHarness: h, reconciler: reconciler}
}

// ──────────────────────────────────────────────
// EXPIRED SEAT LOCKS
// ──────────────────────────────────────────────

func TestReleaseExpiredLocksFreesSeats(t *testing.T) {
	t.Parallel()
	h := newSettlementHarness()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 2, 3, 400)
	trip.CountdownExpiry = time.Now().Add(5 * time.Minute)
	h.trips.AddTrip(trip)

	h.bookings.AddBooking(&domain.Booking{
		ID: "bk-1", Code: "BK-TEST1", UserID: "user-1", TripID: "trip-1",
		Status: domain.BookingStatusHold, SeatsBooked: 2,
		PaymentStatus: domain.PaymentStatusPending, PaymentMethod: domain.PaymentMethodOnline,
		CreatedAt: time.Now(),
	})

	expired := time.Now().Add(-time.Minute)
	h.resv.AddReservation(&domain.SeatReservation{
		ID: "rv-1", TripID: "trip-1", BookingID: "bk-1", UserID: "user-1",
		SeatNumber: 1, Status: domain.ReservationStatusLocked, LockExpiry: expired,
	})
	h.resv.AddReservation(&domain.SeatReservation{
		ID: "rv-2", TripID: "trip-1", BookingID: "bk-1", UserID: "user-1",
		SeatNumber: 2, Status: domain.ReservationStatusLocked, LockExpiry: expired,
	})

	released, err := h.reconciler.ReleaseExpiredLocks(context.Background())
	if err != nil {
		t.Fatalf("ReleaseExpiredLocks failed: %v", err)
	}
	if released != 2 {
		t.Errorf("released = %d, want 2", released)
	}

	for _, id := range []string{"rv-1", "rv-2"} {
		if r := h.resv.GetReservation(id); r.Status != domain.ReservationStatusCancelled {
			t.Errorf("reservation %s status = %s, want CANCELLED", id, r.Status)
		}
	}

	stored := h.trips.GetTrip("trip-1")
	if stored.SeatsBooked != 0 {
		t.Errorf("seats booked = %d, want 0", stored.SeatsBooked)
	}
	if stored.Status != domain.TripStatusPending {
		t.Errorf("trip status = %s, want PENDING once emptied", stored.Status)
	}

	booking := h.bookings.GetBooking("bk-1")
	if booking.Status != domain.BookingStatusCancelled {
		t.Errorf("booking status = %s, want CANCELLED", booking.Status)
	}
	if booking.CancelReason != "Seat lock expired" {
		t.Errorf("cancel reason = %q", booking.CancelReason)
	}

	// The sweep is idempotent; a rerun finds nothing.
	released, err = h.reconciler.ReleaseExpiredLocks(context.Background())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if released != 0 {
		t.Errorf("second sweep released = %d, want 0", released)
	}
}

func TestReleaseExpiredLocksSparesBookedSeats(t *testing.T) {
	t.Parallel()
	h := newSettlementHarness()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 2, 3, 400)
	trip.CountdownExpiry = time.Now().Add(5 * time.Minute)
	h.trips.AddTrip(trip)

	h.bookings.AddBooking(&domain.Booking{
		ID: "bk-1", UserID: "user-1", TripID: "trip-1",
		Status: domain.BookingStatusHold, SeatsBooked: 2,
		PaymentStatus: domain.PaymentStatusPending, PaymentMethod: domain.PaymentMethodOnline,
		CreatedAt: time.Now(),
	})

	h.resv.AddReservation(&domain.SeatReservation{
		ID: "rv-1", TripID: "trip-1", BookingID: "bk-1", UserID: "user-1",
		SeatNumber: 1, Status: domain.ReservationStatusLocked, LockExpiry: time.Now().Add(-time.Minute),
	})
	h.resv.AddReservation(&domain.SeatReservation{
		ID: "rv-2", TripID: "trip-1", BookingID: "bk-1", UserID: "user-1",
		SeatNumber: 2, Status: domain.ReservationStatusBooked,
	})

	released, err := h.reconciler.ReleaseExpiredLocks(context.Background())
	if err != nil {
		t.Fatalf("ReleaseExpiredLocks failed: %v", err)
	}
	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}

	if r := h.resv.GetReservation("rv-2"); r.Status != domain.ReservationStatusBooked {
		t.Errorf("booked seat status = %s, want BOOKED untouched", r.Status)
	}

	// One seat still held, so the booking survives.
	if b := h.bookings.GetBooking("bk-1"); b.Status != domain.BookingStatusHold {
		t.Errorf("booking status = %s, want HOLD", b.Status)
	}

	if stored := h.trips.GetTrip("trip-1"); stored.SeatsBooked != 1 {
		t.Errorf("seats booked = %d, want 1", stored.SeatsBooked)
	}
}

// ──────────────────────────────────────────────
// PAYMENT TIMEOUTS
// ──────────────────────────────────────────────

func TestCancelTimedOutBookings(t *testing.T) {
	t.Parallel()
	h := newSettlementHarness()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 1, 3, 400)
	trip.CountdownExpiry = time.Now().Add(5 * time.Minute)
	h.trips.AddTrip(trip)

	h.bookings.AddBooking(&domain.Booking{
		ID: "bk-stale", UserID: "user-1", TripID: "trip-1",
		Status: domain.BookingStatusHold, SeatsBooked: 1,
		PaymentStatus: domain.PaymentStatusPending, PaymentMethod: domain.PaymentMethodOnline,
		CreatedAt: time.Now().Add(-time.Hour),
	})
	h.resv.AddReservation(&domain.SeatReservation{
		ID: "rv-1", TripID: "trip-1", BookingID: "bk-stale", UserID: "user-1",
		SeatNumber: 1, Status: domain.ReservationStatusLocked, LockExpiry: time.Now().Add(5 * time.Minute),
	})

	cancelled, err := h.reconciler.CancelTimedOutBookings(context.Background())
	if err != nil {
		t.Fatalf("CancelTimedOutBookings failed: %v", err)
	}
	if cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}

	booking := h.bookings.GetBooking("bk-stale")
	if booking.Status != domain.BookingStatusCancelled {
		t.Errorf("booking status = %s, want CANCELLED", booking.Status)
	}
	if booking.CancelReason != "Payment timeout" {
		t.Errorf("cancel reason = %q", booking.CancelReason)
	}

	if stored := h.trips.GetTrip("trip-1"); stored.SeatsBooked != 0 {
		t.Errorf("seats booked = %d, want 0", stored.SeatsBooked)
	}
}

// ──────────────────────────────────────────────
// EXPIRED COUNTDOWNS
// ──────────────────────────────────────────────

func TestCountdownSweepExpiresTripAndRefunds(t *testing.T) {
	t.Parallel()
	h := newSettlementHarness()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 1, 3, 400)
	trip.CountdownExpiry = time.Now().Add(-time.Minute)
	h.trips.AddTrip(trip)

	h.bookings.AddBooking(&domain.Booking{
		ID: "bk-1", UserID: "user-1", TripID: "trip-1",
		Status: domain.BookingStatusConfirmed, SeatsBooked: 1, TotalAmount: 400,
		PaymentStatus: domain.PaymentStatusCompleted, PaymentMethod: domain.PaymentMethodOnline,
		PaymentRef: "pay-9", ConfirmedAt: time.Now().Add(-20 * time.Minute), CreatedAt: time.Now().Add(-25 * time.Minute),
	})
	h.resv.AddReservation(&domain.SeatReservation{
		ID: "rv-1", TripID: "trip-1", BookingID: "bk-1", UserID: "user-1",
		SeatNumber: 1, Status: domain.ReservationStatusBooked,
	})

	resolved, err := h.reconciler.ProcessExpiredCountdowns(context.Background())
	if err != nil {
		t.Fatalf("ProcessExpiredCountdowns failed: %v", err)
	}
	if resolved != 1 {
		t.Errorf("resolved = %d, want 1", resolved)
	}

	if stored := h.trips.GetTrip("trip-1"); stored.Status != domain.TripStatusExpired {
		t.Errorf("trip status = %s, want EXPIRED", stored.Status)
	}

	booking := h.bookings.GetBooking("bk-1")
	if booking.Status != domain.BookingStatusRefunded {
		t.Errorf("booking status = %s, want REFUNDED", booking.Status)
	}
	if booking.CancelReason != "Trip expired" {
		t.Errorf("cancel reason = %q", booking.CancelReason)
	}
	if refunds := h.gateway.Refunds(); len(refunds) != 1 || refunds[0].Amount != 400 {
		t.Errorf("expected one full refund of 400, got %+v", refunds)
	}
}

func TestCountdownSweepPromotesFilledTrip(t *testing.T) {
	t.Parallel()
	h := newSettlementHarness()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 4, 3, 3, 400)
	trip.CountdownExpiry = time.Now().Add(-time.Minute)
	h.trips.AddTrip(trip)

	resolved, err := h.reconciler.ProcessExpiredCountdowns(context.Background())
	if err != nil {
		t.Fatalf("ProcessExpiredCountdowns failed: %v", err)
	}
	if resolved != 1 {
		t.Errorf("resolved = %d, want 1", resolved)
	}

	if stored := h.trips.GetTrip("trip-1"); stored.Status != domain.TripStatusMinReached {
		t.Errorf("trip status = %s, want MIN_REACHED", stored.Status)
	}
}

func TestCountdownSweepAppliesAutoConfirm(t *testing.T) {
	t.Parallel()
	h := newSettlementHarness()

	trip := newPoolTrip("trip-1", domain.TripStatusFilling, 8, 3, 6, 1600)
	trip.CountdownExpiry = time.Now().Add(-time.Minute)
	h.trips.AddTrip(trip)

	now := time.Now()
	h.bookings.AddBooking(&domain.Booking{
		ID: "bk-1", UserID: "user-1", TripID: "trip-1",
		Status: domain.BookingStatusConfirmed, SeatsBooked: 2,
		PaymentStatus: domain.PaymentStatusCompleted, PaymentMethod: domain.PaymentMethodOnline,
		ConfirmedAt: now.Add(-10 * time.Minute),
	})
	h.bookings.AddBooking(&domain.Booking{
		ID: "bk-2", UserID: "user-2", TripID: "trip-1",
		Status: domain.BookingStatusConfirmed, SeatsBooked: 1,
		PaymentStatus: domain.PaymentStatusCompleted, PaymentMethod: domain.PaymentMethodUPI,
		ConfirmedAt: now,
	})

	if _, err := h.reconciler.ProcessExpiredCountdowns(context.Background()); err != nil {
		t.Fatalf("ProcessExpiredCountdowns failed: %v", err)
	}

	if stored := h.trips.GetTrip("trip-1"); stored.Status != domain.TripStatusMinReached {
		t.Errorf("trip status = %s, want MIN_REACHED via the confirmed-seat heuristic", stored.Status)
	}
	if b := h.bookings.GetBooking("bk-1"); b.Status != domain.BookingStatusConfirmed {
		t.Errorf("booking status = %s, want CONFIRMED untouched", b.Status)
	}
	if len(h.gateway.Refunds()) != 0 {
		t.Error("a promoted trip must not refund anyone")
	}
}

// ──────────────────────────────────────────────
// DAILY CASH COMMISSION SWEEP
// ──────────────────────────────────────────────

func TestDeductCashCommissions(t *testing.T) {
	t.Parallel()
	h := newSettlementHarness()
	ctx := context.Background()

	trip := newPoolTrip("trip-1", domain.TripStatusCompleted, 4, 3, 3, 400)
	trip.DriverID = "driver-1"
	h.trips.AddTrip(trip)

	h.bookings.AddBooking(&domain.Booking{
		ID: "bk-cash", UserID: "user-1", TripID: "trip-1",
		Status: domain.BookingStatusCompleted, SeatsBooked: 1, TotalAmount: 400,
		PaymentStatus: domain.PaymentStatusCompleted, PaymentMethod: domain.PaymentMethodCash,
		CommissionAmount: 20, ConfirmedAt: time.Now(),
	})

	if err := h.wallet.Credit(ctx, service.OwnerDriver, "driver-1", 100, "TOPUP", "t-1", "test float"); err != nil {
		t.Fatalf("wallet credit failed: %v", err)
	}

	deducted, err := h.reconciler.DeductCashCommissions(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeductCashCommissions failed: %v", err)
	}
	if deducted != 1 {
		t.Errorf("deducted = %d, want 1", deducted)
	}

	booking := h.bookings.GetBooking("bk-cash")
	if !booking.CommissionDeducted {
		t.Error("commission should be marked deducted")
	}
	if booking.CommissionDeductedAt.IsZero() {
		t.Error("deduction timestamp should be set")
	}

	balance, err := h.wallet.GetBalance(ctx, service.OwnerDriver, "driver-1")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if balance != 80 {
		t.Errorf("driver balance = %v, want 80", balance)
	}

	// Rerun must not double-debit.
	deducted, err = h.reconciler.DeductCashCommissions(ctx, time.Now())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if deducted != 0 {
		t.Errorf("second sweep deducted = %d, want 0", deducted)
	}
	balance, _ = h.wallet.GetBalance(ctx, service.OwnerDriver, "driver-1")
	if balance != 80 {
		t.Errorf("driver balance after rerun = %v, want 80", balance)
	}
}

func TestDeductCashCommissionsInsufficientBalance(t *testing.T) {
	t.Parallel()
	h := newSettlementHarness()
	ctx := context.Background()

	trip := newPoolTrip("trip-1", domain.TripStatusCompleted, 4, 3, 3, 400)
	trip.DriverID = "driver-1"
	h.trips.AddTrip(trip)

	h.bookings.AddBooking(&domain.Booking{
		ID: "bk-cash", UserID: "user-1", TripID: "trip-1",
		Status: domain.BookingStatusCompleted, SeatsBooked: 1, TotalAmount: 400,
		PaymentStatus: domain.PaymentStatusCompleted, PaymentMethod: domain.PaymentMethodCash,
		CommissionAmount: 20, ConfirmedAt: time.Now(),
	})

	if err := h.wallet.Credit(ctx, service.OwnerDriver, "driver-1", 5, "TOPUP", "t-1", "thin float"); err != nil {
		t.Fatalf("wallet credit failed: %v", err)
	}

	deducted, err := h.reconciler.DeductCashCommissions(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeductCashCommissions failed: %v", err)
	}
	if deducted != 0 {
		t.Errorf("deducted = %d, want 0 when the wallet cannot cover it", deducted)
	}
	if b := h.bookings.GetBooking("bk-cash"); b.CommissionDeducted {
		t.Error("commission must stay outstanding after a failed debit")
	}
}
