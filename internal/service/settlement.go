package service

import (
	"context"
	"log"
	"time"

	"poolride/internal/config"
	"poolride/internal/domain"
	"poolride/internal/repository"
)

// SettlementReconciler is the background authority for everything the
// request path leaves dangling: expired seat locks, bookings that never
// paid, fill countdowns that ran out and the daily cash commission sweep.
// Every pass is idempotent; rerunning a sweep over the same rows is a
// no-op.
type SettlementReconciler struct {
	tripRepo    repository.TripRepository
	bookingRepo repository.BookingRepository
	resvRepo    repository.ReservationRepository
	allocator   Allocator
	lifecycle   *TripLifecycleManager
	bookings    *BookingService
	wallet      Wallet
	notifier    *NotificationService
	cfg         config.SettlementConfig
	now         func() time.Time
}

// NewSettlementReconciler creates a new SettlementReconciler.
func NewSettlementReconciler(
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	resvRepo repository.ReservationRepository,
	allocator Allocator,
	lifecycle *TripLifecycleManager,
	bookings *BookingService,
	wallet Wallet,
	notifier *NotificationService,
	cfg config.SettlementConfig,
) *SettlementReconciler {
	return &SettlementReconciler{
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		resvRepo:    resvRepo,
		allocator:   allocator,
		lifecycle:   lifecycle,
		bookings:    bookings,
		wallet:      wallet,
		notifier:    notifier,
		cfg:         cfg,
		now:         time.Now,
	}
}

// RunSweep executes one reconciliation pass.
func (r *SettlementReconciler) RunSweep(ctx context.Context) {
	if n, err := r.ReleaseExpiredLocks(ctx); err != nil {
		log.Printf("[SETTLEMENT] lock release sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("[SETTLEMENT] released %d expired seat lock(s)", n)
	}

	if n, err := r.CancelTimedOutBookings(ctx); err != nil {
		log.Printf("[SETTLEMENT] payment timeout sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("[SETTLEMENT] cancelled %d timed-out booking(s)", n)
	}

	if n, err := r.ProcessExpiredCountdowns(ctx); err != nil {
		log.Printf("[SETTLEMENT] countdown sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("[SETTLEMENT] resolved %d expired countdown(s)", n)
	}
}

// ReleaseExpiredLocks frees seats held by LOCKED reservations whose lock
// expiry passed without confirmation. CancelIfLocked makes the sweep safe
// against a confirmation racing it: a row that turned BOOKED meanwhile is
// left alone. Returns how many reservations were released.
func (r *SettlementReconciler) ReleaseExpiredLocks(ctx context.Context) (int, error) {
	expired, err := r.resvRepo.FindExpiredLocked(ctx, r.now())
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	releasedPerTrip := make(map[string]int)
	touchedBookings := make(map[string]bool)

	released := 0
	for _, resv := range expired {
		ok, err := r.resvRepo.CancelIfLocked(ctx, resv.ID)
		if err != nil {
			log.Printf("[SETTLEMENT] failed to cancel reservation %s: %v", resv.ID, err)
			continue
		}
		if !ok {
			continue
		}
		released++
		releasedPerTrip[resv.TripID]++
		touchedBookings[resv.BookingID] = true
	}

	for tripID, count := range releasedPerTrip {
		if err := r.allocator.ReleaseSeats(ctx, tripID, count); err != nil {
			log.Printf("[SETTLEMENT] failed to release %d seat(s) on trip %s: %v", count, tripID, err)
			continue
		}
		trip, err := r.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			log.Printf("[SETTLEMENT] failed to load trip %s: %v", tripID, err)
			continue
		}
		if trip.IsTerminal() {
			continue
		}
		if err := r.lifecycle.HandleSeatsRemoved(ctx, trip); err != nil {
			log.Printf("[SETTLEMENT] failed to walk trip %s back: %v", tripID, err)
		}
	}

	for bookingID := range touchedBookings {
		if err := r.cancelIfEmptied(ctx, bookingID); err != nil {
			log.Printf("[SETTLEMENT] failed to void booking %s: %v", bookingID, err)
		}
	}

	return released, nil
}

// cancelIfEmptied cancels a held booking once all its reservations are
// gone. Seat locks expire before payment, so nothing is refunded here.
func (r *SettlementReconciler) cancelIfEmptied(ctx context.Context, bookingID string) error {
	remaining, err := r.resvRepo.CountActiveByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}

	booking, err := r.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.Confirmable() {
		return nil
	}

	now := r.now()
	booking.Status = domain.BookingStatusCancelled
	booking.CancelReason = "Seat lock expired"
	booking.CancelledAt = now
	booking.UpdatedAt = now

	if err := r.bookingRepo.Update(ctx, booking); err != nil {
		return err
	}

	if err := r.notifier.NotifyBookingCancelled(ctx, booking, booking.CancelReason); err != nil {
		log.Printf("[SETTLEMENT] cancellation notification failed for %s: %v", booking.ID, err)
	}
	return nil
}

// CancelTimedOutBookings cancels HOLD/PENDING bookings older than the
// payment timeout through the normal cancellation path.
func (r *SettlementReconciler) CancelTimedOutBookings(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.cfg.PaymentTimeout)
	stale, err := r.bookingRepo.FindStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, b := range stale {
		if _, err := r.bookings.CancelBooking(ctx, b.ID, "Payment timeout"); err != nil {
			log.Printf("[SETTLEMENT] failed to cancel stale booking %s: %v", b.ID, err)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// ProcessExpiredCountdowns resolves FILLING trips whose fill window ran
// out. A trip that meets its minimum (or the confirmed-seat heuristic) is
// promoted and rides on; the rest expire with every booking refunded.
func (r *SettlementReconciler) ProcessExpiredCountdowns(ctx context.Context) (int, error) {
	trips, err := r.tripRepo.FindFillingPastCountdown(ctx, r.now())
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, trip := range trips {
		if err := r.lifecycle.MaybeAutoConfirm(ctx, trip); err != nil {
			log.Printf("[SETTLEMENT] auto-confirm check failed for trip %s: %v", trip.ID, err)
		}

		status, err := r.lifecycle.HandleCountdownExpired(ctx, trip)
		if err != nil {
			log.Printf("[SETTLEMENT] failed to resolve countdown for trip %s: %v", trip.ID, err)
			continue
		}
		resolved++

		if status != domain.TripStatusExpired {
			continue
		}

		r.expireTripBookings(ctx, trip)
	}
	return resolved, nil
}

// expireTripBookings cancels every live booking on an expired trip and
// notifies the riders. Paid bookings take the refund path.
func (r *SettlementReconciler) expireTripBookings(ctx context.Context, trip *domain.Trip) {
	bookings, err := r.bookingRepo.GetByTripID(ctx, trip.ID)
	if err != nil {
		log.Printf("[SETTLEMENT] failed to load bookings for expired trip %s: %v", trip.ID, err)
		return
	}

	var riderIDs []string
	for _, b := range bookings {
		if !b.Cancellable() {
			continue
		}
		if _, err := r.bookings.CancelBooking(ctx, b.ID, "Trip expired"); err != nil {
			log.Printf("[SETTLEMENT] failed to cancel booking %s on expired trip %s: %v", b.ID, trip.ID, err)
			continue
		}
		riderIDs = append(riderIDs, b.UserID)
	}

	if len(riderIDs) > 0 {
		if err := r.notifier.NotifyTripExpired(ctx, trip, riderIDs); err != nil {
			log.Printf("[SETTLEMENT] expiry notification failed for trip %s: %v", trip.ID, err)
		}
	}
}

// DeductCashCommissions runs the daily cash sweep for the day containing
// `day`: every completed cash booking whose commission is still outstanding
// has it debited from the driver's wallet. Each booking is re-checked and
// marked as it is processed, so a rerun skips already-settled rows.
func (r *SettlementReconciler) DeductCashCommissions(ctx context.Context, day time.Time) (int, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)

	due, err := r.bookingRepo.FindCashCommissionDue(ctx, from, to)
	if err != nil {
		return 0, err
	}

	deducted := 0
	for _, b := range due {
		if b.CommissionDeducted || b.CommissionAmount <= 0 {
			continue
		}

		trip, err := r.tripRepo.GetByID(ctx, b.TripID)
		if err != nil {
			log.Printf("[SETTLEMENT] failed to load trip for cash booking %s: %v", b.ID, err)
			continue
		}
		if trip.DriverID == "" {
			log.Printf("[SETTLEMENT] cash booking %s has no driver to charge", b.ID)
			continue
		}

		if err := r.wallet.Debit(ctx, OwnerDriver, trip.DriverID, b.CommissionAmount,
			"COMMISSION", b.ID, "Cash trip commission"); err != nil {
			log.Printf("[SETTLEMENT] commission debit failed for booking %s: %v", b.ID, err)
			continue
		}

		now := r.now()
		b.CommissionDeducted = true
		b.CommissionDeductedAt = now
		b.UpdatedAt = now
		if err := r.bookingRepo.Update(ctx, b); err != nil {
			log.Printf("[SETTLEMENT] failed to mark commission deducted on booking %s: %v", b.ID, err)
			continue
		}
		deducted++
	}
	return deducted, nil
}
