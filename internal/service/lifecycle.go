package service

import (
	"context"
	"fmt"
	"time"

	"poolride/internal/config"
	"poolride/internal/domain"
	"poolride/internal/repository"
)

// TripLifecycleManager owns every trip status transition. Callers mutate
// seat counts through the Allocator and then hand the trip here so status,
// countdown and per-head price stay consistent with the seats.
type TripLifecycleManager struct {
	tripRepo    repository.TripRepository
	bookingRepo repository.BookingRepository
	pricing     *PricingEngine
	cfg         config.BookingConfig
	now         func() time.Time
}

// NewTripLifecycleManager creates a new TripLifecycleManager.
func NewTripLifecycleManager(
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	pricing *PricingEngine,
	cfg config.BookingConfig,
) *TripLifecycleManager {
	return &TripLifecycleManager{
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		pricing:     pricing,
		cfg:         cfg,
		now:         time.Now,
	}
}

// HandleSeatsAdded advances the trip after seats were reserved on it. The
// first seat on a pool trip starts the fill countdown; reaching minSeats
// moves the trip to MIN_REACHED. Private trips are fully reserved at
// creation and go straight to MIN_REACHED.
func (m *TripLifecycleManager) HandleSeatsAdded(ctx context.Context, trip *domain.Trip) error {
	if trip.IsTerminal() {
		return ErrTripAlreadyTerminal
	}

	now := m.now()

	if trip.IsPrivate {
		trip.Status = domain.TripStatusMinReached
	} else {
		switch trip.Status {
		case domain.TripStatusPending:
			trip.Status = domain.TripStatusFilling
			trip.CountdownExpiry = now.Add(m.cfg.CountdownWindow)
		case domain.TripStatusFilling:
			// countdown keeps running
		}
		if trip.MinSeatsMet() {
			trip.Status = domain.TripStatusMinReached
		}
	}

	trip.CurrentPerHeadPrice = m.pricing.PerHeadPrice(trip)
	trip.UpdatedAt = now

	return m.tripRepo.Update(ctx, trip)
}

// HandleSeatsRemoved walks the trip back after seats were released. A trip
// that drops below minSeats returns to FILLING; one that empties entirely
// returns to PENDING with the countdown cleared.
func (m *TripLifecycleManager) HandleSeatsRemoved(ctx context.Context, trip *domain.Trip) error {
	if trip.IsTerminal() {
		return ErrTripAlreadyTerminal
	}

	now := m.now()

	if !trip.IsPrivate {
		switch {
		case trip.SeatsBooked <= 0:
			trip.SeatsBooked = 0
			trip.Status = domain.TripStatusPending
			trip.CountdownExpiry = time.Time{}
		case !trip.MinSeatsMet() && trip.Status == domain.TripStatusMinReached:
			trip.Status = domain.TripStatusFilling
		}
	}

	trip.CurrentPerHeadPrice = m.pricing.PerHeadPrice(trip)
	trip.UpdatedAt = now

	return m.tripRepo.Update(ctx, trip)
}

// MaybeAutoConfirm applies the confirmed-seat heuristic: a FILLING trip
// whose confirmed seats land inside the configured band, all confirmed
// within the window of the first confirmation, is held at MIN_REACHED even
// though minSeats was not met. Safe to call after every confirmation.
func (m *TripLifecycleManager) MaybeAutoConfirm(ctx context.Context, trip *domain.Trip) error {
	if trip.Status != domain.TripStatusFilling {
		return nil
	}

	bookings, err := m.bookingRepo.FindConfirmedByTripID(ctx, trip.ID)
	if err != nil {
		return err
	}

	seats := 0
	var first time.Time
	var last time.Time
	for _, b := range bookings {
		seats += b.SeatsBooked
		if first.IsZero() || b.ConfirmedAt.Before(first) {
			first = b.ConfirmedAt
		}
		if b.ConfirmedAt.After(last) {
			last = b.ConfirmedAt
		}
	}

	if seats < m.cfg.AutoConfirmSeatMin || seats > m.cfg.AutoConfirmSeatMax {
		return nil
	}
	if last.Sub(first) > m.cfg.AutoConfirmWindow {
		return nil
	}

	trip.Status = domain.TripStatusMinReached
	trip.UpdatedAt = m.now()

	return m.tripRepo.Update(ctx, trip)
}

// Dispatch assigns the driver and moves the trip to DISPATCHED. A trip that
// has neither met minSeats nor been auto-confirmed cannot dispatch.
func (m *TripLifecycleManager) Dispatch(ctx context.Context, trip *domain.Trip, driverID string) error {
	if trip.Status != domain.TripStatusMinReached {
		return fmt.Errorf("trip %s is %s: %w", trip.ID, trip.Status, ErrTripNotDispatchable)
	}
	if driverID == "" {
		return ErrInvalidDriverID
	}

	trip.Status = domain.TripStatusDispatched
	trip.DriverID = driverID
	trip.UpdatedAt = m.now()

	return m.tripRepo.Update(ctx, trip)
}

// Start moves a DISPATCHED trip to IN_PROGRESS.
func (m *TripLifecycleManager) Start(ctx context.Context, trip *domain.Trip) error {
	if trip.Status != domain.TripStatusDispatched {
		return fmt.Errorf("trip %s is %s: %w", trip.ID, trip.Status, ErrTripNotStartable)
	}

	trip.Status = domain.TripStatusInProgress
	trip.UpdatedAt = m.now()

	return m.tripRepo.Update(ctx, trip)
}

// Complete finishes an IN_PROGRESS trip. A return-flagged trip that ran
// with its seat floor met earns the driver's pending trip back along the
// same route the return guarantee.
func (m *TripLifecycleManager) Complete(ctx context.Context, trip *domain.Trip) error {
	if trip.Status != domain.TripStatusInProgress {
		return fmt.Errorf("trip %s is %s: %w", trip.ID, trip.Status, ErrTripNotCompletable)
	}

	trip.Status = domain.TripStatusCompleted
	trip.UpdatedAt = m.now()

	if err := m.tripRepo.Update(ctx, trip); err != nil {
		return err
	}

	return m.grantReturnGuarantee(ctx, trip)
}

// grantReturnGuarantee marks the driver's reverse-direction trip as
// guaranteed and raises its passenger floor. Only a return-flagged trip
// that actually met its seat floor earns the guarantee. minSeats is only
// ever raised here, never lowered.
func (m *TripLifecycleManager) grantReturnGuarantee(ctx context.Context, completed *domain.Trip) error {
	if !completed.ReturnTrip || !completed.MinSeatsMet() {
		return nil
	}
	if completed.DriverID == "" {
		return nil
	}

	candidate, err := m.tripRepo.FindReturnCandidate(ctx, completed.DriverID, completed.RouteID, completed.DropLat, completed.DropLng)
	if err != nil {
		return err
	}
	if candidate == nil {
		return nil
	}

	candidate.ReturnTripGuarantee = true
	if candidate.MinSeats < m.cfg.ReturnGuaranteeSeats {
		candidate.MinSeats = m.cfg.ReturnGuaranteeSeats
	}
	candidate.UpdatedAt = m.now()

	return m.tripRepo.Update(ctx, candidate)
}

// Cancel moves a non-terminal trip to CANCELLED.
func (m *TripLifecycleManager) Cancel(ctx context.Context, trip *domain.Trip) error {
	if trip.IsTerminal() {
		return ErrTripAlreadyTerminal
	}

	trip.Status = domain.TripStatusCancelled
	trip.CountdownExpiry = time.Time{}
	trip.UpdatedAt = m.now()

	return m.tripRepo.Update(ctx, trip)
}

// HandleCountdownExpired resolves a FILLING trip whose fill window elapsed:
// a trip that met minSeats (or was auto-confirmed meanwhile) is promoted to
// MIN_REACHED, otherwise it expires. Returns the status the trip landed in.
func (m *TripLifecycleManager) HandleCountdownExpired(ctx context.Context, trip *domain.Trip) (domain.TripStatus, error) {
	if trip.Status != domain.TripStatusFilling {
		return trip.Status, nil
	}

	if trip.MinSeatsMet() {
		trip.Status = domain.TripStatusMinReached
	} else {
		trip.Status = domain.TripStatusExpired
	}
	trip.CountdownExpiry = time.Time{}
	trip.UpdatedAt = m.now()

	if err := m.tripRepo.Update(ctx, trip); err != nil {
		return trip.Status, err
	}

	return trip.Status, nil
}
