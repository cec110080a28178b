package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"poolride/internal/config"
	"poolride/internal/domain"
	"poolride/internal/redis"
	"poolride/internal/repository"
)

// TripService handles the driver-facing trip surface: publishing scheduled
// trips and running them through dispatch, start and completion.
type TripService struct {
	tripRepo    repository.TripRepository
	bookingRepo repository.BookingRepository
	driverRepo  repository.DriverRepository
	routeRepo   repository.RouteRepository
	vehicleRepo repository.VehicleConfigRepository
	lifecycle   *TripLifecycleManager
	pricing     *PricingEngine
	bookings    *BookingService
	notifier    *NotificationService
	cache       redis.CacheStoreInterface
	cfg         config.BookingConfig
	now         func() time.Time
}

// NewTripService creates a new TripService.
func NewTripService(
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	driverRepo repository.DriverRepository,
	routeRepo repository.RouteRepository,
	vehicleRepo repository.VehicleConfigRepository,
	lifecycle *TripLifecycleManager,
	pricing *PricingEngine,
	bookings *BookingService,
	notifier *NotificationService,
	cache redis.CacheStoreInterface,
	cfg config.BookingConfig,
) *TripService {
	return &TripService{
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		driverRepo:  driverRepo,
		routeRepo:   routeRepo,
		vehicleRepo: vehicleRepo,
		lifecycle:   lifecycle,
		pricing:     pricing,
		bookings:    bookings,
		notifier:    notifier,
		cache:       cache,
		cfg:         cfg,
		now:         time.Now,
	}
}

// PublishTripRequest contains the parameters for publishing a trip.
type PublishTripRequest struct {
	DriverID           string
	RouteID            string
	VehicleType        string
	ScheduledDeparture time.Time
	ReturnTrip         bool
	PickupLat          float64
	PickupLng          float64
	DropLat            float64
	DropLng            float64
}

// PublishTrip opens a driver-announced pool trip that riders can join.
// Unlike rider-created trips, the driver is assigned up front.
func (s *TripService) PublishTrip(ctx context.Context, req PublishTripRequest) (*domain.Trip, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.VehicleType == "" {
		return nil, ErrInvalidVehicleType
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetByType(ctx, req.VehicleType)
	if err != nil {
		return nil, err
	}

	multiplier := 1.0
	if req.RouteID != "" {
		route, err := s.routeRepo.GetByID(ctx, req.RouteID)
		if err != nil {
			return nil, err
		}
		if route.PriceMultiplier > 0 {
			multiplier = route.PriceMultiplier
		}
	}

	now := s.now()
	trip := &domain.Trip{
		ID:                  uuid.New().String(),
		Code:                generateCode("TR"),
		RouteID:             req.RouteID,
		VehicleType:         vehicle.VehicleType,
		Status:              domain.TripStatusPending,
		TotalSeats:          vehicle.MaxSeats,
		MinSeats:            vehicle.MinSeats,
		TotalPrice:          Ceil2(vehicle.TotalPrice * multiplier),
		ScheduledDeparture:  req.ScheduledDeparture,
		PickupLat:           req.PickupLat,
		PickupLng:           req.PickupLng,
		DropLat:             req.DropLat,
		DropLng:             req.DropLng,
		ReturnTrip:          req.ReturnTrip,
		NightFareEnabled:    s.cfg.NightFareEnabled,
		NightFareStartHour:  s.cfg.NightFareStartHour,
		NightFareEndHour:    s.cfg.NightFareEndHour,
		NightFareMultiplier: s.cfg.NightFareMultiplier,
		DriverID:            driver.ID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	trip.CurrentPerHeadPrice = s.pricing.PerHeadPrice(trip)

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	return trip, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// GetAvailability returns a trip's seat availability, served from cache
// when fresh.
func (s *TripService) GetAvailability(ctx context.Context, tripID string) (*redis.CachedAvailability, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.cache != nil {
		cached, err := s.cache.GetAvailability(ctx, tripID)
		if err != nil {
			log.Printf("[TRIP] availability cache read failed for %s: %v", tripID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	availability := &redis.CachedAvailability{
		TripID:         trip.ID,
		Status:         string(trip.Status),
		SeatsAvailable: trip.AvailableSeats(),
		PerHeadPrice:   s.pricing.PerHeadPrice(trip),
		PriceMessage:   s.pricing.PriceMessage(trip),
	}

	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, availability); err != nil {
			log.Printf("[TRIP] availability cache write failed for %s: %v", tripID, err)
		}
	}

	return availability, nil
}

// Dispatch assigns a driver to a ready trip and notifies the riders.
func (s *TripService) Dispatch(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if err := s.lifecycle.Dispatch(ctx, trip, driver.ID); err != nil {
		return nil, err
	}

	if err := s.driverRepo.UpdateStatus(ctx, driver.ID, domain.DriverStatusOnTrip); err != nil {
		log.Printf("[TRIP] failed to set driver %s on trip: %v", driver.ID, err)
	}

	riderIDs, err := s.confirmedRiderIDs(ctx, trip.ID)
	if err != nil {
		log.Printf("[TRIP] failed to load riders for trip %s: %v", trip.ID, err)
	} else if err := s.notifier.NotifyTripDispatched(ctx, trip, driver, riderIDs); err != nil {
		log.Printf("[TRIP] dispatch notification failed for %s: %v", trip.ID, err)
	}

	s.invalidateAvailability(ctx, trip.ID)

	return trip, nil
}

// Start moves a dispatched trip into progress.
func (s *TripService) Start(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if err := s.lifecycle.Start(ctx, trip); err != nil {
		return nil, err
	}

	riderIDs, err := s.confirmedRiderIDs(ctx, trip.ID)
	if err != nil {
		log.Printf("[TRIP] failed to load riders for trip %s: %v", trip.ID, err)
	} else if err := s.notifier.NotifyTripStarted(ctx, trip, riderIDs); err != nil {
		log.Printf("[TRIP] start notification failed for %s: %v", trip.ID, err)
	}

	return trip, nil
}

// Complete finishes a trip, closes out its confirmed bookings and frees the
// driver. The lifecycle manager handles the return-trip guarantee.
func (s *TripService) Complete(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if err := s.lifecycle.Complete(ctx, trip); err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.FindConfirmedByTripID(ctx, trip.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	riderIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		b.Status = domain.BookingStatusCompleted
		b.UpdatedAt = now
		if err := s.bookingRepo.Update(ctx, b); err != nil {
			log.Printf("[TRIP] failed to complete booking %s: %v", b.ID, err)
			continue
		}
		riderIDs = append(riderIDs, b.UserID)
	}

	if trip.DriverID != "" {
		if err := s.driverRepo.UpdateStatus(ctx, trip.DriverID, domain.DriverStatusOnline); err != nil {
			log.Printf("[TRIP] failed to free driver %s: %v", trip.DriverID, err)
		}
	}

	if err := s.notifier.NotifyTripCompleted(ctx, trip, riderIDs); err != nil {
		log.Printf("[TRIP] completion notification failed for %s: %v", trip.ID, err)
	}

	s.invalidateAvailability(ctx, trip.ID)

	return trip, nil
}

// CancelTrip cancels a trip and every booking still alive on it. Paid
// bookings are refunded through the normal cancellation path.
func (s *TripService) CancelTrip(ctx context.Context, tripID, reason string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.IsTerminal() {
		return nil, ErrTripAlreadyTerminal
	}

	bookings, err := s.bookingRepo.GetByTripID(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if !b.Cancellable() {
			continue
		}
		if _, err := s.bookings.CancelBooking(ctx, b.ID, reason); err != nil {
			log.Printf("[TRIP] failed to cancel booking %s on trip %s: %v", b.ID, trip.ID, err)
		}
	}

	// Reload: booking cancellations walked the seat count down.
	trip, err = s.tripRepo.GetByID(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	if err := s.lifecycle.Cancel(ctx, trip); err != nil {
		return nil, err
	}

	s.invalidateAvailability(ctx, trip.ID)

	return trip, nil
}

func (s *TripService) confirmedRiderIDs(ctx context.Context, tripID string) ([]string, error) {
	bookings, err := s.bookingRepo.FindConfirmedByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	riderIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		riderIDs = append(riderIDs, b.UserID)
	}
	return riderIDs, nil
}

func (s *TripService) invalidateAvailability(ctx context.Context, tripID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAvailability(ctx, tripID); err != nil {
		log.Printf("[TRIP] cache invalidation failed for trip %s: %v", tripID, err)
	}
}
