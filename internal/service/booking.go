package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"poolride/internal/config"
	"poolride/internal/domain"
	"poolride/internal/redis"
	"poolride/internal/repository"
)

// BookingService orchestrates the booking lifecycle: hold, confirm, cancel,
// switch and boarding verification. Seat-count mutations go through the
// Allocator; status transitions go through the TripLifecycleManager.
type BookingService struct {
	allocator   Allocator
	tripRepo    repository.TripRepository
	bookingRepo repository.BookingRepository
	resvRepo    repository.ReservationRepository
	routeRepo   repository.RouteRepository
	vehicleRepo repository.VehicleConfigRepository
	userRepo    repository.UserRepository
	lifecycle   *TripLifecycleManager
	pricing     *PricingEngine
	gateway     PaymentGateway
	wallet      Wallet
	notifier    *NotificationService
	cache       redis.CacheStoreInterface
	locks       redis.LockStoreInterface
	cfg         config.BookingConfig
	now         func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	allocator Allocator,
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	resvRepo repository.ReservationRepository,
	routeRepo repository.RouteRepository,
	vehicleRepo repository.VehicleConfigRepository,
	userRepo repository.UserRepository,
	lifecycle *TripLifecycleManager,
	pricing *PricingEngine,
	gateway PaymentGateway,
	wallet Wallet,
	notifier *NotificationService,
	cache redis.CacheStoreInterface,
	locks redis.LockStoreInterface,
	cfg config.BookingConfig,
) *BookingService {
	return &BookingService{
		allocator:   allocator,
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		resvRepo:    resvRepo,
		routeRepo:   routeRepo,
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
		lifecycle:   lifecycle,
		pricing:     pricing,
		gateway:     gateway,
		wallet:      wallet,
		notifier:    notifier,
		cache:       cache,
		locks:       locks,
		cfg:         cfg,
		now:         time.Now,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	UserID             string
	TripID             string // join an existing pool trip; empty creates one
	RouteID            string
	VehicleType        string
	BookingType        domain.BookingType
	Seats              int
	PaymentMethod      domain.PaymentMethod
	Passengers         []PassengerInfo
	ScheduledDeparture time.Time
	PickupLat          float64
	PickupLng          float64
	DropLat            float64
	DropLng            float64
}

// BookingResult bundles the created booking with its trip and seats.
type BookingResult struct {
	Booking      *domain.Booking
	Trip         *domain.Trip
	Reservations []*domain.SeatReservation
	PriceMessage string
}

// CreateBooking places a seat hold. A private booking reserves the whole
// vehicle on a fresh trip; a pool booking either joins the given trip or
// opens a new one. The booking stays in HOLD until payment confirms it.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResult, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if !validPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	var trip *domain.Trip
	var seats int
	var perSeat float64

	switch {
	case req.TripID != "":
		if req.BookingType == domain.BookingTypePrivate {
			return nil, ErrTripNotJoinable
		}
		trip, err = s.tripRepo.GetByID(ctx, req.TripID)
		if err != nil {
			return nil, err
		}
		if !trip.Joinable() {
			return nil, ErrTripNotJoinable
		}

		seats = req.Seats
		if seats < 1 {
			return nil, ErrInvalidSeatCount
		}
		if trip.AvailableSeats() < seats {
			return nil, fmt.Errorf("trip %s has %d seat(s) left: %w", trip.ID, trip.AvailableSeats(), ErrCapacityExceeded)
		}

		perSeat = s.pricing.ProjectedPerHeadPrice(trip, seats)

	default:
		trip, seats, perSeat, err = s.openTrip(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	booking := &domain.Booking{
		ID:            uuid.New().String(),
		Code:          generateCode("BK"),
		UserID:        req.UserID,
		TripID:        trip.ID,
		BookingType:   req.BookingType,
		Status:        domain.BookingStatusHold,
		SeatsBooked:   seats,
		TotalAmount:   Ceil2(perSeat * float64(seats)),
		PerSeatAmount: perSeat,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.BookingType == domain.BookingTypePrivate {
		// Private riders pay the full vehicle price regardless of heads.
		booking.TotalAmount = trip.TotalPrice
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	reservations, err := s.allocator.ReserveSeats(ctx, ReserveSeatsRequest{
		TripID:       trip.ID,
		BookingID:    booking.ID,
		UserID:       req.UserID,
		Count:        seats,
		PerSeatPrice: perSeat,
		Passengers:   req.Passengers,
		DefaultName:  user.Name,
		DefaultPhone: user.Phone,
	})
	if err != nil {
		booking.Status = domain.BookingStatusCancelled
		booking.CancelReason = "Seat reservation failed"
		booking.CancelledAt = s.now()
		if updateErr := s.bookingRepo.Update(ctx, booking); updateErr != nil {
			log.Printf("[BOOKING] failed to void booking %s after reservation error: %v", booking.ID, updateErr)
		}
		return nil, err
	}

	trip.SeatsBooked += seats
	if err := s.lifecycle.HandleSeatsAdded(ctx, trip); err != nil {
		return nil, err
	}

	s.invalidateAvailability(ctx, trip.ID)

	return &BookingResult{
		Booking:      booking,
		Trip:         trip,
		Reservations: reservations,
		PriceMessage: s.pricing.PriceMessage(trip),
	}, nil
}

// openTrip creates the trip a booking with no target trip rides on.
func (s *BookingService) openTrip(ctx context.Context, req CreateBookingRequest) (*domain.Trip, int, float64, error) {
	if req.VehicleType == "" {
		return nil, 0, 0, ErrInvalidVehicleType
	}

	vehicle, err := s.vehicleRepo.GetByType(ctx, req.VehicleType)
	if err != nil {
		return nil, 0, 0, err
	}

	multiplier := 1.0
	if req.RouteID != "" {
		route, err := s.routeRepo.GetByID(ctx, req.RouteID)
		if err != nil {
			return nil, 0, 0, err
		}
		if route.PriceMultiplier > 0 {
			multiplier = route.PriceMultiplier
		}
	}

	totalPrice := Ceil2(vehicle.TotalPrice * multiplier)

	seats := req.Seats
	minSeats := vehicle.MinSeats
	isPrivate := req.BookingType == domain.BookingTypePrivate
	if isPrivate {
		// A private booking takes the whole vehicle, so the floor is the
		// vehicle itself.
		seats = vehicle.MaxSeats
		minSeats = vehicle.MaxSeats
	}
	if seats < 1 || seats > vehicle.MaxSeats {
		return nil, 0, 0, ErrInvalidSeatCount
	}

	departure := req.ScheduledDeparture
	if departure.IsZero() {
		departure = s.now().Add(s.cfg.CountdownWindow)
	}

	now := s.now()
	trip := &domain.Trip{
		ID:                  uuid.New().String(),
		Code:                generateCode("TR"),
		RouteID:             req.RouteID,
		VehicleType:         vehicle.VehicleType,
		Status:              domain.TripStatusPending,
		TotalSeats:          vehicle.MaxSeats,
		SeatsBooked:         0,
		MinSeats:            minSeats,
		TotalPrice:          totalPrice,
		ScheduledDeparture:  departure,
		PickupLat:           req.PickupLat,
		PickupLng:           req.PickupLng,
		DropLat:             req.DropLat,
		DropLng:             req.DropLng,
		IsPrivate:           isPrivate,
		NightFareEnabled:    s.cfg.NightFareEnabled,
		NightFareStartHour:  s.cfg.NightFareStartHour,
		NightFareEndHour:    s.cfg.NightFareEndHour,
		NightFareMultiplier: s.cfg.NightFareMultiplier,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	trip.CurrentPerHeadPrice = s.pricing.ProjectedPerHeadPrice(trip, seats)

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, 0, 0, err
	}

	perSeat := s.pricing.ProjectedPerHeadPrice(trip, seats)
	return trip, seats, perSeat, nil
}

// ConfirmBooking settles payment on a held booking. The commission is
// computed once here and frozen on the booking; later rate changes never
// touch it. The payment callback reports the method actually charged; an
// empty method keeps the one chosen at creation. Already-confirmed
// bookings return unchanged.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, paymentRef string, method domain.PaymentMethod) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if method != "" && !validPaymentMethod(method) {
		return nil, ErrInvalidPaymentMethod
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingStatusConfirmed {
		return booking, nil
	}
	if !booking.Confirmable() {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, ErrBookingNotConfirmable)
	}

	trip, err := s.tripRepo.GetByID(ctx, booking.TripID)
	if err != nil {
		return nil, err
	}
	if trip.IsTerminal() {
		return nil, ErrTripAlreadyTerminal
	}

	now := s.now()
	booking.Status = domain.BookingStatusConfirmed
	booking.ConfirmedAt = now
	booking.PaymentRef = paymentRef
	if method != "" {
		booking.PaymentMethod = method
	}
	booking.CommissionAmount = Ceil2(booking.TotalAmount * s.cfg.CommissionRate)
	booking.OTP = generateOTP()
	booking.UpdatedAt = now

	if booking.PaymentMethod.InstantSettlement() {
		booking.PaymentStatus = domain.PaymentStatusCompleted
	}

	if err := s.allocator.ConfirmBookingSeats(ctx, booking); err != nil {
		return nil, err
	}

	// Online rails owe the platform immediately; cash waits for the
	// end-of-day sweep. A failed debit never unwinds the confirmation.
	if booking.PaymentMethod.InstantSettlement() {
		s.deductCommission(ctx, booking, trip)
	}

	if err := s.notifier.NotifyBookingConfirmed(ctx, booking); err != nil {
		log.Printf("[BOOKING] confirmation notification failed for %s: %v", booking.ID, err)
	}

	wasFilling := trip.Status == domain.TripStatusFilling
	if err := s.lifecycle.MaybeAutoConfirm(ctx, trip); err != nil {
		log.Printf("[BOOKING] auto-confirm check failed for trip %s: %v", trip.ID, err)
	} else if wasFilling && trip.Status == domain.TripStatusMinReached {
		s.notifyTripConfirmed(ctx, trip)
	}

	return booking, nil
}

// deductCommission debits the driver's wallet for the frozen commission and
// marks the booking deducted on success. Best effort: a trip without a
// driver yet, or a wallet that cannot cover the amount, leaves the
// commission outstanding.
func (s *BookingService) deductCommission(ctx context.Context, booking *domain.Booking, trip *domain.Trip) {
	if trip.DriverID == "" {
		log.Printf("[BOOKING] commission for %s left outstanding: trip %s has no driver yet", booking.ID, trip.ID)
		return
	}

	err := s.wallet.Debit(ctx, OwnerDriver, trip.DriverID, booking.CommissionAmount,
		"COMMISSION", booking.ID, "Commission for booking "+booking.Code)
	if err != nil {
		log.Printf("[BOOKING] commission debit failed for %s (driver %s): %v", booking.ID, trip.DriverID, err)
		return
	}

	booking.CommissionDeducted = true
	booking.CommissionDeductedAt = s.now()
	booking.UpdatedAt = booking.CommissionDeductedAt
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		log.Printf("[BOOKING] failed to record commission deduction for %s: %v", booking.ID, err)
	}
}

// CancelBooking releases a booking's seats and walks the trip back. A
// confirmed, paid booking moves to REFUNDED with a full refund signalled to
// the payment gateway; an unpaid hold just cancels.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, reason string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Cancellable() {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, ErrBookingNotCancellable)
	}

	released, err := s.resvRepo.CancelByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if released > 0 {
		if err := s.allocator.ReleaseSeats(ctx, booking.TripID, released); err != nil {
			return nil, err
		}
	}

	now := s.now()
	refunded := booking.Status == domain.BookingStatusConfirmed &&
		booking.PaymentStatus == domain.PaymentStatusCompleted

	booking.CancelReason = reason
	booking.CancelledAt = now
	booking.UpdatedAt = now
	if refunded {
		booking.Status = domain.BookingStatusRefunded
		booking.RefundAmount = booking.TotalAmount
		booking.PaymentStatus = domain.PaymentStatusRefunded
	} else {
		booking.Status = domain.BookingStatusCancelled
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	if refunded {
		if err := s.gateway.RequestRefund(ctx, booking.ID, booking.PaymentRef, booking.RefundAmount); err != nil {
			log.Printf("[BOOKING] refund request failed for %s: %v", booking.ID, err)
		}
		if err := s.notifier.NotifyRefundInitiated(ctx, booking); err != nil {
			log.Printf("[BOOKING] refund notification failed for %s: %v", booking.ID, err)
		}
	} else if err := s.notifier.NotifyBookingCancelled(ctx, booking, reason); err != nil {
		log.Printf("[BOOKING] cancellation notification failed for %s: %v", booking.ID, err)
	}

	trip, err := s.tripRepo.GetByID(ctx, booking.TripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsTerminal() {
		if err := s.lifecycle.HandleSeatsRemoved(ctx, trip); err != nil {
			return nil, err
		}
	}

	s.invalidateAvailability(ctx, trip.ID)

	return booking, nil
}

// SwitchToAlternative moves a booking onto a fresh trip of another vehicle
// type by cancel-and-recreate. The source trip is locked for the duration
// so two switches cannot interleave on it.
func (s *BookingService) SwitchToAlternative(ctx context.Context, bookingID, vehicleType string) (*BookingResult, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if vehicleType == "" {
		return nil, ErrInvalidVehicleType
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Cancellable() {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, ErrBookingNotCancellable)
	}

	trip, err := s.tripRepo.GetByID(ctx, booking.TripID)
	if err != nil {
		return nil, err
	}

	acquired, err := s.locks.AcquireTripLock(ctx, trip.ID, s.cfg.SwitchLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrSwitchInProgress
	}
	defer func() {
		if err := s.locks.ReleaseTripLock(ctx, trip.ID); err != nil {
			log.Printf("[BOOKING] failed to release switch lock for trip %s: %v", trip.ID, err)
		}
	}()

	reservations, err := s.resvRepo.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	passengers := make([]PassengerInfo, 0, len(reservations))
	for _, r := range reservations {
		passengers = append(passengers, PassengerInfo{Name: r.PassengerName, Phone: r.PassengerPhone})
	}

	seats := booking.SeatsBooked

	if _, err := s.CancelBooking(ctx, booking.ID, "Switched to "+vehicleType); err != nil {
		return nil, err
	}

	return s.CreateBooking(ctx, CreateBookingRequest{
		UserID:             booking.UserID,
		RouteID:            trip.RouteID,
		VehicleType:        vehicleType,
		BookingType:        booking.BookingType,
		Seats:              seats,
		PaymentMethod:      booking.PaymentMethod,
		Passengers:         passengers,
		ScheduledDeparture: trip.ScheduledDeparture,
		PickupLat:          trip.PickupLat,
		PickupLng:          trip.PickupLng,
		DropLat:            trip.DropLat,
		DropLng:            trip.DropLng,
	})
}

// VerifyOTP checks the boarding OTP and counts the booking's passengers as
// onboarded. Cash fares are collected at boarding, so verification also
// completes a pending cash payment.
func (s *BookingService) VerifyOTP(ctx context.Context, bookingID, otp string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusConfirmed {
		return nil, ErrBookingNotConfirmed
	}
	if booking.OTPVerified {
		return nil, ErrOTPAlreadyVerified
	}
	if booking.OTP != otp {
		return nil, ErrOTPMismatch
	}

	now := s.now()
	booking.OTPVerified = true
	booking.OTPVerifiedAt = now
	booking.PassengersOnboarded = booking.SeatsBooked
	booking.UpdatedAt = now
	if booking.PaymentMethod == domain.PaymentMethodCash &&
		booking.PaymentStatus == domain.PaymentStatusPending {
		booking.PaymentStatus = domain.PaymentStatusCompleted
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(ctx, booking.TripID)
	if err != nil {
		return nil, err
	}
	trip.PassengersOnboarded += booking.SeatsBooked
	trip.UpdatedAt = now
	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	return booking, nil
}

// GetBooking retrieves a booking with its seat reservations.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, []*domain.SeatReservation, error) {
	if bookingID == "" {
		return nil, nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	reservations, err := s.resvRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	return booking, reservations, nil
}

// notifyTripConfirmed fans the trip-confirmed notification out to every
// confirmed rider. Best effort.
func (s *BookingService) notifyTripConfirmed(ctx context.Context, trip *domain.Trip) {
	bookings, err := s.bookingRepo.FindConfirmedByTripID(ctx, trip.ID)
	if err != nil {
		log.Printf("[BOOKING] failed to load riders for trip %s: %v", trip.ID, err)
		return
	}

	riderIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		riderIDs = append(riderIDs, b.UserID)
	}
	if err := s.notifier.NotifyTripConfirmed(ctx, trip, riderIDs); err != nil {
		log.Printf("[BOOKING] trip-confirmed notification failed for %s: %v", trip.ID, err)
	}
}

func (s *BookingService) invalidateAvailability(ctx context.Context, tripID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAvailability(ctx, tripID); err != nil {
		log.Printf("[BOOKING] cache invalidation failed for trip %s: %v", tripID, err)
	}
}

func validPaymentMethod(m domain.PaymentMethod) bool {
	switch m {
	case domain.PaymentMethodOnline, domain.PaymentMethodUPI, domain.PaymentMethodWallet, domain.PaymentMethodCash:
		return true
	}
	return false
}

// generateCode builds a short human-readable reference like BK-3F2A9C81.
func generateCode(prefix string) string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:8])
}

// generateOTP returns a four digit boarding code.
func generateOTP() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}
