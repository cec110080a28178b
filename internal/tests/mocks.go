package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"poolride/internal/domain"
	"poolride/internal/redis"
	"poolride/internal/repository"
	"poolride/internal/service"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

// GetTrip returns a trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns how many trips are stored.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) FindOpen(ctx context.Context, routeID, vehicleType string, seatsNeeded int) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if !t.Joinable() || t.AvailableSeats() < seatsNeeded {
			continue
		}
		if routeID != "" && t.RouteID != routeID {
			continue
		}
		if vehicleType != "" && t.VehicleType != vehicleType {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTripRepository) FindFillingPastCountdown(ctx context.Context, now time.Time) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if t.Status == domain.TripStatusFilling && !t.CountdownExpiry.IsZero() && t.CountdownExpiry.Before(now) {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockTripRepository) FindReturnCandidate(ctx context.Context, driverID, routeID string, pickupLat, pickupLng float64) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.DriverID != driverID || t.RouteID != routeID {
			continue
		}
		if t.Status != domain.TripStatusPending && t.Status != domain.TripStatusFilling {
			continue
		}
		if t.PickupLat != pickupLat || t.PickupLng != pickupLng {
			continue
		}
		copy := *t
		return &copy, nil
	}
	return nil, nil
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

// GetBooking returns a booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *booking
	m.bookings[booking.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *booking
	m.bookings[booking.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByTripID(ctx context.Context, tripID string) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.TripID == tripID {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) FindConfirmedByTripID(ctx context.Context, tripID string) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.TripID == tripID && b.Status == domain.BookingStatusConfirmed {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) FindStale(ctx context.Context, cutoff time.Time) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.Confirmable() && b.CreatedAt.Before(cutoff) {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) FindCashCommissionDue(ctx context.Context, from, to time.Time) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.PaymentMethod != domain.PaymentMethodCash || b.CommissionDeducted {
			continue
		}
		if b.PaymentStatus != domain.PaymentStatusCompleted {
			continue
		}
		if b.ConfirmedAt.Before(from) || !b.ConfirmedAt.Before(to) {
			continue
		}
		copy := *b
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockBookingRepository) FindByDriverConfirmedBetween(ctx context.Context, driverID string, from, to time.Time) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.ConfirmedAt.IsZero() || b.ConfirmedAt.Before(from) || !b.ConfirmedAt.Before(to) {
			continue
		}
		// Trip driver scoping is resolved by the caller's trip fixtures.
		copy := *b
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK RESERVATION REPOSITORY
// ──────────────────────────────────────────────

// MockReservationRepository is a mock implementation of
// ReservationRepository.
type MockReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]*domain.SeatReservation

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockReservationRepository creates a new mock reservation repository.
func NewMockReservationRepository() *MockReservationRepository {
	return &MockReservationRepository{
		reservations: make(map[string]*domain.SeatReservation),
	}
}

// AddReservation adds a reservation to the mock repository.
func (m *MockReservationRepository) AddReservation(r *domain.SeatReservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = r
}

// GetReservation returns a reservation for test assertions.
func (m *MockReservationRepository) GetReservation(id string) *domain.SeatReservation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reservations[id]
}

func (m *MockReservationRepository) Create(ctx context.Context, r *domain.SeatReservation) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *r
	m.reservations[r.ID] = &copy
	return nil
}

func (m *MockReservationRepository) GetByBookingID(ctx context.Context, bookingID string) ([]*domain.SeatReservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SeatReservation
	for _, r := range m.reservations {
		if r.BookingID == bookingID {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockReservationRepository) GetActiveByTripID(ctx context.Context, tripID string) ([]*domain.SeatReservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SeatReservation
	for _, r := range m.reservations {
		if r.TripID == tripID && r.Active() {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockReservationRepository) ConfirmByBookingID(ctx context.Context, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.BookingID == bookingID && r.Status == domain.ReservationStatusLocked {
			r.Status = domain.ReservationStatusBooked
			r.LockExpiry = time.Time{}
		}
	}
	return nil
}

func (m *MockReservationRepository) CancelByBookingID(ctx context.Context, bookingID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.reservations {
		if r.BookingID == bookingID && r.Active() {
			r.Status = domain.ReservationStatusCancelled
			r.LockExpiry = time.Time{}
			count++
		}
	}
	return count, nil
}

func (m *MockReservationRepository) CancelIfLocked(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok || r.Status != domain.ReservationStatusLocked {
		return false, nil
	}
	r.Status = domain.ReservationStatusCancelled
	r.LockExpiry = time.Time{}
	return true, nil
}

func (m *MockReservationRepository) FindExpiredLocked(ctx context.Context, now time.Time) ([]*domain.SeatReservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SeatReservation
	for _, r := range m.reservations {
		if r.Status == domain.ReservationStatusLocked && !r.LockExpiry.IsZero() && r.LockExpiry.Before(now) {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockReservationRepository) CountActiveByBookingID(ctx context.Context, bookingID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, r := range m.reservations {
		if r.BookingID == bookingID && r.Active() {
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE / VEHICLE REPOSITORIES
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{routes: make(map[string]*domain.Route)}
}

// AddRoute adds a route to the mock repository.
func (m *MockRouteRepository) AddRoute(route *domain.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

func (m *MockRouteRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Route
	for _, id := range ids {
		if route, ok := m.routes[id]; ok {
			copy := *route
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRouteRepository) GetAllActive(ctx context.Context) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Route
	for _, route := range m.routes {
		if route.Active {
			copy := *route
			result = append(result, &copy)
		}
	}
	return result, nil
}

// MockVehicleConfigRepository is a mock implementation of
// VehicleConfigRepository.
type MockVehicleConfigRepository struct {
	mu      sync.RWMutex
	configs map[string]*domain.VehicleConfig
}

// NewMockVehicleConfigRepository creates a new mock vehicle config
// repository.
func NewMockVehicleConfigRepository() *MockVehicleConfigRepository {
	return &MockVehicleConfigRepository{configs: make(map[string]*domain.VehicleConfig)}
}

// AddConfig adds a vehicle config to the mock repository.
func (m *MockVehicleConfigRepository) AddConfig(cfg *domain.VehicleConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.VehicleType] = cfg
}

func (m *MockVehicleConfigRepository) GetByType(ctx context.Context, vehicleType string) (*domain.VehicleConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[vehicleType]
	if !ok || !cfg.Active {
		return nil, repository.ErrNotFound
	}
	copy := *cfg
	return &copy, nil
}

func (m *MockVehicleConfigRepository) GetActive(ctx context.Context) ([]*domain.VehicleConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.VehicleConfig
	for _, cfg := range m.configs {
		if cfg.Active {
			copy := *cfg
			result = append(result, &copy)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK USER / DRIVER REPOSITORIES
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateStatusCallCount int32
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{drivers: make(map[string]*domain.Driver)}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

// GetDriver returns a driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK ALLOCATOR
// ──────────────────────────────────────────────

// MockAllocator is a functional Allocator over the mock repositories. It
// enforces trip capacity under a mutex, so concurrent reservations contend
// the way they would on the database row lock.
type MockAllocator struct {
	mu       sync.Mutex
	trips    *MockTripRepository
	bookings *MockBookingRepository
	resv     *MockReservationRepository
	lockTTL  time.Duration

	// Counters for verification
	ReserveCallCount int32
	ReleaseCallCount int32

	// Error injection
	ReserveError error
	ConfirmError error
}

// NewMockAllocator creates a new mock allocator.
func NewMockAllocator(
	trips *MockTripRepository,
	bookings *MockBookingRepository,
	resv *MockReservationRepository,
	lockTTL time.Duration,
) *MockAllocator {
	return &MockAllocator{
		trips:    trips,
		bookings: bookings,
		resv:     resv,
		lockTTL:  lockTTL,
	}
}

func (m *MockAllocator) ReserveSeats(ctx context.Context, req service.ReserveSeatsRequest) ([]*domain.SeatReservation, error) {
	atomic.AddInt32(&m.ReserveCallCount, 1)
	if m.ReserveError != nil {
		return nil, m.ReserveError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	trip, err := m.trips.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if trip.IsTerminal() {
		return nil, service.ErrTripAlreadyTerminal
	}
	if trip.AvailableSeats() < req.Count {
		return nil, fmt.Errorf("trip %s has %d seat(s) left: %w", trip.ID, trip.AvailableSeats(), service.ErrCapacityExceeded)
	}

	active, err := m.resv.GetActiveByTripID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]bool, len(active))
	for _, r := range active {
		taken[r.SeatNumber] = true
	}

	now := time.Now()
	var reservations []*domain.SeatReservation
	seat := 1
	for i := 0; i < req.Count; i++ {
		for taken[seat] {
			seat++
		}
		taken[seat] = true

		name, phone := req.DefaultName, req.DefaultPhone
		if i < len(req.Passengers) && req.Passengers[i].Name != "" {
			name = req.Passengers[i].Name
			if req.Passengers[i].Phone != "" {
				phone = req.Passengers[i].Phone
			}
		}

		r := &domain.SeatReservation{
			ID:             fmt.Sprintf("resv-%s-%d", req.BookingID, seat),
			TripID:         req.TripID,
			BookingID:      req.BookingID,
			UserID:         req.UserID,
			SeatNumber:     seat,
			Status:         domain.ReservationStatusLocked,
			PricePaid:      req.PerSeatPrice,
			PassengerName:  name,
			PassengerPhone: phone,
			LockExpiry:     now.Add(m.lockTTL),
			CreatedAt:      now,
		}
		if err := m.resv.Create(ctx, r); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}

	trip.SeatsBooked += req.Count
	if err := m.trips.Update(ctx, trip); err != nil {
		return nil, err
	}

	return reservations, nil
}

func (m *MockAllocator) ConfirmBookingSeats(ctx context.Context, booking *domain.Booking) error {
	if m.ConfirmError != nil {
		return m.ConfirmError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.bookings.Update(ctx, booking); err != nil {
		return err
	}
	return m.resv.ConfirmByBookingID(ctx, booking.ID)
}

func (m *MockAllocator) ReleaseSeats(ctx context.Context, tripID string, count int) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()

	trip, err := m.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	trip.SeatsBooked -= count
	if trip.SeatsBooked < 0 {
		trip.SeatsBooked = 0
	}
	return m.trips.Update(ctx, trip)
}

// Ensure MockAllocator implements service.Allocator.
var _ service.Allocator = (*MockAllocator)(nil)

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockPaymentGateway records refund requests.
type MockPaymentGateway struct {
	mu      sync.Mutex
	refunds []RefundCall

	// Error injection
	RefundError error
}

// RefundCall is one recorded refund request.
type RefundCall struct {
	BookingID  string
	PaymentRef string
	Amount     float64
}

// NewMockPaymentGateway creates a new mock payment gateway.
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

func (m *MockPaymentGateway) RequestRefund(ctx context.Context, bookingID, paymentRef string, amount float64) error {
	if m.RefundError != nil {
		return m.RefundError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds = append(m.refunds, RefundCall{BookingID: bookingID, PaymentRef: paymentRef, Amount: amount})
	return nil
}

// Refunds returns the recorded refund requests.
func (m *MockPaymentGateway) Refunds() []RefundCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RefundCall(nil), m.refunds...)
}

// Ensure MockPaymentGateway implements service.PaymentGateway.
var _ service.PaymentGateway = (*MockPaymentGateway)(nil)

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[tripID] {
		return false, nil
	}
	m.locks[tripID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, tripID)
	return nil
}

// HoldLock takes the lock directly, simulating a concurrent holder.
func (m *MockLockStore) HoldLock(tripID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[tripID] = true
}

// Ensure MockLockStore implements redis.LockStoreInterface.
var _ redis.LockStoreInterface = (*MockLockStore)(nil)

// MockCacheStore is an in-memory implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu      sync.Mutex
	entries map[string]*redis.CachedAvailability

	// Counters for verification
	InvalidateCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{entries: make(map[string]*redis.CachedAvailability)}
}

func (m *MockCacheStore) GetAvailability(ctx context.Context, tripID string) (*redis.CachedAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[tripID]
	if !ok {
		return nil, nil
	}
	copy := *entry
	return &copy, nil
}

func (m *MockCacheStore) SetAvailability(ctx context.Context, a *redis.CachedAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *a
	m.entries[a.TripID] = &copy
	return nil
}

func (m *MockCacheStore) InvalidateAvailability(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, tripID)
	return nil
}

// Ensure MockCacheStore implements redis.CacheStoreInterface.
var _ redis.CacheStoreInterface = (*MockCacheStore)(nil)

// MockRouteGeoStore is an in-memory implementation of
// RouteGeoStoreInterface. It returns every indexed route regardless of
// distance; radius filtering belongs to Redis.
type MockRouteGeoStore struct {
	mu     sync.Mutex
	points map[string]redis.RoutePoint

	// Error injection
	IndexError error
	FindError  error
}

// NewMockRouteGeoStore creates a new mock route geo store.
func NewMockRouteGeoStore() *MockRouteGeoStore {
	return &MockRouteGeoStore{points: make(map[string]redis.RoutePoint)}
}

func (m *MockRouteGeoStore) IndexRoute(ctx context.Context, routeID string, lat, lng float64) error {
	if m.IndexError != nil {
		return m.IndexError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[routeID] = redis.RoutePoint{RouteID: routeID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockRouteGeoStore) FindNearbyRoutes(ctx context.Context, lat, lng, radiusKm float64) ([]redis.RoutePoint, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []redis.RoutePoint
	for _, p := range m.points {
		result = append(result, p)
	}
	return result, nil
}

func (m *MockRouteGeoStore) RemoveRoute(ctx context.Context, routeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.points, routeID)
	return nil
}

// CountIndexed returns how many routes are indexed.
func (m *MockRouteGeoStore) CountIndexed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points)
}

// Ensure MockRouteGeoStore implements redis.RouteGeoStoreInterface.
var _ redis.RouteGeoStoreInterface = (*MockRouteGeoStore)(nil)

// MockRouteFinder is a canned RouteFinder.
type MockRouteFinder struct {
	RouteIDs []string
	Err      error
}

func (m *MockRouteFinder) NearbyRouteIDs(ctx context.Context, lat, lng, radiusKm float64) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.RouteIDs, nil
}

// Ensure MockRouteFinder implements service.RouteFinder.
var _ service.RouteFinder = (*MockRouteFinder)(nil)
