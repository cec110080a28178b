package tests

import (
	"time"

	"poolride/internal/config"
	"poolride/internal/domain"
	"poolride/internal/service"
)

// testBookingConfig returns fixed booking tunables so tests never depend
// on the environment.
func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		CommissionRate:       0.05,
		SeatLockTTL:          10 * time.Minute,
		CountdownWindow:      10 * time.Minute,
		AutoConfirmSeatMin:   3,
		AutoConfirmSeatMax:   4,
		AutoConfirmWindow:    45 * time.Minute,
		ReturnGuaranteeSeats: 2,
		NightFareEnabled:     false,
		NightFareStartHour:   22,
		NightFareEndHour:     5,
		NightFareMultiplier:  1.25,
		SwitchLockTTL:        30 * time.Second,
	}
}

func testSettlementConfig() config.SettlementConfig {
	return config.SettlementConfig{
		SweepInterval:  time.Minute,
		PaymentTimeout: 15 * time.Minute,
		CashSweepHour:  23,
	}
}

// newPoolTrip builds a shared pool trip fixture.
func newPoolTrip(id string, status domain.TripStatus, totalSeats, booked, minSeats int, totalPrice float64) *domain.Trip {
	now := time.Now()
	return &domain.Trip{
		ID:                  id,
		Code:                "TR-" + id,
		RouteID:             "route-1",
		VehicleType:         "AUTO_4",
		Status:              status,
		TotalSeats:          totalSeats,
		SeatsBooked:         booked,
		MinSeats:            minSeats,
		TotalPrice:          totalPrice,
		CurrentPerHeadPrice: totalPrice,
		ScheduledDeparture:  now.Add(time.Hour),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// bookingHarness wires a BookingService over the in-memory mocks.
type bookingHarness struct {
	trips     *MockTripRepository
	bookings  *MockBookingRepository
	resv      *MockReservationRepository
	routes    *MockRouteRepository
	vehicles  *MockVehicleConfigRepository
	users     *MockUserRepository
	drivers   *MockDriverRepository
	allocator *MockAllocator
	gateway   *MockPaymentGateway
	wallet    *service.MemoryWallet
	locks     *MockLockStore
	cache     *MockCacheStore
	pricing   *service.PricingEngine
	lifecycle *service.TripLifecycleManager
	service   *service.BookingService
	cfg       config.BookingConfig
}

func newBookingHarness() *bookingHarness {
	cfg := testBookingConfig()

	trips := NewMockTripRepository()
	bookings := NewMockBookingRepository()
	resv := NewMockReservationRepository()
	routes := NewMockRouteRepository()
	vehicles := NewMockVehicleConfigRepository()
	users := NewMockUserRepository()
	drivers := NewMockDriverRepository()
	allocator := NewMockAllocator(trips, bookings, resv, cfg.SeatLockTTL)
	gateway := NewMockPaymentGateway()
	wallet := service.NewMemoryWallet()
	locks := NewMockLockStore()
	cache := NewMockCacheStore()

	pricing := service.NewPricingEngine(vehicles)
	lifecycle := service.NewTripLifecycleManager(trips, bookings, pricing, cfg)
	svc := service.NewBookingService(
		allocator, trips, bookings, resv, routes, vehicles, users,
		lifecycle, pricing, gateway, wallet, service.NewNotificationService(),
		cache, locks, cfg,
	)

	users.AddUser(&domain.User{ID: "user-1", Name: "Asha", Phone: "9990001111", CreatedAt: time.Now()})
	users.AddUser(&domain.User{ID: "user-2", Name: "Ravi", Phone: "9990002222", CreatedAt: time.Now()})
	drivers.AddDriver(&domain.Driver{ID: "driver-1", Name: "Kumar", Phone: "9990009999", VehicleType: "AUTO_4", Status: domain.DriverStatusOnline})

	vehicles.AddConfig(&domain.VehicleConfig{
		ID: "vc-auto", VehicleType: "AUTO_4", DisplayName: "Auto (4 seats)",
		Category: domain.VehicleCategoryAuto, TotalPrice: 400, MinSeats: 3, MaxSeats: 4, Active: true,
	})
	vehicles.AddConfig(&domain.VehicleConfig{
		ID: "vc-sedan", VehicleType: "SEDAN_4", DisplayName: "Sedan (4 seats)",
		Category: domain.VehicleCategoryCar, TotalPrice: 1000, MinSeats: 2, MaxSeats: 4, Active: true,
	})

	routes.AddRoute(&domain.Route{
		ID: "route-1", Name: "City - Airport",
		OriginLat: 12.97, OriginLng: 77.59, DestLat: 13.20, DestLng: 77.71,
		DistanceKm: 35, PriceMultiplier: 1.0, Bidirectional: true, Active: true,
	})

	return &bookingHarness{
		trips:     trips,
		bookings:  bookings,
		resv:      resv,
		routes:    routes,
		vehicles:  vehicles,
		users:     users,
		drivers:   drivers,
		allocator: allocator,
		gateway:   gateway,
		wallet:    wallet,
		locks:     locks,
		cache:     cache,
		pricing:   pricing,
		lifecycle: lifecycle,
		service:   svc,
		cfg:       cfg,
	}
}
