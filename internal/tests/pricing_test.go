package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"poolride/internal/domain"
	"poolride/internal/service"
)

// ──────────────────────────────────────────────
// ROUNDING AND NIGHT FARE
// ──────────────────────────────────────────────

func TestCeil2RoundsUp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want float64
	}{
		{100, 100},
		{133.333333, 133.34},
		{0.001, 0.01},
		{19.999, 20},
		{250.50, 250.50},
	}

	for _, c := range cases {
		if got := service.Ceil2(c.in); got != c.want {
			t.Errorf("Ceil2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestInNightWindowWrapsMidnight(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hour, start, end int
		want             bool
	}{
		{23, 22, 5, true},
		{2, 22, 5, true},
		{22, 22, 5, true},
		{5, 22, 5, false},
		{12, 22, 5, false},
		{10, 9, 17, true},
		{17, 9, 17, false},
		{9, 9, 9, false},
	}

	for _, c := range cases {
		if got := service.InNightWindow(c.hour, c.start, c.end); got != c.want {
			t.Errorf("InNightWindow(%d, %d, %d) = %v, want %v", c.hour, c.start, c.end, got, c.want)
		}
	}
}

func TestEffectiveTotalAppliesNightMultiplier(t *testing.T) {
	t.Parallel()

	engine := service.NewPricingEngine(NewMockVehicleConfigRepository())

	trip := newPoolTrip("trip-night", domain.TripStatusFilling, 4, 1, 3, 400)
	trip.NightFareEnabled = true
	trip.NightFareStartHour = 22
	trip.NightFareEndHour = 5
	trip.NightFareMultiplier = 1.25

	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	if got := engine.EffectiveTotalAt(trip, night); got != 500 {
		t.Errorf("night total = %v, want 500", got)
	}

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := engine.EffectiveTotalAt(trip, day); got != 400 {
		t.Errorf("day total = %v, want 400", got)
	}

	trip.NightFareEnabled = false
	if got := engine.EffectiveTotalAt(trip, night); got != 400 {
		t.Errorf("disabled night fare total = %v, want 400", got)
	}
}

// ──────────────────────────────────────────────
// PER-HEAD PRICING
// ──────────────────────────────────────────────

func TestPerHeadPriceDropsAsSeatsFill(t *testing.T) {
	t.Parallel()

	engine := service.NewPricingEngine(NewMockVehicleConfigRepository())
	trip := newPoolTrip("trip-price", domain.TripStatusFilling, 4, 0, 3, 400)

	cases := []struct {
		booked int
		want   float64
	}{
		{0, 400}, // floor of one head
		{1, 400},
		{2, 200},
		{3, 133.34},
		{4, 100},
	}

	for _, c := range cases {
		trip.SeatsBooked = c.booked
		if got := engine.PerHeadPrice(trip); got != c.want {
			t.Errorf("PerHeadPrice with %d booked = %v, want %v", c.booked, got, c.want)
		}
	}
}

func TestProjectedPerHeadPrice(t *testing.T) {
	t.Parallel()

	engine := service.NewPricingEngine(NewMockVehicleConfigRepository())
	trip := newPoolTrip("trip-proj", domain.TripStatusFilling, 4, 1, 3, 400)

	if got := engine.ProjectedPerHeadPrice(trip, 1); got != 200 {
		t.Errorf("projected price = %v, want 200", got)
	}
	if got := engine.ProjectedPerHeadPrice(trip, 3); got != 100 {
		t.Errorf("projected price = %v, want 100", got)
	}
}

func TestPriceMessage(t *testing.T) {
	t.Parallel()

	engine := service.NewPricingEngine(NewMockVehicleConfigRepository())

	full := newPoolTrip("trip-full", domain.TripStatusMinReached, 4, 4, 3, 400)
	if got := engine.PriceMessage(full); got != "Trip is full" {
		t.Errorf("full trip message = %q", got)
	}

	filling := newPoolTrip("trip-filling", domain.TripStatusFilling, 4, 1, 3, 400)
	want := "2 more seat(s) needed to confirm trip"
	if got := engine.PriceMessage(filling); got != want {
		t.Errorf("filling trip message = %q, want %q", got, want)
	}

	oneLeft := newPoolTrip("trip-one", domain.TripStatusMinReached, 4, 3, 3, 400)
	want = fmt.Sprintf("1 seat available - fare may reduce to %.2f", 100.0)
	if got := engine.PriceMessage(oneLeft); got != want {
		t.Errorf("one-seat message = %q, want %q", got, want)
	}

	open := newPoolTrip("trip-open", domain.TripStatusMinReached, 8, 3, 2, 400)
	want = fmt.Sprintf("5 seats available - fare: %.2f/seat", 133.34)
	if got := engine.PriceMessage(open); got != want {
		t.Errorf("open trip message = %q, want %q", got, want)
	}
}

// ──────────────────────────────────────────────
// VEHICLE OPTIONS AND ALTERNATIVES
// ──────────────────────────────────────────────

func TestVehicleOptionsRecommendsCheapestPerSeat(t *testing.T) {
	t.Parallel()

	vehicles := NewMockVehicleConfigRepository()
	vehicles.AddConfig(&domain.VehicleConfig{
		VehicleType: "AUTO_4", DisplayName: "Auto (4 seats)",
		Category: domain.VehicleCategoryAuto, TotalPrice: 400, MinSeats: 3, MaxSeats: 4, Active: true,
	})
	vehicles.AddConfig(&domain.VehicleConfig{
		VehicleType: "SEDAN_4", DisplayName: "Sedan (4 seats)",
		Category: domain.VehicleCategoryCar, TotalPrice: 1000, MinSeats: 2, MaxSeats: 4, Active: true,
	})

	engine := service.NewPricingEngine(vehicles)

	options, err := engine.VehicleOptions(context.Background(), nil)
	if err != nil {
		t.Fatalf("VehicleOptions failed: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}

	for _, o := range options {
		switch o.VehicleType {
		case "AUTO_4":
			if o.BestPerSeat != 100 {
				t.Errorf("auto best per seat = %v, want 100", o.BestPerSeat)
			}
			if !o.Recommended {
				t.Error("cheapest per-seat option should be recommended")
			}
		case "SEDAN_4":
			if o.Recommended {
				t.Error("sedan should not be recommended over the auto")
			}
		}
	}
}

func TestVehicleOptionsApplyRouteMultiplier(t *testing.T) {
	t.Parallel()

	vehicles := NewMockVehicleConfigRepository()
	vehicles.AddConfig(&domain.VehicleConfig{
		VehicleType: "AUTO_4", DisplayName: "Auto (4 seats)",
		Category: domain.VehicleCategoryAuto, TotalPrice: 400, MinSeats: 3, MaxSeats: 4, Active: true,
	})

	engine := service.NewPricingEngine(vehicles)
	route := &domain.Route{ID: "route-hill", PriceMultiplier: 1.5, Active: true}

	options, err := engine.VehicleOptions(context.Background(), route)
	if err != nil {
		t.Fatalf("VehicleOptions failed: %v", err)
	}
	if len(options) != 1 {
		t.Fatalf("expected 1 option, got %d", len(options))
	}
	if options[0].TotalPrice != 600 {
		t.Errorf("multiplied total = %v, want 600", options[0].TotalPrice)
	}
	if options[0].BestPerSeat != 150 {
		t.Errorf("multiplied per seat = %v, want 150", options[0].BestPerSeat)
	}
}

func TestAlternativesSortedByPerSeatPrice(t *testing.T) {
	t.Parallel()

	vehicles := NewMockVehicleConfigRepository()
	vehicles.AddConfig(&domain.VehicleConfig{
		VehicleType: "AUTO_4", DisplayName: "Auto (4 seats)",
		Category: domain.VehicleCategoryAuto, TotalPrice: 400, MinSeats: 3, MaxSeats: 4, Active: true,
	})
	vehicles.AddConfig(&domain.VehicleConfig{
		VehicleType: "SEDAN_4", DisplayName: "Sedan (4 seats)",
		Category: domain.VehicleCategoryCar, TotalPrice: 1000, MinSeats: 2, MaxSeats: 4, Active: true,
	})
	vehicles.AddConfig(&domain.VehicleConfig{
		VehicleType: "SUV_6", DisplayName: "SUV (6 seats)",
		Category: domain.VehicleCategoryCar, TotalPrice: 1800, MinSeats: 3, MaxSeats: 6, Active: true,
	})

	engine := service.NewPricingEngine(vehicles)

	alternatives, err := engine.Alternatives(context.Background(), "AUTO_4", nil)
	if err != nil {
		t.Fatalf("Alternatives failed: %v", err)
	}
	if len(alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(alternatives))
	}
	if alternatives[0].VehicleType != "SEDAN_4" {
		t.Errorf("first alternative = %s, want SEDAN_4", alternatives[0].VehicleType)
	}
	if alternatives[1].VehicleType != "SUV_6" {
		t.Errorf("second alternative = %s, want SUV_6", alternatives[1].VehicleType)
	}
	for _, a := range alternatives {
		if a.VehicleType == "AUTO_4" {
			t.Error("current vehicle type must not appear in alternatives")
		}
	}
}
