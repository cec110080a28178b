package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"poolride/internal/domain"
	"poolride/internal/repository"
)

// PricingEngine computes per-head prices, vehicle options and alternatives.
// All monetary rounding is ceiling-to-paise so fractional revenue never
// rounds away from the platform.
type PricingEngine struct {
	vehicleRepo repository.VehicleConfigRepository
	now         func() time.Time
}

// NewPricingEngine creates a new PricingEngine.
func NewPricingEngine(vehicleRepo repository.VehicleConfigRepository) *PricingEngine {
	return &PricingEngine{
		vehicleRepo: vehicleRepo,
		now:         time.Now,
	}
}

// Ceil2 rounds up to two decimal places.
func Ceil2(x float64) float64 {
	return math.Ceil(x*100) / 100
}

// InNightWindow reports whether hour falls in [startHour, endHour), with
// the window allowed to wrap midnight.
func InNightWindow(hour, startHour, endHour int) bool {
	if startHour == endHour {
		return false
	}
	if startHour < endHour {
		return hour >= startHour && hour < endHour
	}
	return hour >= startHour || hour < endHour
}

// EffectiveTotalAt returns the trip's total price with the night fare
// applied when `at` falls inside the trip's night window.
func (e *PricingEngine) EffectiveTotalAt(trip *domain.Trip, at time.Time) float64 {
	total := trip.TotalPrice
	if trip.NightFareEnabled && InNightWindow(at.Hour(), trip.NightFareStartHour, trip.NightFareEndHour) {
		total *= trip.NightFareMultiplier
	}
	return total
}

// PerHeadPrice returns the current per-seat fare for a trip.
func (e *PricingEngine) PerHeadPrice(trip *domain.Trip) float64 {
	seats := trip.SeatsBooked
	if seats < 1 {
		seats = 1
	}
	return Ceil2(e.EffectiveTotalAt(trip, e.now()) / float64(seats))
}

// ProjectedPerHeadPrice returns the per-seat fare if extraSeats more seats
// were booked.
func (e *PricingEngine) ProjectedPerHeadPrice(trip *domain.Trip, extraSeats int) float64 {
	seats := trip.SeatsBooked + extraSeats
	if seats < 1 {
		seats = 1
	}
	return Ceil2(e.EffectiveTotalAt(trip, e.now()) / float64(seats))
}

// PriceMessage returns the rider-facing availability line for a trip.
func (e *PricingEngine) PriceMessage(trip *domain.Trip) string {
	available := trip.AvailableSeats()

	switch {
	case available <= 0:
		return "Trip is full"
	case trip.SeatsBooked < trip.MinSeats:
		return fmt.Sprintf("%d more seat(s) needed to confirm trip", trip.MinSeats-trip.SeatsBooked)
	case available == 1:
		return fmt.Sprintf("1 seat available - fare may reduce to %.2f", e.ProjectedPerHeadPrice(trip, 1))
	default:
		return fmt.Sprintf("%d seats available - fare: %.2f/seat", available, e.PerHeadPrice(trip))
	}
}

// VehicleOption is a bookable vehicle type priced for a route.
type VehicleOption struct {
	VehicleType string  `json:"vehicle_type"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	TotalPrice  float64 `json:"total_price"`
	MinSeats    int     `json:"min_seats"`
	MaxSeats    int     `json:"max_seats"`
	BestPerSeat float64 `json:"best_per_seat"`
	Recommended bool    `json:"recommended"`
}

// VehicleOptions prices every active vehicle config for the route. A nil
// route means no multiplier. The option with the lowest best-case per-seat
// price is marked recommended.
func (e *PricingEngine) VehicleOptions(ctx context.Context, route *domain.Route) ([]VehicleOption, error) {
	configs, err := e.vehicleRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	multiplier := 1.0
	if route != nil && route.PriceMultiplier > 0 {
		multiplier = route.PriceMultiplier
	}

	options := make([]VehicleOption, 0, len(configs))
	bestIdx := -1
	for i, cfg := range configs {
		price := Ceil2(cfg.TotalPrice * multiplier)
		option := VehicleOption{
			VehicleType: cfg.VehicleType,
			DisplayName: cfg.DisplayName,
			Category:    string(cfg.Category),
			TotalPrice:  price,
			MinSeats:    cfg.MinSeats,
			MaxSeats:    cfg.MaxSeats,
			BestPerSeat: Ceil2(price / float64(cfg.MaxSeats)),
		}
		options = append(options, option)
		if bestIdx == -1 || option.BestPerSeat < options[bestIdx].BestPerSeat {
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		options[bestIdx].Recommended = true
	}

	return options, nil
}

// Alternative is a vehicle type offered in place of the current one.
type Alternative struct {
	VehicleType string  `json:"vehicle_type"`
	DisplayName string  `json:"display_name"`
	TotalPrice  float64 `json:"total_price"`
	BestPerSeat float64 `json:"best_per_seat"`
	Reason      string  `json:"reason"`
	Recommended bool    `json:"recommended"`
}

// Alternatives lists every other active vehicle type, cheapest best-case
// per-seat price first. Auto-category options are recommended over cars.
func (e *PricingEngine) Alternatives(ctx context.Context, currentType string, route *domain.Route) ([]Alternative, error) {
	configs, err := e.vehicleRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	multiplier := 1.0
	if route != nil && route.PriceMultiplier > 0 {
		multiplier = route.PriceMultiplier
	}

	var alternatives []Alternative
	for _, cfg := range configs {
		if cfg.VehicleType == currentType {
			continue
		}
		price := Ceil2(cfg.TotalPrice * multiplier)
		alternatives = append(alternatives, Alternative{
			VehicleType: cfg.VehicleType,
			DisplayName: cfg.DisplayName,
			TotalPrice:  price,
			BestPerSeat: Ceil2(price / float64(cfg.MaxSeats)),
			Reason:      alternativeReason(cfg.Category),
			Recommended: cfg.Category == domain.VehicleCategoryAuto,
		})
	}

	sort.Slice(alternatives, func(i, j int) bool {
		return alternatives[i].BestPerSeat < alternatives[j].BestPerSeat
	})

	return alternatives, nil
}

func alternativeReason(category domain.VehicleCategory) string {
	switch category {
	case domain.VehicleCategoryAuto:
		return "Lower fare when the pool fills"
	case domain.VehicleCategoryCar:
		return "More comfort on the same route"
	default:
		return "Available on this route"
	}
}
