package domain

// VehicleCategory groups vehicle types for the alternatives listing.
type VehicleCategory string

const (
	VehicleCategoryAuto VehicleCategory = "AUTO"
	VehicleCategoryCar  VehicleCategory = "CAR"
)

// VehicleConfig is the admin-managed catalog entry for a vehicle type.
// TotalPrice is the base full-vehicle price before route multipliers.
type VehicleConfig struct {
	ID          string
	VehicleType string
	DisplayName string
	Description string
	Category    VehicleCategory
	TotalPrice  float64
	MinSeats    int
	MaxSeats    int
	Active      bool
}
