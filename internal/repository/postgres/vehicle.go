package postgres

import (
	"context"
	"database/sql"
	"errors"

	"poolride/internal/domain"
	"poolride/internal/repository"
)

// VehicleConfigRepository is a PostgreSQL implementation of
// repository.VehicleConfigRepository.
type VehicleConfigRepository struct {
	q Querier
}

// NewVehicleConfigRepository creates a new PostgreSQL vehicle config
// repository.
func NewVehicleConfigRepository(db *sql.DB) *VehicleConfigRepository {
	return &VehicleConfigRepository{q: db}
}

const vehicleColumns = `
	id, vehicle_type, display_name, description, category, total_price,
	min_seats, max_seats, active`

func scanVehicleConfig(s rowScanner) (*domain.VehicleConfig, error) {
	var cfg domain.VehicleConfig
	err := s.Scan(
		&cfg.ID,
		&cfg.VehicleType,
		&cfg.DisplayName,
		&cfg.Description,
		&cfg.Category,
		&cfg.TotalPrice,
		&cfg.MinSeats,
		&cfg.MaxSeats,
		&cfg.Active,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetByType retrieves the active config for a vehicle type.
func (r *VehicleConfigRepository) GetByType(ctx context.Context, vehicleType string) (*domain.VehicleConfig, error) {
	query := `SELECT` + vehicleColumns + ` FROM vehicle_configs WHERE vehicle_type = $1 AND active = TRUE`

	cfg, err := scanVehicleConfig(r.q.QueryRowContext(ctx, query, vehicleType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return cfg, nil
}

// GetActive retrieves all active vehicle configs.
func (r *VehicleConfigRepository) GetActive(ctx context.Context) ([]*domain.VehicleConfig, error) {
	query := `SELECT` + vehicleColumns + ` FROM vehicle_configs WHERE active = TRUE ORDER BY total_price ASC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.VehicleConfig
	for rows.Next() {
		cfg, err := scanVehicleConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// Ensure VehicleConfigRepository implements
// repository.VehicleConfigRepository.
var _ repository.VehicleConfigRepository = (*VehicleConfigRepository)(nil)
