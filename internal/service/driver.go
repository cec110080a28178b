package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"poolride/internal/domain"
	"poolride/internal/repository"
)

// DriverService handles driver accounts and availability.
type DriverService struct {
	driverRepo repository.DriverRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(driverRepo repository.DriverRepository) *DriverService {
	return &DriverService{driverRepo: driverRepo}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	Name        string
	Phone       string
	VehicleType string
}

// RegisterDriver creates a driver account, initially offline.
func (s *DriverService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	if req.Name == "" || req.Phone == "" {
		return nil, ErrInvalidDriverID
	}
	if req.VehicleType == "" {
		return nil, ErrInvalidVehicleType
	}

	driver := &domain.Driver{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Phone:       req.Phone,
		VehicleType: req.VehicleType,
		Status:      domain.DriverStatusOffline,
		CreatedAt:   time.Now(),
	}
	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	if id == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driverRepo.GetByID(ctx, id)
}

// SetDriverStatus flips a driver between ONLINE and OFFLINE. ON_TRIP is
// managed by the trip lifecycle, not here.
func (s *DriverService) SetDriverStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	if id == "" {
		return ErrInvalidDriverID
	}
	if status != domain.DriverStatusOnline && status != domain.DriverStatusOffline {
		return ErrInvalidDriverID
	}
	return s.driverRepo.UpdateStatus(ctx, id, status)
}
