package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"poolride/internal/domain"
	"poolride/internal/repository"
)

// ErrPhoneTaken is returned when registering a phone number that already
// has an account.
var ErrPhoneTaken = errors.New("phone number already registered")

// UserService handles rider accounts.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// RegisterUserRequest contains the parameters for registering a user.
type RegisterUserRequest struct {
	Name  string
	Phone string
}

// RegisterUser creates a rider account. Phone numbers are unique.
func (s *UserService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*domain.User, error) {
	if req.Name == "" || req.Phone == "" {
		return nil, ErrInvalidUserID
	}

	existing, err := s.userRepo.GetByPhone(ctx, req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, ErrInvalidUserID
	}
	return s.userRepo.GetByID(ctx, id)
}
