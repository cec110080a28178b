package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"poolride/internal/repository"
	"poolride/internal/service"
)

// Error codes surfaced to API clients alongside the HTTP status. Clients
// branch on these, so they are stable.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION"
	CodeInvalidState     = "INVALID_STATE"
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	status, code := mapError(err)
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapError maps service/repository errors to HTTP status and client codes.
func mapError(err error) (int, string) {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidSeatCount),
		errors.Is(err, service.ErrInvalidVehicleType),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrOTPMismatch):
		return http.StatusBadRequest, CodeValidation

	// The booking flow treats a full trip as its own failure mode so the
	// client can offer alternatives.
	case errors.Is(err, service.ErrCapacityExceeded):
		return http.StatusConflict, CodeCapacityExceeded

	// State machine violations
	case errors.Is(err, service.ErrTripNotJoinable),
		errors.Is(err, service.ErrBookingNotConfirmable),
		errors.Is(err, service.ErrBookingNotCancellable),
		errors.Is(err, service.ErrBookingNotConfirmed),
		errors.Is(err, service.ErrTripNotDispatchable),
		errors.Is(err, service.ErrTripNotStartable),
		errors.Is(err, service.ErrTripNotCompletable),
		errors.Is(err, service.ErrTripAlreadyTerminal),
		errors.Is(err, service.ErrOTPAlreadyVerified):
		return http.StatusConflict, CodeInvalidState

	// Concurrent operations
	case errors.Is(err, service.ErrSwitchInProgress),
		errors.Is(err, service.ErrPhoneTaken),
		errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusConflict, CodeConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
