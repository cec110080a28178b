package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poolride/internal/domain"
	"poolride/internal/repository"
	"poolride/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
	tripRepo       repository.TripRepository
	driverRepo     repository.DriverRepository
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(
	bookingService *service.BookingService,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		tripRepo:       tripRepo,
		driverRepo:     driverRepo,
	}
}

// PassengerPayload is one passenger in a booking request.
type PassengerPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	UserID             string             `json:"user_id"`
	TripID             string             `json:"trip_id,omitempty"`
	RouteID            string             `json:"route_id,omitempty"`
	VehicleType        string             `json:"vehicle_type,omitempty"`
	BookingType        string             `json:"booking_type"` // PRIVATE, SHARE_POOL
	Seats              int                `json:"seats"`
	PaymentMethod      string             `json:"payment_method"` // ONLINE, UPI, WALLET, CASH
	Passengers         []PassengerPayload `json:"passengers,omitempty"`
	ScheduledDeparture time.Time          `json:"scheduled_departure,omitempty"`
	PickupLat          float64            `json:"pickup_lat"`
	PickupLng          float64            `json:"pickup_lng"`
	DropLat            float64            `json:"drop_lat"`
	DropLng            float64            `json:"drop_lng"`
}

// SeatResponse is one reserved seat in a booking response.
type SeatResponse struct {
	SeatNumber     int     `json:"seat_number"`
	Status         string  `json:"status"`
	PricePaid      float64 `json:"price_paid"`
	PassengerName  string  `json:"passenger_name"`
	PassengerPhone string  `json:"passenger_phone,omitempty"`
}

// DriverContact is the driver block on a booking response. The phone is
// withheld until the booking is confirmed.
type DriverContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// BookingResponse is the HTTP response for a booking.
type BookingResponse struct {
	ID            string         `json:"id"`
	Code          string         `json:"code"`
	UserID        string         `json:"user_id"`
	TripID        string         `json:"trip_id"`
	TripCode      string         `json:"trip_code,omitempty"`
	TripStatus    string         `json:"trip_status,omitempty"`
	BookingType   string         `json:"booking_type"`
	Status        string         `json:"status"`
	Seats         []SeatResponse `json:"seats,omitempty"`
	SeatsBooked   int            `json:"seats_booked"`
	TotalAmount   float64        `json:"total_amount"`
	PerSeatAmount float64        `json:"per_seat_amount"`
	PaymentStatus string         `json:"payment_status"`
	PaymentMethod string         `json:"payment_method"`
	OTP           string         `json:"otp,omitempty"`
	OTPVerified   bool           `json:"otp_verified"`
	RefundAmount  float64        `json:"refund_amount,omitempty"`
	CancelReason  string         `json:"cancel_reason,omitempty"`
	PriceMessage  string         `json:"price_message,omitempty"`
	Driver        *DriverContact `json:"driver,omitempty"`
	ConfirmedAt   string         `json:"confirmed_at,omitempty"`
	CancelledAt   string         `json:"cancelled_at,omitempty"`
}

// ConfirmBookingRequest is the HTTP request body for confirming a booking.
// The payment method is the one the callback actually charged; omitting it
// keeps the method chosen at creation.
type ConfirmBookingRequest struct {
	PaymentRef    string `json:"payment_ref,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"` // ONLINE, UPI, WALLET, CASH
}

// CancelBookingRequest is the HTTP request body for cancelling a booking.
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SwitchBookingRequest is the HTTP request body for switching vehicle type.
type SwitchBookingRequest struct {
	VehicleType string `json:"vehicle_type"`
}

// VerifyOTPRequest is the HTTP request body for the boarding OTP check.
type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	passengers := make([]service.PassengerInfo, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		passengers = append(passengers, service.PassengerInfo{Name: p.Name, Phone: p.Phone})
	}

	result, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		UserID:             req.UserID,
		TripID:             req.TripID,
		RouteID:            req.RouteID,
		VehicleType:        req.VehicleType,
		BookingType:        domain.BookingType(req.BookingType),
		Seats:              req.Seats,
		PaymentMethod:      domain.PaymentMethod(req.PaymentMethod),
		Passengers:         passengers,
		ScheduledDeparture: req.ScheduledDeparture,
		PickupLat:          req.PickupLat,
		PickupLng:          req.PickupLng,
		DropLat:            req.DropLat,
		DropLng:            req.DropLng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := h.buildResponse(c, result.Booking, result.Trip, result.Reservations)
	response.PriceMessage = result.PriceMessage
	respondJSON(c, http.StatusCreated, response)
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID := c.Param("id")

	booking, reservations, err := h.bookingService.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	trip, err := h.tripRepo.GetByID(c.Request.Context(), booking.TripID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.buildResponse(c, booking, trip, reservations))
}

// ConfirmBooking handles POST /v1/bookings/:id/confirm
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	bookingID := c.Param("id")

	var req ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	booking, err := h.bookingService.ConfirmBooking(c.Request.Context(), bookingID, req.PaymentRef, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.buildResponse(c, booking, nil, nil))
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID := c.Param("id")

	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "Cancelled by user"
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), bookingID, reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.buildResponse(c, booking, nil, nil))
}

// SwitchBooking handles POST /v1/bookings/:id/switch
func (h *BookingHandler) SwitchBooking(c *gin.Context) {
	bookingID := c.Param("id")

	var req SwitchBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	result, err := h.bookingService.SwitchToAlternative(c.Request.Context(), bookingID, req.VehicleType)
	if err != nil {
		respondError(c, err)
		return
	}

	response := h.buildResponse(c, result.Booking, result.Trip, result.Reservations)
	response.PriceMessage = result.PriceMessage
	respondJSON(c, http.StatusOK, response)
}

// VerifyOTP handles POST /v1/bookings/:id/verify-otp
func (h *BookingHandler) VerifyOTP(c *gin.Context) {
	bookingID := c.Param("id")

	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	booking, err := h.bookingService.VerifyOTP(c.Request.Context(), bookingID, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.buildResponse(c, booking, nil, nil))
}

// buildResponse assembles the booking response. trip and reservations may
// be nil; the driver block is loaded lazily and the phone withheld until
// the booking is confirmed.
func (h *BookingHandler) buildResponse(c *gin.Context, booking *domain.Booking, trip *domain.Trip, reservations []*domain.SeatReservation) BookingResponse {
	response := BookingResponse{
		ID:            booking.ID,
		Code:          booking.Code,
		UserID:        booking.UserID,
		TripID:        booking.TripID,
		BookingType:   string(booking.BookingType),
		Status:        string(booking.Status),
		SeatsBooked:   booking.SeatsBooked,
		TotalAmount:   booking.TotalAmount,
		PerSeatAmount: booking.PerSeatAmount,
		PaymentStatus: string(booking.PaymentStatus),
		PaymentMethod: string(booking.PaymentMethod),
		OTPVerified:   booking.OTPVerified,
		RefundAmount:  booking.RefundAmount,
		CancelReason:  booking.CancelReason,
	}

	confirmed := booking.Status == domain.BookingStatusConfirmed ||
		booking.Status == domain.BookingStatusCompleted
	if confirmed {
		response.OTP = booking.OTP
	}
	if !booking.ConfirmedAt.IsZero() {
		response.ConfirmedAt = booking.ConfirmedAt.Format(time.RFC3339)
	}
	if !booking.CancelledAt.IsZero() {
		response.CancelledAt = booking.CancelledAt.Format(time.RFC3339)
	}

	for _, r := range reservations {
		response.Seats = append(response.Seats, SeatResponse{
			SeatNumber:     r.SeatNumber,
			Status:         string(r.Status),
			PricePaid:      r.PricePaid,
			PassengerName:  r.PassengerName,
			PassengerPhone: r.PassengerPhone,
		})
	}

	if trip == nil && booking.TripID != "" {
		loaded, err := h.tripRepo.GetByID(c.Request.Context(), booking.TripID)
		if err == nil {
			trip = loaded
		}
	}
	if trip != nil {
		response.TripCode = trip.Code
		response.TripStatus = string(trip.Status)

		if trip.DriverID != "" {
			driver, err := h.driverRepo.GetByID(c.Request.Context(), trip.DriverID)
			if err == nil {
				contact := &DriverContact{ID: driver.ID, Name: driver.Name}
				if confirmed {
					contact.Phone = driver.Phone
				}
				response.Driver = contact
			}
		}
	}

	return response
}
