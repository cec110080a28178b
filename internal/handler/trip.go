package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poolride/internal/domain"
	"poolride/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// PublishTripRequest is the HTTP request body for publishing a trip.
type PublishTripRequest struct {
	DriverID           string    `json:"driver_id"`
	RouteID            string    `json:"route_id,omitempty"`
	VehicleType        string    `json:"vehicle_type"`
	ScheduledDeparture time.Time `json:"scheduled_departure"`
	ReturnTrip         bool      `json:"return_trip,omitempty"`
	PickupLat          float64   `json:"pickup_lat"`
	PickupLng          float64   `json:"pickup_lng"`
	DropLat            float64   `json:"drop_lat"`
	DropLng            float64   `json:"drop_lng"`
}

// DispatchTripRequest is the HTTP request body for dispatching a trip.
type DispatchTripRequest struct {
	DriverID string `json:"driver_id"`
}

// CancelTripRequest is the HTTP request body for cancelling a trip.
type CancelTripRequest struct {
	Reason string `json:"reason,omitempty"`
}

// TripResponse is the HTTP response for a trip.
type TripResponse struct {
	ID                  string  `json:"id"`
	Code                string  `json:"code"`
	RouteID             string  `json:"route_id,omitempty"`
	VehicleType         string  `json:"vehicle_type"`
	Status              string  `json:"status"`
	TotalSeats          int     `json:"total_seats"`
	SeatsBooked         int     `json:"seats_booked"`
	SeatsAvailable      int     `json:"seats_available"`
	MinSeats            int     `json:"min_seats"`
	TotalPrice          float64 `json:"total_price"`
	CurrentPerHeadPrice float64 `json:"current_per_head_price"`
	ScheduledDeparture  string  `json:"scheduled_departure,omitempty"`
	CountdownExpiry     string  `json:"countdown_expiry,omitempty"`
	PickupLat           float64 `json:"pickup_lat"`
	PickupLng           float64 `json:"pickup_lng"`
	DropLat             float64 `json:"drop_lat"`
	DropLng             float64 `json:"drop_lng"`
	IsPrivate           bool    `json:"is_private"`
	ReturnTrip          bool    `json:"return_trip"`
	ReturnTripGuarantee bool    `json:"return_trip_guarantee"`
	DriverID            string  `json:"driver_id,omitempty"`
	PassengersOnboarded int     `json:"passengers_onboarded"`
}

// PublishTrip handles POST /v1/trips
func (h *TripHandler) PublishTrip(c *gin.Context) {
	var req PublishTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	trip, err := h.tripService.PublishTrip(c.Request.Context(), service.PublishTripRequest{
		DriverID:           req.DriverID,
		RouteID:            req.RouteID,
		VehicleType:        req.VehicleType,
		ScheduledDeparture: req.ScheduledDeparture,
		ReturnTrip:         req.ReturnTrip,
		PickupLat:          req.PickupLat,
		PickupLng:          req.PickupLng,
		DropLat:            req.DropLat,
		DropLng:            req.DropLng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, buildTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, buildTripResponse(trip))
}

// GetAvailability handles GET /v1/trips/:id/availability
func (h *TripHandler) GetAvailability(c *gin.Context) {
	availability, err := h.tripService.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, availability)
}

// DispatchTrip handles POST /v1/trips/:id/dispatch
func (h *TripHandler) DispatchTrip(c *gin.Context) {
	var req DispatchTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	trip, err := h.tripService.Dispatch(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, buildTripResponse(trip))
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	trip, err := h.tripService.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, buildTripResponse(trip))
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	trip, err := h.tripService.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, buildTripResponse(trip))
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "Trip cancelled"
	}

	trip, err := h.tripService.CancelTrip(c.Request.Context(), c.Param("id"), reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, buildTripResponse(trip))
}

func buildTripResponse(trip *domain.Trip) TripResponse {
	response := TripResponse{
		ID:                  trip.ID,
		Code:                trip.Code,
		RouteID:             trip.RouteID,
		VehicleType:         trip.VehicleType,
		Status:              string(trip.Status),
		TotalSeats:          trip.TotalSeats,
		SeatsBooked:         trip.SeatsBooked,
		SeatsAvailable:      trip.AvailableSeats(),
		MinSeats:            trip.MinSeats,
		TotalPrice:          trip.TotalPrice,
		CurrentPerHeadPrice: trip.CurrentPerHeadPrice,
		PickupLat:           trip.PickupLat,
		PickupLng:           trip.PickupLng,
		DropLat:             trip.DropLat,
		DropLng:             trip.DropLng,
		IsPrivate:           trip.IsPrivate,
		ReturnTrip:          trip.ReturnTrip,
		ReturnTripGuarantee: trip.ReturnTripGuarantee,
		DriverID:            trip.DriverID,
		PassengersOnboarded: trip.PassengersOnboarded,
	}

	if !trip.ScheduledDeparture.IsZero() {
		response.ScheduledDeparture = trip.ScheduledDeparture.Format(time.RFC3339)
	}
	if !trip.CountdownExpiry.IsZero() {
		response.CountdownExpiry = trip.CountdownExpiry.Format(time.RFC3339)
	}

	return response
}
