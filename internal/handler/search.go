package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"poolride/internal/domain"
	"poolride/internal/repository"
	"poolride/internal/service"
)

// SearchHandler handles HTTP requests for trip search and vehicle pricing.
type SearchHandler struct {
	searchService *service.SearchService
	pricing       *service.PricingEngine
	routeRepo     repository.RouteRepository
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(
	searchService *service.SearchService,
	pricing *service.PricingEngine,
	routeRepo repository.RouteRepository,
) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		pricing:       pricing,
		routeRepo:     routeRepo,
	}
}

// SearchTrips handles GET /v1/search/trips
func (h *SearchHandler) SearchTrips(c *gin.Context) {
	req := service.SearchRequest{
		RouteID:     c.Query("route_id"),
		VehicleType: c.Query("vehicle_type"),
		PickupLat:   queryFloat(c, "pickup_lat"),
		PickupLng:   queryFloat(c, "pickup_lng"),
		RadiusKm:    queryFloat(c, "radius_km"),
		Seats:       queryInt(c, "seats"),
	}

	result, err := h.searchService.SearchTrips(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}

// GetAlternatives handles GET /v1/search/alternatives
func (h *SearchHandler) GetAlternatives(c *gin.Context) {
	vehicleType := c.Query("vehicle_type")
	if vehicleType == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "vehicle_type is required", Code: CodeValidation})
		return
	}

	var route *domain.Route
	if routeID := c.Query("route_id"); routeID != "" {
		loaded, err := h.routeRepo.GetByID(c.Request.Context(), routeID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			respondError(c, err)
			return
		}
		route = loaded
	}

	alternatives, err := h.pricing.Alternatives(c.Request.Context(), vehicleType, route)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"alternatives": alternatives})
}

func queryFloat(c *gin.Context, key string) float64 {
	value, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return value
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}
