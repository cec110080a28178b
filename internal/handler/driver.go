package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poolride/internal/domain"
	"poolride/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService    *service.DriverService
	statementService *service.StatementService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(
	driverService *service.DriverService,
	statementService *service.StatementService,
) *DriverHandler {
	return &DriverHandler{
		driverService:    driverService,
		statementService: statementService,
	}
}

// RegisterDriverRequest is the HTTP request body for registering a driver.
type RegisterDriverRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	VehicleType string `json:"vehicle_type"`
}

// UpdateDriverStatusRequest is the HTTP request body for setting driver
// availability.
type UpdateDriverStatusRequest struct {
	Status string `json:"status"` // ONLINE, OFFLINE
}

// DriverResponse is the HTTP response for a driver.
type DriverResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	VehicleType string `json:"vehicle_type"`
	Status      string `json:"status"`
}

// RegisterDriver handles POST /v1/drivers
func (h *DriverHandler) RegisterDriver(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	driver, err := h.driverService.RegisterDriver(c.Request.Context(), service.RegisterDriverRequest{
		Name:        req.Name,
		Phone:       req.Phone,
		VehicleType: req.VehicleType,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, buildDriverResponse(driver))
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, buildDriverResponse(driver))
}

// UpdateStatus handles PUT /v1/drivers/:id/status
func (h *DriverHandler) UpdateStatus(c *gin.Context) {
	var req UpdateDriverStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeValidation})
		return
	}

	driverID := c.Param("id")
	if err := h.driverService.SetDriverStatus(c.Request.Context(), driverID, domain.DriverStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"id": driverID, "status": req.Status})
}

// GetStatement handles GET /v1/drivers/:id/statement
func (h *DriverHandler) GetStatement(c *gin.Context) {
	driverID := c.Param("id")

	to := time.Now()
	from := to.AddDate(0, 0, -7)
	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			from = parsed
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			to = parsed
		}
	}

	statement, err := h.statementService.GenerateStatement(c.Request.Context(), driverID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, h.statementService.FormatStatement(statement))
		return
	}

	respondJSON(c, http.StatusOK, statement)
}

func buildDriverResponse(driver *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:          driver.ID,
		Name:        driver.Name,
		Phone:       driver.Phone,
		VehicleType: driver.VehicleType,
		Status:      string(driver.Status),
	}
}
