package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"poolride/internal/handler"
	"poolride/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler *handler.BookingHandler
	TripHandler    *handler.TripHandler
	SearchHandler  *handler.SearchHandler
	DriverHandler  *handler.DriverHandler
	UserHandler    *handler.UserHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("", deps.UserHandler.RegisterUser)
			users.GET("/:id", deps.UserHandler.GetUser)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/confirm", deps.BookingHandler.ConfirmBooking)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
			bookings.POST("/:id/switch", deps.BookingHandler.SwitchBooking)
			bookings.POST("/:id/verify-otp", deps.BookingHandler.VerifyOTP)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.PublishTrip)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/availability", deps.TripHandler.GetAvailability)
			trips.POST("/:id/dispatch", deps.TripHandler.DispatchTrip)
			trips.POST("/:id/start", deps.TripHandler.StartTrip)
			trips.POST("/:id/complete", deps.TripHandler.CompleteTrip)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
		}

		// Search routes.
		search := v1.Group("/search")
		{
			search.GET("/trips", deps.SearchHandler.SearchTrips)
			search.GET("/alternatives", deps.SearchHandler.GetAlternatives)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.RegisterDriver)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.PUT("/:id/status", deps.DriverHandler.UpdateStatus)
			drivers.GET("/:id/statement", deps.DriverHandler.GetStatement)
		}
	}

	return router
}
