package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"poolride/internal/app"
	"poolride/internal/config"
	"poolride/internal/handler"
	internalRedis "poolride/internal/redis"
	"poolride/internal/repository/postgres"
	"poolride/internal/service"
)

func main() {
	// Load .env for local development; the real environment wins.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, scheduler, searchService := wireServer(db, redisClient, nrApp, cfg)

	// Seed the route geo index so searches can scope by pickup point.
	if err := searchService.IndexActiveRoutes(ctx); err != nil {
		log.Printf("failed to index routes: %v", err)
	}

	// Start background reconciliation.
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	scheduler.Start(schedulerCtx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus the
// background scheduler and search service needed at startup.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.Scheduler, *service.SearchService) {
	// Initialize Redis stores.
	routeGeoStore := internalRedis.NewRouteGeoStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	resvRepo := postgres.NewReservationRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	vehicleRepo := postgres.NewVehicleConfigRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	pricing := service.NewPricingEngine(vehicleRepo)
	allocator := service.NewSeatAllocator(db, cfg.Booking.SeatLockTTL)
	lifecycle := service.NewTripLifecycleManager(tripRepo, bookingRepo, pricing, cfg.Booking)
	wallet := service.NewMemoryWallet()
	gateway := service.NewLogPaymentGateway()
	bookingService := service.NewBookingService(
		allocator, tripRepo, bookingRepo, resvRepo, routeRepo, vehicleRepo, userRepo,
		lifecycle, pricing, gateway, wallet, notificationService, cacheStore, lockStore, cfg.Booking,
	)
	tripService := service.NewTripService(
		tripRepo, bookingRepo, driverRepo, routeRepo, vehicleRepo,
		lifecycle, pricing, bookingService, notificationService, cacheStore, cfg.Booking,
	)
	routeFinder := service.NewGeoRouteFinder(routeGeoStore)
	searchService := service.NewSearchService(routeFinder, tripRepo, routeRepo, routeGeoStore, pricing)
	userService := service.NewUserService(userRepo)
	driverService := service.NewDriverService(driverRepo)
	statementService := service.NewStatementService(bookingRepo, driverRepo)
	reconciler := service.NewSettlementReconciler(
		tripRepo, bookingRepo, resvRepo, allocator, lifecycle, bookingService,
		wallet, notificationService, cfg.Settlement,
	)
	scheduler := service.NewScheduler(reconciler, cfg.Settlement)

	// Initialize handlers.
	userHandler := handler.NewUserHandler(userService)
	bookingHandler := handler.NewBookingHandler(bookingService, tripRepo, driverRepo)
	tripHandler := handler.NewTripHandler(tripService)
	searchHandler := handler.NewSearchHandler(searchService, pricing, routeRepo)
	driverHandler := handler.NewDriverHandler(driverService, statementService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		BookingHandler: bookingHandler,
		TripHandler:    tripHandler,
		SearchHandler:  searchHandler,
		DriverHandler:  driverHandler,
		UserHandler:    userHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return server, scheduler, searchService
}
