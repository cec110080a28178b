package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NewRelic   NewRelicConfig
	Booking    BookingConfig
	Settlement SettlementConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// BookingConfig holds the booking engine tunables.
type BookingConfig struct {
	// CommissionRate is the platform's cut of every booking, frozen on the
	// booking at confirmation time.
	CommissionRate float64

	// SeatLockTTL is how long a LOCKED reservation survives unconfirmed.
	SeatLockTTL time.Duration

	// CountdownWindow is the fill-or-expire window started when the first
	// seat joins a pool trip.
	CountdownWindow time.Duration

	// AutoConfirmSeatMin/Max and AutoConfirmWindow parameterize the
	// confirmed-seat heuristic that forces MIN_REACHED: a trip whose
	// confirmed seat count lands in [min, max] within the window of its
	// first confirmation is held ready regardless of minSeats.
	AutoConfirmSeatMin int
	AutoConfirmSeatMax int
	AutoConfirmWindow  time.Duration

	// ReturnGuaranteeSeats is the passenger floor granted to a driver's
	// reverse-direction trip after a successful outbound run.
	ReturnGuaranteeSeats int

	// Night fare defaults applied to newly created trips.
	NightFareEnabled    bool
	NightFareStartHour  int
	NightFareEndHour    int
	NightFareMultiplier float64

	// SwitchLockTTL bounds the per-trip lock held while a booking is
	// switched to an alternative vehicle.
	SwitchLockTTL time.Duration
}

// SettlementConfig holds the reconciliation sweep tunables.
type SettlementConfig struct {
	SweepInterval  time.Duration
	PaymentTimeout time.Duration
	CashSweepHour  int
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "poolride"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "poolride-booking-engine"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Booking:    DefaultBookingConfig(),
		Settlement: DefaultSettlementConfig(),
	}
}

// DefaultBookingConfig returns the booking tunables from the environment
// with their standard defaults.
func DefaultBookingConfig() BookingConfig {
	return BookingConfig{
		CommissionRate:       getFloatEnv("BOOKING_COMMISSION_RATE", 0.05),
		SeatLockTTL:          getDurationEnv("BOOKING_SEAT_LOCK_TTL", 10*time.Minute),
		CountdownWindow:      getDurationEnv("TRIP_COUNTDOWN_WINDOW", 10*time.Minute),
		AutoConfirmSeatMin:   getIntEnv("TRIP_AUTOCONFIRM_SEAT_MIN", 3),
		AutoConfirmSeatMax:   getIntEnv("TRIP_AUTOCONFIRM_SEAT_MAX", 4),
		AutoConfirmWindow:    getDurationEnv("TRIP_AUTOCONFIRM_WINDOW", 45*time.Minute),
		ReturnGuaranteeSeats: getIntEnv("TRIP_RETURN_GUARANTEE_SEATS", 2),
		NightFareEnabled:     getBoolEnv("NIGHT_FARE_ENABLED", true),
		NightFareStartHour:   getIntEnv("NIGHT_FARE_START_HOUR", 22),
		NightFareEndHour:     getIntEnv("NIGHT_FARE_END_HOUR", 5),
		NightFareMultiplier:  getFloatEnv("NIGHT_FARE_MULTIPLIER", 1.25),
		SwitchLockTTL:        getDurationEnv("BOOKING_SWITCH_LOCK_TTL", 30*time.Second),
	}
}

// DefaultSettlementConfig returns the sweep tunables from the environment
// with their standard defaults.
func DefaultSettlementConfig() SettlementConfig {
	return SettlementConfig{
		SweepInterval:  getDurationEnv("SETTLEMENT_SWEEP_INTERVAL", 60*time.Second),
		PaymentTimeout: getDurationEnv("SETTLEMENT_PAYMENT_TIMEOUT", 15*time.Minute),
		CashSweepHour:  getIntEnv("SETTLEMENT_CASH_SWEEP_HOUR", 23),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
