package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	LogLevel          zerolog.Level
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	// Location is the zone court-local dates and times are interpreted in.
	Location           *time.Location
	PendingWindow      time.Duration
	CleanupTimeout     time.Duration
	SweepInterval      time.Duration
	CancellationCutoff time.Duration
	AutoComplete       bool

	// RabbitURL is optional. When empty, notifications are only logged.
	RabbitURL       string
	BookingExchange string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := &Config{}
	var err error

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.LogLevel, err = zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	cfg.Location, err = time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	// Booking engine timings
	if cfg.PendingWindow, err = getEnvAsDuration("PENDING_WINDOW", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CleanupTimeout, err = getEnvAsDuration("PENDING_CLEANUP_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getEnvAsDuration("SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.CancellationCutoff, err = getEnvAsDuration("CANCELLATION_CUTOFF", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PendingWindow > cfg.CleanupTimeout {
		return nil, fmt.Errorf("PENDING_WINDOW (%s) must not exceed PENDING_CLEANUP_TIMEOUT (%s)", cfg.PendingWindow, cfg.CleanupTimeout)
	}
	if cfg.AutoComplete, err = getEnvAsBool("AUTO_COMPLETE", true); err != nil {
		return nil, err
	}

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.BookingExchange = getEnv("BOOKING_EXCHANGE", "booking.exchange")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration accepts Go duration strings ("90s", "10m") and, for
// convenience, a bare integer meaning seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	if secs, err := getEnvAsInt(key, 0); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("env %s must be positive, got %d", key, secs)
		}
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("env %s must be positive, got %s", key, val)
	}
	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}
