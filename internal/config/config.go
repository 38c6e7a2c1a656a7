package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Jobs       JobsConfig
	Scheduling SchedulingConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	Namespace      string
	Database       string
	User           string
	Password       string
	Secure         bool
	ConnectRetries int
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath  string
	PublicKeyPath   string
	ExpirationMins  int
	RefreshTTLHours int
	Issuer          string
}

// RedisConfig holds the optional Redis connection used for job locks.
// An empty URL selects the in-process lock.
type RedisConfig struct {
	URL string
}

// Enabled reports whether a Redis URL was configured
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// JobsConfig holds background job settings
type JobsConfig struct {
	Enabled            bool
	RegularInterval    time.Duration
	ExpiryInterval     time.Duration
	TokenSweepInterval time.Duration
	LockTTL            time.Duration
	GenerationWorkers  int
}

// SchedulingConfig holds domain scheduling rules
type SchedulingConfig struct {
	Timezone          string
	Locations         []string
	MinorAge          int
	GenerationHorizon int // days ahead regular signups are generated for
}

// Location loads the configured timezone
func (s SchedulingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// IsKnownLocation reports whether loc is allowed. An empty list allows any.
func (s SchedulingConfig) IsKnownLocation(loc string) bool {
	if len(s.Locations) == 0 {
		return true
	}
	for _, l := range s.Locations {
		if strings.EqualFold(l, loc) {
			return true
		}
	}
	return false
}

// Load reads configuration from the environment, after loading any of the
// given .env files that exist. With no files, ".env" is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// Existing environment variables win over file values.
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 10),
			RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 30),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "8000"),
			Namespace:      getEnv("DB_NAMESPACE", "shiftboard"),
			Database:       getEnv("DB_DATABASE", "main"),
			User:           getEnv("DB_USER", "root"),
			Password:       getEnv("DB_PASSWORD", "root"),
			Secure:         getBoolEnv("DB_SECURE", false),
			ConnectRetries: getIntEnv("DB_CONNECT_RETRIES", 5),
		},
		JWT: JWTConfig{
			PrivateKeyPath:  getEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:   getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			ExpirationMins:  getIntEnv("JWT_EXPIRATION_MINS", 15),
			RefreshTTLHours: getIntEnv("JWT_REFRESH_TTL_HOURS", 24*30),
			Issuer:          getEnv("JWT_ISSUER", "shiftboard.forgo.software"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Jobs: JobsConfig{
			Enabled:            getBoolEnv("JOBS_ENABLED", true),
			RegularInterval:    getDurationEnv("JOBS_REGULAR_INTERVAL", 6*time.Hour),
			ExpiryInterval:     getDurationEnv("JOBS_EXPIRY_INTERVAL", 15*time.Minute),
			TokenSweepInterval: getDurationEnv("JOBS_TOKEN_SWEEP_INTERVAL", 24*time.Hour),
			LockTTL:            getDurationEnv("JOBS_LOCK_TTL", 10*time.Minute),
			GenerationWorkers:  getIntEnv("JOBS_GENERATION_WORKERS", 4),
		},
		Scheduling: SchedulingConfig{
			Timezone:          getEnv("TIMEZONE", "UTC"),
			Locations:         getSliceEnv("LOCATIONS", nil),
			MinorAge:          getIntEnv("MINOR_AGE", 16),
			GenerationHorizon: getIntEnv("REGULAR_HORIZON_DAYS", 28),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}
	if c.JWT.RefreshTTLHours <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_TTL_HOURS must be positive"))
	}

	if c.Redis.Enabled() && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		errs = append(errs, errors.New("REDIS_URL must start with redis:// or rediss://"))
	}

	if c.Jobs.Enabled {
		if c.Jobs.RegularInterval <= 0 || c.Jobs.ExpiryInterval <= 0 || c.Jobs.TokenSweepInterval <= 0 {
			errs = append(errs, errors.New("job intervals must be positive"))
		}
		if c.Jobs.LockTTL <= 0 {
			errs = append(errs, errors.New("JOBS_LOCK_TTL must be positive"))
		}
	}
	if c.Jobs.GenerationWorkers < 1 {
		errs = append(errs, errors.New("JOBS_GENERATION_WORKERS must be at least 1"))
	}

	if _, err := c.Scheduling.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE is invalid: %w", err))
	}
	if c.Scheduling.MinorAge < 0 || c.Scheduling.MinorAge > 21 {
		errs = append(errs, errors.New("MINOR_AGE must be between 0 and 21"))
	}
	if c.Scheduling.GenerationHorizon < 1 || c.Scheduling.GenerationHorizon > 92 {
		errs = append(errs, errors.New("REGULAR_HORIZON_DAYS must be between 1 and 92"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
