package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Auth     AuthConfig
	Rates    RatesConfig
	Redis    RedisConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// AuthConfig holds JWT verification configuration. Token issuance lives in
// the identity provider; this service only verifies tokens it is handed.
type AuthConfig struct {
	JWTSecret string
}

// RatesConfig holds the parking rate table: hourly rates per vehicle type
// plus the default applied when a vehicle type has no explicit rate.
type RatesConfig struct {
	Hourly        map[string]float64
	DefaultHourly float64
}

// RedisConfig holds the optional Redis connection used to publish occupancy
// change events across API instances. An empty Addr disables publishing.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "estacionador")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("RATES_HOURLY", "auto=10,motorcycle=5,truck=15,bicycle=2")
	v.SetDefault("RATE_DEFAULT", 10.0)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)

	// Bind environment variables
	v.AutomaticEnv()

	rates, err := parseRates(v.GetString("RATES_HOURLY"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATES_HOURLY: %w", err)
	}

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
		},
		Rates: RatesConfig{
			Hourly:        rates,
			DefaultHourly: v.GetFloat64("RATE_DEFAULT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// RateTable builds the injected rate table for the fee calculator.
func (c *Config) RateTable() models.RateTable {
	hourly := make(map[models.VehicleType]float64, len(c.Rates.Hourly))
	for vehicleType, rate := range c.Rates.Hourly {
		hourly[models.VehicleType(vehicleType)] = rate
	}
	return models.RateTable{
		Hourly:        hourly,
		DefaultHourly: c.Rates.DefaultHourly,
	}
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	// Validate auth config
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}

	// Validate rate config
	if c.Rates.DefaultHourly < 0 {
		return fmt.Errorf("RATE_DEFAULT must be non-negative")
	}
	for vehicleType, rate := range c.Rates.Hourly {
		if rate < 0 {
			return fmt.Errorf("RATES_HOURLY rate for %q must be non-negative", vehicleType)
		}
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseRates parses a comma-separated "type=rate" list,
// e.g. "auto=10,motorcycle=5".
func parseRates(rates string) (map[string]float64, error) {
	result := make(map[string]float64)
	if rates == "" {
		return result, nil
	}

	for _, part := range strings.Split(rates, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		key, value, found := strings.Cut(trimmed, "=")
		if !found {
			return nil, fmt.Errorf("entry %q is not in type=rate form", trimmed)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q has a non-numeric rate: %w", trimmed, err)
		}
		result[strings.TrimSpace(key)] = rate
	}
	return result, nil
}
