// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Pantry     PantryConfig     `mapstructure:"pantry"`
	Settings   SettingsConfig   `mapstructure:"settings"`
	Features   FeatureFlags     `mapstructure:"features"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `mapstructure:"log_format" validate:"oneof=json console"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Path        string `mapstructure:"path"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Database    string `mapstructure:"database"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	SSLMode     string `mapstructure:"ssl_mode"`
	LogLevel    string `mapstructure:"log_level"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	Seed        bool   `mapstructure:"seed"`
}

// RedisConfig contains Redis configuration. Redis is optional: when
// disabled the response cache lives in process memory.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// EnrichmentConfig contains the external enrichment service
// configuration and the polling discipline applied to its jobs.
type EnrichmentConfig struct {
	BaseURL            string        `mapstructure:"base_url" validate:"required,url"`
	APIKey             string        `mapstructure:"api_key"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	PollInterval       time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	MaxBoundedAttempts int           `mapstructure:"max_bounded_attempts" validate:"gt=0"`
	StaleAfter         time.Duration `mapstructure:"stale_after" validate:"gt=0"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
}

// PantryConfig contains pantry sufficiency tuning
type PantryConfig struct {
	// LowStockFraction is the remaining/initial ratio at or below which
	// a units-tracked item no longer covers a recipe need.
	LowStockFraction float64 `mapstructure:"low_stock_fraction" validate:"gt=0,lt=1"`
	// ExpiryWindow bounds the ExpiringSoon report.
	ExpiryWindow time.Duration `mapstructure:"expiry_window"`
}

// SettingsConfig contains user preference defaults
type SettingsConfig struct {
	UnitSystem string `mapstructure:"unit_system" validate:"oneof=metric imperial"`
}

// FeatureFlags contains feature toggle configuration
type FeatureFlags struct {
	// StrictMatching swaps the containment ingredient matcher for
	// token-subset matching.
	StrictMatching bool `mapstructure:"strict_matching"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/grocerly")
	}

	// Enable environment variable override
	v.SetEnvPrefix("GROCERLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Unmarshal configuration
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Grocerly")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "grocerly.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", false)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)

	// Enrichment defaults
	v.SetDefault("enrichment.base_url", "http://localhost:9400")
	v.SetDefault("enrichment.request_timeout", "30s")
	v.SetDefault("enrichment.poll_interval", "1s")
	v.SetDefault("enrichment.max_bounded_attempts", 90)
	v.SetDefault("enrichment.stale_after", "1h")
	v.SetDefault("enrichment.cache_ttl", "24h")

	// Pantry defaults
	v.SetDefault("pantry.low_stock_fraction", 0.2)
	v.SetDefault("pantry.expiry_window", "72h")

	// Settings defaults
	v.SetDefault("settings.unit_system", "metric")

	// Feature defaults
	v.SetDefault("features.strict_matching", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Database.Driver == "postgres" && c.Database.Database == "" {
		return fmt.Errorf("database.database is required for the postgres driver")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the database connection string for the active driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
