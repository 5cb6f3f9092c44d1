package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Notification drivers
const (
	DriverLog  = "log"
	DriverLark = "lark"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Currency     CurrencyConfig     `mapstructure:"currency"`
	Notification NotificationConfig `mapstructure:"notification"`
	Accounting   AccountingConfig   `mapstructure:"accounting"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Directory    DirectoryConfig    `mapstructure:"directory"`
	Policy       PolicyConfig       `mapstructure:"policy"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// CurrencyConfig holds the base currency and rate tables.
// Rates are units of the foreign currency per one unit of base.
type CurrencyConfig struct {
	Base          string             `mapstructure:"base"`
	Rates         map[string]float64 `mapstructure:"rates"`
	FallbackRates map[string]float64 `mapstructure:"fallback_rates"`
	CacheTTL      time.Duration      `mapstructure:"cache_ttl"`
}

// NotificationConfig selects how notifications are delivered
type NotificationConfig struct {
	Driver string      `mapstructure:"driver"`
	Lark   LarkConfig  `mapstructure:"lark"`
	Retry  RetryConfig `mapstructure:"retry"`
}

// RetryConfig controls redelivery of failed notifications
type RetryConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	BatchSize   int           `mapstructure:"batch_size"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	// OpenIDs maps user ids to Lark open_ids
	OpenIDs map[string]string `mapstructure:"open_ids"`
}

// AccountingConfig holds the accounting hand-off settings
type AccountingConfig struct {
	Recipient string `mapstructure:"recipient"`
	ExportDir string `mapstructure:"export_dir"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// DirectoryConfig holds reporting lines and role holders.
// Map keys are lower-cased when loaded.
type DirectoryConfig struct {
	Managers          map[string]string `mapstructure:"managers"`
	OrgAdmin          string            `mapstructure:"org_admin"`
	AccountingManager string            `mapstructure:"accounting_manager"`
}

// PolicyConfig holds approval levels for travel requests
type PolicyConfig struct {
	Levels            []entity.StepTemplate            `mapstructure:"levels"`
	Organizations     map[string][]entity.StepTemplate `mapstructure:"organizations"`
	MaxEstimatedTotal float64                          `mapstructure:"max_estimated_total"`
}

// Load loads configuration from file and environment variables.
// A .env file in the working directory is read first when present.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports variables from path without overriding the environment
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/travel-expense.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Currency defaults
	v.SetDefault("currency.base", "USD")
	v.SetDefault("currency.cache_ttl", time.Hour)

	// Notification defaults
	v.SetDefault("notification.driver", DriverLog)
	v.SetDefault("notification.retry.interval", time.Minute)
	v.SetDefault("notification.retry.batch_size", 20)
	v.SetDefault("notification.retry.max_attempts", 5)

	// Accounting defaults
	v.SetDefault("accounting.recipient", "accounting")
	v.SetDefault("accounting.export_dir", "data/exports")

	v.SetDefault("auth.issuer", "travel-expense")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	// Sensitive credentials from environment
	bindings := map[string]string{
		"notification.lark.app_id":     "LARK_APP_ID",
		"notification.lark.app_secret": "LARK_APP_SECRET",
		"auth.jwt_secret":              "JWT_SECRET",
		"database.path":                "DATABASE_PATH",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Currency.Base) != 3 {
		return fmt.Errorf("currency.base must be a three-letter code")
	}
	if c.Currency.CacheTTL < 0 {
		return fmt.Errorf("currency.cache_ttl must not be negative")
	}
	for code, rate := range c.Currency.Rates {
		if rate <= 0 {
			return fmt.Errorf("currency.rates.%s must be positive", code)
		}
	}
	for code, rate := range c.Currency.FallbackRates {
		if rate <= 0 {
			return fmt.Errorf("currency.fallback_rates.%s must be positive", code)
		}
	}

	switch c.Notification.Driver {
	case DriverLog:
	case DriverLark:
		if c.Notification.Lark.AppID == "" {
			return fmt.Errorf("notification.lark.app_id is required")
		}
		if c.Notification.Lark.AppSecret == "" {
			return fmt.Errorf("notification.lark.app_secret is required")
		}
	default:
		return fmt.Errorf("notification.driver must be %q or %q", DriverLog, DriverLark)
	}

	if c.Notification.Retry.Interval <= 0 {
		return fmt.Errorf("notification.retry.interval must be positive")
	}
	if c.Notification.Retry.BatchSize <= 0 || c.Notification.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("notification.retry batch_size and max_attempts must be positive")
	}

	if c.Accounting.Recipient == "" {
		return fmt.Errorf("accounting.recipient is required")
	}
	if c.Accounting.ExportDir == "" {
		return fmt.Errorf("accounting.export_dir is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Policy.MaxEstimatedTotal < 0 {
		return fmt.Errorf("policy.max_estimated_total must not be negative")
	}

	return nil
}
