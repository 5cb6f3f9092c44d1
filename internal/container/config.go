// Package container provides dependency injection and lifecycle management
// for the travel expense engine.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/travel-expense/internal/infrastructure/directory"
	"github.com/garyjia/travel-expense/internal/infrastructure/external/lark"
	"github.com/garyjia/travel-expense/internal/infrastructure/policy"
	"github.com/garyjia/travel-expense/internal/infrastructure/worker"
)

// Notification drivers
const (
	NotifierLog  = "log"
	NotifierLark = "lark"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Currency normalization settings
	Currency CurrencyConfig

	// Notification delivery settings
	Notification NotificationConfig

	// Accounting hand-off settings
	Accounting AccountingConfig

	// Bearer token settings
	Auth AuthConfig

	// Reporting lines and role holders
	Directory directory.Config

	// Approval levels for travel requests
	Policy policy.Config

	// Server configuration
	Server ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// CurrencyConfig holds the base currency and rate tables.
type CurrencyConfig struct {
	Base string

	// Rates are units of each currency per one unit of Base
	Rates map[string]float64

	// FallbackRates are used when Rates lacks a currency or cannot be read
	FallbackRates map[string]float64

	// CacheTTL is how long fetched rates are reused; zero disables caching
	CacheTTL time.Duration
}

// NotificationConfig holds notification delivery settings.
type NotificationConfig struct {
	// Driver is NotifierLog or NotifierLark
	Driver string

	Lark lark.Config

	// Retry controls redelivery of failed notifications
	Retry worker.RetryWorkerConfig
}

// AccountingConfig holds accounting hand-off settings.
type AccountingConfig struct {
	// Recipient receives forwarded_to_accounting notifications
	Recipient string

	// ExportDir is where report workbooks are written
	ExportDir string
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	Secret string
	Issuer string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/travel-expense.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Currency: CurrencyConfig{
			Base:     "USD",
			CacheTTL: time.Hour,
		},
		Notification: NotificationConfig{
			Driver: NotifierLog,
			Retry:  worker.DefaultRetryWorkerConfig(),
		},
		Accounting: AccountingConfig{
			Recipient: "accounting",
			ExportDir: "data/exports",
		},
		Auth: AuthConfig{
			Issuer: "travel-expense",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Currency.Base == "" {
		return fmt.Errorf("currency.base is required")
	}

	switch c.Notification.Driver {
	case NotifierLog:
	case NotifierLark:
		if c.Notification.Lark.AppID == "" || c.Notification.Lark.AppSecret == "" {
			return fmt.Errorf("lark credentials are required for the lark notifier")
		}
	default:
		return fmt.Errorf("unknown notification driver %q", c.Notification.Driver)
	}

	if c.Accounting.ExportDir == "" {
		return fmt.Errorf("accounting.export_dir is required")
	}

	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}

	return nil
}
