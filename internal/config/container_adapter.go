package config

import (
	"strings"

	"github.com/garyjia/travel-expense/internal/container"
	"github.com/garyjia/travel-expense/internal/infrastructure/directory"
	"github.com/garyjia/travel-expense/internal/infrastructure/external/lark"
	"github.com/garyjia/travel-expense/internal/infrastructure/policy"
	"github.com/garyjia/travel-expense/internal/infrastructure/worker"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Currency: container.CurrencyConfig{
			Base:          c.Currency.Base,
			Rates:         upperKeys(c.Currency.Rates),
			FallbackRates: upperKeys(c.Currency.FallbackRates),
			CacheTTL:      c.Currency.CacheTTL,
		},
		Notification: container.NotificationConfig{
			Driver: c.Notification.Driver,
			Lark: lark.Config{
				AppID:     c.Notification.Lark.AppID,
				AppSecret: c.Notification.Lark.AppSecret,
				OpenIDs:   c.Notification.Lark.OpenIDs,
			},
			Retry: worker.RetryWorkerConfig{
				PollInterval: c.Notification.Retry.Interval,
				BatchSize:    c.Notification.Retry.BatchSize,
				MaxAttempts:  c.Notification.Retry.MaxAttempts,
			},
		},
		Accounting: container.AccountingConfig{
			Recipient: c.Accounting.Recipient,
			ExportDir: c.Accounting.ExportDir,
		},
		Auth: container.AuthConfig{
			Secret: c.Auth.JWTSecret,
			Issuer: c.Auth.Issuer,
		},
		Directory: directory.Config{
			Managers:          c.Directory.Managers,
			OrgAdmin:          c.Directory.OrgAdmin,
			AccountingManager: c.Directory.AccountingManager,
		},
		Policy: policy.Config{
			Levels:            c.Policy.Levels,
			Organizations:     c.Policy.Organizations,
			MaxEstimatedTotal: c.Policy.MaxEstimatedTotal,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}
}

// upperKeys restores ISO currency codes, which viper lower-cases as map keys
func upperKeys(rates map[string]float64) map[string]float64 {
	if rates == nil {
		return nil
	}
	out := make(map[string]float64, len(rates))
	for code, rate := range rates {
		out[strings.ToUpper(code)] = rate
	}
	return out
}
