package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garyjia/travel-expense/internal/config"
	"github.com/garyjia/travel-expense/internal/container"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	httpserver "github.com/garyjia/travel-expense/internal/interfaces/http"
	"github.com/garyjia/travel-expense/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	tokenFor := flag.String("issue-token", "", "print a bearer token for the given user id and exit")
	tokenRole := flag.String("role", entity.RoleEmployee, "role embedded in the issued token")
	tokenTTL := flag.Duration("ttl", 24*time.Hour, "lifetime of the issued token")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *tokenFor != "" {
		token, err := httpserver.IssueToken(
			httpserver.AuthConfig{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer},
			entity.Actor{ID: *tokenFor, Role: *tokenRole},
			*tokenTTL,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "travel-expense",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting travel expense engine",
		zap.String("base_currency", cfg.Currency.Base),
		zap.String("notifier", cfg.Notification.Driver),
		zap.Int("port", cfg.Server.Port))

	app, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	// Serve until a shutdown signal arrives; Start stops the server on ctx cancellation
	if err := app.Server().Start(ctx); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutting down...")

	if err := app.Close(); err != nil {
		logger.Error("Container closed with errors", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
