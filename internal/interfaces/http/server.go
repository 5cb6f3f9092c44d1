// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-expense/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics records served requests and exposes the scrape endpoint
type Metrics interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
	Handler() http.Handler
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	auth       AuthConfig
	httpServer *http.Server
	router     *gin.Engine
	reports    service.ReportService
	requests   service.TravelRequestService
	metrics    Metrics
	logger     Logger
}

// NewServer creates a new HTTP server with the given services. metrics may be nil.
func NewServer(
	config ServerConfig,
	auth AuthConfig,
	reports service.ReportService,
	requests service.TravelRequestService,
	metrics Metrics,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		auth:     auth,
		router:   router,
		reports:  reports,
		requests: requests,
		metrics:  metrics,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware logs every request and feeds the request metrics
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if s.metrics != nil {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			s.metrics.ObserveHTTP(method, route, status, latency)
		}

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.reports, s.requests, s.logger)

	s.router.GET("/health", handlers.HealthCheck)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api")
	api.Use(authMiddleware(s.auth))
	{
		reports := api.Group("/reports")
		reports.POST("", handlers.CreateReport)
		reports.GET("", handlers.ListReports)
		reports.GET("/:id", handlers.GetReport)
		reports.PUT("/:id", handlers.UpdateTrip)
		reports.POST("/:id/expenses", handlers.AddExpense)
		reports.DELETE("/:id/expenses/:expenseId", handlers.RemoveExpense)
		reports.PATCH("/:id/expenses/:expenseId/category", handlers.CorrectCategory)
		reports.POST("/:id/submit", handlers.SubmitReport)
		reports.POST("/:id/review", handlers.ReviewReport)
		reports.GET("/:id/duplicates", handlers.DetectDuplicates)
		reports.GET("/:id/reconciliation", handlers.Reconcile)
		reports.GET("/:id/history", handlers.ReportHistory)

		requests := api.Group("/travel-requests")
		requests.POST("", handlers.CreateRequest)
		requests.GET("", handlers.ListRequests)
		requests.GET("/:id", handlers.GetRequest)
		requests.DELETE("/:id", handlers.DeleteRequest)
		requests.POST("/:id/submit", handlers.SubmitRequest)
		requests.POST("/:id/steps/:stepId/approve", handlers.ApproveStep)
		requests.POST("/:id/steps/:stepId/reject", handlers.RejectStep)
		requests.POST("/:id/cancel", handlers.CancelRequest)
		requests.POST("/:id/partial-approval", handlers.RecordPartialApproval)
		requests.POST("/:id/budget", handlers.AttachBudget)
		requests.GET("/:id/history", handlers.RequestHistory)
		requests.GET("/:id/violations", handlers.RequestViolations)

		api.POST("/budgets/:id/link", handlers.LinkBudget)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
