package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NotificationRetrier resends failed notifications
type NotificationRetrier interface {
	RetryFailed(ctx context.Context, maxAttempts, limit int) (int, error)
}

// RetryWorkerConfig holds configuration for the notification retry worker
type RetryWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int

	// Timeout bounds one retry pass
	Timeout time.Duration
}

// DefaultRetryWorkerConfig returns default configuration
func DefaultRetryWorkerConfig() RetryWorkerConfig {
	return RetryWorkerConfig{
		PollInterval: time.Minute,
		BatchSize:    20,
		MaxAttempts:  5,
		Timeout:      30 * time.Second,
	}
}

// RetryWorker periodically redelivers notifications whose first send failed
type RetryWorker struct {
	config  RetryWorkerConfig
	retrier NotificationRetrier
	logger  *zap.Logger

	// Runtime state
	mu             sync.RWMutex
	cancel         context.CancelFunc
	done           chan struct{}
	isRunning      bool
	lastRun        time.Time
	deliveredCount int
	passCount      int
	lastError      error
}

// NewRetryWorker creates a new notification retry worker
func NewRetryWorker(config RetryWorkerConfig, retrier NotificationRetrier, logger *zap.Logger) *RetryWorker {
	defaults := DefaultRetryWorkerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &RetryWorker{
		config:  config,
		retrier: retrier,
		logger:  logger,
	}
}

// Start begins the worker polling loop
func (w *RetryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("retry worker already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("RetryWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("max_attempts", w.config.MaxAttempts))

	go w.pollLoop(loopCtx, w.done)

	return nil
}

// Stop terminates the worker and waits for the current pass to finish
func (w *RetryWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.mu.RLock()
	defer w.mu.RUnlock()
	w.logger.Info("RetryWorker stopped",
		zap.Int("passes", w.passCount),
		zap.Int("delivered", w.deliveredCount))

	return nil
}

// Name returns the worker name for identification
func (w *RetryWorker) Name() string {
	return "NotificationRetryWorker"
}

// Stats returns the number of passes run and notifications delivered
func (w *RetryWorker) Stats() (passes, delivered int, lastErr error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.passCount, w.deliveredCount, w.lastError
}

func (w *RetryWorker) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Retry loop context cancelled")
			return

		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single retry pass
func (w *RetryWorker) RunOnce(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	delivered, err := w.retrier.RetryFailed(passCtx, w.config.MaxAttempts, w.config.BatchSize)

	w.mu.Lock()
	w.passCount++
	w.deliveredCount += delivered
	w.lastRun = time.Now()
	w.lastError = err
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Notification retry pass failed", zap.Error(err))
		return
	}
	if delivered > 0 {
		w.logger.Info("Notification retry pass delivered", zap.Int("delivered", delivered))
	}
}
