package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/travel-expense/internal/application/port"
)

// LogNotifier writes notifications to the log instead of delivering them.
// It backs the "log" notification driver used in development.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send implements port.Notifier
func (n *LogNotifier) Send(ctx context.Context, recipientID, message string) error {
	n.logger.Info("Notification",
		zap.String("recipient_id", recipientID),
		zap.String("message", message))
	return nil
}

var _ port.Notifier = (*LogNotifier)(nil)
