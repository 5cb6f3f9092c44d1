package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// notificationTargets maps entity types to the table holding them
var notificationTargets = map[string]string{
	entity.EntityReport:        "reports",
	entity.EntityTravelRequest: "travel_requests",
}

// Create inserts a notification only while its entity still exists, so a
// delivery racing a delete cannot leave a dangling row
func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	table, ok := notificationTargets[notification.EntityType]
	if !ok {
		return fmt.Errorf("unknown notification entity type %q", notification.EntityType)
	}

	query := `
		INSERT INTO notifications (
			event_id, entity_type, entity_id, kind, recipient_id, message,
			status, error_message, attempts, sent_at, created_at
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM ` + table + ` WHERE id = ?)
	`

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		notification.EventID,
		notification.EntityType,
		notification.EntityID,
		notification.Kind,
		notification.RecipientID,
		notification.Message,
		notification.Status,
		notification.ErrorMessage,
		notification.Attempts,
		nullTime(notification.SentAt),
		notification.CreatedAt,
		notification.EntityID,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("event_id", notification.EventID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", notification.EntityType, notification.EntityID, port.ErrNotFound)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	notification.ID = id
	return nil
}

const notificationColumns = `id, event_id, entity_type, entity_id, kind, recipient_id, message,
	status, error_message, attempts, sent_at, created_at`

// ListByEntity retrieves the notifications of a report or travel request, oldest first
func (r *NotificationRepository) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY id ASC
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("entity_type", entityType), zap.Int64("entity_id", entityID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// ListRetryable retrieves failed deliveries that may be attempted again
func (r *NotificationRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status = ? AND recipient_id != '' AND attempts < ?
		ORDER BY id ASC
		LIMIT ?
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, entity.NotificationStatusFailed, maxAttempts, limit)
	if err != nil {
		r.logger.Error("Failed to list retryable notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list retryable notifications: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

func scanNotifications(rows *sql.Rows) ([]*entity.Notification, error) {
	notifications := []*entity.Notification{}
	for rows.Next() {
		var n entity.Notification
		var sentAt sql.NullTime
		err := rows.Scan(
			&n.ID,
			&n.EventID,
			&n.EntityType,
			&n.EntityID,
			&n.Kind,
			&n.RecipientID,
			&n.Message,
			&n.Status,
			&n.ErrorMessage,
			&n.Attempts,
			&sentAt,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.SentAt = timePtr(sentAt)
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkSent marks notification as successfully sent and counts the attempt
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx,
		`UPDATE notifications SET status = ?, sent_at = ?, error_message = '', attempts = attempts + 1 WHERE id = ?`,
		entity.NotificationStatusSent, at, id,
	)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return conditional(ctx, q, result, "notifications", id)
}

// MarkFailed records a delivery failure and counts the attempt
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	q := executor(ctx, r.db)
	result, err := q.ExecContext(ctx,
		`UPDATE notifications SET status = ?, error_message = ?, attempts = attempts + 1 WHERE id = ?`,
		entity.NotificationStatusFailed, errorMsg, id,
	)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return conditional(ctx, q, result, "notifications", id)
}

// DeleteByEntity removes all notifications of an entity
func (r *NotificationRepository) DeleteByEntity(ctx context.Context, entityType string, entityID int64) error {
	_, err := executor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM notifications WHERE entity_type = ? AND entity_id = ?`, entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
