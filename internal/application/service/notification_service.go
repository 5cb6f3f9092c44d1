package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/event"
)

// NotificationService delivers engine events and keeps their delivery records
type NotificationService interface {
	// Deliver is a dispatcher handler: it records the notification, sends it
	// through the notifier and marks the record sent or failed. Events whose
	// report or request was deleted meanwhile are dropped.
	Deliver(ctx context.Context, evt *event.Event) error

	// ListForEntity returns delivery records of a report or travel request
	ListForEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.Notification, error)

	// RetryFailed resends up to limit failed notifications with fewer than
	// maxAttempts attempts and returns how many were delivered
	RetryFailed(ctx context.Context, maxAttempts, limit int) (int, error)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	notifier         port.Notifier
	logger           Logger
	clock            Clock
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	notifier port.Notifier,
	logger Logger,
	opts ...Option,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		notifier:         notifier,
		logger:           logger,
		clock:            newOptions(opts).clock,
	}
}

// Deliver sends one event to its recipient
func (s *notificationServiceImpl) Deliver(ctx context.Context, evt *event.Event) error {
	if evt == nil || !evt.Type.IsValid() {
		return fmt.Errorf("cannot deliver invalid event")
	}

	notification := &entity.Notification{
		EventID:     evt.ID,
		EntityType:  evt.EntityType,
		EntityID:    evt.EntityID,
		Kind:        evt.Type.String(),
		RecipientID: evt.RecipientID,
		Message:     evt.Message,
		Status:      entity.NotificationStatusPending,
		CreatedAt:   s.clock(),
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			s.logger.Info("Dropping notification for deleted entity",
				"event_id", evt.ID,
				"entity_type", evt.EntityType,
				"entity_id", evt.EntityID,
			)
			return nil
		}
		s.logger.Error("Failed to record notification", "error", err, "event_id", evt.ID)
		return fmt.Errorf("create notification: %w", err)
	}

	if evt.RecipientID == "" {
		_ = s.notificationRepo.MarkFailed(ctx, notification.ID, "no recipient")
		return fmt.Errorf("event %s has no recipient", evt.ID)
	}

	if err := s.notifier.Send(ctx, evt.RecipientID, evt.Message); err != nil {
		if markErr := s.notificationRepo.MarkFailed(ctx, notification.ID, err.Error()); markErr != nil {
			s.logger.Error("Failed to mark notification failed", "error", markErr, "notification_id", notification.ID)
		}
		s.logger.Error("Notification delivery failed",
			"error", err,
			"event_id", evt.ID,
			"kind", evt.Type,
			"entity_type", evt.EntityType,
			"entity_id", evt.EntityID,
			"recipient_id", evt.RecipientID,
		)
		return fmt.Errorf("send notification: %w", err)
	}

	if err := s.notificationRepo.MarkSent(ctx, notification.ID, s.clock()); err != nil {
		s.logger.Error("Failed to mark notification sent", "error", err, "notification_id", notification.ID)
		return fmt.Errorf("mark notification sent: %w", err)
	}

	s.logger.Info("Notification delivered",
		"notification_id", notification.ID,
		"kind", evt.Type,
		"entity_id", evt.EntityID,
		"recipient_id", evt.RecipientID,
	)
	return nil
}

// ListForEntity returns notifications recorded for an entity, oldest first
func (s *notificationServiceImpl) ListForEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.Notification, error) {
	return s.notificationRepo.ListByEntity(ctx, entityType, entityID)
}

// RetryFailed gives failed deliveries another attempt, oldest first
func (s *notificationServiceImpl) RetryFailed(ctx context.Context, maxAttempts, limit int) (int, error) {
	pending, err := s.notificationRepo.ListRetryable(ctx, maxAttempts, limit)
	if err != nil {
		return 0, fmt.Errorf("list retryable notifications: %w", err)
	}

	delivered := 0
	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}

		if err := s.notifier.Send(ctx, n.RecipientID, n.Message); err != nil {
			if markErr := s.notificationRepo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
				s.logger.Error("Failed to mark notification failed", "error", markErr, "notification_id", n.ID)
			}
			s.logger.Error("Notification retry failed",
				"error", err,
				"notification_id", n.ID,
				"attempt", n.Attempts+1,
				"recipient_id", n.RecipientID,
			)
			continue
		}

		if err := s.notificationRepo.MarkSent(ctx, n.ID, s.clock()); err != nil {
			s.logger.Error("Failed to mark notification sent", "error", err, "notification_id", n.ID)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		s.logger.Info("Retried notifications delivered", "delivered", delivered, "candidates", len(pending))
	}
	return delivered, nil
}
