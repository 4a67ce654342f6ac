package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
)

// NotificationListLimit caps the notification inbox listing
const NotificationListLimit = 50

// NotificationService serves the persisted notification inbox
type NotificationService struct {
	notificationRepo ports.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo ports.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// ListNotifications returns the caller's newest notifications
func (s *NotificationService) ListNotifications(ctx context.Context, caller domain.Caller) ([]*domain.Notification, error) {
	notifications, err := s.notificationRepo.ListNotifications(ctx, caller.UserID(), NotificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the caller's notifications as read.
// Notifications addressed to someone else are reported as not found.
func (s *NotificationService) MarkNotificationRead(ctx context.Context, caller domain.Caller, notificationID int64) error {
	n, err := s.notificationRepo.GetNotification(ctx, notificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: notification not found", domain.ErrNotFound)
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if n.RecipientUserID != caller.UserID() {
		return fmt.Errorf("%w: notification not found", domain.ErrNotFound)
	}
	if n.IsRead {
		return nil
	}
	if err := s.notificationRepo.MarkNotificationRead(ctx, n.ID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
