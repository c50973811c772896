package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"youtrait/internal/domain"
	"youtrait/internal/repository"
)

const defaultNotificationLimit = 50

type NotificationService struct {
	logger *zap.Logger
	repo   repository.NotificationRepository
}

var ErrNotificationServiceNotConfigured = errors.New("notification service not configured")

func NewNotificationService(logger *zap.Logger, repo repository.NotificationRepository) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger, repo: repo}
}

// List devuelve las notificaciones más recientes primero.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if s == nil || s.repo == nil {
		return nil, ErrNotificationServiceNotConfigured
	}
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	list, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %v", ErrBackend, err)
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if s == nil || s.repo == nil {
		return ErrNotificationServiceNotConfigured
	}
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: mark notification read: %v", ErrBackend, err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, ErrNotificationServiceNotConfigured
	}
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: mark all notifications read: %v", ErrBackend, err)
	}
	s.logger.Debug("notifications marked read", zap.String("user_id", userID), zap.Int64("count", n))
	return n, nil
}
