package service

import (
	"context"
	"fmt"

	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/socket"
)

// ============================================
// Notification Service (for handlers)
// ============================================

const notificationPageSize = 100

type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error)
	Count(ctx context.Context, userID string) (total int, unread int, err error)
	MarkAsRead(ctx context.Context, userID, id string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, id string) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	broadcaster      *socket.Broadcaster
}

func NewNotificationService(notificationRepo repository.NotificationRepository, broadcaster *socket.Broadcaster) NotificationService {
	return &notificationService{notificationRepo: notificationRepo, broadcaster: broadcaster}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error) {
	return s.notificationRepo.FindByUserID(ctx, userID, unreadOnly, notificationPageSize)
}

func (s *notificationService) Count(ctx context.Context, userID string) (total int, unread int, err error) {
	return s.notificationRepo.CountByUserID(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id string) error {
	ok, err := s.notificationRepo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.broadcaster.SendNotificationRead(userID, id)
	s.pushCount(ctx, userID)
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllAsRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	s.pushCount(ctx, userID)
	return nil
}

func (s *notificationService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.notificationRepo.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.pushCount(ctx, userID)
	return nil
}

func (s *notificationService) pushCount(ctx context.Context, userID string) {
	if s.broadcaster == nil {
		return
	}
	if total, unread, err := s.notificationRepo.CountByUserID(ctx, userID); err == nil {
		s.broadcaster.SendNotificationCount(userID, total, unread)
	}
}
