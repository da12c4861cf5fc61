package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/socket"
	"github.com/sharemycard/sharemycard-backend/internal/types"
)

// Notification types
const (
	TypeLeadCaptured   = "LEAD_CAPTURED"
	TypeContactDeleted = "CONTACT_DELETED"
)

// Service persists owner notifications and pushes them over the websocket.
type Service struct {
	notificationRepo repository.NotificationRepository
	broadcaster      *socket.Broadcaster
}

// NewService creates a new notification service
func NewService(notificationRepo repository.NotificationRepository) *Service {
	return &Service{notificationRepo: notificationRepo}
}

func (s *Service) SetBroadcaster(b *socket.Broadcaster) {
	s.broadcaster = b
}

// ============================================
// WebSocket Helper
// ============================================

func (s *Service) sendWebSocketNotification(ctx context.Context, notification *repository.Notification) {
	if s.broadcaster == nil || notification == nil {
		return
	}

	s.broadcaster.SendNotification(notification.UserID, map[string]interface{}{
		"id":        notification.ID,
		"type":      notification.Type,
		"title":     notification.Title,
		"message":   notification.Message,
		"data":      notification.Data,
		"read":      notification.Read,
		"createdAt": notification.CreatedAt,
	})

	total, unread, err := s.notificationRepo.CountByUserID(ctx, notification.UserID)
	if err != nil {
		log.Printf("[Notification] count for %s failed: %v", notification.UserID, err)
		return
	}
	s.broadcaster.SendNotificationCount(notification.UserID, total, unread)
}

// Send stores one notification for userID and pushes it live.
func (s *Service) Send(ctx context.Context, userID, notificationType, title, message string, data map[string]interface{}) error {
	if userID == "" {
		return nil
	}

	notification := &repository.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Data:    data,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	s.sendWebSocketNotification(ctx, notification)
	return nil
}

// ============================================
// Lead Notifications
// ============================================

// SendLeadCaptured tells a card or QR owner that someone left their details.
func (s *Service) SendLeadCaptured(ctx context.Context, ownerID string, lead *repository.Lead, source *repository.SourceOwner) error {
	name := strings.TrimSpace(lead.FullName)
	if name == "" {
		name = lead.EmailPrimary
	}

	via := "your business card"
	if source.Kind == types.SourceCustomQRCode {
		via = "your QR code"
	}

	return s.Send(ctx, ownerID, TypeLeadCaptured,
		"New Lead",
		fmt.Sprintf("%s shared their contact details via %s", name, via),
		map[string]interface{}{
			"leadId":     lead.ID,
			"sourceType": source.Kind,
			"sourceId":   source.SourceID,
			"action":     "view_lead",
		},
	)
}

// SendContactsDeleted summarises a delete that reverted converted leads.
func (s *Service) SendContactsDeleted(ctx context.Context, ownerID string, deleted, reverted []int64) error {
	if len(reverted) == 0 {
		return nil
	}
	return s.Send(ctx, ownerID, TypeContactDeleted,
		"Leads Restored",
		fmt.Sprintf("%d deleted contact(s) were returned to your leads", len(reverted)),
		map[string]interface{}{
			"contactIds":    deleted,
			"revertedLeads": reverted,
			"action":        "view_leads",
		},
	)
}
