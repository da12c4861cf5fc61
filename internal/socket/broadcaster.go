package socket

import (
	"log"
)

// Broadcaster provides high-level methods for pushing owner events. A nil
// *Broadcaster is valid and drops everything.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func (b *Broadcaster) toUser(userID string, msgType MessageType, payload map[string]interface{}) {
	if b == nil || b.hub == nil || userID == "" {
		return
	}
	b.hub.SendToRoom(UserRoom(userID), msgType, payload, "")
}

// ============================================
// Notification Broadcasting
// ============================================

// SendNotification sends a notification to a specific user
func (b *Broadcaster) SendNotification(userID string, notification map[string]interface{}) {
	b.toUser(userID, MessageNotification, notification)
}

// SendNotificationCount updates notification count for a user
func (b *Broadcaster) SendNotificationCount(userID string, total, unread int) {
	b.toUser(userID, MessageNotificationCount, map[string]interface{}{
		"total":  total,
		"unread": unread,
	})
}

// SendNotificationRead tells the user's other sessions a notification was read.
func (b *Broadcaster) SendNotificationRead(userID, notificationID string) {
	b.toUser(userID, MessageNotificationRead, map[string]interface{}{
		"id": notificationID,
	})
}

// ============================================
// Lead Broadcasting
// ============================================

// BroadcastLeadCaptured pushes a freshly captured lead to its owner.
func (b *Broadcaster) BroadcastLeadCaptured(userID string, lead map[string]interface{}) {
	log.Printf("📡 BroadcastLeadCaptured: user=%s, leadId=%v", userID, lead["id"])
	b.toUser(userID, MessageLeadCaptured, lead)
}

func (b *Broadcaster) BroadcastLeadConverted(userID string, leadID, contactID int64) {
	b.toUser(userID, MessageLeadConverted, map[string]interface{}{
		"lead_id":    leadID,
		"contact_id": contactID,
	})
}

func (b *Broadcaster) BroadcastLeadUpdated(userID string, leadID int64) {
	b.toUser(userID, MessageLeadUpdated, map[string]interface{}{"lead_id": leadID})
}

func (b *Broadcaster) BroadcastLeadDeleted(userID string, leadID int64) {
	b.toUser(userID, MessageLeadDeleted, map[string]interface{}{"lead_id": leadID})
}

// ============================================
// Contact Broadcasting
// ============================================

func (b *Broadcaster) BroadcastContactCreated(userID string, contactID int64) {
	b.toUser(userID, MessageContactCreated, map[string]interface{}{"contact_id": contactID})
}

func (b *Broadcaster) BroadcastContactUpdated(userID string, contactID int64) {
	b.toUser(userID, MessageContactUpdated, map[string]interface{}{"contact_id": contactID})
}

// BroadcastContactDeleted reports deleted contacts and the leads they
// reverted to.
func (b *Broadcaster) BroadcastContactDeleted(userID string, contactIDs, revertedLeadIDs []int64) {
	b.toUser(userID, MessageContactDeleted, map[string]interface{}{
		"contact_ids":    contactIDs,
		"reverted_leads": revertedLeadIDs,
	})
}
