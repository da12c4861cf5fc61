package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharemycard/sharemycard-backend/internal/api/middleware"
	"github.com/sharemycard/sharemycard-backend/internal/models"
	"github.com/sharemycard/sharemycard-backend/internal/service"
)

// ============================================
// Notification Handler
// ============================================

type NotificationHandler struct {
	notificationService service.NotificationService
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notificationService.List(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}

	response := make([]models.NotificationResponse, len(notifications))
	for i, n := range notifications {
		response[i] = toNotificationResponse(n)
	}

	c.JSON(http.StatusOK, response)
}

func (h *NotificationHandler) Count(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	total, unread, err := h.notificationService.Count(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to count notifications")
		return
	}

	c.JSON(http.StatusOK, models.NotificationCountResponse{
		Total:  total,
		Unread: unread,
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	err := h.notificationService.MarkAsRead(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Notification not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to mark notification as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to mark notifications as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All notifications marked as read"})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	err := h.notificationService.Delete(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Notification not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification deleted"})
}
