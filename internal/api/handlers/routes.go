package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the REST surface under api. authRequired guards the
// owner routes; captureLimit is applied to the public capture form only.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, authRequired, captureLimit gin.HandlerFunc) {
	// ============================================
	// Public routes (no auth required)
	// ============================================
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	api.POST("/leads/capture", captureLimit, h.Lead.Capture)

	// ============================================
	// Protected routes (require auth middleware)
	// ============================================
	protected := api.Group("")
	protected.Use(authRequired)
	{
		protected.GET("/auth/me", h.Auth.Me)

		leads := protected.Group("/leads")
		{
			leads.POST("/convert", h.Lead.Convert)
			leads.GET("/", h.Lead.List)
			leads.GET("/:id", h.Lead.Get)
			leads.PUT("/", h.Lead.Update)
			leads.DELETE("/", h.Lead.Delete)
		}

		contacts := protected.Group("/contacts")
		{
			contacts.GET("/", h.Contact.List)
			contacts.GET("/:id", h.Contact.Get)
			contacts.GET("/:id/vcf", h.Contact.ExportVCard)
			contacts.POST("/", h.Contact.Create)
			contacts.POST("/from-qr", h.Contact.FromScan)
			contacts.PUT("/", h.Contact.Update)
			contacts.DELETE("/", h.Contact.Delete)
			contacts.POST("/bulk-delete", h.Contact.BulkDelete)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/count", h.Notification.Count)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
			notifications.PUT("/read-all", h.Notification.MarkAllRead)
			notifications.DELETE("/:id", h.Notification.Delete)
		}
	}
}
