package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharemycard/sharemycard-backend/internal/service"
)

// AuthMiddleware validates JWT tokens and sets user context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Printf("❌ [Auth] Missing Authorization header - Path: %s", c.Request.URL.Path)
			abortUnauthorized(c, "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Printf("❌ [Auth] Invalid header format - Path: %s", c.Request.URL.Path)
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		token, err := authService.ValidateToken(parts[1])
		if err != nil || !token.Valid {
			log.Printf("❌ [Auth] Invalid token - Path: %s, Error: %v", c.Request.URL.Path, err)
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		userID, err := authService.GetUserIDFromToken(token)
		if err != nil {
			log.Printf("❌ [Auth] Failed to extract userID - Path: %s, Error: %v", c.Request.URL.Path, err)
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
}

// RequestLogger logs all incoming requests with details
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		statusEmoji := "✅"
		if status >= 400 && status < 500 {
			statusEmoji = "⚠️"
		} else if status >= 500 {
			statusEmoji = "❌"
		}

		log.Printf("%s [%s] %s %d - %v (%s)", statusEmoji, method, path, status, duration, ClientIP(c))

		for _, e := range c.Errors {
			log.Printf("❌ [Error] %v", e.Err)
		}
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	id, _ := userID.(string)
	return id
}

// RequireUserID writes a 401 and returns false if no user is in context.
func RequireUserID(c *gin.Context) (string, bool) {
	userID := GetUserID(c)
	if userID == "" {
		log.Printf("❌ [Auth] User not authenticated - Path: %s", c.Request.URL.Path)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return "", false
	}
	return userID, true
}
