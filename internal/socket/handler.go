// internal/socket/handler.go
package socket

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler handles WebSocket connections
type Handler struct {
	Hub       *Hub
	JWTSecret string
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. allowedOrigins empty means any
// origin is accepted (development).
func NewHandler(hub *Hub, jwtSecret string, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &Handler{
		Hub:       hub,
		JWTSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// userIDFromToken validates an HS256 access token and returns its subject.
func (h *Handler) userIDFromToken(tokenString string) (string, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.JWTSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		log.Printf("[WebSocket] Token rejected: %v", err)
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	userID, ok := claims["sub"].(string)
	return userID, ok && userID != ""
}

// HandleWebSocket upgrades the request. Browsers cannot set headers on a
// WebSocket handshake, so the token is read from ?token= first.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No token provided"})
		return
	}

	userID, ok := h.userIDFromToken(tokenString)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WebSocket] Upgrade error: %v", err)
		return
	}

	client := NewClient(h.Hub, userID, conn)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	h.Hub.JoinRoom(client, UserRoom(userID))
	log.Printf("[WebSocket] ✅ Client connected: userID=%s", userID)

	go client.WritePump()
	go client.ReadPump()
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, 256),
		Rooms:    make(map[string]bool),
		lastPing: time.Now(),
	}
}
