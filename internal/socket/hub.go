// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Notification messages
	MessageNotification      MessageType = "notification"
	MessageNotificationRead  MessageType = "notification_read"
	MessageNotificationCount MessageType = "notification_count"

	// Lead / contact messages
	MessageLeadCaptured   MessageType = "lead_captured"
	MessageLeadConverted  MessageType = "lead_converted"
	MessageLeadUpdated    MessageType = "lead_updated"
	MessageLeadDeleted    MessageType = "lead_deleted"
	MessageContactCreated MessageType = "contact_created"
	MessageContactUpdated MessageType = "contact_updated"
	MessageContactDeleted MessageType = "contact_deleted"

	// System messages
	MessagePing MessageType = "ping"
	MessagePong MessageType = "pong"
	MessageAck  MessageType = "ack"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType            `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan []byte
	Rooms    map[string]bool // user:<id>
	mu       sync.Mutex
	lastPing time.Time
}

// Hub maintains the set of active clients and routes messages to user rooms.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	roomClients map[string]map[*Client]bool

	register      chan *Client
	unregister    chan *Client
	roomBroadcast chan *RoomMessage
	directMessage chan *DirectMessage
	done          chan struct{}
	stopOnce      sync.Once

	mu sync.RWMutex
}

// RoomMessage represents a message to be sent to a specific room
type RoomMessage struct {
	Room    string
	Message []byte
	Exclude string // User ID to exclude from broadcast
}

// DirectMessage represents a message to be sent to a specific user
type DirectMessage struct {
	UserID  string
	Message []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		userClients:   make(map[string]map[*Client]bool),
		roomClients:   make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		roomBroadcast: make(chan *RoomMessage, 256),
		directMessage: make(chan *DirectMessage, 256),
		done:          make(chan struct{}),
	}
}

// UserRoom is the personal room every client joins on connect.
func UserRoom(userID string) string {
	return "user:" + userID
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	log.Println("[Hub] WebSocket hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case rm := <-h.roomBroadcast:
			h.broadcastToRoom(rm)

		case dm := <-h.directMessage:
			h.sendToUser(dm)

		case <-pingTicker.C:
			h.pingClients()

		case <-h.done:
			h.closeAll()
			log.Println("[Hub] WebSocket hub stopped")
			return
		}
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register hands a new client to the hub loop.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; safe to call after Stop.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true

	log.Printf("[Hub] ✅ Client registered: user=%s, id=%s, total_clients=%d",
		client.UserID, client.ID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	if clients, ok := h.userClients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	client.mu.Lock()
	for room := range client.Rooms {
		if clients, ok := h.roomClients[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.roomClients, room)
			}
		}
	}
	client.mu.Unlock()

	close(client.Send)
	log.Printf("[Hub] ❌ Client disconnected: user=%s, id=%s, total_clients=%d",
		client.UserID, client.ID, len(h.clients))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]bool)
	h.userClients = make(map[string]map[*Client]bool)
	h.roomClients = make(map[string]map[*Client]bool)
}

// deliver queues data on every client in set, dropping clients whose buffer is full.
func (h *Hub) deliver(clients map[*Client]bool, data []byte, exclude string) int {
	sent := 0
	for client := range clients {
		if exclude != "" && client.UserID == exclude {
			continue
		}
		select {
		case client.Send <- data:
			sent++
		default:
			go h.Unregister(client)
		}
	}
	return sent
}

func (h *Hub) broadcastToRoom(rm *RoomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.roomClients[rm.Room]
	if !ok {
		return
	}
	sent := h.deliver(clients, rm.Message, rm.Exclude)
	log.Printf("[Hub] Broadcast to room %s: sent to %d clients", rm.Room, sent)
}

func (h *Hub) sendToUser(dm *DirectMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userClients[dm.UserID]
	if !ok {
		return
	}
	sent := h.deliver(clients, dm.Message, "")
	log.Printf("[Hub] Direct message to user %s: sent to %d clients", dm.UserID, sent)
}

func (h *Hub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, _ := json.Marshal(Message{Type: MessagePing, Timestamp: time.Now()})
	h.deliver(h.clients, data, "")
}

// ============================================
// Public Methods for Room Management
// ============================================

// JoinRoom adds a client to a room
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true

	log.Printf("[Hub] 👥 Client joined room: user=%s, room=%s", client.UserID, room)
}

// LeaveRoom removes a client from a room
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}
}

// ============================================
// Public Methods for Sending Messages
// ============================================

func encode(msgType MessageType, payload map[string]interface{}) ([]byte, bool) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		log.Printf("[Hub] Error marshaling message: %v", err)
		return nil, false
	}
	return data, true
}

// SendToUser sends a message to every connection of a user. Messages sent
// after Stop are discarded.
func (h *Hub) SendToUser(userID string, msgType MessageType, payload map[string]interface{}) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case h.directMessage <- &DirectMessage{UserID: userID, Message: data}:
	case <-h.done:
	}
}

// SendToRoom broadcasts a message to all clients in a room
func (h *Hub) SendToRoom(room string, msgType MessageType, payload map[string]interface{}, excludeUserID string) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case h.roomBroadcast <- &RoomMessage{Room: room, Message: data, Exclude: excludeUserID}:
	case <-h.done:
	}
}

// ============================================
// Query Methods
// ============================================

// IsUserOnline checks if a user is currently connected
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.userClients[userID]
	return ok
}

// GetRoomClients returns the number of clients in a room
func (h *Hub) GetRoomClients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.roomClients[room])
}

// GetConnectedClientsCount returns total connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
