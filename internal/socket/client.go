// internal/socket/client.go
package socket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket connection constants
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer (4KB)
	maxMessageSize int64 = 4096
)

// ClientMessage represents an incoming message from a client
type ClientMessage struct {
	Action  string                 `json:"action"`
	Room    string                 `json:"room,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Client] WebSocket error for user %s: %v", c.UserID, err)
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastPing = time.Now()
	c.mu.Unlock()
}

// handleMessage processes incoming messages from the client. A client may
// only subscribe to its own user room.
func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("[Client] Error parsing message from user %s: %v", c.UserID, err)
		return
	}

	switch msg.Action {
	case "join":
		if msg.Room == UserRoom(c.UserID) {
			c.Hub.JoinRoom(c, msg.Room)
			c.reply(MessageAck, map[string]interface{}{"action": "joined", "room": msg.Room})
		} else {
			c.reply(MessageAck, map[string]interface{}{"action": "denied", "room": msg.Room})
		}

	case "leave":
		if msg.Room != "" {
			c.Hub.LeaveRoom(c, msg.Room)
			c.reply(MessageAck, map[string]interface{}{"action": "left", "room": msg.Room})
		}

	case "ping":
		c.touch()
		c.reply(MessagePong, map[string]interface{}{"time": time.Now().Unix()})

	case "pong":
		c.touch()

	default:
		log.Printf("[Client] Unknown action: %s from user: %s", msg.Action, c.UserID)
	}
}

func (c *Client) reply(msgType MessageType, payload map[string]interface{}) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("[Client] Failed to send %s to user %s", msgType, c.UserID)
	}
}
