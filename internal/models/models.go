package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================
// Notification DTOs
// ============================================

type NotificationResponse struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type NotificationCountResponse struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

// ============================================
// Shared
// ============================================

// FlexInt64 accepts an id sent either as a JSON number or a numeric string,
// as older web and mobile clients do both.
type FlexInt64 int64

func (f *FlexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*f = FlexInt64(n)
	return nil
}

// ParseID reads an id out of a decoded JSON object value.
func ParseID(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case float64:
		if id != float64(int64(id)) {
			return 0, false
		}
		return int64(id), id > 0
	case json.Number:
		n, err := id.Int64()
		return n, err == nil && n > 0
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil && n > 0
	default:
		return 0, false
	}
}
