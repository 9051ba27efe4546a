package model

import "time"

// Role is the users.role column as stored, e.g. "student" or "teacher".
type Role string

// User is the shared profile record; role-specific data lives with the owning service.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Role           Role      `json:"role"`
	TelegramChatID *int64    `json:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
}
