package models

import "time"

// User represents a Telegram user using the bot
type User struct {
	ID                  int64     `json:"id" db:"id"` // Telegram User ID
	Username            string    `json:"username" db:"username"`
	DisplayName         string    `json:"display_name" db:"display_name"`
	FirstName           string    `json:"first_name" db:"first_name"`
	LastName            string    `json:"last_name" db:"last_name"`
	IsAdmin             bool      `json:"is_admin" db:"is_admin"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // Hour of day for notifications (0-23)
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Friend is one side of an accepted friendship
type Friend struct {
	UserID      int64     `json:"user_id" db:"user_id"`
	FriendID    int64     `json:"friend_id" db:"friend_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Since       time.Time `json:"since" db:"since"`
}

// Friend request statuses
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
)

// FriendRequest is a pending or accepted invitation between two users
type FriendRequest struct {
	ID              string    `json:"id" db:"id"`
	FromID          int64     `json:"from_id" db:"from_id"`
	FromDisplayName string    `json:"from_display_name" db:"from_display_name"`
	ToID            int64     `json:"to_id" db:"to_id"`
	ToDisplayName   string    `json:"to_display_name" db:"to_display_name"`
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Category groups words; owned by one learner
type Category struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
