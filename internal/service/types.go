// Package service defines the backend-agnostic interface for API operations.
package service

import "time"

// Profile represents the authenticated user.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Task represents a single task item.
// Description and UpdatedAt are nullable on the wire.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	UserID      int64      `json:"user_id"`
}

// NewTask holds the fields for creating a task. Title is required.
type NewTask struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// TaskPatch holds a partial update. Nil fields are omitted from the
// request body and left unchanged by the server.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}
