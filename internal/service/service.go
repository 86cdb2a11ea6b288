// Package service defines the backend-agnostic interface for API operations.
package service

import "context"

// Service defines the interface for Task Manager API operations.
// All HTTP calls go through this interface; commands and the TUI never
// build requests directly.
type Service interface {
	// Me returns the profile of the authenticated user.
	Me(ctx context.Context) (Profile, error)

	// Register creates a new account. The new account is not logged in.
	Register(ctx context.Context, username, email, password string) (Profile, error)

	// ListTasks returns the authenticated user's tasks in server order
	// (newest first).
	ListTasks(ctx context.Context) ([]Task, error)

	// GetTask returns a single task by id.
	GetTask(ctx context.Context, id int64) (Task, error)

	// CreateTask creates a task and returns the server copy with its
	// assigned id and timestamp. An empty title is rejected before any
	// request is made.
	CreateTask(ctx context.Context, t NewTask) (Task, error)

	// UpdateTask applies a partial update and returns the server copy.
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task by id.
	DeleteTask(ctx context.Context, id int64) error
}
