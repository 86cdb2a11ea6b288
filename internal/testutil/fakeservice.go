// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"taskman/internal/api"
	"taskman/internal/service"
)

// FakeService is an in-memory implementation of service.Service for
// testing. Tasks are kept in server order: newest first.
type FakeService struct {
	mu      sync.RWMutex
	profile service.Profile
	tasks   []service.Task
	users   map[string]string // username -> email
	nextID  int64
	now     time.Time

	// Error injection for testing
	MeErr         error
	RegisterErr   error
	ListTasksErr  error
	GetTaskErr    error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error
}

// NewFakeService creates a fake backend with one registered user.
func NewFakeService() *FakeService {
	return &FakeService{
		profile: service.Profile{ID: 1, Username: "alice", Email: "alice@example.com"},
		users:   map[string]string{"alice": "alice@example.com"},
		nextID:  1,
		now:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// AddTask seeds a task and returns the server copy.
func (f *FakeService) AddTask(title string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := service.Task{
		ID:          f.nextID,
		Title:       title,
		IsCompleted: completed,
		CreatedAt:   f.now,
		UserID:      f.profile.ID,
	}
	f.nextID++
	f.now = f.now.Add(time.Minute)
	f.tasks = append([]service.Task{task}, f.tasks...)
	return task
}

// Me implements service.Service.
func (f *FakeService) Me(ctx context.Context) (service.Profile, error) {
	if f.MeErr != nil {
		return service.Profile{}, f.MeErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.profile, nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, username, email, password string) (service.Profile, error) {
	if f.RegisterErr != nil {
		return service.Profile{}, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, taken := f.users[username]; taken {
		return service.Profile{}, &api.Error{
			Kind:   api.KindConflict,
			Status: http.StatusBadRequest,
			Detail: "Username already taken",
		}
	}
	for _, existing := range f.users {
		if existing == email {
			return service.Profile{}, &api.Error{
				Kind:   api.KindConflict,
				Status: http.StatusBadRequest,
				Detail: "Email already registered",
			}
		}
	}
	f.users[username] = email
	return service.Profile{ID: int64(len(f.users)), Username: username, Email: email}, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result, nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int64) (service.Task, error) {
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, notFound(id)
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if t.Title == "" {
		return service.Task{}, &api.Error{Kind: api.KindValidation, Detail: "title required"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	task := service.Task{
		ID:          f.nextID,
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   f.now,
		UserID:      f.profile.ID,
	}
	if t.IsCompleted != nil {
		task.IsCompleted = *t.IsCompleted
	}
	f.nextID++
	f.now = f.now.Add(time.Minute)
	f.tasks = append([]service.Task{task}, f.tasks...)
	return task, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int64, patch service.TaskPatch) (service.Task, error) {
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		if patch.Title != nil {
			f.tasks[i].Title = *patch.Title
		}
		if patch.Description != nil {
			f.tasks[i].Description = patch.Description
		}
		if patch.IsCompleted != nil {
			f.tasks[i].IsCompleted = *patch.IsCompleted
		}
		updated := f.now
		f.now = f.now.Add(time.Minute)
		f.tasks[i].UpdatedAt = &updated
		return f.tasks[i], nil
	}
	return service.Task{}, notFound(id)
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return notFound(id)
}

func notFound(id int64) error {
	return &api.Error{
		Kind:   api.KindNotFound,
		Status: http.StatusNotFound,
		Detail: fmt.Sprintf("Task %d not found", id),
	}
}
