// Package tasks maintains the session-scoped local cache of tasks and
// keeps it consistent with server state after every mutation.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"taskman/internal/service"
	"taskman/internal/session"
)

// ErrBusy is returned when a mutation targets an id that already has a
// request in flight (e.g. a double-invoked delete).
var ErrBusy = errors.New("another change to this task is still in flight")

// ErrNotAuthenticated is returned when an operation runs without an
// authenticated session.
var ErrNotAuthenticated = errors.New("not logged in")

// Store is the local cache of the current session's tasks. Every mutation
// round-trips to the server before the local copy changes; on failure the
// cache is left untouched. The server is the source of truth.
type Store struct {
	mu       sync.Mutex
	sess     *session.Session
	tasks    []service.Task
	inFlight map[int64]struct{}
}

// NewStore creates a store bound to a session. The cache is discarded on
// logout.
func NewStore(sess *session.Session) *Store {
	s := &Store{
		sess:     sess,
		inFlight: make(map[int64]struct{}),
	}
	sess.OnLogout(s.Clear)
	return s
}

// Tasks returns a copy of the cached collection in display order.
func (s *Store) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]service.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the cached task with the given id.
func (s *Store) Get(id int64) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Load fetches the full list and replaces the cache wholesale.
func (s *Store) Load(ctx context.Context) error {
	svc := s.sess.Service()
	if svc == nil {
		return ErrNotAuthenticated
	}

	tasks, err := svc.ListTasks(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	return nil
}

// Create round-trips a create and prepends the server copy, which carries
// the assigned id and timestamp. No optimistic insertion.
func (s *Store) Create(ctx context.Context, t service.NewTask) (service.Task, error) {
	svc := s.sess.Service()
	if svc == nil {
		return service.Task{}, ErrNotAuthenticated
	}

	created, err := svc.CreateTask(ctx, t)
	if err != nil {
		return service.Task{}, err
	}

	s.mu.Lock()
	s.tasks = append([]service.Task{created}, s.tasks...)
	s.mu.Unlock()
	return created, nil
}

// Update round-trips a partial update and replaces the matching cache
// entry by identity with the server copy.
func (s *Store) Update(ctx context.Context, id int64, patch service.TaskPatch) (service.Task, error) {
	svc := s.sess.Service()
	if svc == nil {
		return service.Task{}, ErrNotAuthenticated
	}
	if !s.begin(id) {
		return service.Task{}, fmt.Errorf("task %d: %w", id, ErrBusy)
	}
	defer s.end(id)

	updated, err := svc.UpdateTask(ctx, id, patch)
	if err != nil {
		return service.Task{}, err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = updated
			break
		}
	}
	s.mu.Unlock()
	return updated, nil
}

// Toggle flips a task's completion flag based on the cached state.
func (s *Store) Toggle(ctx context.Context, id int64) (service.Task, error) {
	current, ok := s.Get(id)
	if !ok {
		return service.Task{}, fmt.Errorf("task %d not loaded", id)
	}
	completed := !current.IsCompleted
	return s.Update(ctx, id, service.TaskPatch{IsCompleted: &completed})
}

// Delete round-trips a delete and removes the matching cache entry.
func (s *Store) Delete(ctx context.Context, id int64) error {
	svc := s.sess.Service()
	if svc == nil {
		return ErrNotAuthenticated
	}
	if !s.begin(id) {
		return fmt.Errorf("task %d: %w", id, ErrBusy)
	}
	defer s.end(id)

	if err := svc.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Clear empties the cache. Registered as a logout hook.
func (s *Store) Clear() {
	s.mu.Lock()
	s.tasks = nil
	s.mu.Unlock()
}

// begin marks id as having a mutation in flight. Returns false if one is
// already outstanding.
func (s *Store) begin(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Store) end(id int64) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}
