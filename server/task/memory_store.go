// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-a2a/taskcore"
)

// InMemoryStore is an in-memory implementation of [Store]. Task data is
// lost when the server process stops. All operations are safe for
// concurrent use; tasks are deep copied on the way in and out so no
// caller ever holds a reference into stored state.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*taskcore.Task
	order []string
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]*taskcore.Task),
	}
}

// Create persists a new task in memory.
func (s *InMemoryStore) Create(ctx context.Context, task *taskcore.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return NewValidationError(task.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return &taskcore.TaskAlreadyExistsError{TaskID: task.ID}
	}

	s.tasks[task.ID] = task.Clone()
	s.order = append(s.order, task.ID)
	return nil
}

// Get retrieves a snapshot of a task by its ID.
func (s *InMemoryStore) Get(ctx context.Context, taskID string) (*taskcore.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, &taskcore.TaskNotFoundError{TaskID: taskID}
	}
	return task.Clone(), nil
}

// Update applies mutate under a compare-and-swap on the task state.
// The mutation runs against a private clone; the stored task is only
// replaced when mutate succeeds and the result validates.
func (s *InMemoryStore) Update(ctx context.Context, taskID string, expected taskcore.TaskState, mutate func(*taskcore.Task) error) (*taskcore.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.tasks[taskID]
	if !exists {
		return nil, &taskcore.TaskNotFoundError{TaskID: taskID}
	}
	if stored.Status.State != expected {
		return nil, &taskcore.ConflictError{
			TaskID:   taskID,
			Expected: expected,
			Actual:   stored.Status.State,
		}
	}

	next := stored.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, NewValidationError(taskID, err)
	}
	next.UpdatedAt = time.Now().UTC()

	s.tasks[taskID] = next
	return next.Clone(), nil
}

// Delete removes a task from memory.
func (s *InMemoryStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return &taskcore.TaskNotFoundError{TaskID: taskID}
	}

	delete(s.tasks, taskID)
	for i, id := range s.order {
		if id == taskID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List retrieves tasks in creation order, optionally filtered by
// session ID.
func (s *InMemoryStore) List(ctx context.Context, sessionID string, limit, offset int) ([]*taskcore.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*taskcore.Task
	skipped := 0
	for _, id := range s.order {
		task := s.tasks[id]
		if sessionID != "" && task.SessionID != sessionID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(tasks) >= limit {
			break
		}
		tasks = append(tasks, task.Clone())
	}
	return tasks, nil
}

// Count returns the number of stored tasks, optionally filtered by
// session ID.
func (s *InMemoryStore) Count(ctx context.Context, sessionID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sessionID == "" {
		return int64(len(s.tasks)), nil
	}

	count := int64(0)
	for _, task := range s.tasks {
		if task.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

// Initialize prepares the in-memory storage for use.
func (s *InMemoryStore) Initialize(ctx context.Context) error {
	return nil
}

// Close shuts down the in-memory storage.
func (s *InMemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*taskcore.Task)
	s.order = nil
	return nil
}

// Clear removes all tasks. It exists for tests.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*taskcore.Task)
	s.order = nil
}

// Size returns the current number of stored tasks.
func (s *InMemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks)
}

// IDs returns the IDs of all stored tasks in lexical order. It exists
// for tests.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
