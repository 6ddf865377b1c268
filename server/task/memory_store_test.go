// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-a2a/taskcore"
)

func newTestTask(id, sessionID string) *taskcore.Task {
	return taskcore.NewTask(id, sessionID, taskcore.NewUserTextMessage("Convert 100 USD to EUR"))
}

func TestInMemoryStoreCreate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	task := newTestTask("task-1", "session-1")
	if err := store.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Duplicate IDs are rejected.
	err := store.Create(ctx, newTestTask("task-1", "session-1"))
	var existsErr *taskcore.TaskAlreadyExistsError
	if !errors.As(err, &existsErr) {
		t.Fatalf("Create() duplicate error = %v, want *TaskAlreadyExistsError", err)
	}

	// The stored task is isolated from the caller's copy.
	task.Status.State = taskcore.TaskStateWorking
	got, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status.State != taskcore.TaskStateCreated {
		t.Errorf("stored state = %q, want %q", got.Status.State, taskcore.TaskStateCreated)
	}
}

func TestInMemoryStoreGetNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.Get(ctx, "missing")
	var notFound *taskcore.TaskNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Get() error = %v, want *TaskNotFoundError", err)
	}
	if notFound.TaskID != "missing" {
		t.Errorf("TaskNotFoundError.TaskID = %q, want %q", notFound.TaskID, "missing")
	}
}

func TestInMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Create(ctx, newTestTask("task-1", "")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := store.Update(ctx, "task-1", taskcore.TaskStateCreated, func(task *taskcore.Task) error {
		task.Status.State = taskcore.TaskStateWorking
		task.Status.Timestamp = time.Now().UTC()
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status.State != taskcore.TaskStateWorking {
		t.Errorf("updated state = %q, want %q", updated.Status.State, taskcore.TaskStateWorking)
	}

	// A stale expectation is rejected without invoking the mutator.
	mutated := false
	_, err = store.Update(ctx, "task-1", taskcore.TaskStateCreated, func(task *taskcore.Task) error {
		mutated = true
		return nil
	})
	var conflict *taskcore.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Update() stale error = %v, want *ConflictError", err)
	}
	if conflict.Actual != taskcore.TaskStateWorking {
		t.Errorf("ConflictError.Actual = %q, want %q", conflict.Actual, taskcore.TaskStateWorking)
	}
	if mutated {
		t.Error("mutator ran despite conflict")
	}

	// A mutator error leaves the stored task untouched.
	_, err = store.Update(ctx, "task-1", taskcore.TaskStateWorking, func(task *taskcore.Task) error {
		task.Status.State = taskcore.TaskStateFailed
		return fmt.Errorf("mutation aborted")
	})
	if err == nil {
		t.Fatal("Update() with failing mutator returned nil error")
	}
	got, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status.State != taskcore.TaskStateWorking {
		t.Errorf("state after aborted update = %q, want %q", got.Status.State, taskcore.TaskStateWorking)
	}
}

func TestInMemoryStoreTimestamps(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	created := newTestTask("task-1", "")
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("NewTask() left timestamps unset")
	}
	if err := store.Create(ctx, created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	before, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	time.Sleep(time.Millisecond)

	updated, err := store.Update(ctx, "task-1", taskcore.TaskStateCreated, func(task *taskcore.Task) error {
		task.Status.State = taskcore.TaskStateWorking
		task.Status.Timestamp = time.Now().UTC()
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !updated.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v -> %v", before.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: before %v, after %v", before.UpdatedAt, updated.UpdatedAt)
	}
}

func TestInMemoryStoreUpdateConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Create(ctx, newTestTask("task-1", "")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Update(ctx, "task-1", taskcore.TaskStateCreated, func(task *taskcore.Task) error {
		task.Status.State = taskcore.TaskStateWorking
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Concurrent terminal transitions from the same expected state:
	// exactly one must win.
	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.Update(ctx, "task-1", taskcore.TaskStateWorking, func(task *taskcore.Task) error {
				task.Status.State = taskcore.TaskStateCompleted
				return nil
			})
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var conflict *taskcore.ConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("unexpected error type: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("winning updates = %d, want 1", wins)
	}
}

func TestInMemoryStoreListAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for i := range 5 {
		sessionID := "session-a"
		if i >= 3 {
			sessionID = "session-b"
		}
		if err := store.Create(ctx, newTestTask(fmt.Sprintf("task-%d", i), sessionID)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := store.List(ctx, "", 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 5 {
		t.Errorf("List() returned %d tasks, want 5", len(all))
	}
	for i, task := range all {
		if want := fmt.Sprintf("task-%d", i); task.ID != want {
			t.Errorf("List()[%d].ID = %q, want %q (creation order)", i, task.ID, want)
		}
	}

	filtered, err := store.List(ctx, "session-a", 2, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("List(session-a, limit=2, offset=1) returned %d tasks, want 2", len(filtered))
	}

	count, err := store.Count(ctx, "session-b")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count(session-b) = %d, want 2", count)
	}
}

func TestInMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Create(ctx, newTestTask("task-1", "")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Delete(ctx, "task-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var notFound *taskcore.TaskNotFoundError
	if err := store.Delete(ctx, "task-1"); !errors.As(err, &notFound) {
		t.Errorf("Delete() repeated error = %v, want *TaskNotFoundError", err)
	}
	if store.Size() != 0 {
		t.Errorf("Size() = %d, want 0", store.Size())
	}
}
