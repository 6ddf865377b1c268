// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides task persistence, artifact accumulation, and
// session tracking for the A2A server.
package task

import (
	"context"

	"github.com/go-a2a/taskcore"
)

// Store is the persistence boundary for tasks. Implementations must be
// safe for concurrent use and must hand out snapshots that callers can
// mutate freely without affecting stored state.
type Store interface {
	// Create persists a new task. It returns
	// [*taskcore.TaskAlreadyExistsError] when the ID is already in use.
	Create(ctx context.Context, task *taskcore.Task) error

	// Get retrieves a snapshot of a task by its ID. It returns
	// [*taskcore.TaskNotFoundError] when the task doesn't exist.
	Get(ctx context.Context, taskID string) (*taskcore.Task, error)

	// Update applies mutate to the stored task under a compare-and-swap
	// on the lifecycle state: when the stored state differs from
	// expected the update is rejected with [*taskcore.ConflictError]
	// and mutate is not called. On success the updated snapshot is
	// returned.
	Update(ctx context.Context, taskID string, expected taskcore.TaskState, mutate func(*taskcore.Task) error) (*taskcore.Task, error)

	// Delete removes a task. It returns [*taskcore.TaskNotFoundError]
	// when the task doesn't exist.
	Delete(ctx context.Context, taskID string) error

	// List retrieves tasks, optionally filtered by session ID, in
	// creation order.
	List(ctx context.Context, sessionID string, limit, offset int) ([]*taskcore.Task, error)

	// Count returns the number of stored tasks, optionally filtered by
	// session ID.
	Count(ctx context.Context, sessionID string) (int64, error)

	// Initialize prepares the storage backend for use.
	Initialize(ctx context.Context) error

	// Close shuts down the storage backend.
	Close(ctx context.Context) error
}
