// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-a2a/taskcore"
)

// TaskUpdater is the write handle a [TaskProcessor] uses to report
// progress on one task. Every update goes through the manager, so the
// state machine, persistence, streaming, and push notifications all
// observe it. The updater refuses further updates once it published a
// terminal or pausing state; the store-level compare-and-swap backs
// this up against concurrent cancellation.
type TaskUpdater struct {
	manager *TaskManager
	taskID  string

	mu   sync.Mutex
	done bool
}

// TaskID returns the task this updater writes to.
func (u *TaskUpdater) TaskID() string { return u.taskID }

// Done reports whether the updater already published a terminal or
// pausing state.
func (u *TaskUpdater) Done() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.done
}

func (u *TaskUpdater) finish() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return fmt.Errorf("task %s updater is already finished", u.taskID)
	}
	u.done = true
	return nil
}

func (u *TaskUpdater) check() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return fmt.Errorf("task %s updater is already finished", u.taskID)
	}
	return nil
}

// Working reports an intermediate status message while staying in the
// working state. The message becomes part of the status, not of the
// task history.
func (u *TaskUpdater) Working(ctx context.Context, message string) error {
	if err := u.check(); err != nil {
		return err
	}
	_, err := u.manager.refreshStatus(ctx, u.taskID, agentMessage(message))
	return err
}

// RequireInput pauses the task until the caller sends a follow-up
// message. The message tells the caller what input is missing.
func (u *TaskUpdater) RequireInput(ctx context.Context, message string) error {
	if err := u.finish(); err != nil {
		return err
	}
	_, err := u.manager.applyStatus(ctx, u.taskID, taskcore.TaskStateInputRequired, agentMessage(message), false)
	return err
}

// Complete moves the task to the completed terminal state.
func (u *TaskUpdater) Complete(ctx context.Context) error {
	if err := u.finish(); err != nil {
		return err
	}
	_, err := u.manager.applyStatus(ctx, u.taskID, taskcore.TaskStateCompleted, nil, true)
	return err
}

// Fail moves the task to the failed terminal state.
func (u *TaskUpdater) Fail(ctx context.Context, message string) error {
	if err := u.finish(); err != nil {
		return err
	}
	_, err := u.manager.applyStatus(ctx, u.taskID, taskcore.TaskStateFailed, agentMessage(message), true)
	return err
}

// AddArtifact publishes one artifact chunk.
func (u *TaskUpdater) AddArtifact(ctx context.Context, artifact *taskcore.Artifact) error {
	if err := u.check(); err != nil {
		return err
	}
	return u.manager.applyArtifact(ctx, u.taskID, artifact)
}

func agentMessage(text string) *taskcore.Message {
	if text == "" {
		return nil
	}
	return taskcore.NewAgentTextMessage(text)
}
