// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"

	"github.com/go-a2a/taskcore"
	"github.com/go-a2a/taskcore/server/task"
)

// ProcessRequest carries everything a processor needs to handle one
// task: the triggering message, the conversational history up to and
// including it, and the shared context of the session the task belongs
// to.
type ProcessRequest struct {
	// TaskID is the task being processed.
	TaskID string

	// SessionID is the session the task belongs to, empty for
	// sessionless tasks.
	SessionID string

	// Message is the user message that started or resumed the task.
	Message *taskcore.Message

	// History is the task's full message history in arrival order.
	History []*taskcore.Message

	// Session is the shared scratch space of the session. It is nil for
	// sessionless tasks.
	Session *task.SessionContext
}

// TaskProcessor implements the agent behavior behind the task
// lifecycle. Process is invoked on its own goroutine once the task has
// transitioned to working; it reports progress and results through the
// updater and returns once the task reached a terminal or paused
// state. A non-nil error fails the task.
//
// Process is invoked again, with the extended history, when a task
// paused in input-required receives a follow-up message.
type TaskProcessor interface {
	Process(ctx context.Context, req *ProcessRequest, updater *TaskUpdater) error
}

// ProcessorFunc adapts a function to the [TaskProcessor] interface.
type ProcessorFunc func(ctx context.Context, req *ProcessRequest, updater *TaskUpdater) error

// Process implements [TaskProcessor].
func (f ProcessorFunc) Process(ctx context.Context, req *ProcessRequest, updater *TaskUpdater) error {
	return f(ctx, req, updater)
}
