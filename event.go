// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

// TaskEvent is a streamed update for a single task. The two concrete
// events mirror the two frame shapes of the tasks/sendSubscribe stream.
type TaskEvent interface {
	EventTaskID() string
	IsFinal() bool
}

// TaskStatusUpdateEvent reports a state transition of a task. Final is
// set on the frame that closes the stream.
type TaskStatusUpdateEvent struct {
	ID       string         `json:"id"`
	Status   TaskStatus     `json:"status"`
	Final    bool           `json:"final"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// EventTaskID returns the ID of the task the event belongs to.
func (e *TaskStatusUpdateEvent) EventTaskID() string { return e.ID }

// IsFinal reports whether this is the last frame of the stream.
func (e *TaskStatusUpdateEvent) IsFinal() bool { return e.Final }

// TaskArtifactUpdateEvent carries one artifact chunk produced by a
// task.
type TaskArtifactUpdateEvent struct {
	ID       string         `json:"id"`
	Artifact *Artifact      `json:"artifact"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// EventTaskID returns the ID of the task the event belongs to.
func (e *TaskArtifactUpdateEvent) EventTaskID() string { return e.ID }

// IsFinal reports whether this is the last frame of the stream.
// Artifact frames never close the stream; the terminal status frame
// does.
func (e *TaskArtifactUpdateEvent) IsFinal() bool { return false }
