// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the current status of a task: its lifecycle state, an
// optional human-readable status message, and the time the state was
// entered.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitzero"`
	Timestamp time.Time `json:"timestamp"`
}

// Clone deep copies the status.
func (s TaskStatus) Clone() TaskStatus {
	cp := s
	cp.Message = s.Message.Clone()
	return cp
}

// Task is one unit of work tracked by the server. History holds the
// conversational turns in arrival order and Artifacts the accumulated
// outputs ordered by index.
type Task struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId,omitzero"`
	Status    TaskStatus     `json:"status"`
	Artifacts []*Artifact    `json:"artifacts,omitzero"`
	History   []*Message     `json:"history,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
	CreatedAt time.Time      `json:"createdAt,omitzero"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
}

// NewTask creates a task in the created state. When id is empty a UUID
// is generated. The message, when non-nil, becomes the first history
// entry.
func NewTask(id, sessionID string, message *Message) *Task {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	t := &Task{
		ID:        id,
		SessionID: sessionID,
		Status: TaskStatus{
			State:     TaskStateCreated,
			Timestamp: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if message != nil {
		t.History = append(t.History, message)
	}
	return t
}

// Validate ensures the Task is valid.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if !t.Status.State.Valid() {
		return fmt.Errorf("invalid task state: %q", t.Status.State)
	}
	for i, a := range t.Artifacts {
		if a == nil {
			return fmt.Errorf("task artifact at index %d cannot be nil", i)
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("task artifact at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// Clone deep copies the task. Stores hand out clones so callers never
// share mutable state with the stored snapshot.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Status = t.Status.Clone()
	if t.Artifacts != nil {
		cp.Artifacts = make([]*Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			cp.Artifacts[i] = a.Clone()
		}
	}
	if t.History != nil {
		cp.History = make([]*Message, len(t.History))
		for i, m := range t.History {
			cp.History[i] = m.Clone()
		}
	}
	cp.Metadata = cloneMetadata(t.Metadata)
	return &cp
}

// Terminal reports whether the task is in a terminal state.
func (t *Task) Terminal() bool {
	return t.Status.State.Terminal()
}
