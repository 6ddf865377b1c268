// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

// TaskState represents the lifecycle state of a [Task].
type TaskState string

const (
	// TaskStateCreated is the state of a task that has been accepted but
	// not yet handed to a processor.
	TaskStateCreated TaskState = "created"

	// TaskStateWorking is the state of a task a processor is actively
	// working on.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired is the state of a task that is paused
	// waiting for additional input from the caller.
	TaskStateInputRequired TaskState = "input-required"

	// TaskStateCompleted is the terminal state of a task that finished
	// successfully.
	TaskStateCompleted TaskState = "completed"

	// TaskStateFailed is the terminal state of a task whose processing
	// ended in an error.
	TaskStateFailed TaskState = "failed"

	// TaskStateCanceled is the terminal state of a task canceled by the
	// caller.
	TaskStateCanceled TaskState = "canceled"
)

// String returns the string representation of the state.
func (s TaskState) String() string { return string(s) }

// Valid reports whether s is one of the states defined by the protocol.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateCreated, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal state. A task in a terminal
// state never transitions again and its history and artifacts are
// immutable.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	}
	return false
}

// transitions is the full transition relation of the task lifecycle.
// Terminal states have no outgoing edges.
var transitions = map[TaskState]map[TaskState]bool{
	TaskStateCreated: {
		TaskStateWorking:  true,
		TaskStateCanceled: true,
	},
	TaskStateWorking: {
		TaskStateInputRequired: true,
		TaskStateCompleted:     true,
		TaskStateFailed:        true,
		TaskStateCanceled:      true,
	},
	TaskStateInputRequired: {
		TaskStateWorking:  true,
		TaskStateCanceled: true,
	},
}

// Transition validates the state transition from from to to. It returns
// nil when the transition is legal and an [*InvalidTransitionError]
// otherwise. Transition has no side effects; persisting the new state is
// the caller's concern.
func Transition(from, to TaskState) error {
	if transitions[from][to] {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}
