// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

import "fmt"

// Error codes carried on JSON-RPC error responses.
const (
	ErrorCodeJSONParse       = -32700
	ErrorCodeInvalidRequest  = -32600
	ErrorCodeMethodNotFound  = -32601
	ErrorCodeInvalidParams   = -32602
	ErrorCodeInternalError   = -32603
	ErrorCodeTaskNotFound    = -32001
	ErrorCodeSessionNotFound = -32002
	ErrorCodePushUnsupported = -32003
)

// Error is implemented by protocol errors that carry a JSON-RPC error
// code in addition to the usual error message.
type Error interface {
	error
	Code() int
	Message() string
}

// TaskNotFoundError reports that no task exists with the given ID.
type TaskNotFoundError struct {
	TaskID string
}

// Error returns the error message.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// Code returns the JSON-RPC error code.
func (e *TaskNotFoundError) Code() int { return ErrorCodeTaskNotFound }

// Message returns the wire-level error message.
func (e *TaskNotFoundError) Message() string { return "Task not found" }

// SessionNotFoundError reports that no session exists with the given ID.
type SessionNotFoundError struct {
	SessionID string
}

// Error returns the error message.
func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// Code returns the JSON-RPC error code.
func (e *SessionNotFoundError) Code() int { return ErrorCodeSessionNotFound }

// Message returns the wire-level error message.
func (e *SessionNotFoundError) Message() string { return "Session not found" }

// PushUnsupportedError reports that the server has no push notification
// support configured.
type PushUnsupportedError struct{}

// Error returns the error message.
func (e *PushUnsupportedError) Error() string {
	return "push notifications are not supported by this server"
}

// Code returns the JSON-RPC error code.
func (e *PushUnsupportedError) Code() int { return ErrorCodePushUnsupported }

// Message returns the wire-level error message.
func (e *PushUnsupportedError) Message() string { return "Push notifications not supported" }

// TaskAlreadyExistsError reports an attempt to create a task whose ID is
// already in use.
type TaskAlreadyExistsError struct {
	TaskID string
}

// Error returns the error message.
func (e *TaskAlreadyExistsError) Error() string {
	return fmt.Sprintf("task already exists: %s", e.TaskID)
}

// InvalidTransitionError reports a state transition the task lifecycle
// does not permit.
type InvalidTransitionError struct {
	From TaskState
	To   TaskState
}

// Error returns the error message.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid task state transition: %s -> %s", e.From, e.To)
}

// TaskNotUpdatableError reports an update attempted against a task that
// is already in a terminal state.
type TaskNotUpdatableError struct {
	TaskID string
	State  TaskState
}

// Error returns the error message.
func (e *TaskNotUpdatableError) Error() string {
	return fmt.Sprintf("task %s is in terminal state %s and cannot be updated", e.TaskID, e.State)
}

// ArtifactError reports an artifact chunk that cannot be applied to a
// task, such as an append to an unknown index or a chunk arriving after
// the artifact was finalized.
type ArtifactError struct {
	TaskID string
	Index  int
	Reason string
}

// Error returns the error message.
func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %d of task %s: %s", e.Index, e.TaskID, e.Reason)
}

// ConflictError reports a compare-and-swap store update whose expected
// state no longer matched the stored task. Callers re-read the task and
// either retry or surface the conflict.
type ConflictError struct {
	TaskID   string
	Expected TaskState
	Actual   TaskState
}

// Error returns the error message.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("task %s changed state: expected %s, found %s", e.TaskID, e.Expected, e.Actual)
}
