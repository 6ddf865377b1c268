// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"sync"

	"github.com/go-a2a/taskcore"
)

// SessionContext is the shared scratch space of one session. Task
// processors use it to carry conversational state across tasks of the
// same session, such as the partially parsed request of a task that
// paused for more input.
type SessionContext struct {
	mu     sync.Mutex
	values map[string]any
}

// Get returns the value stored under key.
func (c *SessionContext) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key.
func (c *SessionContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Delete removes the value stored under key.
func (c *SessionContext) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.values, key)
}

// SessionRegistry tracks which tasks belong to which session and owns
// the per-session contexts. Sessions are created implicitly by the
// first task that names them.
type SessionRegistry struct {
	mu       sync.RWMutex
	tasks    map[string][]string
	contexts map[string]*SessionContext
}

// NewSessionRegistry creates a new SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		tasks:    make(map[string][]string),
		contexts: make(map[string]*SessionContext),
	}
}

// Attach records that a task belongs to a session, creating the
// session on first use. Attaching the same task twice is a no-op.
func (r *SessionRegistry) Attach(sessionID, taskID string) {
	if sessionID == "" || taskID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.tasks[sessionID] {
		if id == taskID {
			return
		}
	}
	r.tasks[sessionID] = append(r.tasks[sessionID], taskID)
	if _, ok := r.contexts[sessionID]; !ok {
		r.contexts[sessionID] = &SessionContext{}
	}
}

// Tasks returns the task IDs of a session in attachment order. It
// returns [*taskcore.SessionNotFoundError] for an unknown session.
func (r *SessionRegistry) Tasks(sessionID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.tasks[sessionID]
	if !ok {
		return nil, &taskcore.SessionNotFoundError{SessionID: sessionID}
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// Exists reports whether the session is known.
func (r *SessionRegistry) Exists(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tasks[sessionID]
	return ok
}

// Context returns the shared context of a session, creating the
// session on first use.
func (r *SessionRegistry) Context(sessionID string) *SessionContext {
	r.mu.Lock()
	defer r.mu.Unlock()

	sc, ok := r.contexts[sessionID]
	if !ok {
		sc = &SessionContext{}
		r.contexts[sessionID] = sc
		if _, ok := r.tasks[sessionID]; !ok {
			r.tasks[sessionID] = nil
		}
	}
	return sc
}

// Len returns the number of known sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tasks)
}
