// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/go-a2a/taskcore"
)

// PushConfigStore keeps the per-task push notification configurations.
// All operations are safe for concurrent use.
type PushConfigStore struct {
	mu      sync.RWMutex
	configs map[string]*taskcore.PushNotificationConfig
}

// NewPushConfigStore creates a new PushConfigStore.
func NewPushConfigStore() *PushConfigStore {
	return &PushConfigStore{
		configs: make(map[string]*taskcore.PushNotificationConfig),
	}
}

// Set saves the push notification configuration for a task, replacing
// any previous one. The webhook URL must be absolute http or https.
func (s *PushConfigStore) Set(ctx context.Context, taskID string, config *taskcore.PushNotificationConfig) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if config == nil {
		return fmt.Errorf("push notification config cannot be nil")
	}
	if err := validateWebhookURL(config.URL); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[taskID] = config.Clone()
	return nil
}

// Get retrieves the push notification configuration of a task. It
// returns [*taskcore.TaskNotFoundError] when no configuration exists
// for the task.
func (s *PushConfigStore) Get(ctx context.Context, taskID string) (*taskcore.PushNotificationConfig, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	config, exists := s.configs[taskID]
	if !exists {
		return nil, &taskcore.TaskNotFoundError{TaskID: taskID}
	}

	return config.Clone(), nil
}

// Delete removes the push notification configuration of a task.
func (s *PushConfigStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.configs[taskID]; !exists {
		return &taskcore.TaskNotFoundError{TaskID: taskID}
	}
	delete(s.configs, taskID)
	return nil
}

// Exists reports whether a configuration is registered for the task.
func (s *PushConfigStore) Exists(ctx context.Context, taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.configs[taskID]
	return exists
}

// Len returns the number of stored configurations.
func (s *PushConfigStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.configs)
}

func validateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook URL must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("webhook URL must be absolute")
	}
	return nil
}
