// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

// TaskSendParams are the parameters of tasks/send and
// tasks/sendSubscribe. When ID is empty the server generates one.
type TaskSendParams struct {
	ID               string                  `json:"id,omitzero"`
	SessionID        string                  `json:"sessionId,omitzero"`
	Message          *Message                `json:"message" validate:"required"`
	PushNotification *PushNotificationConfig `json:"pushNotification,omitzero"`
	Metadata         map[string]any          `json:"metadata,omitzero"`
}

// TaskQueryParams are the parameters of tasks/get.
type TaskQueryParams struct {
	ID            string `json:"id" validate:"required"`
	SessionID     string `json:"sessionId,omitzero"`
	HistoryLength int    `json:"historyLength,omitzero" validate:"gte=0"`
}

// TaskIDParams are the parameters of methods addressing a task by ID,
// such as tasks/cancel and tasks/pushNotification/get.
type TaskIDParams struct {
	ID        string         `json:"id" validate:"required"`
	SessionID string         `json:"sessionId,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
}

// PushNotificationConfig is the webhook configuration for push
// notifications of one task.
type PushNotificationConfig struct {
	URL     string            `json:"url" validate:"required,url"`
	Token   string            `json:"token,omitzero"`
	Headers map[string]string `json:"headers,omitzero"`
}

// Clone deep copies the config.
func (c *PushNotificationConfig) Clone() *PushNotificationConfig {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Headers != nil {
		cp.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			cp.Headers[k] = v
		}
	}
	return &cp
}

// TaskPushNotificationConfig binds a push notification configuration to
// a task. It is both the parameter of tasks/pushNotification/set and
// the result of both push notification methods.
type TaskPushNotificationConfig struct {
	ID                     string                  `json:"id" validate:"required"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig" validate:"required"`
}
