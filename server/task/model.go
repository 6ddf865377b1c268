// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/go-a2a/taskcore"
)

// TaskModel is the GORM persistence model for a task. The nested
// protocol structures are stored as JSON columns; ID, SessionID, and
// State are lifted into dedicated columns so they can be indexed and
// used in compare-and-swap updates.
type TaskModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	SessionID string    `gorm:"index;size:64"`
	State     string    `gorm:"index;size:32"`
	Status    []byte    `gorm:"type:json"`
	Artifacts []byte    `gorm:"type:json"`
	History   []byte    `gorm:"type:json"`
	Metadata  []byte    `gorm:"type:json"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the default table name.
func (TaskModel) TableName() string {
	return "tasks"
}

// NewTaskModel converts a task into its persistence model.
func NewTaskModel(t *taskcore.Task) (*TaskModel, error) {
	if t == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}

	status, err := json.Marshal(t.Status)
	if err != nil {
		return nil, fmt.Errorf("marshal task status: %w", err)
	}

	m := &TaskModel{
		ID:        t.ID,
		SessionID: t.SessionID,
		State:     string(t.Status.State),
		Status:    status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}

	if t.Artifacts != nil {
		if m.Artifacts, err = json.Marshal(t.Artifacts); err != nil {
			return nil, fmt.Errorf("marshal task artifacts: %w", err)
		}
	}
	if t.History != nil {
		if m.History, err = json.Marshal(t.History); err != nil {
			return nil, fmt.Errorf("marshal task history: %w", err)
		}
	}
	if t.Metadata != nil {
		if m.Metadata, err = json.Marshal(t.Metadata); err != nil {
			return nil, fmt.Errorf("marshal task metadata: %w", err)
		}
	}

	return m, nil
}

// ToTask converts the persistence model back into a task.
func (m *TaskModel) ToTask() (*taskcore.Task, error) {
	t := &taskcore.Task{
		ID:        m.ID,
		SessionID: m.SessionID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if err := json.Unmarshal(m.Status, &t.Status); err != nil {
		return nil, fmt.Errorf("unmarshal task status: %w", err)
	}
	if len(m.Artifacts) > 0 {
		if err := json.Unmarshal(m.Artifacts, &t.Artifacts); err != nil {
			return nil, fmt.Errorf("unmarshal task artifacts: %w", err)
		}
	}
	if len(m.History) > 0 {
		if err := json.Unmarshal(m.History, &t.History); err != nil {
			return nil, fmt.Errorf("unmarshal task history: %w", err)
		}
	}
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal task metadata: %w", err)
		}
	}

	return t, nil
}
