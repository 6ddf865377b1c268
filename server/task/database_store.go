// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/go-a2a/taskcore"
)

// DatabaseStore is a database implementation of [Store] using GORM.
// The caller supplies the *gorm.DB so the store stays driver-agnostic.
type DatabaseStore struct {
	db          *gorm.DB
	tableName   string
	createTable bool
}

var _ Store = (*DatabaseStore)(nil)

// DatabaseStoreConfig holds configuration for DatabaseStore.
type DatabaseStoreConfig struct {
	DB          *gorm.DB
	TableName   string // optional, defaults to "tasks"
	CreateTable bool   // create the table during Initialize
}

// NewDatabaseStore creates a new DatabaseStore.
func NewDatabaseStore(config DatabaseStoreConfig) (*DatabaseStore, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	tableName := config.TableName
	if tableName == "" {
		tableName = "tasks"
	}

	return &DatabaseStore{
		db:          config.DB,
		tableName:   tableName,
		createTable: config.CreateTable,
	}, nil
}

func (s *DatabaseStore) table(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.tableName)
}

// Create persists a new task to the database.
func (s *DatabaseStore) Create(ctx context.Context, task *taskcore.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return NewValidationError(task.ID, err)
	}

	model, err := NewTaskModel(task)
	if err != nil {
		return NewStoreError("create", task.ID, err)
	}

	var count int64
	if err := s.table(ctx).Where("id = ?", task.ID).Count(&count).Error; err != nil {
		return NewStoreError("create", task.ID, err)
	}
	if count > 0 {
		return &taskcore.TaskAlreadyExistsError{TaskID: task.ID}
	}

	if err := s.table(ctx).Create(model).Error; err != nil {
		return NewStoreError("create", task.ID, err)
	}
	return nil
}

// Get retrieves a task by its ID from the database.
func (s *DatabaseStore) Get(ctx context.Context, taskID string) (*taskcore.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	var model TaskModel
	if err := s.table(ctx).Where("id = ?", taskID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &taskcore.TaskNotFoundError{TaskID: taskID}
		}
		return nil, NewStoreError("get", taskID, err)
	}

	task, err := model.ToTask()
	if err != nil {
		return nil, NewStoreError("get", taskID, err)
	}
	return task, nil
}

// Update applies mutate inside a transaction. The compare-and-swap on
// the state column rejects the write with [*taskcore.ConflictError]
// when a concurrent update got there first.
func (s *DatabaseStore) Update(ctx context.Context, taskID string, expected taskcore.TaskState, mutate func(*taskcore.Task) error) (*taskcore.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	var updated *taskcore.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model TaskModel
		if err := tx.Table(s.tableName).Where("id = ?", taskID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &taskcore.TaskNotFoundError{TaskID: taskID}
			}
			return NewStoreError("update", taskID, err)
		}

		task, err := model.ToTask()
		if err != nil {
			return NewStoreError("update", taskID, err)
		}
		if task.Status.State != expected {
			return &taskcore.ConflictError{
				TaskID:   taskID,
				Expected: expected,
				Actual:   task.Status.State,
			}
		}

		if err := mutate(task); err != nil {
			return err
		}
		if err := task.Validate(); err != nil {
			return NewValidationError(taskID, err)
		}
		task.UpdatedAt = time.Now().UTC()

		next, err := NewTaskModel(task)
		if err != nil {
			return NewStoreError("update", taskID, err)
		}
		next.CreatedAt = model.CreatedAt

		// The state predicate re-checks the CAS at write time for
		// backends without transaction-level isolation.
		result := tx.Table(s.tableName).
			Where("id = ? AND state = ?", taskID, string(expected)).
			Select("session_id", "state", "status", "artifacts", "history", "metadata", "updated_at").
			Updates(next)
		if result.Error != nil {
			return NewStoreError("update", taskID, result.Error)
		}
		if result.RowsAffected == 0 {
			return &taskcore.ConflictError{
				TaskID:   taskID,
				Expected: expected,
				Actual:   task.Status.State,
			}
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a task from the database.
func (s *DatabaseStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	result := s.table(ctx).Where("id = ?", taskID).Delete(&TaskModel{})
	if result.Error != nil {
		return NewStoreError("delete", taskID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &taskcore.TaskNotFoundError{TaskID: taskID}
	}
	return nil
}

// List retrieves tasks in creation order, optionally filtered by
// session ID.
func (s *DatabaseStore) List(ctx context.Context, sessionID string, limit, offset int) ([]*taskcore.Task, error) {
	db := s.table(ctx)
	if sessionID != "" {
		db = db.Where("session_id = ?", sessionID)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}

	var models []TaskModel
	if err := db.Order("created_at").Find(&models).Error; err != nil {
		return nil, NewStoreError("list", "", err)
	}

	tasks := make([]*taskcore.Task, len(models))
	for i, model := range models {
		task, err := model.ToTask()
		if err != nil {
			return nil, NewStoreError("list", model.ID, err)
		}
		tasks[i] = task
	}
	return tasks, nil
}

// Count returns the number of stored tasks, optionally filtered by
// session ID.
func (s *DatabaseStore) Count(ctx context.Context, sessionID string) (int64, error) {
	db := s.table(ctx)
	if sessionID != "" {
		db = db.Where("session_id = ?", sessionID)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, NewStoreError("count", "", err)
	}
	return count, nil
}

// Initialize creates the backing table when configured to do so.
func (s *DatabaseStore) Initialize(ctx context.Context) error {
	if !s.createTable {
		return nil
	}
	if err := s.db.WithContext(ctx).Table(s.tableName).AutoMigrate(&TaskModel{}); err != nil {
		return NewStoreError("initialize", "", err)
	}
	return nil
}

// Close shuts down the database store. The underlying connection is
// owned by the caller.
func (s *DatabaseStore) Close(ctx context.Context) error {
	return nil
}
