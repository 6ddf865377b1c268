// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the task lifecycle behind the A2A JSON-RPC
// surface: task creation and state transitions, artifact accumulation,
// per-task update streaming, and terminal-state push notifications.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/taskcore"
	"github.com/go-a2a/taskcore/server/event"
	"github.com/go-a2a/taskcore/server/push"
	"github.com/go-a2a/taskcore/server/task"
)

// TaskManager coordinates the task lifecycle. All writes funnel through
// the store's compare-and-swap update, so concurrent sends, processor
// updates, and cancellations never produce a lost update or an illegal
// transition. Applied updates fan out to stream subscribers through the
// broker, and terminal transitions trigger the push notifier.
type TaskManager struct {
	store       task.Store
	broker      *event.Broker
	notifier    *push.Notifier
	pushConfigs *task.PushConfigStore
	sessions    *task.SessionRegistry
	processor   TaskProcessor

	logger *slog.Logger
	tracer trace.Tracer

	wg sync.WaitGroup
}

// TaskManagerConfig holds configuration for a [TaskManager].
type TaskManagerConfig struct {
	// Processor produces task results. Required.
	Processor TaskProcessor

	// Store persists task records. Defaults to an in-memory store.
	Store task.Store

	// Broker multicasts updates to stream subscribers. Defaults to a
	// broker with the default per-subscriber buffer.
	Broker *event.Broker

	// Notifier delivers push notifications on terminal states. When
	// nil, the tasks/pushNotification methods report unsupported.
	Notifier *push.Notifier

	// PushConfigs is the webhook registry shared with the notifier.
	// Required when Notifier is set.
	PushConfigs *task.PushConfigStore

	// Sessions groups related tasks. Defaults to a fresh registry.
	Sessions *task.SessionRegistry

	// Logger receives lifecycle logs. Defaults to slog.Default.
	Logger *slog.Logger

	// Tracer traces manager operations. Defaults to the global
	// provider.
	Tracer trace.Tracer
}

// NewTaskManager creates a new TaskManager.
func NewTaskManager(config TaskManagerConfig) (*TaskManager, error) {
	if config.Processor == nil {
		return nil, errors.New("task processor cannot be nil")
	}
	if config.Notifier != nil && config.PushConfigs == nil {
		return nil, errors.New("push config store cannot be nil when a notifier is set")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := config.Store
	if store == nil {
		store = task.NewInMemoryStore()
	}
	broker := config.Broker
	if broker == nil {
		broker = event.NewBroker(0, logger)
	}
	sessions := config.Sessions
	if sessions == nil {
		sessions = task.NewSessionRegistry()
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer("github.com/go-a2a/taskcore/server")
	}

	return &TaskManager{
		store:       store,
		broker:      broker,
		notifier:    config.Notifier,
		pushConfigs: config.PushConfigs,
		sessions:    sessions,
		processor:   config.Processor,
		logger:      logger,
		tracer:      tracer,
	}, nil
}

// OnSendTask handles tasks/send. A fresh task id creates the task,
// records the created to working transition, and hands the task to the
// processor on its own goroutine; the working snapshot is returned
// without waiting for completion. Re-sending an id whose task paused in
// input-required resumes it with the new message. Re-sending any other
// existing id is an idempotent read of the current snapshot.
func (m *TaskManager) OnSendTask(ctx context.Context, params *taskcore.TaskSendParams) (*taskcore.Task, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.OnSendTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	t, _, err := m.send(ctx, params, false)
	return t, err
}

// OnSendTaskSubscribe handles tasks/sendSubscribe. It behaves like
// [TaskManager.OnSendTask] but additionally returns a live subscription
// opened before the initial transition, so the subscriber observes
// every frame from the working status on.
func (m *TaskManager) OnSendTaskSubscribe(ctx context.Context, params *taskcore.TaskSendParams) (*taskcore.Task, *event.Subscription, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.OnSendTaskSubscribe",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	return m.send(ctx, params, true)
}

// send implements both send variants. When subscribe is true a
// subscription is opened before any transition is applied, so the
// returned handle observes every frame of the task.
func (m *TaskManager) send(ctx context.Context, params *taskcore.TaskSendParams, subscribe bool) (*taskcore.Task, *event.Subscription, error) {
	if params.Message == nil {
		return nil, nil, fmt.Errorf("message cannot be nil")
	}

	if params.PushNotification != nil {
		if !m.pushSupported() {
			return nil, nil, &taskcore.PushUnsupportedError{}
		}
	}

	existing, err := m.store.Get(ctx, params.ID)
	switch {
	case err == nil:
		return m.resume(ctx, existing, params, subscribe)
	case errors.As(err, new(*taskcore.TaskNotFoundError)):
		// fresh task
	default:
		return nil, nil, err
	}

	t := taskcore.NewTask(params.ID, params.SessionID, params.Message)
	if err := m.store.Create(ctx, t); err != nil {
		// A racing send won the creation; fall back to the resume path.
		if errors.As(err, new(*taskcore.TaskAlreadyExistsError)) {
			existing, getErr := m.store.Get(ctx, t.ID)
			if getErr != nil {
				return nil, nil, getErr
			}
			return m.resume(ctx, existing, params, subscribe)
		}
		return nil, nil, err
	}

	if t.SessionID != "" {
		m.sessions.Attach(t.SessionID, t.ID)
	}
	if params.PushNotification != nil {
		if err := m.pushConfigs.Set(ctx, t.ID, params.PushNotification); err != nil {
			return nil, nil, err
		}
	}

	m.logger.InfoContext(ctx, "task created",
		slog.String("a2a.task_id", t.ID),
		slog.String("a2a.session_id", t.SessionID))

	var sub *event.Subscription
	if subscribe {
		sub = m.broker.Subscribe(t.ID)
	}

	updated, err := m.applyStatus(ctx, t.ID, taskcore.TaskStateWorking, nil, false)
	if err != nil {
		if sub != nil {
			m.broker.Unsubscribe(sub)
		}
		return nil, nil, err
	}

	m.startProcessor(ctx, updated, params.Message)
	return updated, sub, nil
}

// resume handles tasks/send against an existing task id.
func (m *TaskManager) resume(ctx context.Context, existing *taskcore.Task, params *taskcore.TaskSendParams, subscribe bool) (*taskcore.Task, *event.Subscription, error) {
	var sub *event.Subscription
	if subscribe {
		sub = m.broker.Subscribe(existing.ID)
	}

	if existing.Status.State != taskcore.TaskStateInputRequired {
		// Idempotent retrieval. A terminal or still-working task is
		// returned as is; the new message is not applied.
		if sub != nil && existing.Terminal() {
			m.broker.Finish(&taskcore.TaskStatusUpdateEvent{
				ID:     existing.ID,
				Status: existing.Status.Clone(),
				Final:  true,
			})
		}
		return existing, sub, nil
	}

	updated, err := m.store.Update(ctx, existing.ID, taskcore.TaskStateInputRequired, func(t *taskcore.Task) error {
		if err := taskcore.Transition(t.Status.State, taskcore.TaskStateWorking); err != nil {
			return err
		}
		t.History = append(t.History, params.Message.Clone())
		t.Status = taskcore.TaskStatus{
			State:     taskcore.TaskStateWorking,
			Timestamp: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		if sub != nil {
			m.broker.Unsubscribe(sub)
		}
		return nil, nil, err
	}

	m.logger.InfoContext(ctx, "task resumed",
		slog.String("a2a.task_id", updated.ID),
		slog.String("a2a.state", string(updated.Status.State)))

	m.broker.Publish(&taskcore.TaskStatusUpdateEvent{
		ID:     updated.ID,
		Status: updated.Status.Clone(),
	})

	m.startProcessor(ctx, updated, params.Message)
	return updated, sub, nil
}

// OnGetTask handles tasks/get. HistoryLength, when positive, trims the
// returned history to the most recent messages.
func (m *TaskManager) OnGetTask(ctx context.Context, params *taskcore.TaskQueryParams) (*taskcore.Task, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.OnGetTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	if params.SessionID != "" && !m.sessions.Exists(params.SessionID) {
		return nil, &taskcore.SessionNotFoundError{SessionID: params.SessionID}
	}

	t, err := m.store.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if params.HistoryLength > 0 && len(t.History) > params.HistoryLength {
		t.History = t.History[len(t.History)-params.HistoryLength:]
	}
	return t, nil
}

// OnCancelTask handles tasks/cancel. Cancellation is cooperative: the
// stored state flips to canceled immediately and any update the
// processor applies afterwards is rejected by the transition table.
func (m *TaskManager) OnCancelTask(ctx context.Context, params *taskcore.TaskIDParams) (*taskcore.Task, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.OnCancelTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	if params.SessionID != "" && !m.sessions.Exists(params.SessionID) {
		return nil, &taskcore.SessionNotFoundError{SessionID: params.SessionID}
	}

	updated, err := m.applyStatus(ctx, params.ID, taskcore.TaskStateCanceled, nil, true)
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "task canceled", slog.String("a2a.task_id", updated.ID))
	return updated, nil
}

// OnSetTaskPushNotification handles tasks/pushNotification/set.
func (m *TaskManager) OnSetTaskPushNotification(ctx context.Context, config *taskcore.TaskPushNotificationConfig) (*taskcore.TaskPushNotificationConfig, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.OnSetTaskPushNotification",
		trace.WithAttributes(attribute.String("a2a.task_id", config.ID)))
	defer span.End()

	if !m.pushSupported() {
		return nil, &taskcore.PushUnsupportedError{}
	}
	if _, err := m.store.Get(ctx, config.ID); err != nil {
		return nil, err
	}
	if err := m.pushConfigs.Set(ctx, config.ID, config.PushNotificationConfig); err != nil {
		return nil, err
	}

	stored, err := m.pushConfigs.Get(ctx, config.ID)
	if err != nil {
		return nil, err
	}
	return &taskcore.TaskPushNotificationConfig{ID: config.ID, PushNotificationConfig: stored}, nil
}

// OnGetTaskPushNotification handles tasks/pushNotification/get.
func (m *TaskManager) OnGetTaskPushNotification(ctx context.Context, params *taskcore.TaskIDParams) (*taskcore.TaskPushNotificationConfig, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.OnGetTaskPushNotification",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	if !m.pushSupported() {
		return nil, &taskcore.PushUnsupportedError{}
	}
	if params.SessionID != "" && !m.sessions.Exists(params.SessionID) {
		return nil, &taskcore.SessionNotFoundError{SessionID: params.SessionID}
	}
	config, err := m.pushConfigs.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	return &taskcore.TaskPushNotificationConfig{ID: params.ID, PushNotificationConfig: config}, nil
}

// Subscribe opens a raw update subscription for a task without sending
// a message, for resubscribe-style consumers. Subscribing to a task
// already in a terminal state yields a single final status frame so the
// stream stays finite.
func (m *TaskManager) Subscribe(ctx context.Context, taskID string) (*event.Subscription, error) {
	t, err := m.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	sub := m.broker.Subscribe(taskID)
	if t.Terminal() {
		m.broker.Finish(&taskcore.TaskStatusUpdateEvent{
			ID:     t.ID,
			Status: t.Status.Clone(),
			Final:  true,
		})
	}
	return sub, nil
}

// Unsubscribe releases a subscription obtained from Subscribe or
// OnSendTaskSubscribe.
func (m *TaskManager) Unsubscribe(sub *event.Subscription) {
	m.broker.Unsubscribe(sub)
}

// Wait blocks until all processor goroutines have returned. Intended
// for shutdown and tests.
func (m *TaskManager) Wait() {
	m.wg.Wait()
}

func (m *TaskManager) pushSupported() bool {
	return m.notifier.Supported() && m.pushConfigs != nil
}

// applyStatus validates and records a state transition, publishes the
// matching stream frame, and on terminal states closes the task's topic
// and fires the push notifier.
func (m *TaskManager) applyStatus(ctx context.Context, taskID string, next taskcore.TaskState, message *taskcore.Message, final bool) (*taskcore.Task, error) {
	current, err := m.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	updated, err := m.store.Update(ctx, taskID, current.Status.State, func(t *taskcore.Task) error {
		if err := taskcore.Transition(t.Status.State, next); err != nil {
			return err
		}
		t.Status = taskcore.TaskStatus{
			State:     next,
			Message:   message,
			Timestamp: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "task state changed",
		slog.String("a2a.task_id", taskID),
		slog.String("a2a.state", string(next)))

	ev := &taskcore.TaskStatusUpdateEvent{
		ID:     taskID,
		Status: updated.Status.Clone(),
		Final:  final || updated.Terminal(),
	}
	if updated.Terminal() {
		m.broker.Finish(ev)
		m.notify(ctx, updated)
	} else {
		m.broker.Publish(ev)
	}
	return updated, nil
}

// refreshStatus replaces the status message of a working task without
// a state transition and publishes the matching stream frame.
func (m *TaskManager) refreshStatus(ctx context.Context, taskID string, message *taskcore.Message) (*taskcore.Task, error) {
	updated, err := m.store.Update(ctx, taskID, taskcore.TaskStateWorking, func(t *taskcore.Task) error {
		t.Status = taskcore.TaskStatus{
			State:     taskcore.TaskStateWorking,
			Message:   message,
			Timestamp: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.broker.Publish(&taskcore.TaskStatusUpdateEvent{
		ID:     taskID,
		Status: updated.Status.Clone(),
	})
	return updated, nil
}

// applyArtifact merges one artifact chunk into the stored task and
// publishes the matching stream frame.
func (m *TaskManager) applyArtifact(ctx context.Context, taskID string, artifact *taskcore.Artifact) error {
	current, err := m.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if current.Terminal() {
		return &taskcore.TaskNotUpdatableError{TaskID: taskID, State: current.Status.State}
	}

	if _, err := m.store.Update(ctx, taskID, current.Status.State, func(t *taskcore.Task) error {
		return task.ApplyArtifact(t, artifact)
	}); err != nil {
		return err
	}

	m.broker.Publish(&taskcore.TaskArtifactUpdateEvent{
		ID:       taskID,
		Artifact: artifact.Clone(),
	})
	return nil
}

// notify fires the push notifier for a terminal snapshot without
// blocking the caller.
func (m *TaskManager) notify(ctx context.Context, t *taskcore.Task) {
	if m.notifier == nil {
		return
	}
	snapshot := t.Clone()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = m.notifier.NotifyTask(context.WithoutCancel(ctx), snapshot)
	}()
}

// startProcessor runs the processor for one send on its own goroutine.
// The processor pushes updates through the updater; if it returns
// without reaching a terminal or paused state, or returns an error, the
// task is failed.
func (m *TaskManager) startProcessor(ctx context.Context, t *taskcore.Task, message *taskcore.Message) {
	req := &ProcessRequest{
		TaskID:    t.ID,
		SessionID: t.SessionID,
		Message:   message.Clone(),
		History:   t.Clone().History,
	}
	if t.SessionID != "" {
		req.Session = m.sessions.Context(t.SessionID)
	}
	updater := &TaskUpdater{manager: m, taskID: t.ID}

	pctx := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.logger.ErrorContext(pctx, "task processor panicked",
					slog.String("a2a.task_id", t.ID),
					slog.Any("panic", r))
				m.failQuietly(pctx, t.ID, fmt.Sprintf("processor panic: %v", r))
			}
		}()

		err := m.processor.Process(pctx, req, updater)
		if err != nil {
			m.logger.WarnContext(pctx, "task processor failed",
				slog.String("a2a.task_id", t.ID),
				slog.String("error", err.Error()))
			m.failQuietly(pctx, t.ID, err.Error())
			return
		}
		if !updater.Done() {
			m.failQuietly(pctx, t.ID, "processor returned without reaching a terminal state")
		}
	}()
}

// failQuietly moves a task to failed if it is still updatable. Races
// with cancellation are expected and swallowed.
func (m *TaskManager) failQuietly(ctx context.Context, taskID, reason string) {
	if _, err := m.applyStatus(ctx, taskID, taskcore.TaskStateFailed, taskcore.NewAgentTextMessage(reason), true); err != nil {
		m.logger.DebugContext(ctx, "skipping failure transition",
			slog.String("a2a.task_id", taskID),
			slog.String("error", err.Error()))
	}
}
