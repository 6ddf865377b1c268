// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-a2a/taskcore"
	"github.com/go-a2a/taskcore/server"
)

func newTestClient(t *testing.T, processor server.TaskProcessor) (*Client, *server.TaskManager) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	m, err := server.NewTaskManager(server.TaskManagerConfig{
		Processor: processor,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("NewTaskManager: %v", err)
	}
	srv, err := server.NewServer(server.ServerConfig{
		Addr:    ":0",
		Manager: m,
		Card: &taskcore.AgentCard{
			Name:         "Test Agent",
			URL:          "http://localhost:8080",
			Version:      "0.2.0",
			Capabilities: taskcore.AgentCapabilities{Streaming: true},
		},
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := NewClient(ClientConfig{URL: ts.URL, Logger: logger})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, m
}

func echoProcessor(t *testing.T) server.ProcessorFunc {
	t.Helper()
	return func(ctx context.Context, req *server.ProcessRequest, updater *server.TaskUpdater) error {
		artifact, err := taskcore.NewTextArtifact("echo", req.Message.Text())
		if err != nil {
			return err
		}
		artifact.LastChunk = true
		if err := updater.AddArtifact(ctx, artifact); err != nil {
			return err
		}
		return updater.Complete(ctx)
	}
}

func TestClientGetCard(t *testing.T) {
	c, _ := newTestClient(t, echoProcessor(t))

	card, err := c.GetCard(context.Background())
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if card.Name != "Test Agent" {
		t.Errorf("card name = %q, want Test Agent", card.Name)
	}
}

func TestClientSendAndGetTask(t *testing.T) {
	c, m := newTestClient(t, echoProcessor(t))
	ctx := context.Background()

	sent, err := c.SendTask(ctx, &taskcore.TaskSendParams{
		ID:      "task-1",
		Message: taskcore.NewUserTextMessage("ping"),
	})
	if err != nil {
		t.Fatalf("SendTask: %v", err)
	}
	if sent.Status.State != taskcore.TaskStateWorking {
		t.Errorf("send snapshot state = %q, want %q", sent.Status.State, taskcore.TaskStateWorking)
	}
	m.Wait()

	got, err := c.GetTask(ctx, &taskcore.TaskQueryParams{ID: "task-1"})
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status.State != taskcore.TaskStateCompleted {
		t.Fatalf("state = %q, want %q", got.Status.State, taskcore.TaskStateCompleted)
	}
	if len(got.Artifacts) != 1 || got.Artifacts[0].Text() != "ping" {
		t.Errorf("artifacts = %+v, want one echoing ping", got.Artifacts)
	}
}

func TestClientErrorMapping(t *testing.T) {
	c, _ := newTestClient(t, echoProcessor(t))
	ctx := context.Background()

	_, err := c.GetTask(ctx, &taskcore.TaskQueryParams{ID: "missing"})
	var rpcErr *taskcore.JSONRPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("GetTask error = %v, want JSONRPCError", err)
	}
	if rpcErr.Code != taskcore.ErrorCodeTaskNotFound {
		t.Errorf("error code = %d, want %d", rpcErr.Code, taskcore.ErrorCodeTaskNotFound)
	}

	_, err = c.GetPushNotification(ctx, &taskcore.TaskIDParams{ID: "missing"})
	if !errors.As(err, &rpcErr) {
		t.Fatalf("GetPushNotification error = %v, want JSONRPCError", err)
	}
	if rpcErr.Code != taskcore.ErrorCodePushUnsupported {
		t.Errorf("error code = %d, want %d", rpcErr.Code, taskcore.ErrorCodePushUnsupported)
	}
}

func TestClientSendTaskSubscribe(t *testing.T) {
	c, m := newTestClient(t, echoProcessor(t))
	ctx := context.Background()

	events, err := c.SendTaskSubscribe(ctx, &taskcore.TaskSendParams{
		ID:      "task-1",
		Message: taskcore.NewUserTextMessage("stream me"),
	})
	if err != nil {
		t.Fatalf("SendTaskSubscribe: %v", err)
	}

	var frames []taskcore.TaskEvent
	for ev := range events {
		frames = append(frames, ev)
	}
	m.Wait()

	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	first, ok := frames[0].(*taskcore.TaskStatusUpdateEvent)
	if !ok || first.Status.State != taskcore.TaskStateWorking {
		t.Errorf("frame 0 = %#v, want working status", frames[0])
	}
	second, ok := frames[1].(*taskcore.TaskArtifactUpdateEvent)
	if !ok || second.Artifact.Text() != "stream me" {
		t.Errorf("frame 1 = %#v, want echoed artifact", frames[1])
	}
	third, ok := frames[2].(*taskcore.TaskStatusUpdateEvent)
	if !ok || third.Status.State != taskcore.TaskStateCompleted || !third.Final {
		t.Errorf("frame 2 = %#v, want final completed status", frames[2])
	}
}

func TestClientSendTaskSubscribeInvalidParams(t *testing.T) {
	c, _ := newTestClient(t, echoProcessor(t))

	_, err := c.SendTaskSubscribe(context.Background(), &taskcore.TaskSendParams{ID: "task-1"})
	var rpcErr *taskcore.JSONRPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error = %v, want JSONRPCError", err)
	}
	if rpcErr.Code != taskcore.ErrorCodeInvalidParams {
		t.Errorf("error code = %d, want %d", rpcErr.Code, taskcore.ErrorCodeInvalidParams)
	}
}
