// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements a JSON-RPC client for the A2A task
// lifecycle surface, including the tasks/sendSubscribe event stream.
package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/taskcore"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "go-a2a/taskcore-client " + taskcore.Version
)

// Client talks to one A2A server.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *slog.Logger
	tracer     trace.Tracer
}

// ClientConfig holds configuration for a [Client].
type ClientConfig struct {
	// URL is the server endpoint. Required.
	URL string

	// HTTPClient defaults to a client with a 30s timeout. Streaming
	// calls strip the timeout, so a shared client is safe.
	HTTPClient *http.Client

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Tracer defaults to the global provider.
	Tracer trace.Tracer
}

// NewClient creates a new Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("server URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer("github.com/go-a2a/taskcore/client")
	}

	return &Client{
		httpClient: httpClient,
		url:        config.URL,
		logger:     logger,
		tracer:     tracer,
	}, nil
}

// GetCard fetches the agent card via agent/getCard.
func (c *Client) GetCard(ctx context.Context) (*taskcore.AgentCard, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client.GetCard")
	defer span.End()

	var card taskcore.AgentCard
	if err := c.call(ctx, taskcore.MethodAgentGetCard, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// SendTask creates or continues a task and returns the snapshot taken
// after the initial transition.
func (c *Client) SendTask(ctx context.Context, params *taskcore.TaskSendParams) (*taskcore.Task, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client.SendTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	var t taskcore.Task
	if err := c.call(ctx, taskcore.MethodTasksSend, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTask fetches a task snapshot.
func (c *Client) GetTask(ctx context.Context, params *taskcore.TaskQueryParams) (*taskcore.Task, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client.GetTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	var t taskcore.Task
	if err := c.call(ctx, taskcore.MethodTasksGet, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CancelTask cancels a task and returns the canceled snapshot.
func (c *Client) CancelTask(ctx context.Context, params *taskcore.TaskIDParams) (*taskcore.Task, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client.CancelTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	var t taskcore.Task
	if err := c.call(ctx, taskcore.MethodTasksCancel, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SetPushNotification registers a webhook for a task.
func (c *Client) SetPushNotification(ctx context.Context, config *taskcore.TaskPushNotificationConfig) (*taskcore.TaskPushNotificationConfig, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client.SetPushNotification",
		trace.WithAttributes(attribute.String("a2a.task_id", config.ID)))
	defer span.End()

	var stored taskcore.TaskPushNotificationConfig
	if err := c.call(ctx, taskcore.MethodTasksPushNotificationSet, config, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetPushNotification reads the webhook registered for a task.
func (c *Client) GetPushNotification(ctx context.Context, params *taskcore.TaskIDParams) (*taskcore.TaskPushNotificationConfig, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client.GetPushNotification",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	var stored taskcore.TaskPushNotificationConfig
	if err := c.call(ctx, taskcore.MethodTasksPushNotificationGet, params, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// SendTaskSubscribe creates or continues a task and streams its update
// frames. The returned channel carries the frames in server order and
// closes after the final frame, on stream error, or when ctx is done.
func (c *Client) SendTaskSubscribe(ctx context.Context, params *taskcore.TaskSendParams) (<-chan taskcore.TaskEvent, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client.SendTaskSubscribe",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	body, err := encodeRequest(taskcore.MethodTasksSendSubscribe, params)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// Streams outlive the client timeout.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("request failed with status %s", resp.Status)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		// The server rejected the call with a plain JSON-RPC error.
		defer resp.Body.Close()
		var rpcResp taskcore.JSONRPCResponse
		if err := json.UnmarshalRead(resp.Body, &rpcResp); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		if rpcResp.Error != nil {
			return nil, rpcResp.Error
		}
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}

	events := make(chan taskcore.TaskEvent)
	go c.readStream(ctx, resp, events)
	return events, nil
}

// readStream decodes SSE frames until the final frame or a failure.
func (c *Client) readStream(ctx context.Context, resp *http.Response, events chan<- taskcore.TaskEvent) {
	defer close(events)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		data, ok := bytes.CutPrefix(scanner.Bytes(), []byte("data: "))
		if !ok {
			continue
		}
		ev, err := decodeFrame(data)
		if err != nil {
			c.logger.WarnContext(ctx, "dropping malformed stream frame", slog.String("error", err.Error()))
			return
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
		if ev.IsFinal() {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.WarnContext(ctx, "event stream closed", slog.String("error", err.Error()))
	}
}

// decodeFrame converts one streamed JSON-RPC response into its event.
func decodeFrame(data []byte) (taskcore.TaskEvent, error) {
	var frame struct {
		JSONRPC string                 `json:"jsonrpc"`
		ID      jsontext.Value         `json:"id"`
		Result  jsontext.Value         `json:"result"`
		Error   *taskcore.JSONRPCError `json:"error"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	if frame.Error != nil {
		return nil, frame.Error
	}

	var probe struct {
		Artifact jsontext.Value `json:"artifact"`
	}
	if err := json.Unmarshal(frame.Result, &probe); err != nil {
		return nil, fmt.Errorf("decoding frame result: %w", err)
	}

	if len(probe.Artifact) > 0 {
		var ev taskcore.TaskArtifactUpdateEvent
		if err := json.Unmarshal(frame.Result, &ev); err != nil {
			return nil, fmt.Errorf("decoding artifact frame: %w", err)
		}
		return &ev, nil
	}
	var ev taskcore.TaskStatusUpdateEvent
	if err := json.Unmarshal(frame.Result, &ev); err != nil {
		return nil, fmt.Errorf("decoding status frame: %w", err)
	}
	return &ev, nil
}

// call performs one JSON-RPC round trip and decodes result into out.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	body, err := encodeRequest(method, params)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %s", resp.Status)
	}

	var rpcResp struct {
		JSONRPC string                 `json:"jsonrpc"`
		ID      jsontext.Value         `json:"id"`
		Result  jsontext.Value         `json:"result"`
		Error   *taskcore.JSONRPCError `json:"error"`
	}
	if err := json.UnmarshalRead(resp.Body, &rpcResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

func encodeRequest(method string, params any) ([]byte, error) {
	req := struct {
		JSONRPC string `json:"jsonrpc"`
		ID      string `json:"id"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitzero"`
	}{
		JSONRPC: taskcore.JSONRPCVersion,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return data, nil
}
