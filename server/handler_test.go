// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"

	"github.com/go-a2a/taskcore"
)

func testCard() *taskcore.AgentCard {
	return &taskcore.AgentCard{
		Name:    "Currency Agent",
		URL:     "http://localhost:8080",
		Version: "0.2.0",
		Capabilities: taskcore.AgentCapabilities{
			Streaming: true,
		},
		Skills: []taskcore.AgentSkill{
			{ID: "convert_currency", Name: "Currency conversion"},
		},
	}
}

func newTestServer(t *testing.T, processor TaskProcessor) (*httptest.Server, *TaskManager) {
	t.Helper()

	m := newTestManager(t, processor)
	srv, err := NewServer(ServerConfig{
		Addr:    ":0",
		Manager: m,
		Card:    testCard(),
		Logger:  slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, m
}

func postRPC(t *testing.T, url, body string) *taskcore.JSONRPCResponse {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var rpcResp taskcore.JSONRPCResponse
	if err := json.UnmarshalRead(resp.Body, &rpcResp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return &rpcResp
}

func TestHandlerEnvelopeErrors(t *testing.T) {
	ts, _ := newTestServer(t, completingProcessor("done"))

	tests := map[string]struct {
		body     string
		wantCode int
	}{
		"malformed json": {
			body:     `{"jsonrpc": "2.0",`,
			wantCode: taskcore.ErrorCodeJSONParse,
		},
		"wrong version": {
			body:     `{"jsonrpc": "1.0", "id": 1, "method": "tasks/get"}`,
			wantCode: taskcore.ErrorCodeInvalidRequest,
		},
		"missing method": {
			body:     `{"jsonrpc": "2.0", "id": 1}`,
			wantCode: taskcore.ErrorCodeInvalidRequest,
		},
		"unknown method": {
			body:     `{"jsonrpc": "2.0", "id": 1, "method": "tasks/nope"}`,
			wantCode: taskcore.ErrorCodeMethodNotFound,
		},
		"missing params": {
			body:     `{"jsonrpc": "2.0", "id": 1, "method": "tasks/get"}`,
			wantCode: taskcore.ErrorCodeInvalidParams,
		},
		"params fail validation": {
			body:     `{"jsonrpc": "2.0", "id": 1, "method": "tasks/get", "params": {"id": ""}}`,
			wantCode: taskcore.ErrorCodeInvalidParams,
		},
		"unknown task": {
			body:     `{"jsonrpc": "2.0", "id": 1, "method": "tasks/get", "params": {"id": "missing"}}`,
			wantCode: taskcore.ErrorCodeTaskNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			resp := postRPC(t, ts.URL, tt.body)
			if resp.Error == nil {
				t.Fatalf("got success, want error code %d", tt.wantCode)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("error code = %d, want %d", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestHandlerEchoesRequestID(t *testing.T) {
	ts, _ := newTestServer(t, completingProcessor("done"))

	tests := map[string]string{
		"number id": `{"jsonrpc": "2.0", "id": 42, "method": "agent/getCard"}`,
		"string id": `{"jsonrpc": "2.0", "id": "req-1", "method": "agent/getCard"}`,
	}
	wantIDs := map[string]string{
		"number id": "42",
		"string id": `"req-1"`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			resp := postRPC(t, ts.URL, body)
			if resp.Error != nil {
				t.Fatalf("unexpected error: %v", resp.Error)
			}
			if got := string(resp.ID); got != wantIDs[name] {
				t.Errorf("response id = %s, want %s", got, wantIDs[name])
			}
		})
	}
}

func TestHandlerAgentGetCard(t *testing.T) {
	ts, _ := newTestServer(t, completingProcessor("done"))

	resp := postRPC(t, ts.URL, `{"jsonrpc": "2.0", "id": 1, "method": "agent/getCard"}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-encoding result: %v", err)
	}
	var card taskcore.AgentCard
	if err := json.Unmarshal(raw, &card); err != nil {
		t.Fatalf("decoding card: %v", err)
	}
	if card.Name != "Currency Agent" {
		t.Errorf("card name = %q, want %q", card.Name, "Currency Agent")
	}
	if !card.Capabilities.Streaming {
		t.Error("card does not advertise streaming")
	}
}

func TestHandlerWellKnownAgentCard(t *testing.T) {
	ts, _ := newTestServer(t, completingProcessor("done"))

	resp, err := http.Get(ts.URL + AgentCardPath)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var card taskcore.AgentCard
	if err := json.UnmarshalRead(resp.Body, &card); err != nil {
		t.Fatalf("decoding card: %v", err)
	}
	if card.Name != "Currency Agent" {
		t.Errorf("card name = %q, want %q", card.Name, "Currency Agent")
	}
}

func TestHandlerTasksSendLifecycle(t *testing.T) {
	ts, m := newTestServer(t, completingProcessor("100 USD = 92.00 EUR"))

	resp := postRPC(t, ts.URL, `{"jsonrpc": "2.0", "id": 1, "method": "tasks/send", "params": {"id": "task-1", "message": {"role": "user", "parts": [{"kind": "text", "text": "Convert 100 USD to EUR"}]}}}`)
	if resp.Error != nil {
		t.Fatalf("tasks/send error: %v", resp.Error)
	}
	m.Wait()

	resp = postRPC(t, ts.URL, `{"jsonrpc": "2.0", "id": 2, "method": "tasks/get", "params": {"id": "task-1"}}`)
	if resp.Error != nil {
		t.Fatalf("tasks/get error: %v", resp.Error)
	}

	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-encoding result: %v", err)
	}
	var got taskcore.Task
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decoding task: %v", err)
	}
	if got.Status.State != taskcore.TaskStateCompleted {
		t.Errorf("state = %q, want %q", got.Status.State, taskcore.TaskStateCompleted)
	}
	if len(got.Artifacts) != 1 || got.Artifacts[0].Text() != "100 USD = 92.00 EUR" {
		t.Errorf("artifacts = %+v, want one with conversion result", got.Artifacts)
	}
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, completingProcessor("done"))

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPut, ts.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHandlerSendSubscribeStreamsFrames(t *testing.T) {
	ts, m := newTestServer(t, completingProcessor("100 USD = 92.00 EUR"))

	body := `{"jsonrpc": "2.0", "id": "stream-1", "method": "tasks/sendSubscribe", "params": {"id": "task-1", "message": {"role": "user", "parts": [{"kind": "text", "text": "Convert 100 USD to EUR"}]}}}`
	resp, err := http.Post(ts.URL, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", got)
	}

	var frames []*taskcore.JSONRPCResponse
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Bytes()
		data, ok := bytes.CutPrefix(line, []byte("data: "))
		if !ok {
			continue
		}
		var frame taskcore.JSONRPCResponse
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("decoding frame: %v", err)
		}
		frames = append(frames, &frame)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	m.Wait()

	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for i, frame := range frames {
		if string(frame.ID) != `"stream-1"` {
			t.Errorf("frame %d id = %s, want \"stream-1\"", i, frame.ID)
		}
		if frame.Error != nil {
			t.Errorf("frame %d carries error: %v", i, frame.Error)
		}
	}

	type statusResult struct {
		Status taskcore.TaskStatus `json:"status"`
		Final  bool                `json:"final"`
	}
	type artifactResult struct {
		Artifact *taskcore.Artifact `json:"artifact"`
	}

	decodeResult := func(i int, dst any) {
		t.Helper()
		raw, err := json.Marshal(frames[i].Result)
		if err != nil {
			t.Fatalf("re-encoding frame %d: %v", i, err)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			t.Fatalf("decoding frame %d: %v", i, err)
		}
	}

	var first statusResult
	decodeResult(0, &first)
	if first.Status.State != taskcore.TaskStateWorking || first.Final {
		t.Errorf("frame 0 = %+v, want non-final working status", first)
	}

	var second artifactResult
	decodeResult(1, &second)
	if second.Artifact == nil || second.Artifact.Index != 0 {
		t.Errorf("frame 1 = %+v, want artifact at index 0", second)
	}

	var third statusResult
	decodeResult(2, &third)
	if third.Status.State != taskcore.TaskStateCompleted || !third.Final {
		t.Errorf("frame 2 = %+v, want final completed status", third)
	}
}

func TestHandlerSendSubscribeInvalidParams(t *testing.T) {
	ts, _ := newTestServer(t, completingProcessor("done"))

	resp := postRPC(t, ts.URL, `{"jsonrpc": "2.0", "id": 1, "method": "tasks/sendSubscribe", "params": {"id": "task-1"}}`)
	if resp.Error == nil || resp.Error.Code != taskcore.ErrorCodeInvalidParams {
		t.Errorf("error = %v, want code %d", resp.Error, taskcore.ErrorCodeInvalidParams)
	}
}
