// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/go-playground/validator/v10"

	"github.com/go-a2a/taskcore"
)

// maxRequestBody bounds the accepted JSON-RPC request size.
const maxRequestBody = 4 << 20

// Handler is the JSON-RPC 2.0 HTTP endpoint. Every method is served on
// a single POST route; tasks/sendSubscribe upgrades the response to a
// Server-Sent Events stream whose frames are JSON-RPC responses sharing
// the originating request id.
type Handler struct {
	manager  *TaskManager
	card     *taskcore.AgentCard
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler serving card as the agent
// descriptor.
func NewHandler(manager *TaskManager, card *taskcore.AgentCard, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		manager:  manager,
		card:     card,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		h.writeResponse(w, taskcore.NewJSONRPCErrorResponse(nil, taskcore.NewJSONParseError()))
		return
	}

	var req taskcore.JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeResponse(w, taskcore.NewJSONRPCErrorResponse(nil, taskcore.NewJSONParseError()))
		return
	}
	if !req.Valid() {
		h.writeResponse(w, taskcore.NewJSONRPCErrorResponse(req.ID, taskcore.NewInvalidRequestError()))
		return
	}

	if req.Method == taskcore.MethodTasksSendSubscribe {
		h.handleSendSubscribe(w, r, &req)
		return
	}
	h.writeResponse(w, h.dispatch(r, &req))
}

// dispatch runs one non-streaming method and builds its response.
func (h *Handler) dispatch(r *http.Request, req *taskcore.JSONRPCRequest) *taskcore.JSONRPCResponse {
	ctx := r.Context()

	var (
		result any
		err    error
	)
	switch req.Method {
	case taskcore.MethodAgentGetCard:
		result = h.card

	case taskcore.MethodTasksSend:
		params, perr := decodeParams[taskcore.TaskSendParams](h, req)
		if perr != nil {
			return taskcore.NewJSONRPCErrorResponse(req.ID, perr)
		}
		result, err = h.manager.OnSendTask(ctx, params)

	case taskcore.MethodTasksGet:
		params, perr := decodeParams[taskcore.TaskQueryParams](h, req)
		if perr != nil {
			return taskcore.NewJSONRPCErrorResponse(req.ID, perr)
		}
		result, err = h.manager.OnGetTask(ctx, params)

	case taskcore.MethodTasksCancel:
		params, perr := decodeParams[taskcore.TaskIDParams](h, req)
		if perr != nil {
			return taskcore.NewJSONRPCErrorResponse(req.ID, perr)
		}
		result, err = h.manager.OnCancelTask(ctx, params)

	case taskcore.MethodTasksPushNotificationSet:
		params, perr := decodeParams[taskcore.TaskPushNotificationConfig](h, req)
		if perr != nil {
			return taskcore.NewJSONRPCErrorResponse(req.ID, perr)
		}
		result, err = h.manager.OnSetTaskPushNotification(ctx, params)

	case taskcore.MethodTasksPushNotificationGet:
		params, perr := decodeParams[taskcore.TaskIDParams](h, req)
		if perr != nil {
			return taskcore.NewJSONRPCErrorResponse(req.ID, perr)
		}
		result, err = h.manager.OnGetTaskPushNotification(ctx, params)

	default:
		return taskcore.NewJSONRPCErrorResponse(req.ID, taskcore.NewMethodNotFoundError(req.Method))
	}

	if err != nil {
		h.logger.WarnContext(ctx, "request failed",
			slog.String("a2a.method", req.Method),
			slog.String("error", err.Error()))
		return taskcore.NewJSONRPCErrorResponse(req.ID, taskcore.NewRPCError(err))
	}
	return taskcore.NewJSONRPCResponse(req.ID, result)
}

// handleSendSubscribe serves tasks/sendSubscribe over SSE. The
// subscription is opened before the initial transition, so the stream
// starts with the working frame and ends with the final terminal frame.
func (h *Handler) handleSendSubscribe(w http.ResponseWriter, r *http.Request, req *taskcore.JSONRPCRequest) {
	params, perr := decodeParams[taskcore.TaskSendParams](h, req)
	if perr != nil {
		h.writeResponse(w, taskcore.NewJSONRPCErrorResponse(req.ID, perr))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeResponse(w, taskcore.NewJSONRPCErrorResponse(req.ID, taskcore.NewInternalError("streaming unsupported")))
		return
	}

	_, sub, err := h.manager.OnSendTaskSubscribe(r.Context(), params)
	if err != nil {
		h.writeResponse(w, taskcore.NewJSONRPCErrorResponse(req.ID, taskcore.NewRPCError(err)))
		return
	}
	defer h.manager.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := h.writeFrame(w, flusher, req.ID, ev); err != nil {
				h.logger.WarnContext(ctx, "dropping stream client",
					slog.String("a2a.task_id", sub.TaskID()),
					slog.String("error", err.Error()))
				return
			}
			if ev.IsFinal() {
				return
			}
		}
	}
}

// writeFrame emits one SSE frame carrying a JSON-RPC response.
func (h *Handler) writeFrame(w io.Writer, flusher http.Flusher, id jsontext.Value, ev taskcore.TaskEvent) error {
	data, err := json.Marshal(taskcore.NewJSONRPCResponse(id, ev))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (h *Handler) writeResponse(w http.ResponseWriter, resp *taskcore.JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.MarshalWrite(w, resp); err != nil {
		h.logger.Warn("writing response failed", slog.String("error", err.Error()))
	}
}

// decodeParams unmarshals and validates the params of one request.
func decodeParams[T any](h *Handler, req *taskcore.JSONRPCRequest) (*T, *taskcore.JSONRPCError) {
	var params T
	if len(req.Params) == 0 {
		return nil, taskcore.NewInvalidParamsError("params are required")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, taskcore.NewInvalidParamsError(err.Error())
	}
	if err := h.validate.Struct(&params); err != nil {
		return nil, taskcore.NewInvalidParamsError(err.Error())
	}
	return &params, nil
}
