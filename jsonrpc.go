// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

import (
	"errors"

	"github.com/go-json-experiment/json/jsontext"
)

// JSON-RPC method names.
const (
	// MethodAgentGetCard is the method name for fetching the agent card.
	MethodAgentGetCard = "agent/getCard"
	// MethodTasksSend is the method name for creating or continuing a task.
	MethodTasksSend = "tasks/send"
	// MethodTasksSendSubscribe is the method name for creating a task and
	// streaming its updates.
	MethodTasksSendSubscribe = "tasks/sendSubscribe"
	// MethodTasksGet is the method name for fetching a task snapshot.
	MethodTasksGet = "tasks/get"
	// MethodTasksCancel is the method name for canceling a task.
	MethodTasksCancel = "tasks/cancel"
	// MethodTasksPushNotificationSet is the method name for setting the
	// push notification configuration of a task.
	MethodTasksPushNotificationSet = "tasks/pushNotification/set"
	// MethodTasksPushNotificationGet is the method name for reading the
	// push notification configuration of a task.
	MethodTasksPushNotificationGet = "tasks/pushNotification/get"
)

// JSONRPCVersion is the protocol version carried on every message.
const JSONRPCVersion = "2.0"

// JSONRPCRequest is a JSON-RPC 2.0 request. ID and Params are kept as
// raw JSON so the ID round-trips verbatim regardless of its type and
// params decode only once the method is known.
type JSONRPCRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      jsontext.Value `json:"id,omitzero"`
	Method  string         `json:"method"`
	Params  jsontext.Value `json:"params,omitzero"`
}

// Valid reports whether the request carries the mandatory JSON-RPC 2.0
// envelope fields.
func (r *JSONRPCRequest) Valid() bool {
	return r.JSONRPC == JSONRPCVersion && r.Method != ""
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitzero"`
}

// Error implements the error interface.
func (e *JSONRPCError) Error() string {
	return e.Message
}

// JSONRPCResponse is a JSON-RPC 2.0 response. Exactly one of Result and
// Error is set.
type JSONRPCResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      jsontext.Value `json:"id"`
	Result  any            `json:"result,omitzero"`
	Error   *JSONRPCError  `json:"error,omitzero"`
}

// NewJSONRPCResponse creates a success response echoing id.
func NewJSONRPCResponse(id jsontext.Value, result any) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// NewJSONRPCErrorResponse creates an error response echoing id.
func NewJSONRPCErrorResponse(id jsontext.Value, rpcErr *JSONRPCError) *JSONRPCResponse {
	if len(id) == 0 {
		id = jsontext.Value("null")
	}
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   rpcErr,
	}
}

// NewJSONParseError creates the error object for unparsable JSON.
func NewJSONParseError() *JSONRPCError {
	return &JSONRPCError{Code: ErrorCodeJSONParse, Message: "Parse error"}
}

// NewInvalidRequestError creates the error object for a malformed
// request envelope.
func NewInvalidRequestError() *JSONRPCError {
	return &JSONRPCError{Code: ErrorCodeInvalidRequest, Message: "Invalid request"}
}

// NewMethodNotFoundError creates the error object for an unknown
// method.
func NewMethodNotFoundError(method string) *JSONRPCError {
	return &JSONRPCError{Code: ErrorCodeMethodNotFound, Message: "Method not found", Data: method}
}

// NewInvalidParamsError creates the error object for invalid method
// parameters.
func NewInvalidParamsError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: ErrorCodeInvalidParams, Message: "Invalid parameters", Data: detail}
}

// NewInternalError creates the error object for a server-side failure.
func NewInternalError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: ErrorCodeInternalError, Message: "Internal error", Data: detail}
}

// NewRPCError converts a domain error into the JSON-RPC error object
// the protocol prescribes for it. Errors without a protocol code map to
// an internal error carrying the error text as data.
func NewRPCError(err error) *JSONRPCError {
	var coded Error
	if errors.As(err, &coded) {
		return &JSONRPCError{
			Code:    coded.Code(),
			Message: coded.Message(),
			Data:    err.Error(),
		}
	}

	var rpcErr *JSONRPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	return NewInternalError(err.Error())
}
