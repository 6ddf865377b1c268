// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskcore implements the task lifecycle core of the Agent2Agent
// (A2A) protocol: the canonical task state machine, protocol data types,
// and the JSON-RPC 2.0 envelope used on the wire.
//
// Server-side machinery (task manager, stores, streaming, push
// notifications) lives under the server directory.
package taskcore

// Version is the version of the A2A protocol this module implements.
const Version = "0.2.0"
