// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

import (
	"fmt"
	"strings"
)

// Role identifies the sender of a message.
type Role string

// Role constants for message senders.
const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one conversational turn between the caller and the agent.
type Message struct {
	Role     Role           `json:"role"`
	Parts    []*PartWrapper `json:"parts"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the Message is valid.
func (m *Message) Validate() error {
	if m.Role != RoleAgent && m.Role != RoleUser {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message must contain at least one part")
	}
	for i, part := range m.Parts {
		if part == nil {
			return fmt.Errorf("message part at index %d cannot be nil", i)
		}
		if err := part.Validate(); err != nil {
			return fmt.Errorf("message part at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// Clone deep copies the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Parts = cloneParts(m.Parts)
	cp.Metadata = cloneMetadata(m.Metadata)
	return &cp
}

// Text joins the text of all text parts of the message, separated by
// newlines.
func (m *Message) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if t := p.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n")
}

// NewUserTextMessage creates a user message containing a single text
// part.
func NewUserTextMessage(text string) *Message {
	return &Message{
		Role:  RoleUser,
		Parts: []*PartWrapper{NewPartWrapper(NewTextPart(text))},
	}
}

// NewAgentTextMessage creates an agent message containing a single text
// part.
func NewAgentTextMessage(text string) *Message {
	return &Message{
		Role:  RoleAgent,
		Parts: []*PartWrapper{NewPartWrapper(NewTextPart(text))},
	}
}
