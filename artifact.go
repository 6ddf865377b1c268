// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

import (
	"fmt"

	"github.com/google/uuid"
)

// Artifact is a chunk of task output. Artifacts on the same task are
// identified by Index; a chunk with Append set extends the parts of the
// artifact already accumulated at that index, and a chunk with
// LastChunk set finalizes the index so no further chunks are accepted
// for it.
type Artifact struct {
	ArtifactID  string         `json:"artifactId,omitzero"`
	Name        string         `json:"name,omitzero"`
	Description string         `json:"description,omitzero"`
	Parts       []*PartWrapper `json:"parts"`
	Index       int            `json:"index"`
	Append      bool           `json:"append,omitzero"`
	LastChunk   bool           `json:"lastChunk,omitzero"`
	Metadata    map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the Artifact is valid.
func (a *Artifact) Validate() error {
	if a.Index < 0 {
		return fmt.Errorf("artifact index cannot be negative")
	}
	if len(a.Parts) == 0 {
		return fmt.Errorf("artifact must contain at least one part")
	}
	for i, part := range a.Parts {
		if part == nil {
			return fmt.Errorf("artifact part at index %d cannot be nil", i)
		}
		if err := part.Validate(); err != nil {
			return fmt.Errorf("artifact part at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// Clone deep copies the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Parts = cloneParts(a.Parts)
	cp.Metadata = cloneMetadata(a.Metadata)
	return &cp
}

// Text concatenates the text of all text parts of the artifact.
func (a *Artifact) Text() string {
	var out string
	for _, p := range a.Parts {
		out += p.Text()
	}
	return out
}

// NewArtifact creates an Artifact from parts with a generated artifact
// ID. The parts are wrapped for JSON serialization.
func NewArtifact(name string, parts ...Part) (*Artifact, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("artifact must contain at least one part")
	}

	wrapped := make([]*PartWrapper, len(parts))
	for i, part := range parts {
		if part == nil {
			return nil, fmt.Errorf("part at index %d cannot be nil", i)
		}
		if err := part.Validate(); err != nil {
			return nil, fmt.Errorf("part at index %d is invalid: %w", i, err)
		}
		wrapped[i] = NewPartWrapper(part)
	}

	return &Artifact{
		ArtifactID: uuid.NewString(),
		Name:       name,
		Parts:      wrapped,
	}, nil
}

// NewTextArtifact creates an Artifact containing a single text part.
func NewTextArtifact(name, text string) (*Artifact, error) {
	if text == "" {
		return nil, fmt.Errorf("text content cannot be empty")
	}
	return NewArtifact(name, NewTextPart(text))
}

// NewDataArtifact creates an Artifact containing a single data part.
func NewDataArtifact(name string, data map[string]any) (*Artifact, error) {
	if data == nil {
		return nil, fmt.Errorf("data content cannot be nil")
	}
	return NewArtifact(name, NewDataPart(data))
}
