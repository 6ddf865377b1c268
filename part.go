// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

import (
	"fmt"

	"github.com/go-json-experiment/json"
)

// Part is one segment of a message or artifact payload. A part is a
// text part, a data part, or a file part, discriminated by its kind.
type Part interface {
	GetKind() string
	GetMetadata() map[string]any
	Validate() error
}

// Part kinds.
const (
	PartKindText = "text"
	PartKindData = "data"
	PartKindFile = "file"
)

// TextPart is a plain text segment.
type TextPart struct {
	Kind     string         `json:"kind"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// NewTextPart creates a TextPart holding text.
func NewTextPart(text string) *TextPart {
	return &TextPart{Kind: PartKindText, Text: text}
}

// GetKind returns the part kind.
func (p *TextPart) GetKind() string { return p.Kind }

// GetMetadata returns the part metadata.
func (p *TextPart) GetMetadata() map[string]any { return p.Metadata }

// Validate ensures the TextPart is valid.
func (p *TextPart) Validate() error {
	if p.Kind != PartKindText {
		return fmt.Errorf("text part kind must be %q, got %q", PartKindText, p.Kind)
	}
	if p.Text == "" {
		return fmt.Errorf("text part text cannot be empty")
	}
	return nil
}

// DataPart is a structured data segment.
type DataPart struct {
	Kind     string         `json:"kind"`
	Data     map[string]any `json:"data"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// NewDataPart creates a DataPart holding data.
func NewDataPart(data map[string]any) *DataPart {
	return &DataPart{Kind: PartKindData, Data: data}
}

// GetKind returns the part kind.
func (p *DataPart) GetKind() string { return p.Kind }

// GetMetadata returns the part metadata.
func (p *DataPart) GetMetadata() map[string]any { return p.Metadata }

// Validate ensures the DataPart is valid.
func (p *DataPart) Validate() error {
	if p.Kind != PartKindData {
		return fmt.Errorf("data part kind must be %q, got %q", PartKindData, p.Kind)
	}
	if p.Data == nil {
		return fmt.Errorf("data part data cannot be nil")
	}
	return nil
}

// FileContent is the payload of a file part. Exactly one of Bytes or
// URI must be set.
type FileContent struct {
	Name     string `json:"name,omitzero"`
	MimeType string `json:"mimeType,omitzero"`
	Bytes    []byte `json:"bytes,omitzero"`
	URI      string `json:"uri,omitzero"`
}

// Validate ensures the FileContent is valid.
func (f *FileContent) Validate() error {
	if len(f.Bytes) == 0 && f.URI == "" {
		return fmt.Errorf("file content must set bytes or uri")
	}
	if len(f.Bytes) > 0 && f.URI != "" {
		return fmt.Errorf("file content cannot set both bytes and uri")
	}
	return nil
}

// FilePart is a file segment carried inline or by reference.
type FilePart struct {
	Kind     string         `json:"kind"`
	File     *FileContent   `json:"file"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// NewFilePart creates a FilePart holding file.
func NewFilePart(file *FileContent) *FilePart {
	return &FilePart{Kind: PartKindFile, File: file}
}

// GetKind returns the part kind.
func (p *FilePart) GetKind() string { return p.Kind }

// GetMetadata returns the part metadata.
func (p *FilePart) GetMetadata() map[string]any { return p.Metadata }

// Validate ensures the FilePart is valid.
func (p *FilePart) Validate() error {
	if p.Kind != PartKindFile {
		return fmt.Errorf("file part kind must be %q, got %q", PartKindFile, p.Kind)
	}
	if p.File == nil {
		return fmt.Errorf("file part file cannot be nil")
	}
	return p.File.Validate()
}

// PartWrapper wraps a Part so the kind-discriminated union survives
// JSON round trips.
type PartWrapper struct {
	part Part
}

// NewPartWrapper creates a PartWrapper around part.
func NewPartWrapper(part Part) *PartWrapper {
	return &PartWrapper{part: part}
}

// GetPart returns the wrapped part.
func (pw *PartWrapper) GetPart() Part { return pw.part }

// MarshalJSON implements json.Marshaler.
func (pw PartWrapper) MarshalJSON() ([]byte, error) {
	if pw.part == nil {
		return nil, fmt.Errorf("cannot marshal nil part")
	}
	return json.Marshal(pw.part)
}

// UnmarshalJSON implements json.Unmarshaler. The concrete part type is
// selected by the kind field.
func (pw *PartWrapper) UnmarshalJSON(data []byte) error {
	var kind struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &kind); err != nil {
		return fmt.Errorf("unmarshal part kind: %w", err)
	}

	switch kind.Kind {
	case PartKindText:
		var p TextPart
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("unmarshal text part: %w", err)
		}
		pw.part = &p
	case PartKindData:
		var p DataPart
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("unmarshal data part: %w", err)
		}
		pw.part = &p
	case PartKindFile:
		var p FilePart
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("unmarshal file part: %w", err)
		}
		pw.part = &p
	default:
		return fmt.Errorf("unknown part kind: %q", kind.Kind)
	}
	return nil
}

// Validate validates the wrapped part.
func (pw *PartWrapper) Validate() error {
	if pw.part == nil {
		return fmt.Errorf("part wrapper cannot contain nil part")
	}
	return pw.part.Validate()
}

// Text returns the text of a wrapped TextPart, or the empty string for
// any other part kind.
func (pw *PartWrapper) Text() string {
	if tp, ok := pw.part.(*TextPart); ok {
		return tp.Text
	}
	return ""
}

// clonePart deep copies a wrapped part.
func (pw *PartWrapper) clone() *PartWrapper {
	if pw == nil || pw.part == nil {
		return nil
	}
	switch p := pw.part.(type) {
	case *TextPart:
		cp := *p
		cp.Metadata = cloneMetadata(p.Metadata)
		return &PartWrapper{part: &cp}
	case *DataPart:
		cp := *p
		cp.Data = cloneMetadata(p.Data)
		cp.Metadata = cloneMetadata(p.Metadata)
		return &PartWrapper{part: &cp}
	case *FilePart:
		cp := *p
		if p.File != nil {
			f := *p.File
			f.Bytes = append([]byte(nil), p.File.Bytes...)
			cp.File = &f
		}
		cp.Metadata = cloneMetadata(p.Metadata)
		return &PartWrapper{part: &cp}
	default:
		return &PartWrapper{part: pw.part}
	}
}

// cloneMetadata shallow copies a metadata map. Values are shared; the
// protocol treats metadata values as immutable once attached.
func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// cloneParts deep copies a part slice.
func cloneParts(parts []*PartWrapper) []*PartWrapper {
	if parts == nil {
		return nil
	}
	out := make([]*PartWrapper, len(parts))
	for i, p := range parts {
		out[i] = p.clone()
	}
	return out
}
