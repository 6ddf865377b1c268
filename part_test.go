// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

import (
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
)

func TestPartWrapperUnmarshalJSON(t *testing.T) {
	tests := map[string]struct {
		data     string
		wantKind string
		wantErr  bool
	}{
		"text part": {
			data:     `{"kind":"text","text":"100 USD = 92.00 EUR"}`,
			wantKind: PartKindText,
		},
		"data part": {
			data:     `{"kind":"data","data":{"amount":100}}`,
			wantKind: PartKindData,
		},
		"file part": {
			data:     `{"kind":"file","file":{"name":"report.pdf","uri":"https://example.com/report.pdf"}}`,
			wantKind: PartKindFile,
		},
		"unknown kind": {
			data:    `{"kind":"audio","uri":"https://example.com/a.wav"}`,
			wantErr: true,
		},
		"missing kind": {
			data:    `{"text":"hello"}`,
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var pw PartWrapper
			err := json.Unmarshal([]byte(tt.data), &pw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := pw.GetPart().GetKind(); got != tt.wantKind {
				t.Errorf("GetKind() = %q, want %q", got, tt.wantKind)
			}
		})
	}
}

func TestPartWrapperRoundTrip(t *testing.T) {
	orig := NewPartWrapper(&TextPart{
		Kind: PartKindText,
		Text: "1 USD = 151.72 JPY",
		Metadata: map[string]any{
			"source": "exchange",
		},
	})

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got PartWrapper
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(orig.GetPart(), got.GetPart()); diff != "" {
		t.Errorf("part mismatch (-want +got):\n%s", diff)
	}
}

func TestFileContentValidate(t *testing.T) {
	tests := map[string]struct {
		file    FileContent
		wantErr bool
	}{
		"uri only":           {file: FileContent{URI: "https://example.com/f"}},
		"bytes only":         {file: FileContent{Bytes: []byte("payload")}},
		"neither":            {file: FileContent{Name: "f"}, wantErr: true},
		"both bytes and uri": {file: FileContent{Bytes: []byte("x"), URI: "https://example.com/f"}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.file.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageText(t *testing.T) {
	msg := &Message{
		Role: RoleUser,
		Parts: []*PartWrapper{
			NewPartWrapper(NewTextPart("Convert 100 USD to EUR")),
			NewPartWrapper(NewDataPart(map[string]any{"ignored": true})),
			NewPartWrapper(NewTextPart("please")),
		},
	}
	if got, want := msg.Text(), "Convert 100 USD to EUR\nplease"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}
