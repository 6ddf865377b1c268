// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"testing"

	"github.com/go-a2a/taskcore"
)

func chunk(t *testing.T, index int, text string, appendParts, last bool) *taskcore.Artifact {
	t.Helper()
	a, err := taskcore.NewTextArtifact("result", text)
	if err != nil {
		t.Fatalf("NewTextArtifact() error = %v", err)
	}
	a.Index = index
	a.Append = appendParts
	a.LastChunk = last
	return a
}

func TestApplyArtifact(t *testing.T) {
	t.Run("first chunk establishes artifact", func(t *testing.T) {
		task := newTestTask("task-1", "")
		if err := ApplyArtifact(task, chunk(t, 0, "100 USD ", false, false)); err != nil {
			t.Fatalf("ApplyArtifact() error = %v", err)
		}
		if len(task.Artifacts) != 1 {
			t.Fatalf("artifacts = %d, want 1", len(task.Artifacts))
		}
		if got := task.Artifacts[0].Text(); got != "100 USD " {
			t.Errorf("artifact text = %q, want %q", got, "100 USD ")
		}
	})

	t.Run("append extends parts", func(t *testing.T) {
		task := newTestTask("task-1", "")
		if err := ApplyArtifact(task, chunk(t, 0, "100 USD ", false, false)); err != nil {
			t.Fatalf("ApplyArtifact() error = %v", err)
		}
		if err := ApplyArtifact(task, chunk(t, 0, "= 92.00 EUR", true, true)); err != nil {
			t.Fatalf("ApplyArtifact() append error = %v", err)
		}
		if len(task.Artifacts) != 1 {
			t.Fatalf("artifacts = %d, want 1", len(task.Artifacts))
		}
		if got := task.Artifacts[0].Text(); got != "100 USD = 92.00 EUR" {
			t.Errorf("artifact text = %q, want %q", got, "100 USD = 92.00 EUR")
		}
		if !task.Artifacts[0].LastChunk {
			t.Error("artifact not finalized after lastChunk")
		}
	})

	t.Run("append to unknown index creates entry", func(t *testing.T) {
		task := newTestTask("task-1", "")
		if err := ApplyArtifact(task, chunk(t, 3, "first", true, false)); err != nil {
			t.Fatalf("ApplyArtifact() error = %v", err)
		}
		if len(task.Artifacts) != 1 {
			t.Fatalf("artifacts = %d, want 1", len(task.Artifacts))
		}
		if task.Artifacts[0].Append {
			t.Error("created artifact kept the Append flag set")
		}
		if got := task.Artifacts[0].Text(); got != "first" {
			t.Errorf("artifact text = %q, want %q", got, "first")
		}
		if err := ApplyArtifact(task, chunk(t, 3, " second", true, true)); err != nil {
			t.Fatalf("ApplyArtifact() append error = %v", err)
		}
		if got := task.Artifacts[0].Text(); got != "first second" {
			t.Errorf("artifact text = %q, want %q", got, "first second")
		}
	})

	t.Run("chunk after finalize rejected", func(t *testing.T) {
		task := newTestTask("task-1", "")
		if err := ApplyArtifact(task, chunk(t, 0, "done", false, true)); err != nil {
			t.Fatalf("ApplyArtifact() error = %v", err)
		}

		var artifactErr *taskcore.ArtifactError
		if err := ApplyArtifact(task, chunk(t, 0, "more", true, false)); !errors.As(err, &artifactErr) {
			t.Errorf("append after finalize error = %v, want *ArtifactError", err)
		}
		if err := ApplyArtifact(task, chunk(t, 0, "replace", false, false)); !errors.As(err, &artifactErr) {
			t.Errorf("replace after finalize error = %v, want *ArtifactError", err)
		}
	})

	t.Run("replace resets accumulated parts", func(t *testing.T) {
		task := newTestTask("task-1", "")
		if err := ApplyArtifact(task, chunk(t, 0, "draft", false, false)); err != nil {
			t.Fatalf("ApplyArtifact() error = %v", err)
		}
		if err := ApplyArtifact(task, chunk(t, 0, "final", false, true)); err != nil {
			t.Fatalf("ApplyArtifact() replace error = %v", err)
		}
		if got := task.Artifacts[0].Text(); got != "final" {
			t.Errorf("artifact text = %q, want %q", got, "final")
		}
	})

	t.Run("artifacts stay ordered by index", func(t *testing.T) {
		task := newTestTask("task-1", "")
		for _, idx := range []int{2, 0, 1} {
			if err := ApplyArtifact(task, chunk(t, idx, "part", false, false)); err != nil {
				t.Fatalf("ApplyArtifact(index=%d) error = %v", idx, err)
			}
		}
		for i, a := range task.Artifacts {
			if a.Index != i {
				t.Errorf("artifact at position %d has index %d", i, a.Index)
			}
		}
	})

	t.Run("chunk without parts rejected", func(t *testing.T) {
		task := newTestTask("task-1", "")
		var artifactErr *taskcore.ArtifactError
		if err := ApplyArtifact(task, &taskcore.Artifact{Index: 0}); !errors.As(err, &artifactErr) {
			t.Errorf("ApplyArtifact() error = %v, want *ArtifactError", err)
		}
	})
}
