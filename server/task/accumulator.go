// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"sort"

	"github.com/go-a2a/taskcore"
)

// ApplyArtifact folds one artifact chunk into the task's artifact list.
// Chunks are grouped by index: the first chunk at an index establishes
// the artifact (an Append flag on it is ignored), a chunk with Append
// set extends the parts of an existing entry, and a chunk
// with LastChunk set finalizes the index. The artifact list stays
// sorted by index regardless of chunk arrival order.
//
// ApplyArtifact mutates the task in place; callers run it inside a
// [Store] update so the fold and the persistence are one atomic step.
func ApplyArtifact(t *taskcore.Task, chunk *taskcore.Artifact) error {
	if chunk == nil {
		return &taskcore.ArtifactError{TaskID: t.ID, Reason: "chunk cannot be nil"}
	}
	if err := chunk.Validate(); err != nil {
		return &taskcore.ArtifactError{TaskID: t.ID, Index: chunk.Index, Reason: err.Error()}
	}

	existing := findArtifact(t, chunk.Index)

	switch {
	case chunk.Append && existing != nil:
		if existing.LastChunk {
			return &taskcore.ArtifactError{
				TaskID: t.ID,
				Index:  chunk.Index,
				Reason: "artifact already finalized",
			}
		}
		existing.Parts = append(existing.Parts, chunk.Clone().Parts...)
		if chunk.LastChunk {
			existing.LastChunk = true
		}

	case existing != nil:
		if existing.LastChunk {
			return &taskcore.ArtifactError{
				TaskID: t.ID,
				Index:  chunk.Index,
				Reason: "artifact already finalized",
			}
		}
		// A non-append chunk for a known index replaces the content
		// accumulated so far.
		*existing = *chunk.Clone()

	default:
		// An append chunk for an index with no entry yet creates the
		// entry as if Append were unset.
		created := chunk.Clone()
		created.Append = false
		t.Artifacts = append(t.Artifacts, created)
		sort.SliceStable(t.Artifacts, func(i, j int) bool {
			return t.Artifacts[i].Index < t.Artifacts[j].Index
		})
	}

	return nil
}

func findArtifact(t *taskcore.Task, index int) *taskcore.Artifact {
	for _, a := range t.Artifacts {
		if a.Index == index {
			return a
		}
	}
	return nil
}
