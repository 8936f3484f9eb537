// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

// GitStatus is one of the two-letter unmerged codes git status
// --porcelain reports for a conflicted path during a cherry-pick.
type GitStatus string

// The unmerged codes the replay engine's conflict introspection
// recognizes (spec §4.F).
const (
	StatusBothDeleted   GitStatus = "DD"
	StatusAddedByUs     GitStatus = "AU"
	StatusDeletedByThem GitStatus = "UD"
	StatusAddedByThem   GitStatus = "UA"
	StatusDeletedByUs   GitStatus = "DU"
	StatusBothAdded     GitStatus = "AA"
	StatusBothModified  GitStatus = "UU"
)

// FileConflict describes one unmerged path left behind by a failed
// cherry-pick: its status code, the working-tree content git left for
// inspection, the pre-image content from the replayed parent's tree
// (when one exists), and the part of the conflicting commit's own diff
// (from its original first parent to itself) that touches the path.
type FileConflict struct {
	Status       GitStatus
	Path         string
	WorkingTree  []byte // content left in the working tree, if any
	OriginalBlob []byte // pre-image from the replayed parent's tree, if any
	Diff         string
}

// ResolutionKind selects how a conflicted path is resolved before the
// replay engine resumes.
type ResolutionKind int

const (
	// ResolutionDelete removes the path from the index.
	ResolutionDelete ResolutionKind = iota
	// ResolutionAdd stages the working-tree content git already left
	// behind, unmodified.
	ResolutionAdd
	// ResolutionAddCustom stages caller-supplied content in place of
	// whatever git left behind.
	ResolutionAddCustom
)

// Resolution is the user's choice for one conflicted path.
type Resolution struct {
	Kind    ResolutionKind
	Content []byte // used only when Kind == ResolutionAddCustom
}

// ConflictingCommit returns the commit whose replay is currently
// blocked on unresolved conflicts, or nil if none.
func (e *Editable) ConflictingCommit() *Commit {
	return e.conflicting
}

// SetConflictingCommit records the commit the replay engine is blocked
// on. Called by the replay engine, not by front-end code.
func (e *Editable) SetConflictingCommit(c *Commit) {
	e.conflicting = c
}

// UnmergedFiles returns the conflict introspection recorded for the
// current conflicting commit.
func (e *Editable) UnmergedFiles() map[string]FileConflict {
	out := make(map[string]FileConflict, len(e.unmergedFiles))
	for k, v := range e.unmergedFiles {
		out[k] = v
	}
	return out
}

// SetUnmergedFiles replaces the recorded conflict introspection. Called
// by the replay engine after a cherry-pick fails.
func (e *Editable) SetUnmergedFiles(files map[string]FileConflict) {
	e.unmergedFiles = make(map[string]FileConflict, len(files))
	for k, v := range files {
		e.unmergedFiles[k] = v
	}
}

// SetResolution records the user's chosen resolution for one conflicted
// path of the current conflicting commit.
func (e *Editable) SetResolution(path string, r Resolution) {
	if e.conflicting == nil {
		return
	}
	m := e.solutions[e.conflicting]
	if m == nil {
		m = make(map[string]Resolution)
		e.solutions[e.conflicting] = m
	}
	m[path] = r
}

// Resolution returns the recorded resolution for path under the current
// conflicting commit, if any.
func (e *Editable) Resolution(path string) (Resolution, bool) {
	if e.conflicting == nil {
		return Resolution{}, false
	}
	r, ok := e.solutions[e.conflicting][path]
	return r, ok
}

// ResolutionsFor returns every recorded resolution for commit c, however
// it came to be the conflicting commit. Used by the replay engine to
// decide whether a failed cherry-pick can be resolved automatically.
func (e *Editable) ResolutionsFor(c *Commit) (map[string]Resolution, bool) {
	m, ok := e.solutions[c]
	return m, ok
}

// SetConflictSolutions replaces the whole recorded resolution set.
func (e *Editable) SetConflictSolutions(solutions map[*Commit]map[string]Resolution) {
	e.solutions = make(map[*Commit]map[string]Resolution, len(solutions))
	for c, m := range solutions {
		cp := make(map[string]Resolution, len(m))
		for k, v := range m {
			cp[k] = v
		}
		e.solutions[c] = cp
	}
}

// ClearConflict drops the recorded conflict state once the replay engine
// has applied resolutions and moved on.
func (e *Editable) ClearConflict() {
	e.conflicting = nil
	e.unmergedFiles = nil
}
