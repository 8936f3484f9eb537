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

import (
	"errors"
	"reflect"

	"gitbuster.dev/gitbuster/internal/gitshell"
)

// ErrInvalidIndex is returned for an out-of-range row.
var ErrInvalidIndex = errors.New("model: invalid row index")

// Editable is a writable overlay on top of a Base snapshot (or, for a
// scratch/"fake" model with no underlying branch, on top of nothing at
// all). Every mutation is expressed as a per-field modification, a
// deletion flag, or a row insertion/removal, layered over the Base's
// original values; the Base itself never changes. Field edits,
// deletions, insertions and branch renames are undoable through History;
// Reset is not recorded there.
type Editable struct {
	adapter *gitshell.Git
	base    *Base // nil for a fake/scratch model
	graph   *Graph
	fake    bool

	commits []*Commit // current row order, newest first

	modifications map[*Commit]map[Column]interface{}
	deleted       map[*Commit]bool

	mergeMode     bool
	newBranchName string

	history *History

	conflicting    *Commit
	unmergedFiles  map[string]FileConflict
	solutions      map[*Commit]map[string]Resolution

	frontierValid bool
	frontierCache []*Commit
}

// NewEditable builds an overlay on top of base.
func NewEditable(adapter *gitshell.Git, base *Base, mergeMode bool) *Editable {
	return &Editable{
		adapter:       adapter,
		base:          base,
		graph:         base.graph,
		commits:       base.Commits(),
		modifications: make(map[*Commit]map[Column]interface{}),
		deleted:       make(map[*Commit]bool),
		newBranchName: string(base.Branch().Branch()),
		mergeMode:     mergeMode,
		history:       newHistory(),
		solutions:     make(map[*Commit]map[string]Resolution),
	}
}

// NewFakeEditable builds a scratch overlay with no underlying branch, a
// single synthetic top commit standing in for "the history doesn't exist
// yet". Used for previewing a rewrite plan before a Base is available.
func NewFakeEditable(adapter *gitshell.Git, mergeMode bool) *Editable {
	g := newGraph()
	top := g.newDummy()
	return &Editable{
		adapter:       adapter,
		graph:         g,
		fake:          true,
		commits:       []*Commit{top},
		modifications: map[*Commit]map[Column]interface{}{top: {}},
		deleted:       make(map[*Commit]bool),
		mergeMode:     mergeMode,
		history:       newHistory(),
		solutions:     make(map[*Commit]map[string]Resolution),
	}
}

// Len returns the current number of rows, including deleted ones (a
// deleted row keeps its place; only undoing an insertion removes a row).
func (e *Editable) Len() int { return len(e.commits) }

// Commits returns the current row order. The returned slice is owned by
// the caller.
func (e *Editable) Commits() []*Commit {
	return append([]*Commit(nil), e.commits...)
}

// CommitAt returns the commit at row, or nil if row is out of range.
func (e *Editable) CommitAt(row int) *Commit {
	if row < 0 || row >= len(e.commits) {
		return nil
	}
	return e.commits[row]
}

// IsDeleted reports whether the commit at row is marked for removal.
func (e *Editable) IsDeleted(row int) bool {
	c := e.CommitAt(row)
	return c != nil && e.deleted[c]
}

// Deleted reports whether c is marked for removal.
func (e *Editable) Deleted(c *Commit) bool {
	return e.deleted[c]
}

// FirstRealCommit returns the first (newest) non-Dummy commit in row
// order, or nil if every row is a DummyCommit.
func (e *Editable) FirstRealCommit() *Commit {
	for _, c := range e.commits {
		if !c.IsDummy() {
			return c
		}
	}
	return nil
}

// FieldData is the replay engine's read path into the overlay: the
// current, edit-aware value of one field of a commit it already holds a
// pointer to (as opposed to Data, which is addressed by row).
func (e *Editable) FieldData(c *Commit, col Column) (interface{}, error) {
	return e.fieldData(c, col)
}

// NewBranchName returns the branch name the rewrite will be written to.
func (e *Editable) NewBranchName() string { return e.newBranchName }

// StartHistoryEvent opens a new undo/redo group, truncating any redo
// tail. Front ends call this once per user-visible operation (a single
// field edit, one commit removal, a multi-row paste) so Undo/Redo
// operate on whole operations rather than individual field writes.
func (e *Editable) StartHistoryEvent() { e.history.StartEvent() }

// Undo reverses the most recent history event. It reports whether there
// was anything to undo.
func (e *Editable) Undo() bool { return e.history.Undo(e) }

// Redo reapplies the next history event. It reports whether there was
// anything to redo.
func (e *Editable) Redo() bool { return e.history.Redo(e) }

// Reset discards every field modification and deletion, without touching
// row insertions, undo/redo history, or the pending branch name. It is a
// pure "discard all edits" action, equivalent to the original
// erase_modifications.
func (e *Editable) Reset() {
	e.modifications = make(map[*Commit]map[Column]interface{})
	e.deleted = make(map[*Commit]bool)
	e.invalidateFrontier()
}

// Data returns the effective (overlay-aware) value of one field of the
// commit at row.
func (e *Editable) Data(row int, col Column) (interface{}, error) {
	c := e.CommitAt(row)
	if c == nil {
		return nil, ErrInvalidIndex
	}
	return e.fieldData(c, col)
}

func (e *Editable) fieldData(c *Commit, col Column) (interface{}, error) {
	if mods, ok := e.modifications[c]; ok {
		if v, ok := mods[col]; ok {
			return v, nil
		}
	}
	if c.dummy {
		return zeroValue(col), nil
	}
	return originalData(c, col)
}

func zeroValue(col Column) interface{} {
	switch col {
	case ColAuthoredDate, ColCommittedDate:
		return TimeValue{}
	case ColParents, ColChildren:
		return []*Commit(nil)
	default:
		return ""
	}
}

// originalValue returns the unedited (pre-overlay) value of col for c. It
// falls back to the zero value for a DummyCommit, which has no original.
func (e *Editable) originalValue(c *Commit, col Column) interface{} {
	if c.dummy {
		return zeroValue(col)
	}
	v, _ := originalData(c, col)
	return v
}

// SetData edits one field of the commit at row, recording a single undo
// step. If the overlay is in merge_mode and col is one half of a paired
// field (author/committer date, name, or email), the paired field is
// updated to the same value as part of the same undo step.
func (e *Editable) SetData(row int, col Column, value interface{}) error {
	if row < 0 || row >= len(e.commits) {
		return ErrInvalidIndex
	}
	e.setData(row, col, value, false)
	return nil
}

func (e *Editable) setData(row int, col Column, value interface{}, ignoreHistory bool) {
	c := e.commits[row]
	old, _ := e.fieldData(c, col)
	if valuesEqual(old, value) {
		return
	}
	e.setFieldData(c, col, value)
	if !ignoreHistory {
		e.history.record(&setAction{row: row, col: col, old: old, new: value})
	}
	if e.mergeMode {
		if paired, ok := mergePair(col); ok {
			e.setData(row, paired, value, true)
		}
	}
}

func (e *Editable) setFieldData(c *Commit, col Column, value interface{}) {
	mods := e.modifications[c]
	if mods == nil {
		mods = make(map[Column]interface{})
		e.modifications[c] = mods
	}
	mods[col] = value
	e.invalidateFrontier()
}

func mergePair(col Column) (Column, bool) {
	switch col {
	case ColAuthoredDate:
		return ColCommittedDate, true
	case ColCommittedDate:
		return ColAuthoredDate, true
	case ColAuthorName:
		return ColCommitterName, true
	case ColCommitterName:
		return ColAuthorName, true
	case ColAuthorEmail:
		return ColCommitterEmail, true
	case ColCommitterEmail:
		return ColAuthorEmail, true
	default:
		return 0, false
	}
}

func valuesEqual(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}

// InsertRows inserts n fresh DummyCommits at pos, each recorded as its
// own undo step.
func (e *Editable) InsertRows(pos, n int) error {
	if pos < 0 || pos > len(e.commits) || n <= 0 {
		return ErrInvalidIndex
	}
	for i := 0; i < n; i++ {
		c := e.graph.newDummy()
		e.insertCommitAt(pos+i, c, map[Column]interface{}{}, false)
	}
	return nil
}

func (e *Editable) insertCommitAt(pos int, c *Commit, mods map[Column]interface{}, ignoreHistory bool) {
	e.commits = append(e.commits, nil)
	copy(e.commits[pos+1:], e.commits[pos:])
	e.commits[pos] = c
	m := make(map[Column]interface{}, len(mods))
	for k, v := range mods {
		m[k] = v
	}
	e.modifications[c] = m
	if !ignoreHistory {
		e.history.record(&insertAction{pos: pos, commit: c, mods: m})
	}
	e.invalidateFrontier()
}

// RemoveRows marks the n commits starting at pos as deleted, without
// changing row indices: a deleted commit keeps its row, and Undo,
// UndeleteCommit or Reset clears its deleted flag.
func (e *Editable) RemoveRows(pos, n int) error {
	if pos < 0 || n <= 0 || pos+n > len(e.commits) {
		return ErrInvalidIndex
	}
	for i := 0; i < n; i++ {
		e.removeRows(pos+i, 1, false, false)
	}
	return nil
}

// removeRows implements both a soft delete (reallyRemove false, the
// normal user-facing removal) and a hard delete (reallyRemove true, used
// only to undo an insertion).
func (e *Editable) removeRows(pos, n int, ignoreHistory, reallyRemove bool) {
	for i := 0; i < n; i++ {
		if pos >= len(e.commits) {
			return
		}
		c := e.commits[pos]
		if reallyRemove {
			e.commits = append(e.commits[:pos], e.commits[pos+1:]...)
			delete(e.modifications, c)
			delete(e.deleted, c)
			continue
		}
		if e.deleted[c] {
			continue
		}
		e.deleted[c] = true
		snapshot := make(map[Column]interface{}, len(e.modifications[c]))
		for k, v := range e.modifications[c] {
			snapshot[k] = v
		}
		if !ignoreHistory {
			e.history.record(&removeAction{pos: pos, commit: c, mods: snapshot})
		}
	}
	e.invalidateFrontier()
}

// UndeleteCommit clears the deleted flag on c. Removal never clears a
// commit's field modifications, so those made before it still apply.
func (e *Editable) UndeleteCommit(c *Commit) {
	e.undeleteCommit(c, nil)
}

func (e *Editable) undeleteCommit(c *Commit, savedMods map[Column]interface{}) {
	delete(e.deleted, c)
	if savedMods != nil {
		m := make(map[Column]interface{}, len(savedMods))
		for k, v := range savedMods {
			m[k] = v
		}
		e.modifications[c] = m
	}
	e.invalidateFrontier()
}

// SetNewBranchName sets the branch name the rewrite will be written to,
// recording an undo step. Validation (legal ref syntax, non-blank) is
// the caller's responsibility, via the branchname package.
func (e *Editable) SetNewBranchName(name string) {
	e.setNewBranchName(name, false)
}

func (e *Editable) setNewBranchName(name string, ignoreHistory bool) {
	if name == e.newBranchName {
		return
	}
	old := e.newBranchName
	e.newBranchName = name
	if !ignoreHistory {
		e.history.record(&setBranchNameAction{old: old, new: name})
	}
}

// CommitIsModified reports whether any non-children field of c currently
// differs from its original value, or c is a DummyCommit.
func (e *Editable) CommitIsModified(c *Commit) bool {
	if c.dummy {
		return true
	}
	for _, col := range Columns() {
		if col == ColChildren {
			continue
		}
		cur, _ := e.fieldData(c, col)
		if !valuesEqual(cur, e.originalValue(c, col)) {
			return true
		}
	}
	return false
}

// GetModifiedCount returns the number of distinct non-deleted commits
// that are currently modified.
func (e *Editable) GetModifiedCount() int {
	n := 0
	for _, c := range e.commits {
		if e.deleted[c] {
			continue
		}
		if e.CommitIsModified(c) {
			n++
		}
	}
	return n
}

// AllParents returns the transitive closure of c's original parent
// edges (ancestors), not including c itself.
func (e *Editable) AllParents(c *Commit) map[*Commit]bool {
	seen := make(map[*Commit]bool)
	var walk func(*Commit)
	walk = func(cur *Commit) {
		for _, p := range cur.parents {
			if seen[p] {
				continue
			}
			seen[p] = true
			walk(p)
		}
	}
	walk(c)
	return seen
}

// AllChildren returns the transitive closure of the children of every
// commit in commits (descendants), not including the inputs themselves.
func (e *Editable) AllChildren(commits []*Commit) map[*Commit]bool {
	seen := make(map[*Commit]bool)
	var walk func(*Commit)
	walk = func(cur *Commit) {
		for _, ch := range cur.children {
			if seen[ch] {
				continue
			}
			seen[ch] = true
			walk(ch)
		}
	}
	for _, c := range commits {
		walk(c)
	}
	return seen
}

func (e *Editable) isAncestor(ancestor, of *Commit) bool {
	return e.AllParents(of)[ancestor]
}

func (e *Editable) invalidateFrontier() {
	e.frontierValid = false
	e.frontierCache = nil
}

// GetStartWriteFrom computes the minimal antichain of modified-or-deleted
// commits: the set P such that rewriting every commit in P and its
// descendants reproduces every edit, with no element of P a descendant
// of another. For a fake (scratch) model with no modifications at all,
// it returns the single top commit, since a scratch rewrite always
// starts from nothing.
//
// The antichain is computed over the commit graph's static parent/child
// structure (unaffected by InsertRows/RemoveRows), so unlike the
// original implementation this is safe to cache and never needs to
// re-derive itself mid-traversal; the cache is invalidated by every
// mutating call rather than keyed by a snapshot of modification state.
func (e *Editable) GetStartWriteFrom() []*Commit {
	if e.frontierValid {
		return append([]*Commit(nil), e.frontierCache...)
	}

	candidateSet := make(map[*Commit]bool)
	for c := range e.modifications {
		if e.CommitIsModified(c) {
			candidateSet[c] = true
		}
	}
	for c := range e.deleted {
		candidateSet[c] = true
	}

	if len(candidateSet) == 0 {
		if e.fake && len(e.commits) > 0 {
			result := []*Commit{e.commits[0]}
			e.frontierCache, e.frontierValid = result, true
			return append([]*Commit(nil), result...)
		}
		e.frontierCache, e.frontierValid = nil, true
		return nil
	}

	candidates := make([]*Commit, 0, len(candidateSet))
	for c := range candidateSet {
		candidates = append(candidates, c)
	}

	var result []*Commit
	for _, p := range candidates {
		descendantOfOther := false
		for _, q := range candidates {
			if p == q {
				continue
			}
			if e.isAncestor(q, p) {
				descendantOfOther = true
				break
			}
		}
		if !descendantOfOther {
			result = append(result, p)
		}
	}

	e.frontierCache, e.frontierValid = result, true
	return append([]*Commit(nil), result...)
}

// GetToRewriteCount returns the number of commits the replay engine will
// visit: the frontier plus everything reachable from it.
func (e *Editable) GetToRewriteCount() int {
	p := e.GetStartWriteFrom()
	return len(p) + len(e.AllChildren(p))
}


// Adapter returns the repository adapter the overlay and its replay
// engine use to talk to git.
func (e *Editable) Adapter() *gitshell.Git { return e.adapter }

// Base returns the underlying read-only snapshot, or nil for a fake
// model.
func (e *Editable) Base() *Base { return e.base }

// IsFake reports whether this overlay has no underlying branch.
func (e *Editable) IsFake() bool { return e.fake }

// MergeMode reports whether author/committer field pairs are kept in
// lockstep.
func (e *Editable) MergeMode() bool { return e.mergeMode }
