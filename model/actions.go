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

// action is one undoable step recorded by History. Each variant knows how
// to reverse and replay itself against an Editable; applying either never
// records new history entries of its own (the Editable passes
// ignoreHistory=true on replay).
type action interface {
	undo(e *Editable)
	redo(e *Editable)
}

// setAction records a single SetData call on one field of one row.
type setAction struct {
	row int
	col Column
	old interface{}
	new interface{}
}

func (a *setAction) undo(e *Editable) { e.setData(a.row, a.col, a.old, true) }
func (a *setAction) redo(e *Editable) { e.setData(a.row, a.col, a.new, true) }

// insertAction records one row inserted at pos.
type insertAction struct {
	pos    int
	commit *Commit
	mods   map[Column]interface{}
}

func (a *insertAction) undo(e *Editable) { e.removeRows(a.pos, 1, true, true) }
func (a *insertAction) redo(e *Editable) { e.insertCommitAt(a.pos, a.commit, a.mods, true) }

// removeAction records one row removed (soft-deleted) at pos.
type removeAction struct {
	pos    int
	commit *Commit
	mods   map[Column]interface{}
}

func (a *removeAction) undo(e *Editable) { e.undeleteCommit(a.commit, a.mods) }
func (a *removeAction) redo(e *Editable) { e.removeRows(a.pos, 1, true, false) }

// setBranchNameAction records a change to the overlay's target branch
// name.
type setBranchNameAction struct {
	old, new string
}

func (a *setBranchNameAction) undo(e *Editable) { e.setNewBranchName(a.old, true) }
func (a *setBranchNameAction) redo(e *Editable) { e.setNewBranchName(a.new, true) }

// History is a cursor-based undo/redo log of Editable actions, grouped
// into events: StartHistoryEvent opens a new group and truncates any redo
// tail, and every mutation until the next StartHistoryEvent call belongs
// to that group. Undo/redo operate on whole groups.
type History struct {
	events [][]action
	cursor int // index of the most recently applied event, or -1
}

func newHistory() *History {
	return &History{cursor: -1}
}

// StartEvent truncates any redo tail and opens a new, empty event.
func (h *History) StartEvent() {
	h.events = h.events[:h.cursor+1]
	h.events = append(h.events, nil)
	h.cursor++
}

// record appends an action to the current event, opening one implicitly
// if the caller never called StartEvent.
func (h *History) record(a action) {
	if h.cursor < 0 {
		h.StartEvent()
	}
	h.events[h.cursor] = append(h.events[h.cursor], a)
}

// CanUndo reports whether there is an event to undo.
func (h *History) CanUndo() bool { return h.cursor >= 0 }

// CanRedo reports whether there is an event to redo.
func (h *History) CanRedo() bool { return h.cursor < len(h.events)-1 }

// Undo reverses the most recently applied event's actions, in reverse
// order, against e.
func (h *History) Undo(e *Editable) bool {
	if !h.CanUndo() {
		return false
	}
	actions := h.events[h.cursor]
	for i := len(actions) - 1; i >= 0; i-- {
		actions[i].undo(e)
	}
	h.cursor--
	return true
}

// Redo reapplies the next event's actions, in original order, against e.
func (h *History) Redo(e *Editable) bool {
	if !h.CanRedo() {
		return false
	}
	h.cursor++
	for _, a := range h.events[h.cursor] {
		a.redo(e)
	}
	return true
}
