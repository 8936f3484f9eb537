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

// Package model implements the layered, editable commit-graph model:
// an immutable Base snapshot of a branch's history (component B), an
// Editable overlay with undo/redo (components C and G), and the
// conflict-resolution state the replay engine populates and drains.
package model

import (
	"github.com/google/uuid"

	"gitbuster.dev/gitbuster/internal/gitobj"
	"gitbuster.dev/gitbuster/internal/gitshell"
)

// Column identifies one of the stable fields exposed by Base and
// Editable. Row indices are stable under field edits; only insertion and
// removal change them.
type Column int

// The fixed column order of spec §4.C.
const (
	ColHexsha Column = iota
	ColAuthoredDate
	ColCommittedDate
	ColAuthorName
	ColAuthorEmail
	ColCommitterName
	ColCommitterEmail
	ColMessage
	ColParents
	ColTree
	ColChildren
	numColumns
)

// Columns returns the fixed column order.
func Columns() []Column {
	return []Column{
		ColHexsha, ColAuthoredDate, ColCommittedDate,
		ColAuthorName, ColAuthorEmail,
		ColCommitterName, ColCommitterEmail,
		ColMessage, ColParents, ColTree, ColChildren,
	}
}

// TimeValue is the value type returned for ColAuthoredDate/ColCommittedDate:
// seconds since epoch paired with the timezone that was in effect when the
// epoch value was recorded or last set.
type TimeValue struct {
	Epoch int64
	TZ    gitobj.Timezone
}

// Commit is a node in the commit arena: either a real commit loaded from
// the repository, or a DummyCommit placeholder for a not-yet-materialized
// insertion. Commits are always referenced by pointer; the arena owns
// identity and parent/child edges.
type Commit struct {
	id    string // hex sha for real commits, a uuid for DummyCommits
	dummy bool

	parents  []*Commit
	children []*Commit

	// Immutable original field values. Zero/empty for DummyCommits.
	tree           gitobj.Hash
	authorName     string
	authorEmail    string
	authoredDate   int64
	authorTZ       gitobj.Timezone
	committerName  string
	committerEmail string
	committedDate  int64
	committerTZ    gitobj.Timezone
	message        string
}

// ID returns the commit's opaque identity: a 40-hex sha for a real
// commit, or a uuid string for a DummyCommit. DummyCommit identities are
// guaranteed never to collide with a real hexsha.
func (c *Commit) ID() string { return c.id }

// IsDummy reports whether c is a placeholder for an as-yet-unmaterialized
// insertion. A DummyCommit is always considered modified.
func (c *Commit) IsDummy() bool { return c.dummy }

// Hexsha returns the original hex sha, or "" for a DummyCommit.
func (c *Commit) Hexsha() string {
	if c.dummy {
		return ""
	}
	return c.id
}

// Parents returns the commit's original parents, newest-repository-order
// arena pointers. The returned slice is owned by the caller.
func (c *Commit) Parents() []*Commit {
	return append([]*Commit(nil), c.parents...)
}

// Children returns the commit's original children (reverse edges,
// derived at graph construction time). The returned slice is owned by
// the caller.
func (c *Commit) Children() []*Commit {
	return append([]*Commit(nil), c.children...)
}

// Graph is the arena owning every Commit and DummyCommit reachable from a
// Base model, plus any DummyCommits inserted into an Editable overlay.
// All graph traversal (parents/children) goes through pointers owned by
// the arena, per the "cyclic references" design note: commits reference
// their parents, which is naturally cyclic-looking but is in fact a DAG.
type Graph struct {
	byID map[string]*Commit
}

func newGraph() *Graph {
	return &Graph{byID: make(map[string]*Commit)}
}

// newDummy creates and registers a fresh DummyCommit with a collision-free
// identity.
func (g *Graph) newDummy() *Commit {
	c := &Commit{id: uuid.NewString(), dummy: true}
	g.byID[c.id] = c
	return c
}

// buildFromWalk constructs the arena from a topologically-ordered (newest
// first) slice of commit infos, wiring parent/child pointers. Every node
// is created before any edge is wired, so the order of infos only
// determines the returned row order, not which edges are found.
func buildFromWalk(infos []gitshell.CommitInfo) (*Graph, []*Commit, error) {
	g := newGraph()
	nodes := make([]*Commit, len(infos))
	for i, info := range infos {
		c := &Commit{
			id:             info.Hash.String(),
			tree:           info.Tree,
			authorName:     info.AuthorName,
			authorEmail:    info.AuthorEmail,
			authoredDate:   info.AuthoredDate,
			authorTZ:       info.AuthorTZ,
			committerName:  info.CommitterName,
			committerEmail: info.CommitterEmail,
			committedDate:  info.CommittedDate,
			committerTZ:    info.CommitterTZ,
			message:        info.Message,
		}
		g.byID[c.id] = c
		nodes[i] = c
	}
	for i, info := range infos {
		c := nodes[i]
		for _, ph := range info.Parents {
			p, ok := g.byID[ph.String()]
			if !ok {
				// Parent outside the walked range (shouldn't happen for
				// a walk rooted at a single tip, but tolerate it by
				// skipping the edge rather than failing the whole load).
				continue
			}
			c.parents = append(c.parents, p)
			p.children = append(p.children, c)
		}
	}
	return g, nodes, nil
}
