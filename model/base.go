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
	"context"
	"fmt"

	"gitbuster.dev/gitbuster/internal/gitobj"
	"gitbuster.dev/gitbuster/internal/gitshell"
)

// Base is the immutable, read-only snapshot of a branch's commit history,
// loaded once at construction time. It never changes after NewBase
// returns; edits live entirely in an Editable overlay built on top of it.
type Base struct {
	adapter *gitshell.Git
	branch  gitobj.Ref

	graph   *Graph
	commits []*Commit // newest first, stable row order

	unpushed map[*Commit]bool
}

// NewBase walks branch's full history through adapter and builds the
// read-only base model. If branch has a configured upstream, commits
// reachable from the upstream tip are classified as already pushed.
func NewBase(ctx context.Context, adapter *gitshell.Git, branch gitobj.Ref) (*Base, error) {
	if !branch.IsBranch() {
		return nil, fmt.Errorf("model: %q is not a branch ref", branch)
	}
	infos, err := adapter.Walk(ctx, branch.String())
	if err != nil {
		return nil, fmt.Errorf("model: load %s: %w", branch, err)
	}
	graph, commits, err := buildFromWalk(infos)
	if err != nil {
		return nil, fmt.Errorf("model: load %s: %w", branch, err)
	}

	b := &Base{
		adapter:  adapter,
		branch:   branch,
		graph:    graph,
		commits:  commits,
		unpushed: make(map[*Commit]bool, len(commits)),
	}

	var remoteHead gitobj.Hash
	haveRemote := false
	if tracking, ok, err := adapter.TrackingBranch(ctx, branch.Branch()); err == nil && ok {
		if info, err := adapter.Commit(ctx, tracking.String()); err == nil {
			remoteHead = info.Hash
			haveRemote = true
		}
	}

	pushed := false
	for _, c := range commits {
		if haveRemote && c.id == remoteHead.String() {
			pushed = true
		}
		if !pushed {
			b.unpushed[c] = true
		}
	}
	return b, nil
}

// Branch returns the branch the base model was built from.
func (b *Base) Branch() gitobj.Ref { return b.branch }

// Len returns the number of commits in the base model.
func (b *Base) Len() int { return len(b.commits) }

// Commits returns the base model's commits, newest first. The returned
// slice is owned by the caller.
func (b *Base) Commits() []*Commit {
	return append([]*Commit(nil), b.commits...)
}

// CommitAt returns the commit at row, or nil if row is out of range.
func (b *Base) CommitAt(row int) *Commit {
	if row < 0 || row >= len(b.commits) {
		return nil
	}
	return b.commits[row]
}

// IsPushed reports whether c is reachable from the branch's upstream, and
// so must not be rewritten without --force.
func (b *Base) IsPushed(c *Commit) bool {
	return c != nil && !b.unpushed[c]
}

// Data returns the original (unedited) value of one field of the commit
// at row.
func (b *Base) Data(row int, col Column) (interface{}, error) {
	c := b.CommitAt(row)
	if c == nil {
		return nil, fmt.Errorf("model: row %d out of range", row)
	}
	return originalData(c, col)
}

func originalData(c *Commit, col Column) (interface{}, error) {
	switch col {
	case ColHexsha:
		return c.id, nil
	case ColAuthoredDate:
		return TimeValue{Epoch: c.authoredDate, TZ: c.authorTZ}, nil
	case ColCommittedDate:
		return TimeValue{Epoch: c.committedDate, TZ: c.committerTZ}, nil
	case ColAuthorName:
		return c.authorName, nil
	case ColAuthorEmail:
		return c.authorEmail, nil
	case ColCommitterName:
		return c.committerName, nil
	case ColCommitterEmail:
		return c.committerEmail, nil
	case ColMessage:
		return c.message, nil
	case ColParents:
		return c.Parents(), nil
	case ColTree:
		return c.tree.String(), nil
	case ColChildren:
		return c.Children(), nil
	default:
		return nil, fmt.Errorf("model: unknown column %d", col)
	}
}
