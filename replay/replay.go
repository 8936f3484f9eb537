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

// Package replay materializes an Editable Model's edits by replaying
// commits with cherry-pick/commit-tree into a scratch branch, then
// atomically swaps it in for the original.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"gitbuster.dev/gitbuster/internal/gitobj"
	"gitbuster.dev/gitbuster/internal/gitshell"
	"gitbuster.dev/gitbuster/model"
)

// scratchBranch is the private ref the replay engine builds new history
// on before atomically swapping it in.
const scratchBranch = "gitbuster_rebase"

// ErrRepoMoved is returned when the target branch's tip no longer
// matches the model's top commit: the repository changed since the
// model was loaded, and the edits may no longer apply cleanly.
var ErrRepoMoved = errors.New("replay: branch has moved since the model was loaded")

// ErrReplayLost is returned when the scratch branch cannot be checked
// out immediately after being written; no ref has been modified.
var ErrReplayLost = errors.New("replay: lost the rewritten history")

// ErrMergeConflict is returned when a cherry-pick fails and no
// resolution was recorded for the conflicting commit. The conflict
// state is left on the model (ConflictingCommit/UnmergedFiles) for the
// caller to inspect and resolve before retrying.
var ErrMergeConflict = errors.New("replay: conflict during cherry-pick")

// ErrGeneric wraps a finalization failure that isn't one of the named
// cases above: the final branch -M, or the branch -D of the original
// name after a rename, exiting nonzero. branch -M forces the rename, so
// an existing branch with the target name is overwritten rather than
// reported.
var ErrGeneric = errors.New("replay: finalization failed")

// Options configures a replay.
type Options struct {
	// ForceCommittedDate, when true, sets GIT_COMMITTER_* from the model
	// for every rewritten commit. When false, committer identity and
	// date are left to git's own defaults (current user, current time),
	// exactly as an ordinary cherry-pick would.
	ForceCommittedDate bool
	// DontPopulate is not read by Write: whatever its value, Write does
	// not reload the Base or Editable model after a successful write.
	DontPopulate bool
	// Log, if non-nil, receives one line per commit-tree translation
	// (original hash, new hash, running count). Other subprocess calls
	// and their output are not written to it.
	Log io.Writer
}

// Result describes a successful replay.
type Result struct {
	Branch         gitobj.Ref
	RewrittenCount int
}

// Write replays ed's edits against adapter's repository and returns once
// the rewrite has finished, conflicted, or failed outright. progress may
// be nil; if non-nil, the caller may poll progress.Load() concurrently
// from another goroutine while Write runs (the "worker thread" of the
// concurrency model — Write itself is synchronous; callers that want it
// off their own goroutine start one themselves).
func Write(ctx context.Context, ed *model.Editable, adapter *gitshell.Git, opts Options, progress *Progress) (*Result, error) {
	if progress == nil {
		progress = &Progress{}
	}
	w := &writer{
		ctx:         ctx,
		ed:          ed,
		adapter:     adapter,
		opts:        opts,
		progress:    progress,
		updatedRefs: make(map[*model.Commit]string),
		processed:   make(map[*model.Commit]bool),
	}
	defer w.cleanup()
	return w.run()
}

type writer struct {
	ctx     context.Context
	ed      *model.Editable
	adapter *gitshell.Git
	opts    Options

	progress *Progress

	shouldUpdate map[*model.Commit]bool
	toRewrite    int

	updatedRefs    map[*model.Commit]string
	processed      map[*model.Commit]bool
	lastUpdatedSha string
}

func (w *writer) dir() string { return w.adapter.Dir() }

func (w *writer) logf(format string, args ...interface{}) {
	if w.opts.Log != nil {
		fmt.Fprintf(w.opts.Log, format+"\n", args...)
	}
}

func (w *writer) run() (*Result, error) {
	if !w.ed.IsFake() {
		base := w.ed.Base()
		tip, err := w.adapter.Commit(w.ctx, base.Branch().String())
		if err != nil {
			return nil, fmt.Errorf("replay: read branch tip: %w", err)
		}
		top := w.ed.FirstRealCommit()
		if top == nil || tip.Hash.String() != top.Hexsha() {
			return nil, ErrRepoMoved
		}
	}

	frontier := w.ed.GetStartWriteFrom()
	if len(frontier) == 0 {
		return w.finalize()
	}

	descendants := w.ed.AllChildren(frontier)
	w.shouldUpdate = make(map[*model.Commit]bool, len(frontier)+len(descendants))
	for _, c := range frontier {
		w.shouldUpdate[c] = true
	}
	for c := range descendants {
		w.shouldUpdate[c] = true
	}
	w.toRewrite = len(frontier) + len(descendants)
	if w.toRewrite == 0 {
		w.toRewrite = 1
	}

	for _, c := range frontier {
		if err := w.refUpdate(c); err != nil {
			return nil, err
		}
	}

	return w.finalize()
}

func (w *writer) translatedHexsha(c *model.Commit) string {
	if sha, ok := w.updatedRefs[c]; ok {
		return sha
	}
	return c.Hexsha()
}

func (w *writer) refUpdate(c *model.Commit) error {
	if w.processed[c] {
		return nil
	}

	if w.ed.Deleted(c) {
		w.processed[c] = true
		// A deleted commit is a bypass, not a hole: any child that cites c
		// as a parent needs to resolve through to c's own (translated)
		// parent instead, or the child's new history would still run
		// straight through the commit that was supposed to disappear.
		if parents := c.Parents(); len(parents) > 0 {
			w.updatedRefs[c] = w.translatedHexsha(parents[0])
		}
		if w.lastUpdatedSha == "" && len(w.ed.Commits()) > 0 && w.ed.Commits()[0] == c {
			if parents := c.Parents(); len(parents) > 0 {
				w.lastUpdatedSha = w.translatedHexsha(parents[0])
			}
		}
		for _, ch := range c.Children() {
			if w.shouldUpdate[ch] {
				if err := w.refUpdate(ch); err != nil {
					return err
				}
			}
		}
		return nil
	}

	parents := c.Parents()
	if len(parents) == 0 {
		return fmt.Errorf("replay: rewriting root commit %s is not supported", c.Hexsha())
	}
	if len(parents) > 1 {
		for _, p := range parents {
			if w.shouldUpdate[p] && !w.processed[p] {
				return nil // defer: a later path will re-invoke once every parent is done
			}
		}
	}

	primaryParentSha := w.translatedHexsha(parents[0])
	if _, _, _, err := w.adapter.Run(w.ctx, w.dir(), "checkout", "-f", primaryParentSha); err != nil {
		return fmt.Errorf("replay: checkout %s: %w", primaryParentSha, err)
	}

	pickArgs := []string{"cherry-pick", "-n"}
	if len(parents) > 1 {
		pickArgs = append(pickArgs, "-m", "1")
	}
	pickArgs = append(pickArgs, c.Hexsha())
	_, pickStderr, _, err := w.adapter.Run(w.ctx, w.dir(), pickArgs...)
	if err != nil {
		return fmt.Errorf("replay: cherry-pick %s: %w", c.Hexsha(), err)
	}
	if strings.Contains(strings.Join(pickStderr, "\n"), "error: could not apply") {
		w.ed.SetConflictingCommit(c)
		if resolutions, ok := w.ed.ResolutionsFor(c); ok {
			for path, r := range resolutions {
				if err := applyResolution(w.ctx, w.adapter, w.dir(), path, r); err != nil {
					return fmt.Errorf("replay: apply resolution for %s: %w", path, err)
				}
			}
		} else {
			files, err := collectConflict(w.ctx, w.adapter, w.dir(), c, primaryParentSha)
			if err != nil {
				return fmt.Errorf("replay: collect conflict state: %w", err)
			}
			w.ed.SetUnmergedFiles(files)
			return fmt.Errorf("%w: %s", ErrMergeConflict, c.Hexsha())
		}
	}

	treeOut, _, _, err := w.adapter.Run(w.ctx, w.dir(), "write-tree")
	if err != nil {
		return fmt.Errorf("replay: write-tree for %s: %w", c.Hexsha(), err)
	}
	if len(treeOut) == 0 {
		return fmt.Errorf("replay: write-tree for %s: empty output", c.Hexsha())
	}
	newTree := treeOut[0]

	commitArgs := []string{"commit-tree", newTree}
	for _, p := range parents {
		commitArgs = append(commitArgs, "-p", w.translatedHexsha(p))
	}

	env, message, err := w.commitEnv(c)
	if err != nil {
		return err
	}

	shaOut, _, _, err := w.adapter.RunWithEnvAndStdin(w.ctx, w.dir(), env, strings.NewReader(message), commitArgs...)
	if err != nil {
		return fmt.Errorf("replay: commit-tree for %s: %w", c.Hexsha(), err)
	}
	if len(shaOut) == 0 {
		return fmt.Errorf("replay: commit-tree for %s: empty output", c.Hexsha())
	}
	newSha := shaOut[0]

	w.updatedRefs[c] = newSha
	w.processed[c] = true
	w.lastUpdatedSha = newSha
	w.progress.add(1.0 / float64(w.toRewrite))
	w.logf("commit-tree %s -> %s (%s)", c.Hexsha(), newSha, humanize.Comma(int64(len(w.updatedRefs))))

	for _, ch := range c.Children() {
		if w.shouldUpdate[ch] {
			if err := w.refUpdate(ch); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) commitEnv(c *model.Commit) (env []string, message string, err error) {
	authorName, _ := w.ed.FieldData(c, model.ColAuthorName)
	authorEmail, _ := w.ed.FieldData(c, model.ColAuthorEmail)
	authoredDate, _ := w.ed.FieldData(c, model.ColAuthoredDate)
	msg, _ := w.ed.FieldData(c, model.ColMessage)

	at, _ := authoredDate.(model.TimeValue)
	env = append(env,
		"GIT_AUTHOR_NAME="+toString(authorName),
		"GIT_AUTHOR_EMAIL="+toString(authorEmail),
		"GIT_AUTHOR_DATE="+gitobj.GitDate(at.Epoch, at.TZ),
	)

	if w.opts.ForceCommittedDate {
		committerName, _ := w.ed.FieldData(c, model.ColCommitterName)
		committerEmail, _ := w.ed.FieldData(c, model.ColCommitterEmail)
		committedDate, _ := w.ed.FieldData(c, model.ColCommittedDate)
		ct, _ := committedDate.(model.TimeValue)
		env = append(env,
			"GIT_COMMITTER_NAME="+toString(committerName),
			"GIT_COMMITTER_EMAIL="+toString(committerEmail),
			"GIT_COMMITTER_DATE="+gitobj.GitDate(ct.Epoch, ct.TZ),
		)
	}

	return env, toString(msg), nil
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func (w *writer) finalize() (*Result, error) {
	if w.lastUpdatedSha == "" {
		top := w.ed.FirstRealCommit()
		if top == nil {
			return nil, fmt.Errorf("replay: nothing to write")
		}
		w.lastUpdatedSha = top.Hexsha()
	}

	if _, _, _, err := w.adapter.Run(w.ctx, w.dir(), "update-ref", "refs/heads/"+scratchBranch, w.lastUpdatedSha); err != nil {
		return nil, fmt.Errorf("replay: update scratch ref: %w", err)
	}

	out, stderr, exitStatus, err := w.adapter.Run(w.ctx, w.dir(), "checkout", scratchBranch)
	if err != nil {
		return nil, fmt.Errorf("replay: checkout scratch branch: %w", err)
	}
	if exitStatus != 0 && strings.Contains(strings.Join(stderr, "\n")+strings.Join(out, "\n"), "did not match") {
		return nil, ErrReplayLost
	}

	target := w.ed.NewBranchName()
	original := ""
	if !w.ed.IsFake() {
		original = w.ed.Base().Branch().Branch()
	}
	renameSet := w.ed.IsFake() || target != original

	if _, stderr, status, err := w.adapter.Run(w.ctx, w.dir(), "branch", "-M", target); err != nil {
		return nil, fmt.Errorf("%w: rename to %s: %v", ErrGeneric, target, err)
	} else if status != 0 {
		return nil, fmt.Errorf("%w: rename to %s: %s", ErrGeneric, target, strings.Join(stderr, "\n"))
	}
	if renameSet && !w.ed.IsFake() {
		if _, stderr, status, err := w.adapter.Run(w.ctx, w.dir(), "branch", "-D", original); err != nil {
			return nil, fmt.Errorf("%w: remove original branch %s: %v", ErrGeneric, original, err)
		} else if status != 0 {
			return nil, fmt.Errorf("%w: remove original branch %s: %s", ErrGeneric, original, strings.Join(stderr, "\n"))
		}
	}

	return &Result{
		Branch:         gitobj.BranchRef(target),
		RewrittenCount: len(w.updatedRefs),
	}, nil
}

// cleanup always runs on the way out, success or failure: it discards
// any dirty working tree and removes the scratch branch if it's still
// around (it won't be, on the success path — finalize already renamed
// it away).
func (w *writer) cleanup() {
	if dirty, err := w.adapter.IsDirty(w.ctx, w.dir()); err == nil && dirty {
		w.adapter.Run(w.ctx, w.dir(), "reset", "--hard")
	}

	branches, err := w.adapter.Branches(w.ctx)
	if err != nil {
		return
	}
	found := false
	for _, b := range branches {
		if b.Branch() == scratchBranch {
			found = true
			break
		}
	}
	if !found {
		return
	}

	fallback := ""
	if !w.ed.IsFake() {
		fallback = w.ed.Base().Branch().Branch()
	} else if len(branches) > 0 {
		fallback = branches[0].Branch()
	}
	if fallback != "" && fallback != scratchBranch {
		w.adapter.Run(w.ctx, w.dir(), "checkout", fallback)
	}
	w.adapter.Run(w.ctx, w.dir(), "branch", "-D", scratchBranch)
}
