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

// gitbuster is a thin demo driver over the gitbuster library: it loads
// the history of a branch, lets a handful of flags describe edits, and
// replays them into a new branch. It is not the CLI front-end the
// library is designed to be embedded in — just enough to exercise the
// core end to end against a real repository.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"gitbuster.dev/gitbuster/branchname"
	"gitbuster.dev/gitbuster/internal/gitobj"
	"gitbuster.dev/gitbuster/internal/gitshell"
	"gitbuster.dev/gitbuster/internal/sigterm"
	"gitbuster.dev/gitbuster/model"
	"gitbuster.dev/gitbuster/replay"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sig, sigterm.Signals()...)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-done:
		}
	}()
	err := run(ctx, os.Args[1:])
	close(done)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gitbuster:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("gitbuster", flag.ContinueOnError)
	dir := fs.String("C", ".", "repository `directory`")
	branch := fs.String("branch", "", "branch to rewrite (default: the current branch)")
	rename := fs.String("rename-to", "", "rename the branch to `name` once rewritten")
	deleteRow := fs.Int("delete-row", -1, "delete the commit at `row` (newest-first, 0 = tip)")
	message := fs.String("message", "", "replace the `row` commit's message (requires -row)")
	row := fs.Int("row", -1, "row the -message flag applies to")
	forceCommitted := fs.Bool("force-committed-date", false, "also set committer identity and date on rewritten commits")
	showGit := fs.Bool("show-git", false, "log every git invocation to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gitPath, err := exec.LookPath("git")
	if err != nil {
		return fmt.Errorf("find git: %w", err)
	}
	opts := &gitshell.Options{}
	if *showGit {
		opts.LogHook = func(_ context.Context, args []string) {
			fmt.Fprintln(os.Stderr, "gitbuster: exec: git", args)
		}
	}
	adapter, err := gitshell.New(gitPath, *dir, opts)
	if err != nil {
		return err
	}

	branchRef := gitobj.BranchRef(*branch)
	if *branch == "" {
		branchRef, err = adapter.ActiveBranch(ctx)
		if err != nil {
			return fmt.Errorf("determine current branch: %w", err)
		}
	}

	base, err := model.NewBase(ctx, adapter, branchRef)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	fmt.Fprintf(os.Stderr, "gitbuster: loaded %s commits from %s\n", humanize.Comma(int64(base.Len())), branchRef)

	ed := model.NewEditable(adapter, base, false)

	if *rename != "" {
		if err := branchname.Validate(ctx, adapter, *rename); err != nil {
			return fmt.Errorf("invalid branch name %q: %w", *rename, err)
		}
		ed.SetNewBranchName(*rename)
	}

	if *message != "" {
		if *row < 0 {
			return errors.New("-message requires -row")
		}
		if err := ed.SetData(*row, model.ColMessage, *message); err != nil {
			return fmt.Errorf("set message at row %d: %w", *row, err)
		}
	}

	if *deleteRow >= 0 {
		if err := ed.RemoveRows(*deleteRow, 1); err != nil {
			return fmt.Errorf("delete row %d: %w", *deleteRow, err)
		}
	}

	if ed.GetModifiedCount() == 0 && ed.NewBranchName() == ed.Base().Branch().Branch() {
		fmt.Fprintln(os.Stderr, "gitbuster: nothing to do")
		return nil
	}

	progress := &replay.Progress{}
	done := make(chan struct{})
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		go reportProgress(os.Stderr, progress, done)
	}

	result, err := replay.Write(ctx, ed, adapter, replay.Options{
		ForceCommittedDate: *forceCommitted,
		Log:                os.Stderr,
	}, progress)
	close(done)
	if errors.Is(err, replay.ErrMergeConflict) {
		return fmt.Errorf("conflict on %s; resolve and re-run: %w", ed.ConflictingCommit().Hexsha(), err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "gitbuster: rewrote %s commits onto %s\n", humanize.Comma(int64(result.RewrittenCount)), result.Branch)
	return nil
}

// reportProgress prints a one-line progress indicator to w roughly ten
// times a second until done is closed. Meant for an interactive
// terminal; callers pipe it to something else get the full log instead.
func reportProgress(w *os.File, p *replay.Progress, done <-chan struct{}) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			fmt.Fprintf(w, "\rgitbuster: rewriting... %3.0f%%", p.Load()*100)
		case <-done:
			fmt.Fprint(w, "\r")
			return
		}
	}
}
