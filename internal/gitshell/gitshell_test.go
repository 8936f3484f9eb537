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

package gitshell

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var gitPathCache struct {
	mu  sync.Mutex
	val string
}

func findGit() (string, error) {
	gitPathCache.mu.Lock()
	defer gitPathCache.mu.Unlock()
	if gitPathCache.val != "" {
		return gitPathCache.val, nil
	}
	path, err := exec.LookPath("git")
	if err != nil {
		return "", err
	}
	gitPathCache.val = path
	return path, nil
}

// newTestRepo creates a new repository in t.TempDir(), with commits
// authored at a fixed, reproducible identity and date so assertions
// don't depend on the ambient environment.
func newTestRepo(t *testing.T) (ctx context.Context, dir string, g *Git) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping due to -short")
	}
	gitPath, err := findGit()
	if err != nil {
		t.Skip("git not found:", err)
	}
	dir = t.TempDir()
	env := []string{
		"GIT_AUTHOR_NAME=Octavia Author",
		"GIT_AUTHOR_EMAIL=author@example.com",
		"GIT_AUTHOR_DATE=1000000000 +0000",
		"GIT_COMMITTER_NAME=Cory Committer",
		"GIT_COMMITTER_EMAIL=committer@example.com",
		"GIT_COMMITTER_DATE=1000000100 +0000",
	}
	g, err = New(gitPath, dir, &Options{Env: env})
	if err != nil {
		t.Fatal(err)
	}
	ctx = context.Background()
	if _, _, _, err := g.Run(ctx, "", "init", "-b", "main"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := g.Run(ctx, "", "config", "user.name", "Octavia Author"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := g.Run(ctx, "", "config", "user.email", "author@example.com"); err != nil {
		t.Fatal(err)
	}
	return ctx, dir, g
}

func writeAndCommit(t *testing.T, ctx context.Context, g *Git, path, content, message string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(g.Dir(), path), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := g.Run(ctx, "", "add", path); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := g.Run(ctx, "", "commit", "-m", message); err != nil {
		t.Fatal(err)
	}
}

func TestWalkAndCommit(t *testing.T) {
	ctx, _, g := newTestRepo(t)
	writeAndCommit(t, ctx, g, "foo.txt", "hello\n", "first commit")
	writeAndCommit(t, ctx, g, "foo.txt", "hello again\n", "second commit")

	commits, err := g.Walk(ctx, "HEAD")
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 2 {
		t.Fatalf("len(commits) = %d; want 2", len(commits))
	}
	if got, want := commits[0].Summary(), "second commit"; got != want {
		t.Errorf("commits[0].Summary() = %q; want %q", got, want)
	}
	if got, want := commits[1].Summary(), "first commit"; got != want {
		t.Errorf("commits[1].Summary() = %q; want %q", got, want)
	}
	if len(commits[0].Parents) != 1 || commits[0].Parents[0] != commits[1].Hash {
		t.Errorf("commits[0].Parents = %v; want [%v]", commits[0].Parents, commits[1].Hash)
	}
	if len(commits[1].Parents) != 0 {
		t.Errorf("commits[1].Parents = %v; want none", commits[1].Parents)
	}

	single, err := g.Commit(ctx, "HEAD")
	if err != nil {
		t.Fatal(err)
	}
	if single.Hash != commits[0].Hash {
		t.Errorf("g.Commit(ctx, \"HEAD\").Hash = %v; want %v", single.Hash, commits[0].Hash)
	}
}

func TestActiveBranchAndBranches(t *testing.T) {
	ctx, _, g := newTestRepo(t)
	writeAndCommit(t, ctx, g, "foo.txt", "hello\n", "first commit")

	ref, err := g.ActiveBranch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ref.Branch(), "main"; got != want {
		t.Errorf("g.ActiveBranch() = %q; want %q", got, want)
	}

	if _, _, _, err := g.Run(ctx, "", "branch", "other"); err != nil {
		t.Fatal(err)
	}
	branches, err := g.Branches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(branches) != 2 {
		t.Fatalf("len(branches) = %d; want 2", len(branches))
	}
}

func TestTreeBlobAndIsDirty(t *testing.T) {
	ctx, dir, g := newTestRepo(t)
	writeAndCommit(t, ctx, g, "foo.txt", "hello\n", "first commit")

	if dirty, err := g.IsDirty(ctx, dir); err != nil {
		t.Fatal(err)
	} else if dirty {
		t.Error("g.IsDirty() = true right after commit")
	}

	blob, err := g.TreeBlob(ctx, "HEAD", "foo.txt")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(blob), "hello\n"; got != want {
		t.Errorf("g.TreeBlob(HEAD, foo.txt) = %q; want %q", got, want)
	}

	if err := os.WriteFile(filepath.Join(dir, "foo.txt"), []byte("changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if dirty, err := g.IsDirty(ctx, dir); err != nil {
		t.Fatal(err)
	} else if !dirty {
		t.Error("g.IsDirty() = false after an uncommitted edit")
	}
}
