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
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"gitbuster.dev/gitbuster/internal/gitobj"
	"gitbuster.dev/gitbuster/internal/sigterm"
)

// ActiveBranch returns the branch HEAD currently points to. It returns
// ErrDetachedHead if HEAD does not point at a branch.
func (g *Git) ActiveBranch(ctx context.Context) (gitobj.Ref, error) {
	const errPrefix = "git symbolic-ref HEAD"
	out, err := g.run(ctx, errPrefix, []string{"symbolic-ref", "--quiet", "HEAD"})
	if err != nil {
		if code, ok := exitCode(err); ok && code == 1 {
			return "", ErrDetachedHead
		}
		return "", err
	}
	line, err := oneLine(out)
	if err != nil {
		return "", fmt.Errorf("%s: %v", errPrefix, err)
	}
	ref := gitobj.Ref(line)
	if !ref.IsBranch() {
		return "", ErrDetachedHead
	}
	return ref, nil
}

// Branches lists every local branch.
func (g *Git) Branches(ctx context.Context) ([]gitobj.Ref, error) {
	const errPrefix = "git for-each-ref"
	out, err := g.run(ctx, errPrefix, []string{
		"for-each-ref", "--format=%(refname)", "refs/heads/",
	})
	if err != nil {
		return nil, err
	}
	var refs []gitobj.Ref
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if line == "" {
			continue
		}
		refs = append(refs, gitobj.Ref(line))
	}
	return refs, nil
}

// TrackingBranch returns the upstream ref configured for branch, if any.
func (g *Git) TrackingBranch(ctx context.Context, branch string) (gitobj.Ref, bool, error) {
	out, err := g.run(ctx, "git rev-parse @{upstream}", []string{
		"rev-parse", "--abbrev-ref", "--symbolic-full-name", gitobj.BranchRef(branch).String() + "@{upstream}",
	})
	if err != nil {
		if code, ok := exitCode(err); ok && code != 0 {
			return "", false, nil
		}
		return "", false, err
	}
	line, err := oneLine(out)
	if err != nil || line == "" {
		return "", false, nil
	}
	return gitobj.Ref(line), true, nil
}

// TreeBlob reads the content of path as it exists in the given tree-ish
// (a tree, commit, or any rev that resolves to one).
func (g *Git) TreeBlob(ctx context.Context, treeish, path string) ([]byte, error) {
	errPrefix := fmt.Sprintf("git cat-file blob %s:%s", treeish, path)
	c := g.command(ctx, "", nil, []string{"cat-file", "blob", treeish + ":" + path})
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := sigterm.Run(ctx, c); err != nil {
		return nil, commandError(errPrefix, &ExitError{Subject: errPrefix, Err: err}, stderr.Bytes())
	}
	return stdout.Bytes(), nil
}

// IsDirty reports whether the working tree at dir has any changes
// relative to the index or HEAD.
func (g *Git) IsDirty(ctx context.Context, dir string) (bool, error) {
	out, _, _, err := g.Run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return len(out) > 0, nil
}

// Run executes an arbitrary git plumbing command in dir (or the
// adapter's default directory if dir is empty) and returns its stdout and
// stderr, split into lines, along with its exit code. A nonzero exit is
// not itself an error — callers that need to distinguish git's "could
// not apply" conflict signal from a hard failure inspect stderr/exit
// themselves, mirroring the narrow plumbing surface of spec §4.A.
func (g *Git) Run(ctx context.Context, dir string, args ...string) (stdout, stderr []string, exitStatus int, err error) {
	c := g.command(ctx, dir, nil, args)
	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf
	runErr := sigterm.Run(ctx, c)
	if runErr != nil {
		code, ok := exitCode(runErr)
		if !ok {
			return nil, nil, -1, fmt.Errorf("run git %s: %v", strings.Join(args, " "), runErr)
		}
		exitStatus = code
	}
	stdout = splitNonEmptyLines(outBuf.String())
	stderr = splitNonEmptyLines(errBuf.String())
	return stdout, stderr, exitStatus, nil
}

// RunWithEnvAndStdin is Run plus the ability to set extra environment
// variables and feed the subprocess's stdin — the shape the replay
// engine needs for commit-tree (stdin message, GIT_AUTHOR_*/
// GIT_COMMITTER_* env) without ever invoking a shell.
func (g *Git) RunWithEnvAndStdin(ctx context.Context, dir string, env []string, stdin io.Reader, args ...string) (stdout, stderr []string, exitStatus int, err error) {
	c := g.command(ctx, dir, env, args)
	c.Stdin = stdin
	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf
	runErr := sigterm.Run(ctx, c)
	if runErr != nil {
		code, ok := exitCode(runErr)
		if !ok {
			return nil, nil, -1, fmt.Errorf("run git %s: %v", strings.Join(args, " "), runErr)
		}
		exitStatus = code
	}
	stdout = splitNonEmptyLines(outBuf.String())
	stderr = splitNonEmptyLines(errBuf.String())
	return stdout, stderr, exitStatus, nil
}

func splitNonEmptyLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
