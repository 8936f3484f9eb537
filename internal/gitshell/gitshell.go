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

// Package gitshell is the repository adapter: the only package in this
// module allowed to start a git subprocess. It exposes a narrow surface —
// branch listing, commit walking, tree/blob reads, and a generic plumbing
// runner — to the editable model and replay engine, which otherwise know
// nothing about how git is actually invoked.
package gitshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gitbuster.dev/gitbuster/internal/sigterm"
)

// Git is a handle to an installed git executable bound to a default
// working directory.
type Git struct {
	exe string
	dir string

	env     []string
	logHook func(context.Context, []string)
}

// Options specifies optional parameters to New.
type Options struct {
	// LogHook is called with the argv of every git subprocess before it
	// is started.
	LogHook func(ctx context.Context, args []string)
	// Env specifies additional environment variables for subprocesses,
	// in "KEY=value" form. These are appended to the process's own
	// environment.
	Env []string
}

// New creates a new adapter for the git executable at path, defaulting
// new commands to run in dir.
func New(path, dir string, opts *Options) (*Git, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("gitshell: path to git must be absolute (got %q)", path)
	}
	if dir == "" {
		return nil, errors.New("gitshell: working directory must not be blank")
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("gitshell: resolve working directory: %v", err)
	}
	g := &Git{exe: filepath.Clean(path), dir: dir}
	if opts != nil {
		g.env = append([]string(nil), opts.Env...)
		g.logHook = opts.LogHook
	}
	return g, nil
}

// Path returns the absolute path to the git executable.
func (g *Git) Path() string {
	return g.exe
}

// Dir returns the adapter's default working directory.
func (g *Git) Dir() string {
	return g.dir
}

// WithDir returns a copy of g that defaults to running commands in dir.
func (g *Git) WithDir(dir string) *Git {
	g2 := new(Git)
	*g2 = *g
	g2.dir = dir
	return g2
}

// command builds an *exec.Cmd for the given argv, running in cwd (or the
// adapter's default directory if cwd is empty), with env appended on top
// of the adapter's configured environment and the process environment.
func (g *Git) command(ctx context.Context, cwd string, extraEnv []string, args []string) *exec.Cmd {
	if g.logHook != nil {
		g.logHook(ctx, args)
	}
	c := exec.Command(g.exe, args...)
	if cwd == "" {
		cwd = g.dir
	}
	c.Dir = cwd
	if len(g.env) > 0 || len(extraEnv) > 0 {
		c.Env = append(append(os.Environ(), g.env...), extraEnv...)
	}
	return c
}

// commandError formats an error from an unsuccessful subprocess run,
// folding in any captured stderr.
func commandError(prefix string, runErr error, stderr []byte) error {
	stderr = bytes.TrimSuffix(stderr, []byte{'\n'})
	if len(stderr) == 0 {
		return fmt.Errorf("%s: %w", prefix, runErr)
	}
	if bytes.IndexByte(stderr, '\n') == -1 {
		return fmt.Errorf("%s: %s (%w)", prefix, stderr, runErr)
	}
	return fmt.Errorf("%s: %w\n%s", prefix, runErr, stderr)
}

// ExitError is returned when a git subprocess exits with a nonzero status
// and the caller asked for a hard failure (as opposed to Run, which
// reports the exit code without erroring).
type ExitError struct {
	Subject string
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("run %s: %v", e.Subject, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ErrDetachedHead is returned by ActiveBranch when HEAD does not point at
// a branch.
var ErrDetachedHead = errors.New("gitshell: HEAD is detached")

func exitCode(err error) (int, bool) {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), true
	}
	return 0, false
}

// run executes a subcommand to completion, returning its trimmed stdout.
// A nonzero exit is reported as an error that wraps an *ExitError and
// includes the stderr output in its message.
func (g *Git) run(ctx context.Context, errPrefix string, args []string) (string, error) {
	c := g.command(ctx, "", nil, args)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := sigterm.Run(ctx, c); err != nil {
		return "", commandError(errPrefix, &ExitError{Subject: errPrefix, Err: err}, stderr.Bytes())
	}
	return stdout.String(), nil
}

func oneLine(s string) (string, error) {
	s = strings.TrimSuffix(s, "\n")
	if strings.Contains(s, "\n") {
		return "", errors.New("expected a single line of output")
	}
	return s, nil
}
