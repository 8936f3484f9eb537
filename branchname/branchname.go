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

// Package branchname validates candidate branch names before the replay
// engine writes to them.
package branchname

import (
	"context"
	"errors"
	"strings"

	"gitbuster.dev/gitbuster/internal/gitshell"
)

// ErrInvalid is returned when a candidate branch name is empty, contains
// whitespace, or git itself rejects it as an illegal ref name.
var ErrInvalid = errors.New("branchname: invalid branch name")

// Validate rejects a blank name, a name containing whitespace, and any
// name git's own ref-name rules reject, by asking the real git binary
// via "git check-ref-format refs/tags/<name>" rather than reimplementing
// its grammar.
func Validate(ctx context.Context, adapter *gitshell.Git, name string) error {
	if name == "" {
		return ErrInvalid
	}
	if strings.ContainsAny(name, " \t\n") {
		return ErrInvalid
	}
	_, _, exitStatus, err := adapter.Run(ctx, "", "check-ref-format", "refs/tags/"+name)
	if err != nil {
		return err
	}
	if exitStatus != 0 {
		return ErrInvalid
	}
	return nil
}
