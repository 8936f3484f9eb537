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

package branchname

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"gitbuster.dev/gitbuster/internal/gitshell"
)

func newTestAdapter(t *testing.T) (context.Context, *gitshell.Git) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping due to -short")
	}
	gitPath, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not found:", err)
	}
	dir := t.TempDir()
	g, err := gitshell.New(gitPath, dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, _, _, err := g.Run(ctx, "", "init", "-b", "main"); err != nil {
		t.Fatal(err)
	}
	return ctx, g
}

func TestValidate(t *testing.T) {
	ctx, g := newTestAdapter(t)

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"feature/foo", false},
		{"bar", false},
		{"", true},
		{"has space", true},
		{"..bad", true},
		{"~bad", true},
	}
	for _, test := range tests {
		err := Validate(ctx, g, test.name)
		if test.wantErr && !errors.Is(err, ErrInvalid) {
			t.Errorf("Validate(%q) = %v; want ErrInvalid", test.name, err)
		}
		if !test.wantErr && err != nil {
			t.Errorf("Validate(%q) = %v; want nil", test.name, err)
		}
	}
}
