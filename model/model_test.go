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
	"strings"
	"testing"

	"gitbuster.dev/gitbuster/internal/gitobj"
	"gitbuster.dev/gitbuster/internal/gitshell"
)

func hash(b byte) gitobj.Hash {
	h, err := gitobj.ParseHash(strings.Repeat(string(b), 40))
	if err != nil {
		panic(err)
	}
	return h
}

// buildLinearChain builds a three-commit history, newest first: c -> b -> a
// (a is the root). Each commit's message is its own letter.
func buildLinearChain(t *testing.T) (*Graph, []*Commit) {
	t.Helper()
	utc := gitobj.UTC
	infos := []gitshell.CommitInfo{
		{
			Hash: hash('c'), Tree: hash('3'), Parents: []gitobj.Hash{hash('b')},
			AuthorName: "Author C", AuthorEmail: "c@example.com", AuthoredDate: 300, AuthorTZ: utc,
			CommitterName: "Committer C", CommitterEmail: "cc@example.com", CommittedDate: 301, CommitterTZ: utc,
			Message: "c",
		},
		{
			Hash: hash('b'), Tree: hash('2'), Parents: []gitobj.Hash{hash('a')},
			AuthorName: "Author B", AuthorEmail: "b@example.com", AuthoredDate: 200, AuthorTZ: utc,
			CommitterName: "Committer B", CommitterEmail: "bc@example.com", CommittedDate: 201, CommitterTZ: utc,
			Message: "b",
		},
		{
			Hash: hash('a'), Tree: hash('1'),
			AuthorName: "Author A", AuthorEmail: "a@example.com", AuthoredDate: 100, AuthorTZ: utc,
			CommitterName: "Committer A", CommitterEmail: "ac@example.com", CommittedDate: 101, CommitterTZ: utc,
			Message: "a",
		},
	}
	g, nodes, err := buildFromWalk(infos)
	if err != nil {
		t.Fatal(err)
	}
	return g, nodes
}

func newEditableFromChain(t *testing.T) (*Editable, []*Commit) {
	t.Helper()
	g, nodes := buildLinearChain(t)
	e := &Editable{
		graph:         g,
		commits:       append([]*Commit(nil), nodes...),
		modifications: make(map[*Commit]map[Column]interface{}),
		deleted:       make(map[*Commit]bool),
		newBranchName: "main",
		history:       newHistory(),
		solutions:     make(map[*Commit]map[string]Resolution),
	}
	return e, nodes
}
