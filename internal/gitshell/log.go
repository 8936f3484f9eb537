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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gitbuster.dev/gitbuster/internal/gitobj"
)

// CommitInfo holds every field of a commit the editable model needs.
type CommitInfo struct {
	Hash    gitobj.Hash
	Parents []gitobj.Hash
	Tree    gitobj.Hash

	AuthorName, AuthorEmail string
	AuthoredDate            int64
	AuthorTZ                gitobj.Timezone

	CommitterName, CommitterEmail string
	CommittedDate                 int64
	CommitterTZ                   gitobj.Timezone

	Message string
}

// Summary returns the first line of the commit message.
func (ci CommitInfo) Summary() string {
	if i := strings.IndexByte(ci.Message, '\n'); i != -1 {
		return ci.Message[:i]
	}
	return ci.Message
}

const logFieldCount = 10

// logPrettyFormat uses --date=raw so the original "<epoch> <±HHMM>"
// offset is preserved verbatim, rather than --date=iso-strict, which
// normalizes offsets git would otherwise keep (spec §3 requires the
// original author_tz/committer_tz survive a round trip untouched). %T
// carries the tree so the model doesn't need a second round trip per
// commit just to learn it.
const logPrettyFormat = "tformat:%H%x00%T%x00%P%x00%an%x00%ae%x00%ad%x00%cn%x00%ce%x00%cd%x00%B"

// Walk returns every commit reachable from rev in topological order,
// newest first (git log --date-order: no parent before all of its
// children).
func (g *Git) Walk(ctx context.Context, rev string) ([]CommitInfo, error) {
	errPrefix := fmt.Sprintf("git log %q", rev)
	if rev == "" {
		return nil, fmt.Errorf("%s: empty revision", errPrefix)
	}
	out, err := g.run(ctx, errPrefix, []string{
		"log", "--date-order", "-z", "--date=raw",
		"--pretty=" + logPrettyFormat,
		rev, "--",
	})
	if err != nil {
		return nil, err
	}
	var commits []CommitInfo
	for len(out) > 0 {
		var rec string
		rec, out, err = splitLogRecord(out)
		if err != nil {
			return commits, fmt.Errorf("%s: %v", errPrefix, err)
		}
		info, err := parseCommitInfo(rec)
		if err != nil {
			return commits, fmt.Errorf("%s: %v", errPrefix, err)
		}
		commits = append(commits, info)
	}
	return commits, nil
}

// Commit fetches a single commit's info by revision.
func (g *Git) Commit(ctx context.Context, rev string) (CommitInfo, error) {
	errPrefix := fmt.Sprintf("git log %q", rev)
	out, err := g.run(ctx, errPrefix, []string{
		"log", "--max-count=1", "-z", "--date=raw",
		"--pretty=" + logPrettyFormat,
		rev, "--",
	})
	if err != nil {
		return CommitInfo{}, err
	}
	rec, _, err := splitLogRecord(out)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("%s: %v", errPrefix, err)
	}
	info, err := parseCommitInfo(rec)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("%s: %v", errPrefix, err)
	}
	return info, nil
}

// splitLogRecord consumes one NUL-delimited record (logFieldCount fields,
// the last of which is a free-form commit message that may itself
// contain embedded newlines but not NUL bytes) off the front of out.
func splitLogRecord(out string) (rec, rest string, err error) {
	i := 0
	nuls := 0
	for ; i < len(out); i++ {
		if out[i] != 0 {
			continue
		}
		nuls++
		if nuls == logFieldCount {
			return out[:i], out[i+1:], nil
		}
	}
	return "", "", errors.New("unexpected EOF parsing commit record")
}

func parseCommitInfo(rec string) (CommitInfo, error) {
	fields := strings.Split(rec, "\x00")
	if len(fields) != logFieldCount {
		return CommitInfo{}, fmt.Errorf("invalid record: got %d fields, want %d", len(fields), logFieldCount)
	}
	hash, err := gitobj.ParseHash(fields[0])
	if err != nil {
		return CommitInfo{}, fmt.Errorf("hash: %v", err)
	}
	tree, err := gitobj.ParseHash(fields[1])
	if err != nil {
		return CommitInfo{}, fmt.Errorf("tree: %v", err)
	}
	var parents []gitobj.Hash
	if ps := strings.Fields(fields[2]); len(ps) > 0 {
		parents = make([]gitobj.Hash, 0, len(ps))
		for _, s := range ps {
			p, err := gitobj.ParseHash(s)
			if err != nil {
				return CommitInfo{}, fmt.Errorf("parents: %v", err)
			}
			parents = append(parents, p)
		}
	}
	authoredDate, authorTZ, err := parseRawDate(fields[5])
	if err != nil {
		return CommitInfo{}, fmt.Errorf("author date: %v", err)
	}
	committedDate, committerTZ, err := parseRawDate(fields[8])
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit date: %v", err)
	}
	return CommitInfo{
		Hash:           hash,
		Tree:           tree,
		Parents:        parents,
		AuthorName:     fields[3],
		AuthorEmail:    fields[4],
		AuthoredDate:   authoredDate,
		AuthorTZ:       authorTZ,
		CommitterName:  fields[6],
		CommitterEmail: fields[7],
		CommittedDate:  committedDate,
		CommitterTZ:    committerTZ,
		Message:        fields[9],
	}, nil
}

// parseRawDate parses git's "--date=raw" format: "<epoch-seconds> <±HHMM>".
func parseRawDate(s string) (int64, gitobj.Timezone, error) {
	sp := strings.IndexByte(s, ' ')
	if sp == -1 {
		return 0, gitobj.Timezone{}, fmt.Errorf("invalid raw date %q", s)
	}
	epoch, err := strconv.ParseInt(s[:sp], 10, 64)
	if err != nil {
		return 0, gitobj.Timezone{}, fmt.Errorf("invalid raw date %q: %v", s, err)
	}
	tz, err := gitobj.ParseTimezone(s[sp+1:])
	if err != nil {
		return 0, gitobj.Timezone{}, fmt.Errorf("invalid raw date %q: %v", s, err)
	}
	return epoch, tz, nil
}
