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

package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gitbuster.dev/gitbuster/internal/gitshell"
	"gitbuster.dev/gitbuster/model"
)

var unmergedPrefixes = []model.GitStatus{
	model.StatusBothDeleted,
	model.StatusAddedByUs,
	model.StatusDeletedByThem,
	model.StatusAddedByThem,
	model.StatusDeletedByUs,
	model.StatusBothAdded,
	model.StatusBothModified,
}

// unmergedStatuses parses "git status --porcelain" output, returning the
// subset of entries whose two-letter code names one of the seven
// unmerged states.
func unmergedStatuses(lines []string) map[string]model.GitStatus {
	out := make(map[string]model.GitStatus)
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}
		code := model.GitStatus(line[:2])
		for _, u := range unmergedPrefixes {
			if code == u {
				out[line[3:]] = code
				break
			}
		}
	}
	return out
}

// collectConflict gathers the unmerged-file state left behind by a
// failed cherry-pick of commit c on top of parentHexsha: status codes,
// the diff between c's own original parent and c itself (split per
// path), the working-tree content git left behind, and the pre-image
// content from the replayed (translated) parent's tree.
func collectConflict(ctx context.Context, adapter *gitshell.Git, dir string, c *model.Commit, parentHexsha string) (map[string]model.FileConflict, error) {
	statusOut, _, _, err := adapter.Run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	statuses := unmergedStatuses(statusOut)

	origParentHexsha := parentHexsha
	if parents := c.Parents(); len(parents) > 0 {
		origParentHexsha = parents[0].Hexsha()
	}
	diffOut, _, _, err := adapter.Run(ctx, dir, "diff", origParentHexsha, c.Hexsha())
	if err != nil {
		return nil, err
	}
	diffs := splitDiffByPath(strings.Join(diffOut, "\n"))

	files := make(map[string]model.FileConflict, len(statuses))
	for path, status := range statuses {
		fc := model.FileConflict{Status: status, Path: path, Diff: diffs[path]}
		if status != model.StatusBothDeleted {
			if content, err := os.ReadFile(filepath.Join(dir, path)); err == nil {
				fc.WorkingTree = content
			}
		}
		if status != model.StatusAddedByThem && status != model.StatusDeletedByUs && status != model.StatusBothDeleted {
			if blob, err := adapter.TreeBlob(ctx, parentHexsha, path); err == nil {
				fc.OriginalBlob = blob
			}
		}
		files[path] = fc
	}
	return files, nil
}

// splitDiffByPath splits "git diff" output on "diff --git a/<path> ..."
// headers, keyed by the path named in each header.
func splitDiffByPath(diff string) map[string]string {
	out := make(map[string]string)
	if diff == "" {
		return out
	}
	const marker = "diff --git a/"
	segments := strings.Split(diff, marker)
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		sp := strings.IndexByte(seg, ' ')
		if sp == -1 {
			continue
		}
		path := seg[:sp]
		out[path] = marker + seg
	}
	return out
}

// applyResolution stages or removes one conflicted path per the user's
// chosen resolution.
func applyResolution(ctx context.Context, adapter *gitshell.Git, dir, path string, r model.Resolution) error {
	switch r.Kind {
	case model.ResolutionDelete:
		_, _, _, err := adapter.Run(ctx, dir, "rm", "-f", "--", path)
		return err
	case model.ResolutionAdd:
		_, _, _, err := adapter.Run(ctx, dir, "add", "--", path)
		return err
	case model.ResolutionAddCustom:
		if err := os.WriteFile(filepath.Join(dir, path), r.Content, 0o644); err != nil {
			return err
		}
		_, _, _, err := adapter.Run(ctx, dir, "add", "--", path)
		return err
	default:
		return nil
	}
}
