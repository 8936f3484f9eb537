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
	"math/rand"
	"testing"
	"time"

	"gitbuster.dev/gitbuster/timelapse"
)

func TestReorderCommitsAssignsNonDecreasingTimestamps(t *testing.T) {
	e, _ := newEditableFromChain(t)

	dates := []timelapse.DateRange{
		{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	times := []timelapse.TimeWindow{{Start: 0, End: 24 * time.Hour}}

	e.ReorderCommits(dates, times, nil, time.UTC, rand.New(rand.NewSource(7)))

	var prevAuthored, prevCommitted int64 = -1, -1
	for i := 0; i < e.Len(); i++ {
		authored, err := e.Data(i, ColAuthoredDate)
		if err != nil {
			t.Fatal(err)
		}
		committed, err := e.Data(i, ColCommittedDate)
		if err != nil {
			t.Fatal(err)
		}
		at := authored.(TimeValue)
		ct := committed.(TimeValue)
		if at.Epoch != ct.Epoch {
			t.Errorf("row %d: authored epoch %d != committed epoch %d", i, at.Epoch, ct.Epoch)
		}
		if at.Epoch < prevAuthored {
			t.Errorf("row %d: authored epoch %d is less than previous %d; want non-decreasing", i, at.Epoch, prevAuthored)
		}
		prevAuthored, prevCommitted = at.Epoch, ct.Epoch
	}
	_ = prevCommitted

	if e.GetModifiedCount() != e.Len() {
		t.Errorf("GetModifiedCount() = %d; want %d (every commit got a new timestamp)", e.GetModifiedCount(), e.Len())
	}

	// The whole redistribution is a single undo step.
	if !e.Undo() {
		t.Fatal("Undo() = false; want true")
	}
	authored, _ := e.Data(0, ColAuthoredDate)
	if got := authored.(TimeValue).Epoch; got != 300 {
		t.Errorf("after undo, row 0 authored epoch = %d; want 300 (original)", got)
	}
}
