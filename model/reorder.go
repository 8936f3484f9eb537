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
	"time"

	"gitbuster.dev/gitbuster/internal/gitobj"
	"gitbuster.dev/gitbuster/timelapse"
)

// ReorderCommits uniformly redistributes authored_date and
// committed_date across the admissible instants of a timelapse built
// from dates, times, and weekdays, assigning the earliest instant to the
// current topmost row and non-decreasing instants down the row order.
// The whole operation is recorded as a single undo/redo event.
func (e *Editable) ReorderCommits(dates []timelapse.DateRange, times []timelapse.TimeWindow, weekdays []time.Weekday, loc *time.Location, rng *rand.Rand) {
	tl := timelapse.New(dates, times, weekdays, loc)
	offsets := tl.AssignOffsets(len(e.commits), rng)
	if offsets == nil {
		return
	}

	e.StartHistoryEvent()
	for i := range e.commits {
		t := tl.DateTimeFromSeconds(offsets[i])
		_, offsetSeconds := t.Zone()
		tv := TimeValue{Epoch: t.Unix(), TZ: gitobj.TimezoneFromOffset(offsetSeconds)}
		e.setData(i, ColAuthoredDate, tv, false)
		e.setData(i, ColCommittedDate, tv, false)
	}
}
