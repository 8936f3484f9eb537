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

// Package timelapse redistributes a set of commit timestamps uniformly
// across a caller-supplied set of admissible date ranges, times of day,
// and weekdays — "make this history look like it was written during
// office hours over the last three months" rather than the deterministic
// burst git normally produces.
package timelapse

import (
	"math/rand"
	"sort"
	"time"
)

// DateRange is an inclusive, day-granularity admissible date interval.
type DateRange struct {
	Start, End time.Time
}

// TimeWindow is a daily admissible clock interval, e.g. 09:00–18:00.
// Start and End are interpreted as time-of-day only; their date
// components are ignored.
type TimeWindow struct {
	Start, End time.Duration // offsets from midnight
}

// Timelapse is a flattened, sorted list of admissible day+window
// intervals built from a cross product of date ranges, weekdays, and
// time windows.
type Timelapse struct {
	loc       *time.Location
	intervals []interval
	total     int64
}

type interval struct {
	dayStart time.Time // midnight, in loc
	window   TimeWindow
	offset   int64 // cumulative seconds before this interval
}

// New builds a Timelapse from the cross product of dates (restricted to
// the given weekdays, or every day if weekdays is empty) and times. Dates
// and times are evaluated in loc; if loc is nil, time.Local is used.
func New(dates []DateRange, times []TimeWindow, weekdays []time.Weekday, loc *time.Location) *Timelapse {
	if loc == nil {
		loc = time.Local
	}
	allowed := make(map[time.Weekday]bool)
	for _, wd := range weekdays {
		allowed[wd] = true
	}
	anyWeekday := len(weekdays) == 0

	tl := &Timelapse{loc: loc}
	var cumulative int64
	for _, dr := range dates {
		start := time.Date(dr.Start.Year(), dr.Start.Month(), dr.Start.Day(), 0, 0, 0, 0, loc)
		end := time.Date(dr.End.Year(), dr.End.Month(), dr.End.Day(), 0, 0, 0, 0, loc)
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			if !anyWeekday && !allowed[day.Weekday()] {
				continue
			}
			for _, w := range times {
				dur := int64((w.End - w.Start).Seconds())
				if dur <= 0 {
					continue
				}
				tl.intervals = append(tl.intervals, interval{dayStart: day, window: w, offset: cumulative})
				cumulative += dur
			}
		}
	}
	tl.total = cumulative
	return tl
}

// TotalSeconds returns the number of admissible seconds across every
// interval. It is zero if no date/time/weekday combination is
// admissible.
func (tl *Timelapse) TotalSeconds() int64 {
	return tl.total
}

// DateTimeFromSeconds maps an offset in [0, TotalSeconds()) to an
// absolute point in time, by locating which admissible interval the
// offset falls in and adding the remainder to that interval's window
// start.
func (tl *Timelapse) DateTimeFromSeconds(offset int64) time.Time {
	if len(tl.intervals) == 0 {
		return time.Time{}
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= tl.total {
		offset = tl.total - 1
	}
	i := sort.Search(len(tl.intervals), func(i int) bool {
		next := tl.total
		if i+1 < len(tl.intervals) {
			next = tl.intervals[i+1].offset
		}
		return offset < next
	})
	iv := tl.intervals[i]
	remainder := offset - iv.offset
	return iv.dayStart.Add(iv.window.Start + time.Duration(remainder)*time.Second)
}

// Assignable is a commit-like value whose timestamp ReorderCommits can
// set. This package does not depend on model; model's
// Editable.ReorderCommits does not go through Assignable and calls
// AssignOffsets and DateTimeFromSeconds directly.
type Assignable interface {
	SetDate(t time.Time)
}

// AssignOffsets draws n uniform offsets in [0, TotalSeconds()), sorted
// ascending, so the k-th caller-supplied item always receives the k-th
// (non-decreasing) instant.
func (tl *Timelapse) AssignOffsets(n int, rng *rand.Rand) []int64 {
	if n <= 0 || tl.TotalSeconds() <= 0 {
		return nil
	}
	offsets := make([]int64, n)
	for i := range offsets {
		offsets[i] = rng.Int63n(tl.TotalSeconds())
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}

// ReorderCommits redistributes commits uniformly across tl's admissible
// interval, preserving their relative chronological order: the earliest
// input keeps the earliest assigned instant. rng supplies randomness; a
// deterministically-seeded *rand.Rand keeps tests reproducible.
func ReorderCommits(commits []Assignable, tl *Timelapse, rng *rand.Rand) {
	offsets := tl.AssignOffsets(len(commits), rng)
	for i, c := range commits {
		c.SetDate(tl.DateTimeFromSeconds(offsets[i]))
	}
}
