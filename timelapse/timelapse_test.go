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

package timelapse

import (
	"math/rand"
	"testing"
	"time"
)

func TestTotalSeconds(t *testing.T) {
	loc := time.UTC
	dates := []DateRange{
		{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, loc), End: time.Date(2024, 1, 2, 0, 0, 0, 0, loc)},
	}
	times := []TimeWindow{
		{Start: 9 * time.Hour, End: 17 * time.Hour},
	}
	tl := New(dates, times, nil, loc)
	if got, want := tl.TotalSeconds(), int64(2*8*3600); got != want {
		t.Errorf("TotalSeconds() = %d; want %d", got, want)
	}
}

func TestWeekdayFilter(t *testing.T) {
	loc := time.UTC
	// 2024-01-01 is a Monday; restrict to weekends only, so a one-week
	// range admits exactly the following Saturday and Sunday.
	dates := []DateRange{
		{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, loc), End: time.Date(2024, 1, 7, 0, 0, 0, 0, loc)},
	}
	times := []TimeWindow{{Start: 0, End: 24 * time.Hour}}
	tl := New(dates, times, []time.Weekday{time.Saturday, time.Sunday}, loc)
	if got, want := tl.TotalSeconds(), int64(2*24*3600); got != want {
		t.Errorf("TotalSeconds() = %d; want %d (2 weekend days)", got, want)
	}
}

func TestDateTimeFromSeconds(t *testing.T) {
	loc := time.UTC
	dates := []DateRange{
		{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, loc), End: time.Date(2024, 1, 2, 0, 0, 0, 0, loc)},
	}
	times := []TimeWindow{{Start: 9 * time.Hour, End: 10 * time.Hour}}
	tl := New(dates, times, nil, loc)

	// Two one-hour windows back to back: day 1 covers [0,3600), day 2
	// covers [3600,7200).
	got := tl.DateTimeFromSeconds(0)
	want := time.Date(2024, 1, 1, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("DateTimeFromSeconds(0) = %v; want %v", got, want)
	}

	got = tl.DateTimeFromSeconds(3600)
	want = time.Date(2024, 1, 2, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("DateTimeFromSeconds(3600) = %v; want %v", got, want)
	}

	got = tl.DateTimeFromSeconds(1800)
	want = time.Date(2024, 1, 1, 9, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("DateTimeFromSeconds(1800) = %v; want %v", got, want)
	}
}

func TestAssignOffsetsSortedAndBounded(t *testing.T) {
	loc := time.UTC
	dates := []DateRange{
		{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, loc), End: time.Date(2024, 1, 10, 0, 0, 0, 0, loc)},
	}
	times := []TimeWindow{{Start: 0, End: 24 * time.Hour}}
	tl := New(dates, times, nil, loc)

	rng := rand.New(rand.NewSource(1))
	offsets := tl.AssignOffsets(20, rng)
	if len(offsets) != 20 {
		t.Fatalf("len(offsets) = %d; want 20", len(offsets))
	}
	for i, o := range offsets {
		if o < 0 || o >= tl.TotalSeconds() {
			t.Errorf("offsets[%d] = %d out of range [0, %d)", i, o, tl.TotalSeconds())
		}
		if i > 0 && offsets[i-1] > o {
			t.Errorf("offsets not sorted ascending at index %d: %d > %d", i, offsets[i-1], o)
		}
	}
}

func TestAssignOffsetsEmptyTimelapse(t *testing.T) {
	tl := New(nil, nil, nil, time.UTC)
	rng := rand.New(rand.NewSource(1))
	if offsets := tl.AssignOffsets(5, rng); offsets != nil {
		t.Errorf("AssignOffsets on an empty Timelapse = %v; want nil", offsets)
	}
}

type fakeAssignable struct {
	date time.Time
}

func (f *fakeAssignable) SetDate(t time.Time) { f.date = t }

func TestReorderCommitsPreservesOrder(t *testing.T) {
	loc := time.UTC
	dates := []DateRange{
		{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, loc), End: time.Date(2024, 3, 1, 0, 0, 0, 0, loc)},
	}
	times := []TimeWindow{{Start: 0, End: 24 * time.Hour}}
	tl := New(dates, times, nil, loc)

	items := make([]Assignable, 5)
	backing := make([]*fakeAssignable, 5)
	for i := range items {
		backing[i] = &fakeAssignable{}
		items[i] = backing[i]
	}
	ReorderCommits(items, tl, rand.New(rand.NewSource(42)))

	for i := 1; i < len(backing); i++ {
		if backing[i-1].date.After(backing[i].date) {
			t.Errorf("backing[%d].date = %v is after backing[%d].date = %v; want non-decreasing", i-1, backing[i-1].date, i, backing[i].date)
		}
	}
}
