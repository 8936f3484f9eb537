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

package gitobj

import (
	"testing"
	"time"
)

func TestParseHash(t *testing.T) {
	const s = "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	h, err := ParseHash(s)
	if err != nil {
		t.Fatal(err)
	}
	if got := h.String(); got != s {
		t.Errorf("h.String() = %q; want %q", got, s)
	}
	if h.IsZero() {
		t.Error("h.IsZero() = true for a non-zero hash")
	}
	if !(Hash{}).IsZero() {
		t.Error("(Hash{}).IsZero() = false")
	}

	if _, err := ParseHash("abc"); err == nil {
		t.Error("ParseHash(\"abc\") did not return an error")
	}
}

func TestRefBranch(t *testing.T) {
	r := BranchRef("main")
	if got, want := r.String(), "refs/heads/main"; got != want {
		t.Errorf("r.String() = %q; want %q", got, want)
	}
	if !r.IsBranch() {
		t.Error("r.IsBranch() = false for refs/heads/main")
	}
	if got, want := r.Branch(), "main"; got != want {
		t.Errorf("r.Branch() = %q; want %q", got, want)
	}

	if Head.IsBranch() {
		t.Error("Head.IsBranch() = true")
	}
	if got := Head.Branch(); got != "" {
		t.Errorf("Head.Branch() = %q; want \"\"", got)
	}
}

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		s       string
		wantErr bool
	}{
		{"+0000", false},
		{"-0700", false},
		{"+0530", false},
		{"garbage", true},
		{"+2400", true},
		{"+0060", true},
	}
	for _, test := range tests {
		tz, err := ParseTimezone(test.s)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseTimezone(%q) error = %v; want error = %t", test.s, err, test.wantErr)
			continue
		}
		if err == nil && tz.String() != test.s {
			t.Errorf("ParseTimezone(%q).String() = %q; want %q", test.s, tz.String(), test.s)
		}
	}
}

func TestTimezoneFromOffset(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "+0000"},
		{-7 * 3600, "-0700"},
		{5*3600 + 30*60, "+0530"},
	}
	for _, test := range tests {
		if got := TimezoneFromOffset(test.seconds).String(); got != test.want {
			t.Errorf("TimezoneFromOffset(%d).String() = %q; want %q", test.seconds, got, test.want)
		}
	}
}

func TestTimezoneDuration(t *testing.T) {
	tz, err := ParseTimezone("-0530")
	if err != nil {
		t.Fatal(err)
	}
	want := -(5*time.Hour + 30*time.Minute)
	if got := tz.Duration(); got != want {
		t.Errorf("tz.Duration() = %v; want %v", got, want)
	}
}

func TestGitDate(t *testing.T) {
	tz, err := ParseTimezone("+0200")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := GitDate(1000, tz), "1000 +0200"; got != want {
		t.Errorf("GitDate(1000, tz) = %q; want %q", got, want)
	}
}
