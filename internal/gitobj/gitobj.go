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

// Package gitobj provides the small value types shared by every other
// package in this module: commit hashes, refs, and the fixed-offset
// timezone git uses for author/committer dates.
package gitobj

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// hashSize is the number of bytes in a (binary, not hex-encoded) SHA-1 hash.
const hashSize = 20

// A Hash is the SHA-1 hash of a Git object.
type Hash [hashSize]byte

// ParseHash parses a hex-encoded hash.
func ParseHash(s string) (Hash, error) {
	if len(s) != hex.EncodedLen(hashSize) {
		return Hash{}, fmt.Errorf("parse hash %q: wrong size", s)
	}
	var h Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Hash{}, fmt.Errorf("parse hash %q: %v", s, err)
	}
	return h, nil
}

// String returns the hex-encoded hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// A Ref is a Git reference, e.g. "refs/heads/main".
type Ref string

// Top-level refs.
const (
	Head      Ref = "HEAD"
	FetchHead Ref = "FETCH_HEAD"
)

const (
	branchPrefix = "refs/heads/"
	tagPrefix    = "refs/tags/"
)

// BranchRef returns the ref for the given local branch name.
func BranchRef(name string) Ref {
	return branchPrefix + Ref(name)
}

// String returns the ref as a string.
func (r Ref) String() string {
	return string(r)
}

// IsBranch reports whether r names a local branch.
func (r Ref) IsBranch() bool {
	return strings.HasPrefix(string(r), branchPrefix)
}

// Branch returns the branch name, or "" if r does not name a local branch.
func (r Ref) Branch() string {
	if !r.IsBranch() {
		return ""
	}
	return string(r[len(branchPrefix):])
}

// Timezone is a fixed UTC offset in the "+HHMM"/"-HHMM" form git uses for
// GIT_AUTHOR_DATE/GIT_COMMITTER_DATE and for author_tz/committer_tz.
// Unlike a *time.Location, it carries its own sign-preserving string
// representation, so "-0000" and "+0000" round-trip distinctly the way
// git itself treats them.
type Timezone struct {
	offset string // normalized "+HHMM" / "-HHMM"
}

// UTC is the zero-offset timezone "+0000".
var UTC = Timezone{offset: "+0000"}

// ParseTimezone parses a "+HHMM" or "-HHMM" offset string.
func ParseTimezone(s string) (Timezone, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return Timezone{}, fmt.Errorf("parse timezone %q: invalid format", s)
	}
	hh, err := strconv.Atoi(s[1:3])
	if err != nil {
		return Timezone{}, fmt.Errorf("parse timezone %q: %v", s, err)
	}
	mm, err := strconv.Atoi(s[3:5])
	if err != nil {
		return Timezone{}, fmt.Errorf("parse timezone %q: %v", s, err)
	}
	if hh > 23 || mm > 59 {
		return Timezone{}, fmt.Errorf("parse timezone %q: out of range", s)
	}
	return Timezone{offset: s}, nil
}

// TimezoneFromOffset builds a Timezone from a UTC offset in seconds, the
// form time.Time.Zone() returns.
func TimezoneFromOffset(offsetSeconds int) Timezone {
	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	hh := offsetSeconds / 3600
	mm := (offsetSeconds % 3600) / 60
	return Timezone{offset: fmt.Sprintf("%s%02d%02d", sign, hh, mm)}
}

// String returns the "+HHMM"/"-HHMM" representation.
func (tz Timezone) String() string {
	if tz.offset == "" {
		return "+0000"
	}
	return tz.offset
}

// Duration returns the offset from UTC as a time.Duration.
func (tz Timezone) Duration() time.Duration {
	s := tz.String()
	sign := time.Duration(1)
	if s[0] == '-' {
		sign = -1
	}
	hh, _ := strconv.Atoi(s[1:3])
	mm, _ := strconv.Atoi(s[3:5])
	return sign * (time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

// Location returns a *time.Location with this fixed offset.
func (tz Timezone) Location() *time.Location {
	return time.FixedZone(tz.String(), int(tz.Duration().Seconds()))
}

// GitDate formats a seconds-since-epoch timestamp together with this
// timezone the way git expects it in GIT_AUTHOR_DATE/GIT_COMMITTER_DATE:
// "<epoch-seconds> <±HHMM>".
func GitDate(epochSeconds int64, tz Timezone) string {
	return strconv.FormatInt(epochSeconds, 10) + " " + tz.String()
}
