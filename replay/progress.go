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
	"math"
	"sync/atomic"
)

// Progress is an atomically-read fraction in [0, 1], safe for one writer
// (the replay worker) and any number of concurrent readers (the thread
// that started it, polling for UI updates).
type Progress struct {
	bits atomic.Uint64
}

// Load returns the current progress fraction.
func (p *Progress) Load() float64 {
	return math.Float64frombits(p.bits.Load())
}

// add accumulates delta, clamping the result to [0, 1]. Floating-point
// accumulation across many small 1/to_rewrite_count fractions can drift
// past 1 by a hair; clamping keeps the invariant exact rather than
// merely close.
func (p *Progress) add(delta float64) {
	for {
		old := p.bits.Load()
		next := math.Float64frombits(old) + delta
		if next > 1 {
			next = 1
		} else if next < 0 {
			next = 0
		}
		if p.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}
