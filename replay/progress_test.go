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

import "testing"

func TestProgressAddAccumulates(t *testing.T) {
	var p Progress
	p.add(0.25)
	p.add(0.25)
	if got, want := p.Load(), 0.5; got != want {
		t.Errorf("Load() = %v; want %v", got, want)
	}
}

func TestProgressAddClampsToOne(t *testing.T) {
	var p Progress
	p.add(0.9)
	p.add(0.9)
	if got, want := p.Load(), 1.0; got != want {
		t.Errorf("Load() = %v; want %v (clamped)", got, want)
	}
}

func TestProgressAddClampsToZero(t *testing.T) {
	var p Progress
	p.add(-0.5)
	if got, want := p.Load(), 0.0; got != want {
		t.Errorf("Load() = %v; want %v (clamped)", got, want)
	}
}

func TestProgressZeroValueLoad(t *testing.T) {
	var p Progress
	if got, want := p.Load(), 0.0; got != want {
		t.Errorf("zero-value Load() = %v; want %v", got, want)
	}
}
