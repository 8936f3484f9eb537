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

//go:build windows

package sigterm

import "os"

var signals = []os.Signal{os.Interrupt}

func terminate(p *os.Process) {
	if p == nil {
		return
	}
	// Windows has no SIGTERM; the best available approximation is a
	// hard kill.
	p.Kill()
}
