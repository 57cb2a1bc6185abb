// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/samber/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xtime

import "time"

// Using go:linkname is against the Go rules. There is another way to measure
// duration with a monotonic clock: time.Since(startTime) where startTime is
// the package's load time. This is marginally slower than a runtime.nanotime
// linkname but avoids the synctest incompatibilities that approach runs into.

var startTime = time.Now()

// NowNanoMonotonic returns nanoseconds elapsed since package init. It is
// used by timing-sensitive combinators (Debounce's pending-deadline check)
// in place of a fresh time.Now() call per update.
func NowNanoMonotonic() int64 {
	return time.Since(startTime).Nanoseconds()
}

// Elapsed reports the duration elapsed since a NowNanoMonotonic reading.
func Elapsed(since int64) time.Duration {
	return time.Duration(NowNanoMonotonic() - since)
}
