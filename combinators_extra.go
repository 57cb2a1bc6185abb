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

package flux

import (
	"sync"

	"golang.org/x/exp/constraints"
)

// Filter forwards only the updates for which predicate returns true.
// Completion always passes through unchanged.
func Filter[U, S any](upstream Channel[U, S], bufferSize int, predicate func(U) bool, token *CancellationToken) Channel[U, S] {
	downstream := NewProducer[U, S](bufferSize)
	bindCancellation(downstream, token)

	h := upstream.OnEvent(Immediate(), func(u U) {
		if predicate(u) {
			downstream.Update(u)
		}
	}, func(s Fallible[S]) {
		downstream.Complete(s)
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// Take forwards at most n updates. Once the nth update has been forwarded it
// completes successfully with n; if upstream completes first, a success
// becomes a success carrying the number of updates forwarded so far and a
// failure is forwarded unchanged. n <= 0 completes immediately with zero. n
// is constrained to any integer type so callers can size it the same as
// whatever counter type they already have in scope.
func Take[U any, S, N constraints.Integer](upstream Channel[U, S], bufferSize int, n N, token *CancellationToken) Channel[U, int] {
	downstream := NewProducer[U, int](bufferSize)
	bindCancellation(downstream, token)

	limit := int(n)
	if limit <= 0 {
		downstream.Complete(Success(0))
		return downstream
	}

	var (
		mu    sync.Mutex
		count int
	)

	h := upstream.OnEvent(Immediate(), func(u U) {
		mu.Lock()
		if count >= limit {
			mu.Unlock()
			return
		}

		count++
		reachedLimit := count == limit
		mu.Unlock()

		downstream.Update(u)

		if reachedLimit {
			downstream.Complete(Success(count))
		}
	}, func(s Fallible[S]) {
		if s.IsSuccess() {
			mu.Lock()
			c := count
			mu.Unlock()
			downstream.Complete(Success(c))

			return
		}

		downstream.Complete(Failure[int](s.Error()))
	})

	downstream.InsertToReleasePool(h)

	return downstream
}
