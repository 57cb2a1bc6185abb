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

import "sync/atomic"

// headUpdate describes the outcome an update function requests for a
// casHead: replace the current state, clear it, or leave it untouched.
type headUpdate uint8

const (
	headReplace headUpdate = iota
	headRemove
	headKeep
)

// casHead is the thread-safe container shared by Promise and Producer: a
// single atomic pointer to an immutable state value, mutated through a
// compare-and-swap retry loop. It is the direct translation of the source's
// "head as a singly-linked stack updated by CAS": instead of a raw tagged
// pointer, Go's atomic.Pointer gives us a native CAS over a pointer-sized
// word, and the state itself (Subscribed/Completed, or Open/Closed) is
// represented by the pointee.
type casHead[S any] struct {
	ptr atomic.Pointer[S]
}

// Load returns the current state without blocking.
func (c *casHead[S]) Load() *S {
	return c.ptr.Load()
}

// Update retries fn against the current state until the CAS succeeds. fn
// receives the current state (nil on the very first call if never
// initialized) and returns the desired new state plus a headUpdate
// disposition. It returns the state observed before and after the
// successful CAS.
func (c *casHead[S]) Update(fn func(old *S) (*S, headUpdate)) (old, updated *S) {
	for {
		old = c.ptr.Load()

		next, disposition := fn(old)

		switch disposition {
		case headKeep:
			return old, old
		case headRemove:
			next = nil
		case headReplace:
			// next already set by fn
		}

		if c.ptr.CompareAndSwap(old, next) {
			return old, next
		}
	}
}
