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
	"time"
)

// MapFuture transforms a successful completion through f; a failure passes
// through unchanged. A panic inside f is captured into the downstream
// failure instead of propagating to the caller.
func MapFuture[T, V any](upstream Future[T], f func(T) V, token *CancellationToken) Future[V] {
	downstream := NewPromise[V]()
	if token != nil {
		downstream.CancelOn(token)
	}

	h := upstream.OnComplete(Immediate(), func(v Fallible[T]) {
		downstream.TryComplete(FallibleMap(v, f))
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// RecoverFuture applies f to turn a failed completion into a success; a
// successful completion passes through unchanged.
func RecoverFuture[T any](upstream Future[T], f func(error) T, token *CancellationToken) Future[T] {
	downstream := NewPromise[T]()
	if token != nil {
		downstream.CancelOn(token)
	}

	h := upstream.OnComplete(Immediate(), func(v Fallible[T]) {
		downstream.TryComplete(FallibleRecover(v, f))
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// FlatMapFuture chains a second future-producing step off a successful
// completion of upstream; a failure at either stage short-circuits.
func FlatMapFuture[T, V any](upstream Future[T], f func(T) Future[V], token *CancellationToken) Future[V] {
	downstream := NewPromise[V]()
	if token != nil {
		downstream.CancelOn(token)
	}

	h := upstream.OnComplete(Immediate(), func(v Fallible[T]) {
		value, ok := v.Value()
		if !ok {
			downstream.TryComplete(Failure[V](v.Error()))
			return
		}

		inner := f(value)
		innerHandler := inner.OnComplete(Immediate(), func(iv Fallible[V]) {
			downstream.TryComplete(iv)
		})
		downstream.InsertToReleasePool(innerHandler)
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// Zipped is the (A,B) pair a Zip completes with.
type Zipped[A, B any] struct {
	First  A
	Second B
}

// Zip completes with (a,b) once both upstreams have succeeded; it fails as
// soon as either upstream fails, with that first failure.
func Zip[A, B any](a Future[A], b Future[B], token *CancellationToken) Future[Zipped[A, B]] {
	downstream := NewPromise[Zipped[A, B]]()
	if token != nil {
		downstream.CancelOn(token)
	}

	var (
		mu            sync.Mutex
		aValue        A
		bValue        B
		aDone, bDone  bool
		failedAlready bool
	)

	tryComplete := func() {
		mu.Lock()
		defer mu.Unlock()

		if failedAlready || !aDone || !bDone {
			return
		}

		downstream.TryComplete(Success(Zipped[A, B]{First: aValue, Second: bValue}))
	}

	ha := a.OnComplete(Immediate(), func(v Fallible[A]) {
		value, ok := v.Value()
		if !ok {
			mu.Lock()
			failedAlready = true
			mu.Unlock()
			downstream.TryComplete(Failure[Zipped[A, B]](v.Error()))

			return
		}

		mu.Lock()
		aValue = value
		aDone = true
		mu.Unlock()
		tryComplete()
	})

	hb := b.OnComplete(Immediate(), func(v Fallible[B]) {
		value, ok := v.Value()
		if !ok {
			mu.Lock()
			failedAlready = true
			mu.Unlock()
			downstream.TryComplete(Failure[Zipped[A, B]](v.Error()))

			return
		}

		mu.Lock()
		bValue = value
		bDone = true
		mu.Unlock()
		tryComplete()
	})

	downstream.InsertToReleasePool(ha)
	downstream.InsertToReleasePool(hb)

	return downstream
}

// Joined completes with the slice of successes in input order once every
// future in futures has succeeded, or with the first failure observed.
func Joined[T any](futures []Future[T], token *CancellationToken) Future[[]T] {
	downstream := NewPromise[[]T]()
	if token != nil {
		downstream.CancelOn(token)
	}

	n := len(futures)
	if n == 0 {
		downstream.TryComplete(Success([]T{}))
		return downstream
	}

	var (
		mu        sync.Mutex
		results   = make([]T, n)
		remaining = n
		failed    bool
	)

	for i, f := range futures {
		i := i

		h := f.OnComplete(Immediate(), func(v Fallible[T]) {
			value, ok := v.Value()
			if !ok {
				mu.Lock()
				already := failed
				failed = true
				mu.Unlock()

				if !already {
					downstream.TryComplete(Failure[[]T](v.Error()))
				}

				return
			}

			mu.Lock()
			results[i] = value
			remaining--
			done := remaining == 0 && !failed
			out := results
			mu.Unlock()

			if done {
				downstream.TryComplete(Success(out))
			}
		})

		downstream.InsertToReleasePool(h)
	}

	return downstream
}

// Timeout fails the returned Future with ErrTimeout if upstream has not
// completed within d; otherwise it forwards upstream's completion.
func Timeout[T any](upstream Future[T], d time.Duration) Future[T] {
	downstream := NewPromise[T]()

	timerHandle := time.AfterFunc(d, func() {
		downstream.Fail(ErrTimeout)
	})

	h := upstream.OnComplete(Immediate(), func(v Fallible[T]) {
		timerHandle.Stop()
		downstream.TryComplete(v)
	})

	downstream.InsertToReleasePool(h)
	downstream.InsertToReleasePool(stopper(func() { timerHandle.Stop() }))

	return downstream
}
