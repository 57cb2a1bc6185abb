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

	"github.com/samber/lo"

	"github.com/go-flux/flux/internal/xtime"
)

// MapChannel transforms every update of upstream through f, preserving
// completion. If f panics, the downstream completes with that failure
// instead of forwarding further updates.
func MapChannel[U, V, S any](upstream Channel[U, S], bufferSize int, f func(U) V, token *CancellationToken) Channel[V, S] {
	downstream := NewProducer[V, S](bufferSize)
	bindCancellation(downstream, token)

	h := upstream.OnEvent(Immediate(), func(u U) {
		mapped, err := safeCall(func() (V, error) { return f(u), nil })
		if err != nil {
			downstream.Complete(Failure[S](err))
			return
		}

		downstream.Update(mapped)
	}, func(s Fallible[S]) {
		downstream.Complete(s)
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// RecoverChannel applies f to turn an upstream failure into a success;
// successful completions pass through unchanged.
func RecoverChannel[U, S any](upstream Channel[U, S], bufferSize int, f func(error) S, token *CancellationToken) Channel[U, S] {
	downstream := NewProducer[U, S](bufferSize)
	bindCancellation(downstream, token)

	h := upstream.OnEvent(Immediate(), func(u U) {
		downstream.Update(u)
	}, func(s Fallible[S]) {
		if s.IsSuccess() {
			downstream.Complete(s)
			return
		}

		downstream.Complete(FallibleRecover(s, f))
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// Enumerated attaches a monotonically increasing 0-based index to each
// update. The counter is guarded by a mutex per spec 4.I (a per-combinator
// lock, not a lock-free counter, since it is paired with dispatch under the
// same invariant as the other stateful combinators).
type Enumerated[U any] struct {
	Index int
	Value U
}

func EnumeratedChannel[U, S any](upstream Channel[U, S], bufferSize int, token *CancellationToken) Channel[Enumerated[U], S] {
	downstream := NewProducer[Enumerated[U], S](bufferSize)
	bindCancellation(downstream, token)

	var mu sync.Mutex
	next := 0

	h := upstream.OnEvent(Immediate(), func(u U) {
		mu.Lock()
		idx := next
		next++
		mu.Unlock()

		downstream.Update(Enumerated[U]{Index: idx, Value: u})
	}, func(s Fallible[S]) {
		downstream.Complete(s)
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// Pair is the (previous, current) tuple emitted by BufferedPairs.
type Pair[U any] struct {
	Previous U
	Current  U
}

// BufferedPairs emits (prev, curr) for every update after the first; the
// first upstream update is held as state and yields nothing.
func BufferedPairs[U, S any](upstream Channel[U, S], bufferSize int, token *CancellationToken) Channel[Pair[U], S] {
	downstream := NewProducer[Pair[U], S](bufferSize)
	bindCancellation(downstream, token)

	var (
		mu      sync.Mutex
		hasPrev bool
		prev    U
	)

	h := upstream.OnEvent(Immediate(), func(u U) {
		mu.Lock()
		if !hasPrev {
			hasPrev = true
			prev = u
			mu.Unlock()

			return
		}

		pair := Pair[U]{Previous: prev, Current: u}
		prev = u
		mu.Unlock()

		downstream.Update(pair)
	}, func(s Fallible[S]) {
		downstream.Complete(s)
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// Buffered collects updates into batches of length capacity, emitting each
// full batch as it fills. On completion, a non-empty partial batch is
// flushed before the completion is forwarded.
func Buffered[U, S any](upstream Channel[U, S], bufferSize int, capacity int, token *CancellationToken) Channel[[]U, S] {
	if capacity <= 0 {
		capacity = 1
	}

	downstream := NewProducer[[]U, S](bufferSize)
	bindCancellation(downstream, token)

	var (
		mu    sync.Mutex
		batch = make([]U, 0, capacity)
	)

	h := upstream.OnEvent(Immediate(), func(u U) {
		mu.Lock()
		batch = append(batch, u)

		var full []U
		if len(batch) == capacity {
			full = batch
			batch = make([]U, 0, capacity)
		}
		mu.Unlock()

		if full != nil {
			downstream.Update(full)
		}
	}, func(s Fallible[S]) {
		mu.Lock()
		var partial []U
		if len(batch) > 0 {
			partial = batch
			batch = nil
		}
		mu.Unlock()

		if partial != nil {
			downstream.Update(partial)
		}

		downstream.Complete(s)
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// DelayedUpdate re-dispatches every event (update or completion) via
// executor.ExecuteAfter(delay). Order is preserved only if the underlying
// executor preserves the order of delayed tasks. Primary does not: it starts
// each delayed task from its own timer and runs it on a concurrent pool.
func DelayedUpdate[U, S any](upstream Channel[U, S], bufferSize int, executor Executor, delay time.Duration, token *CancellationToken) Channel[U, S] {
	downstream := NewProducer[U, S](bufferSize)
	bindCancellation(downstream, token)

	h := upstream.OnEvent(Immediate(), func(u U) {
		executor.ExecuteAfter(delay, func() { downstream.Update(u) })
	}, func(s Fallible[S]) {
		executor.ExecuteAfter(delay, func() { downstream.Complete(s) })
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// Debounce lets the first upstream update pass through immediately, then
// coalesces subsequent updates: a ticker fires every interval, and on each
// tick a pending update (if any) is emitted and cleared. On upstream
// completion, a pending update is flushed before the completion is
// forwarded. leeway and deadline are accepted for interface parity with the
// source design's debounce tuning (burst leeway, maximum coalescing
// horizon) and are honored by capping how long a pending value may wait:
// if deadline > 0 and a value has been pending at least deadline, it is
// emitted on the next tick regardless of leeway. The deadline is measured
// from the update that made a value pending; later updates replace the
// pending value without restarting it.
func Debounce[U, S any](upstream Channel[U, S], bufferSize int, interval, leeway, deadline time.Duration, token *CancellationToken) Channel[U, S] {
	downstream := NewProducer[U, S](bufferSize)
	bindCancellation(downstream, token)

	var (
		mu        sync.Mutex
		pending   U
		isPending bool
		first     = true
		pendingAt int64
	)

	ticker := time.NewTicker(interval)
	stop := make(chan struct{})

	flush := func() {
		mu.Lock()
		if !isPending {
			mu.Unlock()
			return
		}

		value := pending
		isPending = false
		mu.Unlock()

		downstream.Update(value)
	}

	go func() {
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				due := isPending && (deadline <= 0 || xtime.Elapsed(pendingAt) >= deadline || leeway <= 0)
				mu.Unlock()

				if due {
					flush()
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	h := upstream.OnEvent(Immediate(), func(u U) {
		mu.Lock()
		if first {
			first = false
			mu.Unlock()
			downstream.Update(u)

			return
		}

		pending = u
		if !isPending {
			pendingAt = xtime.NowNanoMonotonic()
		}
		isPending = true
		mu.Unlock()
	}, func(s Fallible[S]) {
		flush()
		close(stop)
		downstream.Complete(s)
	})

	downstream.InsertToReleasePool(h)
	downstream.InsertToReleasePool(stopper(func() {
		select {
		case <-stop:
		default:
			close(stop)
		}
	}))

	return downstream
}

// Distinct emits the first update unconditionally; subsequent updates only
// if !eq(prev, curr).
func Distinct[U, S any](upstream Channel[U, S], bufferSize int, eq func(a, b U) bool, token *CancellationToken) Channel[U, S] {
	downstream := NewProducer[U, S](bufferSize)
	bindCancellation(downstream, token)

	var (
		mu      sync.Mutex
		hasPrev bool
		prev    U
	)

	h := upstream.OnEvent(Immediate(), func(u U) {
		mu.Lock()
		if hasPrev && eq(prev, u) {
			mu.Unlock()
			return
		}

		hasPrev = true
		prev = u
		mu.Unlock()

		downstream.Update(u)
	}, func(s Fallible[S]) {
		downstream.Complete(s)
	})

	downstream.InsertToReleasePool(h)

	return downstream
}

// DistinctComparable is Distinct specialized to comparable element types
// using ==.
func DistinctComparable[U comparable, S any](upstream Channel[U, S], bufferSize int, token *CancellationToken) Channel[U, S] {
	return Distinct(upstream, bufferSize, func(a, b U) bool { return a == b }, token)
}

func bindCancellation[U, S any](downstream *Producer[U, S], token *CancellationToken) {
	if token == nil {
		return
	}

	downstream.CancelOn(token)
}

// stopper adapts a plain func() into the releasable interface so it can be
// inserted into a ReleasePool alongside a *ChannelHandler.
type stopper func()

func (s stopper) Unsubscribe() { s() }

func safeCall[V any](fn func() (V, error)) (result V, err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			result, err = fn()
			return err
		},
		func(e any) {
			err = newObserverError(recoverValueToError(e))
		},
	)

	return result, err
}
