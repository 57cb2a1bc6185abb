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
	"time"
	"weak"

	"github.com/samber/lo"
)

// NewFuture runs fn on executor and returns a Future that completes with
// its result.
func NewFuture[T any](executor Executor, fn func() Fallible[T]) Future[T] {
	p := NewPromise[T]()

	executor.Execute(func() {
		p.TryComplete(safeInvoke(fn))
	})

	return p
}

// NewFutureAfter runs fn on executor after at least delay has elapsed.
func NewFutureAfter[T any](executor Executor, delay time.Duration, fn func() Fallible[T]) Future[T] {
	p := NewPromise[T]()

	executor.ExecuteAfter(delay, func() {
		p.TryComplete(safeInvoke(fn))
	})

	return p
}

// NewFutureWithContext runs fn(obj) on executor, weakly holding obj. If obj
// has already been garbage collected by the time executor runs the task,
// the Future fails with ErrContextDeallocated instead of calling fn.
func NewFutureWithContext[C, T any](obj *C, executor Executor, fn func(*C) Fallible[T]) Future[T] {
	p := NewPromise[T]()
	weakObj := weak.Make(obj)

	executor.Execute(func() {
		v := weakObj.Value()
		if v == nil {
			p.TryComplete(Failure[T](ErrContextDeallocated))
			return
		}

		p.TryComplete(safeInvoke(func() Fallible[T] { return fn(v) }))
	})

	return p
}

// NewCompletedFuture returns a Future already resolved to value. It is an
// alias of CompletedFuture kept for symmetry with the other constructors.
func NewCompletedFuture[T any](value Fallible[T]) Future[T] {
	return CompletedFuture(value)
}

// NewManualPromise creates a Promise, schedules fn(promise) on executor
// after delay (immediately if delay <= 0), and optionally cancels the
// promise when token fires. fn is responsible for eventually calling
// Succeed, Fail or TryComplete on the promise it is given.
func NewManualPromise[T any](executor Executor, delay time.Duration, token *CancellationToken, fn func(*Promise[T])) *Promise[T] {
	p := NewPromise[T]()

	if token != nil {
		p.CancelOn(token)
	}

	run := func() { fn(p) }

	if delay > 0 {
		executor.ExecuteAfter(delay, run)
	} else {
		executor.Execute(run)
	}

	return p
}

// NewManualPromiseWithContext is the contextual variant of NewManualPromise:
// obj is held weakly, and fn is only invoked if obj is still alive when the
// task runs; otherwise the promise fails with ErrContextDeallocated.
func NewManualPromiseWithContext[C, T any](obj *C, executor Executor, delay time.Duration, token *CancellationToken, fn func(*C, *Promise[T])) *Promise[T] {
	p := NewPromise[T]()
	weakObj := weak.Make(obj)

	if token != nil {
		p.CancelOn(token)
	}

	run := func() {
		v := weakObj.Value()
		if v == nil {
			p.TryComplete(Failure[T](ErrContextDeallocated))
			return
		}

		fn(v, p)
	}

	if delay > 0 {
		executor.ExecuteAfter(delay, run)
	} else {
		executor.Execute(run)
	}

	return p
}

// NewChannel creates a Producer with the given replay buffer size, runs fn
// on executor passing it the producer (so fn can call Update/Complete to
// produce the stream), and returns the Producer.
func NewChannel[U, S any](executor Executor, bufferSize int, fn func(*Producer[U, S])) *Producer[U, S] {
	p := NewProducer[U, S](bufferSize)

	executor.Execute(func() {
		fn(p)
	})

	return p
}

// NewChannelWithContext is the contextual variant of NewChannel: obj is
// held weakly, and fn only runs if obj is still alive when the task runs;
// otherwise the producer completes immediately with ErrContextDeallocated.
func NewChannelWithContext[C, U, S any](obj *C, executor Executor, bufferSize int, fn func(*C, *Producer[U, S])) *Producer[U, S] {
	p := NewProducer[U, S](bufferSize)
	weakObj := weak.Make(obj)

	executor.Execute(func() {
		v := weakObj.Value()
		if v == nil {
			p.Complete(Failure[S](ErrContextDeallocated))
			return
		}

		fn(v, p)
	})

	return p
}

func safeInvoke[T any](fn func() Fallible[T]) (result Fallible[T]) {
	lo.TryCatchWithErrorValue(
		func() error {
			result = fn()
			return nil
		},
		func(e any) {
			result = Failure[T](newObserverError(recoverValueToError(e)))
		},
	)

	return result
}
