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
	"context"
	"weak"
)

// Future is the read face of a Promise: a single-value asynchronous result
// that is either still pending or has resolved to a Fallible value exactly
// once.
type Future[T any] interface {
	// OnComplete subscribes callback to the terminal value, dispatched on
	// executor. If the Future has already completed, callback is scheduled
	// immediately. The returned Handler must be kept alive (directly, or by
	// inserting it into a ReleasePool) for callback to fire.
	OnComplete(executor Executor, callback func(Fallible[T])) *Handler[T]
	OnCompleteWithContext(ctx context.Context, executor Executor, callback func(context.Context, Fallible[T])) *Handler[T]

	// OnSuccess subscribes callback to a successful terminal value only.
	OnSuccess(executor Executor, callback func(T)) *Handler[T]
	// OnFailure subscribes callback to a failed terminal value only.
	OnFailure(executor Executor, callback func(error)) *Handler[T]

	// Completion returns a non-blocking snapshot of the terminal value, and
	// whether the Future has completed yet.
	Completion() (Fallible[T], bool)
}

// promiseNode is one entry of the Promise's CAS-updated subscription stack:
// a weak reference to a Handler, linked LIFO to the previous head.
type promiseNode[T any] struct {
	handler weak.Pointer[Handler[T]]
	next    *promiseNode[T]
}

// promiseState is the immutable value a Promise's casHead points to: either
// Subscribed (head may be nil for Empty) or Completed.
type promiseState[T any] struct {
	completed bool
	value     Fallible[T]
	head      *promiseNode[T]
}

var _ Future[int] = (*Promise[int])(nil)

// Promise is the write face of a Future. Both faces share the same
// underlying CAS state; Promise additionally exposes TryComplete, Succeed,
// Fail, Cancel and release-pool retention.
type Promise[T any] struct {
	head casHead[promiseState[T]]
	pool *ReleasePool
}

// NewPromise creates an empty, incomplete Promise.
func NewPromise[T any]() *Promise[T] {
	p := &Promise[T]{pool: NewReleasePool()}
	p.head.ptr.Store(&promiseState[T]{})

	return p
}

// CompletedFuture returns a Future already resolved to value.
func CompletedFuture[T any](value Fallible[T]) Future[T] {
	p := NewPromise[T]()
	p.TryComplete(value)

	return p
}

// AsFuture narrows p to its read face.
func (p *Promise[T]) AsFuture() Future[T] { return p }

// InsertToReleasePool retains obj until the Promise completes, then
// releases it (per ReleasePool semantics).
func (p *Promise[T]) InsertToReleasePool(obj any) {
	p.pool.Insert(obj)
}

// Cancel fails the Promise with ErrCancelled. It implements Cancellable so
// a Promise can be registered on a CancellationToken via CancelOn.
func (p *Promise[T]) Cancel() {
	p.Fail(ErrCancelled)
}

// CancelOn registers p on token: when token fires, p fails with
// ErrCancelled, unless p has already completed. p is referenced weakly by
// the token.
func (p *Promise[T]) CancelOn(token *CancellationToken) {
	AddCancellable(token, p, func(p *Promise[T]) { p.Cancel() })
}

// Succeed completes the Promise with a success value. It returns true iff
// this call caused the transition.
func (p *Promise[T]) Succeed(value T) bool {
	return p.TryComplete(Success(value))
}

// Fail completes the Promise with a failure. It returns true iff this call
// caused the transition.
func (p *Promise[T]) Fail(err error) bool {
	return p.TryComplete(Failure[T](err))
}

// TryComplete attempts to transition the Promise to Completed with value.
// It is atomic and at-most-once: only the call that wins the CAS race
// returns true, and every handler registered before or after that instant
// observes value exactly once.
func (p *Promise[T]) TryComplete(value Fallible[T]) bool {
	old, _ := p.head.Update(func(old *promiseState[T]) (*promiseState[T], headUpdate) {
		if old.completed {
			return old, headKeep
		}

		return &promiseState[T]{completed: true, value: value}, headReplace
	})

	if old.completed {
		OnDroppedNotification(context.Background(), value)
		return false
	}

	for node := old.head; node != nil; node = node.next {
		if h := node.handler.Value(); h != nil {
			h.deliver(context.Background(), value)
		}
	}

	p.pool.Drain()

	return true
}

// Completion returns a non-blocking snapshot of the terminal value.
func (p *Promise[T]) Completion() (Fallible[T], bool) {
	state := p.head.Load()
	if state == nil || !state.completed {
		var zero Fallible[T]
		return zero, false
	}

	return state.value, true
}

// OnComplete subscribes callback on executor. See Future.OnComplete.
func (p *Promise[T]) OnComplete(executor Executor, callback func(Fallible[T])) *Handler[T] {
	return p.OnCompleteWithContext(context.Background(), executor, func(_ context.Context, v Fallible[T]) { callback(v) })
}

// OnCompleteWithContext subscribes callback on executor, forwarding ctx to
// the terminal call. See Future.OnComplete.
func (p *Promise[T]) OnCompleteWithContext(ctx context.Context, executor Executor, callback func(context.Context, Fallible[T])) *Handler[T] {
	h := newHandler(executor, callback)

	old, _ := p.head.Update(func(old *promiseState[T]) (*promiseState[T], headUpdate) {
		if old.completed {
			return old, headKeep
		}

		return &promiseState[T]{
			completed: false,
			head:      &promiseNode[T]{handler: weak.Make(h), next: old.head},
		}, headReplace
	})

	if old.completed {
		h.deliver(ctx, old.value)
	}

	return h
}

// OnSuccess subscribes callback to a successful terminal value only.
func (p *Promise[T]) OnSuccess(executor Executor, callback func(T)) *Handler[T] {
	return p.OnComplete(executor, func(v Fallible[T]) {
		if value, ok := v.Value(); ok {
			callback(value)
		}
	})
}

// OnFailure subscribes callback to a failed terminal value only.
func (p *Promise[T]) OnFailure(executor Executor, callback func(error)) *Handler[T] {
	return p.OnComplete(executor, func(v Fallible[T]) {
		if !v.IsSuccess() {
			callback(v.Error())
		}
	})
}
