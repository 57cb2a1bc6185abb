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
	"fmt"
	"weak"
)

// Channel is the read face of a Producer: a stream of zero or more updates
// terminated by exactly one completion.
type Channel[U, S any] interface {
	// OnEvent subscribes to both updates and the terminal completion. On
	// subscription, the handler first replays whatever updates are still in
	// the ring buffer, then (if already Closed) the completion; thereafter
	// it forwards future events as they are produced. The returned
	// ChannelHandler must be kept alive for delivery to continue.
	OnEvent(executor Executor, onUpdate func(U), onCompletion func(Fallible[S])) *ChannelHandler[U, S]
	OnEventWithContext(ctx context.Context, executor Executor, onUpdate func(context.Context, U), onCompletion func(context.Context, Fallible[S])) *ChannelHandler[U, S]

	// OnUpdate subscribes to updates only.
	OnUpdate(executor Executor, onUpdate func(U)) *ChannelHandler[U, S]
	// OnCompletion subscribes to the terminal completion only.
	OnCompletion(executor Executor, onCompletion func(Fallible[S])) *ChannelHandler[U, S]

	// Completion returns a non-blocking snapshot of the terminal value.
	Completion() (Fallible[S], bool)
}

type channelNode[U, S any] struct {
	handler weak.Pointer[ChannelHandler[U, S]]
	next    *channelNode[U, S]
}

// channelState is the immutable value a Producer's casHead points to.
// replay always holds the current ring buffer contents, valid whether Open
// or Closed, so a subscriber arriving after completion still replays the
// buffered updates before observing the completion.
type channelState[U, S any] struct {
	closed     bool
	completion Fallible[S]
	replay     []U
	head       *channelNode[U, S]
}

// droppedUpdate reports an update value that reached a Producer after it
// had already transitioned to Closed. U is not guaranteed to implement
// fmt.Stringer itself, so droppedUpdate supplies one, citing ErrClosed as
// the reason the value was dropped.
type droppedUpdate[U any] struct {
	value U
}

func (d droppedUpdate[U]) String() string {
	return fmt.Sprintf("%s: %+v", ErrClosed, d.value)
}

// droppedCompletion reports a Complete call that reached a Producer after
// it had already transitioned to Closed.
type droppedCompletion[S any] struct {
	value Fallible[S]
}

func (d droppedCompletion[S]) String() string {
	return fmt.Sprintf("%s: %s", ErrClosed, d.value)
}

var _ Channel[int, int] = (*Producer[int, int])(nil)

// Producer is the write face of a Channel. Its head pointer is CAS-updated
// exactly like Promise's, except the stored state also carries a bounded
// ring buffer of recent updates for replay to late subscribers.
type Producer[U, S any] struct {
	head       casHead[channelState[U, S]]
	bufferSize int
	pool       *ReleasePool
}

// NewProducer creates an empty, open Producer whose replay ring buffer
// holds at most bufferSize recent updates. bufferSize <= 0 disables replay.
func NewProducer[U, S any](bufferSize int) *Producer[U, S] {
	p := &Producer[U, S]{bufferSize: bufferSize, pool: NewReleasePool()}
	p.head.ptr.Store(&channelState[U, S]{})

	return p
}

// AsChannel narrows p to its read face.
func (p *Producer[U, S]) AsChannel() Channel[U, S] { return p }

// InsertToReleasePool retains obj until the Producer reaches completion.
func (p *Producer[U, S]) InsertToReleasePool(obj any) {
	p.pool.Insert(obj)
}

// Cancel completes the Producer with a cancellation failure. It implements
// Cancellable so a Producer can be registered on a CancellationToken.
func (p *Producer[U, S]) Cancel() {
	p.Complete(Failure[S](ErrCancelled))
}

// CancelOn registers p on token: when token fires, p completes with
// ErrCancelled, unless p has already closed. p is referenced weakly.
func (p *Producer[U, S]) CancelOn(token *CancellationToken) {
	AddCancellable(token, p, func(p *Producer[U, S]) { p.Cancel() })
}

func (p *Producer[U, S]) appendReplay(old []U, value U) []U {
	if p.bufferSize <= 0 {
		return nil
	}

	next := make([]U, 0, min(len(old)+1, p.bufferSize))
	start := 0

	if len(old)+1 > p.bufferSize {
		start = len(old) + 1 - p.bufferSize
	}

	next = append(next, old[start:]...)
	next = append(next, value)

	return next
}

// Update appends value to the replay buffer and dispatches it to every live
// handler, in subscription order. Update after Close is a no-op.
func (p *Producer[U, S]) Update(value U) {
	old, _ := p.head.Update(func(old *channelState[U, S]) (*channelState[U, S], headUpdate) {
		if old.closed {
			return old, headKeep
		}

		return &channelState[U, S]{
			closed: false,
			replay: p.appendReplay(old.replay, value),
			head:   old.head,
		}, headReplace
	})

	if old.closed {
		OnDroppedNotification(context.Background(), droppedUpdate[U]{value: value})
		return
	}

	// The list is LIFO (newest first); walk it back to subscription order.
	var live []*ChannelHandler[U, S]
	for node := old.head; node != nil; node = node.next {
		if h := node.handler.Value(); h != nil {
			live = append(live, h)
		}
	}

	for i := len(live) - 1; i >= 0; i-- {
		live[i].deliverUpdate(context.Background(), value)
	}
}

// Complete transitions the Producer to Closed with the given terminal
// value. It is at-most-once: only the first call has effect, and every
// handler observes the completion exactly once, strictly after any updates
// it has already observed.
func (p *Producer[U, S]) Complete(value Fallible[S]) bool {
	old, _ := p.head.Update(func(old *channelState[U, S]) (*channelState[U, S], headUpdate) {
		if old.closed {
			return old, headKeep
		}

		return &channelState[U, S]{closed: true, completion: value, replay: old.replay}, headReplace
	})

	if old.closed {
		OnDroppedNotification(context.Background(), droppedCompletion[S]{value: value})
		return false
	}

	for node := old.head; node != nil; node = node.next {
		if h := node.handler.Value(); h != nil {
			h.deliverCompletion(context.Background(), value)
		}
	}

	p.pool.Drain()

	return true
}

// Completion returns a non-blocking snapshot of the terminal value.
func (p *Producer[U, S]) Completion() (Fallible[S], bool) {
	state := p.head.Load()
	if state == nil || !state.closed {
		var zero Fallible[S]
		return zero, false
	}

	return state.completion, true
}

// OnEvent subscribes on executor. See Channel.OnEvent.
func (p *Producer[U, S]) OnEvent(executor Executor, onUpdate func(U), onCompletion func(Fallible[S])) *ChannelHandler[U, S] {
	var wrappedUpdate func(context.Context, U)
	if onUpdate != nil {
		wrappedUpdate = func(_ context.Context, u U) { onUpdate(u) }
	}

	var wrappedCompletion func(context.Context, Fallible[S])
	if onCompletion != nil {
		wrappedCompletion = func(_ context.Context, s Fallible[S]) { onCompletion(s) }
	}

	return p.OnEventWithContext(context.Background(), executor, wrappedUpdate, wrappedCompletion)
}

// OnEventWithContext subscribes on executor, forwarding ctx to every call.
// See Channel.OnEvent.
func (p *Producer[U, S]) OnEventWithContext(
	ctx context.Context,
	executor Executor,
	onUpdate func(context.Context, U),
	onCompletion func(context.Context, Fallible[S]),
) *ChannelHandler[U, S] {
	h := newChannelHandler(executor, onUpdate, onCompletion)

	old, _ := p.head.Update(func(old *channelState[U, S]) (*channelState[U, S], headUpdate) {
		if old.closed {
			return old, headKeep
		}

		return &channelState[U, S]{
			closed: false,
			replay: old.replay,
			head:   &channelNode[U, S]{handler: weak.Make(h), next: old.head},
		}, headReplace
	})

	for _, u := range old.replay {
		h.deliverUpdate(ctx, u)
	}

	if old.closed {
		h.deliverCompletion(ctx, old.completion)
	}

	return h
}

// OnUpdate subscribes to updates only.
func (p *Producer[U, S]) OnUpdate(executor Executor, onUpdate func(U)) *ChannelHandler[U, S] {
	return p.OnEvent(executor, onUpdate, nil)
}

// OnCompletion subscribes to the terminal completion only.
func (p *Producer[U, S]) OnCompletion(executor Executor, onCompletion func(Fallible[S])) *ChannelHandler[U, S] {
	return p.OnEvent(executor, nil, onCompletion)
}
