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
	"sync/atomic"

	"github.com/samber/lo"
)

// ChannelHandler is a Producer's subscription record: the Channel-side
// counterpart of Handler. It carries two callbacks, one for each update and
// one for the single terminal completion, and is held weakly by its
// Producer exactly like Handler is held weakly by its Promise.
type ChannelHandler[U, S any] struct {
	executor     Executor
	onUpdate     func(context.Context, U)
	onCompletion func(context.Context, Fallible[S])
	unsubscribed atomic.Bool
}

func newChannelHandler[U, S any](
	executor Executor,
	onUpdate func(context.Context, U),
	onCompletion func(context.Context, Fallible[S]),
) *ChannelHandler[U, S] {
	return &ChannelHandler[U, S]{executor: executor, onUpdate: onUpdate, onCompletion: onCompletion}
}

// Unsubscribe severs the handler: any event already scheduled on its
// executor may still run, but no further update or completion will be
// dispatched.
func (h *ChannelHandler[U, S]) Unsubscribe() {
	h.unsubscribed.Store(true)
}

// IsClosed reports whether Unsubscribe has been called.
func (h *ChannelHandler[U, S]) IsClosed() bool {
	return h.unsubscribed.Load()
}

func (h *ChannelHandler[U, S]) deliverUpdate(ctx context.Context, value U) {
	if h.onUpdate == nil || h.unsubscribed.Load() {
		return
	}

	h.schedule(func() {
		lo.TryCatchWithErrorValue(
			func() error {
				h.onUpdate(ctx, value)
				return nil
			},
			func(e any) {
				OnUnhandledError(ctx, newObserverError(recoverValueToError(e)))
			},
		)
	})
}

func (h *ChannelHandler[U, S]) deliverCompletion(ctx context.Context, value Fallible[S]) {
	if h.unsubscribed.Load() {
		return
	}

	h.schedule(func() {
		if h.onCompletion == nil {
			return
		}

		lo.TryCatchWithErrorValue(
			func() error {
				h.onCompletion(ctx, value)
				return nil
			},
			func(e any) {
				OnUnhandledError(ctx, newObserverError(recoverValueToError(e)))
			},
		)
	})
}

func (h *ChannelHandler[U, S]) schedule(task func()) {
	if h.unsubscribed.Load() {
		return
	}

	h.executor.Execute(func() {
		if h.unsubscribed.Load() {
			return
		}

		task()
	})
}
