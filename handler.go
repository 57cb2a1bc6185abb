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

// Handler is a Future's subscription record. It is opaque to callers; it is
// kept alive either by direct ownership (the value returned from
// OnComplete) or by a ReleasePool. A Promise only ever holds a weak
// reference to a Handler, so dropping every strong reference to one before
// completion severs the subscription silently, with no further delivery.
type Handler[T any] struct {
	executor     Executor
	callback     func(context.Context, Fallible[T])
	unsubscribed atomic.Bool
}

func newHandler[T any](executor Executor, callback func(context.Context, Fallible[T])) *Handler[T] {
	return &Handler[T]{executor: executor, callback: callback}
}

// Unsubscribe severs the handler: any event already scheduled on its
// executor may still run, but no further event will be dispatched.
func (h *Handler[T]) Unsubscribe() {
	h.unsubscribed.Store(true)
}

// IsClosed reports whether Unsubscribe has been called.
func (h *Handler[T]) IsClosed() bool {
	return h.unsubscribed.Load()
}

func (h *Handler[T]) deliver(ctx context.Context, value Fallible[T]) {
	if h.unsubscribed.Load() {
		return
	}

	h.executor.Execute(func() {
		if h.unsubscribed.Load() {
			return
		}

		lo.TryCatchWithErrorValue(
			func() error {
				h.callback(ctx, value)
				return nil
			},
			func(e any) {
				OnUnhandledError(ctx, newObserverError(recoverValueToError(e)))
			},
		)
	})
}
