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
	"sync"

	"github.com/samber/lo"
)

// releasable is implemented by anything a ReleasePool can actively tear
// down on drain, rather than merely dropping a reference to for the
// garbage collector to reclaim.
type releasable interface {
	Unsubscribe()
}

type releaseItem struct {
	obj    any
	notify func()
}

// ReleasePool is a LIFO list of owned objects and drain-notification hooks.
// It is the mechanism a combinator uses to keep its upstream subscription
// alive exactly as long as its own downstream Producer or Promise is
// observed: the upstream Handler is Insert-ed into the downstream's pool,
// and Drain releases it (unsubscribing it) when the downstream reaches a
// terminal state.
type ReleasePool struct {
	mu      sync.Mutex
	items   []releaseItem
	drained bool
}

// NewReleasePool creates an empty ReleasePool.
func NewReleasePool() *ReleasePool {
	return &ReleasePool{}
}

// Insert retains obj until the pool drains, at which point it is released
// (Unsubscribe-d, if it implements releasable) in LIFO order relative to
// other inserted items. If the pool has already drained, obj is released
// immediately.
func (p *ReleasePool) Insert(obj any) {
	if obj == nil {
		return
	}

	p.mu.Lock()

	if p.drained {
		p.mu.Unlock()
		releaseOne(releaseItem{obj: obj})
		return
	}

	p.items = append(p.items, releaseItem{obj: obj})
	p.mu.Unlock()
}

// NotifyDrain registers fn to be called when the pool drains. If the pool
// has already drained, fn is called immediately.
func (p *ReleasePool) NotifyDrain(fn func()) {
	if fn == nil {
		return
	}

	p.mu.Lock()

	if p.drained {
		p.mu.Unlock()
		fn()
		return
	}

	p.items = append(p.items, releaseItem{notify: fn})
	p.mu.Unlock()
}

// Drain releases every inserted item and fires every notify hook, in
// reverse insertion (LIFO) order. Drain is idempotent: only the first call
// does any work, and subsequent Insert/NotifyDrain calls fire immediately.
func (p *ReleasePool) Drain() {
	p.mu.Lock()

	if p.drained {
		p.mu.Unlock()
		return
	}

	p.drained = true
	items := p.items
	p.items = nil
	p.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		releaseOne(items[i])
	}
}

// releaseOne runs a single teardown, converting a panic into an unhandled
// error report instead of aborting the rest of the pool's drain.
func releaseOne(item releaseItem) {
	lo.TryCatchWithErrorValue(
		func() error {
			if item.notify != nil {
				item.notify()
				return nil
			}

			if r, ok := item.obj.(releasable); ok {
				r.Unsubscribe()
			}

			return nil
		},
		func(e any) {
			OnUnhandledError(context.Background(), newUnsubscriptionError(recoverValueToError(e)))
		},
	)
}
