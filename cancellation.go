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
	"weak"
)

// Cancellable is anything a CancellationToken can fire.
type Cancellable interface {
	Cancel()
}

// CancellationToken fans a single cancellation signal out to any number of
// subscribers. Subscribers are held weakly: the token never extends a
// subscriber's lifetime, and a subscriber that has already been collected
// is simply skipped when the token fires.
type CancellationToken struct {
	mu          sync.Mutex
	cancelled   bool
	subscribers []func() bool // returns true if the subscriber was alive and fired
}

// NewCancellationToken creates a CancellationToken that has not fired yet.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{}
}

// IsCancelled reports whether Cancel has already been called.
func (t *CancellationToken) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cancelled
}

// Cancel fires every live subscriber exactly once. It is idempotent: only
// the first call has any effect.
func (t *CancellationToken) Cancel() {
	t.mu.Lock()

	if t.cancelled {
		t.mu.Unlock()
		return
	}

	t.cancelled = true
	subs := t.subscribers
	t.subscribers = nil
	t.mu.Unlock()

	for _, fire := range subs {
		fire()
	}
}

// AddCancellable registers a weak subscriber to the token. cancel is called
// with obj when the token fires, as long as obj has not already been
// garbage collected. If the token has already fired, cancel(obj) is called
// immediately, synchronously, on the caller's goroutine.
func AddCancellable[T any](token *CancellationToken, obj *T, cancel func(*T)) {
	if token == nil || obj == nil {
		return
	}

	token.mu.Lock()

	if token.cancelled {
		token.mu.Unlock()
		cancel(obj)
		return
	}

	weakObj := weak.Make(obj)
	token.subscribers = append(token.subscribers, func() bool {
		v := weakObj.Value()
		if v == nil {
			return false
		}

		cancel(v)
		return true
	})
	token.mu.Unlock()
}
