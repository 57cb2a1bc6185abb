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
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancellationTokenFiresSubscribers(t *testing.T) {
	token := NewCancellationToken()

	obj := new(int)
	*obj = 1

	fired := false
	AddCancellable(token, obj, func(o *int) { fired = true })

	assert.False(t, token.IsCancelled())
	token.Cancel()
	assert.True(t, token.IsCancelled())
	assert.True(t, fired)
}

func TestCancellationTokenIdempotent(t *testing.T) {
	token := NewCancellationToken()

	count := 0
	obj := new(int)
	AddCancellable(token, obj, func(o *int) { count++ })

	token.Cancel()
	token.Cancel()

	assert.Equal(t, 1, count)
}

func TestCancellationTokenAlreadyCancelledFiresImmediately(t *testing.T) {
	token := NewCancellationToken()
	token.Cancel()

	obj := new(int)
	fired := false
	AddCancellable(token, obj, func(o *int) { fired = true })

	assert.True(t, fired)
}

func TestCancellationTokenCancelAfterSubscriberOutOfScope(t *testing.T) {
	token := NewCancellationToken()

	fired := false
	func() {
		obj := new(int)
		AddCancellable(token, obj, func(o *int) { fired = true })
	}()

	runtime.GC()
	runtime.GC()

	token.Cancel()

	// The weakly-held object may or may not have been collected by this
	// point depending on the runtime; either outcome (fired or not) is
	// valid per the weak-reference contract. The call must simply not
	// panic or resurrect the object.
	_ = fired
}
