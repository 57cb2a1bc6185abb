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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromiseSucceedDeliversToSubscriberBeforeAndAfter(t *testing.T) {
	p := NewPromise[int]()

	var before, after int
	h1 := p.OnComplete(Immediate(), func(v Fallible[int]) { before, _ = v.Value() })

	assert.True(t, p.Succeed(7))

	h2 := p.OnComplete(Immediate(), func(v Fallible[int]) { after, _ = v.Value() })

	assert.Equal(t, 7, before)
	assert.Equal(t, 7, after)
	assert.NotNil(t, h1)
	assert.NotNil(t, h2)
}

func TestPromiseCompletesAtMostOnce(t *testing.T) {
	p := NewPromise[int]()

	assert.True(t, p.Succeed(1))
	assert.False(t, p.Succeed(2))

	v, ok := p.Completion()
	assert.True(t, ok)
	value, _ := v.Value()
	assert.Equal(t, 1, value)
}

func TestPromiseFailAndCancel(t *testing.T) {
	p := NewPromise[int]()
	p.Cancel()

	v, ok := p.Completion()
	assert.True(t, ok)
	assert.False(t, v.IsSuccess())
	assert.ErrorIs(t, v.Error(), ErrCancelled)
}

func TestPromiseDroppedHandlerNeverInvoked(t *testing.T) {
	p := NewPromise[int]()

	func() {
		h := p.OnComplete(Immediate(), func(v Fallible[int]) {
			t.Fatal("dropped handler must not be invoked")
		})
		h.Unsubscribe()
	}()

	p.Succeed(1)
}

func TestJoinedAllSuccess(t *testing.T) {
	a := NewPromise[int]()
	b := NewPromise[int]()
	c := NewPromise[int]()

	joined := Joined([]Future[int]{a, b, c}, nil)

	a.Succeed(1)
	b.Succeed(2)
	c.Succeed(3)

	v, ok := joined.Completion()
	assert.True(t, ok)
	result, success := v.Value()
	assert.True(t, success)
	assert.Equal(t, []int{1, 2, 3}, result)
}

func TestJoinedFirstFailure(t *testing.T) {
	a := NewPromise[int]()
	b := NewPromise[int]()

	joined := Joined([]Future[int]{a, b}, nil)

	failure := errors.New("nope")
	a.Fail(failure)
	b.Succeed(2)

	v, ok := joined.Completion()
	assert.True(t, ok)
	assert.False(t, v.IsSuccess())
	assert.ErrorIs(t, v.Error(), failure)
}

func TestZipCompletesWithBothValues(t *testing.T) {
	a := NewPromise[int]()
	b := NewPromise[string]()

	zipped := Zip[int, string](a, b, nil)

	a.Succeed(1)
	b.Succeed("x")

	v, ok := zipped.Completion()
	assert.True(t, ok)
	result, success := v.Value()
	assert.True(t, success)
	assert.Equal(t, Zipped[int, string]{First: 1, Second: "x"}, result)
}

func TestZipFailsOnFirstFailure(t *testing.T) {
	a := NewPromise[int]()
	b := NewPromise[string]()

	zipped := Zip[int, string](a, b, nil)

	failure := errors.New("bad")
	a.Fail(failure)

	v, ok := zipped.Completion()
	assert.True(t, ok)
	assert.False(t, v.IsSuccess())
}

func TestMapFuture(t *testing.T) {
	p := NewPromise[int]()
	mapped := MapFuture(p, func(v int) string { return "x" }, nil)

	p.Succeed(1)

	v, ok := mapped.Completion()
	assert.True(t, ok)
	result, _ := v.Value()
	assert.Equal(t, "x", result)
}

func TestRecoverFuture(t *testing.T) {
	p := NewPromise[int]()
	recovered := RecoverFuture(p, func(err error) int { return -1 }, nil)

	p.Fail(errors.New("boom"))

	v, ok := recovered.Completion()
	assert.True(t, ok)
	result, success := v.Value()
	assert.True(t, success)
	assert.Equal(t, -1, result)
}
