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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapChannel(t *testing.T) {
	p := NewProducer[int, string](0)
	mapped := MapChannel(p, 0, func(v int) int { return v * 2 }, nil)

	var seen []int
	mapped.OnUpdate(Immediate(), func(u int) { seen = append(seen, u) })

	p.Update(1)
	p.Update(2)

	assert.Equal(t, []int{2, 4}, seen)
}

func TestEnumeratedChannel(t *testing.T) {
	p := NewProducer[string, int](0)
	enumerated := EnumeratedChannel(p, 0, nil)

	var seen []Enumerated[string]
	enumerated.OnUpdate(Immediate(), func(u Enumerated[string]) { seen = append(seen, u) })

	p.Update("a")
	p.Update("b")

	assert.Equal(t, []Enumerated[string]{{Index: 0, Value: "a"}, {Index: 1, Value: "b"}}, seen)
}

func TestBufferedPairsSkipsFirstUpdate(t *testing.T) {
	p := NewProducer[int, int](0)
	pairs := BufferedPairs(p, 0, nil)

	var seen []Pair[int]
	pairs.OnUpdate(Immediate(), func(u Pair[int]) { seen = append(seen, u) })

	p.Update(1)
	p.Update(2)
	p.Update(3)

	assert.Equal(t, []Pair[int]{{Previous: 1, Current: 2}, {Previous: 2, Current: 3}}, seen)
}

func TestBufferedEmitsFullBatches(t *testing.T) {
	p := NewProducer[int, int](0)
	buffered := Buffered(p, 0, 2, nil)

	var batches [][]int
	buffered.OnUpdate(Immediate(), func(u []int) { batches = append(batches, u) })

	p.Update(1)
	p.Update(2)
	p.Update(3)

	assert.Equal(t, [][]int{{1, 2}}, batches)
}

func TestBufferedFlushesPartialBatchOnCompletion(t *testing.T) {
	p := NewProducer[int, int](0)
	buffered := Buffered(p, 0, 4, nil)

	var batches [][]int
	completed := false

	buffered.OnEvent(Immediate(), func(u []int) { batches = append(batches, u) }, func(s Fallible[int]) {
		completed = true
	})

	p.Update(1)
	p.Update(2)
	p.Update(3)
	p.Complete(Success(0))

	assert.Equal(t, [][]int{{1, 2, 3}}, batches)
	assert.True(t, completed)
}

func TestDistinctSkipsEqualConsecutiveUpdates(t *testing.T) {
	p := NewProducer[int, int](0)
	distinct := DistinctComparable[int](p, 0, nil)

	var seen []int
	distinct.OnUpdate(Immediate(), func(u int) { seen = append(seen, u) })

	p.Update(1)
	p.Update(1)
	p.Update(2)
	p.Update(2)
	p.Update(1)

	assert.Equal(t, []int{1, 2, 1}, seen)
}

func TestFilter(t *testing.T) {
	p := NewProducer[int, int](0)
	filtered := Filter(p, 0, func(v int) bool { return v%2 == 0 }, nil)

	var seen []int
	filtered.OnUpdate(Immediate(), func(u int) { seen = append(seen, u) })

	p.Update(1)
	p.Update(2)
	p.Update(3)
	p.Update(4)

	assert.Equal(t, []int{2, 4}, seen)
}

func TestTakeCompletesAfterLimit(t *testing.T) {
	p := NewProducer[int, int](0)
	taken := Take[int, int](p, 0, 2, nil)

	var seen []int
	completedCount := -1

	taken.OnEvent(Immediate(), func(u int) { seen = append(seen, u) }, func(s Fallible[int]) {
		completedCount, _ = s.Value()
	})

	p.Update(1)
	p.Update(2)
	p.Update(3)

	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, 2, completedCount)
}

func TestRecoverChannel(t *testing.T) {
	p := NewProducer[int, int](0)
	recovered := RecoverChannel(p, 0, func(err error) int { return -1 }, nil)

	var completion int
	recovered.OnCompletion(Immediate(), func(s Fallible[int]) {
		completion, _ = s.Value()
	})

	p.Complete(Failure[int](assertErr))

	assert.Equal(t, -1, completion)
}

// TestDebounceCoalescesBurstAndFlushesOnCompletion mirrors spec.md §8
// scenario 3 at a scale friendly to a test timeout: with interval=20ms,
// updates fed at t=0 (u1), t=~4ms (u2), t=~8ms (u3) and COMPLETE at t=60ms
// should be observed as [u1 at ~0, u3 at ~20, COMPLETE at ~60].
func TestDebounceCoalescesBurstAndFlushesOnCompletion(t *testing.T) {
	p := NewProducer[string, int](0)
	interval := 20 * time.Millisecond
	debounced := Debounce(p, 0, interval, 0, 0, nil)

	type event struct {
		value string
		at    time.Duration
	}

	start := time.Now()

	var (
		mu     sync.Mutex
		events []event
	)
	done := make(chan struct{})

	h := debounced.OnEvent(Immediate(), func(u string) {
		mu.Lock()
		events = append(events, event{value: u, at: time.Since(start)})
		mu.Unlock()
	}, func(s Fallible[int]) {
		mu.Lock()
		events = append(events, event{value: "COMPLETE", at: time.Since(start)})
		mu.Unlock()
		close(done)
	})

	p.Update("u1")
	time.Sleep(4 * time.Millisecond)
	p.Update("u2")
	time.Sleep(4 * time.Millisecond)
	p.Update("u3")

	go func() {
		time.Sleep(3 * interval)
		p.Complete(Success(0))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for debounce completion")
	}

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, events, 3)
	assert.Equal(t, "u1", events[0].value)
	assert.Equal(t, "u3", events[1].value)
	assert.Equal(t, "COMPLETE", events[2].value)
	assert.Less(t, events[0].at, interval)
	assert.InDelta(t, interval, events[1].at, float64(interval))
	assert.InDelta(t, 3*interval, events[2].at, float64(interval))

	_ = h
}

// TestDebounceHonorsDeadlineUnderContinuousUpdates checks that a pending
// value is not held past deadline even if updates keep resetting leeway.
func TestDebounceHonorsDeadlineUnderContinuousUpdates(t *testing.T) {
	p := NewProducer[int, int](0)
	interval := 10 * time.Millisecond
	leeway := time.Hour // a leeway long enough to never naturally elapse
	deadline := 30 * time.Millisecond
	debounced := Debounce(p, 0, interval, leeway, deadline, nil)

	var (
		mu   sync.Mutex
		seen []int
	)
	done := make(chan struct{})
	var once sync.Once

	h := debounced.OnUpdate(Immediate(), func(u int) {
		mu.Lock()
		seen = append(seen, u)
		n := len(seen)
		mu.Unlock()

		// The first update passes through immediately; the second one
		// seen is the deadline-forced flush.
		if n == 2 {
			once.Do(func() { close(done) })
		}
	})

	p.Update(1)

	timeout := time.After(5 * time.Second)
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	// Keep feeding updates faster than deadline until the flush arrives.
	next := 2
loop:
	for {
		select {
		case <-ticker.C:
			p.Update(next)
			next++
		case <-done:
			break loop
		case <-timeout:
			t.Fatal("timed out waiting for deadline-forced flush")
		}
	}

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0])

	_ = h
}

// TestDelayedUpdateRedispatchesAfterDelay checks that both updates and
// completion are re-dispatched via executor.ExecuteAfter(delay), not
// forwarded immediately.
func TestDelayedUpdateRedispatchesAfterDelay(t *testing.T) {
	p := NewProducer[int, int](0)
	delay := 20 * time.Millisecond
	delayed := DelayedUpdate(p, 0, Serial(), delay, nil)

	start := time.Now()

	var (
		mu           sync.Mutex
		updateAt     time.Duration
		completionAt time.Duration
		gotUpdate    int
	)
	done := make(chan struct{})

	h := delayed.OnEvent(Serial(), func(u int) {
		mu.Lock()
		gotUpdate = u
		updateAt = time.Since(start)
		mu.Unlock()
	}, func(s Fallible[int]) {
		mu.Lock()
		completionAt = time.Since(start)
		mu.Unlock()
		close(done)
	})

	p.Update(7)
	p.Complete(Success(0))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delayed completion")
	}

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, 7, gotUpdate)
	assert.GreaterOrEqual(t, updateAt, delay)
	assert.GreaterOrEqual(t, completionAt, delay)

	_ = h
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }
