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
)

func TestImmediateExecutorRunsInline(t *testing.T) {
	ran := false
	Immediate().Execute(func() { ran = true })
	assert.True(t, ran)
}

func TestSerialExecutorPreservesOrder(t *testing.T) {
	executor := Serial()

	var (
		mu     sync.Mutex
		order  []int
		done   = make(chan struct{})
		target = 100
	)

	for i := 0; i < target; i++ {
		i := i
		executor.Execute(func() {
			mu.Lock()
			order = append(order, i)
			if len(order) == target {
				close(done)
			}
			mu.Unlock()
		})
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for serial executor")
	}

	mu.Lock()
	defer mu.Unlock()

	for i := 0; i < target; i++ {
		assert.Equal(t, i, order[i])
	}
}

func TestQueueExecutorSendsOntoChannel(t *testing.T) {
	ch := make(chan func(), 1)
	executor := NewQueueExecutor(ch)

	ran := false
	executor.Execute(func() { ran = true })

	task := <-ch
	task()

	assert.True(t, ran)
}

func TestMainExecutorIsSharedSingleton(t *testing.T) {
	assert.Same(t, Main(), Main())
}
