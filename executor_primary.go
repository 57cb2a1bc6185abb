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
	"time"

	"github.com/ygrebnov/workers"
)

// primaryExecutor is the default background Executor: a dynamically sized
// goroutine pool backed by github.com/ygrebnov/workers. Tasks submitted to
// it carry no result; failures (including recovered panics, which the
// workers package converts to errors) are forwarded to OnUnhandledError.
type primaryExecutor struct {
	pool   workers.Workers[struct{}]
	cancel context.CancelFunc
	drain  sync.Once
}

func newPrimaryExecutor() *primaryExecutor {
	ctx, cancel := context.WithCancel(context.Background())

	pool := workers.New[struct{}](ctx, &workers.Config{
		StartImmediately:  true,
		TasksBufferSize:   256,
		ResultsBufferSize: 1,
		ErrorsBufferSize:  256,
	})

	p := &primaryExecutor{pool: pool, cancel: cancel}

	go p.forwardErrors()

	return p
}

func (p *primaryExecutor) forwardErrors() {
	for err := range p.pool.GetErrors() {
		if err != nil {
			OnUnhandledError(context.Background(), err)
		}
	}
}

func (p *primaryExecutor) Execute(task func()) {
	_ = p.pool.AddTask(func(ctx context.Context) error {
		task()
		return nil
	})
}

func (p *primaryExecutor) ExecuteAfter(delay time.Duration, task func()) {
	if delay <= 0 {
		p.Execute(task)
		return
	}

	time.AfterFunc(delay, func() { p.Execute(task) })
}

var (
	primaryOnce sync.Once
	primary     *primaryExecutor
)

// Primary returns the shared process-wide background Executor, creating it
// on the first call.
func Primary() Executor {
	primaryOnce.Do(func() { primary = newPrimaryExecutor() })

	return primary
}

// Concurrent returns a fresh background Executor backed by a fixed-size
// goroutine pool of the given width. Use it when a combinator's callbacks
// should run with bounded parallelism distinct from the shared Primary pool.
func Concurrent(parallelism uint) Executor {
	if parallelism == 0 {
		parallelism = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	pool := workers.New[struct{}](ctx, &workers.Config{
		MaxWorkers:        parallelism,
		StartImmediately:  true,
		TasksBufferSize:   256,
		ResultsBufferSize: 1,
		ErrorsBufferSize:  256,
	})

	p := &primaryExecutor{pool: pool, cancel: cancel}

	go p.forwardErrors()

	return p
}
