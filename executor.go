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

	"github.com/samber/lo"
)

// Executor schedules tasks for later execution, possibly on another thread.
// There is no ordering guarantee between tasks submitted to distinct
// Executors, and Execute/ExecuteAfter must be safe to call from any thread.
// Serial, Main, Primary and Concurrent return from Execute/ExecuteAfter
// without waiting for the task. Immediate runs the task on the calling
// goroutine, and its ExecuteAfter sleeps out the delay there first; a
// Queue's Execute blocks until the caller's channel accepts the task.
type Executor interface {
	// Execute schedules task to run, possibly asynchronously.
	Execute(task func())
	// ExecuteAfter schedules task to run after at least delay has elapsed.
	ExecuteAfter(delay time.Duration, task func())
}

var _ Executor = immediateExecutor{}

// immediateExecutor runs tasks synchronously, inline on the caller's thread.
// Combinators whose transform must not cross a thread hop subscribe upstream
// with this executor.
type immediateExecutor struct{}

// Immediate returns the Executor that runs tasks synchronously on the
// calling goroutine.
func Immediate() Executor { return immediateExecutor{} }

func (immediateExecutor) Execute(task func()) {
	task()
}

func (immediateExecutor) ExecuteAfter(delay time.Duration, task func()) {
	if delay <= 0 {
		task()
		return
	}

	time.Sleep(delay)
	task()
}

// serialExecutor runs tasks one at a time, in submission order, on a single
// background goroutine. It is the backing implementation of both Main (the
// shared process-wide serial queue) and Serial (a fresh private queue per
// call). A mutex-guarded slice plus a wakeup channel stands in for a true
// unbounded MPSC queue; it is started lazily on first use and never stops,
// matching the spec's "destroying an executor before its pending tasks run
// is implementation-defined but must not leak tasks indefinitely" by simply
// running forever for the lifetime of the process, exactly like a UI main
// thread would.
type serialExecutor struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	started bool
}

func newSerialExecutor() *serialExecutor {
	return &serialExecutor{wake: make(chan struct{}, 1)}
}

// Serial creates a new private serial Executor: an independent single
// worker goroutine with its own FIFO queue.
func Serial() Executor {
	return newSerialExecutor()
}

var mainExecutor = newSerialExecutor()

// Main returns the shared process-wide serial Executor, analogous to a UI
// framework's main-thread dispatch queue.
func Main() Executor {
	return mainExecutor
}

func (s *serialExecutor) Execute(task func()) {
	s.mu.Lock()
	s.queue = append(s.queue, task)
	s.ensureStartedLocked()
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *serialExecutor) ExecuteAfter(delay time.Duration, task func()) {
	if delay <= 0 {
		s.Execute(task)
		return
	}

	time.AfterFunc(delay, func() { s.Execute(task) })
}

func (s *serialExecutor) ensureStartedLocked() {
	if s.started {
		return
	}

	s.started = true

	go s.run()
}

func (s *serialExecutor) run() {
	for {
		<-s.wake

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}

			next := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			runTask(next)
		}
	}
}

// Queue wraps a caller-supplied channel as an Executor: Execute sends the
// task onto q for the caller's own consumer loop to run. It is the contract
// for "caller-supplied queues" (spec.md §6): the core never drains q itself.
type Queue struct {
	ch chan<- func()
}

// NewQueueExecutor wraps a caller-owned channel of tasks as an Executor.
func NewQueueExecutor(ch chan<- func()) Executor {
	return Queue{ch: ch}
}

func (q Queue) Execute(task func()) {
	q.ch <- task
}

func (q Queue) ExecuteAfter(delay time.Duration, task func()) {
	if delay <= 0 {
		q.Execute(task)
		return
	}

	time.AfterFunc(delay, func() { q.Execute(task) })
}

// runTask invokes task, converting a panic into an unhandled-error report
// instead of taking down the executor's worker goroutine.
func runTask(task func()) {
	lo.TryCatchWithErrorValue(
		func() error {
			task()
			return nil
		},
		func(e any) {
			OnUnhandledError(context.Background(), newObserverError(recoverValueToError(e)))
		},
	)
}
