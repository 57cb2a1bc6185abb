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
	"fmt"
)

// ErrCancelled is the failure value used to complete a Promise or Producer
// when a CancellationToken fires or Cancel is called directly.
var ErrCancelled = errors.New("flux: cancelled")

// ErrContextDeallocated is the failure value used by the contextual
// constructors (NewFutureWithContext, NewManualPromiseWithContext,
// NewChannelWithContext) when their weakly-held object was garbage
// collected before the task could run.
var ErrContextDeallocated = errors.New("flux: context deallocated")

// ErrTimeout is the failure value used by the Timeout combinator when the
// deadline elapses before the upstream primitive completes.
var ErrTimeout = errors.New("flux: timeout")

// ErrClosed is cited in the dropped-notification reported via
// OnDroppedNotification when a Producer operation (Update or Complete) is
// attempted after the Producer has already transitioned to Closed.
var ErrClosed = errors.New("flux: producer already closed")

type observerError struct {
	cause error
}

func newObserverError(cause error) error {
	if cause == nil {
		return nil
	}

	return &observerError{cause: cause}
}

func (e *observerError) Error() string {
	return fmt.Sprintf("flux: observer callback panicked: %s", e.cause.Error())
}

func (e *observerError) Unwrap() error {
	return e.cause
}

type unsubscriptionError struct {
	cause error
}

func newUnsubscriptionError(cause error) error {
	if cause == nil {
		return nil
	}

	return &unsubscriptionError{cause: cause}
}

func (e *unsubscriptionError) Error() string {
	return fmt.Sprintf("flux: teardown panicked: %s", e.cause.Error())
}

func (e *unsubscriptionError) Unwrap() error {
	return e.cause
}

// recoverValueToError normalizes a value recovered from a panic into an
// error, matching the teacher's convention of never propagating a bare
// `any` past the panic boundary.
func recoverValueToError(e any) error {
	if err, ok := e.(error); ok {
		return err
	}

	return fmt.Errorf("%v", e)
}
