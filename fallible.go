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
	"fmt"

	"github.com/samber/lo"
)

// Fallible is a tagged success-or-failure value. It is the terminal value of
// a Future and of a Channel's completion. The zero value is not a success:
// IsSuccess reports false and Error returns nil.
type Fallible[T any] struct {
	ok    bool
	value T
	err   error
}

// Success wraps a value as a successful Fallible.
func Success[T any](value T) Fallible[T] {
	return Fallible[T]{ok: true, value: value}
}

// Failure wraps an error as a failed Fallible.
func Failure[T any](err error) Fallible[T] {
	return Fallible[T]{ok: false, err: err}
}

// IsSuccess reports whether f holds a success value.
func (f Fallible[T]) IsSuccess() bool {
	return f.ok
}

// Error returns the failure's error, or nil if f is a success.
func (f Fallible[T]) Error() error {
	return f.err
}

// Value returns the success value and true, or the zero value and false.
func (f Fallible[T]) Value() (T, bool) {
	return f.value, f.ok
}

// Unwrap returns the success value or panics with the failure's error.
func (f Fallible[T]) Unwrap() T {
	if !f.ok {
		panic(f.err)
	}

	return f.value
}

func (f Fallible[T]) String() string {
	if f.ok {
		return fmt.Sprintf("Success(%+v)", f.value)
	}

	return fmt.Sprintf("Failure(%s)", f.err)
}

// FallibleMap applies fn to a success value, converting a panic raised by fn
// into a Failure. A Failure is passed through unchanged.
func FallibleMap[T, U any](f Fallible[T], fn func(T) U) (result Fallible[U]) {
	if !f.ok {
		return Failure[U](f.err)
	}

	lo.TryCatchWithErrorValue(
		func() error {
			result = Success(fn(f.value))
			return nil
		},
		func(e any) {
			result = Failure[U](newObserverError(recoverValueToError(e)))
		},
	)

	return result
}

// FallibleFlatMap applies fn to a success value, flattening the resulting
// Fallible. A panic raised by fn is converted into a Failure.
func FallibleFlatMap[T, U any](f Fallible[T], fn func(T) Fallible[U]) (result Fallible[U]) {
	if !f.ok {
		return Failure[U](f.err)
	}

	lo.TryCatchWithErrorValue(
		func() error {
			result = fn(f.value)
			return nil
		},
		func(e any) {
			result = Failure[U](newObserverError(recoverValueToError(e)))
		},
	)

	return result
}

// FallibleRecover converts a Failure into a Success by applying fn to the
// error. A Success is passed through unchanged. A panic raised by fn is
// converted into a Failure.
func FallibleRecover[T any](f Fallible[T], fn func(error) T) (result Fallible[T]) {
	if f.ok {
		return f
	}

	lo.TryCatchWithErrorValue(
		func() error {
			result = Success(fn(f.err))
			return nil
		},
		func(e any) {
			result = Failure[T](newObserverError(recoverValueToError(e)))
		},
	)

	return result
}
