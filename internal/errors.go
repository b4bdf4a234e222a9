// The MIT License
//
// Copyright (c) 2020 Temporal Technologies Inc.  All rights reserved.
//
// Copyright (c) 2020 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package internal

import "fmt"

// TaskErrorKind tags the cause of a failed call (activity or
// sub-workflow): either the task ran and raised, or it never finished in
// time.
type TaskErrorKind int

const (
	// TaskErrorKindFailed means the task ran and returned an error.
	TaskErrorKindFailed TaskErrorKind = iota
	// TaskErrorKindTimedOut means the task did not finish before its
	// schedule-to-close timeout.
	TaskErrorKindTimedOut
)

// TaskError is raised by Future.Get when the corresponding call resolved to
// an error or a timeout rather than a result. It is only ever constructed
// lazily, at inspection time, matching the call algorithm's laziness rule.
type TaskError struct {
	Kind     TaskErrorKind
	CallID   CallID
	TypeName string
	Reason   string
	Details  []byte
}

func (e *TaskError) Error() string {
	if e.Kind == TaskErrorKindTimedOut {
		return fmt.Sprintf("call %d (%s) timed out", e.CallID, e.TypeName)
	}
	return fmt.Sprintf("call %d (%s) failed: %s", e.CallID, e.TypeName, e.Reason)
}

// IsTimeout reports whether the failure was a timeout rather than an
// application-level error.
func (e *TaskError) IsTimeout() bool {
	return e.Kind == TaskErrorKindTimedOut
}

// PaginationError is raised when the history folder exhausts its
// continuation-page retry budget. The decision task is abandoned; the next
// poll will redeliver it.
type PaginationError struct {
	NextPageToken []byte
	Attempts      int
	Cause         error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("giving up on history pagination after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *PaginationError) Unwrap() error { return e.Cause }

// RegistrationError is raised when a workflow or activity type is already
// registered remotely with incompatible defaults, or when the remote
// registration/describe RPC itself fails.
type RegistrationError struct {
	TypeName string
	Reason   string
	Cause    error
}

func (e *RegistrationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot register type %q: %s: %v", e.TypeName, e.Reason, e.Cause)
	}
	return fmt.Sprintf("cannot register type %q: %s", e.TypeName, e.Reason)
}

func (e *RegistrationError) Unwrap() error { return e.Cause }

// ConfigValueError is raised when a caller-supplied option is malformed,
// e.g. an unparsable cron schedule or an oversized tag list.
type ConfigValueError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigValueError) Error() string {
	return fmt.Sprintf("invalid value for %s (%v): %s", e.Field, e.Value, e.Reason)
}

// suspendError is the internal sentinel returned by the runtime call
// algorithm when a workflow function observes an unresolved Future and must
// yield control back to the worker loop for the remainder of this decision
// turn. It is never exposed outside the internal package and is never
// raised as a Go panic: it is propagated as a plain error return, matching
// the design note that a cross-stack-unwind suspension model does not
// belong in idiomatic Go.
type suspendError struct{}

func (suspendError) Error() string { return "workflow suspended pending unresolved calls" }

// errSuspend is the single shared instance of suspendError; callers compare
// with errors.Is rather than constructing their own.
var errSuspend = &suspendError{}
