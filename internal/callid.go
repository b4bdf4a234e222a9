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

import (
	"fmt"

	"github.com/pborman/uuid"
)

// CallID identifies a single logical call (activity invocation, timer, or
// sub-workflow) within one workflow execution. Allocation is deterministic
// and monotonic: replaying the same history from the start always produces
// the same sequence of CallIDs for the same sequence of calls, which is
// what lets the decision runtime correlate buffered decisions back to
// history events across turns.
type CallID int64

// timerKey mangles a CallID into the key under which a companion timer
// decision is tracked, so a call's activity/child slot and its optional
// delay timer never collide in the snapshot's running/results/errors maps.
func timerKey(id CallID) string {
	return fmt.Sprintf("%d:t", id)
}

// childKey mangles a CallID into the workflow ID used for a sub-workflow
// call, namespaced with a random UUID so concurrently-started children of
// the same parent call site never collide on the remote service.
func childKey(id CallID) string {
	return fmt.Sprintf("%s:%d", uuid.NewRandom().String(), id)
}

// callSlots returns how many CallIDs a single logical call reserves: one
// for the call itself, one more if it has a pre-call delay timer, and one
// per retry attempt. Reservation happens unconditionally, before the call
// is dispatched, so a call that never actually retries still leaves gaps
// in the CallID sequence on replay - this is required for determinism,
// since whether a retry happens depends on the (non-deterministic, as far
// as the allocator is concerned) outcome of the attempt.
func callSlots(hasDelay bool, retry int) int64 {
	slots := int64(1)
	if hasDelay {
		slots++
	}
	if retry > 0 {
		slots += int64(retry)
	}
	return slots
}
