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
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestCallIDAllocationIsMonotonicAndGapFreeProperty verifies the call-id
// allocation invariant: a sequence of calls against a fresh Runtime (nothing
// running, nothing resolved - every call suspends on its first id) always
// advances the cursor by exactly 1 + (1 if delayed) + retry, and the
// resulting windows tile the CallID space starting at zero with no overlap
// and no uncovered gap between them.
func TestCallIDAllocationIsMonotonicAndGapFreeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("sequential call windows tile from zero with no gaps or overlaps", prop.ForAll(
		func(delays []bool, retries []int) bool {
			n := len(delays)
			if len(retries) < n {
				return true // mismatched generator lengths, skip
			}

			snap := newSnapshot()
			rt, _ := newTestRuntime(snap)

			var prevEnd CallID = -1
			for i := 0; i < n; i++ {
				desc := testDescriptor("Probe")
				if delays[i] {
					desc.Delay = 30
				}
				desc.Retry = retries[i]

				start := rt.cursor
				f := rt.call(desc, nil, nil, false)
				if f == nil {
					return false
				}

				windowSize := CallID(callSlots(delays[i], retries[i]))
				if rt.cursor != start+windowSize {
					return false
				}
				// Windows must be contiguous: this call's window starts
				// exactly where the previous one ended.
				if start != prevEnd+1 {
					return false
				}
				prevEnd = rt.cursor - 1
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.TestingRun(t)
}
