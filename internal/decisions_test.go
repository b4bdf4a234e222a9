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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecisionBufferDropsBeyondCap(t *testing.T) {
	var flushed []Decision
	b := NewDecisionBuffer(2, func(d []Decision) error { flushed = d; return nil }, nil)

	b.ScheduleActivity("0", ProxyDescriptor{}, nil)
	b.ScheduleActivity("1", ProxyDescriptor{}, nil)
	b.ScheduleActivity("2", ProxyDescriptor{}, nil) // dropped, cap is 2
	require.Equal(t, 2, b.Len())

	b.Flush()
	require.Len(t, flushed, 2)
}

func TestDecisionBufferFlushesOnlyOnce(t *testing.T) {
	calls := 0
	b := NewDecisionBuffer(10, func(d []Decision) error { calls++; return nil }, nil)
	b.ScheduleActivity("0", ProxyDescriptor{}, nil)
	b.Flush()
	b.Flush()
	require.Equal(t, 1, calls)
	require.True(t, b.Closed())
}

func TestDecisionBufferTerminalReplacesBuffer(t *testing.T) {
	var flushed []Decision
	b := NewDecisionBuffer(10, func(d []Decision) error { flushed = d; return nil }, nil)
	b.ScheduleActivity("0", ProxyDescriptor{}, nil)
	b.ScheduleActivity("1", ProxyDescriptor{}, nil)
	b.Complete([]byte("42"))

	require.Len(t, flushed, 1)
	require.Equal(t, DecisionCompleteWorkflow, flushed[0].Kind)
}

func TestDecisionBufferPostCloseOpsAreNoop(t *testing.T) {
	b := NewDecisionBuffer(10, func(d []Decision) error { return nil }, nil)
	b.Complete([]byte("1"))
	require.True(t, b.Closed())

	b.Fail("too late")
	b.ScheduleActivity("0", ProxyDescriptor{}, nil)
	require.Equal(t, 1, b.Len())
}

func TestDecisionBufferFlushErrorIsSwallowed(t *testing.T) {
	b := NewDecisionBuffer(10, func(d []Decision) error { return errors.New("transport down") }, nil)
	require.NotPanics(t, func() { b.Complete([]byte("1")) })
	require.True(t, b.Closed())
}
