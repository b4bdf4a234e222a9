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

	"github.com/stretchr/testify/require"

	"github.com/bogdanpop/flowy-go/converter"
)

func testDescriptor(name string) ProxyDescriptor {
	return ProxyDescriptor{
		DepName: name,
		Type:    TypeDescriptor{Name: name, Version: 1},
		Codec:   converter.DefaultCodec(),
	}
}

func newTestRuntime(snap *Snapshot) (*Runtime, *DecisionBuffer) {
	var flushed []Decision
	buf := NewDecisionBuffer(RateBudget(len(snap.Running)), func(d []Decision) error {
		flushed = d
		return nil
	}, nil)
	rt := NewRuntime(WorkflowMeta{TaskList: "T"}, snap, buf, nil)
	_ = flushed
	return rt, buf
}

// S1 - fresh workflow, single activity call.
func TestRuntimeS1FreshActivityCall(t *testing.T) {
	snap := newSnapshot()
	rt, buf := newTestRuntime(snap)

	f := rt.CallActivity(testDescriptor("A"), nil, nil)
	require.False(t, f.IsReady())

	require.Equal(t, CallID(1), rt.cursor)
	require.Len(t, buf.decisions, 1)
	d := buf.decisions[0]
	require.Equal(t, DecisionScheduleActivity, d.Kind)
	require.Equal(t, "0", d.CallKey)

	switch rt.Conclude(rt.WaitFor(f), nil) {
	case TerminationFlushOnly:
	default:
		t.Fatal("expected flush-only termination for an unresolved call")
	}
	require.True(t, buf.Closed())
}

// S2 - replay with a completed activity.
func TestRuntimeS2ReplayCompleted(t *testing.T) {
	snap := newSnapshot()
	snap.Results["0"] = []byte(`"42"`)
	snap.Order = []string{"0"}
	rt, buf := newTestRuntime(snap)

	f := rt.CallActivity(testDescriptor("A"), nil, nil)
	require.True(t, f.IsReady())

	var result string
	require.NoError(t, f.Get(&result))
	require.Equal(t, "42", result)

	encodedResult, err := converter.DefaultCodec().EncodeResult(result)
	require.NoError(t, err)
	require.Equal(t, TerminationComplete, rt.Conclude(nil, encodedResult))
	require.Len(t, buf.decisions, 1)
	require.Equal(t, DecisionCompleteWorkflow, buf.decisions[0].Kind)
}

// S3 - retry after timeout.
func TestRuntimeS3RetryAfterTimeout(t *testing.T) {
	snap := newSnapshot()
	snap.TimedOut["0"] = struct{}{}
	rt, buf := newTestRuntime(snap)

	desc := testDescriptor("A")
	desc.Retry = 2
	f := rt.CallActivity(desc, nil, nil)
	require.False(t, f.IsReady())

	require.Len(t, buf.decisions, 1)
	require.Equal(t, "1", buf.decisions[0].CallKey)
	require.Equal(t, CallID(3), rt.cursor)
}

// S4 - retry budget exhausted.
func TestRuntimeS4RetryBudgetExhausted(t *testing.T) {
	snap := newSnapshot()
	snap.TimedOut["0"] = struct{}{}
	snap.TimedOut["1"] = struct{}{}
	snap.TimedOut["2"] = struct{}{}
	rt, buf := newTestRuntime(snap)

	desc := testDescriptor("A")
	desc.Retry = 2
	f := rt.CallActivity(desc, nil, nil)
	require.True(t, f.IsReady())

	err := f.Get(nil)
	taskErr, ok := err.(*TaskError)
	require.True(t, ok)
	require.True(t, taskErr.IsTimeout())

	require.Equal(t, TerminationFail, rt.Conclude(err, nil))
	require.Equal(t, DecisionFailWorkflow, buf.decisions[0].Kind)
}

// S5 - delay-then-schedule, across two turns against fresh Runtimes (replay
// reconstructs the runtime from scratch every turn; only the snapshot
// changes between them).
func TestRuntimeS5DelayThenSchedule(t *testing.T) {
	desc := testDescriptor("A")
	desc.Delay = 30

	// Turn 1: nothing in history yet.
	snap1 := newSnapshot()
	rt1, buf1 := newTestRuntime(snap1)
	f1 := rt1.CallActivity(desc, nil, nil)
	require.False(t, f1.IsReady())
	require.Len(t, buf1.decisions, 1)
	require.Equal(t, DecisionStartTimer, buf1.decisions[0].Kind)
	require.Equal(t, "0:t", buf1.decisions[0].TimerID)
	require.Equal(t, int32(30), buf1.decisions[0].Delay)

	// Turn 2: the timer fired.
	snap2 := newSnapshot()
	snap2.Results["0"] = nil
	snap2.Order = []string{"0"}
	rt2, buf2 := newTestRuntime(snap2)
	f2 := rt2.CallActivity(desc, nil, nil)
	require.False(t, f2.IsReady())
	require.Len(t, buf2.decisions, 1)
	require.Equal(t, DecisionScheduleActivity, buf2.decisions[0].Kind)
	require.Equal(t, "1", buf2.decisions[0].CallKey)
	require.Equal(t, CallID(2), rt2.cursor)
}

// S6 - restart always wins regardless of anything scheduled earlier in the
// turn.
func TestRuntimeS6Restart(t *testing.T) {
	snap := newSnapshot()
	rt, buf := newTestRuntime(snap)
	rt.meta.ChildPolicy = ChildPolicyTerminate

	// Schedule something first, then restart - restart must replace it.
	_ = rt.CallActivity(testDescriptor("A"), nil, nil)
	require.Len(t, buf.decisions, 1)

	encoded, err := converter.DefaultCodec().EncodeArgs([]interface{}{"next"}, nil)
	require.NoError(t, err)
	rt.Restart(encoded)

	require.True(t, buf.Closed())
	require.Len(t, buf.decisions, 1)
	d := buf.decisions[0]
	require.Equal(t, DecisionContinueAsNew, d.Kind)
	require.Equal(t, encoded, d.Input)
	require.Equal(t, "T", d.ContinuedTaskList)
	require.Equal(t, ChildPolicyTerminate, d.ContinuedChildPolicy)

	require.Equal(t, TerminationRestart, rt.Conclude(nil, nil))
}

func TestRuntimeCallActivityFailedCall(t *testing.T) {
	snap := newSnapshot()
	snap.Errors["0"] = "boom"
	snap.Order = []string{"0"}
	rt, _ := newTestRuntime(snap)

	f := rt.CallActivity(testDescriptor("A"), nil, nil)
	require.True(t, f.IsReady())
	err := f.Get(nil)
	taskErr, ok := err.(*TaskError)
	require.True(t, ok)
	require.False(t, taskErr.IsTimeout())
	require.Contains(t, taskErr.Error(), "boom")
}

func TestRuntimeCallSubworkflowMangledKey(t *testing.T) {
	snap := newSnapshot()
	rt, buf := newTestRuntime(snap)

	f := rt.CallSubworkflow(testDescriptor("ChildWF"), nil, nil)
	require.False(t, f.IsReady())
	require.Len(t, buf.decisions, 1)
	d := buf.decisions[0]
	require.Equal(t, DecisionStartChildWorkflow, d.Kind)
	require.Contains(t, d.CallKey, ":0")
}

func TestRuntimeOptionsScopeAppliesAndRestores(t *testing.T) {
	snap := newSnapshot()
	rt, buf := newTestRuntime(snap)

	rt.Options(ScopedOptions{TaskList: "scoped-list"}, func() {
		rt.CallActivity(testDescriptor("A"), nil, nil)
	})
	require.Equal(t, "scoped-list", buf.decisions[0].Descriptor.TaskList)
	require.Empty(t, rt.activeScope().TaskList)
}

func TestFutureCombinators(t *testing.T) {
	snap := newSnapshot()
	snap.Results["0"] = []byte(`1`)
	snap.Results["1"] = []byte(`2`)
	snap.Order = []string{"1", "0"}
	rt, _ := newTestRuntime(snap)

	f0 := rt.CallActivity(testDescriptor("A"), nil, nil)
	f1 := rt.CallActivity(testDescriptor("B"), nil, nil)

	best, err := rt.First([]*Future{f0, f1})
	require.NoError(t, err)
	require.Equal(t, f1, best)

	all, err := rt.All([]*Future{f0, f1})
	require.NoError(t, err)
	require.Len(t, all, 2)

	firstN, err := rt.FirstN(2, []*Future{f0, f1})
	require.NoError(t, err)
	require.Equal(t, f1, firstN[0])
	require.Equal(t, f0, firstN[1])

	_, err = rt.FirstN(3, []*Future{f0, f1})
	require.Equal(t, errSuspend, err)
}

func TestConcludeEncodeFailureFailsWorkflow(t *testing.T) {
	snap := newSnapshot()
	rt, buf := newTestRuntime(snap)

	desc := testDescriptor("A")
	desc.Codec = converter.RawPassthroughCodec()
	// RawPassthroughCodec rejects keyword arguments, forcing an encode
	// failure on the scheduling path.
	f := rt.CallActivity(desc, nil, map[string]interface{}{"x": 1})
	require.False(t, f.IsReady())
	require.True(t, buf.Closed())
	require.Equal(t, DecisionFailWorkflow, buf.decisions[0].Kind)

	require.Equal(t, TerminationRestart, rt.Conclude(rt.WaitFor(f), nil))
}
