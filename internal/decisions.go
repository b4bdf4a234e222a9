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
	"go.uber.org/zap"
)

// DecisionKind tags the payload carried by a Decision.
type DecisionKind int

const (
	DecisionStartTimer DecisionKind = iota
	DecisionScheduleActivity
	DecisionStartChildWorkflow
	DecisionCompleteWorkflow
	DecisionFailWorkflow
	DecisionContinueAsNew
)

// Decision is one entry emitted by the buffer as part of a decision-task
// response.
type Decision struct {
	Kind DecisionKind

	// StartTimer
	TimerID string
	Delay   int32

	// ScheduleActivity / StartChildWorkflow
	CallKey    string
	Descriptor ProxyDescriptor
	Input      []byte

	// CompleteWorkflow
	Result []byte

	// FailWorkflow
	Reason string

	// ContinueAsNew shares Input as its carrier field; TaskList, ChildPolicy,
	// and Tags carry forward the restarting workflow's own metadata since a
	// continue-as-new is indistinguishable from a fresh start to the remote
	// service.
	ContinuedTaskList    string
	ContinuedChildPolicy ChildPolicy
	ContinuedTags        []string
}

// Flusher sends a completed batch of decisions for a task token. Supplied
// by the ServiceClient binding; the buffer never talks to the wire
// directly.
type Flusher func(decisions []Decision) error

// DecisionBuffer accumulates the scheduling decisions for a single decision
// turn and flushes them exactly once. It is created fresh per turn, has a
// single writer (the Runtime that owns it), and silently drops anything
// offered after it closes - this is what makes it safe for the worker to
// retry a whole turn rather than a partial one.
type DecisionBuffer struct {
	decisions []Decision
	cap       int
	closed    bool
	flush     Flusher
	logger    *zap.Logger
}

// NewDecisionBuffer returns a buffer that accepts at most capacity
// scheduling decisions (start-timer/schedule-activity/start-child) before
// silently dropping further ones, and sends the final batch through flush.
func NewDecisionBuffer(capacity int, flush Flusher, logger *zap.Logger) *DecisionBuffer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity < 0 {
		capacity = 0
	}
	return &DecisionBuffer{cap: capacity, flush: flush, logger: logger}
}

// Len reports how many decisions are currently buffered.
func (b *DecisionBuffer) Len() int { return len(b.decisions) }

// StartTimer appends a start-timer decision if the buffer is open and under
// its scheduling cap.
func (b *DecisionBuffer) StartTimer(id string, delay int32) {
	b.appendScheduling(Decision{Kind: DecisionStartTimer, TimerID: id, Delay: delay})
}

// ScheduleActivity appends a schedule-activity decision if the buffer is
// open and under its scheduling cap.
func (b *DecisionBuffer) ScheduleActivity(callKey string, d ProxyDescriptor, input []byte) {
	b.appendScheduling(Decision{Kind: DecisionScheduleActivity, CallKey: callKey, Descriptor: d, Input: input})
}

// ScheduleChild appends a start-child-workflow decision if the buffer is
// open and under its scheduling cap.
func (b *DecisionBuffer) ScheduleChild(callKey string, d ProxyDescriptor, input []byte) {
	b.appendScheduling(Decision{Kind: DecisionStartChildWorkflow, CallKey: callKey, Descriptor: d, Input: input})
}

func (b *DecisionBuffer) appendScheduling(d Decision) {
	if b.closed {
		return
	}
	if len(b.decisions) >= b.cap {
		b.logger.Debug("decision dropped, rate budget exhausted this turn", zap.Int("cap", b.cap))
		return
	}
	b.decisions = append(b.decisions, d)
}

// Complete replaces the buffer with a single complete-workflow decision and
// flushes.
func (b *DecisionBuffer) Complete(result []byte) {
	b.terminal(Decision{Kind: DecisionCompleteWorkflow, Result: result})
}

// Fail replaces the buffer with a single fail-workflow decision and
// flushes.
func (b *DecisionBuffer) Fail(reason string) {
	b.terminal(Decision{Kind: DecisionFailWorkflow, Reason: truncate(reason, MaxReasonBytes)})
}

// Restart replaces the buffer with a single continue-as-new decision and
// flushes, carrying forward the restarting workflow's task list, child
// policy, and tags.
func (b *DecisionBuffer) Restart(input []byte, taskList string, childPolicy ChildPolicy, tags []string) {
	b.terminal(Decision{
		Kind:                 DecisionContinueAsNew,
		Input:                input,
		ContinuedTaskList:    taskList,
		ContinuedChildPolicy: childPolicy,
		ContinuedTags:        tags,
	})
}

func (b *DecisionBuffer) terminal(d Decision) {
	if b.closed {
		return
	}
	b.decisions = []Decision{d}
	b.Flush()
}

// Flush sends the buffered decisions and closes the buffer. Calling Flush
// more than once, or calling it after a terminal decision already flushed,
// is a no-op - this is the invariant that at most one response is ever
// emitted per turn.
func (b *DecisionBuffer) Flush() {
	if b.closed {
		return
	}
	b.closed = true
	if b.flush == nil {
		return
	}
	if err := b.flush(b.decisions); err != nil {
		// The service will time this decision task out and redispatch it;
		// nothing we buffered is lost, so we only log.
		b.logger.Warn("decision flush failed, relying on service redispatch", zap.Error(err))
	}
}

// Closed reports whether the buffer has already flushed.
func (b *DecisionBuffer) Closed() bool { return b.closed }
