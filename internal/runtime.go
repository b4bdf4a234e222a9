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
	"strconv"

	"go.uber.org/zap"
)

// maxInFlightDecisions is the remote service's ceiling on simultaneously
// scheduled decisions (running + newly scheduled this turn).
const maxInFlightDecisions = 64

// FutureKind tags what a Future resolved to: a value, a failure, or a
// timeout. Access to the underlying value/error is always lazy - Get is
// the only place a TaskError is ever constructed - mirroring the .result()
// contract of the original system instead of raising eagerly.
type FutureKind int

const (
	FutureResult FutureKind = iota
	FutureError
	FutureTimeout
)

// Future is the value a proxy call returns: either an unresolved
// placeholder (the runtime has already recorded the suspension and the
// workflow body is expected to return promptly), or a resolved Result,
// Error, or Timeout. Get is the single place a TaskError surfaces.
type Future struct {
	ready bool
	kind  FutureKind

	callID   CallID
	typeName string
	order    int
	data     []byte
	reason   string
	codec    Codec
}

// Codec is the narrower decode surface the runtime needs from a
// converter.Codec, kept local to avoid an import cycle between internal
// and converter beyond what proxy.go already requires.
type Codec interface {
	DecodeResult(data []byte, valuePtr interface{}) error
}

// IsReady reports whether the call this Future represents has resolved
// (Result, Error, or Timeout) as of this turn's snapshot.
func (f *Future) IsReady() bool { return f.ready }

// Order returns the snapshot completion order index of the underlying
// call, used by the first/first_n combinators; unresolved futures return
// -1.
func (f *Future) Order() int {
	if !f.ready {
		return -1
	}
	return f.order
}

// Get decodes a resolved Result into valuePtr, or returns the lazily
// constructed TaskError for a resolved Error/Timeout. Calling Get on an
// unresolved Future returns errSuspend.
func (f *Future) Get(valuePtr interface{}) error {
	if !f.ready {
		return errSuspend
	}
	switch f.kind {
	case FutureError:
		return &TaskError{Kind: TaskErrorKindFailed, CallID: f.callID, TypeName: f.typeName, Reason: f.reason}
	case FutureTimeout:
		return &TaskError{Kind: TaskErrorKindTimedOut, CallID: f.callID, TypeName: f.typeName}
	default:
		if valuePtr == nil || f.codec == nil {
			return nil
		}
		return f.codec.DecodeResult(f.data, valuePtr)
	}
}

// Runtime is the decision replay engine: it holds the turn's immutable
// snapshot, the decision buffer it schedules into, and the call cursor
// that makes repeated replays of the same history deterministic.
type Runtime struct {
	snapshot *Snapshot
	buffer   *DecisionBuffer
	logger   *zap.Logger

	cursor    CallID
	scheduled bool

	// runningAtStart is |running| as of snapshot construction, used to
	// derive this turn's rate budget (64 - running).
	runningAtStart int

	// scopeStack holds the currently active options(...) overrides, top
	// of stack last; WithOptions applies the composition of all active
	// scopes.
	scopeStack []ScopedOptions

	meta WorkflowMeta
}

// WorkflowMeta is the metadata the service attaches to a decision task:
// the workflow's own type, input, and default scheduling configuration.
type WorkflowMeta struct {
	Type        TypeDescriptor
	Input       []byte
	TaskList    string
	ChildPolicy ChildPolicy
	Tags        []string
}

// NewRuntime constructs a Runtime for one decision turn. It records
// len(snapshot.Running) once, at construction, as runningAtStart so that
// rate-budget accounting is pinned to this turn's starting point.
func NewRuntime(meta WorkflowMeta, snapshot *Snapshot, buffer *DecisionBuffer, logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{
		snapshot:       snapshot,
		buffer:         buffer,
		logger:         logger,
		runningAtStart: len(snapshot.Running),
		meta:           meta,
	}
}

// Input returns the workflow's own encoded input bytes.
func (rt *Runtime) Input() []byte { return rt.meta.Input }

// RateBudget is this turn's cap on newly scheduled decisions: the global
// ceiling of 64 simultaneously in-flight decisions, minus however many are
// already running.
func (rt *Runtime) RateBudget() int {
	return RateBudget(rt.runningAtStart)
}

// RateBudget computes the scheduling cap for a turn with runningCount
// calls already in flight. Exposed as a package function so the worker
// loop can size a turn's DecisionBuffer before a Runtime exists to ask.
func RateBudget(runningCount int) int {
	budget := maxInFlightDecisions - runningCount
	if budget < 0 {
		budget = 0
	}
	return budget
}

// Options runs fn with a scoped override of task-list/timeouts applied to
// every proxy call made inside it, restoring the previous scope on return -
// including on panic, since the restore is deferred. Tags set on a scope
// are kept on the scope stack only; no proxy call and no Restart reads
// them.
func (rt *Runtime) Options(opts ScopedOptions, fn func()) {
	rt.scopeStack = append(rt.scopeStack, opts)
	defer func() {
		rt.scopeStack = rt.scopeStack[:len(rt.scopeStack)-1]
	}()
	fn()
}

func (rt *Runtime) activeScope() ScopedOptions {
	if len(rt.scopeStack) == 0 {
		return ScopedOptions{}
	}
	return rt.scopeStack[len(rt.scopeStack)-1]
}

// CallActivity schedules or looks up the result of an activity call at the
// runtime's current call cursor, advancing the cursor by the reserved
// window on every exit path. This is the call algorithm from the decision
// runtime's contract, identical for activities and sub-workflows except
// for which DecisionBuffer method emits the scheduling decision. Argument
// encoding happens lazily, only on the path that actually schedules the
// call - a call that resolves from the snapshot never touches the codec.
func (rt *Runtime) CallActivity(desc ProxyDescriptor, positional []interface{}, keyword map[string]interface{}) *Future {
	return rt.call(desc, positional, keyword, false)
}

// CallSubworkflow is CallActivity's sub-workflow counterpart: it additionally
// mangles the scheduled callKey with a fresh random prefix so the
// service-assigned workflow id is globally unique while the suffix still
// recovers the deterministic call-id for history folding.
func (rt *Runtime) CallSubworkflow(desc ProxyDescriptor, positional []interface{}, keyword map[string]interface{}) *Future {
	return rt.call(desc, positional, keyword, true)
}

func (rt *Runtime) call(desc ProxyDescriptor, positional []interface{}, keyword map[string]interface{}, isChild bool) *Future {
	for _, scope := range rt.scopeStack {
		desc = desc.WithOptions(scope)
	}
	// c0 is the immutable start of this call's reserved id window - the
	// cursor always advances by the same window computed from c0,
	// regardless of how far the scan below walks past it.
	c0 := rt.cursor
	scanStart := c0

	// The cursor must advance by the full reserved window on every exit
	// path - normal return, suspend, or error - or replay determinism
	// breaks. defer covers every one of those paths in one place.
	defer func() {
		rt.cursor = c0 + CallID(callSlots(desc.Delay > 0, int(desc.Retry)))
	}()

	if desc.Delay > 0 {
		tkey := timerKey(c0)
		if rt.snapshot.IsRunning(tkey) {
			return rt.suspend(c0, desc.Type.Name)
		}
		if _, fired := rt.snapshot.Result(strconv.FormatInt(int64(c0), 10)); !fired {
			rt.scheduled = true
			rt.buffer.StartTimer(tkey, desc.Delay)
			return rt.suspend(c0, desc.Type.Name)
		}
		// Fired: fall through to step 2 starting one id later.
		scanStart = c0 + 1
	}

	for id := scanStart; id <= scanStart+CallID(desc.Retry); id++ {
		key := strconv.FormatInt(int64(id), 10)

		if rt.snapshot.IsTimedOut(key) {
			continue
		}
		if rt.snapshot.IsRunning(key) {
			return rt.suspend(id, desc.Type.Name)
		}
		if reason, failed := rt.snapshot.Err(key); failed {
			return &Future{ready: true, kind: FutureError, callID: id, typeName: desc.Type.Name, reason: reason, order: rt.snapshot.OrderIndex(key)}
		}
		if result, done := rt.snapshot.Result(key); done {
			return &Future{ready: true, kind: FutureResult, callID: id, typeName: desc.Type.Name, data: result, order: rt.snapshot.OrderIndex(key), codec: desc.Codec}
		}

		// Never scheduled: schedule it now. Encoding only happens on this
		// path - a call that already resolved from the snapshot never
		// touches the codec at all.
		rt.scheduled = true
		encodedArgs, encErr := desc.Codec.EncodeArgs(positional, keyword)
		if encErr != nil {
			rt.buffer.Fail(encErr.Error())
			return rt.suspend(id, desc.Type.Name)
		}
		callKey := key
		if isChild {
			callKey = childKey(id)
		}
		if isChild {
			rt.buffer.ScheduleChild(callKey, desc, encodedArgs)
		} else {
			rt.buffer.ScheduleActivity(callKey, desc, encodedArgs)
		}
		return rt.suspend(id, desc.Type.Name)
	}

	// Every id in the retry window timed out.
	last := scanStart + CallID(desc.Retry)
	return &Future{ready: true, kind: FutureTimeout, callID: last, typeName: desc.Type.Name, order: rt.snapshot.OrderIndex(strconv.FormatInt(int64(last), 10))}
}

func (rt *Runtime) suspend(id CallID, typeName string) *Future {
	return &Future{ready: false, callID: id, typeName: typeName}
}

// Restart emits a continue-as-new decision with the given encoded args,
// carrying forward the workflow's own task list, child policy, and tags,
// and flushes. It always wins regardless of whatever else was scheduled
// earlier in the turn - Conclude sees the buffer already closed and treats
// the turn as settled.
func (rt *Runtime) Restart(encodedArgs []byte) {
	rt.buffer.Restart(encodedArgs, rt.meta.TaskList, rt.meta.ChildPolicy, rt.meta.Tags)
}

// WaitFor blocks the workflow body (by suspending) until the given Future
// resolves, swallowing any TaskError it carries and re-raising suspension
// unchanged if it is still pending. It does not decode a resolved Result;
// decode errors surface only through Get.
func (rt *Runtime) WaitFor(f *Future) error {
	if !f.IsReady() {
		return errSuspend
	}
	return nil
}

// First returns the earliest-resolved Future among fs by completion
// order, or nil with errSuspend if none has resolved yet.
func (rt *Runtime) First(fs []*Future) (*Future, error) {
	var best *Future
	for _, f := range fs {
		if !f.IsReady() {
			continue
		}
		if best == nil || f.Order() < best.Order() {
			best = f
		}
	}
	if best == nil {
		return nil, errSuspend
	}
	return best, nil
}

// FirstN returns the n earliest-resolved Futures among fs, or errSuspend
// if fewer than n have resolved yet.
func (rt *Runtime) FirstN(n int, fs []*Future) ([]*Future, error) {
	ready := make([]*Future, 0, len(fs))
	for _, f := range fs {
		if f.IsReady() {
			ready = append(ready, f)
		}
	}
	if len(ready) < n {
		return nil, errSuspend
	}
	for i := 0; i < len(ready); i++ {
		for j := i + 1; j < len(ready); j++ {
			if ready[j].Order() < ready[i].Order() {
				ready[i], ready[j] = ready[j], ready[i]
			}
		}
	}
	return ready[:n], nil
}

// All returns fs unchanged once every Future has resolved, or errSuspend
// if any is still pending.
func (rt *Runtime) All(fs []*Future) ([]*Future, error) {
	for _, f := range fs {
		if !f.IsReady() {
			return nil, errSuspend
		}
	}
	return fs, nil
}

// TerminationDecision is what the worker loop applies once the workflow
// body returns control (by returning a value, or by suspending).
type TerminationDecision int

const (
	// TerminationFlushOnly means the turn ended mid-flight: either the
	// body explicitly suspended, or it returned normally but work is
	// still scheduled/running. The buffer is flushed with whatever
	// scheduling decisions accumulated, and nothing more.
	TerminationFlushOnly TerminationDecision = iota
	// TerminationComplete means the workflow finished and the buffer
	// should emit a complete-workflow decision.
	TerminationComplete
	// TerminationFail means the workflow body returned an error other
	// than suspension (a TaskError or any other error) and the buffer
	// should emit a fail-workflow decision.
	TerminationFail
	// TerminationRestart means the buffer was already closed when the
	// body returned: the body called Restart, which flushed a
	// continue-as-new decision, or another terminal decision (such as the
	// fail-workflow emitted on an argument-encoding failure) already
	// flushed; nothing more to do.
	TerminationRestart
)

// Conclude applies the turn-termination rules given the user workflow
// body's outcome and flushes the buffer accordingly (except for
// TerminationRestart, whose flush already happened inside Restart).
func (rt *Runtime) Conclude(bodyErr error, result []byte) TerminationDecision {
	if rt.buffer.Closed() {
		// Restart (or some other terminal decision) already flushed.
		return TerminationRestart
	}

	if bodyErr != nil {
		if taskErr, ok := bodyErr.(*TaskError); ok {
			rt.buffer.Fail(taskErr.Error())
			return TerminationFail
		}
		if errors.Is(bodyErr, errSuspend) {
			rt.buffer.Flush()
			return TerminationFlushOnly
		}
		rt.buffer.Fail(truncate(bodyErr.Error(), MaxReasonBytes))
		return TerminationFail
	}

	if rt.scheduled || len(rt.snapshot.Running) > 0 {
		rt.buffer.Flush()
		return TerminationFlushOnly
	}

	rt.buffer.Complete(result)
	return TerminationComplete
}
