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
	"time"

	"github.com/bogdanpop/flowy-go/converter"
)

// ChildPolicy is the remote service's disposition for a child workflow when
// its parent terminates.
type ChildPolicy int

const (
	ChildPolicyUnspecified ChildPolicy = iota
	ChildPolicyTerminate
	ChildPolicyRequestCancel
	ChildPolicyAbandon
)

func (p ChildPolicy) String() string {
	switch p {
	case ChildPolicyTerminate:
		return "TERMINATE"
	case ChildPolicyRequestCancel:
		return "REQUEST_CANCEL"
	case ChildPolicyAbandon:
		return "ABANDON"
	default:
		return "UNSPECIFIED"
	}
}

// TypeDescriptor is the workflow/activity type identity consumed by the
// type registry: the name/version pair plus the defaults the registry
// checks for remote compatibility.
type TypeDescriptor struct {
	Name                string
	Version             int32
	DefaultTaskList     string
	DefaultChildPolicy  ChildPolicy
	DefaultStartToClose time.Duration
}

// ProxyDescriptor is the immutable, per-dependency scheduling configuration
// a workflow uses to invoke one activity or sub-workflow type: task list,
// timeouts, retry count, pre-call delay, and the codec used to encode its
// arguments and decode its result.
type ProxyDescriptor struct {
	DepName string
	Type    TypeDescriptor

	TaskList              string
	ScheduleToStartTimeout time.Duration
	StartToCloseTimeout    time.Duration
	ScheduleToCloseTimeout time.Duration
	HeartbeatTimeout       time.Duration

	// Retry is a plain attempt count, settled as a single integer shape
	// rather than the inconsistent 3-tuple-or-int shape the attempt count
	// historically took at different call sites.
	Retry int

	// Delay, in seconds, before the call is first scheduled (0 disables
	// the pre-call timer entirely).
	Delay int32

	Codec converter.Codec
}

// WithOptions returns a shallow copy of the descriptor with the given
// scoped overrides applied, used by Runtime.Options to implement "options(
// ...) as scope" without mutating the caller's descriptor.
func (d ProxyDescriptor) WithOptions(opts ScopedOptions) ProxyDescriptor {
	out := d
	if opts.TaskList != "" {
		out.TaskList = opts.TaskList
	}
	if opts.ScheduleToStartTimeout > 0 {
		out.ScheduleToStartTimeout = opts.ScheduleToStartTimeout
	}
	if opts.StartToCloseTimeout > 0 {
		out.StartToCloseTimeout = opts.StartToCloseTimeout
	}
	if opts.ScheduleToCloseTimeout > 0 {
		out.ScheduleToCloseTimeout = opts.ScheduleToCloseTimeout
	}
	if opts.HeartbeatTimeout > 0 {
		out.HeartbeatTimeout = opts.HeartbeatTimeout
	}
	return out
}

// ScopedOptions carries the fields Runtime.Options accepts for the
// duration of a scope: task list, timeouts, and tags. WithOptions applies
// the task list and timeouts; Tags is not applied to any descriptor.
type ScopedOptions struct {
	TaskList               string
	ScheduleToStartTimeout time.Duration
	StartToCloseTimeout    time.Duration
	ScheduleToCloseTimeout time.Duration
	HeartbeatTimeout       time.Duration
	Tags                   []string
}
