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

// Package worker runs the workflow and activity worker loops against a
// registry and a remote service client.
package worker

import (
	"github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"github.com/bogdanpop/flowy-go/converter"
	"github.com/bogdanpop/flowy-go/internal"
)

// Options configures a workflow or activity Worker. Every field has a
// usable zero value; options scanning or config-file loading is out of
// scope - callers build Options in code.
type Options struct {
	// Identity defaults to internal.DefaultIdentity() ("<host>-<pid>",
	// truncated) when empty.
	Identity string

	// Codec defaults to converter.DefaultCodec() when nil.
	Codec converter.Codec

	// Logger defaults to zap.NewNop() when nil.
	Logger *zap.Logger

	// MetricsScope defaults to tally.NoopScope when nil.
	MetricsScope tally.Scope

	// Tracer wraps each decision turn / activity task in a span, defaulting
	// to opentracing.NoopTracer{} when nil.
	Tracer opentracing.Tracer

	// RegisterRemote, when true, causes NewWorkflowWorker to register every
	// type in the registry with the remote service before returning, per
	// §4.F / §6's "register_remote" CLI contract; a registration failure is
	// returned from NewWorkflowWorker rather than deferred to the first
	// poll. NewActivityWorker does not read it.
	RegisterRemote bool

	// PollRateLimit caps decision-task long-polls per second against the
	// remote service; <= 0 means unlimited.
	PollRateLimit float64
}

func (o Options) withDefaults() Options {
	if o.Identity == "" {
		o.Identity = internal.DefaultIdentity()
	}
	if o.Codec == nil {
		o.Codec = converter.DefaultCodec()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MetricsScope == nil {
		o.MetricsScope = tally.NoopScope
	}
	if o.Tracer == nil {
		o.Tracer = opentracing.NoopTracer{}
	}
	return o
}
