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

// Package client starts new workflow executions from outside any worker.
package client

import (
	"github.com/robfig/cron"

	"github.com/bogdanpop/flowy-go/converter"
	"github.com/bogdanpop/flowy-go/internal"
)

// StartOptions configures a single Starter.Start call.
type StartOptions struct {
	// WorkflowID defaults to a fresh random identifier when empty.
	WorkflowID string

	TaskList    string
	ChildPolicy internal.ChildPolicy
	Tags        []string

	// CronSchedule, when set, is validated with a standard five-field cron
	// expression before the start request is sent; this is additive to
	// the base start contract and has no effect on single-shot
	// executions.
	CronSchedule string

	// Codec defaults to converter.DefaultCodec() when nil.
	Codec converter.Codec
}

func (o StartOptions) withDefaults() StartOptions {
	if o.Codec == nil {
		o.Codec = converter.DefaultCodec()
	}
	return o
}

func (o StartOptions) validate() error {
	if o.CronSchedule != "" {
		if _, err := cron.ParseStandard(o.CronSchedule); err != nil {
			return &internal.ConfigValueError{Field: "CronSchedule", Value: o.CronSchedule, Reason: err.Error()}
		}
	}
	if len(o.Tags) > internal.MaxTags {
		return &internal.ConfigValueError{Field: "Tags", Value: len(o.Tags), Reason: "too many tags"}
	}
	return nil
}
