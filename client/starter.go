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

package client

import (
	"context"

	"github.com/pborman/uuid"

	"github.com/bogdanpop/flowy-go/internal"
)

// Starter fires new workflow executions from outside any worker process,
// component I. It holds nothing but a domain and a ServiceClient - no
// local state about the executions it starts.
type Starter struct {
	domain string
	svc    internal.ServiceClient
}

// NewStarter returns a Starter bound to one domain and service client.
func NewStarter(domain string, svc internal.ServiceClient) *Starter {
	return &Starter{domain: domain, svc: svc}
}

// Handle is returned by Start: calling it issues the start_workflow_execution
// RPC with the given positional/keyword arguments, encoded with the
// configured codec, and reports whether the remote service accepted it.
type Handle func(ctx context.Context, positional []interface{}, keyword map[string]interface{}) (bool, error)

// Start returns a Handle bound to one workflow type and StartOptions. The
// workflow id defaults to a fresh random identifier if none is given.
func (s *Starter) Start(name string, version int32, options StartOptions) (Handle, error) {
	options = options.withDefaults()
	if err := options.validate(); err != nil {
		return nil, err
	}

	workflowID := options.WorkflowID
	if workflowID == "" {
		workflowID = uuid.NewRandom().String()
	}

	return func(ctx context.Context, positional []interface{}, keyword map[string]interface{}) (bool, error) {
		input, err := options.Codec.EncodeArgs(positional, keyword)
		if err != nil {
			return false, err
		}
		_, err = s.svc.StartWorkflowExecution(ctx, &internal.StartWorkflowExecutionRequest{
			Domain:       s.domain,
			WorkflowID:   workflowID,
			Type:         internal.TypeDescriptor{Name: name, Version: version},
			TaskList:     options.TaskList,
			Input:        input,
			Tags:         internal.DedupTags(options.Tags),
			ChildPolicy:  options.ChildPolicy,
			CronSchedule: options.CronSchedule,
		})
		if err != nil {
			return false, nil
		}
		return true, nil
	}, nil
}
