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

// Package mocks provides a testify-mock-based internal.ServiceClient for
// tests of the worker loops and the starter, so they can be exercised
// without a real remote service.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bogdanpop/flowy-go/internal"
)

// ServiceClient is a mock.Mock-backed internal.ServiceClient.
type ServiceClient struct {
	mock.Mock
}

var _ internal.ServiceClient = (*ServiceClient)(nil)

func (s *ServiceClient) PollForDecisionTask(ctx context.Context, req *internal.PollForDecisionTaskRequest) (*internal.PollForDecisionTaskResponse, error) {
	args := s.Called(ctx, req)
	resp, _ := args.Get(0).(*internal.PollForDecisionTaskResponse)
	return resp, args.Error(1)
}

func (s *ServiceClient) PollForActivityTask(ctx context.Context, req *internal.PollForActivityTaskRequest) (*internal.PollForActivityTaskResponse, error) {
	args := s.Called(ctx, req)
	resp, _ := args.Get(0).(*internal.PollForActivityTaskResponse)
	return resp, args.Error(1)
}

func (s *ServiceClient) RespondDecisionTaskCompleted(ctx context.Context, req *internal.RespondDecisionTaskCompletedRequest) error {
	args := s.Called(ctx, req)
	return args.Error(0)
}

func (s *ServiceClient) RespondActivityTaskCompleted(ctx context.Context, req *internal.RespondActivityTaskCompletedRequest) error {
	args := s.Called(ctx, req)
	return args.Error(0)
}

func (s *ServiceClient) RespondActivityTaskFailed(ctx context.Context, req *internal.RespondActivityTaskFailedRequest) error {
	args := s.Called(ctx, req)
	return args.Error(0)
}

func (s *ServiceClient) RecordActivityTaskHeartbeat(ctx context.Context, req *internal.RecordActivityTaskHeartbeatRequest) (*internal.RecordActivityTaskHeartbeatResponse, error) {
	args := s.Called(ctx, req)
	resp, _ := args.Get(0).(*internal.RecordActivityTaskHeartbeatResponse)
	return resp, args.Error(1)
}

func (s *ServiceClient) RegisterWorkflowType(ctx context.Context, req *internal.RegisterWorkflowTypeRequest) error {
	args := s.Called(ctx, req)
	return args.Error(0)
}

func (s *ServiceClient) DescribeWorkflowType(ctx context.Context, req *internal.DescribeWorkflowTypeRequest) (*internal.DescribeWorkflowTypeResponse, error) {
	args := s.Called(ctx, req)
	resp, _ := args.Get(0).(*internal.DescribeWorkflowTypeResponse)
	return resp, args.Error(1)
}

func (s *ServiceClient) RegisterActivityType(ctx context.Context, req *internal.RegisterActivityTypeRequest) error {
	args := s.Called(ctx, req)
	return args.Error(0)
}

func (s *ServiceClient) DescribeActivityType(ctx context.Context, req *internal.DescribeActivityTypeRequest) (*internal.DescribeActivityTypeResponse, error) {
	args := s.Called(ctx, req)
	resp, _ := args.Get(0).(*internal.DescribeActivityTypeResponse)
	return resp, args.Error(1)
}

func (s *ServiceClient) StartWorkflowExecution(ctx context.Context, req *internal.StartWorkflowExecutionRequest) (*internal.StartWorkflowExecutionResponse, error) {
	args := s.Called(ctx, req)
	resp, _ := args.Get(0).(*internal.StartWorkflowExecutionResponse)
	return resp, args.Error(1)
}
