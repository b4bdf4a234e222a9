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
	"context"
	"errors"
)

// ServiceClient is the opaque RPC surface this module consumes from the
// remote workflow service. It is intentionally not bound to any one
// wire protocol - a binding adapts whatever transport the operator runs
// (a proprietary HTTPS+JSON endpoint, a gRPC service, ...) to this
// interface. In particular the registration/describe operations below are
// not part of every workflow service's API (notably, they have no
// equivalent in some newer gRPC-based services); a binding for such a
// service can implement them as no-ops that always report success.
type ServiceClient interface {
	PollForDecisionTask(ctx context.Context, req *PollForDecisionTaskRequest) (*PollForDecisionTaskResponse, error)
	PollForActivityTask(ctx context.Context, req *PollForActivityTaskRequest) (*PollForActivityTaskResponse, error)

	RespondDecisionTaskCompleted(ctx context.Context, req *RespondDecisionTaskCompletedRequest) error
	RespondActivityTaskCompleted(ctx context.Context, req *RespondActivityTaskCompletedRequest) error
	RespondActivityTaskFailed(ctx context.Context, req *RespondActivityTaskFailedRequest) error
	RecordActivityTaskHeartbeat(ctx context.Context, req *RecordActivityTaskHeartbeatRequest) (*RecordActivityTaskHeartbeatResponse, error)

	RegisterWorkflowType(ctx context.Context, req *RegisterWorkflowTypeRequest) error
	DescribeWorkflowType(ctx context.Context, req *DescribeWorkflowTypeRequest) (*DescribeWorkflowTypeResponse, error)
	RegisterActivityType(ctx context.Context, req *RegisterActivityTypeRequest) error
	DescribeActivityType(ctx context.Context, req *DescribeActivityTypeRequest) (*DescribeActivityTypeResponse, error)

	StartWorkflowExecution(ctx context.Context, req *StartWorkflowExecutionRequest) (*StartWorkflowExecutionResponse, error)
}

// ErrAlreadyExists is returned (or wrapped) by RegisterWorkflowType /
// RegisterActivityType bindings when the remote service already has a
// registration for that (name, version).
var ErrAlreadyExists = errors.New("type already registered")

func errIsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// PollForDecisionTaskRequest is the long-poll request for the next
// decision task on a task list.
type PollForDecisionTaskRequest struct {
	Domain       string
	TaskList     string
	Identity     string
	NextPageToken []byte
}

// PollForDecisionTaskResponse carries a page of history plus the metadata
// needed to build a Runtime. TaskToken is empty when the long-poll timed
// out with nothing to do.
type PollForDecisionTaskResponse struct {
	TaskToken     []byte
	Events        []HistoryEvent
	NextPageToken []byte
	WorkflowType  TypeDescriptor
	Input         []byte
	WorkflowID    string
	RunID         string
	TaskList      string
	ChildPolicy   ChildPolicy
	Tags          []string
}

// PollForActivityTaskRequest is the long-poll request for the next
// activity task on a task list.
type PollForActivityTaskRequest struct {
	Domain   string
	TaskList string
	Identity string
}

// PollForActivityTaskResponse carries one activity invocation.
type PollForActivityTaskResponse struct {
	TaskToken    []byte
	ActivityType TypeDescriptor
	Input        []byte
}

// RespondDecisionTaskCompletedRequest flushes a decision buffer.
type RespondDecisionTaskCompletedRequest struct {
	TaskToken []byte
	Decisions []Decision
}

// RespondActivityTaskCompletedRequest reports an activity's result.
type RespondActivityTaskCompletedRequest struct {
	TaskToken []byte
	Result    []byte
}

// RespondActivityTaskFailedRequest reports an activity's failure.
type RespondActivityTaskFailedRequest struct {
	TaskToken []byte
	Reason    string
}

// RecordActivityTaskHeartbeatRequest records activity liveness.
type RecordActivityTaskHeartbeatRequest struct {
	TaskToken []byte
	Details   []byte
}

// RecordActivityTaskHeartbeatResponse tells the activity whether a
// cancellation has been requested.
type RecordActivityTaskHeartbeatResponse struct {
	CancelRequested bool
}

// RegisterWorkflowTypeRequest registers a workflow type's defaults.
type RegisterWorkflowTypeRequest struct {
	Descriptor TypeDescriptor
}

// DescribeWorkflowTypeRequest asks for a workflow type's remote defaults.
type DescribeWorkflowTypeRequest struct {
	Name    string
	Version int32
}

// DescribeWorkflowTypeResponse carries a workflow type's remote defaults.
type DescribeWorkflowTypeResponse struct {
	Descriptor TypeDescriptor
}

// RegisterActivityTypeRequest registers an activity type's defaults.
type RegisterActivityTypeRequest struct {
	Descriptor TypeDescriptor
}

// DescribeActivityTypeRequest asks for an activity type's remote defaults.
type DescribeActivityTypeRequest struct {
	Name    string
	Version int32
}

// DescribeActivityTypeResponse carries an activity type's remote defaults.
type DescribeActivityTypeResponse struct {
	Descriptor TypeDescriptor
}

// StartWorkflowExecutionRequest starts a new workflow execution.
type StartWorkflowExecutionRequest struct {
	Domain      string
	WorkflowID  string
	Type        TypeDescriptor
	TaskList    string
	Input       []byte
	Tags        []string
	ChildPolicy ChildPolicy
	CronSchedule string
}

// StartWorkflowExecutionResponse identifies the started run.
type StartWorkflowExecutionResponse struct {
	RunID string
}
