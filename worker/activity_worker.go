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

package worker

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"github.com/bogdanpop/flowy-go/internal"
)

// AsyncHandle is the activity-side completion surface: Heartbeat,
// Complete, and Fail all swallow transport errors and return a boolean
// success, since the remote service will simply time the activity out and
// redispatch it if a report never lands. It may be used concurrently from
// any goroutine the user activity spawns - every call funnels through the
// same (assumed thread-safe) ServiceClient.
type AsyncHandle struct {
	taskToken []byte
	svc       internal.ServiceClient
	logger    *zap.Logger
	cancel    context.CancelFunc
}

// Heartbeat records liveness. It returns false when the heartbeat failed
// or a cancellation has been requested, true otherwise. A positive
// cancellation response also cancels the context
// the activity function runs under, so code that threads ctx down into
// blocking calls observes the cancellation without polling Heartbeat's
// return value itself.
func (h *AsyncHandle) Heartbeat(ctx context.Context, details []byte) bool {
	resp, err := h.svc.RecordActivityTaskHeartbeat(ctx, &internal.RecordActivityTaskHeartbeatRequest{TaskToken: h.taskToken, Details: details})
	if err != nil {
		h.logger.Warn("heartbeat failed, relying on service timeout", zap.Error(err))
		return false
	}
	if resp.CancelRequested && h.cancel != nil {
		h.cancel()
	}
	return !resp.CancelRequested
}

// Complete reports the activity's result.
func (h *AsyncHandle) Complete(ctx context.Context, result []byte) bool {
	if err := h.svc.RespondActivityTaskCompleted(ctx, &internal.RespondActivityTaskCompletedRequest{TaskToken: h.taskToken, Result: result}); err != nil {
		h.logger.Warn("activity completion report failed, relying on service timeout", zap.Error(err))
		return false
	}
	return true
}

// Fail reports the activity's failure.
func (h *AsyncHandle) Fail(ctx context.Context, reason string) bool {
	if err := h.svc.RespondActivityTaskFailed(ctx, &internal.RespondActivityTaskFailedRequest{TaskToken: h.taskToken, Reason: reason}); err != nil {
		h.logger.Warn("activity failure report failed, relying on service timeout", zap.Error(err))
		return false
	}
	return true
}

// ActivityWorker is component H: poll for an activity task, invoke the
// registered user activity, and report its outcome. A user activity that
// returns ErrActivitySuspended gets no report from the worker: neither
// completion nor failure is sent for that task. The worker's AsyncHandle
// for a task is not passed to the activity function, and the context the
// function ran under is canceled once the worker is done with the task.
type ActivityWorker struct {
	domain   string
	taskList string
	registry *internal.Registry
	svc      internal.ServiceClient
	options  Options

	scope  tally.Scope
	logger *zap.Logger

	shutdownC chan struct{}
}

// ErrActivitySuspended, returned by a user activity, tells the worker not
// to report the task's outcome, rather than completing it with a value or
// failing it.
var ErrActivitySuspended = fmt.Errorf("activity suspended pending async completion")

// NewActivityWorker constructs an activity worker for one (domain, task
// list).
func NewActivityWorker(domain, taskList string, registry *internal.Registry, svc internal.ServiceClient, options Options) *ActivityWorker {
	options = options.withDefaults()
	scope := options.MetricsScope.Tagged(map[string]string{"domain": domain, "task_list": taskList, "role": "activity_worker"})
	logger := options.Logger.With(zap.String("domain", domain), zap.String("task_list", taskList))
	return &ActivityWorker{
		domain:    domain,
		taskList:  taskList,
		registry:  registry,
		svc:       svc,
		options:   options,
		scope:     scope,
		logger:    logger,
		shutdownC: make(chan struct{}),
	}
}

// Stop requests a graceful exit.
func (w *ActivityWorker) Stop() {
	close(w.shutdownC)
}

// Run polls and executes activity tasks until ctx is canceled or Stop is
// called.
func (w *ActivityWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shutdownC:
			return nil
		default:
		}
		w.runOnce(ctx)
	}
}

func (w *ActivityWorker) runOnce(ctx context.Context) {
	resp, err := w.svc.PollForActivityTask(ctx, &internal.PollForActivityTaskRequest{
		Domain:   w.domain,
		TaskList: w.taskList,
		Identity: w.options.Identity,
	})
	if err != nil {
		w.logger.Warn("poll for activity task failed, retrying", zap.Error(err))
		return
	}
	if len(resp.TaskToken) == 0 {
		return
	}
	w.scope.Counter("activity_tasks_polled").Inc(1)

	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, w.options.Tracer, "ActivityTask:"+resp.ActivityType.Name)
	defer span.Finish()

	actCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	handle := &AsyncHandle{taskToken: resp.TaskToken, svc: w.svc, logger: w.logger, cancel: cancel}

	fn, ok := w.registry.LookupActivity(resp.ActivityType.Name, resp.ActivityType.Version)
	if !ok {
		w.logger.Error("no activity registered for type", zap.String("name", resp.ActivityType.Name), zap.Int32("version", resp.ActivityType.Version))
		handle.Fail(ctx, fmt.Sprintf("no activity registered for %s v%d", resp.ActivityType.Name, resp.ActivityType.Version))
		return
	}

	result, runErr := fn(actCtx, resp.Input)
	switch {
	case runErr == ErrActivitySuspended:
		// No report is sent for a suspended task.
	case runErr != nil:
		w.scope.Counter("activities_failed").Inc(1)
		handle.Fail(ctx, truncateReason(runErr.Error()))
	default:
		w.scope.Counter("activities_completed").Inc(1)
		handle.Complete(ctx, result)
	}
}

func truncateReason(s string) string {
	if len(s) > internal.MaxReasonBytes {
		return s[:internal.MaxReasonBytes]
	}
	return s
}
