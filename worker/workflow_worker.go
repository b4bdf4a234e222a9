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

	"github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"github.com/bogdanpop/flowy-go/internal"
)

// WorkflowWorker is the single-threaded, long-running loop described as
// component G: poll for a decision task, fold its history, build a
// Runtime, run the registered workflow body, and let the runtime's
// termination rules flush the decision buffer.
type WorkflowWorker struct {
	domain   string
	taskList string
	registry *internal.Registry
	svc      internal.ServiceClient
	options  Options

	fetcher *internal.DecisionTaskFetcher
	scope   tally.Scope
	logger  *zap.Logger

	shutdownC chan struct{}
}

// NewWorkflowWorker constructs a worker for one (domain, task list),
// optionally registering every type in registry with the remote service
// first when options.RegisterRemote is set.
func NewWorkflowWorker(ctx context.Context, domain, taskList string, registry *internal.Registry, svc internal.ServiceClient, options Options) (*WorkflowWorker, error) {
	options = options.withDefaults()
	scope := options.MetricsScope.Tagged(map[string]string{"domain": domain, "task_list": taskList, "role": "workflow_worker"})
	logger := options.Logger.With(zap.String("domain", domain), zap.String("task_list", taskList))

	if options.RegisterRemote {
		if err := registry.RegisterRemote(ctx, svc); err != nil {
			return nil, err
		}
	}

	return &WorkflowWorker{
		domain:    domain,
		taskList:  taskList,
		registry:  registry,
		svc:       svc,
		options:   options,
		fetcher:   internal.NewDecisionTaskFetcher(svc, domain, taskList, options.Identity, options.PollRateLimit, logger),
		scope:     scope,
		logger:    logger,
		shutdownC: make(chan struct{}),
	}, nil
}

// Stop requests a graceful exit; the loop finishes its current poll
// iteration and returns rather than starting another.
func (w *WorkflowWorker) Stop() {
	close(w.shutdownC)
}

// Run polls and services decision tasks until ctx is canceled or Stop is
// called. Transport errors while polling are logged and retried by the
// fetcher itself; a PaginationError restarts polling since nothing was
// ever flushed for that turn.
func (w *WorkflowWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shutdownC:
			return nil
		default:
		}

		if err := w.runOnce(ctx); err != nil {
			if _, ok := err.(*internal.PaginationError); ok {
				w.logger.Warn("abandoning decision turn, history pagination exhausted", zap.Error(err))
				w.scope.Counter("pagination_errors").Inc(1)
				continue
			}
			return err
		}
	}
}

func (w *WorkflowWorker) runOnce(ctx context.Context) error {
	snapshot, resp, err := w.fetcher.PollNextDecision(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		// Long-poll timed out with nothing to do.
		return nil
	}
	w.scope.Counter("decision_tasks_polled").Inc(1)

	fn, ok := w.registry.LookupWorkflow(resp.WorkflowType.Name, resp.WorkflowType.Version)
	if !ok {
		w.logger.Error("no workflow registered for type", zap.String("name", resp.WorkflowType.Name), zap.Int32("version", resp.WorkflowType.Version))
		return nil
	}

	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, w.options.Tracer, "DecisionTask:"+resp.WorkflowType.Name)
	defer span.Finish()

	buffer := internal.NewDecisionBuffer(internal.RateBudget(len(snapshot.Running)), func(decisions []internal.Decision) error {
		return w.svc.RespondDecisionTaskCompleted(ctx, &internal.RespondDecisionTaskCompletedRequest{
			TaskToken: resp.TaskToken,
			Decisions: decisions,
		})
	}, w.logger)

	meta := internal.WorkflowMeta{
		Type:        resp.WorkflowType,
		Input:       resp.Input,
		TaskList:    resp.TaskList,
		ChildPolicy: resp.ChildPolicy,
		Tags:        resp.Tags,
	}
	rt := internal.NewRuntime(meta, snapshot, buffer, w.logger)

	result, bodyErr := fn(rt, meta.Input)

	switch rt.Conclude(bodyErr, result) {
	case internal.TerminationComplete:
		w.scope.Counter("workflows_completed").Inc(1)
	case internal.TerminationFail:
		w.scope.Counter("workflows_failed").Inc(1)
	}
	w.scope.Gauge("decisions_buffered").Update(float64(buffer.Len()))
	return nil
}

