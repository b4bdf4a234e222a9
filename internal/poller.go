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
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bogdanpop/flowy-go/internal/common/backoff"
)

// continuationPageRetryBudget bounds how many times the folder retries a
// failing continuation page before abandoning the decision turn. The first
// page is never bounded this way - it is the long-poll entry point, and a
// failure there just means "nothing to do yet".
const continuationPageRetryBudget = 7

// DecisionTaskFetcher pages through one decision task's full history,
// applying the pagination failure policy from the history folder's design:
// the first page retries forever with backoff (pollFirstPageForever wraps
// the long poll itself), continuation pages retry up to
// continuationPageRetryBudget times before returning a PaginationError and
// abandoning the turn.
type DecisionTaskFetcher struct {
	svc      ServiceClient
	domain   string
	taskList string
	identity string
	logger   *zap.Logger

	pollLimiter *rate.Limiter
}

// NewDecisionTaskFetcher returns a fetcher bound to one task list.
// pollsPerSecond caps how often the long-poll loop below is allowed to hit
// the remote service, independent of the server's own long-poll timeout;
// pollsPerSecond <= 0 means unlimited.
func NewDecisionTaskFetcher(svc ServiceClient, domain, taskList, identity string, pollsPerSecond float64, logger *zap.Logger) *DecisionTaskFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if pollsPerSecond > 0 {
		limit = rate.Limit(pollsPerSecond)
	}
	return &DecisionTaskFetcher{
		svc:         svc,
		domain:      domain,
		taskList:    taskList,
		identity:    identity,
		logger:      logger,
		pollLimiter: rate.NewLimiter(limit, 1),
	}
}

// PollNextDecision long-polls for the next decision task and folds its
// full (possibly paginated) history into a Snapshot. It returns
// (nil, nil, nil) when the long-poll timed out with nothing to do - the
// caller should simply poll again. A returned *PaginationError means the
// turn must be abandoned without ever touching the decision buffer.
func (f *DecisionTaskFetcher) PollNextDecision(ctx context.Context) (*Snapshot, *PollForDecisionTaskResponse, error) {
	first, err := f.pollFirstPageForever(ctx)
	if err != nil {
		return nil, nil, err
	}
	if first == nil || len(first.TaskToken) == 0 {
		return nil, nil, nil
	}

	events := append([]HistoryEvent(nil), first.Events...)
	nextToken := first.NextPageToken

	for len(nextToken) > 0 {
		page, pageErr := f.pollContinuationPage(ctx, nextToken)
		if pageErr != nil {
			return nil, nil, &PaginationError{NextPageToken: nextToken, Attempts: continuationPageRetryBudget, Cause: pageErr}
		}
		events = append(events, page.Events...)
		nextToken = page.NextPageToken
	}

	snap, err := Fold(NewSliceProducer([][]HistoryEvent{events}))
	if err != nil {
		return nil, nil, err
	}
	return snap, first, nil
}

func (f *DecisionTaskFetcher) pollFirstPageForever(ctx context.Context) (*PollForDecisionTaskResponse, error) {
	var resp *PollForDecisionTaskResponse
	policy := backoff.NewExponentialRetryPolicy(time.Second)
	err := backoff.Retry(ctx, func() error {
		if waitErr := f.pollLimiter.Wait(ctx); waitErr != nil {
			return waitErr
		}
		r, pollErr := f.svc.PollForDecisionTask(ctx, &PollForDecisionTaskRequest{
			Domain:   f.domain,
			TaskList: f.taskList,
			Identity: f.identity,
		})
		if pollErr != nil {
			f.logger.Warn("poll for decision task failed, retrying", zap.Error(pollErr))
			return pollErr
		}
		resp = r
		return nil
	}, policy, nil)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *DecisionTaskFetcher) pollContinuationPage(ctx context.Context, token []byte) (*PollForDecisionTaskResponse, error) {
	var resp *PollForDecisionTaskResponse
	policy := backoff.RetryPolicy{
		InitialInterval:    100 * time.Millisecond,
		BackoffCoefficient: 2.0,
		MaximumInterval:    5 * time.Second,
		MaximumAttempts:    continuationPageRetryBudget,
	}
	err := backoff.Retry(ctx, func() error {
		r, pollErr := f.svc.PollForDecisionTask(ctx, &PollForDecisionTaskRequest{
			Domain:        f.domain,
			TaskList:      f.taskList,
			Identity:      f.identity,
			NextPageToken: token,
		})
		if pollErr != nil {
			return pollErr
		}
		resp = r
		return nil
	}, policy, nil)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
