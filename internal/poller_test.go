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
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type pollingServiceClient struct {
	ServiceClient
	calls       int32
	failFirstN  int32
	failForever bool
	resp        *PollForDecisionTaskResponse
}

func (p *pollingServiceClient) PollForDecisionTask(ctx context.Context, req *PollForDecisionTaskRequest) (*PollForDecisionTaskResponse, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if p.failForever || n <= p.failFirstN {
		return nil, errors.New("transport unavailable")
	}
	return p.resp, nil
}

func TestDecisionTaskFetcherSucceedsOnFirstPage(t *testing.T) {
	svc := &pollingServiceClient{resp: &PollForDecisionTaskResponse{
		TaskToken: []byte("token-1"),
		Events: []HistoryEvent{
			{EventID: 1, EventType: EventActivityTaskScheduled, ScheduledEventID: 1, ActivityID: "0"},
			{EventID: 2, EventType: EventActivityTaskCompleted, ScheduledEventID: 1, Result: []byte("1")},
		},
	}}
	f := NewDecisionTaskFetcher(svc, "domain", "tasklist", "identity", 0, nil)

	snap, resp, err := f.PollNextDecision(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resp)
	result, ok := snap.Result("0")
	require.True(t, ok)
	require.Equal(t, []byte("1"), result)
}

func TestDecisionTaskFetcherEmptyLongPollReturnsNil(t *testing.T) {
	svc := &pollingServiceClient{resp: &PollForDecisionTaskResponse{}}
	f := NewDecisionTaskFetcher(svc, "domain", "tasklist", "identity", 0, nil)

	snap, resp, err := f.PollNextDecision(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap)
	require.Nil(t, resp)
}

func TestDecisionTaskFetcherFirstPageRetriesThroughTransientFailure(t *testing.T) {
	svc := &pollingServiceClient{
		failFirstN: 2,
		resp:       &PollForDecisionTaskResponse{TaskToken: []byte("token-2")},
	}
	f := NewDecisionTaskFetcher(svc, "domain", "tasklist", "identity", 0, nil)

	snap, resp, err := f.PollNextDecision(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, []byte("token-2"), resp.TaskToken)
	require.GreaterOrEqual(t, int(svc.calls), 3)
}

// continuationServiceClient serves a first page with a continuation token,
// then always fails the continuation page - exercising the bounded
// continuation-page retry budget. This test performs real (short) backoff
// sleeps, so it runs slower than the rest of the package.
type continuationServiceClient struct {
	ServiceClient
}

func (c *continuationServiceClient) PollForDecisionTask(ctx context.Context, req *PollForDecisionTaskRequest) (*PollForDecisionTaskResponse, error) {
	if len(req.NextPageToken) == 0 {
		return &PollForDecisionTaskResponse{
			TaskToken:     []byte("token-3"),
			Events:        []HistoryEvent{{EventID: 1, EventType: EventActivityTaskScheduled, ScheduledEventID: 1, ActivityID: "0"}},
			NextPageToken: []byte("page-2"),
		}, nil
	}
	return nil, errors.New("continuation page unavailable")
}

func TestDecisionTaskFetcherContinuationExhaustionReturnsPaginationError(t *testing.T) {
	svc := &continuationServiceClient{}
	f := NewDecisionTaskFetcher(svc, "domain", "tasklist", "identity", 0, nil)

	_, _, err := f.PollNextDecision(context.Background())
	var pgErr *PaginationError
	require.ErrorAs(t, err, &pgErr)
	require.Equal(t, continuationPageRetryBudget, pgErr.Attempts)
}
