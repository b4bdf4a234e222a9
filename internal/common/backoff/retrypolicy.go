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

package backoff

import (
	"math/rand"
	"time"
)

// done is returned by Retrier.NextBackOff to signal the caller should stop
// retrying.
const done time.Duration = -1

// RetryPolicy describes an exponential backoff schedule with jitter.
type RetryPolicy struct {
	InitialInterval    time.Duration
	BackoffCoefficient float64
	MaximumInterval    time.Duration
	ExpirationInterval time.Duration
	MaximumAttempts    int
}

// NewExponentialRetryPolicy returns a policy with a sane default coefficient
// and no attempt/expiration cap, for callers that only want to bound the
// interval.
func NewExponentialRetryPolicy(initialInterval time.Duration) RetryPolicy {
	return RetryPolicy{
		InitialInterval:    initialInterval,
		BackoffCoefficient: 2.0,
		MaximumInterval: 100 * initialInterval,
	}
}

// Retrier hands out successive backoff intervals for a RetryPolicy, tracking
// elapsed time and attempt count against a Clock so tests can fast-forward.
type Retrier interface {
	NextBackOff() time.Duration
	Reset()
}

type retrier struct {
	policy       RetryPolicy
	clock        Clock
	currentAttempt int64
	startTime    time.Time
}

// NewRetrier constructs a Retrier bound to the given clock. Production code
// passes SystemClock; tests pass a clock.Mock.
func NewRetrier(policy RetryPolicy, c Clock) Retrier {
	return &retrier{policy: policy, clock: c, startTime: c.Now()}
}

func (r *retrier) Reset() {
	r.currentAttempt = 0
	r.startTime = r.clock.Now()
}

func (r *retrier) NextBackOff() time.Duration {
	if r.policy.MaximumAttempts > 0 && r.currentAttempt >= int64(r.policy.MaximumAttempts) {
		return done
	}

	elapsed := r.clock.Now().Sub(r.startTime)
	if r.policy.ExpirationInterval > 0 && elapsed > r.policy.ExpirationInterval {
		return done
	}

	r.currentAttempt++
	interval := float64(r.policy.InitialInterval) * pow(r.policy.BackoffCoefficient, r.currentAttempt-1)
	if r.policy.MaximumInterval > 0 && interval > float64(r.policy.MaximumInterval) {
		interval = float64(r.policy.MaximumInterval)
	}

	// full jitter: uniform in [0, interval]
	jittered := time.Duration(rand.Int63n(int64(interval) + 1))
	return jittered
}

func pow(base float64, exp int64) float64 {
	result := 1.0
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}
