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
	"fmt"
	"os"
)

const (
	// MaxIdentityBytes bounds the worker identity field reported to the
	// remote service.
	MaxIdentityBytes = 256
	// MaxReasonBytes bounds free-text failure reason/detail fields.
	MaxReasonBytes = 256
	// MaxPayloadBytes bounds encoded call input and result payloads.
	MaxPayloadBytes = 32768
	// MaxTags bounds the number of tags carried on a workflow start.
	MaxTags = 5
)

// DefaultIdentity returns "<host>-<pid>", where host is os.Hostname() as
// reported by the OS (it is not resolved to a fully qualified domain
// name), truncated from the left so the pid (the more useful part for
// disambiguating workers on one host) always survives truncation to
// MaxIdentityBytes.
func DefaultIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	id := fmt.Sprintf("%s-%d", host, os.Getpid())
	if len(id) > MaxIdentityBytes {
		id = id[len(id)-MaxIdentityBytes:]
	}
	return id
}

// truncate right-pads nothing and simply cuts data to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// DedupTags removes duplicate tags while preserving first-seen order, then
// caps the result at MaxTags.
func DedupTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
