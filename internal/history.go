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

import "strconv"

// EventType enumerates the history event kinds the folder understands. Any
// event type not in this list is ignored rather than rejected, so a worker
// never breaks on a remote-service event kind it doesn't yet know about.
type EventType int

const (
	EventTypeUnknown EventType = iota
	EventActivityTaskScheduled
	EventActivityTaskCompleted
	EventActivityTaskFailed
	EventActivityTaskTimedOut
	EventScheduleActivityTaskFailed
	EventStartChildWorkflowExecutionInitiated
	EventChildWorkflowExecutionCompleted
	EventChildWorkflowExecutionFailed
	EventChildWorkflowExecutionTimedOut
	EventStartChildWorkflowExecutionFailed
	EventTimerStarted
	EventTimerFired
)

// HistoryEvent is a flattened, transport-agnostic view of one event in the
// execution history. A ServiceClient binding translates whatever wire
// representation the remote service actually uses into this shape before
// handing events to Fold.
type HistoryEvent struct {
	EventID         int64
	EventType       EventType
	ScheduledEventID int64 // for *Completed/*Failed/*TimedOut activity events
	ActivityID      string
	WorkflowID      string // carries the mangled child(id) form for child-workflow events
	TimerID         string // carries the mangled timer(id) form
	Result          []byte
	Reason          string
}

// Snapshot is the immutable state produced by folding an execution history,
// exactly the tuple described for the history folder: which calls are
// still running, which timed out, which completed or failed, and the order
// in which non-running calls finalized.
type Snapshot struct {
	Running  map[string]struct{}
	TimedOut map[string]struct{}
	Results  map[string][]byte
	Errors   map[string]string
	Order    []string
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Running:  make(map[string]struct{}),
		TimedOut: make(map[string]struct{}),
		Results:  make(map[string][]byte),
		Errors:   make(map[string]string),
	}
}

// IsRunning reports whether id is currently scheduled or in progress.
func (s *Snapshot) IsRunning(id string) bool {
	_, ok := s.Running[id]
	return ok
}

// IsTimedOut reports whether id exceeded its timeout.
func (s *Snapshot) IsTimedOut(id string) bool {
	_, ok := s.TimedOut[id]
	return ok
}

// Result returns the decoded-pending result bytes for id and whether it
// completed successfully.
func (s *Snapshot) Result(id string) ([]byte, bool) {
	v, ok := s.Results[id]
	return v, ok
}

// Err returns the failure reason for id and whether it failed.
func (s *Snapshot) Err(id string) (string, bool) {
	v, ok := s.Errors[id]
	return v, ok
}

// OrderIndex returns the position of id in the completion order, or -1 if
// id never finalized (i.e. it is still running).
func (s *Snapshot) OrderIndex(id string) int {
	for i, v := range s.Order {
		if v == id {
			return i
		}
	}
	return -1
}

// EventProducer yields history events page by page. NextPage returns
// io.EOF-equivalent via (nil, nil) when the stream is exhausted; any other
// error is treated per the pagination failure policy by the caller (Fold
// does not itself retry - that is the worker loop's job, see poller.go).
type EventProducer interface {
	NextPage() ([]HistoryEvent, error)
}

// sliceProducer adapts a pre-fetched, already-paginated slice of event
// pages into an EventProducer, used by tests and by callers that already
// hold the full history in memory.
type sliceProducer struct {
	pages [][]HistoryEvent
	next  int
}

// NewSliceProducer returns an EventProducer over in-memory pages.
func NewSliceProducer(pages [][]HistoryEvent) EventProducer {
	return &sliceProducer{pages: pages}
}

func (p *sliceProducer) NextPage() ([]HistoryEvent, error) {
	if p.next >= len(p.pages) {
		return nil, nil
	}
	page := p.pages[p.next]
	p.next++
	return page, nil
}

// Fold drains an EventProducer to completion and folds every event into a
// Snapshot. It performs no I/O retry itself; callers needing the bounded
// continuation-page retry budget wrap NextPage with backoff.Retry and
// surface a PaginationError on exhaustion (see poller.go), never calling
// Fold with a partially-failed producer.
func Fold(producer EventProducer) (*Snapshot, error) {
	snap := newSnapshot()
	// scheduledEventId -> activityId, needed because ActivityTaskCompleted/
	// Failed only carry the scheduling event's id, not the activity id
	// itself.
	scheduledByEventID := make(map[int64]string)

	for {
		page, err := producer.NextPage()
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}
		for _, ev := range page {
			foldEvent(snap, ev, scheduledByEventID)
		}
	}
	return snap, nil
}

func foldEvent(snap *Snapshot, ev HistoryEvent, scheduledByEventID map[int64]string) {
	switch ev.EventType {
	case EventActivityTaskScheduled:
		scheduledByEventID[ev.EventID] = ev.ActivityID
		snap.Running[ev.ActivityID] = struct{}{}

	case EventActivityTaskCompleted:
		id, ok := scheduledByEventID[ev.ScheduledEventID]
		if !ok {
			return
		}
		delete(snap.Running, id)
		snap.Results[id] = ev.Result
		snap.Order = append(snap.Order, id)

	case EventActivityTaskFailed:
		id, ok := scheduledByEventID[ev.ScheduledEventID]
		if !ok {
			return
		}
		delete(snap.Running, id)
		snap.Errors[id] = ev.Reason
		snap.Order = append(snap.Order, id)

	case EventActivityTaskTimedOut:
		id, ok := scheduledByEventID[ev.ScheduledEventID]
		if !ok {
			return
		}
		delete(snap.Running, id)
		snap.TimedOut[id] = struct{}{}
		snap.Order = append(snap.Order, id)

	case EventScheduleActivityTaskFailed:
		snap.Errors[ev.ActivityID] = ev.Reason
		snap.Order = append(snap.Order, ev.ActivityID)

	case EventStartChildWorkflowExecutionInitiated:
		snap.Running[childSuffix(ev.WorkflowID)] = struct{}{}

	case EventChildWorkflowExecutionCompleted:
		id := childSuffix(ev.WorkflowID)
		delete(snap.Running, id)
		snap.Results[id] = ev.Result
		snap.Order = append(snap.Order, id)

	case EventChildWorkflowExecutionFailed:
		id := childSuffix(ev.WorkflowID)
		delete(snap.Running, id)
		snap.Errors[id] = ev.Reason
		snap.Order = append(snap.Order, id)

	case EventChildWorkflowExecutionTimedOut:
		id := childSuffix(ev.WorkflowID)
		delete(snap.Running, id)
		snap.TimedOut[id] = struct{}{}
		snap.Order = append(snap.Order, id)

	case EventStartChildWorkflowExecutionFailed:
		id := childSuffix(ev.WorkflowID)
		snap.Errors[id] = ev.Reason
		snap.Order = append(snap.Order, id)

	case EventTimerStarted:
		snap.Running[ev.TimerID] = struct{}{}

	case EventTimerFired:
		delete(snap.Running, ev.TimerID)
		id := timerIDToCallKey(ev.TimerID)
		snap.Results[id] = nil
		snap.Order = append(snap.Order, id)
	}
}

// timerIDToCallKey strips the "<id>:t" mangling so a fired timer's result
// is recorded under the same plain key the call algorithm checks for a
// fired-timer fall-through (step 1.b of the call algorithm), not under the
// mangled running-marker key.
func timerIDToCallKey(timerID string) string {
	const suffix = ":t"
	if len(timerID) > len(suffix) && timerID[len(timerID)-len(suffix):] == suffix {
		return timerID[:len(timerID)-len(suffix)]
	}
	return timerID
}

// childSuffix extracts the deterministic call-id suffix (the text after the
// last ':') from a mangled child(id) workflow id.
func childSuffix(workflowID string) string {
	for i := len(workflowID) - 1; i >= 0; i-- {
		if workflowID[i] == ':' {
			suffix := workflowID[i+1:]
			if _, err := strconv.ParseInt(suffix, 10, 64); err == nil {
				return suffix
			}
			return workflowID
		}
	}
	return workflowID
}
