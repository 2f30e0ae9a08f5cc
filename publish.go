// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uacore

import (
	"log/slog"
	"sync"
	"time"
)

// Session is the collaborator contract the publish engine drives. Publish
// is asynchronous; done is invoked at most once per call, and the session
// preserves ordering across calls.
type Session interface {
	Publish(req *PublishRequest, done func(err error, resp *PublishResponse))
}

// NotificationFunc receives the notification data of one publish response
// for a subscription. An empty data slice is a keep-alive.
type NotificationFunc func(notificationData []interface{}, publishTime time.Time)

// Publish pipeline defaults.
const (
	// DefaultPipelineDepth is the number of publish requests pipelined
	// when a subscription registers. The initial burst compensates for
	// network latency.
	DefaultPipelineDepth = 5

	// DefaultTimeoutHint is the initial per-request timeout hint. The
	// effective hint scales with the number of outstanding requests:
	// some servers misread timeoutHint=0 and answer BadTimeout, so an
	// outstanding request's hint must exceed any reasonable
	// inter-keep-alive interval.
	DefaultTimeoutHint = 10 * time.Second
)

// PublishEngine maintains the client-side stream of outstanding publish
// requests for a session: it pipelines requests, batches subscription
// acknowledgements into the next request, and demultiplexes responses to
// per-subscription callbacks.
//
// The engine is single-threaded cooperative: issuing requests and handling
// responses run on one internal dispatch goroutine, fed by a FIFO task
// queue; registration and acknowledgement calls update the shared state
// under a mutex on the caller's goroutine. Sending a
// request is deferred to the next turn of that queue so acknowledgements
// pushed during a notification callback are included in the request built
// afterwards.
type PublishEngine struct {
	logger        *slog.Logger
	metrics       *Metrics
	pipelineDepth int

	tasks *taskQueue

	mu            sync.Mutex
	session       Session
	timeoutHint   time.Duration
	acks          []SubscriptionAcknowledgement
	callbacks     map[uint32]NotificationFunc
	pending       int
	requestHandle uint32
}

// NewPublishEngine creates a publish engine attached to a session and
// starts its dispatch loop.
func NewPublishEngine(session Session, opts ...EngineOption) *PublishEngine {
	options := defaultEngineOptions()
	for _, opt := range opts {
		opt(options)
	}

	e := &PublishEngine{
		logger:        options.logger,
		metrics:       options.metrics,
		pipelineDepth: options.pipelineDepth,
		timeoutHint:   options.timeoutHint,
		tasks:         newTaskQueue(),
		session:       session,
		callbacks:     make(map[uint32]NotificationFunc),
	}

	e.logger.Debug("publish engine started",
		slog.String("version", Version),
		slog.Int("pipeline_depth", e.pipelineDepth),
		slog.Duration("timeout_hint", e.timeoutHint))

	go e.run()

	return e
}

func (e *PublishEngine) run() {
	for {
		task, ok := e.tasks.pop()
		if !ok {
			return
		}
		task()
	}
}

// RegisterSubscription registers a notification callback for a
// subscription and pipelines the initial burst of publish requests. The
// engine-wide timeout hint only ever grows: the server treats the hint as
// advisory, so the largest subscription hint wins.
func (e *PublishEngine) RegisterSubscription(subscriptionID uint32, timeoutHint time.Duration, callback NotificationFunc) error {
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return ErrEngineTerminated
	}
	if _, exists := e.callbacks[subscriptionID]; exists {
		e.mu.Unlock()
		return ErrDuplicateSubscription
	}
	e.callbacks[subscriptionID] = callback
	if timeoutHint > e.timeoutHint {
		e.timeoutHint = timeoutHint
	}
	count := len(e.callbacks)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.ActiveSubscriptions.Set(float64(count))
	}

	e.logger.Debug("subscription registered",
		slog.Uint64("subscription_id", uint64(subscriptionID)),
		slog.Int("active", count))

	for i := 0; i < e.pipelineDepth; i++ {
		e.sendPublishRequest()
	}

	return nil
}

// UnregisterSubscription removes a subscription's callback. In-flight
// requests are not cancelled; their responses find no callback and are
// dropped.
func (e *PublishEngine) UnregisterSubscription(subscriptionID uint32) error {
	e.mu.Lock()
	if _, exists := e.callbacks[subscriptionID]; !exists {
		e.mu.Unlock()
		return ErrUnknownSubscription
	}
	delete(e.callbacks, subscriptionID)
	count := len(e.callbacks)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.ActiveSubscriptions.Set(float64(count))
	}

	e.logger.Debug("subscription unregistered",
		slog.Uint64("subscription_id", uint64(subscriptionID)),
		slog.Int("active", count))

	return nil
}

// AcknowledgeNotification queues an acknowledgement for the next publish
// request.
func (e *PublishEngine) AcknowledgeNotification(subscriptionID, sequenceNumber uint32) {
	e.mu.Lock()
	e.acks = append(e.acks, SubscriptionAcknowledgement{
		SubscriptionID: subscriptionID,
		SequenceNumber: sequenceNumber,
	})
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.AcknowledgementsQueued.Inc()
	}
}

// CleanupAcknowledgments drops every pending acknowledgement for a
// subscription. Used when a subscription is torn down before its
// acknowledgements flush.
func (e *PublishEngine) CleanupAcknowledgments(subscriptionID uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.acks[:0]
	for _, ack := range e.acks {
		if ack.SubscriptionID != subscriptionID {
			kept = append(kept, ack)
		}
	}
	e.acks = kept
}

// Terminate detaches the engine from its session. Responses still in
// flight are dropped and no further requests are issued. Terminate is
// idempotent.
func (e *PublishEngine) Terminate() {
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return
	}
	e.session = nil
	e.mu.Unlock()

	e.tasks.close()
	e.logger.Debug("publish engine terminated")
}

// SubscriptionCount returns the number of registered subscriptions.
func (e *PublishEngine) SubscriptionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.callbacks)
}

// PendingPublishRequestCount returns the number of outstanding publish
// requests.
func (e *PublishEngine) PendingPublishRequestCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// TimeoutHint returns the engine's current base timeout hint.
func (e *PublishEngine) TimeoutHint() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeoutHint
}

// sendPublishRequest schedules one publish request onto the dispatch
// queue. The caller's stack unwinds before the request is built, so
// acknowledgements queued by the current callback ride the next request.
func (e *PublishEngine) sendPublishRequest() {
	e.tasks.push(e.issuePublishRequest)
}

// issuePublishRequest builds and sends one publish request. Runs on the
// dispatch goroutine.
func (e *PublishEngine) issuePublishRequest() {
	e.mu.Lock()
	session := e.session
	if session == nil {
		e.mu.Unlock()
		return
	}

	e.pending++
	pending := e.pending
	acks := e.acks
	e.acks = nil
	e.requestHandle++
	handle := e.requestHandle

	// Scale the hint by pipeline occupancy: the deepest outstanding
	// request must not look timed out to a server that enforces hints
	// strictly.
	hint := uint32(pending) * uint32(e.timeoutHint/time.Millisecond)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.PublishRequests.Inc()
		e.metrics.PendingPublishRequests.Set(float64(pending))
	}

	req := &PublishRequest{
		RequestHeader: RequestHeader{
			Timestamp:     time.Now(),
			RequestHandle: handle,
			TimeoutHint:   hint,
		},
		SubscriptionAcknowledgements: acks,
	}

	e.logger.Debug("sending publish request",
		slog.Uint64("request_handle", uint64(handle)),
		slog.Uint64("timeout_hint", uint64(hint)),
		slog.Int("acks", len(acks)))

	session.Publish(req, func(err error, resp *PublishResponse) {
		e.tasks.push(func() {
			e.onPublishComplete(err, resp)
		})
	})
}

// onPublishComplete handles one publish completion: accounts for the
// outstanding request, dispatches the response, and keeps the pipeline
// full while subscriptions remain. Runs on the dispatch goroutine.
func (e *PublishEngine) onPublishComplete(err error, resp *PublishResponse) {
	e.mu.Lock()
	if e.pending > 0 {
		e.pending--
	}
	pending := e.pending
	session := e.session
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.PendingPublishRequests.Set(float64(pending))
	}

	switch {
	case err != nil:
		if e.metrics != nil {
			e.metrics.PublishResponses.WithLabelValues(outcomeError).Inc()
		}
		e.logger.Debug("publish request failed", slog.String("error", err.Error()))
	case session != nil && resp != nil:
		e.receivePublishResponse(resp)
	}

	// Refill decision looks at the subscription count after dispatch so
	// a callback that unregistered its own subscription stops the
	// pipeline.
	e.mu.Lock()
	refill := e.session != nil && len(e.callbacks) > 0
	e.mu.Unlock()
	if refill {
		e.sendPublishRequest()
	}
}

// receivePublishResponse queues the acknowledgement for a data-bearing
// notification (keep-alives are not acknowledged) and hands the
// notification to the subscription's callback. Responses for unknown
// subscriptions are dropped.
func (e *PublishEngine) receivePublishResponse(resp *PublishResponse) {
	notificationData := resp.NotificationMessage.NotificationData
	if notificationData == nil {
		notificationData = []interface{}{}
	}

	if len(notificationData) > 0 {
		e.AcknowledgeNotification(resp.SubscriptionID, resp.NotificationMessage.SequenceNumber)
		if e.metrics != nil {
			e.metrics.PublishResponses.WithLabelValues(outcomeNotification).Inc()
		}
	} else if e.metrics != nil {
		e.metrics.PublishResponses.WithLabelValues(outcomeKeepAlive).Inc()
	}

	e.mu.Lock()
	callback, ok := e.callbacks[resp.SubscriptionID]
	session := e.session
	e.mu.Unlock()

	if !ok || session == nil {
		if e.metrics != nil {
			e.metrics.PublishResponses.WithLabelValues(outcomeDropped).Inc()
		}
		e.logger.Debug("dropping publish response",
			slog.Uint64("subscription_id", uint64(resp.SubscriptionID)),
			slog.Uint64("sequence_number", uint64(resp.NotificationMessage.SequenceNumber)))
		return
	}

	callback(notificationData, resp.NotificationMessage.PublishTime)
}

// taskQueue is an unbounded FIFO work queue drained by the engine's
// dispatch goroutine. Closing the queue drops whatever is still queued.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []func()
	closed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *taskQueue) push(task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, task)
	q.cond.Signal()
}

func (q *taskQueue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return nil, false
	}
	task := q.items[0]
	q.items = q.items[1:]
	return task, true
}

func (q *taskQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
