package uacore

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession records publish requests and lets the test complete them.
type fakeSession struct {
	mu        sync.Mutex
	requests  []*PublishRequest
	callbacks []func(err error, resp *PublishResponse)
}

func (s *fakeSession) Publish(req *PublishRequest, done func(err error, resp *PublishResponse)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	s.callbacks = append(s.callbacks, done)
}

func (s *fakeSession) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *fakeSession) request(i int) *PublishRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i]
}

func (s *fakeSession) respond(i int, err error, resp *PublishResponse) {
	s.mu.Lock()
	done := s.callbacks[i]
	s.mu.Unlock()
	done(err, resp)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, session Session, opts ...EngineOption) *PublishEngine {
	t.Helper()
	opts = append([]EngineOption{WithEngineLogger(quietLogger())}, opts...)
	e := NewPublishEngine(session, opts...)
	t.Cleanup(e.Terminate)
	return e
}

func waitForRequests(t *testing.T, s *fakeSession, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.requestCount() >= n
	}, time.Second, time.Millisecond)
}

func notificationResponse(subscriptionID, sequenceNumber uint32, entries int) *PublishResponse {
	data := make([]interface{}, entries)
	for i := range data {
		data[i] = &DataChangeNotificationData{}
	}
	return &PublishResponse{
		SubscriptionID: subscriptionID,
		NotificationMessage: NotificationMessage{
			SequenceNumber:   sequenceNumber,
			PublishTime:      time.Now(),
			NotificationData: data,
		},
	}
}

func keepAliveResponse(subscriptionID, sequenceNumber uint32) *PublishResponse {
	return notificationResponse(subscriptionID, sequenceNumber, 0)
}

func TestRegisterSubscriptionPipelinesRequests(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	err := engine.RegisterSubscription(1, time.Second, func([]interface{}, time.Time) {})
	require.NoError(t, err)

	waitForRequests(t, session, DefaultPipelineDepth)
	assert.Equal(t, DefaultPipelineDepth, session.requestCount())
	assert.Equal(t, DefaultPipelineDepth, engine.PendingPublishRequestCount())
	assert.Equal(t, 1, engine.SubscriptionCount())
}

func TestRegisterSubscriptionTimeoutHintScalesWithPipeline(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	// A hint below the default must not shrink the engine hint.
	err := engine.RegisterSubscription(1, time.Second, func([]interface{}, time.Time) {})
	require.NoError(t, err)

	waitForRequests(t, session, 5)

	for i := 0; i < 5; i++ {
		want := uint32(i+1) * 10000
		assert.Equalf(t, want, session.request(i).RequestHeader.TimeoutHint,
			"request %d timeout hint", i)
	}
}

func TestRegisterSubscriptionDuplicate(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	require.NoError(t, engine.RegisterSubscription(7, time.Second, func([]interface{}, time.Time) {}))
	err := engine.RegisterSubscription(7, time.Second, func([]interface{}, time.Time) {})
	assert.ErrorIs(t, err, ErrDuplicateSubscription)
}

func TestRegisterMultipleSubscriptions(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	for id := uint32(1); id <= 3; id++ {
		require.NoError(t, engine.RegisterSubscription(id, time.Second, func([]interface{}, time.Time) {}))
	}

	waitForRequests(t, session, 3*DefaultPipelineDepth)
	assert.Equal(t, 3*DefaultPipelineDepth, engine.PendingPublishRequestCount())
	assert.Equal(t, 3, engine.SubscriptionCount())
}

func TestTimeoutHintMonotoneNonDecreasing(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	require.NoError(t, engine.RegisterSubscription(1, 30*time.Second, func([]interface{}, time.Time) {}))
	assert.Equal(t, 30*time.Second, engine.TimeoutHint())

	require.NoError(t, engine.RegisterSubscription(2, time.Second, func([]interface{}, time.Time) {}))
	assert.Equal(t, 30*time.Second, engine.TimeoutHint())

	require.NoError(t, engine.RegisterSubscription(3, time.Minute, func([]interface{}, time.Time) {}))
	assert.Equal(t, time.Minute, engine.TimeoutHint())
}

func TestResponseDispatchAndAcknowledgement(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	var (
		mu       sync.Mutex
		received [][]interface{}
	)
	err := engine.RegisterSubscription(1, time.Second, func(data []interface{}, _ time.Time) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, data)
	})
	require.NoError(t, err)
	waitForRequests(t, session, 5)

	session.respond(0, nil, notificationResponse(1, 42, 2))

	// The completed request is replaced and the replacement carries the
	// acknowledgement for sequence number 42.
	waitForRequests(t, session, 6)
	acks := session.request(5).SubscriptionAcknowledgements
	require.Len(t, acks, 1)
	assert.Equal(t, SubscriptionAcknowledgement{SubscriptionID: 1, SequenceNumber: 42}, acks[0])

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, time.Millisecond)
	mu.Lock()
	assert.Len(t, received[0], 2)
	mu.Unlock()

	assert.Equal(t, 5, engine.PendingPublishRequestCount())
}

func TestKeepAliveIsNotAcknowledged(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	calls := make(chan []interface{}, 1)
	err := engine.RegisterSubscription(1, time.Second, func(data []interface{}, _ time.Time) {
		calls <- data
	})
	require.NoError(t, err)
	waitForRequests(t, session, 5)

	session.respond(0, nil, keepAliveResponse(1, 9))

	// Keep-alives still reach the callback, with empty data.
	select {
	case data := <-calls:
		assert.Empty(t, data)
	case <-time.After(time.Second):
		t.Fatal("keep-alive was not dispatched")
	}

	waitForRequests(t, session, 6)
	assert.Empty(t, session.request(5).SubscriptionAcknowledgements)
}

func TestAcknowledgementsDrainFIFO(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	require.NoError(t, engine.RegisterSubscription(1, time.Second, func([]interface{}, time.Time) {}))
	waitForRequests(t, session, 5)

	engine.AcknowledgeNotification(1, 10)
	engine.AcknowledgeNotification(1, 11)
	engine.AcknowledgeNotification(2, 12)

	session.respond(0, nil, keepAliveResponse(1, 1))
	waitForRequests(t, session, 6)

	acks := session.request(5).SubscriptionAcknowledgements
	require.Len(t, acks, 3)
	assert.Equal(t, uint32(10), acks[0].SequenceNumber)
	assert.Equal(t, uint32(11), acks[1].SequenceNumber)
	assert.Equal(t, uint32(12), acks[2].SequenceNumber)

	// Drained: the following request starts with an empty batch.
	session.respond(1, nil, keepAliveResponse(1, 2))
	waitForRequests(t, session, 7)
	assert.Empty(t, session.request(6).SubscriptionAcknowledgements)
}

func TestCleanupAcknowledgments(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	require.NoError(t, engine.RegisterSubscription(1, time.Second, func([]interface{}, time.Time) {}))
	waitForRequests(t, session, 5)

	engine.AcknowledgeNotification(1, 10)
	engine.AcknowledgeNotification(2, 20)
	engine.AcknowledgeNotification(1, 11)
	engine.CleanupAcknowledgments(1)

	session.respond(0, nil, keepAliveResponse(1, 1))
	waitForRequests(t, session, 6)

	acks := session.request(5).SubscriptionAcknowledgements
	require.Len(t, acks, 1)
	assert.Equal(t, SubscriptionAcknowledgement{SubscriptionID: 2, SequenceNumber: 20}, acks[0])
}

func TestUnregisterSubscriptionDrainsPipeline(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	require.NoError(t, engine.RegisterSubscription(1, time.Second, func([]interface{}, time.Time) {}))
	waitForRequests(t, session, 5)

	require.NoError(t, engine.UnregisterSubscription(1))
	assert.Equal(t, 0, engine.SubscriptionCount())

	for i := 0; i < 5; i++ {
		session.respond(i, nil, keepAliveResponse(1, uint32(i)))
	}

	require.Eventually(t, func() bool {
		return engine.PendingPublishRequestCount() == 0
	}, time.Second, time.Millisecond)
	assert.Equal(t, 5, session.requestCount())
}

func TestUnregisterSubscriptionUnknown(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	err := engine.UnregisterSubscription(99)
	assert.ErrorIs(t, err, ErrUnknownSubscription)
}

func TestResponseForUnknownSubscriptionIsDropped(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	called := make(chan struct{}, 8)
	require.NoError(t, engine.RegisterSubscription(1, time.Second, func([]interface{}, time.Time) {
		called <- struct{}{}
	}))
	waitForRequests(t, session, 5)

	session.respond(0, nil, notificationResponse(2, 5, 1))
	waitForRequests(t, session, 6)

	select {
	case <-called:
		t.Fatal("callback invoked for foreign subscription")
	default:
	}

	// The data-bearing response is still acknowledged even though no
	// callback consumed it.
	acks := session.request(5).SubscriptionAcknowledgements
	require.Len(t, acks, 1)
	assert.Equal(t, uint32(2), acks[0].SubscriptionID)
}

func TestSessionErrorRefillsPipeline(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	require.NoError(t, engine.RegisterSubscription(1, time.Second, func([]interface{}, time.Time) {}))
	waitForRequests(t, session, 5)

	session.respond(0, errors.New("transport reset"), nil)

	waitForRequests(t, session, 6)
	assert.Equal(t, 5, engine.PendingPublishRequestCount())
}

func TestTerminateStopsDispatchAndRequests(t *testing.T) {
	session := &fakeSession{}
	engine := NewPublishEngine(session, WithEngineLogger(quietLogger()))

	called := make(chan struct{}, 8)
	require.NoError(t, engine.RegisterSubscription(1, time.Second, func([]interface{}, time.Time) {
		called <- struct{}{}
	}))
	waitForRequests(t, session, 5)

	engine.Terminate()
	engine.Terminate() // idempotent

	session.respond(0, nil, notificationResponse(1, 3, 1))

	time.Sleep(50 * time.Millisecond)
	select {
	case <-called:
		t.Fatal("callback invoked after terminate")
	default:
	}
	assert.Equal(t, 5, session.requestCount())

	err := engine.RegisterSubscription(2, time.Second, func([]interface{}, time.Time) {})
	assert.ErrorIs(t, err, ErrEngineTerminated)
}

func TestAcknowledgementDuringCallbackRidesNextRequest(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	// Republish-style flows acknowledge explicitly from inside the
	// notification callback; the deferred send must pick those up.
	require.NoError(t, engine.RegisterSubscription(1, time.Second, func(data []interface{}, _ time.Time) {
		engine.AcknowledgeNotification(1, 777)
	}))
	waitForRequests(t, session, 5)

	session.respond(0, nil, keepAliveResponse(1, 1))
	waitForRequests(t, session, 6)

	acks := session.request(5).SubscriptionAcknowledgements
	require.Len(t, acks, 1)
	assert.Equal(t, uint32(777), acks[0].SequenceNumber)
}

func TestSubscribeDeliversOverChannel(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	sub, err := engine.Subscribe(4, time.Second)
	require.NoError(t, err)
	waitForRequests(t, session, 5)

	session.respond(0, nil, notificationResponse(4, 17, 1))

	select {
	case event := <-sub.Notifications():
		assert.Len(t, event.Data, 1)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}

	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, 0, engine.SubscriptionCount())
}
