package uacore

import (
	"log/slog"
	"time"
)

// NotificationEvent is one publish delivery for a subscription.
type NotificationEvent struct {
	PublishTime time.Time
	Data        []interface{}
}

// Subscription is a client-side handle binding a subscription ID to the
// publish engine, delivering notifications over a buffered channel.
type Subscription struct {
	ID uint32

	engine        *PublishEngine
	notifications chan NotificationEvent
}

// Subscribe registers a subscription with the engine and returns a handle
// whose Notifications channel receives the subscription's publish
// deliveries, keep-alives included. The channel buffers 100 events; a
// delivery that finds it full is dropped with a warning.
func (e *PublishEngine) Subscribe(subscriptionID uint32, timeoutHint time.Duration) (*Subscription, error) {
	s := &Subscription{
		ID:            subscriptionID,
		engine:        e,
		notifications: make(chan NotificationEvent, 100),
	}

	err := e.RegisterSubscription(subscriptionID, timeoutHint, func(data []interface{}, publishTime time.Time) {
		select {
		case s.notifications <- NotificationEvent{PublishTime: publishTime, Data: data}:
		default:
			// Channel full, drop notification
			e.logger.Warn("notification channel full, dropping notification",
				slog.Uint64("subscription_id", uint64(subscriptionID)))
		}
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Notifications returns the channel delivering this subscription's
// publish events.
func (s *Subscription) Notifications() <-chan NotificationEvent {
	return s.notifications
}

// Unsubscribe removes the subscription from the engine and discards its
// pending acknowledgements. The notification channel is left open: a
// response already being dispatched may still deliver into it.
func (s *Subscription) Unsubscribe() error {
	err := s.engine.UnregisterSubscription(s.ID)
	if err != nil {
		return err
	}
	s.engine.CleanupAcknowledgments(s.ID)
	return nil
}
