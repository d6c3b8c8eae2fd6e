package store

import (
	"sync"

	"github.com/jpalmerr/solarboard/internal/metrics"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

// Broker fans [ChangeEvent] values out to subscribers.
//
// Publishing never blocks: if a subscriber's buffer is full the event is
// dropped for that subscriber.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[chan ChangeEvent]struct{}
}

// NewBroker creates an empty [Broker].
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[chan ChangeEvent]struct{}),
	}
}

// Subscribe registers a new subscriber.
//
// Caller must call [Broker.Unsubscribe] when done.
func (b *Broker) Subscribe() <-chan ChangeEvent {
	ch := make(chan ChangeEvent, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	metrics.SubscriberAdded()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (b *Broker) Unsubscribe(ch <-chan ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subCh := range b.subscribers {
		if subCh == ch {
			delete(b.subscribers, subCh)
			close(subCh)
			metrics.SubscriberRemoved()
			break
		}
	}
}

// Publish sends ev to every subscriber.
func (b *Broker) Publish(ev ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	metrics.RecordDocumentChange(ev.Source)
	for ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}

// Len returns the number of active subscribers.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
