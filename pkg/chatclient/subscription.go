package chatclient

import (
	"sync"
)

const subscriptionBuffer = 64

// Subscription is a channel-backed event feed. Events arrive on C until
// Close is called or the client disconnects. A subscriber that stops
// draining loses events rather than blocking the session.
type Subscription[T any] struct {
	C <-chan T

	mu     sync.Mutex
	ch     chan T
	closed bool
	done   func()
}

func newSubscription[T any](done func()) *Subscription[T] {
	ch := make(chan T, subscriptionBuffer)
	return &Subscription[T]{C: ch, ch: ch, done: done}
}

// Close detaches the subscription and closes its channel.
func (s *Subscription[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.done()
}

func (s *Subscription[T]) publish(event T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
	}
}

// subscriptionSet fans events out to all live subscriptions.
type subscriptionSet struct {
	mu       sync.Mutex
	messages map[*Subscription[Message]]struct{}
	typing   map[*Subscription[TypingEvent]]struct{}
	presence map[*Subscription[PresenceEvent]]struct{}
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{
		messages: make(map[*Subscription[Message]]struct{}),
		typing:   make(map[*Subscription[TypingEvent]]struct{}),
		presence: make(map[*Subscription[PresenceEvent]]struct{}),
	}
}

func (s *subscriptionSet) addMessages() *Subscription[Message] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sub *Subscription[Message]
	sub = newSubscription[Message](func() {
		s.mu.Lock()
		delete(s.messages, sub)
		s.mu.Unlock()
	})
	s.messages[sub] = struct{}{}
	return sub
}

func (s *subscriptionSet) addTyping() *Subscription[TypingEvent] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sub *Subscription[TypingEvent]
	sub = newSubscription[TypingEvent](func() {
		s.mu.Lock()
		delete(s.typing, sub)
		s.mu.Unlock()
	})
	s.typing[sub] = struct{}{}
	return sub
}

func (s *subscriptionSet) addPresence() *Subscription[PresenceEvent] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sub *Subscription[PresenceEvent]
	sub = newSubscription[PresenceEvent](func() {
		s.mu.Lock()
		delete(s.presence, sub)
		s.mu.Unlock()
	})
	s.presence[sub] = struct{}{}
	return sub
}

func (s *subscriptionSet) publishMessage(msg Message) {
	s.mu.Lock()
	subs := make([]*Subscription[Message], 0, len(s.messages))
	for sub := range s.messages {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.publish(msg)
	}
}

func (s *subscriptionSet) publishTyping(event TypingEvent) {
	s.mu.Lock()
	subs := make([]*Subscription[TypingEvent], 0, len(s.typing))
	for sub := range s.typing {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.publish(event)
	}
}

func (s *subscriptionSet) publishPresence(event PresenceEvent) {
	s.mu.Lock()
	subs := make([]*Subscription[PresenceEvent], 0, len(s.presence))
	for sub := range s.presence {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.publish(event)
	}
}

func (s *subscriptionSet) closeAll() {
	s.mu.Lock()
	messages := make([]*Subscription[Message], 0, len(s.messages))
	for sub := range s.messages {
		messages = append(messages, sub)
	}
	typing := make([]*Subscription[TypingEvent], 0, len(s.typing))
	for sub := range s.typing {
		typing = append(typing, sub)
	}
	presence := make([]*Subscription[PresenceEvent], 0, len(s.presence))
	for sub := range s.presence {
		presence = append(presence, sub)
	}
	s.mu.Unlock()

	for _, sub := range messages {
		sub.Close()
	}
	for _, sub := range typing {
		sub.Close()
	}
	for _, sub := range presence {
		sub.Close()
	}
}
