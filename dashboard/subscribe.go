package dashboard

import (
	"context"
	"sync"
)

// Subscription receives session events. The first event is always a
// snapshot. C is closed when the subscription or the session ends.
type Subscription struct {
	C  <-chan Event
	ch chan Event

	session *Session
	once    sync.Once
}

// Subscribe registers for events.
func (s *Session) Subscribe(ctx context.Context) (*Subscription, error) {
	ch := make(chan Event, SubscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, session: s}
	err := s.do(ctx, func() {
		snap := s.snapshot()
		ch <- Event{Type: EventSnapshot, Snapshot: &snap}
		s.subscribers[sub] = true
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Close unregisters the subscription. It is safe to call more than once
// and after the session stopped.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		s := sub.session
		// A stopped session has already closed every channel.
		_ = s.do(context.Background(), func() {
			if s.subscribers[sub] {
				delete(s.subscribers, sub)
				close(sub.ch)
			}
		})
	})
}

// Subscribers returns the number of live subscriptions.
func (s *Session) Subscribers(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, func() { n = len(s.subscribers) })
	return n, err
}

// publish fans e out without blocking. A subscriber whose buffer is full
// misses the event.
func (s *Session) publish(e Event) {
	for sub := range s.subscribers {
		select {
		case sub.ch <- e:
		default:
			s.drops++
		}
	}
}

func (s *Session) publishStatus(t EventType) {
	st := s.statusCopy()
	s.publish(Event{Type: t, Status: &st})
}

func (s *Session) closeSubscribers() {
	for sub := range s.subscribers {
		delete(s.subscribers, sub)
		close(sub.ch)
	}
}
