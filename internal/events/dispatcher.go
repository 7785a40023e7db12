package events

import (
	"context"
	"errors"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans session events out to their subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe registers handler for the listed types, or for every type
	// when none are listed.
	Subscribe(handler EventHandler, types ...EventType)
}

type subscription struct {
	handler EventHandler
	types   map[EventType]struct{}
}

func (s subscription) wants(t EventType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

type inMemoryDispatcher struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewInMemoryDispatcher creates a synchronous dispatcher. Handlers run on
// the publisher's goroutine in subscription order.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{}
}

func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subs := d.subs
	d.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if !s.wants(event.Type) {
			continue
		}
		if err := s.handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *inMemoryDispatcher) Subscribe(handler EventHandler, types ...EventType) {
	s := subscription{handler: handler}
	if len(types) > 0 {
		s.types = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			s.types[t] = struct{}{}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	// copy on write so Publish can iterate a snapshot without holding the lock
	d.subs = append(d.subs[:len(d.subs):len(d.subs)], s)
}
