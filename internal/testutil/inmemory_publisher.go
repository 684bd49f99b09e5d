package testutil

import (
	"context"
	"sync"

	"github.com/tillpoint/tillpoint/internal/publisher"
)

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

// InMemoryEventPublisher records published events
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*publisher.Event
	err    error
}

func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		events: make([]*publisher.Event, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event *publisher.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// FailWith makes every following Publish return err
func (p *InMemoryEventPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// GetEvents returns all published events
func (p *InMemoryEventPublisher) GetEvents() []*publisher.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	events := make([]*publisher.Event, len(p.events))
	copy(events, p.events)
	return events
}

// EventsNamed returns the published events with the given name
func (p *InMemoryEventPublisher) EventsNamed(name string) []*publisher.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*publisher.Event
	for _, e := range p.events {
		if e.EventName == name {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes all published events
func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make([]*publisher.Event, 0)
	p.err = nil
}
