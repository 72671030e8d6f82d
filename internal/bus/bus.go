// Package bus is a synchronous named-channel publish/subscribe hub. Delivery
// happens on the publisher's goroutine, in registration order, with each
// handler's panic contained so one bad listener cannot starve the rest.
package bus

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const historyLimit = 100

type Handler func(payload any)

// Record is one retained history entry.
type Record struct {
	Event   string
	Payload any
	At      time.Time
}

type subscription struct {
	id int
	fn Handler
}

type Bus struct {
	logger   *log.Logger
	nextID   int
	handlers map[string][]subscription
	history  []Record
}

func New(logger *log.Logger) *Bus {
	return &Bus{
		logger:   logger,
		handlers: make(map[string][]subscription),
	}
}

// Subscribe registers fn for event and returns its unsubscribe function.
// Handler funcs are not comparable in Go, so removal goes through the handle.
func (b *Bus) Subscribe(event string, fn Handler) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscription{id: id, fn: fn})
	return func() {
		subs := b.handlers[event]
		for i, s := range subs {
			if s.id == id {
				b.handlers[event] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish records the event in history, then invokes every listener
// registered at call time. Re-entrant publishes from inside a handler run
// depth-first before the outer dispatch continues.
func (b *Bus) Publish(event string, payload any) {
	b.history = append(b.history, Record{Event: event, Payload: payload, At: time.Now()})
	if len(b.history) > historyLimit {
		b.history = b.history[len(b.history)-historyLimit:]
	}

	subs := b.handlers[event]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	for _, s := range snapshot {
		b.dispatch(event, payload, s.fn)
	}
}

func (b *Bus) dispatch(event string, payload any, fn Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("event", event).Errorf("bus handler panicked: %v", r)
		}
	}()
	fn(payload)
}

// History returns a copy of the retained records, oldest first.
func (b *Bus) History() []Record {
	out := make([]Record, len(b.history))
	copy(out, b.history)
	return out
}
