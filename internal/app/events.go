package app

import (
	"sync"

	"github.com/dshills/quicky/internal/config"
	"github.com/dshills/quicky/internal/config/notify"
	"github.com/dshills/quicky/internal/manager"
)

// hostEvents adapts store notifications and the active-resource feed to
// manager.Events.
type hostEvents struct {
	store *config.Store

	mu       sync.Mutex
	nextID   uint64
	handlers map[uint64]func(string)
}

func newHostEvents(store *config.Store) *hostEvents {
	return &hostEvents{
		store:    store,
		handlers: make(map[uint64]func(string)),
	}
}

// OnDidChangeConfiguration forwards every store change.
func (e *hostEvents) OnDidChangeConfiguration(fn func(manager.Change)) manager.Subscription {
	return e.store.Subscribe(func(event notify.ChangeEvent) {
		fn(event)
	})
}

// OnDidChangeActiveResource registers fn for SetResource calls.
func (e *hostEvents) OnDidChangeActiveResource(fn func(string)) manager.Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.handlers[id] = fn
	return &resourceSubscription{events: e, id: id}
}

// SetResource tells every registered handler that resource became active.
func (e *hostEvents) SetResource(resource string) {
	e.mu.Lock()
	handlers := make([]func(string), 0, len(e.handlers))
	for _, fn := range e.handlers {
		handlers = append(handlers, fn)
	}
	e.mu.Unlock()

	for _, fn := range handlers {
		fn(resource)
	}
}

// handlerCount returns the number of registered resource handlers.
func (e *hostEvents) handlerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

type resourceSubscription struct {
	once   sync.Once
	events *hostEvents
	id     uint64
}

func (s *resourceSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.events.mu.Lock()
		delete(s.events.handlers, s.id)
		s.events.mu.Unlock()
	})
}
