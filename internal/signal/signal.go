// Package signal holds the named values that Quicky publishes for the host.
//
// A signal is a context key such as "quicky.setting.editor.wordWrap" or
// "quicky.setting.editor.wordWrap.is.str_on" mapped to a primitive value.
// The Sink stands in for the host's context-key store: it keeps the latest
// value per name and tells subscribers about values that changed.
package signal

import (
	"context"
	"sort"
	"sync"

	"github.com/dshills/quicky/internal/value"
)

// Entry is one published signal.
type Entry struct {
	Name  string
	Value value.Value
}

// Change describes a signal whose value changed.
type Change struct {
	Name string
	Old  value.Value
	New  value.Value

	// Existed is false when the signal was published for the first time.
	Existed bool
}

// Observer is called for every changed signal.
type Observer func(change Change)

// Sink is a concurrency-safe in-memory signal store.
type Sink struct {
	mu        sync.RWMutex
	values    map[string]value.Value
	observers map[uint64]Observer
	nextID    uint64
	publishes uint64
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{
		values:    make(map[string]value.Value),
		observers: make(map[uint64]Observer),
	}
}

// Publish stores v under name. Observers are called when the stored value
// changes. It fails only when ctx is already done.
func (s *Sink) Publish(ctx context.Context, name string, v value.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.publishes++
	old, existed := s.values[name]
	if existed && value.Identical(old, v) {
		s.mu.Unlock()
		return nil
	}
	s.values[name] = v

	observers := make([]Observer, 0, len(s.observers))
	for _, obs := range s.observers {
		observers = append(observers, obs)
	}
	s.mu.Unlock()

	change := Change{Name: name, Old: old, New: v, Existed: existed}
	for _, obs := range observers {
		obs(change)
	}
	return nil
}

// Get returns the value published under name.
func (s *Sink) Get(name string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Len returns the number of distinct signals.
func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Publishes returns how many Publish calls were accepted, changed or not.
func (s *Sink) Publishes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publishes
}

// Snapshot returns every signal sorted by name.
func (s *Sink) Snapshot() []Entry {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.values))
	for name, v := range s.values {
		entries = append(entries, Entry{Name: name, Value: v})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Subscribe registers an observer for changed signals.
func (s *Sink) Subscribe(observer Observer) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = observer
	return &Subscription{id: id, sink: s}
}

// Subscription is an active observer registration.
type Subscription struct {
	id   uint64
	sink *Sink
	once sync.Once
}

// Unsubscribe removes the observer. It is safe to call more than once.
func (sub *Subscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.sink.mu.Lock()
		delete(sub.sink.observers, sub.id)
		sub.sink.mu.Unlock()
	})
}
