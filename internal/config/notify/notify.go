// Package notify provides change notification for configuration updates.
//
// The notify package implements an observer pattern that allows components
// to subscribe to configuration changes and receive callbacks when settings
// are modified, either by a write through the store or by an edit to a
// settings file on disk.
package notify

import (
	"strings"
	"sync"
)

// ChangeEvent describes one configuration change.
type ChangeEvent struct {
	// Keys are the dot-separated keys whose effective value may have changed.
	Keys []string

	// Source identifies where the change came from (a layer name or "update").
	Source string

	// Reload is set when a whole layer was replaced and Keys may be incomplete.
	Reload bool
}

// Affects reports whether the change touches section. A key affects a
// section when it is the section itself, lies beneath it, or contains it.
// Reload events affect every section.
func (e ChangeEvent) Affects(section string) bool {
	if e.Reload {
		return true
	}
	for _, key := range e.Keys {
		if key == section || isParentPath(section, key) || isParentPath(key, section) {
			return true
		}
	}
	return false
}

// Observer is called when configuration changes occur.
type Observer func(event ChangeEvent)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
	once     sync.Once
}

// Unsubscribe removes this subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.notifier == nil {
		return
	}
	s.once.Do(func() {
		s.notifier.unsubscribe(s.id)
	})
}

// Notifier manages configuration change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Observers keyed by subscription ID
	observers map[uint64]entry

	// Next subscription ID
	nextID uint64

	// Whether to notify synchronously or asynchronously
	async bool

	// Buffer for async notifications
	buffer chan ChangeEvent

	// Done channel for shutdown
	done chan struct{}

	// Wait group for async goroutine
	wg sync.WaitGroup

	// Closed flag for idempotent Close
	closed bool
}

type entry struct {
	section  string
	observer Observer
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous notification delivery.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan ChangeEvent, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		observers: make(map[uint64]entry),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.SubscribeSection("", observer)
}

// SubscribeSection registers an observer for changes affecting section.
// An empty section receives every change.
func (n *Notifier) SubscribeSection(section string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = entry{section: section, observer: observer}

	return &Subscription{id: id, notifier: n}
}

// Count returns the number of active subscriptions.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}

// Notify sends a change notification to all relevant observers.
// Events without keys and without the reload flag are dropped.
func (n *Notifier) Notify(event ChangeEvent) {
	if len(event.Keys) == 0 && !event.Reload {
		return
	}

	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- event:
		case <-n.done:
		}
		return
	}

	n.deliver(event)
}

// NotifyKeys is a convenience method for key changes.
func (n *Notifier) NotifyKeys(source string, keys ...string) {
	n.Notify(ChangeEvent{Keys: keys, Source: source})
}

// NotifyReload is a convenience method for reload events.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(ChangeEvent{Source: source, Reload: true})
}

// Close shuts down the notifier. It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}

// deliver sends an event to all matching observers.
func (n *Notifier) deliver(event ChangeEvent) {
	n.mu.RLock()
	var observers []Observer
	for _, e := range n.observers {
		if e.section == "" || event.Affects(e.section) {
			observers = append(observers, e.observer)
		}
	}
	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(event)
	}
}

// processAsync handles asynchronous notification delivery.
func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case event := <-n.buffer:
			n.deliver(event)
		case <-n.done:
			// Drain remaining buffered events
			for {
				select {
				case event := <-n.buffer:
					n.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// isParentPath checks if parent is a parent path of child.
// e.g., "editor" is parent of "editor.tabSize".
func isParentPath(parent, child string) bool {
	if parent == "" || len(parent) >= len(child) {
		return false
	}
	return strings.HasPrefix(child, parent) && child[len(parent)] == '.'
}
