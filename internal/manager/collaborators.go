package manager

import (
	"context"

	"github.com/dshills/quicky/internal/scope"
	"github.com/dshills/quicky/internal/value"
)

// Store is the host configuration store.
type Store interface {
	// Get returns the effective value of key as seen from resource.
	Get(key, resource string) (any, bool)

	// Inspect returns the per-scope values of key as seen from resource.
	Inspect(key, resource string) scope.Inspection

	// Update writes value for key at target.
	Update(ctx context.Context, key string, value any, target scope.Target, resource string) error

	// WorkspaceOpen reports whether a project context exists.
	WorkspaceOpen() bool

	// HasFolder reports whether a workspace folder contains resource.
	HasFolder(resource string) bool
}

// Item is one entry of a selection list.
type Item struct {
	Label       string
	Description string
	Detail      string

	// Picked marks the entry matching the current value.
	Picked bool
}

// UI is the host selection UI.
type UI interface {
	// Choose shows items and returns the index of the chosen one.
	// ok is false when the user dismissed the list.
	Choose(ctx context.Context, prompt string, items []Item) (index int, ok bool, err error)

	// Notify shows an informational message.
	Notify(ctx context.Context, message string) error
}

// Sink receives published signals.
type Sink interface {
	Publish(ctx context.Context, name string, v value.Value) error
}

// Change is a configuration change notification.
type Change interface {
	// Affects reports whether the change touches section, its children or
	// its parents.
	Affects(section string) bool
}

// Subscription is a handle returned by Events. Unsubscribe must be safe to
// call more than once.
type Subscription interface {
	Unsubscribe()
}

// Events delivers host notifications.
type Events interface {
	OnDidChangeConfiguration(func(Change)) Subscription
	OnDidChangeActiveResource(func(resource string)) Subscription
}
