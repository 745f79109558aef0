package manager

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dshills/quicky/internal/config/notify"
	"github.com/dshills/quicky/internal/definition"
	"github.com/dshills/quicky/internal/scope"
	"github.com/dshills/quicky/internal/signal"
	"github.com/dshills/quicky/internal/value"
)

type update struct {
	key    string
	value  any
	target scope.Target
}

// stubStore is a layered in-memory Store that counts reads of the
// definition list.
type stubStore struct {
	mu        sync.Mutex
	defaults  map[string]any
	global    map[string]any
	workspace map[string]any
	folder    map[string]any

	workspaceOpen bool
	// noFolder makes every resource fall outside the workspace folders.
	noFolder      bool
	updateErr     error
	updates       []update

	definitionReads atomic.Int32

	// onDefinitionRead runs outside the lock on every read of the
	// definition list.
	onDefinitionRead func()
}

func newStubStore() *stubStore {
	return &stubStore{
		defaults:  map[string]any{},
		global:    map[string]any{},
		workspace: map[string]any{},
		folder:    map[string]any{},
	}
}

func (s *stubStore) Get(key, resource string) (any, bool) {
	if key == definition.SettingsKey {
		s.definitionReads.Add(1)
		if s.onDefinitionRead != nil {
			s.onDefinitionRead()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	layers := []map[string]any{s.workspace, s.global, s.defaults}
	if resource != "" {
		layers = append([]map[string]any{s.folder}, layers...)
	}
	for _, layer := range layers {
		if v, ok := layer[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *stubStore) Inspect(key, resource string) scope.Inspection {
	s.mu.Lock()
	defer s.mu.Unlock()

	insp := scope.Inspection{Key: key}
	if v, ok := s.defaults[key]; ok {
		insp.Default = scope.Set(v)
	}
	if v, ok := s.global[key]; ok {
		insp.Global = scope.Set(v)
	}
	if v, ok := s.workspace[key]; ok {
		insp.Workspace = scope.Set(v)
	}
	if v, ok := s.folder[key]; ok && resource != "" {
		insp.Folder = scope.Set(v)
	}
	return insp
}

func (s *stubStore) Update(ctx context.Context, key string, v any, target scope.Target, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates = append(s.updates, update{key: key, value: v, target: target})
	if s.updateErr != nil {
		return s.updateErr
	}
	switch target {
	case scope.TargetFolder:
		s.folder[key] = v
	case scope.TargetWorkspace:
		s.workspace[key] = v
	default:
		s.global[key] = v
	}
	return nil
}

func (s *stubStore) WorkspaceOpen() bool { return s.workspaceOpen }

func (s *stubStore) HasFolder(resource string) bool {
	return resource != "" && !s.noFolder
}

func (s *stubStore) Updates() []update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]update(nil), s.updates...)
}

// stubUI answers Choose calls from a script and records everything shown.
type stubUI struct {
	mu       sync.Mutex
	answers  []int // -1 dismisses
	prompts  []string
	lists    [][]Item
	messages []string
	err      error
}

func (u *stubUI) Choose(ctx context.Context, prompt string, items []Item) (int, bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.prompts = append(u.prompts, prompt)
	u.lists = append(u.lists, items)
	if u.err != nil {
		return 0, false, u.err
	}
	if len(u.answers) == 0 {
		return 0, false, nil
	}
	answer := u.answers[0]
	u.answers = u.answers[1:]
	return answer, answer >= 0, nil
}

func (u *stubUI) Notify(ctx context.Context, message string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.messages = append(u.messages, message)
	return nil
}

// failingSink fails every publication of one signal name.
type failingSink struct {
	*signal.Sink
	fail string
}

func (f failingSink) Publish(ctx context.Context, name string, v value.Value) error {
	if name == f.fail {
		return errors.New("host rejected signal")
	}
	return f.Sink.Publish(ctx, name, v)
}

// gatedSink holds the first publication of one signal until release is
// closed.
type gatedSink struct {
	*signal.Sink
	gate    string
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedSink(gate string) *gatedSink {
	return &gatedSink{
		Sink:    signal.NewSink(),
		gate:    gate,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedSink) Publish(ctx context.Context, name string, v value.Value) error {
	if name == g.gate {
		held := false
		g.once.Do(func() { held = true })
		if held {
			close(g.entered)
			<-g.release
		}
	}
	return g.Sink.Publish(ctx, name, v)
}

// stubEvents records subscriptions and lets tests fire events.
type stubEvents struct {
	mu       sync.Mutex
	onConfig []func(Change)
	onActive []func(string)
	removed  atomic.Int32
}

type stubSubscription struct {
	once   sync.Once
	events *stubEvents
}

func (s *stubSubscription) Unsubscribe() {
	s.once.Do(func() { s.events.removed.Add(1) })
}

func (e *stubEvents) OnDidChangeConfiguration(fn func(Change)) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onConfig = append(e.onConfig, fn)
	return &stubSubscription{events: e}
}

func (e *stubEvents) OnDidChangeActiveResource(fn func(string)) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onActive = append(e.onActive, fn)
	return &stubSubscription{events: e}
}

func (e *stubEvents) fireConfig(change Change) {
	e.mu.Lock()
	fns := append([]func(Change){}, e.onConfig...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(change)
	}
}

func (e *stubEvents) fireActive(resource string) {
	e.mu.Lock()
	fns := append([]func(string){}, e.onActive...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(resource)
	}
}

// keys is a Change touching the given keys.
func keys(k ...string) Change {
	return notify.ChangeEvent{Keys: k, Source: "test"}
}

func noBuiltins() []definition.Raw { return nil }

func flagBuiltin() []definition.Raw {
	return []definition.Raw{definition.NewRaw(map[string]any{
		"id": "flag",
		"options": []any{
			map[string]any{"value": true, "label": "On"},
			map[string]any{"value": false, "label": "Off"},
		},
		"defaultOptionValue": true,
	})}
}

// rawDef builds a host definition with string-labelled options.
func rawDef(id, label string, options ...any) map[string]any {
	opts := make([]any, 0, len(options)/2)
	for i := 0; i+1 < len(options); i += 2 {
		opts = append(opts, map[string]any{"value": options[i], "label": options[i+1]})
	}
	return map[string]any{"id": id, "label": label, "options": opts}
}

type harness struct {
	store  *stubStore
	ui     *stubUI
	sink   *signal.Sink
	events *stubEvents
	logs   *bytes.Buffer
	mgr    *Manager
}

func newHarness(t *testing.T, configure func(*Options)) *harness {
	t.Helper()

	h := &harness{
		store:  newStubStore(),
		ui:     &stubUI{},
		sink:   signal.NewSink(),
		events: &stubEvents{},
		logs:   &bytes.Buffer{},
	}
	// Mark the definition list as user-owned so Initialize does not write.
	h.store.global[definition.SettingsKey] = []any{}

	opts := Options{
		Store:    h.store,
		UI:       h.ui,
		Sink:     h.sink,
		Events:   h.events,
		Logger:   zerolog.New(h.logs),
		Builtins: flagBuiltin,
	}
	if configure != nil {
		configure(&opts)
	}
	h.mgr = New(opts)
	t.Cleanup(h.mgr.Close)
	return h
}

func (h *harness) signal(t *testing.T, name string) value.Value {
	t.Helper()
	v, ok := h.sink.Get(name)
	if !ok {
		t.Fatalf("signal %q was not published", name)
	}
	return v
}
