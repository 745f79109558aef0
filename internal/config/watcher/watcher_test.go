package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNew_WithOptions(t *testing.T) {
	w := New(WithDebounce(50 * time.Millisecond))
	if w.debounce != 50*time.Millisecond {
		t.Errorf("debounce = %v, want 50ms", w.debounce)
	}

	w = New()
	if w.debounce != 100*time.Millisecond {
		t.Errorf("default debounce = %v, want 100ms", w.debounce)
	}
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatcher_WatchUnwatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "missing", "b.json")

	w := New()
	if err := w.Watch(b); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if err := w.Watch(a); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	files := w.WatchedFiles()
	if len(files) != 2 || files[0] != a {
		t.Errorf("WatchedFiles() = %v", files)
	}

	if err := w.Unwatch(a); err != nil {
		t.Fatalf("Unwatch() error = %v", err)
	}
	if files := w.WatchedFiles(); len(files) != 1 || files[0] != b {
		t.Errorf("WatchedFiles() after Unwatch = %v", files)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := New()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := w.Start(context.Background()); err != ErrRunning {
		t.Errorf("second Start() error = %v, want ErrRunning", err)
	}

	w.Stop()
	w.Stop()
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestWatcher_DetectsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	other := filepath.Join(dir, "other.json")

	w := New(WithDebounce(20 * time.Millisecond))
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	events := make(chan Event, 16)
	w.OnChange(func(event Event) {
		events <- event
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(other, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"a": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-events:
		if event.Path != path {
			t.Errorf("event.Path = %q, want %q", event.Path, path)
		}
		if event.Op != OpCreate {
			t.Errorf("event.Op = %v, want create (create + write coalesce)", event.Op)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event for created settings file")
	}

	select {
	case event := <-events:
		t.Errorf("unexpected extra event %+v", event)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_QueueEventCoalesces(t *testing.T) {
	w := New(WithDebounce(10 * time.Millisecond))
	base := time.Now()

	w.queueEvent(Event{Path: "/a", Op: OpCreate, Time: base})
	w.queueEvent(Event{Path: "/a", Op: OpWrite, Time: base.Add(time.Millisecond)})
	w.queueEvent(Event{Path: "/b", Op: OpWrite, Time: base})
	w.queueEvent(Event{Path: "/b", Op: OpRemove, Time: base.Add(time.Millisecond)})

	var (
		mu  sync.Mutex
		got []Event
	)
	w.OnChange(func(event Event) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
	})

	// Not yet stable.
	w.processPendingEvents(base.Add(5 * time.Millisecond))
	if len(got) != 0 {
		t.Fatalf("emitted %d events before debounce elapsed", len(got))
	}

	w.processPendingEvents(base.Add(time.Second))
	if len(got) != 2 {
		t.Fatalf("emitted %d events, want 2", len(got))
	}
	if got[0].Path != "/a" || got[0].Op != OpCreate {
		t.Errorf("got[0] = %+v, want create /a", got[0])
	}
	if got[1].Path != "/b" || got[1].Op != OpRemove {
		t.Errorf("got[1] = %+v, want remove /b", got[1])
	}
}

func TestWatcher_HandlerPanicRecovered(t *testing.T) {
	w := New(WithDebounce(0))

	var called bool
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(func(Event) { called = true })

	w.emitEvent(Event{Path: "/a", Op: OpWrite})
	if !called {
		t.Error("handler after a panicking handler was not called")
	}
}
