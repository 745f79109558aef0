package notify

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_WithAsync(t *testing.T) {
	n := New(WithAsync(100))
	if n == nil {
		t.Fatal("New() returned nil")
	}
	if !n.async {
		t.Error("expected async = true")
	}
	defer n.Close()
}

func TestChangeEvent_Affects(t *testing.T) {
	tests := []struct {
		name    string
		event   ChangeEvent
		section string
		want    bool
	}{
		{"exact", ChangeEvent{Keys: []string{"quicky.settingDefinitions"}}, "quicky.settingDefinitions", true},
		{"child", ChangeEvent{Keys: []string{"quicky.settingDefinitions"}}, "quicky", true},
		{"parent", ChangeEvent{Keys: []string{"quicky"}}, "quicky.settingDefinitions", true},
		{"sibling", ChangeEvent{Keys: []string{"quicky.updatePolicy"}}, "quicky.settingDefinitions", false},
		{"prefix only", ChangeEvent{Keys: []string{"quickyx"}}, "quicky", false},
		{"reload", ChangeEvent{Reload: true}, "anything", true},
		{"empty", ChangeEvent{}, "quicky", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Affects(tt.section); got != tt.want {
				t.Errorf("Affects(%q) = %v, want %v", tt.section, got, tt.want)
			}
		})
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var received atomic.Int32

	sub := n.Subscribe(func(event ChangeEvent) {
		received.Add(1)
	})

	n.NotifyKeys("user", "editor.tabSize")
	if received.Load() != 1 {
		t.Fatalf("received = %d, want 1", received.Load())
	}

	sub.Unsubscribe()
	sub.Unsubscribe()

	n.NotifyKeys("user", "editor.tabSize")
	if received.Load() != 1 {
		t.Error("unsubscribed observer received notification")
	}
	if n.Count() != 0 {
		t.Errorf("Count() = %d, want 0", n.Count())
	}
}

func TestNotifier_SubscribeSection(t *testing.T) {
	n := New()
	defer n.Close()

	var quicky, editor atomic.Int32

	n.SubscribeSection("quicky", func(ChangeEvent) { quicky.Add(1) })
	n.SubscribeSection("editor", func(ChangeEvent) { editor.Add(1) })

	n.NotifyKeys("user", "quicky.settingDefinitions")
	n.NotifyKeys("workspace", "editor.tabSize", "editor.wordWrap")
	n.NotifyReload("folder:/src")

	if got := quicky.Load(); got != 2 {
		t.Errorf("quicky observer calls = %d, want 2", got)
	}
	if got := editor.Load(); got != 2 {
		t.Errorf("editor observer calls = %d, want 2", got)
	}
}

func TestNotifier_EmptyEventDropped(t *testing.T) {
	n := New()
	defer n.Close()

	var calls atomic.Int32
	n.Subscribe(func(ChangeEvent) { calls.Add(1) })

	n.Notify(ChangeEvent{Source: "user"})
	if calls.Load() != 0 {
		t.Error("event without keys should not be delivered")
	}
}

func TestNotifier_Async(t *testing.T) {
	n := New(WithAsync(10))

	var (
		mu     sync.Mutex
		events []ChangeEvent
	)
	n.Subscribe(func(event ChangeEvent) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		n.NotifyKeys("user", "a")
	}

	// Close drains the buffer.
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 5 {
		t.Errorf("delivered %d events, want 5", len(events))
	}
}

func TestNotifier_NotifyAfterClose(t *testing.T) {
	n := New()
	var calls atomic.Int32
	n.Subscribe(func(ChangeEvent) { calls.Add(1) })

	n.Close()
	n.Close()
	n.NotifyKeys("user", "a")

	if calls.Load() != 0 {
		t.Error("observer called after Close")
	}
}

func TestNotifier_ConcurrentSubscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := n.Subscribe(func(ChangeEvent) {})
			n.NotifyKeys("user", "a")
			sub.Unsubscribe()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent subscribe/notify deadlocked")
	}

	if n.Count() != 0 {
		t.Errorf("Count() = %d, want 0", n.Count())
	}
}
