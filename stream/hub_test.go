package stream

import (
	"testing"
	"time"
)

func TestHubWatchUnwatch(t *testing.T) {
	hub := NewHub[int](time.Second)

	if hub.WatcherCount() != 0 {
		t.Errorf("expected 0 watchers, got %d", hub.WatcherCount())
	}
	w1 := hub.Watch(4)
	w2 := hub.Watch(4)
	if hub.WatcherCount() != 2 {
		t.Errorf("expected 2 watchers, got %d", hub.WatcherCount())
	}

	hub.Broadcast(1)
	for _, w := range []*Watcher[int]{w1, w2} {
		if v := <-w.Events; v != 1 {
			t.Errorf("expected 1, got %d", v)
		}
	}

	hub.Unwatch(w1)
	if hub.WatcherCount() != 1 {
		t.Errorf("expected 1 watcher, got %d", hub.WatcherCount())
	}
	hub.Broadcast(2)
	select {
	case v := <-w1.Events:
		t.Errorf("unwatched watcher received %d", v)
	default:
	}
	if v := <-w2.Events; v != 2 {
		t.Errorf("expected 2, got %d", v)
	}
}

func TestHubPrimesNewWatcher(t *testing.T) {
	hub := NewHub[string](time.Second)
	w := hub.Watch(1)
	select {
	case v := <-w.Events:
		t.Errorf("watcher primed before any broadcast: %q", v)
	default:
	}
	hub.Broadcast("a")
	<-w.Events

	late := hub.Watch(1)
	if v := <-late.Events; v != "a" {
		t.Errorf("late watcher got %q, want a", v)
	}
	if last, ok := hub.Last(); !ok || last != "a" {
		t.Errorf("Last() = %q, %v", last, ok)
	}
}

func TestHubSlowWatcherFails(t *testing.T) {
	hub := NewHub[int](20 * time.Millisecond)
	slow := hub.Watch(1)
	fast := hub.Watch(8)

	hub.Broadcast(1) // fills slow's buffer
	hub.Broadcast(2) // times out on slow

	if !slow.IsFailed() {
		t.Error("slow watcher not failed")
	}
	if fast.IsFailed() {
		t.Error("fast watcher failed")
	}
	if hub.WatcherCount() != 1 {
		t.Errorf("expected failed watcher removed, got %d watchers", hub.WatcherCount())
	}
	if v := <-fast.Events; v != 1 {
		t.Errorf("expected 1, got %d", v)
	}
	if v := <-fast.Events; v != 2 {
		t.Errorf("expected 2, got %d", v)
	}
}

func TestHubClose(t *testing.T) {
	hub := NewHub[int](time.Second)
	w := hub.Watch(2)
	hub.Broadcast(7)
	hub.Close()
	hub.Broadcast(8)

	var got []int
	for v := range w.Events {
		got = append(got, v)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("expected [7], got %v", got)
	}

	after := hub.Watch(1)
	v, ok := <-after.Events
	if !ok || v != 7 {
		t.Errorf("watch after close got %d, %v", v, ok)
	}
	if _, ok := <-after.Events; ok {
		t.Error("expected closed channel after the last value")
	}
}
