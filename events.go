package iomodal

import "sync"

// EventType names a dialog lifecycle event.
type EventType string

// Lifecycle events, in the order they fire across one dialog's life.
const (
	EventWillOpen   EventType = "willOpen"
	EventDidRender  EventType = "didRender"
	EventDidOpen    EventType = "didOpen"
	EventWillClose  EventType = "willClose"
	EventDidClose   EventType = "didClose"
	EventDidDestroy EventType = "didDestroy"
)

// ListenerID identifies a registered lifecycle listener for removal.
type ListenerID uint64

type eventListener struct {
	id ListenerID
	fn HookFunc
}

// eventTarget is a per-dialog listener registry. Dispatch order is the hook
// from the configuration first, then listeners in registration order.
type eventTarget struct {
	mu        sync.Mutex
	listeners map[EventType][]eventListener
	nextID    ListenerID
}

func newEventTarget() *eventTarget {
	return &eventTarget{listeners: make(map[EventType][]eventListener)}
}

// add registers fn for event and returns its removal handle. A nil fn
// returns zero without registering.
func (t *eventTarget) add(event EventType, fn HookFunc) ListenerID {
	if fn == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.listeners[event] = append(t.listeners[event], eventListener{id: id, fn: fn})
	return id
}

// remove deregisters the listener and reports whether it was found.
func (t *eventTarget) remove(event EventType, id ListenerID) bool {
	if id == 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ls := t.listeners[event]
	for i, l := range ls {
		if l.id == id {
			t.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns the current listeners for event, in registration order.
// Callers invoke them outside the lock; a listener removed concurrently may
// still observe one in-flight dispatch.
func (t *eventTarget) snapshot(event EventType) []HookFunc {
	t.mu.Lock()
	defer t.mu.Unlock()
	ls := t.listeners[event]
	if len(ls) == 0 {
		return nil
	}
	out := make([]HookFunc, len(ls))
	for i, l := range ls {
		out[i] = l.fn
	}
	return out
}
