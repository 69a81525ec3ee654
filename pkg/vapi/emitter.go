package vapi

import "sync"

// Subscription identifies a registered handler. The zero value is not
// registered and is safe to pass to Off.
type Subscription struct {
	event EventName
	id    uint64
}

// Event returns the event the subscription listens to.
func (s Subscription) Event() EventName {
	return s.event
}

// Valid reports whether s came from On or Once.
func (s Subscription) Valid() bool {
	return s.id != 0
}

type listener struct {
	id   uint64
	fn   Handler
	once bool
}

// Emitter is a registry of named-event handlers. It is safe for concurrent
// use; handlers run on the emitting goroutine without the registry lock held,
// so they may call On, Once and Off.
type Emitter struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[EventName][]listener
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[EventName][]listener)}
}

// On registers fn for every emission of event.
func (e *Emitter) On(event EventName, fn Handler) Subscription {
	return e.add(event, fn, false)
}

// Once registers fn for the next emission of event only.
func (e *Emitter) Once(event EventName, fn Handler) Subscription {
	return e.add(event, fn, true)
}

func (e *Emitter) add(event EventName, fn Handler, once bool) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[EventName][]listener)
	}
	e.nextID++
	e.listeners[event] = append(e.listeners[event], listener{id: e.nextID, fn: fn, once: once})
	return Subscription{event: event, id: e.nextID}
}

// Off removes the handler behind sub. It reports whether one was removed.
func (e *Emitter) Off(sub Subscription) bool {
	if !sub.Valid() {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ls := e.listeners[sub.event]
	for i, l := range ls {
		if l.id == sub.id {
			e.listeners[sub.event] = append(ls[:i:i], ls[i+1:]...)
			return true
		}
	}
	return false
}

// Emit delivers ev to the handlers registered for ev.Name and returns how
// many ran. Once handlers are removed before any handler runs.
func (e *Emitter) Emit(ev Event) int {
	e.mu.Lock()
	ls := e.listeners[ev.Name]
	if len(ls) == 0 {
		e.mu.Unlock()
		return 0
	}

	fns := make([]Handler, 0, len(ls))
	kept := ls[:0:0]
	for _, l := range ls {
		fns = append(fns, l.fn)
		if !l.once {
			kept = append(kept, l)
		}
	}
	e.listeners[ev.Name] = kept
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return len(fns)
}

// ListenerCount returns the number of handlers registered for event.
func (e *Emitter) ListenerCount(event EventName) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}
