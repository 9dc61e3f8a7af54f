package auth

import "sync"

// Emitter is a small synchronous event emitter. Handlers run inline on the
// emitting goroutine, in subscription order. It backs the observable User
// model and the fake legacy sources used in tests.
type Emitter struct {
	mu       sync.Mutex
	handlers map[string][]*listener
	seq      int
}

type listener struct {
	id   int
	once bool
	fn   func(data any)
}

// On subscribes fn to event and returns an unsubscribe func. Unsubscribing
// more than once is a no-op.
func (e *Emitter) On(event string, fn func(data any)) (off func()) {
	return e.subscribe(event, fn, false)
}

// Once subscribes fn for a single delivery.
func (e *Emitter) Once(event string, fn func(data any)) (off func()) {
	return e.subscribe(event, fn, true)
}

func (e *Emitter) subscribe(event string, fn func(data any), once bool) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[string][]*listener)
	}
	e.seq++
	l := &listener{id: e.seq, once: once, fn: fn}
	e.handlers[event] = append(e.handlers[event], l)
	id := l.id
	return func() { e.remove(event, id) }
}

func (e *Emitter) remove(event string, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls := e.handlers[event]
	for i, l := range ls {
		if l.id == id {
			e.handlers[event] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Emit delivers data to every subscriber of event, synchronously.
func (e *Emitter) Emit(event string, data any) {
	e.mu.Lock()
	ls := e.handlers[event]
	snapshot := make([]*listener, len(ls))
	copy(snapshot, ls)
	remaining := ls[:0:0]
	for _, l := range ls {
		if !l.once {
			remaining = append(remaining, l)
		}
	}
	if e.handlers != nil {
		e.handlers[event] = remaining
	}
	e.mu.Unlock()

	for _, l := range snapshot {
		l.fn(data)
	}
}

// RemoveAllListeners drops every subscription.
func (e *Emitter) RemoveAllListeners() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = nil
}
