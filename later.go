package auth

import "sync"

// DeferredBus queues bus calls made before the real bus has arrived and
// flushes them, in order, once Attach is called. It lets embedders wire the
// plugin up front while the hosting script is still loading.
type DeferredBus struct {
	mu      sync.Mutex
	bus     Bus
	pending []func(Bus)
}

var _ Bus = (*DeferredBus)(nil)

func NewDeferredBus() *DeferredBus {
	return &DeferredBus{}
}

// Attach binds the real bus, replays every queued call, and, when a session
// user is already logged in, re-announces it: subscribers that registered
// while detached would otherwise have lost that race.
func (d *DeferredBus) Attach(bus Bus) {
	d.mu.Lock()
	d.bus = bus
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, call := range pending {
		call(bus)
	}

	if data := bus.Get(Namespace); data != nil {
		bus.Login(map[string]any{Namespace: data})
	}
}

// deferredSub is a subscription made before Attach. off cancels it whether
// or not it has been replayed yet.
type deferredSub struct {
	mu        sync.Mutex
	cancelled bool
	off       func()
}

func (s *deferredSub) cancel() {
	s.mu.Lock()
	s.cancelled = true
	off := s.off
	s.mu.Unlock()
	if off != nil {
		off()
	}
}

func (s *deferredSub) apply(bus Bus, event string, handler func(data any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.off = bus.On(event, handler)
}

func (d *DeferredBus) On(event string, handler func(data any)) (off func()) {
	d.mu.Lock()
	if d.bus != nil {
		bus := d.bus
		d.mu.Unlock()
		return bus.On(event, handler)
	}
	sub := &deferredSub{}
	d.pending = append(d.pending, func(bus Bus) {
		sub.apply(bus, event, handler)
	})
	d.mu.Unlock()
	return sub.cancel
}

func (d *DeferredBus) Authenticate(credentials map[string]any) {
	d.forward(func(bus Bus) { bus.Authenticate(credentials) })
}

func (d *DeferredBus) Login(credentials map[string]any) {
	d.forward(func(bus Bus) { bus.Login(credentials) })
}

func (d *DeferredBus) Logout() {
	d.forward(func(bus Bus) { bus.Logout() })
}

func (d *DeferredBus) Delegate(delegate Delegate) {
	d.forward(func(bus Bus) { bus.Delegate(delegate) })
}

// HasDelegate answers false while detached; the queued Delegate call, if
// any, has not reached a real bus yet.
func (d *DeferredBus) HasDelegate() bool {
	d.mu.Lock()
	bus := d.bus
	d.mu.Unlock()
	if bus == nil {
		return false
	}
	return bus.HasDelegate()
}

// Get answers nil while detached.
func (d *DeferredBus) Get(namespace string) any {
	d.mu.Lock()
	bus := d.bus
	d.mu.Unlock()
	if bus == nil {
		return nil
	}
	return bus.Get(namespace)
}

func (d *DeferredBus) forward(call func(Bus)) {
	d.mu.Lock()
	if d.bus != nil {
		bus := d.bus
		d.mu.Unlock()
		call(bus)
		return
	}
	d.pending = append(d.pending, call)
	d.mu.Unlock()
}
