package auth_test

import (
	"context"
	"sync"

	auth "github.com/fyrekit/streamauth"
)

// fakeBus implements auth.Bus and records everything that flows through it.
type fakeBus struct {
	mu sync.Mutex

	handlers map[string][]func(data any)

	authenticated []map[string]any
	logins        []map[string]any
	logouts       int
	delegates     []auth.Delegate

	current map[string]any
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		handlers: make(map[string][]func(data any)),
		current:  make(map[string]any),
	}
}

func (b *fakeBus) On(event string, handler func(data any)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
	idx := len(b.handlers[event]) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		hs := b.handlers[event]
		if idx < len(hs) {
			b.handlers[event] = append(hs[:idx:idx], hs[idx+1:]...)
		}
	}
}

func (b *fakeBus) emit(event string, data any) {
	b.mu.Lock()
	hs := append([]func(data any){}, b.handlers[event]...)
	b.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

func (b *fakeBus) Authenticate(credentials map[string]any) {
	b.mu.Lock()
	b.authenticated = append(b.authenticated, credentials)
	b.mu.Unlock()
	b.emit("authenticate."+auth.Namespace, credentials[auth.Namespace])
}

func (b *fakeBus) Login(credentials map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logins = append(b.logins, credentials)
	for k, v := range credentials {
		b.current[k] = v
	}
}

func (b *fakeBus) Logout() {
	b.mu.Lock()
	b.logouts++
	b.current = make(map[string]any)
	b.mu.Unlock()
	b.emit(auth.EventLogout, nil)
}

func (b *fakeBus) Delegate(d auth.Delegate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delegates = append(b.delegates, d)
}

func (b *fakeBus) HasDelegate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.delegates) > 0
}

func (b *fakeBus) Get(namespace string) any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current[namespace]
}

func (b *fakeBus) loginCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.logins)
}

func (b *fakeBus) lastLogin() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.logins) == 0 {
		return nil
	}
	return b.logins[len(b.logins)-1]
}

// fakeLegacyUserSource stands in for the old-era conversation namespace.
type fakeLegacyUserSource struct {
	mu         sync.Mutex
	handlers   []func(token string)
	unsubs     int
	token      string
	userID     string
	readyFired bool
}

func (s *fakeLegacyUserSource) OnTokenChange(handler func(token string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubs++
	}
}

func (s *fakeLegacyUserSource) changeToken(token string) {
	s.mu.Lock()
	s.token = token
	hs := append([]func(string){}, s.handlers...)
	s.mu.Unlock()
	for _, h := range hs {
		h(token)
	}
}

func (s *fakeLegacyUserSource) Token() string  { return s.token }
func (s *fakeLegacyUserSource) UserID() string { return s.userID }

func (s *fakeLegacyUserSource) ReadyFired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyFired
}

func (s *fakeLegacyUserSource) FireReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readyFired = true
}

// fakeLegacyEventSource stands in for the beta-era global user emitter.
type fakeLegacyEventSource struct {
	auth.Emitter
}

// recordingRequester returns canned bodies and records requested URLs.
type recordingRequester struct {
	mu   sync.Mutex
	urls []string
	body []byte
	err  error
}

func (r *recordingRequester) Get(_ context.Context, url string) ([]byte, error) {
	r.mu.Lock()
	r.urls = append(r.urls, url)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.body, nil
}

func (r *recordingRequester) lastURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.urls) == 0 {
		return ""
	}
	return r.urls[len(r.urls)-1]
}
